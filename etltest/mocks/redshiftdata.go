package mocks

import (
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice"
	"github.com/aws/aws-sdk-go/service/redshiftdataapiservice/redshiftdataapiserviceiface"
	"github.com/stretchr/testify/mock"
)

type RedshiftDataAPI struct {
	mock.Mock
	redshiftdataapiserviceiface.RedshiftDataAPIServiceAPI
}

func (m *RedshiftDataAPI) ExecuteStatement(input *redshiftdataapiservice.ExecuteStatementInput) (*redshiftdataapiservice.ExecuteStatementOutput, error) {
	args := m.Called(input)
	out, _ := args.Get(0).(*redshiftdataapiservice.ExecuteStatementOutput)
	return out, args.Error(1)
}

func (m *RedshiftDataAPI) DescribeStatement(input *redshiftdataapiservice.DescribeStatementInput) (*redshiftdataapiservice.DescribeStatementOutput, error) {
	args := m.Called(input)
	out, _ := args.Get(0).(*redshiftdataapiservice.DescribeStatementOutput)
	return out, args.Error(1)
}

func (m *RedshiftDataAPI) GetStatementResult(input *redshiftdataapiservice.GetStatementResultInput) (*redshiftdataapiservice.GetStatementResultOutput, error) {
	args := m.Called(input)
	out, _ := args.Get(0).(*redshiftdataapiservice.GetStatementResultOutput)
	return out, args.Error(1)
}
