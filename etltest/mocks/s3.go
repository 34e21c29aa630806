// Package mocks provides testify mocks for the AWS interfaces the jobs
// depend on. Only the methods the pipeline actually calls are mocked;
// the embedded interface satisfies the rest and panics if something
// unexpected is invoked.
package mocks

import (
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/mock"
)

type S3API struct {
	mock.Mock
	s3iface.S3API
}

func (m *S3API) ListObjectsV2Pages(input *s3.ListObjectsV2Input, fn func(*s3.ListObjectsV2Output, bool) bool) error {
	args := m.Called(input, fn)
	return args.Error(0)
}

func (m *S3API) GetObject(input *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
	args := m.Called(input)
	out, _ := args.Get(0).(*s3.GetObjectOutput)
	return out, args.Error(1)
}

func (m *S3API) PutObject(input *s3.PutObjectInput) (*s3.PutObjectOutput, error) {
	args := m.Called(input)
	out, _ := args.Get(0).(*s3.PutObjectOutput)
	return out, args.Error(1)
}

func (m *S3API) HeadBucket(input *s3.HeadBucketInput) (*s3.HeadBucketOutput, error) {
	args := m.Called(input)
	out, _ := args.Get(0).(*s3.HeadBucketOutput)
	return out, args.Error(1)
}

func (m *S3API) CreateBucket(input *s3.CreateBucketInput) (*s3.CreateBucketOutput, error) {
	args := m.Called(input)
	out, _ := args.Get(0).(*s3.CreateBucketOutput)
	return out, args.Error(1)
}
