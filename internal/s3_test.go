package internal

import (
	"io"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rdtavares/pokelake/etltest/mocks"
)

func TestListObjectKeysSkipsFoldersAndPaginates(t *testing.T) {
	s3mock := &mocks.S3API{}
	s3mock.On("ListObjectsV2Pages",
		mock.MatchedBy(func(input *s3.ListObjectsV2Input) bool {
			return *input.Bucket == "bkt" && *input.Prefix == "raw/"
		}),
		mock.Anything,
	).Run(func(args mock.Arguments) {
		fn := args.Get(1).(func(*s3.ListObjectsV2Output, bool) bool)
		fn(&s3.ListObjectsV2Output{Contents: []*s3.Object{
			{Key: aws.String("raw/"), Size: aws.Int64(0)},
			{Key: aws.String("raw/pokemon.csv"), Size: aws.Int64(120)},
		}}, false)
		fn(&s3.ListObjectsV2Output{Contents: []*s3.Object{
			{Key: aws.String("raw/archive.zip"), Size: aws.Int64(900)},
		}}, true)
	}).Return(nil)

	keys, err := ListObjectKeys(s3mock, "bkt", "raw/")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/pokemon.csv", "raw/archive.zip"}, keys)
}

func TestGetObjectBytes(t *testing.T) {
	s3mock := &mocks.S3API{}
	s3mock.On("GetObject", mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Key == "raw/pokemon.csv"
	})).Return(&s3.GetObjectOutput{
		Body: io.NopCloser(strings.NewReader("name\nBulbasaur\n")),
	}, nil)

	data, err := GetObjectBytes(s3mock, "bkt", "raw/pokemon.csv")
	require.NoError(t, err)
	assert.Equal(t, "name\nBulbasaur\n", string(data))
}

func TestPutObjectBytesCarriesMetadata(t *testing.T) {
	s3mock := &mocks.S3API{}
	s3mock.On("PutObject", mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "bkt" &&
			*input.Key == "bronze/out.parquet" &&
			aws.StringValue(input.Metadata["layer"]) == "bronze" &&
			aws.Int64Value(input.ContentLength) == 4
	})).Return(&s3.PutObjectOutput{}, nil)

	err := PutObjectBytes(s3mock, "bkt", "bronze/out.parquet", []byte("data"),
		map[string]string{"layer": "bronze"})
	require.NoError(t, err)
	s3mock.AssertExpectations(t)
}

func TestEnsureBucketCreatesWhenMissing(t *testing.T) {
	s3mock := &mocks.S3API{}
	s3mock.On("HeadBucket", mock.Anything).
		Return(nil, awserr.New("NotFound", "not found", nil))
	s3mock.On("CreateBucket", mock.MatchedBy(func(input *s3.CreateBucketInput) bool {
		return *input.Bucket == "bkt" &&
			input.CreateBucketConfiguration != nil &&
			*input.CreateBucketConfiguration.LocationConstraint == "sa-east-1"
	})).Return(&s3.CreateBucketOutput{}, nil)

	require.NoError(t, EnsureBucket(s3mock, "bkt", "sa-east-1"))
	s3mock.AssertExpectations(t)
}

func TestEnsureBucketNoopWhenPresent(t *testing.T) {
	s3mock := &mocks.S3API{}
	s3mock.On("HeadBucket", mock.Anything).Return(&s3.HeadBucketOutput{}, nil)

	require.NoError(t, EnsureBucket(s3mock, "bkt", "us-east-1"))
	s3mock.AssertNotCalled(t, "CreateBucket", mock.Anything)
}
