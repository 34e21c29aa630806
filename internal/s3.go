// Package internal wraps the handful of object store calls the jobs make.
// Everything takes an s3iface.S3API so tests can inject a mock.
package internal

import (
	"bytes"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/pkg/errors"
)

// ListObjectKeys enumerates every non-zero-size object under
// s3://bucket/prefix, following pagination. Zero-size objects are
// "folder" placeholders and are skipped.
func ListObjectKeys(s3client s3iface.S3API, bucket, prefix string) ([]string, error) {
	var keys []string
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	}
	err := s3client.ListObjectsV2Pages(input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			if aws.Int64Value(obj.Size) == 0 {
				continue
			}
			keys = append(keys, aws.StringValue(obj.Key))
		}
		return true
	})
	if err != nil {
		return nil, errors.Wrapf(err, "listing s3://%s/%s", bucket, prefix)
	}
	return keys, nil
}

// GetObjectBytes fetches the full payload of an object into memory.
func GetObjectBytes(s3client s3iface.S3API, bucket, key string) ([]byte, error) {
	result, err := s3client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, errors.Wrapf(err, "fetching s3://%s/%s", bucket, key)
	}
	defer result.Body.Close()
	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "reading s3://%s/%s", bucket, key)
	}
	return content, nil
}

// PutObjectBytes uploads data to s3://bucket/key with the given
// descriptive metadata attached to the object.
func PutObjectBytes(s3client s3iface.S3API, bucket, key string, data []byte, metadata map[string]string) error {
	input := &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
	}
	if len(metadata) > 0 {
		input.Metadata = aws.StringMap(metadata)
	}
	if _, err := s3client.PutObject(input); err != nil {
		return errors.Wrapf(err, "putting s3://%s/%s", bucket, key)
	}
	return nil
}

// EnsureBucket creates the bucket if it does not exist. This is a dev
// convenience; production buckets are expected to be provisioned out of
// band.
func EnsureBucket(s3client s3iface.S3API, bucket, region string) error {
	_, err := s3client.HeadBucket(&s3.HeadBucketInput{Bucket: aws.String(bucket)})
	if err == nil {
		return nil
	}
	aerr, ok := err.(awserr.Error)
	if !ok || (aerr.Code() != s3.ErrCodeNoSuchBucket && aerr.Code() != "NotFound") {
		return errors.Wrapf(err, "checking bucket %s", bucket)
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(bucket)}
	// us-east-1 rejects an explicit location constraint.
	if region != "" && region != "us-east-1" {
		input.CreateBucketConfiguration = &s3.CreateBucketConfiguration{
			LocationConstraint: aws.String(region),
		}
	}
	if _, err := s3client.CreateBucket(input); err != nil {
		return errors.Wrapf(err, "creating bucket %s", bucket)
	}
	return nil
}
