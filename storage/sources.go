package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"airbnb-dashboard/utils"
)

const s3Scheme = "s3://"

var (
	_ Source = FileSource{}
	_ Source = (*S3Source)(nil)
)

// FileSource reads listings from a local CSV file.
type FileSource struct {
	Path string
}

func (f FileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Path, err)
	}
	return file, nil
}

func (f FileSource) String() string { return f.Path }

// IsS3URI reports whether source names an S3 object.
func IsS3URI(source string) bool {
	return strings.HasPrefix(source, s3Scheme)
}

// ParseS3URI splits "s3://bucket/key/parts.csv" into bucket and key.
func ParseS3URI(uri string) (bucket, key string, err error) {
	if !IsS3URI(uri) {
		return "", "", fmt.Errorf("s3: %q is not an s3:// URI", uri)
	}
	bucket, key, ok := strings.Cut(strings.TrimPrefix(uri, s3Scheme), "/")
	if !ok || bucket == "" || key == "" {
		return "", "", fmt.Errorf("s3: %q must look like s3://bucket/key", uri)
	}
	return bucket, key, nil
}

// objectGetter is the part of *s3.Client the source needs.
type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source reads listings from an object in S3 or an S3-compatible store.
type S3Source struct {
	client objectGetter
	bucket string
	key    string
	retry  utils.RetryConfig
}

// NewS3Source builds a client from the default AWS credential chain. A
// non-empty endpoint points the client at an S3-compatible service such as
// MinIO, using path-style addressing.
func NewS3Source(ctx context.Context, uri, region, endpoint string, retries int, logger *utils.Logger) (*S3Source, error) {
	bucket, key, err := ParseS3URI(uri)
	if err != nil {
		return nil, err
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("s3: load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return newS3Source(client, bucket, key, retries, logger), nil
}

func newS3Source(client objectGetter, bucket, key string, retries int, logger *utils.Logger) *S3Source {
	return &S3Source{
		client: client,
		bucket: bucket,
		key:    key,
		retry:  utils.RetryConfig{MaxAttempts: retries, BaseDelay: 500 * time.Millisecond, Logger: logger},
	}
}

// Open fetches the object. Missing buckets and keys are not retried.
func (s *S3Source) Open(ctx context.Context) (io.ReadCloser, error) {
	var body io.ReadCloser
	err := s.retry.Do(ctx, "s3 get "+s.String(), func() error {
		out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
		})
		if err != nil {
			var noKey *types.NoSuchKey
			var noBucket *types.NoSuchBucket
			if errors.As(err, &noKey) || errors.As(err, &noBucket) {
				return utils.Permanent(err)
			}
			return err
		}
		body = out.Body
		return nil
	})
	if err != nil {
		return nil, err
	}
	return body, nil
}

func (s *S3Source) String() string {
	return s3Scheme + s.bucket + "/" + s.key
}

// ResolveSource picks the CSV source named by a DATASET_SOURCE value.
func ResolveSource(ctx context.Context, source, region, endpoint string, retries int, logger *utils.Logger) (Source, error) {
	if IsS3URI(source) {
		return NewS3Source(ctx, source, region, endpoint, retries, logger)
	}
	return FileSource{Path: source}, nil
}
