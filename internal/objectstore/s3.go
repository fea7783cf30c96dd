// s3.go: AWS S3 storage backend
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/calz1/rushroster-cloud/internal/conf"
)

// S3Store implements the Store interface on AWS S3 or any S3-compatible
// endpoint (MinIO, Wasabi) via a custom endpoint URL.
type S3Store struct {
	client  *s3.Client
	bucket  string
	region  string
	timeout time.Duration
}

// NewS3Store creates an S3 store for the configured bucket. Credentials come
// from the settings when present, otherwise from the default AWS credential
// chain (environment, shared config, instance role).
func NewS3Store(settings *conf.StorageSettings) (*S3Store, error) {
	if settings.Bucket == "" {
		return nil, NewError(ErrValidation, "bucket is required for s3 storage", nil)
	}
	if settings.Region == "" {
		return nil, NewError(ErrValidation, "region is required for s3 storage", nil)
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(settings.Region),
	}
	if settings.AccessKey != "" && settings.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(settings.AccessKey, settings.SecretKey, "")))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, NewError(ErrValidation, "failed to load aws configuration", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if settings.Endpoint != "" {
			o.BaseEndpoint = aws.String(settings.Endpoint)
			o.UsePathStyle = true // S3-compatible endpoints rarely support virtual hosting
		}
	})

	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = time.Duration(conf.DefaultStorageTimeoutSeconds) * time.Second
	}

	return &S3Store{
		client:  client,
		bucket:  settings.Bucket,
		region:  settings.Region,
		timeout: timeout,
	}, nil
}

// Name returns the name of this backend
func (s *S3Store) Name() string {
	return "s3"
}

// Put stores content under key. S3 object puts are atomic server-side, so
// no partial object is ever visible.
func (s *S3Store) Put(ctx context.Context, key string, content []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(content),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return "", cerr
		}
		return "", NewError(ErrWrite, fmt.Sprintf("failed to store object %s", key), err)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key), nil
}

// Get retrieves the content stored under key.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, NewError(ErrNotFound, fmt.Sprintf("object not found: %s", key), err)
		}
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return nil, cerr
		}
		return nil, NewError(ErrUnavailable, fmt.Sprintf("failed to get object %s", key), err)
	}
	defer result.Body.Close()

	content, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, NewError(ErrUnavailable, fmt.Sprintf("failed to read object %s", key), err)
	}
	return content, nil
}

// Exists reports whether an object is stored under key.
func (s *S3Store) Exists(ctx context.Context, key string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return false, cerr
		}
		return false, NewError(ErrUnavailable, fmt.Sprintf("failed to stat object %s", key), err)
	}
	return true, nil
}

// Delete removes the object stored under key. S3 deletes are idempotent;
// deleting an absent key succeeds.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if cerr := ctxErr(ctx.Err()); cerr != nil {
			return cerr
		}
		return NewError(ErrWrite, fmt.Sprintf("failed to delete object %s", key), err)
	}
	return nil
}

// Validate checks that the bucket exists and is accessible with the
// configured credentials.
func (s *S3Store) Validate() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.bucket),
	})
	if err != nil {
		return NewError(ErrUnavailable, fmt.Sprintf("failed to access bucket %s", s.bucket), err)
	}
	return nil
}
