package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
)

// S3Client is the part of the S3 API used by S3.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config configures an S3 bucket. Endpoint and ForcePathStyle are used
// for S3 compatible services such as MinIO.
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	ForcePathStyle  bool
	// BaseURL is the public prefix of stored files. Derived from the
	// endpoint or region when empty.
	BaseURL string
}

// S3 stores files in a bucket. It is safe for concurrent use.
type S3 struct {
	client  S3Client
	bucket  string
	baseURL string
}

// S3Option configures NewS3.
type S3Option func(*s3Options)

type s3Options struct {
	client S3Client
}

// WithS3Client uses the provided client instead of one built from the config.
func WithS3Client(c S3Client) S3Option {
	return func(o *s3Options) {
		o.client = c
	}
}

func NewS3(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, fmt.Errorf("%w: bucket and region are required", ErrInvalidConfig)
	}

	var o s3Options
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}

		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load aws config: %w", err)
		}

		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Endpoint != "" {
			baseURL = strings.TrimSuffix(cfg.Endpoint, "/") + "/" + cfg.Bucket
		} else {
			baseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
		}
	}

	return &S3{
		client:  client,
		bucket:  cfg.Bucket,
		baseURL: withTrailingSlash(baseURL),
	}, nil
}

// Save uploads r as the object at path.
func (s *S3) Save(ctx context.Context, path string, r io.Reader, size int64, contentType string) error {
	key, err := cleanKey(path)
	if err != nil {
		return fmt.Errorf("%w: %s", err, path)
	}

	in := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   r,
	}

	if size > 0 {
		in.ContentLength = aws.Int64(size)
	}

	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	_, err = s.client.PutObject(ctx, in)
	if err != nil {
		return classifyS3Error(err, "upload")
	}

	return nil
}

// Delete removes the object at path. Deleting a missing object succeeds.
func (s *S3) Delete(ctx context.Context, path string) error {
	key, err := cleanKey(path)
	if err != nil {
		return fmt.Errorf("%w: %s", err, path)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return classifyS3Error(err, "delete")
	}

	return nil
}

// URL returns the public URL of the object at path.
func (s *S3) URL(path string) string {
	key, err := cleanKey(path)
	if err != nil {
		return ""
	}
	return s.baseURL + key
}

func classifyS3Error(err error, op string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("s3 %s: %w", op, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied":
			return fmt.Errorf("s3 %s: %w", op, ErrAccessDenied)
		case "NoSuchBucket":
			return fmt.Errorf("s3 %s: %w", op, ErrBucketNotFound)
		case "NoSuchKey":
			return fmt.Errorf("s3 %s: %w", op, ErrFileNotFound)
		case "SlowDown", "ServiceUnavailable", "RequestTimeout":
			return fmt.Errorf("s3 %s: %w: %w", op, ErrServiceUnavailable, err)
		default:
			return fmt.Errorf("s3 %s failed (code: %s): %w", op, apiErr.ErrorCode(), err)
		}
	}

	return fmt.Errorf("s3 %s failed: %w", op, err)
}
