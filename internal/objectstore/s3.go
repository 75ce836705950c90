package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures the S3 client. Endpoint is set for S3-compatible
// services such as MinIO or R2 and switches to path-style addressing.
type S3Config struct {
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

// NewS3Client builds an S3 client. Without static keys the default AWS
// credential chain is used.
func NewS3Client(ctx context.Context, cfg S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
	}

	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// S3 is a Store backed by one bucket.
type S3 struct {
	client  *s3.Client
	bucket  string
	baseURL string
}

// NewS3 creates a store for bucket whose objects are served under baseURL.
func NewS3(client *s3.Client, bucket, baseURL string) *S3 {
	return &S3{client: client, bucket: bucket, baseURL: baseURL}
}

func (s *S3) Put(ctx context.Context, key string, body []byte, contentType string) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(body),
		ContentType:  aws.String(contentType),
		CacheControl: aws.String("max-age=3600"),
	})
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", s.bucket, key, err)
	}

	return nil
}

// List pages through ListObjectsV2, which has no offset, skipping the first
// offset keys.
func (s *S3) List(ctx context.Context, prefix string, offset, limit int) ([]Object, error) {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	out := make([]Object, 0)
	skipped := 0

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list %s/%s: %w", s.bucket, prefix, err)
		}

		for _, obj := range page.Contents {
			if skipped < offset {
				skipped++

				continue
			}

			out = append(out, Object{
				Key:          aws.ToString(obj.Key),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})

			if limit > 0 && len(out) == limit {
				return out, nil
			}
		}
	}

	return out, nil
}

func (s *S3) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}

	ids := make([]types.ObjectIdentifier, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, types.ObjectIdentifier{Key: aws.String(key)})
	}

	_, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.bucket),
		Delete: &types.Delete{Objects: ids, Quiet: aws.Bool(true)},
	})
	if err != nil {
		return fmt.Errorf("delete from %s: %w", s.bucket, err)
	}

	return nil
}

func (s *S3) URL(key string) string {
	return joinURL(s.baseURL, key)
}

// Compile-time check.
var _ Store = (*S3)(nil)
