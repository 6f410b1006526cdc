package modelstore

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"overrated_products/internal/adapters/observability"
	"overrated_products/internal/domain"
	"overrated_products/internal/forecast"
)

// ObjectGetter is the slice of the S3 API the source needs.
type ObjectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type S3Source struct {
	client ObjectGetter
	bucket string
	key    string
}

// NewS3Source resolves credentials and region from the standard AWS
// environment (env vars, shared config, instance role). AWS_ENDPOINT_URL_S3
// points it at an S3-compatible store.
func NewS3Source(ctx context.Context, bucket, key string) (*S3Source, error) {
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: s3 uri needs bucket and key", domain.ErrModelUnavailable)
	}
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: aws config: %v", domain.ErrModelUnavailable, err)
	}
	return NewS3SourceWithClient(s3.NewFromConfig(cfg, func(o *s3.Options) { o.UsePathStyle = true }), bucket, key), nil
}

func NewS3SourceWithClient(c ObjectGetter, bucket, key string) *S3Source {
	return &S3Source{client: c, bucket: bucket, key: key}
}

func (s *S3Source) Load(ctx context.Context) (*forecast.Bundle, error) {
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		observability.ObserveExternal("s3", "get_object", 0, time.Since(start))
		observability.ObserveExternalError("s3", "get_object", err)
		return nil, fmt.Errorf("%w: s3://%s/%s: %v", domain.ErrModelUnavailable, s.bucket, s.key, err)
	}
	defer out.Body.Close()
	b, err := io.ReadAll(io.LimitReader(out.Body, maxBundleBytes))
	observability.ObserveExternal("s3", "get_object", 200, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: read s3://%s/%s: %v", domain.ErrModelUnavailable, s.bucket, s.key, err)
	}
	return decode(s.key, b)
}
