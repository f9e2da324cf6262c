package rawstore

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/soundtrace/engine/internal/logger"
	"go.uber.org/zap"
)

// Mirror asynchronously copies raw files to S3 for off-host durability. It
// is never on the ingestion critical path: a mirror failure is logged, not
// returned, since the local store already holds the authoritative copy.
type Mirror struct {
	client *s3.Client
	bucket string
}

// NewMirror returns nil, nil when bucket is empty — mirroring is optional.
func NewMirror(ctx context.Context, region, bucket string) (*Mirror, error) {
	if bucket == "" {
		return nil, nil
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &Mirror{client: s3.NewFromConfig(cfg), bucket: bucket}, nil
}

// PutAsync fires off a best-effort background upload keyed by content hash.
func (m *Mirror) PutAsync(sha256Hex, ext string, data []byte) {
	if m == nil {
		return
	}
	go func() {
		key := sha256Hex[:2] + "/" + sha256Hex + normalizeExt(ext)
		ctx := context.Background()
		_, err := m.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket: aws.String(m.bucket),
			Key:    aws.String(key),
			Body:   bytes.NewReader(data),
		})
		if err != nil {
			logger.Log.Warn("raw file mirror upload failed", zap.String("key", key), zap.Error(err))
		}
	}()
}

// CheckBucketAccess verifies the configured bucket is reachable, used at
// startup so a broken S3 mirror is surfaced immediately rather than on the
// first ingest.
func (m *Mirror) CheckBucketAccess(ctx context.Context) error {
	if m == nil {
		return nil
	}
	_, err := m.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(m.bucket)})
	if err != nil {
		return fmt.Errorf("cannot access mirror bucket %s: %w", m.bucket, err)
	}
	return nil
}
