package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3API is the subset of the S3 client used by S3Archiver, grounded on
// internal/adapter/gateway/storage/s3_api.go — kept narrow so tests can
// supply a fake without a real S3 connection.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

var _ S3API = (*s3.Client)(nil)

// S3Archiver uploads session snapshots to S3, best-effort: the Executor
// treats a failed archive the same way it treats a failed PR push
// (logged, never fatal to the run it follows).
type S3Archiver struct {
	client S3API
	bucket string
	prefix string
}

// S3Config configures an S3Archiver.
type S3Config struct {
	Bucket string
	Prefix string
	Region string
}

// NewS3Archiver loads AWS credentials from the default chain and builds
// an archiver writing under cfg.Bucket.
func NewS3Archiver(ctx context.Context, cfg S3Config) (*S3Archiver, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 archiver: load AWS config: %w", err)
	}
	if cfg.Region != "" {
		awsCfg.Region = cfg.Region
	}
	return &S3Archiver{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// NewS3ArchiverWithClient builds an archiver against an injected client,
// used for testing with a fake S3API.
func NewS3ArchiverWithClient(client S3API, bucket, prefix string) *S3Archiver {
	return &S3Archiver{client: client, bucket: bucket, prefix: prefix}
}

// Archive uploads snapshot under <prefix>/sessions/<sessionID>/<unix-nano>.json
// and returns its s3:// URI as the opaque reference.
func (a *S3Archiver) Archive(ctx context.Context, sessionID string, snapshot []byte) (string, error) {
	key := a.buildKey(sessionID, time.Now())

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(snapshot),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 archiver: upload failed: %w", err)
	}

	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}

func (a *S3Archiver) buildKey(sessionID string, at time.Time) string {
	key := fmt.Sprintf("sessions/%s/%d.json", sessionID, at.UnixNano())
	if a.prefix != "" {
		return a.prefix + "/" + key
	}
	return key
}
