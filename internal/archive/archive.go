// Package archive keeps the raw contract feed of every sync in an
// S3-compatible bucket.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/HatimBenzahra/rework-sub001/pkg/config"
	"github.com/HatimBenzahra/rework-sub001/pkg/logger"
)

// ObjectPutter is the part of the S3 client the archive uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archiver writes raw feed payloads. A disabled archiver does nothing.
type Archiver struct {
	client ObjectPutter
	bucket string
	logger *logger.Logger
}

// New builds the S3 client from the archive settings. It returns a disabled
// archiver when archiving is off.
func New(ctx context.Context, cfg config.ArchiveConfig, log *logger.Logger) (*Archiver, error) {
	if !cfg.Enabled {
		return Disabled(log), nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.SecretAccessKey, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load archive config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithClient(client, cfg.Bucket, log), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client ObjectPutter, bucket string, log *logger.Logger) *Archiver {
	return &Archiver{
		client: client,
		bucket: bucket,
		logger: log.WithField("module", "archive"),
	}
}

// Disabled returns an archiver that never writes.
func Disabled(log *logger.Logger) *Archiver {
	return &Archiver{logger: log.WithField("module", "archive")}
}

// Enabled reports whether payloads are written.
func (a *Archiver) Enabled() bool {
	return a.client != nil
}

// Key is the object key of one run: contract-feed/YYYY/MM/DD/<run_id>.json.
func Key(at time.Time, runID string) string {
	return fmt.Sprintf("contract-feed/%s/%s.json", at.UTC().Format("2006/01/02"), runID)
}

// Store uploads raw under the key of (at, runID) and returns the key.
func (a *Archiver) Store(ctx context.Context, runID string, at time.Time, raw []byte) (string, error) {
	if !a.Enabled() {
		return "", nil
	}

	key := Key(at, runID)
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(raw),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}

	a.logger.WithFields(map[string]interface{}{
		"bucket": a.bucket,
		"key":    key,
		"bytes":  len(raw),
	}).Info("Archived contract feed")
	return key, nil
}
