package modelstore

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"socsentinel/internal/logger"
	"socsentinel/internal/model"
)

// S3Store keeps snapshots in an S3 object. Transient failures are
// retried with exponential backoff; each attempt gets its own timeout.
type S3Store struct {
	client  *s3.Client
	bucket  string
	key     string
	timeout time.Duration
	retries int
}

// S3Options configures the S3 snapshot backend.
type S3Options struct {
	Bucket  string
	Key     string
	Region  string
	Timeout time.Duration
	Retries int
}

// NewS3Store resolves AWS credentials from the default chain and builds
// the store.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" || opts.Key == "" {
		return nil, fmt.Errorf("s3 model store requires bucket and key")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Retries <= 0 {
		opts.Retries = 3
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(opts.Region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &S3Store{
		client:  s3.NewFromConfig(awsCfg),
		bucket:  opts.Bucket,
		key:     opts.Key,
		timeout: opts.Timeout,
		retries: opts.Retries,
	}, nil
}

func (s *S3Store) Load(ctx context.Context) (*model.Snapshot, error) {
	var snap *model.Snapshot
	err := s.withRetry(ctx, "get", func(attemptCtx context.Context) error {
		out, err := s.client.GetObject(attemptCtx, &s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
		})
		if err != nil {
			return err
		}
		defer out.Body.Close()
		snap, err = model.DecodeSnapshot(out.Body)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load snapshot s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return snap, nil
}

func (s *S3Store) Save(ctx context.Context, snap *model.Snapshot) error {
	var buf bytes.Buffer
	if err := snap.Encode(&buf); err != nil {
		return err
	}

	err := s.withRetry(ctx, "put", func(attemptCtx context.Context) error {
		_, err := s.client.PutObject(attemptCtx, &s3.PutObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(s.key),
			Body:   bytes.NewReader(buf.Bytes()),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("save snapshot s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return nil
}

// withRetry runs fn up to retries times with exponential backoff,
// starting at 200ms and capped at 2s.
func (s *S3Store) withRetry(ctx context.Context, op string, fn func(context.Context) error) error {
	backoff := 200 * time.Millisecond
	var lastErr error

	for attempt := 1; attempt <= s.retries; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, s.timeout)
		lastErr = fn(attemptCtx)
		cancel()
		if lastErr == nil {
			return nil
		}

		if attempt < s.retries {
			logger.Warnf("s3 %s attempt %d/%d failed: %v", op, attempt, s.retries, lastErr)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > 2*time.Second {
				backoff = 2 * time.Second
			}
		}
	}
	return lastErr
}
