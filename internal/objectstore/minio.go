// Package objectstore stores converted answer recordings in an S3-compatible bucket.
package objectstore

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// Options configures the MinIO connection.
type Options struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func (o Options) validate() error {
	var missing []string
	if strings.TrimSpace(o.Endpoint) == "" {
		missing = append(missing, "endpoint")
	}
	if strings.TrimSpace(o.AccessKey) == "" {
		missing = append(missing, "access key")
	}
	if strings.TrimSpace(o.SecretKey) == "" {
		missing = append(missing, "secret key")
	}
	if strings.TrimSpace(o.Bucket) == "" {
		missing = append(missing, "bucket")
	}
	if len(missing) > 0 {
		return fmt.Errorf("minio %s must be set", strings.Join(missing, ", "))
	}
	return nil
}

// Client holds the MinIO client and bucket name.
type Client struct {
	client *minio.Client
	bucket string
	logger *zap.Logger
}

// New connects to MinIO and creates the bucket when it does not exist.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*Client, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	exists, err := mc.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if MinIO bucket '%s' exists: %w", opts.Bucket, err)
	}
	if !exists {
		logger.Info("creating minio bucket", zap.String("bucket", opts.Bucket))
		if err := mc.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create MinIO bucket '%s': %w", opts.Bucket, err)
		}
	}

	return &Client{client: mc, bucket: opts.Bucket, logger: logger}, nil
}

// Bucket returns the configured bucket name.
func (c *Client) Bucket() string {
	return c.bucket
}

// UploadFile copies the local file at path to objectName.
func (c *Client) UploadFile(ctx context.Context, objectName, path, contentType string) error {
	if c == nil || c.client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}

	info, err := c.client.FPutObject(ctx, c.bucket, objectName, path, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to upload file to MinIO (bucket: %s, object: %s): %w", c.bucket, objectName, err)
	}

	c.logger.Debug("uploaded object",
		zap.String("object", objectName),
		zap.Int64("size", info.Size),
		zap.String("etag", info.ETag),
	)
	return nil
}
