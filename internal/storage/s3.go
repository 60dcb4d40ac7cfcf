// Package storage handles the object store holding document bytes. The API
// never proxies file content; clients upload and download directly against
// pre-signed URLs.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"veridoc/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// ObjectStore is the surface the document service needs from the bucket.
type ObjectStore interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error)
	PresignDownload(ctx context.Context, key string) (string, time.Time, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}

// Client wraps an S3-compatible bucket with pre-signed URL generation.
type Client struct {
	bucket  string
	ttl     time.Duration
	s3      *s3.Client
	presign *s3.PresignClient
}

// NewClient builds an S3 client from application config. A non-empty
// S3_ENDPOINT switches to path-style addressing for MinIO and other
// S3-compatible stores.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Client{
		bucket:  cfg.S3Bucket,
		ttl:     time.Duration(cfg.PresignTTL()) * time.Minute,
		s3:      client,
		presign: s3.NewPresignClient(client),
	}, nil
}

// PresignUpload returns a URL the client can PUT the file bytes to. The
// content type is baked into the signature so the client cannot upload
// under a different one.
func (c *Client) PresignUpload(ctx context.Context, key, contentType string) (string, time.Time, error) {
	req, err := c.presign.PresignPutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	}, s3.WithPresignExpires(c.ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign upload for %s: %w", key, err)
	}
	return req.URL, time.Now().Add(c.ttl), nil
}

// PresignDownload returns a URL the client can GET the file bytes from.
func (c *Client) PresignDownload(ctx context.Context, key string) (string, time.Time, error) {
	req, err := c.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.ttl))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to presign download for %s: %w", key, err)
	}
	return req.URL, time.Now().Add(c.ttl), nil
}

// Exists checks whether the object has actually been uploaded.
func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.s3.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head %s: %w", key, err)
	}
	return true, nil
}

// Delete removes the object. Deleting a missing key is not an error.
func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// BuildObjectKey produces the bucket key for a new document. Keys are
// namespaced by company so tenant data never shares a prefix, and the
// random component makes every upload target unique regardless of the
// original filename.
func BuildObjectKey(companyID uuid.UUID, entityTypeSlug string, entityID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("companies/%s/%s/%s/docs/%s%s",
		companyID, entityTypeSlug, entityID, uuid.New(), ext)
}
