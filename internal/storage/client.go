// Package storage wraps MinIO for attachment binaries, one bucket per
// project. When no endpoint is configured the client is disabled and
// attachment uploads are rejected; all other board operations are unaffected.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrDisabled is returned when object storage is not configured.
var ErrDisabled = fmt.Errorf("object storage not configured")

// Config holds MinIO connection settings.
type Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"accesskeyid"`
	SecretAccessKey string `mapstructure:"secretaccesskey"`
	UseSSL          bool   `mapstructure:"usessl"`
	PublicBaseURL   string `mapstructure:"publicbaseurl"`
}

// Client is the attachment object store.
type Client struct {
	mc      *minio.Client
	baseURL string
	enabled bool
}

// NewClient creates a storage client; an empty endpoint yields a disabled one.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return &Client{enabled: false}, nil
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		baseURL = scheme + "://" + cfg.Endpoint
	}
	return &Client{mc: mc, baseURL: strings.TrimSuffix(baseURL, "/"), enabled: true}, nil
}

// Enabled reports whether the client is configured.
func (c *Client) Enabled() bool { return c.enabled }

// bucketForProject returns the bucket name for a project.
// MinIO/S3: lowercase, digits, hyphens; 3-63 chars.
func bucketForProject(projectID string) string {
	return "project-" + strings.ToLower(projectID)
}

func (c *Client) ensureBucket(ctx context.Context, projectID string) error {
	bucket := bucketForProject(projectID)
	exists, err := c.mc.BucketExists(ctx, bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return c.mc.MakeBucket(ctx, bucket, minio.MakeBucketOptions{})
}

// PutAttachment uploads an attachment binary under the task's key space and
// returns the stored object's public URL.
func (c *Client) PutAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if !c.enabled {
		return "", ErrDisabled
	}
	if err := c.ensureBucket(ctx, projectID); err != nil {
		return "", err
	}
	bucket := bucketForProject(projectID)
	key := objectKey(taskID, attachmentID, filename)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	_, err := c.mc.PutObject(ctx, bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%s/%s", c.baseURL, bucket, key), nil
}

// GetAttachmentResult holds the reader and metadata for a download.
type GetAttachmentResult struct {
	Reader       io.ReadCloser
	ContentType  string
	Size         int64
	LastModified time.Time
}

// GetAttachment streams an attachment binary.
func (c *Client) GetAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string) (*GetAttachmentResult, error) {
	if !c.enabled {
		return nil, ErrDisabled
	}
	bucket := bucketForProject(projectID)
	obj, err := c.mc.GetObject(ctx, bucket, objectKey(taskID, attachmentID, filename), minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, err
	}
	return &GetAttachmentResult{
		Reader:       obj,
		ContentType:  info.ContentType,
		Size:         info.Size,
		LastModified: info.LastModified,
	}, nil
}

// DeleteAttachment removes an attachment binary.
func (c *Client) DeleteAttachment(ctx context.Context, projectID, taskID, attachmentID, filename string) error {
	if !c.enabled {
		return ErrDisabled
	}
	bucket := bucketForProject(projectID)
	return c.mc.RemoveObject(ctx, bucket, objectKey(taskID, attachmentID, filename), minio.RemoveObjectOptions{})
}

func objectKey(taskID, attachmentID, filename string) string {
	// Key the object by IDs so renames or duplicate filenames cannot collide.
	safe := strings.ReplaceAll(filename, "/", "_")
	return fmt.Sprintf("tasks/%s/%s-%s", taskID, attachmentID, safe)
}
