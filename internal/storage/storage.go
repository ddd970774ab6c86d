// Package storage holds the object storage abstraction for document payloads
// and its S3-compatible implementations (MinIO, AWS S3).
package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"time"

	"docdash/internal/config"
)

// PutObjectOptions define optional parameters for uploading objects.
// Size should be the exact number of bytes if known; -1 lets the backend
// buffer or chunk as it supports.
type PutObjectOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo contains basic information about an object in storage.
type ObjectInfo struct {
	Key          string
	Size         int64
	ETag         string
	ContentType  string
	LastModified time.Time
	Metadata     map[string]string
}

// Storage is an S3-compatible object storage client.
// Implementations stream through readers and never touch local disk.
type Storage interface {
	// Put uploads an object under the given key using the provided reader and options.
	Put(ctx context.Context, key string, r io.Reader, opt PutObjectOptions) (ObjectInfo, error)
	// Get retrieves an object's content as a streaming reader alongside its info.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)
	// Delete removes an object by key.
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL that downloads the object
	// without credentials. A non-empty downloadName is sent back as the
	// attachment file name.
	PresignGet(ctx context.Context, key string, expiry time.Duration, downloadName string) (string, error)
}

// Driver names accepted in config.StorageConfig.Driver.
const (
	DriverMinIO = "minio"
	DriverS3    = "s3"
)

func contentDisposition(name string) string {
	if name == "" {
		return ""
	}
	return mime.FormatMediaType("attachment", map[string]string{"filename": name})
}

// New builds the storage backend selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case DriverMinIO, "":
		return NewMinIO(ctx, cfg.MinIO)
	case DriverS3:
		return NewS3(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}
