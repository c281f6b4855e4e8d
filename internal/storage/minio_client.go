package storage

import (
	"bytes"
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"tesatiki/internal/config"
)

// MinIOClient is a versioned S3-compatible Backend.
type MinIOClient struct {
	client *minio.Client
	bucket string
}

func NewMinIOClient(ctx context.Context, cfg config.MinIO) (*MinIOClient, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.BucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.BucketName, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.BucketName, minio.MakeBucketOptions{Region: cfg.Region}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.BucketName, err)
		}
	}
	if err := client.EnableVersioning(ctx, cfg.BucketName); err != nil {
		return nil, fmt.Errorf("failed to enable versioning on %s: %w", cfg.BucketName, err)
	}

	return &MinIOClient{client: client, bucket: cfg.BucketName}, nil
}

func (m *MinIOClient) PutObject(ctx context.Context, name, contentType string, data []byte) error {
	_, err := m.client.PutObject(ctx, m.bucket, name, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return fmt.Errorf("minio upload failed: %w", mapMinIOError(err))
	}
	return nil
}

// ListVersions returns every version of name in one page. The listing is
// streamed by the SDK so no cursor is ever returned.
func (m *MinIOClient) ListVersions(ctx context.Context, name string, _ *VersionCursor) (*VersionPage, error) {
	page := &VersionPage{}
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:       name,
		Recursive:    true,
		WithVersions: true,
	}) {
		if info.Err != nil {
			return nil, fmt.Errorf("minio list failed: %w", mapMinIOError(info.Err))
		}
		if info.Key != name {
			continue
		}
		page.Versions = append(page.Versions, ObjectVersion{Name: info.Key, VersionID: info.VersionID})
	}
	return page, nil
}

func (m *MinIOClient) DeleteVersion(ctx context.Context, version ObjectVersion) error {
	err := m.client.RemoveObject(ctx, m.bucket, version.Name, minio.RemoveObjectOptions{
		GovernanceBypass: true,
		VersionID:        version.VersionID,
	})
	if err != nil {
		return fmt.Errorf("minio delete failed: %w", mapMinIOError(err))
	}
	return nil
}

func (m *MinIOClient) GetObject(ctx context.Context, name string) (*Object, error) {
	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, mapMinIOError(err)
	}

	// GetObject is lazy; Stat performs the request.
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapMinIOError(err)
	}

	return &Object{
		Body:          obj,
		ContentType:   info.ContentType,
		ContentLength: info.Size,
	}, nil
}

func mapMinIOError(err error) error {
	resp := minio.ToErrorResponse(err)
	switch resp.Code {
	case "NoSuchKey", "NoSuchVersion":
		return ErrObjectNotFound
	case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
		return fmt.Errorf("%w: %s", ErrAuthUnavailable, resp.Message)
	case "":
		if resp.StatusCode == 0 {
			return fmt.Errorf("%w: %v", ErrUnreachable, err)
		}
	}
	return &StatusError{Status: resp.StatusCode, Body: resp.Message}
}
