package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
)

var (
	ErrInvalidPath     = errors.New("invalid file path")
	ErrInvalidFile     = errors.New("invalid file")
	ErrFileTooLarge    = errors.New("file too large")
	ErrObjectNotFound  = errors.New("image not found")
	ErrAuthUnavailable = errors.New("blob authentication failed")
	ErrUnreachable     = errors.New("blob service unreachable")
)

// StatusError is an unexpected non-2xx answer of the blob service.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("blob service returned %d: %s", e.Status, e.Body)
}

// ObjectVersion identifies one stored version of an object.
type ObjectVersion struct {
	Name      string
	VersionID string
}

// VersionCursor is where the next version listing page starts.
type VersionCursor struct {
	Name      string
	VersionID string
}

type VersionPage struct {
	Versions []ObjectVersion
	// Next is nil when the backend reports no further page.
	Next *VersionCursor
}

type Object struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
}

// Backend is a versioned object store.
type Backend interface {
	PutObject(ctx context.Context, name, contentType string, data []byte) error
	// ListVersions lists versions starting at name, or at cursor when set.
	// Results are ordered by name and may include other names.
	ListVersions(ctx context.Context, name string, cursor *VersionCursor) (*VersionPage, error)
	DeleteVersion(ctx context.Context, version ObjectVersion) error
	GetObject(ctx context.Context, name string) (*Object, error)
}
