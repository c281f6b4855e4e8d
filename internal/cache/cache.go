package cache

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

const (
	ProductsKey = "products:approved"
	imagePrefix = "image:"
)

func ImageKey(path string) string {
	return imagePrefix + path
}

// Entry is a cached HTTP response body.
type Entry struct {
	Body        []byte `json:"body"`
	ContentType string `json:"content_type"`
}

type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
