package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"tesatiki/internal/cache"
	"tesatiki/internal/metrics"
	"tesatiki/internal/storage"
)

// ImageStore is the part of the blob manager the image routes need.
type ImageStore interface {
	Upload(ctx context.Context, declaredType string, body io.Reader) (string, error)
	Open(ctx context.Context, path string) (*storage.Object, error)
}

type Image struct {
	Body          io.ReadCloser
	ContentType   string
	ContentLength int64
	Cached        bool
}

type ImageService interface {
	Upload(ctx context.Context, contentType string, body io.Reader) (string, error)
	// Open returns the image at path, from cache when possible. Errors are
	// the storage sentinels.
	Open(ctx context.Context, path string) (*Image, error)
}

type imageService struct {
	store    ImageStore
	cache    cache.Cache
	async    *cache.AsyncStore
	ttl      time.Duration
	maxBytes int64
	logger   *zap.Logger
}

func NewImageService(store ImageStore, async *cache.AsyncStore, ttl time.Duration, maxBytes int64, logger *zap.Logger) ImageService {
	return &imageService{
		store:    store,
		cache:    async.Cache(),
		async:    async,
		ttl:      ttl,
		maxBytes: maxBytes,
		logger:   logger,
	}
}

func (s *imageService) Upload(ctx context.Context, contentType string, body io.Reader) (string, error) {
	return s.store.Upload(ctx, contentType, body)
}

func (s *imageService) Open(ctx context.Context, path string) (*Image, error) {
	if !storage.ValidObjectPath(path) {
		return nil, storage.ErrInvalidPath
	}

	key := cache.ImageKey(path)
	entry, err := s.cache.Get(ctx, key)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("image", "hit").Inc()
		return &Image{
			Body:          io.NopCloser(bytes.NewReader(entry.Body)),
			ContentType:   entry.ContentType,
			ContentLength: int64(len(entry.Body)),
			Cached:        true,
		}, nil
	case !errors.Is(err, cache.ErrMiss):
		s.logger.Warn("image cache lookup failed", zap.String("path", path), zap.Error(err))
	}
	metrics.CacheLookups.WithLabelValues("image", "miss").Inc()

	obj, err := s.store.Open(ctx, path)
	if err != nil {
		return nil, err
	}

	image := &Image{Body: obj.Body, ContentType: obj.ContentType, ContentLength: obj.ContentLength}
	if obj.ContentLength < 0 || obj.ContentLength > s.maxBytes {
		return image, nil
	}

	data, err := io.ReadAll(obj.Body)
	obj.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", storage.ErrUnreachable, err)
	}

	s.async.Store(key, cache.Entry{Body: data, ContentType: obj.ContentType}, s.ttl)

	image.Body = io.NopCloser(bytes.NewReader(data))
	image.ContentLength = int64(len(data))
	return image, nil
}
