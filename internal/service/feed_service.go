package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"tesatiki/internal/cache"
	"tesatiki/internal/metrics"
	"tesatiki/internal/models"
	"tesatiki/internal/repository"
	"tesatiki/internal/storage"
)

type FeedService interface {
	// Products returns the approved listings as a JSON document and whether
	// it came from cache.
	Products(ctx context.Context) ([]byte, bool, error)
}

type feedService struct {
	productRepo repository.ProductRepository
	cache       cache.Cache
	async       *cache.AsyncStore
	ttl         time.Duration
	logger      *zap.Logger
}

func NewFeedService(productRepo repository.ProductRepository, async *cache.AsyncStore, ttl time.Duration, logger *zap.Logger) FeedService {
	return &feedService{
		productRepo: productRepo,
		cache:       async.Cache(),
		async:       async,
		ttl:         ttl,
		logger:      logger,
	}
}

func (s *feedService) Products(ctx context.Context) ([]byte, bool, error) {
	entry, err := s.cache.Get(ctx, cache.ProductsKey)
	switch {
	case err == nil:
		metrics.CacheLookups.WithLabelValues("feed", "hit").Inc()
		return entry.Body, true, nil
	case !errors.Is(err, cache.ErrMiss):
		s.logger.Warn("feed cache lookup failed", zap.Error(err))
	}
	metrics.CacheLookups.WithLabelValues("feed", "miss").Inc()

	generation := s.async.Generation(cache.ProductsKey)
	products, err := s.productRepo.ListApproved(ctx)
	if err != nil {
		return nil, false, fail("Failed to fetch products", err)
	}
	if products == nil {
		products = []models.ProductWithSeller{}
	}

	for i := range products {
		images := make([]string, len(products[i].Images))
		for j, ref := range products[i].Images {
			images[j] = storage.RewriteRef(ref)
		}
		products[i].Images = images
	}

	body, err := json.Marshal(products)
	if err != nil {
		return nil, false, fail("Failed to encode products", err)
	}

	s.async.StoreAt(cache.ProductsKey, generation, cache.Entry{Body: body, ContentType: "application/json"}, s.ttl)
	return body, false, nil
}
