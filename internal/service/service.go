package service

import (
	"go.uber.org/zap"

	"tesatiki/internal/cache"
	"tesatiki/internal/config"
	"tesatiki/internal/repository"
	"tesatiki/internal/security"
	"tesatiki/internal/storage"
)

type Service struct {
	User        UserService
	Auth        AuthService
	Product     ProductService
	Image       ImageService
	Feed        FeedService
	Maintenance MaintenanceService
}

func NewService(rep *repository.Repository, cfg *config.Config, tokens *security.TokenIssuer, blobs *storage.Manager, async *cache.AsyncStore, logger *zap.Logger) *Service {
	product := NewProductService(rep.Product, blobs, async, logger.Named("product"))

	return &Service{
		User:        NewUserService(rep.User, rep.Product, product, logger.Named("user")),
		Auth:        NewAuthService(rep.User, tokens, logger.Named("auth")),
		Product:     product,
		Image:       NewImageService(blobs, async, cfg.Cache.ImageTTL, cfg.Cache.ImageMaxBytes, logger.Named("image")),
		Feed:        NewFeedService(rep.Product, async, cfg.Cache.ProductTTL, logger.Named("feed")),
		Maintenance: NewMaintenanceService(rep.Product, product, logger.Named("maintenance")),
	}
}
