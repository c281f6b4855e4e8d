package handlers

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"tesatiki/internal/config"
	"tesatiki/internal/service"
)

// HealthChecker reports whether a backing store answers.
type HealthChecker interface {
	HealthCheck() error
}

type Handlers struct {
	UserService        service.UserService
	AuthService        service.AuthService
	ProductService     service.ProductService
	ImageService       service.ImageService
	FeedService        service.FeedService
	MaintenanceService service.MaintenanceService
	Cfg                *config.Config
	Validate           *validator.Validate
	Logger             *zap.Logger
	// Records is checked by /health when the records backend supports it.
	Records HealthChecker
}

func NewHandlers(service *service.Service, config *config.Config, logger *zap.Logger) *Handlers {
	return &Handlers{
		UserService:        service.User,
		AuthService:        service.Auth,
		ProductService:     service.Product,
		ImageService:       service.Image,
		FeedService:        service.Feed,
		MaintenanceService: service.Maintenance,
		Cfg:                config,
		Validate:           validator.New(),
		Logger:             logger,
	}
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if h.Records != nil {
		if err := h.Records.HealthCheck(); err != nil {
			h.Logger.Warn("records health check failed", zap.Error(err))
			writeErrorDetails(w, "Records backend unavailable", err.Error(), http.StatusServiceUnavailable)
			return
		}
	}
	writeSuccess(w, map[string]bool{"ok": true}, http.StatusOK)
}
