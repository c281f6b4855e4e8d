package app

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"tesatiki/internal/cache"
	"tesatiki/internal/config"
	"tesatiki/internal/database"
	"tesatiki/internal/repository"
	"tesatiki/internal/security"
	"tesatiki/internal/service"
	"tesatiki/internal/storage"
)

// App holds the constructed dependencies of the API process.
type App struct {
	Repo     *repository.Repository
	Services *service.Service
	Tokens   *security.TokenIssuer
	Async    *cache.AsyncStore
	// DB is set only for the postgres records backend.
	DB *database.DB

	closers []func() error
}

func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{}

	tokens, err := security.NewTokenIssuer(cfg.JWTSecretKey, cfg.TokenDuration)
	if err != nil {
		return nil, err
	}
	a.Tokens = tokens

	repo, err := a.records(cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Repo = repo

	backend, err := blobBackend(ctx, cfg, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	blobs := storage.NewManager(backend, cfg.MaxUploadSize, logger.Named("storage"))

	responseCache, err := a.cache(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Async = cache.NewAsyncStore(responseCache, logger.Named("cache"))

	a.Services = service.NewService(repo, cfg, tokens, blobs, a.Async, logger)
	return a, nil
}

func (a *App) records(cfg *config.Config, logger *zap.Logger) (*repository.Repository, error) {
	switch cfg.Records.Backend {
	case config.RecordsBackendPostgres:
		db, err := database.ConnectDB(cfg, logger.Named("database"))
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db.CloseDB)
		a.DB = db
		return repository.NewRepository(db.DB), nil
	case config.RecordsBackendREST:
		client := repository.NewRestClient(cfg.Records, logger.Named("records"))
		return repository.NewRestRepository(client), nil
	default:
		return nil, fmt.Errorf("unknown records backend %q", cfg.Records.Backend)
	}
}

func blobBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Backend, error) {
	switch cfg.Blob.Backend {
	case config.BlobBackendB2:
		return storage.NewB2Client(cfg.Blob.B2, &http.Client{}, logger.Named("b2")), nil
	case config.BlobBackendMinIO:
		return storage.NewMinIOClient(ctx, cfg.Blob.MinIO)
	default:
		return nil, fmt.Errorf("unknown blob backend %q", cfg.Blob.Backend)
	}
}

func (a *App) cache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, redisCache.Close)
		return redisCache, nil
	case config.CacheBackendMemory:
		return cache.NewMemoryCache(cfg.Cache.Size)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var firstErr error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	a.closers = nil
	return firstErr
}
