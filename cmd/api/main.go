package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"tesatiki/cmd/app"
	"tesatiki/internal/config"
	handlers "tesatiki/internal/handler"
	"tesatiki/internal/logger"
	"tesatiki/internal/metrics"
	"tesatiki/internal/middleware"
	"tesatiki/internal/scheduler"
	"tesatiki/internal/security"
	"tesatiki/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// setting up config
	cfg := config.LoadConfig()

	zlog, err := logger.New(cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zlog.Sync()

	if cfg.JWTSecretKey == "" {
		zlog.Fatal("JWT_SECRET is not set")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := app.New(ctx, cfg, zlog)
	if err != nil {
		zlog.Fatal("failed to initialise dependencies", zap.Error(err))
	}
	defer deps.Close()

	handler := handlers.NewHandlers(deps.Services, cfg, zlog.Named("http"))
	if deps.DB != nil {
		handler.Records = deps.DB
	}

	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRateLimit, cfg.LoginRateWindow, cfg.TrustedProxies, zlog.Named("ratelimit"))
	go loginLimiter.Run(ctx)

	router := newRouter(handler, deps.Tokens, loginLimiter)
	handlerChain := middleware.Chain(
		router,
		middleware.CORSMiddleware,
		middleware.LoggingMiddleware(zlog.Named("access")),
		middleware.RecoveryMiddleware(zlog),
	)

	sweeps := scheduler.New(deps.Services.Maintenance, cfg.SweepInterval, zlog.Named("scheduler"))
	go sweeps.Run(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      handlerChain,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		zlog.Info("server started",
			zap.String("addr", server.Addr),
			zap.String("records", cfg.Records.Backend),
			zap.String("blob", cfg.Blob.Backend),
			zap.String("cache", cfg.Cache.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Error("server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zlog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("server shutdown failed", zap.Error(err))
	}
	if err := deps.Async.Drain(shutdownCtx); err != nil {
		zlog.Warn("pending cache writes abandoned", zap.Error(err))
	}
}

func newRouter(h *handlers.Handlers, tokens *security.TokenIssuer, loginLimiter *middleware.IPRateLimiter) *mux.Router {
	auth := middleware.RequireAuth(tokens)
	authed := func(fn http.HandlerFunc) http.Handler {
		return middleware.Chain(fn, auth)
	}
	admin := func(fn http.HandlerFunc) http.Handler {
		return middleware.Chain(fn, middleware.RequireAdmin, auth)
	}

	router := mux.NewRouter()
	// image paths are validated by the proxy handler itself
	router.SkipClean(true)
	router.Use(middleware.MetricsMiddleware)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	router.HandleFunc("/api/get-products", h.GetProducts).Methods(http.MethodGet)
	router.HandleFunc("/api/register", h.Register).Methods(http.MethodPost)
	router.Handle("/api/login", loginLimiter.Handler(http.HandlerFunc(h.Login))).Methods(http.MethodPost)

	router.Handle("/api/me", authed(h.Me)).Methods(http.MethodGet)
	router.Handle("/api/update-profile", authed(h.UpdateProfile)).Methods(http.MethodPost)
	router.Handle("/api/change-password", authed(h.ChangePassword)).Methods(http.MethodPost)

	router.Handle("/api/admin/reset-password", admin(h.ResetPassword)).Methods(http.MethodPost)
	router.Handle("/api/admin/verify-user", admin(h.VerifyUser)).Methods(http.MethodPost)
	router.Handle("/api/admin/unverify-user", admin(h.UnverifyUser)).Methods(http.MethodPost)
	router.Handle("/api/admin/delete-user", admin(h.DeleteUser)).Methods(http.MethodPost)
	router.Handle("/api/admin/approve-product", admin(h.ApproveProduct)).Methods(http.MethodPost)
	router.Handle("/api/admin/reject-product", admin(h.RejectProduct)).Methods(http.MethodPost)
	router.Handle("/api/admin/approve-edit", admin(h.ApproveEdit)).Methods(http.MethodPost)
	router.Handle("/api/admin/reject-edit", admin(h.RejectEdit)).Methods(http.MethodPost)

	router.Handle("/api/create-product", authed(h.CreateProduct)).Methods(http.MethodPost)
	router.Handle("/api/update-product", authed(h.UpdateProduct)).Methods(http.MethodPost)
	router.Handle("/api/delete-product", authed(h.DeleteProduct)).Methods(http.MethodPost)
	router.Handle("/api/delete-images", authed(h.DeleteImages)).Methods(http.MethodPost)

	router.HandleFunc("/api/upload-image", h.UploadImage).Methods(http.MethodPost)
	router.PathPrefix(storage.ProxyPrefix).HandlerFunc(h.ServeImage).Methods(http.MethodGet)

	router.Handle("/api/run-scheduled-task", admin(h.RunScheduledTask)).Methods(http.MethodPost)

	return router
}
