package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"inimage_backend/internal/app/di"
	"inimage_backend/internal/app/router"
	brandlinkhandler "inimage_backend/internal/feature/brandlinks/transport/handler"
	insightshandler "inimage_backend/internal/feature/insights/transport/handler"
	scanhandler "inimage_backend/internal/feature/scan/transport/handler"
	"inimage_backend/internal/platform/config"
	"inimage_backend/internal/platform/logger"
)

func main() {
	configFile := flag.String("config", "", "path to config file (default: ./config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger.New(cfg.Log.Level, cfg.Log.Format)
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := di.NewApp(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialize application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := app.Close(); err != nil {
			slog.Error("failed to close resources", "error", err)
		}
	}()

	// JWT シークレットのチェック（開発中の注意喚起）
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("auth.jwt_secret is not set. Back office routes are unauthenticated.")
	}

	r := router.NewRouter(router.Handlers{
		Health:     app.Health,
		Scan:       scanhandler.NewScanHandler(app.Scan),
		BrandLinks: brandlinkhandler.NewBrandLinkHandler(app.BrandLinks),
		Insights:   insightshandler.NewInsightsHandler(app.Insights),
		Metrics:    app.Metrics.Handler(),
	}, router.Options{
		AllowedOrigins:     cfg.Server.AllowedOrigins,
		JWTSecret:          cfg.Auth.JWTSecret,
		MaxMultipartMemory: cfg.Server.MaxMultipartMemory,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr, "results_dir", app.Store.Dir())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
	}
}
