// Command server is the entry point for the vacancyhub API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vacancyhub/internal/config"
	"vacancyhub/internal/middleware"
	"vacancyhub/internal/observability"
	"vacancyhub/internal/server"

	"github.com/gofiber/fiber/v2"
)

// @title Vacancyhub API
// @version 1.0
// @description Job posting submission, moderation and channel publication API.

// @contact.name API Support
// @contact.email support@vacancyhub.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownGrace = 10 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		middleware.Logger.Error("server exited", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "vacancyhub-api",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampleRatio,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		return err
	}

	app := fiber.New(fiber.Config{
		AppName:               "Vacancyhub API " + version,
		// Multipart overhead on top of the largest accepted grant image.
		BodyLimit:             (cfg.ImageMaxUploadSizeMB + 5) << 20,
		DisableStartupMessage: cfg.IsProduction(),
	})
	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)
	srv.StartFeed()

	listenErr := make(chan error, 1)
	go func() {
		middleware.Logger.Info("listening", slog.String("port", cfg.Port), slog.String("version", version))
		listenErr <- app.Listen(":" + cfg.Port)
	}()

	select {
	case err = <-listenErr:
	case <-ctx.Done():
		middleware.Logger.Info("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	err = errors.Join(err,
		app.ShutdownWithContext(shutdownCtx),
		srv.Shutdown(shutdownCtx),
		shutdownTracing(shutdownCtx),
	)
	return err
}
