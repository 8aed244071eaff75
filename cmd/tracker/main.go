// nolint: staticcheck // Ignore imports.
package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"content-tracker/internal/app"
	"content-tracker/internal/config"
	"content-tracker/internal/docs"
	_ "content-tracker/internal/docs" // registers the swagger spec
	"content-tracker/pkg/logger"
)

// @title Content Tracker API
// @version 0.1.0
// @description Ops surface of the content tracker.
// @description Ops routes need an ES256 bearer token with role "operator"; mint one with cmd/opstoken.
// @description WebSocket clients may pass the token as the "token" query parameter.
// @host localhost:8080
// @BasePath /api/
// @securityDefinitions.apikey AccessToken
// @in header
// @name Authorization
func main() {
	ctx := context.Background()

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.MustLoadConfig()
	config.MustPrintConfig(cfg)

	docs.SwaggerInfo.Title = cfg.ServiceName
	docs.SwaggerInfo.Version = cfg.Version
	docs.SwaggerInfo.BasePath = cfg.HTTPServer.BasePath
	docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", cfg.HTTPServer.Port)

	loggerCfg := &logger.Config{
		Level:      cfg.Logger.Level,
		FormatJSON: cfg.Logger.FormatJSON,
		Rotation: logger.Rotation{
			File:       cfg.Logger.Rotation.File,
			MaxSize:    cfg.Logger.Rotation.MaxSize,
			MaxBackups: cfg.Logger.Rotation.MaxBackups,
			MaxAge:     cfg.Logger.Rotation.MaxAge,
		},
	}

	log := logger.MustSetupLogger(loggerCfg).With(
		zap.String("service", cfg.ServiceName),
		zap.String("version", cfg.Version),
	)

	errs := make(chan error, 1)

	application := app.MustNew(cfg, log)

	defer func() {
		if err := application.Shutdown(); err != nil {
			log.Error("Failed to shutdown application", zap.Error(err))
		}

		if err := log.Sync(); err != nil {
			log.Warn("Failed to sync logger", zap.Error(err))
		}

		log.Info("Application has shutdown")
	}()

	go func() { errs <- application.Run(ctx) }()

	select {
	case err := <-errs:
		if err != nil {
			log.Error("Fatal error, shutting down...", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("Received stop signal, shutting down...")
	}
}
