// Command seed registers a subscriber and the accounts it follows.
//
//	seed -config config/config.yaml -address you@example.com mrbeast khaby.lame
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"content-tracker/internal/config"
	"content-tracker/internal/model"
	"content-tracker/internal/repository"
	"content-tracker/internal/service"
	"content-tracker/pkg/logger"
	"content-tracker/pkg/postgres"
)

const seedTimeout = 30 * time.Second

func main() {
	address := flag.String("address", "", "subscriber e-mail address")
	platform := flag.String("platform", model.DefaultPlatform, "platform of the accounts")

	// config.LoadConfig parses the shared -config flag.
	cfg := config.MustLoadConfig()

	usernames := flag.Args()
	if *address == "" || len(usernames) == 0 {
		fmt.Fprintln(os.Stderr, "usage: seed [-config path] -address ADDRESS USERNAME...")
		os.Exit(2)
	}

	log := logger.MustSetupLogger(&logger.Config{Level: cfg.Logger.Level})

	if err := run(log, cfg, *address, *platform, usernames); err != nil {
		log.Error("Seed failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(log *zap.Logger, cfg *config.Config, address, platform string, usernames []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	defer cancel()

	db, err := postgres.New(&postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
		MaxConns: 2,
		MinConns: 1,
		Migration: postgres.Migration{
			Path:      cfg.Database.Migration.Path,
			AutoApply: cfg.Database.Migration.AutoApply,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}
	defer db.Close()

	svc := service.NewSubscribeService(
		log,
		repository.NewAccountRepository(db.Pool()),
		repository.NewSubscriptionRepository(db.Pool()),
		repository.NewTransactor(db.Pool()),
	)

	return svc.Subscribe(ctx, address, platform, usernames...)
}
