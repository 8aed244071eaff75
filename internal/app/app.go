package app

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"content-tracker/internal/api/http/handler"
	"content-tracker/internal/api/http/middleware"
	"content-tracker/internal/api/http/route"
	"content-tracker/internal/api/ws"
	"content-tracker/internal/apperrors"
	"content-tracker/internal/config"
	"content-tracker/internal/msg/outbox"
	"content-tracker/internal/msg/publisher"
	"content-tracker/internal/msg/subscriber"
	"content-tracker/internal/repository"
	"content-tracker/internal/scheduler"
	"content-tracker/internal/service"
	"content-tracker/internal/sink"
	"content-tracker/internal/source"
	"content-tracker/pkg/elastic"
	"content-tracker/pkg/jwt"
	"content-tracker/pkg/kafka"
	"content-tracker/pkg/mailer"
	"content-tracker/pkg/postgres"
	"content-tracker/pkg/redis"
	"content-tracker/pkg/server"
)

const (
	defaultTimeout  = 15 * time.Second
	shutdownTimeout = 30 * time.Second
)

type App struct {
	Cfg        *config.Config
	Log        *zap.Logger
	Repository *Repository
	Service    *Service
	DB         postgres.Postgres
	RDB        redis.Redis
	ES         elastic.Elasticsearch
	HTTPServer server.HTTPServer
	Hub        *ws.Hub
	EBus       *EBus

	cancel  context.CancelFunc
	workers sync.WaitGroup
}

type Repository struct {
	AccountRepository      *repository.AccountRepository
	ProcessedRepository    *repository.ProcessedRepository
	SubscriptionRepository *repository.SubscriptionRepository
	InboxRepository        *repository.InboxRepository
	OutboxRepository       *repository.OutboxRepository
	HealthRepository       *repository.HealthRepository
	Transactor             *repository.Transactor
	ContentIndex           *repository.ContentIndex
}

type Service struct {
	HealthService    *service.HealthService
	DiscoveryService *service.DiscoveryService
	FanOutService    *service.FanOutService
	IndexService     *service.IndexService
	Scheduler        *scheduler.Runner
}

type EBus struct {
	Publisher   *publisher.Publisher
	Relay       *outbox.Relay
	DLQProducer kafka.Producer
	Subscribers []*subscriber.Subscriber
}

func New(cfg *config.Config, log *zap.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultTimeout)
	defer cancel()

	log.Info("Starting roles", zap.Strings("roles", cfg.Roles))

	db, err := initDB(&cfg.Database)
	if err != nil {
		log.Error("Failed to initialize database", zap.Error(err))
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	a := &App{Cfg: cfg, Log: log, DB: db}

	if cfg.Redis.Enable {
		a.RDB, err = initRedis(&cfg.Redis)
		if err != nil {
			log.Error("Failed to initialize redis", zap.Error(err))
			return nil, a.abort(fmt.Errorf("failed to initialize redis: %w", err))
		}
	}

	if cfg.HasRole(config.RoleIndexer) {
		a.ES, err = initElastic(log, &cfg.Elastic)
		if err != nil {
			log.Error("Failed to initialize elastic", zap.Error(err))
			return nil, a.abort(fmt.Errorf("failed to initialize elastic: %w", err))
		}
	}

	a.Repository = initRepository(log, db, a.ES, cfg.Elastic.Index)

	if a.Repository.ContentIndex != nil {
		if err := a.Repository.ContentIndex.EnsureIndex(ctx); err != nil {
			log.Error("Failed to ensure content index", zap.Error(err))
			return nil, a.abort(fmt.Errorf("failed to ensure content index: %w", err))
		}
	}

	a.EBus, err = initEBus(ctx, log, cfg)
	if err != nil {
		return nil, a.abort(fmt.Errorf("failed to initialize ebus: %w", err))
	}

	if cfg.HasRole(config.RoleNotifier) {
		a.Hub = ws.NewHub(log, middleware.OriginChecker(cfg.HTTPServer.CORS))
	}

	a.Service = initService(log, cfg, a)

	if err := initSubscribers(log, cfg, a); err != nil {
		return nil, a.abort(fmt.Errorf("failed to initialize subscribers: %w", err))
	}

	if cfg.HTTPServer.Enable {
		publicKey, err := initSecurity(log, cfg.Key)
		if err != nil {
			log.Error("Failed to initialize security", zap.Error(err))
			return nil, a.abort(fmt.Errorf("failed to initialize security: %w", err))
		}

		a.HTTPServer = initHTTPServer(log, cfg, publicKey, a)
	}

	return a, nil
}

func MustNew(cfg *config.Config, log *zap.Logger) *App {
	app, err := New(cfg, log)
	if err != nil {
		panic(err)
	}
	return app
}

// Run starts every enabled role and blocks until ctx is done or one of them fails.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel

	errs := make(chan error, len(a.EBus.Subscribers)+1)

	if a.HTTPServer != nil {
		go func() {
			a.Log.Info("HTTP server started", zap.String("host", a.Cfg.HTTPServer.Host), zap.Uint16("port", a.Cfg.HTTPServer.Port))

			if err := a.HTTPServer.Run(); err != nil {
				errs <- err
			}
		}()
	}

	if a.Service.Scheduler != nil {
		a.start(func() { a.Service.Scheduler.Run(ctx) })
	}

	if a.EBus.Relay != nil {
		a.start(func() { a.EBus.Relay.Run(ctx) })
	}

	for _, sub := range a.EBus.Subscribers {
		a.start(func() {
			if err := sub.Run(ctx); err != nil {
				errs <- err
			}
		})
	}

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		return nil
	}
}

func (a *App) start(fn func()) {
	a.workers.Add(1)

	go func() {
		defer a.workers.Done()
		fn()
	}()
}

// Shutdown stops intake first, lets in-flight work finish, then closes connections.
func (a *App) Shutdown() error {
	var errs []error

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("failed to shutdown http server: %w", err))
		}

		a.Log.Debug("Http server shutdown")
	}

	if a.cancel != nil {
		a.cancel()
	}

	done := make(chan struct{})

	go func() {
		a.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		a.Log.Debug("Workers stopped")
	case <-time.After(shutdownTimeout):
		a.Log.Warn("Workers did not stop in time")
	}

	if a.Hub != nil {
		a.Hub.Close()
	}

	if a.EBus != nil {
		if err := a.EBus.close(a.Log); err != nil {
			errs = append(errs, err)
		}
	}

	if a.RDB != nil {
		if err := a.RDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close RDB: %w", err))
		}

		a.Log.Debug("Redis closed")
	}

	a.DB.Close()
	a.Log.Debug("Database closed")

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrShutdown, errors.Join(errs...))
	}

	return nil
}

// abort releases what New managed to open before failing.
func (a *App) abort(err error) error {
	if a.EBus != nil {
		if cErr := a.EBus.close(a.Log); cErr != nil {
			err = fmt.Errorf("%w, %w", err, cErr)
		}
	}

	if a.RDB != nil {
		_ = a.RDB.Close()
	}

	a.DB.Close()

	return err
}

func (e *EBus) close(log *zap.Logger) error {
	var errs []error

	for _, sub := range e.Subscribers {
		if err := sub.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close consumer group: %w", err))
		}
	}

	if e.Publisher != nil {
		if err := e.Publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close publisher: %w", err))
		}
	}

	if e.DLQProducer != nil {
		if err := e.DLQProducer.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close dead letter producer: %w", err))
		}
	}

	log.Debug("Event bus closed")

	return errors.Join(errs...)
}

func initDB(cfg *config.Database) (postgres.Postgres, error) {
	postgresCfg := &postgres.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		User:     cfg.User,
		Password: cfg.Password,
		Name:     cfg.Name,
		SSLMode:  cfg.SSLMode,
		MaxConns: cfg.MaxConns,
		MinConns: cfg.MinConns,
		Migration: postgres.Migration{
			Path:      cfg.Migration.Path,
			AutoApply: cfg.Migration.AutoApply,
		},
	}

	return postgres.New(postgresCfg)
}

func initRedis(cfg *config.Redis) (redis.Redis, error) {
	redisCfg := &redis.Config{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	}

	return redis.New(redisCfg)
}

func initElastic(log *zap.Logger, cfg *config.Elastic) (elastic.Elasticsearch, error) {
	elasticCfg := &elastic.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
		CloudID:   cfg.CloudID,
		APIKey:    cfg.APIKey,
		Timeout:   cfg.Timeout,
	}

	client, err := elastic.New(elasticCfg)
	if err != nil {
		return nil, err
	}

	log.Debug("Elasticsearch initialized")

	return client, nil
}

func initSecurity(log *zap.Logger, cfg config.Key) (*ecdsa.PublicKey, error) {
	if cfg.PublicKey == "" {
		return nil, nil
	}

	publicKey, err := jwt.LoadECDSAPublicKey(cfg.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load public key: %w", err)
	}

	log.Debug("Public key loaded")

	return publicKey, nil
}

func initRepository(log *zap.Logger, db postgres.Postgres, es elastic.Elasticsearch, index string) *Repository {
	repo := &Repository{
		AccountRepository:      repository.NewAccountRepository(db.Pool()),
		ProcessedRepository:    repository.NewProcessedRepository(db.Pool()),
		SubscriptionRepository: repository.NewSubscriptionRepository(db.Pool()),
		InboxRepository:        repository.NewInboxRepository(db.Pool()),
		OutboxRepository:       repository.NewOutboxRepository(db.Pool()),
		HealthRepository:       repository.NewHealthRepository(db.Pool()),
		Transactor:             repository.NewTransactor(db.Pool()),
	}

	if es != nil {
		repo.ContentIndex = repository.NewContentIndex(es.Client(), index)
	}

	log.Debug("Repositories initialized")

	return repo
}

func initEBus(ctx context.Context, log *zap.Logger, cfg *config.Config) (*EBus, error) {
	bus := &EBus{}

	if cfg.HasRole(config.RoleScheduler) {
		bus.Publisher = publisher.New(log, publisher.NewDialer(
			cfg.Kafka.Brokers,
			cfg.Kafka.ClientID,
			kafka.WithRetry(cfg.Kafka.Producer.RetryMax, cfg.Kafka.Producer.RetryBackoff),
			kafka.WithTimeout(cfg.Kafka.Producer.Timeout),
		))

		if err := bus.Publisher.Connect(ctx); err != nil {
			return nil, fmt.Errorf("failed to connect publisher: %w", err)
		}
	}

	if cfg.HasRole(config.RoleNotifier) || cfg.HasRole(config.RoleIndexer) {
		producer, err := kafka.NewProducer(
			cfg.Kafka.Brokers,
			kafka.WithClientID(cfg.Kafka.ClientID+"-dlq"),
			kafka.WithBalancer(kafka.Hash),
			kafka.WithRequiredAcks(kafka.RequireAll),
			kafka.WithRetry(cfg.Kafka.Producer.RetryMax, cfg.Kafka.Producer.RetryBackoff),
		)
		if err != nil {
			if cErr := bus.close(log); cErr != nil {
				err = fmt.Errorf("%w, %w", err, cErr)
			}

			return nil, fmt.Errorf("failed to init dead letter producer: %w", err)
		}

		bus.DLQProducer = producer
		log.Debug("Dead letter producer initialized")
	}

	return bus, nil
}

func initSource(log *zap.Logger, cfg *config.Source) source.Source {
	if cfg.Driver == config.SourceHTTP {
		log.Debug("HTTP content source initialized", zap.String("base_url", cfg.BaseURL))
		return source.NewHTTP(cfg.BaseURL, cfg.Timeout)
	}

	log.Debug("Fake content source initialized", zap.Uint64("seed", cfg.Fake.Seed))

	return source.NewFake(cfg.Fake.Seed, cfg.Fake.ItemsPerPoll)
}

func initSink(log *zap.Logger, cfg *config.Config) sink.Sink {
	if cfg.Sink.Driver == config.SinkEmail {
		mlr := mailer.New(&mailer.Config{
			Host:     cfg.Mailer.Host,
			Port:     cfg.Mailer.Port,
			Username: cfg.Mailer.Username,
			Password: cfg.Mailer.Password,
			From:     cfg.Mailer.From,
			UseTLS:   cfg.Mailer.UseTLS,
		})

		log.Debug("Email sink initialized")

		return sink.NewEmail(mlr)
	}

	log.Debug("Log sink initialized")

	return sink.NewLog(log)
}

func initService(log *zap.Logger, cfg *config.Config, a *App) *Service {
	repo := a.Repository
	svc := &Service{}

	svc.HealthService = service.NewHealthService(log, readinessCheckers(cfg, a)...)

	if cfg.HasRole(config.RoleScheduler) {
		svc.DiscoveryService = service.NewDiscoveryService(
			log,
			service.DiscoveryConfig{
				Concurrency:  cfg.Discovery.Concurrency,
				FetchTimeout: cfg.Discovery.FetchTimeout,
				UseOutbox:    cfg.Discovery.Delivery == config.DeliveryOutbox,
			},
			initSource(log, &cfg.Source),
			repo.AccountRepository,
			repo.ProcessedRepository,
			repo.OutboxRepository,
			repo.Transactor,
			a.EBus.Publisher,
		)

		var locker scheduler.Locker
		if a.RDB != nil {
			locker = redis.NewLock(a.RDB.Client(), cfg.Redis.LockKey, cfg.Redis.LockTTL)
		}

		svc.Scheduler = scheduler.NewRunner(log, scheduler.Config{
			Interval:       cfg.Discovery.Interval,
			RunImmediately: cfg.Discovery.RunImmediately,
		}, svc.DiscoveryService, locker)

		if cfg.Discovery.Delivery == config.DeliveryOutbox {
			a.EBus.Relay = outbox.NewRelay(log, outbox.Config{
				WorkerCount:  cfg.Kafka.Outbox.WorkerCount,
				PollInterval: cfg.Kafka.Outbox.PollInterval,
				BatchSize:    cfg.Kafka.Outbox.BatchSize,
			}, a.EBus.Publisher, repo.OutboxRepository, repo.Transactor)
		}

		log.Debug("Discovery initialized", zap.String("delivery", cfg.Discovery.Delivery))
	}

	if cfg.HasRole(config.RoleNotifier) {
		var broadcaster service.Broadcaster
		if a.Hub != nil {
			broadcaster = a.Hub
		}

		svc.FanOutService = service.NewFanOutService(
			log,
			cfg.Kafka.Consumer.GroupID,
			repo.SubscriptionRepository,
			repo.InboxRepository,
			initSink(log, cfg),
			broadcaster,
		)

		log.Debug("Fan-out service initialized")
	}

	if repo.ContentIndex != nil {
		svc.IndexService = service.NewIndexService(log, repo.ContentIndex)
		log.Debug("Index service initialized")
	}

	return svc
}

func readinessCheckers(cfg *config.Config, a *App) []service.Checker {
	checkers := []service.Checker{
		{Name: "postgres", Check: func(ctx context.Context) error {
			return a.Repository.HealthRepository.Ping(ctx, nil)
		}},
		{Name: "kafka", Check: func(context.Context) error {
			return kafka.Ping(cfg.Kafka.Brokers, cfg.Kafka.Readiness)
		}},
		{Name: "redis"},
		{Name: "elasticsearch"},
	}

	if a.RDB != nil {
		checkers[2].Check = a.RDB.Ping
	}

	if a.ES != nil {
		checkers[3].Check = a.ES.Ping
	}

	return checkers
}

func initSubscribers(log *zap.Logger, cfg *config.Config, a *App) error {
	consumerCfg := cfg.Kafka.Consumer

	add := func(name, groupID string, handle subscriber.Handler) error {
		group, err := kafka.NewConsumerGroupRunner(
			cfg.Kafka.Brokers,
			groupID,
			[]string{consumerCfg.Topic},
			kafka.WithBalancerConsumer(kafka.RoundrobinBalanceStrategy),
		)
		if err != nil {
			return fmt.Errorf("failed to create consumer group: %w", err)
		}

		a.EBus.Subscribers = append(a.EBus.Subscribers, subscriber.NewSubscriber(log, subscriber.Config{
			Name:            name,
			MaxAttempts:     consumerCfg.MaxAttempts,
			InitialBackoff:  consumerCfg.InitialBackoff,
			MaxBackoff:      consumerCfg.MaxBackoff,
			DeadLetterTopic: consumerCfg.DeadLetterTopic,
		}, group, a.EBus.DLQProducer, handle))

		log.Debug("Subscriber initialized", zap.String("name", name), zap.String("group", groupID))

		return nil
	}

	if a.Service.FanOutService != nil {
		if err := add(config.RoleNotifier, consumerCfg.GroupID, a.Service.FanOutService.HandleMessage); err != nil {
			return err
		}
	}

	if a.Service.IndexService != nil {
		if err := add(config.RoleIndexer, cfg.Elastic.GroupID, a.Service.IndexService.HandleMessage); err != nil {
			return err
		}
	}

	return nil
}

func initHTTPServer(log *zap.Logger, cfg *config.Config, publicKey *ecdsa.PublicKey, a *App) server.HTTPServer {
	var (
		sweeper  handler.SweepTrigger
		searcher handler.ContentSearcher
		streamer handler.Streamer
	)

	if a.Service.Scheduler != nil {
		sweeper = a.Service.Scheduler
	}

	if a.Service.IndexService != nil {
		searcher = a.Service.IndexService
	}

	if a.Hub != nil {
		streamer = a.Hub
	}

	router := route.SetupRouter(
		log,
		cfg,
		publicKey,
		handler.NewHealthHandler(log, a.Service.HealthService),
		handler.NewOpsHandler(log, sweeper, searcher, streamer),
	)

	return server.NewHTTPServer(
		server.WithAddr(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		server.WithTimeout(cfg.HTTPServer.Timeout.Read, cfg.HTTPServer.Timeout.Write, cfg.HTTPServer.Timeout.Idle),
		server.WithHandler(router),
	)
}
