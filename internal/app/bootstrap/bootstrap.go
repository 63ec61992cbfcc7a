package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	orderservice "gatekeeper/contexts/commerce/order-service"
	orderpostgres "gatekeeper/contexts/commerce/order-service/adapters/postgres"
	orderworkers "gatekeeper/contexts/commerce/order-service/application/workers"
	accountservice "gatekeeper/contexts/identity-access/account-service"
	"gatekeeper/contexts/identity-access/account-service/adapters/identityapi"
	accountpostgres "gatekeeper/contexts/identity-access/account-service/adapters/postgres"
	accountworkers "gatekeeper/contexts/identity-access/account-service/application/workers"
	authorizationservice "gatekeeper/contexts/identity-access/authorization-service"
	authzpostgres "gatekeeper/contexts/identity-access/authorization-service/adapters/postgres"
	authzworkers "gatekeeper/contexts/identity-access/authorization-service/application/workers"
	tokenservice "gatekeeper/contexts/identity-access/token-service"
	"gatekeeper/contexts/identity-access/token-service/adapters/keys"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/consumer"
	"gatekeeper/internal/platform/db"
	"gatekeeper/internal/platform/httpserver"
	"gatekeeper/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	bus          messaging.Subscriber
	closeBus     func() error
	topic        string
	outboxRelay  accountworkers.OutboxRelay
	authzHandler messaging.Handler
	orderHandler messaging.Handler
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pair, err := keys.Load(cfg.TokenPublicKey, cfg.TokenPrivateKey)
	if err != nil {
		return nil, err
	}
	tokens, err := tokenservice.NewModule(tokenservice.Dependencies{
		Issuer:   cfg.TokenIssuer,
		Audience: cfg.TokenAudience,
		Public:   pair.Public,
		Private:  pair.Private,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	identity := identityapi.NewClient(cfg.IdentityAPIURL, cfg.IdentityAPITimeout, tokens.Codec, logger)
	accountRepo := accountpostgres.NewRepository(pg.DB, logger)
	accounts := accountservice.NewModule(accountservice.Dependencies{
		Identity:    identity,
		Profiles:    accountRepo,
		Tokens:      tokens.Codec,
		Clock:       accountpostgres.SystemClock{},
		IDGenerator: accountpostgres.UUIDGenerator{},
		AccessTTL:   cfg.AccessTokenTTL,
		RefreshTTL:  cfg.RefreshTokenTTL,
		Logger:      logger,
	})

	authz := authorizationservice.NewModule(authorizationservice.Dependencies{
		Roles:  authzpostgres.NewRepository(pg.DB, logger),
		Clock:  accountpostgres.SystemClock{},
		Logger: logger,
	})

	orders := orderservice.NewModule(orderservice.Dependencies{
		Accounts: orderpostgres.NewRepository(pg.DB, logger),
		Logger:   logger,
	})

	server, err := httpserver.New(httpserver.Dependencies{
		Accounts:      accounts,
		Authorization: authz,
		Orders:        orders,
		Tokens:        tokens,
		FlowRules:     cfg.AdmissionRules,
		Logger:        logger,
		Addr:          normalizeAddr(cfg.HTTPPort),
	})
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	var bus interface {
		messaging.Publisher
		messaging.Subscriber
	}
	closeBus := func() error { return nil }
	if cfg.UseInProcBus {
		bus = messaging.NewInProcBus(logger)
	} else {
		kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
		if err != nil {
			_ = pg.Close()
			return nil, err
		}
		bus = kafka
		closeBus = kafka.Close
	}

	accountRepo := accountpostgres.NewRepository(pg.DB, logger)
	deadLetters := consumer.NewGormDeadLetterStore(pg.DB)

	authzConsumer := authzworkers.RegistrationConsumer{
		Roles:  authzpostgres.NewRepository(pg.DB, logger),
		Clock:  accountpostgres.SystemClock{},
		Logger: logger,
	}
	authzRetry := &consumer.BoundedRetry{
		Topic:       cfg.EventsTopic,
		Group:       authzworkers.ConsumerGroup,
		MaxAttempts: cfg.ConsumerMaxAttempts,
		DeadLetters: deadLetters,
		Logger:      logger,
	}

	orderConsumer := orderworkers.RegistrationConsumer{
		Accounts: orderpostgres.NewRepository(pg.DB, logger),
		Logger:   logger,
	}
	orderRetry := &consumer.BoundedRetry{
		Topic:       cfg.EventsTopic,
		Group:       orderworkers.ConsumerGroup,
		MaxAttempts: cfg.ConsumerMaxAttempts,
		DeadLetters: deadLetters,
		Logger:      logger,
	}

	return &WorkerApp{
		postgres: pg,
		bus:      bus,
		closeBus: closeBus,
		topic:    cfg.EventsTopic,
		outboxRelay: accountworkers.OutboxRelay{
			Outbox:     accountRepo,
			Publisher:  bus,
			Clock:      accountpostgres.SystemClock{},
			Topic:      cfg.EventsTopic,
			BatchSize:  100,
			MaxRetries: cfg.OutboxMaxRetries,
			Logger:     logger,
		},
		authzHandler: authzRetry.Wrap(authzConsumer.Handler()),
		orderHandler: orderRetry.Wrap(orderConsumer.Handler()),
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	if err := w.bus.Subscribe(ctx, w.topic, authzworkers.ConsumerGroup, w.authzHandler); err != nil {
		return err
	}
	if err := w.bus.Subscribe(ctx, w.topic, orderworkers.ConsumerGroup, w.orderHandler); err != nil {
		return err
	}

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"topic", w.topic,
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	var errs []error
	if w.closeBus != nil {
		errs = append(errs, w.closeBus())
	}
	if w.postgres != nil {
		errs = append(errs, w.postgres.Close())
	}
	return errors.Join(errs...)
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
