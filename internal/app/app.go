package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dsemenov/stockledger/internal/config"
	"github.com/dsemenov/stockledger/internal/domain/model"
	"github.com/dsemenov/stockledger/internal/http/middlewares"
	"github.com/dsemenov/stockledger/internal/http/router"
	"github.com/dsemenov/stockledger/internal/service/catalog"
	"github.com/dsemenov/stockledger/internal/service/order"
	"github.com/dsemenov/stockledger/internal/storage/pg"
	"github.com/dsemenov/stockledger/pkg/kafka"
	"github.com/dsemenov/stockledger/pkg/outbox"
)

type App struct {
	cfg       *config.Config
	logger    *slog.Logger
	pgStorage *pg.Storage
	producer  *kafka.Producer
	relay     *outbox.Relay
	server    *http.Server
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config required")
	}

	ctx := context.Background()

	logger := newLogger(cfg.App.LogLevel, cfg.App.Name)
	slog.SetDefault(logger)
	logger.Info("initialising", slog.String("service", cfg.App.Name))

	pgConfig := &pg.StorageConfig{
		DSN:             cfg.Postgres.DSN,
		MaxConns:        cfg.Postgres.MaxConns,
		MinConns:        cfg.Postgres.MinConns,
		MaxConnLife:     cfg.Postgres.MaxConnLifetime,
		MaxConnIdleTime: cfg.Postgres.MaxConnIdleTime,
	}

	pgStorage, err := pg.NewPGStorage(ctx, logger, pgConfig)
	if err != nil {
		return nil, fmt.Errorf("app creation: %w", err)
	}
	logger.Info("postgres connected")

	producer, err := kafka.NewProducer(&kafka.ProducerConfig{
		Brokers:     cfg.Kafka.Brokers,
		Acks:        cfg.Kafka.Acks,
		LingerMs:    cfg.Kafka.LingerMs,
		Compression: cfg.Kafka.Compression,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("app creation: %w", err)
	}

	relay := outbox.NewRelay(pgStorage, producer, logger, cfg.Outbox.BatchSize, cfg.Outbox.PollInterval)

	// Typed accessors for the simple entities; the mutation path talks to the
	// storage directly.
	clientRepo := pg.NewCRUD[model.Client](pgStorage, "clients",
		[]string{"id", "name", "address"})
	nomenclatureRepo := pg.NewCRUD[model.Nomenclature](pgStorage, "nomenclatures",
		[]string{"id", "name", "quantity", "price", "category_id"})
	categoryRepo := pg.NewCRUD[model.Category](pgStorage, "categories",
		[]string{"id", "name", "parent_id"})

	orderService := order.NewOrderService(logger, pgStorage, cfg.Kafka.EventTopic)
	catalogService := catalog.NewCatalogService(logger, clientRepo, nomenclatureRepo, categoryRepo)

	mux := router.New(orderService, catalogService, logger)

	var handler http.Handler = mux
	handler = middlewares.RequestLogger(logger)(handler)
	handler = middlewares.Recovery(logger)(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	return &App{
		cfg:       cfg,
		logger:    logger,
		pgStorage: pgStorage,
		producer:  producer,
		relay:     relay,
		server:    server,
	}, nil
}

// Run starts the HTTP server and the outbox relay, then blocks until a
// shutdown signal arrives or one of them fails.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 2)

	go func() {
		a.logger.Info("http server started", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go func() {
		if err := a.relay.Run(ctx); err != nil {
			errCh <- fmt.Errorf("outbox relay: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.logger.Error("component failed", slog.Any("error", err))
		stop()
		a.shutdown()
		return err
	}

	a.shutdown()
	return nil
}

func (a *App) shutdown() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http shutdown", slog.Any("error", err))
	}

	a.producer.Close()
	a.pgStorage.Close()
	a.logger.Info("stopped")
}

func newLogger(level, service string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "info":
		lvl = slog.LevelInfo
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})).
		With(slog.String("service", service))
}
