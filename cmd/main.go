package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tinoosan/ledgerd/internal/audit"
	"github.com/tinoosan/ledgerd/internal/balance"
	"github.com/tinoosan/ledgerd/internal/config"
	"github.com/tinoosan/ledgerd/internal/dictionary"
	"github.com/tinoosan/ledgerd/internal/events/kafka"
	httpapi "github.com/tinoosan/ledgerd/internal/httpapi/v1"
	"github.com/tinoosan/ledgerd/internal/outbox"
	"github.com/tinoosan/ledgerd/internal/reconciliation"
	"github.com/tinoosan/ledgerd/internal/report"
	"github.com/tinoosan/ledgerd/internal/service/account"
	"github.com/tinoosan/ledgerd/internal/service/journal"
	"github.com/tinoosan/ledgerd/internal/service/transaction"
	"github.com/tinoosan/ledgerd/internal/statement"
	"github.com/tinoosan/ledgerd/internal/storage/memory"
	pgstore "github.com/tinoosan/ledgerd/internal/storage/postgres"
	"github.com/tinoosan/ledgerd/internal/storage/rediscache"
)

// backend is everything a storage implementation provides to the services.
type backend interface {
	account.Repo
	account.Writer
	journal.Repo
	journal.Writer
	transaction.Repo
	transaction.Writer
	balance.Repo
	reconciliation.Repo
	reconciliation.RecordStore
	report.AccountLister
	statement.TransactionSource
	statement.Store
	outbox.Store
	audit.Store
	httpapi.IdempotencyStore
	httpapi.ReadyChecker
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := cfg.Log.NewLogger()
	slog.SetDefault(logger)

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("ledger service stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	ready := []httpapi.ReadyChecker{store}
	var records reconciliation.RecordStore = store
	if cfg.Redis.Addr != "" {
		client := rediscache.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		defer client.Close()
		cache := rediscache.New(store, client, logger)
		records = cache
		ready = append(ready, cache)
		logger.Info("reconciliation cache: redis", "addr", cfg.Redis.Addr)
	}

	var sink outbox.Sink = outbox.LogSink{Log: logger}
	if len(cfg.Kafka.Brokers) > 0 {
		ks := kafka.NewSink(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic))
		defer ks.Close()
		sink = ks
		logger.Info("event sink: kafka", "brokers", cfg.Kafka.Brokers, "topic", cfg.Kafka.Topic)
	}

	trail := audit.New(store, logger)
	accounts := account.New(store, store, logger, account.WithAudit(trail))
	bal := balance.New(store, logger)

	if cfg.Dev.Seed {
		seeded, err := accounts.EnsureChart(ctx, dictionary.Accounts())
		if err != nil {
			return err
		}
		logger.Info("dev seed applied", "chart_accounts", len(seeded))
	}

	api := httpapi.New(httpapi.Deps{
		Accounts:       accounts,
		Journal:        journal.New(store, store, logger, journal.WithAudit(trail)),
		Transactions:   transaction.New(store, store, logger, transaction.WithAudit(trail)),
		Balances:       bal,
		Reconciliation: reconciliation.New(store, records, bal, logger),
		Reports:        report.New(store, bal, logger),
		Statements:     statement.New(store, store, logger, statement.WithAudit(trail)),
		Audit:          trail,
		Idempotency:    store,
		Ready:          ready,
		Auth: httpapi.AuthConfig{
			Secret:   cfg.Auth.JWTSecret,
			Issuer:   cfg.Auth.JWTIssuer,
			Audience: cfg.Auth.JWTAudience,
		},
		CORSOrigins: cfg.HTTP.CORSOrigins,
	}, logger)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	dispatcher := outbox.NewDispatcher(store, sink, outbox.DispatcherConfig{
		PollInterval: cfg.Outbox.PollInterval,
		BatchSize:    cfg.Outbox.BatchSize,
		BaseBackoff:  cfg.Outbox.BaseBackoff,
		MaxBackoff:   cfg.Outbox.MaxBackoff,
	}, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := dispatcher.Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})
	g.Go(func() error {
		logger.Info("ledger service listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStore picks Postgres when a database URL is configured and applies
// migrations first; otherwise it falls back to the in-memory store.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (backend, func(), error) {
	if cfg.Database.URL == "" {
		logger.Info("storage backend: memory")
		return memory.New(), func() {}, nil
	}
	if err := pgstore.Migrate(cfg.Database.URL, cfg.Database.Migrations); err != nil {
		return nil, nil, err
	}
	pg, err := pgstore.Open(ctx, cfg.Database.URL, pgstore.WithMaxConns(cfg.Database.MaxConns))
	if err != nil {
		return nil, nil, err
	}
	logger.Info("storage backend: postgres")
	return pg, pg.Close, nil
}
