package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/fieldwork"
	"github.com/aretw0/fieldwork/internal/config"
	"github.com/aretw0/fieldwork/pkg/adapters/file"
	"github.com/aretw0/fieldwork/pkg/adapters/memory"
	"github.com/aretw0/fieldwork/pkg/adapters/postgres"
	"github.com/aretw0/fieldwork/pkg/adapters/redis"
	"github.com/aretw0/fieldwork/pkg/observability"
	"github.com/aretw0/fieldwork/pkg/persistence/middleware"
	"github.com/aretw0/fieldwork/pkg/ports"
)

// runtimeDeps are the stores built from the config, plus what must be closed.
type runtimeDeps struct {
	records ports.RecordStore
	drafts  ports.DraftStore
	locker  ports.DistributedLocker
	closers []func() error
}

func (d *runtimeDeps) Close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// buildDeps opens the stores selected by cfg.
// A redis locker is used whenever redis is configured for anything.
func buildDeps(ctx context.Context, cfg config.Config, logger *slog.Logger) (*runtimeDeps, error) {
	deps := &runtimeDeps{}

	var client *backend.Client
	if cfg.UsesRedis() {
		client = backend.NewClient(&backend.Options{
			Addr:     cfg.Store.Redis.Addr,
			Password: cfg.Store.Redis.Password,
			DB:       cfg.Store.Redis.DB,
		})
		deps.closers = append(deps.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = deps.Close()
			return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Store.Redis.Addr, err)
		}
		deps.locker = redis.NewLocker(client, cfg.Store.Redis.Prefix)
	}
	redisOpts := []redis.Option{
		redis.WithPrefix(cfg.Store.Redis.Prefix),
		redis.WithTTL(cfg.Store.Redis.TTL),
	}

	switch cfg.Store.Driver {
	case "memory":
		deps.records = memory.NewRecordStore()
	case "redis":
		deps.records = redis.NewRecordStore(client, redisOpts...)
	case "postgres":
		pg, err := postgres.Open(cfg.Store.Postgres.DSN, postgres.PoolConfig{
			MaxOpenConns: cfg.Store.Postgres.MaxOpenConns,
			MaxIdleConns: cfg.Store.Postgres.MaxIdleConns,
		}, postgres.WithLogger(logger))
		if err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.closers = append(deps.closers, pg.Close)
		if cfg.Store.Postgres.AutoMigrate {
			if err := pg.Migrate(ctx); err != nil {
				_ = deps.Close()
				return nil, fmt.Errorf("failed to migrate postgres schema: %w", err)
			}
		}
		deps.records = pg
	default:
		_ = deps.Close()
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}

	switch cfg.Drafts.Driver {
	case "memory":
		deps.drafts = memory.NewDraftStore()
	case "file":
		deps.drafts = file.NewDraftStore(cfg.Drafts.Dir)
	case "redis":
		deps.drafts = redis.NewDraftStore(client, redisOpts...)
	default:
		_ = deps.Close()
		return nil, fmt.Errorf("unknown drafts driver %q", cfg.Drafts.Driver)
	}

	if cfg.Drafts.EncryptionKey != "" {
		mw, err := encryptionMiddleware(cfg.Drafts)
		if err != nil {
			_ = deps.Close()
			return nil, err
		}
		deps.drafts = middleware.Chain(deps.drafts, mw)
	}

	logger.Debug("Stores ready",
		"records", cfg.Store.Driver,
		"drafts", cfg.Drafts.Driver,
		"distributed_lock", deps.locker != nil,
		"encrypted_drafts", cfg.Drafts.EncryptionKey != "",
	)
	return deps, nil
}

func encryptionMiddleware(cfg config.DraftsConfig) (middleware.Middleware, error) {
	active, err := middleware.ParseKey(cfg.EncryptionKey)
	if err != nil {
		return nil, err
	}
	enc := middleware.EncryptionConfig{ActiveKey: active}
	for _, k := range cfg.FallbackKeys {
		key, err := middleware.ParseKey(k)
		if err != nil {
			return nil, fmt.Errorf("fallback key: %w", err)
		}
		enc.FallbackKeys = append(enc.FallbackKeys, key)
	}
	return middleware.NewEncryptionMiddleware(enc), nil
}

// newService wires deps into a fieldwork.Service.
func newService(cfg config.Config, deps *runtimeDeps, metrics *observability.Metrics, logger *slog.Logger) *fieldwork.Service {
	opts := []fieldwork.Option{
		fieldwork.WithDraftStore(deps.drafts),
		fieldwork.WithLogger(logger),
	}
	if metrics != nil {
		opts = append(opts, fieldwork.WithMetrics(metrics))
	}
	if deps.locker != nil {
		opts = append(opts, fieldwork.WithLocker(deps.locker, cfg.Lock.TTL))
	}
	return fieldwork.New(deps.records, opts...)
}
