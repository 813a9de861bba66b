package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"employee-manager/config"
)

// Open builds the record store selected by cfg.Backend, wrapped in a Redis
// list cache when a Redis connection string is configured. The returned
// close function releases every resource Open acquired.
func Open(ctx context.Context, cfg config.Server, logger *log.Logger) (Store, func() error, error) {
	var (
		store   Store
		closers []func() error
	)
	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	switch cfg.Backend {
	case config.BackendTables:
		ts, err := NewTableStore(cfg.StorageConn, cfg.Table)
		if err != nil {
			return nil, nil, fmt.Errorf("tables: %w", err)
		}
		store = ts
	case config.BackendMongo:
		ms, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, fmt.Errorf("mongo: %w", err)
		}
		closers = append(closers, func() error { return ms.Close(context.Background()) })
		store = ms
	case config.BackendBadger:
		db, err := badger.Open(badger.DefaultOptions(cfg.BadgerPath).WithLoggingLevel(badger.WARNING))
		if err != nil {
			return nil, nil, fmt.Errorf("badger: %w", err)
		}
		closers = append(closers, db.Close)
		store = NewBadgerStore(db)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	if cfg.RedisConn != "" {
		opts, err := config.RedisOptions(cfg.RedisConn)
		if err != nil {
			_ = closeAll()
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		rc := redis.NewClient(opts)
		closers = append(closers, rc.Close)
		store = NewCache(store, rc, cfg.CacheTTL)
		if logger != nil {
			logger.WithField("ttl", cfg.CacheTTL).Info("employee list cache enabled")
		}
	}

	if logger != nil {
		logger.WithField("backend", cfg.Backend).Info("record store ready")
	}
	return store, closeAll, nil
}

// Provision creates the table or collection the configured backend needs.
// Existing ones are left untouched. Badger needs no provisioning.
func Provision(ctx context.Context, cfg config.Server) error {
	switch cfg.Backend {
	case config.BackendTables:
		ts, err := NewTableStore(cfg.StorageConn, cfg.Table)
		if err != nil {
			return fmt.Errorf("tables: %w", err)
		}
		return ts.EnsureTable(ctx)
	case config.BackendMongo:
		ms, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return fmt.Errorf("mongo: %w", err)
		}
		defer func() { _ = ms.Close(context.Background()) }()
		return ms.EnsureCollection(ctx)
	case config.BackendBadger:
		return nil
	default:
		return fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
