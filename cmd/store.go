package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/RaikyD/laundry-queue/internal/config"
	"github.com/RaikyD/laundry-queue/internal/logger"
	"github.com/RaikyD/laundry-queue/internal/migrate"
	"github.com/RaikyD/laundry-queue/internal/repository"
)

var errQueueLocked = errors.New("queue store is in use by another process (is the server running?)")

// openRepo opens the configured store and applies migrations. The returned
// close func is never nil.
func openRepo(ctx context.Context, cfg *config.Config) (repository.OrderRepo, func(), error) {
	switch cfg.STORAGE {
	case config.StorageSQLite:
		repo, err := repository.OpenSQLite(ctx, cfg.SQLITE_PATH)
		if err != nil {
			return nil, func() {}, err
		}
		logger.Info("sqlite store opened", "path", cfg.SQLITE_PATH)
		return repo, func() { _ = repo.Close() }, nil

	case config.StoragePostgres:
		if err := migrate.UpPostgres(ctx, cfg.DB_STRING); err != nil {
			return nil, func() {}, err
		}
		pool, err := pgxpool.New(ctx, cfg.DB_STRING)
		if err != nil {
			return nil, func() {}, fmt.Errorf("pgxpool new: %w", err)
		}
		if err := pingWithRetry(ctx, pool); err != nil {
			pool.Close()
			return nil, func() {}, fmt.Errorf("db ping: %w", err)
		}
		logger.Info("db connected")
		return repository.NewOrderRepository(pool), pool.Close, nil

	case config.StorageMemory:
		logger.Warn("memory storage selected, orders will not survive a restart")
		return repository.NewMemoryRepository(), func() {}, nil
	}
	return nil, func() {}, fmt.Errorf("unknown storage %q", cfg.STORAGE)
}

func pingWithRetry(ctx context.Context, pool *pgxpool.Pool) error {
	b := retry.WithMaxRetries(5, retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			logger.Warn("db ping failed, retrying", "err", err)
			return retry.RetryableError(err)
		}
		return nil
	})
}

// acquireLock takes the single-writer lock for the store. Only one process at a
// time may own the collection, since every write replaces it wholesale.
func acquireLock(cfg *config.Config) (*flock.Flock, error) {
	path := cfg.LockPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create lock dir: %w", err)
	}
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock %s: %w", path, err)
	}
	if !ok {
		return nil, errQueueLocked
	}
	return lock, nil
}
