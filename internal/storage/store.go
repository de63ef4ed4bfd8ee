// Package storage persists small JSON documents under string keys. Every write replaces the
// whole value stored under a key.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Conceptual-Machines/gyanguru-api/internal/config"
)

// ErrNotFound is returned by Get when a key has never been written or was deleted
var ErrNotFound = errors.New("storage: key not found")

// Store is a key/value store with whole-value overwrites
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Driver names accepted by Open
const (
	DriverMemory   = "memory"
	DriverFile     = "file"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// Open creates the store selected by cfg.StorageDriver
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.StorageDriver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverFile:
		return NewFileStore(cfg.StorageDir)
	case DriverRedis:
		return NewRedisStore(ctx, &RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case DriverPostgres:
		return NewPostgresStore(cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s (allowed: memory, file, redis, postgres)", cfg.StorageDriver)
	}
}
