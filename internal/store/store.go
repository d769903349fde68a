// Package store is the durable key-value boundary used for saved jobs and
// application drafts. Values are opaque strings; callers own the encoding.
package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"jobboard-portal/config"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("store: key not found")
	// ErrQuotaExceeded is returned by Set when the write would exceed the store quota.
	ErrQuotaExceeded = errors.New("store: quota exceeded")
)

// Store is the persistence adapter.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Keys lists the keys starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// IsNotFound reports whether err means the key was absent.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// Open builds the store selected by cfg.Store.Driver. db is required for the
// gorm driver and ignored otherwise.
func Open(cfg *config.Config, db *gorm.DB, logger *zap.Logger) (Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		logger.Info("Using in-memory key-value store", zap.Int64("quota_bytes", cfg.Store.QuotaBytes))
		return NewMemoryStore(cfg.Store.QuotaBytes), nil
	case "gorm", "":
		if db == nil {
			return nil, fmt.Errorf("gorm store requires a database connection")
		}
		logger.Info("Using database key-value store", zap.String("driver", cfg.Database.Driver))
		return NewGormStore(db), nil
	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Info("Using redis key-value store", zap.String("addr", cfg.Redis.Addr))
		return NewRedisStore(client), nil
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

type prefixed struct {
	inner  Store
	prefix string
}

// WithPrefix scopes every key of s under prefix. Keys returned by the scoped
// store have the prefix stripped.
func WithPrefix(s Store, prefix string) Store {
	return &prefixed{inner: s, prefix: prefix}
}

func (p *prefixed) Get(ctx context.Context, key string) (string, error) {
	return p.inner.Get(ctx, p.prefix+key)
}

func (p *prefixed) Set(ctx context.Context, key, value string) error {
	return p.inner.Set(ctx, p.prefix+key, value)
}

func (p *prefixed) Remove(ctx context.Context, key string) error {
	return p.inner.Remove(ctx, p.prefix+key)
}

func (p *prefixed) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := p.inner.Keys(ctx, p.prefix+prefix)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, strings.TrimPrefix(k, p.prefix))
	}
	return out, nil
}
