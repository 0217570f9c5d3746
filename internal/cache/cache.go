// Package cache holds the phrase cache backends. Every backend is a flat
// phrase -> transcription mapping with no TTL and no eviction; an empty
// transcription is stored like any other value.
package cache

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/iparuby/internal/config"
	"github.com/dgallion1/iparuby/internal/lookup"
	"github.com/dgallion1/iparuby/internal/pathstore"
)

// Store is a phrase cache with operator controls.
type Store interface {
	lookup.Cache
	Delete(ctx context.Context, phrase string) error
	Close() error
}

// Compile-time checks.
var (
	_ Store = (*Memory)(nil)
	_ Store = (*Layered)(nil)
	_ Store = (*SQLite)(nil)
	_ Store = (*Redis)(nil)
	_ Store = (*Pathstore)(nil)
)

// FromConfig opens the backend selected by CACHE_BACKEND. Remote backends
// are fronted by a Memory layer.
func FromConfig(cfg config.Config, log *slog.Logger) (Store, error) {
	var back Store
	switch cfg.CacheBackend {
	case config.CacheMemory:
		return NewMemory(), nil
	case config.CacheSQLite:
		s, err := OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		back = s
	case config.CacheRedis:
		r, err := NewRedis(RedisConfig{Addrs: []string{cfg.RedisAddr}, Password: cfg.RedisPassword})
		if err != nil {
			return nil, err
		}
		back = r
	case config.CachePathstore:
		back = NewPathstore(pathstore.NewClient(cfg.PathstoreURL, cfg.PathstoreAPIKey))
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
	log.Info("phrase cache opened", "backend", cfg.CacheBackend)
	return NewLayered(NewMemory(), back, log), nil
}
