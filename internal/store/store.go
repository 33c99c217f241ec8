// Package store persists the custom prompt template library.
//
// Templates are a flat name-to-body mapping that is loaded and saved
// wholesale. Concurrent writers follow last-write-wins.
package store

import (
	"autoblog/internal/config"
	"autoblog/internal/logger"
	"context"
	"errors"
	"fmt"
)

// ErrUnknownBackend is returned by Open for an unsupported backend name.
var ErrUnknownBackend = errors.New("unknown template store backend")

// TemplateStore loads and saves the whole template mapping.
type TemplateStore interface {
	LoadTemplates(ctx context.Context) (map[string]string, error)
	SaveTemplates(ctx context.Context, templates map[string]string) error
	Close() error
}

// Open returns the store selected by cfg.Templates.Backend.
func Open(cfg *config.Config) (TemplateStore, error) {
	switch cfg.Templates.Backend {
	case "", "sqlite":
		s, err := NewSQLiteStore(cfg.App.DataDir)
		if err != nil {
			return nil, err
		}
		logger.Debug("Opened template store", "backend", "sqlite", "path", s.Path())
		return s, nil
	case "postgres":
		return NewPostgresStore(cfg.Templates.PostgresURL)
	case "redis":
		return NewRedisStore(RedisOptions{
			Addr:     cfg.Templates.RedisAddr,
			Password: cfg.Templates.RedisPassword,
			DB:       cfg.Templates.RedisDB,
			Key:      cfg.Templates.RedisKey,
		})
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, cfg.Templates.Backend)
	}
}

// copyTemplates returns a copy so callers never share a map with a store.
func copyTemplates(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for name, body := range in {
		out[name] = body
	}
	return out
}

// MemoryStore keeps templates in process memory.
type MemoryStore struct {
	templates map[string]string
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{templates: map[string]string{}}
}

func (m *MemoryStore) LoadTemplates(ctx context.Context) (map[string]string, error) {
	return copyTemplates(m.templates), nil
}

func (m *MemoryStore) SaveTemplates(ctx context.Context, templates map[string]string) error {
	m.templates = copyTemplates(templates)
	return nil
}

func (m *MemoryStore) Close() error { return nil }
