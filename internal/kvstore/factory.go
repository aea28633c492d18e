package kvstore

import (
	"fmt"
	"log/slog"
)

// BackendType selects how the store is persisted.
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	MemoryBackend BackendType = "memory"
)

func (t BackendType) IsValid() bool {
	switch t {
	case SQLiteBackend, MemoryBackend:
		return true
	}
	return false
}

// CleanupFunc releases backend resources.
type CleanupFunc func() error

// Result contains the store instance and its cleanup function.
type Result struct {
	Store   Store
	Cleanup CleanupFunc
}

// Config holds configuration for store creation.
type Config struct {
	Type         BackendType
	SQLiteDBPath string
}

// Open creates a store based on the provided config.
func Open(cfg Config, logger *slog.Logger) (*Result, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Type.IsValid() {
		return nil, fmt.Errorf("invalid store backend: %s", cfg.Type)
	}

	switch cfg.Type {
	case SQLiteBackend:
		store, err := NewSQLiteStore(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		logger.Info("Initialized sqlite store", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: store, Cleanup: store.Close}, nil
	default:
		logger.Info("Initialized memory store")
		return &Result{Store: NewMemoryStore(), Cleanup: func() error { return nil }}, nil
	}
}
