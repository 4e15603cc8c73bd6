// Package storage opens the record-store backend named in the configuration.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/garnizeh/jobboard/internal/config"
	"github.com/garnizeh/jobboard/internal/db"
	"github.com/garnizeh/jobboard/internal/recordstore"
	"github.com/garnizeh/jobboard/internal/repository/tabular"
)

// Open returns the configured backend and a function releasing it.
func Open(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (recordstore.Backend, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	policy, err := recordstore.ParseMalformedPolicy(cfg.OnMalformed)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Backend {
	case "", "csv":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create data dir: %w", err)
		}
		logger.Info("using csv storage", slog.String("dir", cfg.DataDir), slog.String("on_malformed", string(policy)))
		return recordstore.NewCSVBackend(cfg.DataDir, policy, logger), func() error { return nil }, nil
	case "sqlite":
		if dir := filepath.Dir(cfg.DatabasePath); dir != "" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, nil, fmt.Errorf("create database dir: %w", err)
			}
		}
		d, err := db.New(ctx, cfg.DatabasePath, logger)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("using sqlite storage", slog.String("path", cfg.DatabasePath))
		return recordstore.NewSQLiteBackend(d), d.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// OpenRepo opens the configured backend and returns initialized
// repositories over it.
func OpenRepo(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*tabular.Repo, func() error, error) {
	backend, closeFn, err := Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	repo, err := tabular.New(backend, logger)
	if err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	if err := repo.Initialize(ctx); err != nil {
		_ = closeFn()
		return nil, nil, err
	}
	return repo, closeFn, nil
}
