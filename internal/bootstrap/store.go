// Package bootstrap builds the long-lived clients both binaries share.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/legalease/backend/internal/storage"
	"github.com/legalease/backend/internal/storage/memory"
	"github.com/legalease/backend/internal/storage/postgres"
	"github.com/legalease/backend/internal/storage/sqlite"
	"github.com/legalease/backend/pkg/config"
	"github.com/legalease/backend/pkg/logger"
)

// OpenStore connects the configured backend and makes sure its schema exists.
func OpenStore(ctx context.Context, cfg config.StoreConfig) (storage.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		client, err := sqlite.NewClient(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := client.InitSchema(); err != nil {
			client.Close()
			return nil, err
		}
		return client, nil

	case "postgres":
		client, err := postgres.NewClient(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		if err := client.InitSchema(ctx); err != nil {
			client.Close()
			return nil, err
		}
		return client, nil

	case "memory":
		logger.Warn("Using in-memory store; data is lost on exit")
		return memory.NewStore(), nil

	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Driver)
	}
}

// CloseStore closes s and logs any error.
func CloseStore(s storage.Store) {
	if err := s.Close(); err != nil {
		logger.Warn("Failed to close store", zap.Error(err))
	}
}
