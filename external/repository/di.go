package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/fangligamedev/AgentLinkin/internal/config"
	"github.com/fangligamedev/AgentLinkin/internal/repository"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/samber/do/v2"
)

const databaseInitTimeout = 15 * time.Second

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (repository.SessionStore, error) {
		cfg := do.MustInvoke[*config.Config](i)
		ctx, cancel := context.WithTimeout(context.Background(), databaseInitTimeout)
		defer cancel()
		return Open(ctx, cfg)
	})
}

// Open builds the snapshot store selected by cfg.StoreDriver.
func Open(ctx context.Context, cfg *config.Config) (repository.SessionStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverPostgres:
		p, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect database: %w", err)
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to ping database: %w", err)
		}
		if err := RunMigration(ctx, p); err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to run migration: %w", err)
		}
		slog.Info("snapshot store ready", "driver", cfg.StoreDriver)
		return NewPostgresRepository(p), nil
	case config.StoreDriverSQLite:
		r, err := OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		slog.Info("snapshot store ready", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return r, nil
	default:
		return NewMemoryRepository(), nil
	}
}
