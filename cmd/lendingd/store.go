package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kuwago/lending/internal/domain/port"
	"github.com/kuwago/lending/internal/infrastructure/cache"
	"github.com/kuwago/lending/internal/infrastructure/config"
	"github.com/kuwago/lending/internal/infrastructure/memory"
	pgstore "github.com/kuwago/lending/internal/infrastructure/postgres"
	"github.com/kuwago/lending/internal/presentation/rest"
	"github.com/kuwago/lending/pkg/events"
	pkgpostgres "github.com/kuwago/lending/pkg/postgres"
)

const defaultMigrationsSource = "file://internal/infrastructure/postgres/migrations"

// store is the persistence the service runs on, whichever driver backs it.
type store struct {
	uow    port.UnitOfWork
	reads  port.Repositories
	outbox events.OutboxRepository
	checks []rest.ReadinessCheck
	close  func()
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store, error) {
	if cfg.StoreDriver == config.StoreDriverMemory {
		logger.Warn("using in-memory store, state is lost on restart")
		mem := memory.NewStore()
		return &store{
			uow:    mem,
			reads:  mem.Repositories(),
			outbox: mem.Outbox(),
			close:  func() {},
		}, nil
	}

	pgCfg := pkgpostgres.Config{
		Host:     cfg.DB.Host,
		Port:     cfg.DB.Port,
		User:     cfg.DB.User,
		Password: cfg.DB.Password,
		Database: cfg.DB.Name,
		SSLMode:  cfg.DB.SSLMode,
		AppName:  cfg.ServiceName,
		MaxConns: int32(cfg.DB.MaxConns),
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	pool, err := pkgpostgres.NewPool(dbCtx, pgCfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	logger.Info("connected to database")

	source := defaultMigrationsSource
	if v := os.Getenv("MIGRATIONS_SOURCE"); v != "" {
		source = v
	}
	if err := pkgpostgres.RunMigrations(pgCfg.DSN(), source); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &store{
		uow:    pgstore.NewUnitOfWork(pool),
		reads:  pgstore.Repositories(pool),
		outbox: pgstore.NewOutboxRepo(pool),
		checks: []rest.ReadinessCheck{{
			Name:  "postgres",
			Check: func(ctx context.Context) error { return pkgpostgres.HealthCheck(ctx, pool) },
		}},
		close: pool.Close,
	}, nil
}

func openReportCache(ctx context.Context, cfg config.Config, logger *slog.Logger) (*cache.RedisReportCache, func(), error) {
	client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Redis.Addr, err)
	}
	logger.Info("report cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.ReportTTL)

	return cache.NewRedisReportCache(client, cfg.Redis.ReportTTL), func() { _ = client.Close() }, nil
}
