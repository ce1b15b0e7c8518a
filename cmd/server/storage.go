package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/fastygo/taskboard/internal/config"
	boltInfra "github.com/fastygo/taskboard/internal/infrastructure/bolt"
	"github.com/fastygo/taskboard/internal/infrastructure/monitor"
	pgInfra "github.com/fastygo/taskboard/internal/infrastructure/postgres"
	redisInfra "github.com/fastygo/taskboard/internal/infrastructure/redis"
	sqliteInfra "github.com/fastygo/taskboard/internal/infrastructure/sqlite"
	"github.com/fastygo/taskboard/internal/services/lifecycle"
	"github.com/fastygo/taskboard/repository"
	boltRepo "github.com/fastygo/taskboard/repository/bolt"
	"github.com/fastygo/taskboard/repository/memory"
	pgRepo "github.com/fastygo/taskboard/repository/postgres"
	redisRepo "github.com/fastygo/taskboard/repository/redis"
	sqliteRepo "github.com/fastygo/taskboard/repository/sqlite"
)

type repositories struct {
	tasks    repository.TaskRepository
	projects repository.ProjectRepository
}

// openStorage connects the configured store, registers its health check and
// close hook, and wraps projects with the Redis cache when enabled.
func openStorage(ctx context.Context, cfg *config.Config, mon *monitor.Monitor, manager *lifecycle.Manager, logger *zap.Logger) (repositories, error) {
	var repos repositories

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		if err := pgInfra.RunMigrations(cfg, logger); err != nil {
			return repos, fmt.Errorf("migrations: %w", err)
		}
		pool, err := pgInfra.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return repos, fmt.Errorf("postgres: %w", err)
		}
		manager.Register("postgres", func(context.Context) error {
			pgInfra.Close(pool, logger)
			return nil
		})
		mon.Add("postgres", monitor.PostgresCheck(pool))
		repos = repositories{tasks: pgRepo.NewTaskRepository(pool), projects: pgRepo.NewProjectRepository(pool)}

	case config.DriverSQLite:
		db, err := sqliteInfra.Open(cfg.Storage.SQLitePath, logger)
		if err != nil {
			return repos, fmt.Errorf("sqlite: %w", err)
		}
		manager.Register("sqlite", func(context.Context) error { return db.Close() })
		mon.Add("sqlite", monitor.SQLCheck(db))
		repos = repositories{tasks: sqliteRepo.NewTaskRepository(db), projects: sqliteRepo.NewProjectRepository(db)}

	case config.DriverBolt:
		db, err := boltInfra.Open(cfg.Storage.BoltPath, logger)
		if err != nil {
			return repos, fmt.Errorf("bolt: %w", err)
		}
		manager.Register("bolt", func(context.Context) error { return db.Close() })
		mon.Add("bolt", monitor.BoltCheck(db))
		repos = repositories{tasks: boltRepo.NewTaskRepository(db), projects: boltRepo.NewProjectRepository(db)}

	default:
		repos = repositories{tasks: memory.NewTaskStorage(), projects: memory.NewProjectStorage()}
	}

	redisClient, err := redisInfra.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		return repos, fmt.Errorf("redis: %w", err)
	}
	if redisClient != nil {
		manager.Register("redis", func(context.Context) error { return redisClient.Close() })
		mon.Add("redis", monitor.RedisCheck(redisClient))
		repos.projects = redisRepo.NewProjectCache(repos.projects, redisClient, cfg.Redis.CacheTTL, logger)
	}

	logger.Info("storage ready",
		zap.String("driver", cfg.Storage.Driver),
		zap.Bool("project_cache", redisClient != nil))
	return repos, nil
}
