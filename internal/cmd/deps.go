package cmd

import (
	"context"
	"fmt"

	"github.com/astrathh/taskify-habitory/internal/config"
	"github.com/astrathh/taskify-habitory/internal/db"
	"github.com/astrathh/taskify-habitory/internal/logging"
	"github.com/astrathh/taskify-habitory/internal/service"
	"github.com/astrathh/taskify-habitory/internal/store"
	"github.com/astrathh/taskify-habitory/internal/store/mongostore"
)

// openBackend 根据 STORE_DRIVER 打开存储
func openBackend(ctx context.Context, cfg config.AppConfig, log *logging.Logger) (store.Backend, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		backend, err := mongostore.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("connect mongo: %w", err)
		}
		log.Info("store ready", "driver", cfg.StoreDriver, "database", cfg.MongoDatabase)
		return backend, nil
	default:
		gdb, err := db.Open(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		log.Info("store ready", "driver", cfg.StoreDriver, "path", cfg.DatabasePath)
		return store.NewGormStore(gdb), nil
	}
}

// openSnapshots 有 REDIS_URL 时使用 redis，否则使用进程内快照
func openSnapshots(ctx context.Context, cfg config.AppConfig, log *logging.Logger) (service.SnapshotStore, func(), error) {
	if cfg.RedisURL == "" {
		log.Info("snapshots in memory", "ttl", cfg.SnapshotTTL.String())
		return service.NewMemorySnapshots(cfg.SnapshotTTL), func() {}, nil
	}

	snapshots, err := service.NewRedisSnapshots(ctx, cfg.RedisURL, cfg.SnapshotTTL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("snapshots in redis", "ttl", cfg.SnapshotTTL.String())
	return snapshots, func() { _ = snapshots.Close() }, nil
}
