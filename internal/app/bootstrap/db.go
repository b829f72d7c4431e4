// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	"github.com/dalemusser/santahub/internal/app/system/dircache"
	"github.com/dalemusser/santahub/internal/app/system/indexes"
	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"github.com/dalemusser/santahub/internal/app/system/validators"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// ConnectDB opens the MongoDB client and, when configured, the Redis pool
// backing the chat directory cache. A Redis outage at startup is logged and
// the cache disabled; MongoDB is required.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize).
		SetServerSelectionTimeout(timeouts.Medium())

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeouts.Medium())
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}
	logger.Info("connected to MongoDB", zap.String("database", appCfg.MongoDatabase))

	deps := DBDeps{
		SantaHubMongoClient:   client,
		SantaHubMongoDatabase: client.Database(appCfg.MongoDatabase),
		Runtime:               &Runtime{},
	}

	if appCfg.RedisAddr != "" {
		pool := dircache.NewPool(appCfg.RedisAddr)
		redisCtx, cancel := context.WithTimeout(ctx, timeouts.Ping())
		defer cancel()
		if err := dircache.Ping(redisCtx, pool); err != nil {
			logger.Warn("redis unavailable; directory cache disabled", zap.Error(err))
			_ = pool.Close()
		} else {
			logger.Info("directory cache enabled")
			deps.DirectoryCache = pool
		}
	}

	return deps, nil
}

// EnsureSchema creates indexes and collection validators. Both are
// idempotent and run on every start.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.SantaHubMongoDatabase
	if err := validators.EnsureAll(ctx, db); err != nil {
		logger.Error("collection validators failed", zap.Error(err))
		return err
	}
	if err := indexes.EnsureAll(ctx, db); err != nil {
		logger.Error("index setup failed", zap.Error(err))
		return err
	}
	logger.Info("schema ensured")
	return nil
}
