// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown stops the background workers, drains the inbound lanes, then
// tears down the Redis pool and the MongoDB client.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if rt := deps.Runtime; rt != nil {
		logger.Info("stopping background workers")
		rt.Workers.Stop()
		if rt.Inbox != nil {
			logger.Info("draining inbound messages")
			rt.Inbox.Stop()
		}
	}

	if deps.DirectoryCache != nil {
		if err := deps.DirectoryCache.Close(); err != nil {
			logger.Warn("redis pool close failed", zap.Error(err))
		}
	}

	if deps.SantaHubMongoClient != nil {
		logger.Info("disconnecting SantaHub MongoDB client")
		if err := deps.SantaHubMongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
