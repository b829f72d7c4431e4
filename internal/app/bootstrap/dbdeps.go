// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/gomodule/redigo/redis"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value to every hook after ConnectDB, so the
// services built in Startup hang off the Runtime pointer allocated there.
type DBDeps struct {
	SantaHubMongoClient   *mongo.Client
	SantaHubMongoDatabase *mongo.Database

	// DirectoryCache is nil when redis_addr is not configured.
	DirectoryCache *redis.Pool

	Runtime *Runtime
}
