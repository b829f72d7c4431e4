package health

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/santahub/internal/app/system/dircache"
	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"github.com/gomodule/redigo/redis"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"
)

// Handler holds dependencies needed for health checks.
type Handler struct {
	Client *mongo.Client
	Cache  *redis.Pool // nil when the directory cache is disabled
	Log    *zap.Logger
}

// NewHandler constructs a health Handler with the Mongo client, the
// optional directory cache pool and logger.
func NewHandler(client *mongo.Client, cache *redis.Pool, logger *zap.Logger) *Handler {
	return &Handler{
		Client: client,
		Cache:  cache,
		Log:    logger,
	}
}

// healthResponse is the JSON structure for the health check response.
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
	Message  string `json:"message,omitempty"`
	Error    string `json:"error,omitempty"`
}

// Serve handles GET /health.
//
// On success: 200 and
//
//	{ "status":"ok", "database":"connected", "cache":"disabled" }
//
// On DB failure: 503 and
//
//	{ "status":"error", "message":"Database unavailable", "error":"…"}
//
// The cache is informational: lookups fall through to the chat API when
// it is down, so a failed ping reports "disconnected" with a 200.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Ping())
	defer cancel()

	w.Header().Set("Content-Type", "application/json")

	resp := healthResponse{
		Status:   "ok",
		Database: "connected",
		Cache:    "disabled",
	}

	if err := h.Client.Ping(ctx, readpref.Primary()); err != nil {
		h.Log.Error("health-check: mongo ping failed", zap.Error(err))
		w.WriteHeader(http.StatusServiceUnavailable)
		resp.Status = "error"
		resp.Database = "disconnected"
		resp.Message = "Database unavailable"
		resp.Error = err.Error()
		_ = json.NewEncoder(w).Encode(resp)
		return
	}

	if h.Cache != nil {
		resp.Cache = "connected"
		if err := dircache.Ping(ctx, h.Cache); err != nil {
			h.Log.Warn("health-check: cache ping failed", zap.Error(err))
			resp.Cache = "disconnected"
		}
	}

	_ = json.NewEncoder(w).Encode(resp)
}
