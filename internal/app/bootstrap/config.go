// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/santahub/internal/app/system/timezones"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for SantaHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, admin_token, etc.
//   - Environment variables: SANTAHUB_MONGO_URI, SANTAHUB_ADMIN_TOKEN, etc.
//   - Command-line flags: --mongo_uri, --admin_token, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "santahub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "admin_token", Default: "", Desc: "Bearer token for the admin API (empty disables it)"},

	// Chat workspace
	{Name: "chat_api_base_url", Default: "https://slack.com/api", Desc: "Chat Web API base URL"},
	{Name: "chat_bot_token", Default: "", Desc: "Chat bot token"},
	{Name: "chat_signing_secret", Default: "", Desc: "Signing secret for inbound chat events (empty skips verification)"},
	{Name: "admin_chat_user_id", Default: "", Desc: "Chat user ID of the organizer, mentioned in help text"},

	{Name: "event_name", Default: "Secret Santa", Desc: "Name of the gift exchange shown in messages"},
	{Name: "default_time_zone", Default: "UTC", Desc: "IANA zone used when a participant's zone is unknown"},

	// Background jobs
	{Name: "reminder_interval", Default: "15m", Desc: "How often the reminder sweep runs"},
	{Name: "schedule_check_interval", Default: "5m", Desc: "How often a scheduled notification is checked"},
	{Name: "send_delay", Default: "1s", Desc: "Pause between consecutive chat sends in a batch"},
	{Name: "startup_delay", Default: "10s", Desc: "Delay before the first background run"},

	{Name: "min_participants", Default: 3, Desc: "Fewest matchable participants a matching run accepts"},

	// Directory cache
	{Name: "redis_addr", Default: "", Desc: "Redis address for the directory cache (empty disables it)"},
	{Name: "directory_ttl", Default: "6h", Desc: "How long chat directory answers are cached"},

	// Inbound processing
	{Name: "inbox_lanes", Default: 8, Desc: "Parallel lanes for inbound chat messages"},
	{Name: "inbox_buffer", Default: 64, Desc: "Queued inbound messages per lane"},
	{Name: "inbound_limit", Default: 30, Desc: "Inbound messages accepted per user per window"},
	{Name: "inbound_window", Default: "1m", Desc: "Window for inbound_limit"},

	// Timeouts
	{Name: "send_timeout", Default: "10s", Desc: "Timeout for one outbound chat API call"},
	{Name: "inbound_timeout", Default: "45s", Desc: "Budget for processing one inbound message"},
	{Name: "sweep_timeout", Default: "10m", Desc: "Budget for one background sweep or batch"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, SANTAHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "SANTAHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		AdminToken: appValues.String("admin_token"),

		ChatAPIBaseURL:    appValues.String("chat_api_base_url"),
		ChatBotToken:      appValues.String("chat_bot_token"),
		ChatSigningSecret: appValues.String("chat_signing_secret"),
		AdminChatUserID:   appValues.String("admin_chat_user_id"),

		EventName:       appValues.String("event_name"),
		DefaultTimeZone: appValues.String("default_time_zone"),

		ReminderInterval:      appValues.Duration("reminder_interval", 15*time.Minute),
		ScheduleCheckInterval: appValues.Duration("schedule_check_interval", 5*time.Minute),
		SendDelay:             appValues.Duration("send_delay", time.Second),
		StartupDelay:          appValues.Duration("startup_delay", 10*time.Second),

		MinParticipants: appValues.Int("min_participants"),

		RedisAddr:    appValues.String("redis_addr"),
		DirectoryTTL: appValues.Duration("directory_ttl", 6*time.Hour),

		InboxLanes:    appValues.Int("inbox_lanes"),
		InboxBuffer:   appValues.Int("inbox_buffer"),
		InboundLimit:  appValues.Int("inbound_limit"),
		InboundWindow: appValues.Duration("inbound_window", time.Minute),

		SendTimeout:    appValues.Duration("send_timeout", 10*time.Second),
		InboundTimeout: appValues.Duration("inbound_timeout", 45*time.Second),
		SweepTimeout:   appValues.Duration("sweep_timeout", 10*time.Minute),
	}

	if appCfg.AdminToken == "" {
		logger.Warn("admin_token is empty; the admin API will reject every request")
	}
	if appCfg.ChatSigningSecret == "" {
		logger.Warn("chat_signing_secret is empty; inbound chat events are not verified")
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}

	if _, err := timezones.Load(appCfg.DefaultTimeZone); err != nil {
		return fmt.Errorf("default_time_zone %q: %w", appCfg.DefaultTimeZone, err)
	}

	positive := []struct {
		name string
		d    time.Duration
	}{
		{"reminder_interval", appCfg.ReminderInterval},
		{"schedule_check_interval", appCfg.ScheduleCheckInterval},
		{"directory_ttl", appCfg.DirectoryTTL},
		{"inbound_window", appCfg.InboundWindow},
		{"send_timeout", appCfg.SendTimeout},
		{"inbound_timeout", appCfg.InboundTimeout},
		{"sweep_timeout", appCfg.SweepTimeout},
	}
	for _, p := range positive {
		if p.d <= 0 {
			return fmt.Errorf("%s must be positive, got %s", p.name, p.d)
		}
	}
	if appCfg.SendDelay < 0 || appCfg.StartupDelay < 0 {
		return fmt.Errorf("send_delay and startup_delay must not be negative")
	}

	if appCfg.MinParticipants < 2 {
		return fmt.Errorf("min_participants must be at least 2, got %d", appCfg.MinParticipants)
	}
	if appCfg.InboxLanes < 1 || appCfg.InboxBuffer < 1 || appCfg.InboundLimit < 1 {
		return fmt.Errorf("inbox_lanes, inbox_buffer and inbound_limit must be at least 1")
	}
	if appCfg.ChatBotToken == "" {
		logger.Warn("chat_bot_token is empty; chat sends and lookups will fail")
	}

	return nil
}
