// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// HTTP listener, logging, CORS and body limits; everything specific to the
// gift exchange lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Admin API bearer token. Empty disables the admin API.
	AdminToken string

	// Chat workspace
	ChatAPIBaseURL    string // Web API root (default https://slack.com/api)
	ChatBotToken      string // bot token used for sends and lookups
	ChatSigningSecret string // verifies inbound webhooks; empty skips verification
	AdminChatUserID   string // mentioned in messages as the person to ask for help

	EventName       string // shown in invites and assignment messages
	DefaultTimeZone string // used when a participant has no usable zone

	// Background jobs and batch pacing
	ReminderInterval      time.Duration // how often the reminder sweep runs
	ScheduleCheckInterval time.Duration // how often a scheduled notify is checked
	SendDelay             time.Duration // pause between consecutive sends in a batch
	StartupDelay          time.Duration // wait before the first background run

	MinParticipants int // smallest pool a matching run accepts

	// Directory cache (optional)
	RedisAddr    string        // host:port or redis:// URL; empty disables caching
	DirectoryTTL time.Duration // how long directory answers are cached

	// Inbound message processing
	InboxLanes     int           // parallel lanes; messages from one user share a lane
	InboxBuffer    int           // queued messages per lane
	InboundLimit   int           // messages per user per InboundWindow
	InboundWindow  time.Duration
	SendTimeout    time.Duration // one outbound chat API call
	InboundTimeout time.Duration // processing one inbound message
	SweepTimeout   time.Duration // one background sweep or batch
}
