package bootstrap

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/santahub/internal/testutil"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		MongoURI:              "mongodb://localhost:27017",
		MongoDatabase:         "santahub_test",
		MongoMaxPoolSize:      100,
		MongoMinPoolSize:      10,
		DefaultTimeZone:       "Europe/Berlin",
		ReminderInterval:      15 * time.Minute,
		ScheduleCheckInterval: 5 * time.Minute,
		SendDelay:             time.Second,
		StartupDelay:          10 * time.Second,
		MinParticipants:       3,
		DirectoryTTL:          6 * time.Hour,
		InboxLanes:            8,
		InboxBuffer:           64,
		InboundLimit:          30,
		InboundWindow:         time.Minute,
		SendTimeout:           10 * time.Second,
		InboundTimeout:        45 * time.Second,
		SweepTimeout:          10 * time.Minute,
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", func(*AppConfig) {}, ""},
		{"bad uri", func(c *AppConfig) { c.MongoURI = "postgres://nope" }, "invalid MongoDB URI"},
		{"no database", func(c *AppConfig) { c.MongoDatabase = "" }, "mongo_database"},
		{"pool sizes", func(c *AppConfig) { c.MongoMinPoolSize = 200 }, "mongo_min_pool_size"},
		{"unknown zone", func(c *AppConfig) { c.DefaultTimeZone = "Mars/Olympus" }, "default_time_zone"},
		{"zero interval", func(c *AppConfig) { c.ReminderInterval = 0 }, "reminder_interval"},
		{"negative delay", func(c *AppConfig) { c.SendDelay = -time.Second }, "send_delay"},
		{"min participants", func(c *AppConfig) { c.MinParticipants = 1 }, "min_participants"},
		{"no lanes", func(c *AppConfig) { c.InboxLanes = 0 }, "inbox_lanes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := ValidateConfig(&config.CoreConfig{}, cfg, testLogger())
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestAdminMention(t *testing.T) {
	if got := adminMention(""); got != "" {
		t.Errorf("expected empty mention, got %q", got)
	}
	if got := adminMention("U024BE7LH"); got != "<@U024BE7LH>" {
		t.Errorf("unexpected mention %q", got)
	}
}

func TestEnsureSchema(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{SantaHubMongoDatabase: db}
	if err := EnsureSchema(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("EnsureSchema failed: %v", err)
	}
	// Running twice is harmless.
	if err := EnsureSchema(ctx, &config.CoreConfig{}, validConfig(), deps, testLogger()); err != nil {
		t.Fatalf("second EnsureSchema failed: %v", err)
	}
}

func TestBuildHandler_AdminRequiresToken(t *testing.T) {
	db := testutil.SetupTestDB(t)
	cfg := validConfig()
	cfg.AdminToken = "s3cret"
	deps := DBDeps{
		SantaHubMongoClient:   db.Client(),
		SantaHubMongoDatabase: db,
		Runtime:               &Runtime{},
	}

	h, err := BuildHandler(&config.CoreConfig{}, cfg, deps, testLogger())
	if err != nil {
		t.Fatalf("BuildHandler failed: %v", err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		want   int
	}{
		{"no token", "GET", "/admin/exclusions", "", http.StatusUnauthorized},
		{"wrong token", "GET", "/admin/exclusions", "nope", http.StatusUnauthorized},
		{"with token", "GET", "/admin/exclusions", "s3cret", http.StatusOK},
		{"event", "GET", "/admin/event", "s3cret", http.StatusOK},
		{"participants", "GET", "/admin/participants", "s3cret", http.StatusOK},
		{"unknown route", "GET", "/nowhere", "", http.StatusNotFound},
		{"wrong method", "DELETE", "/admin/event/", "s3cret", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("%s %s: expected status %d, got %d", tt.method, tt.path, tt.want, rec.Code)
			}
		})
	}
}
