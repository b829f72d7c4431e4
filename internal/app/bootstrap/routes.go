// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	chateventsfeature "github.com/dalemusser/santahub/internal/app/features/chatevents"
	contactsfeature "github.com/dalemusser/santahub/internal/app/features/contacts"
	dashboardfeature "github.com/dalemusser/santahub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/santahub/internal/app/features/errors"
	eventfeature "github.com/dalemusser/santahub/internal/app/features/event"
	exclusionsfeature "github.com/dalemusser/santahub/internal/app/features/exclusions"
	healthfeature "github.com/dalemusser/santahub/internal/app/features/health"
	matchingfeature "github.com/dalemusser/santahub/internal/app/features/matching"
	notificationsfeature "github.com/dalemusser/santahub/internal/app/features/notifications"
	participantsfeature "github.com/dalemusser/santahub/internal/app/features/participants"
	remindersfeature "github.com/dalemusser/santahub/internal/app/features/reminders"
	"github.com/dalemusser/santahub/internal/app/system/auth"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// Startup have completed. The router has three areas:
//   - /health for load balancers
//   - /chat for inbound chat events, verified with the signing secret
//   - /admin for the organizer's JSON API, behind the admin bearer token
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.SantaHubMongoDatabase
	rt := deps.Runtime

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.SantaHubMongoClient, deps.DirectoryCache, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Inbound chat events
	chatHandler := chateventsfeature.NewHandler(rt.Inbox, logger)
	r.Mount("/chat", chateventsfeature.Routes(chatHandler, appCfg.ChatSigningSecret, logger))

	// Organizer API
	r.Route("/admin", func(admin chi.Router) {
		admin.Use(auth.RequireAdminToken(appCfg.AdminToken, logger))

		dashboardHandler := dashboardfeature.NewHandler(db, errLog, logger)
		admin.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

		participantsHandler := participantsfeature.NewHandler(db, errLog, logger)
		admin.Mount("/participants", participantsfeature.Routes(participantsHandler))

		contactsHandler := contactsfeature.NewHandler(db, rt.Enrollment, errLog, logger)
		admin.Mount("/contacts", contactsfeature.Routes(contactsHandler))

		exclusionsHandler := exclusionsfeature.NewHandler(db, errLog, logger)
		admin.Mount("/exclusions", exclusionsfeature.Routes(exclusionsHandler))

		matchingHandler := matchingfeature.NewHandler(db, rt.Rounds, errLog, logger)
		admin.Mount("/matching", matchingfeature.Routes(matchingHandler))

		eventHandler := eventfeature.NewHandler(db, errLog, logger)
		admin.Mount("/event", eventfeature.Routes(eventHandler))

		notificationsHandler := notificationsfeature.NewHandler(rt.Notify, errLog, logger)
		admin.Mount("/notifications", notificationsfeature.Routes(notificationsHandler))

		remindersHandler := remindersfeature.NewHandler(rt.Reminders, errLog, logger)
		admin.Mount("/reminders", remindersfeature.Routes(remindersHandler))
	})

	return r, nil
}
