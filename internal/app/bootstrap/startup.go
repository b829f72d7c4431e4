// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	assignmentstore "github.com/dalemusser/santahub/internal/app/store/assignments"
	contactstore "github.com/dalemusser/santahub/internal/app/store/contacts"
	eventstore "github.com/dalemusser/santahub/internal/app/store/events"
	exclusionstore "github.com/dalemusser/santahub/internal/app/store/exclusions"
	onboardingstore "github.com/dalemusser/santahub/internal/app/store/onboarding"
	participantstore "github.com/dalemusser/santahub/internal/app/store/participants"
	"github.com/dalemusser/santahub/internal/app/system/conversation"
	"github.com/dalemusser/santahub/internal/app/system/dircache"
	"github.com/dalemusser/santahub/internal/app/system/enrollment"
	"github.com/dalemusser/santahub/internal/app/system/inbox"
	"github.com/dalemusser/santahub/internal/app/system/messaging"
	"github.com/dalemusser/santahub/internal/app/system/msgtemplates"
	"github.com/dalemusser/santahub/internal/app/system/notify"
	"github.com/dalemusser/santahub/internal/app/system/ratelimit"
	"github.com/dalemusser/santahub/internal/app/system/reminders"
	"github.com/dalemusser/santahub/internal/app/system/rounds"
	"github.com/dalemusser/santahub/internal/app/system/tasks"
	"github.com/dalemusser/santahub/internal/app/system/timeouts"
	"github.com/dalemusser/santahub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Runtime holds the long-lived services built in Startup and used by the
// HTTP handlers and background workers.
type Runtime struct {
	Enrollment *enrollment.Service
	Rounds     *rounds.Service
	Notify     *notify.Dispatcher
	Reminders  *reminders.Sweeper
	Inbox      *inbox.Lanes
	Workers    workers.Group
}

// adminMention renders the organizer's chat mention, or "" when unset.
func adminMention(userID string) string {
	if userID == "" {
		return ""
	}
	return "<@" + userID + ">"
}

// Startup builds the services, starts the inbound lanes and the background
// workers. It runs after schema setup and before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Send:    appCfg.SendTimeout,
		Inbound: appCfg.InboundTimeout,
		Sweep:   appCfg.SweepTimeout,
	})

	db := deps.SantaHubMongoDatabase
	participants := participantstore.New(db)
	exclusions := exclusionstore.New(db)
	assignments := assignmentstore.New(db)
	events := eventstore.New(db)
	contacts := contactstore.New(db)
	sessions := onboardingstore.New(db)

	var chat messaging.Transport = messaging.NewClient(messaging.Config{
		BaseURL: appCfg.ChatAPIBaseURL,
		Token:   appCfg.ChatBotToken,
		Timeout: appCfg.SendTimeout,
	}, logger.Named("chat"))
	if deps.DirectoryCache != nil {
		chat = &dircache.Transport{
			Inner: chat,
			Pool:  deps.DirectoryCache,
			TTL:   appCfg.DirectoryTTL,
			Log:   logger.Named("dircache"),
		}
	}

	tmpl := msgtemplates.MustNew()
	mention := adminMention(appCfg.AdminChatUserID)

	rt := deps.Runtime
	rt.Enrollment = &enrollment.Service{
		Directory:    chat,
		Messenger:    chat,
		Contacts:     contacts,
		Sessions:     sessions,
		Templates:    tmpl,
		Log:          logger.Named("enrollment"),
		EventName:    appCfg.EventName,
		AdminMention: mention,
		SendDelay:    appCfg.SendDelay,
	}
	rt.Rounds = &rounds.Service{
		Participants:    participants,
		Exclusions:      exclusions,
		Assignments:     assignments,
		Events:          events,
		Atomic:          rounds.MongoAtomic(db, logger),
		Log:             logger.Named("rounds"),
		MinParticipants: appCfg.MinParticipants,
	}
	rt.Notify = &notify.Dispatcher{
		Assignments:  assignments,
		Participants: participants,
		Events:       events,
		Messenger:    chat,
		Templates:    tmpl,
		Log:          logger.Named("notify"),
		SendDelay:    appCfg.SendDelay,
		AdminMention: mention,
	}
	rt.Reminders = &reminders.Sweeper{
		Assignments:  assignments,
		Participants: participants,
		Messenger:    chat,
		Templates:    tmpl,
		Log:          logger.Named("reminders"),
		DefaultZone:  appCfg.DefaultTimeZone,
		SendDelay:    appCfg.SendDelay,
		AdminMention: mention,
	}

	conv := &conversation.Handler{
		Participants: participants,
		Assignments:  assignments,
		Contacts:     contacts,
		Sessions:     sessions,
		Messenger:    chat,
		Templates:    tmpl,
		Log:          logger.Named("conversation"),
		EventName:    appCfg.EventName,
		AdminMention: mention,
	}
	limiter := ratelimit.New(appCfg.InboundLimit, appCfg.InboundWindow)
	rt.Inbox = inbox.New(appCfg.InboxLanes, appCfg.InboxBuffer, conv, limiter, logger.Named("inbox"))
	rt.Inbox.Start()

	rt.Workers = workers.Group{
		workers.NewRunner(tasks.ReminderSweepJob(rt.Reminders, logger, appCfg.ReminderInterval), logger, appCfg.StartupDelay),
		workers.NewRunner(tasks.ScheduledNotifyJob(rt.Notify, logger, appCfg.ScheduleCheckInterval), logger, appCfg.StartupDelay),
	}
	rt.Workers.Start()

	logger.Info("santahub started",
		zap.String("event", appCfg.EventName),
		zap.Int("inbox_lanes", appCfg.InboxLanes),
		zap.Duration("reminder_interval", appCfg.ReminderInterval),
		zap.Bool("directory_cache", deps.DirectoryCache != nil))
	return nil
}
