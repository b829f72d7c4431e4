// internal/app/features/chatevents/handler.go
package chatevents

import (
	"encoding/json"
	"net/http"

	apierrors "github.com/dalemusser/santahub/internal/app/features/errors"
	"github.com/dalemusser/santahub/internal/app/system/conversation"
	"go.uber.org/zap"
)

// RetryHeader is set by the chat platform on redelivered events.
const RetryHeader = "X-Slack-Retry-Num"

// Inbox queues an inbound message for handling off the request path.
type Inbox interface {
	Submit(msg conversation.Message) (string, error)
}

// Handler receives the chat platform's event callbacks.
type Handler struct {
	Inbox Inbox
	Log   *zap.Logger
}

// NewHandler constructs a chat events Handler.
func NewHandler(inbox Inbox, logger *zap.Logger) *Handler {
	return &Handler{Inbox: inbox, Log: logger}
}

type envelope struct {
	Type      string     `json:"type"`
	Challenge string     `json:"challenge,omitempty"`
	EventID   string     `json:"event_id,omitempty"`
	Event     *chatEvent `json:"event,omitempty"`
}

type chatEvent struct {
	Type        string `json:"type"`
	Subtype     string `json:"subtype,omitempty"`
	ChannelType string `json:"channel_type,omitempty"`
	User        string `json:"user,omitempty"`
	BotID       string `json:"bot_id,omitempty"`
	Text        string `json:"text"`
}

// Serve handles POST /chat/events.
//
// The platform expects an answer within a few seconds, so messages are
// queued and acknowledged with 200 straight away. Redeliveries are
// acknowledged and dropped: the first delivery was already queued.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request) {
	var env envelope
	if err := json.NewDecoder(r.Body).Decode(&env); err != nil {
		apierrors.JSON(w, http.StatusBadRequest, "invalid event payload")
		return
	}

	switch env.Type {
	case "url_verification":
		apierrors.WriteJSON(w, http.StatusOK, map[string]string{"challenge": env.Challenge})
		return
	case "event_callback":
	default:
		w.WriteHeader(http.StatusOK)
		return
	}

	if n := r.Header.Get(RetryHeader); n != "" {
		h.Log.Debug("redelivered event dropped",
			zap.String("event_id", env.EventID),
			zap.String("retry", n))
		w.WriteHeader(http.StatusOK)
		return
	}

	ev := env.Event
	if !directMessage(ev) {
		w.WriteHeader(http.StatusOK)
		return
	}

	id, err := h.Inbox.Submit(conversation.Message{UserID: ev.User, Text: ev.Text})
	if err != nil {
		h.Log.Warn("inbound message not queued",
			zap.String("event_id", env.EventID),
			zap.String("user_id", ev.User),
			zap.Error(err))
	} else {
		h.Log.Debug("inbound message queued",
			zap.String("event_id", env.EventID),
			zap.String("message_id", id))
	}
	// Always 200: an error status would make the platform redeliver.
	w.WriteHeader(http.StatusOK)
}

// directMessage reports whether ev is a person writing to the bot.
// Bot messages, edits and other subtypes are ignored.
func directMessage(ev *chatEvent) bool {
	if ev == nil || ev.Type != "message" {
		return false
	}
	if ev.ChannelType != "" && ev.ChannelType != "im" {
		return false
	}
	return ev.BotID == "" && ev.Subtype == "" && ev.User != ""
}
