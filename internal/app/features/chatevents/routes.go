// internal/app/features/chatevents/routes.go
package chatevents

import (
	"github.com/dalemusser/santahub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Routes returns a subrouter for the event callback, mounted under /chat.
// Requests must carry a valid signature when signingSecret is set.
func Routes(h *Handler, signingSecret string, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()
	r.With(auth.VerifyChatSignature(signingSecret, logger)).Post("/events", h.Serve)
	return r
}
