// internal/app/features/notifications/routes.go
package notifications

import "github.com/go-chi/chi/v5"

// Routes returns the notification admin subrouter, mounted under /admin/notifications.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/send", h.ServeSend)
	return r
}
