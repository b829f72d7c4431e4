// internal/app/features/reminders/routes.go
package reminders

import "github.com/go-chi/chi/v5"

// Routes returns the reminder admin subrouter, mounted under /admin/reminders.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/sweep", h.ServeSweep)
	return r
}
