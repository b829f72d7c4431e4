// internal/app/features/event/routes.go
package event

import "github.com/go-chi/chi/v5"

// Routes returns the event admin subrouter, mounted under /admin/event.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeGet)
	r.Put("/schedule", h.ServeSchedule)
	r.Put("/name", h.ServeName)
	return r
}
