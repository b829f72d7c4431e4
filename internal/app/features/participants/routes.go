// internal/app/features/participants/routes.go
package participants

import "github.com/go-chi/chi/v5"

// Routes returns the participant admin subrouter, mounted under /admin/participants.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Delete("/{id}", h.ServeDelete)
	return r
}
