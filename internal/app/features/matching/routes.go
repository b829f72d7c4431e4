// internal/app/features/matching/routes.go
package matching

import "github.com/go-chi/chi/v5"

// Routes returns the matching admin subrouter, mounted under /admin/matching.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Post("/run", h.ServeRun)
	r.Get("/assignments", h.ServeAssignments)
	return r
}
