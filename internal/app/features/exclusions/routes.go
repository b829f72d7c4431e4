// internal/app/features/exclusions/routes.go
package exclusions

import "github.com/go-chi/chi/v5"

// Routes returns the exclusion admin subrouter, mounted under /admin/exclusions.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/", h.ServeCreate)
	r.Delete("/{id}", h.ServeDelete)
	return r
}
