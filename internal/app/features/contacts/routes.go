// internal/app/features/contacts/routes.go
package contacts

import "github.com/go-chi/chi/v5"

// Routes returns the contact admin subrouter, mounted under /admin/contacts.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ServeList)
	r.Post("/import", h.ServeImport)
	r.Post("/invite", h.ServeInvite)
	return r
}
