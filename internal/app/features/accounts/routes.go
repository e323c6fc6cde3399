// internal/app/features/accounts/routes.go
package accounts

import (
	"github.com/hubworks/accounthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts all Account routes under the base path
// (typically "/accounts" from bootstrap).
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// Any signed-in user may reach the list and detail pages; the handlers
	// scope what accountusers can see (list redirects them to their own
	// account, detail checks membership).
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}/view", h.ServeView)
	})

	// Provider-only routes: create, edit, delete
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("provider"))

		// CREATE
		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)

		// EDIT
		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)

		// DELETE (confirm page + action)
		pr.Get("/{id}/delete", h.ServeDelete)
		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}
