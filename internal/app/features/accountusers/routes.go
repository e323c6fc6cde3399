// internal/app/features/accountusers/routes.go
package accountusers

import (
	"github.com/hubworks/accounthub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
)

// Routes mounts the account-user routes. The router is meant to be
// mounted at /accounts/{aid}/users so every handler resolves the parent
// account from the "aid" URL parameter.
func Routes(h *Handler, sm *auth.SessionManager) chi.Router {
	r := chi.NewRouter()

	// List and detail are open to any signed-in user who can access the
	// parent account; the handlers enforce the scoping.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)

		pr.Get("/", h.ServeList)
		pr.Get("/{id}/view", h.ServeView)
	})

	// Provider-only management routes.
	r.Group(func(pr chi.Router) {
		pr.Use(sm.RequireSignedIn)
		pr.Use(sm.RequireRole("provider"))

		pr.Get("/new", h.ServeNew)
		pr.Post("/", h.HandleCreate)

		pr.Get("/{id}/edit", h.ServeEdit)
		pr.Post("/{id}/edit", h.HandleEdit)

		pr.Post("/{id}/delete", h.HandleDelete)
	})

	return r
}
