// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/hubworks/accounthub/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/httpnav"
	"github.com/dalemusser/waffle/pantry/templates"
)

// renderPage writes the status code and renders the shared error page.
// If backURL is empty, a safe back URL is resolved with "/" as fallback.
func renderPage(w http.ResponseWriter, r *http.Request, status int, title, msg, backURL string) {
	u, signed := auth.CurrentUser(r)
	role, name := "", ""
	if signed && u != nil {
		role, name = u.Role, u.Name
	}
	if backURL == "" {
		backURL = httpnav.ResolveBackURL(r, "/")
	}

	data := pageData{
		Title:      title,
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	}

	w.WriteHeader(status)
	templates.Render(w, r, "error_page", data)
}

// RenderUnauthorized shows a friendly "sign in required" page.
// If backURL is empty, it will default to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	if backURL == "" {
		backURL = "/login"
	}
	renderPage(w, r, http.StatusUnauthorized, "Sign in required", "Please sign in to continue.", backURL)
}

// RenderForbidden shows a friendly access error page with a message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	renderPage(w, r, http.StatusForbidden, "Access denied", msg, backURL)
}

// RenderNotFound shows a friendly 404 page with a message.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	renderPage(w, r, http.StatusNotFound, "Not found", msg, backURL)
}

// RenderBadRequest shows a friendly 400 page with a message.
func RenderBadRequest(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	renderPage(w, r, http.StatusBadRequest, "Bad request", msg, backURL)
}

// RenderServerError shows a friendly 500 page with a message.
func RenderServerError(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	renderPage(w, r, http.StatusInternalServerError, "Something went wrong", msg, backURL)
}
