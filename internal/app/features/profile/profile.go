// internal/app/features/profile/profile.go
package profile

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	uierrors "github.com/hubworks/accounthub/internal/app/features/errors"
	userstore "github.com/hubworks/accounthub/internal/app/store/users"
	"github.com/hubworks/accounthub/internal/app/system/authutil"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/inputval"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"
)

// profileData is the view model for the profile page.
type profileData struct {
	viewdata.BaseVM

	Username  string
	FirstName string
	LastName  string
	Email     string

	// Referrer is the page that linked here, carried through the form so
	// the save lands the user back where they came from.
	Referrer string

	ShowPasswordSection bool
	PasswordRules       string

	Error   template.HTML
	Success template.HTML
}

// ServeProfile renders the profile form pre-filled from the current user.
func (h *Handler) ServeProfile(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	user, err := userstore.New(h.DB).GetByID(ctx, uid)
	if err != nil {
		uierrors.RenderNotFound(w, r, "User not found.", "/")
		return
	}

	data := profileData{
		BaseVM:              viewdata.NewBaseVM(r, "Profile", "/"),
		Username:            user.Username,
		FirstName:           user.FirstName,
		LastName:            user.LastName,
		Email:               user.Email,
		Referrer:            safeReferrer(r.Referer()),
		ShowPasswordSection: user.AuthMethod == "password",
		PasswordRules:       authutil.PasswordRules(),
	}

	if r.URL.Query().Get("success") == "profile" {
		data.Success = "Profile saved."
	}

	templates.Render(w, r, "profile", data)
}

type profileInput struct {
	Username  string `validate:"required,max=100" label:"Username"`
	FirstName string `validate:"max=100" label:"First name"`
	LastName  string `validate:"max=100" label:"Last name"`
	Email     string `validate:"required,email,max=254" label:"Email"`
}

// HandleUpdate processes the profile form. Identity fields are always
// updated; the credential changes only when password1 is non-empty.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, _, uid, ok := authz.UserCtx(r)
	if !ok {
		uierrors.RenderUnauthorized(w, r, "/login")
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse profile form failed", err, "The submitted form could not be read.", "/profile")
		return
	}

	in := profileInput{
		Username:  strings.TrimSpace(r.FormValue("username")),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
	}
	referrer := safeReferrer(r.FormValue("referrer"))
	password1 := r.FormValue("password1")
	password2 := r.FormValue("password2")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	us := userstore.New(h.DB)
	user, err := us.GetByID(ctx, uid)
	if err != nil {
		uierrors.RenderNotFound(w, r, "User not found.", "/")
		return
	}

	renderWithError := func(msg string) {
		data := profileData{
			BaseVM:              viewdata.NewBaseVM(r, "Profile", "/"),
			Username:            in.Username,
			FirstName:           in.FirstName,
			LastName:            in.LastName,
			Email:               in.Email,
			Referrer:            referrer,
			ShowPasswordSection: user.AuthMethod == "password",
			PasswordRules:       authutil.PasswordRules(),
			Error:               template.HTML(msg),
		}
		templates.Render(w, r, "profile", data)
	}

	if res := inputval.Validate(in); res.HasErrors() {
		renderWithError(res.First())
		return
	}

	passwordChanged := false
	var newHash string
	if password1 != "" {
		if password1 != password2 {
			renderWithError("Passwords do not match.")
			return
		}
		if err := authutil.ValidatePassword(password1); err != nil {
			renderWithError(err.Error())
			return
		}
		newHash, err = authutil.HashPassword(password1)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "hash password failed", err, "Unable to save your profile.", "/profile")
			return
		}
		passwordChanged = true
	}

	err = us.UpdateProfile(ctx, uid, userstore.ProfileUpdate{
		Username:  in.Username,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateEmail):
			renderWithError("That email address is already in use.")
		case errors.Is(err, userstore.ErrDuplicateUsername):
			renderWithError("That username is already taken.")
		default:
			h.ErrLog.LogServerError(w, r, "update profile failed", err, "Unable to save your profile.", "/profile")
		}
		return
	}

	if passwordChanged {
		if err := us.UpdatePassword(ctx, uid, newHash); err != nil {
			h.ErrLog.LogServerError(w, r, "update password failed", err, "Unable to save your new password.", "/profile")
			return
		}
	}

	h.Audit.ProfileUpdated(ctx, r, uid, passwordChanged)

	dest := referrer
	switch {
	case dest == "":
		dest = "/"
	case strings.HasPrefix(dest, "/profile"):
		// Coming from the profile page itself; show the saved confirmation.
		dest = "/profile?success=profile"
	}
	http.Redirect(w, r, dest, http.StatusSeeOther)
}

// safeReferrer reduces a referrer value to a same-origin path, or "".
func safeReferrer(ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	if u, err := url.Parse(ref); err == nil {
		ref = u.RequestURI()
	}
	if !strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "//") {
		return ""
	}
	return ref
}
