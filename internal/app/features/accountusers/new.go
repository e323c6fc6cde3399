// internal/app/features/accountusers/new.go
package accountusers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	accountuserstore "github.com/hubworks/accounthub/internal/app/store/accountusers"
	userstore "github.com/hubworks/accounthub/internal/app/store/users"
	"github.com/hubworks/accounthub/internal/app/system/authutil"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/formutil"
	"github.com/hubworks/accounthub/internal/app/system/htmlsanitize"
	"github.com/hubworks/accounthub/internal/app/system/inputval"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

// ServeNew handles GET /accounts/{aid}/users/new.
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, ok := h.parentAccount(ctx, w, r)
	if !ok {
		return
	}

	data := newData{
		AccountID:   acct.ID.Hex(),
		AccountName: acct.Name,
	}
	formutil.SetBase(&data.Base, r, "Add User to "+acct.Name, usersBase(acct.ID))
	templates.Render(w, r, "accountuser_new", data)
}

type createUserInput struct {
	Username  string `validate:"required,max=100" label:"Username"`
	FirstName string `validate:"max=100" label:"First name"`
	LastName  string `validate:"max=100" label:"Last name"`
	Email     string `validate:"required,email,max=254" label:"Email"`
}

// HandleCreate handles POST /accounts/{aid}/users. It creates the platform
// User and the membership tying it to the routed account, then redirects to
// the new account-user's detail page.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acct, ok := h.parentAccount(ctx, w, r)
	if !ok {
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse account user form failed", err, "The submitted form could not be read.", usersBase(acct.ID))
		return
	}

	in := createUserInput{
		Username:  strings.TrimSpace(r.FormValue("username")),
		FirstName: strings.TrimSpace(r.FormValue("first_name")),
		LastName:  strings.TrimSpace(r.FormValue("last_name")),
		Email:     strings.TrimSpace(r.FormValue("email")),
	}
	title := htmlsanitize.StripTags(strings.TrimSpace(r.FormValue("title")))
	password1 := r.FormValue("password1")
	password2 := r.FormValue("password2")

	renderWithError := func(msg string) {
		data := newData{
			AccountID:   acct.ID.Hex(),
			AccountName: acct.Name,
			Username:    in.Username,
			FirstName:   in.FirstName,
			LastName:    in.LastName,
			Email:       in.Email,
			UserTitle:   title,
		}
		formutil.SetBase(&data.Base, r, "Add User to "+acct.Name, usersBase(acct.ID))
		data.SetError(msg)
		templates.Render(w, r, "accountuser_new", data)
	}

	if res := inputval.Validate(in); res.HasErrors() {
		renderWithError(res.First())
		return
	}

	var hash *string
	if password1 != "" {
		if password1 != password2 {
			renderWithError("Passwords do not match.")
			return
		}
		if err := authutil.ValidatePassword(password1); err != nil {
			renderWithError(err.Error())
			return
		}
		hs, err := authutil.HashPassword(password1)
		if err != nil {
			h.ErrLog.LogServerError(w, r, "hash password failed", err, "Unable to create the user.", usersBase(acct.ID))
			return
		}
		hash = &hs
	}

	us := userstore.New(h.DB)
	u, err := us.Create(ctx, models.User{
		Username:     in.Username,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        in.Email,
		PasswordHash: hash,
		AuthMethod:   "password",
		Role:         "accountuser",
	})
	if err != nil {
		switch {
		case errors.Is(err, userstore.ErrDuplicateEmail):
			renderWithError("A user with that email already exists.")
		case errors.Is(err, userstore.ErrDuplicateUsername):
			renderWithError("A user with that username already exists.")
		default:
			h.ErrLog.LogServerError(w, r, "create user failed", err, "Unable to create the user.", usersBase(acct.ID))
		}
		return
	}

	au, err := accountuserstore.New(h.DB).Create(ctx, models.AccountUser{
		AccountID: acct.ID,
		UserID:    u.ID,
		Title:     title,
	})
	if err != nil {
		// The user document exists but the join failed. Remove the orphan
		// so a retry of the form does not trip the unique email index.
		if _, derr := h.DB.Collection("users").DeleteOne(ctx, bson.M{"_id": u.ID}); derr != nil {
			h.Log.Warn("orphan user cleanup failed", zap.String("user_id", u.ID.Hex()), zap.Error(derr))
		}
		h.ErrLog.LogServerError(w, r, "create membership failed", err, "Unable to create the user.", usersBase(acct.ID))
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.Audit.AccountUserCreated(ctx, r, actorID.Hex(), acct.ID, u.ID)

	http.Redirect(w, r, au.DetailPath(), http.StatusSeeOther)
}
