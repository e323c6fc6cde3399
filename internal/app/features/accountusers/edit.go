// internal/app/features/accountusers/edit.go
package accountusers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	accountuserstore "github.com/hubworks/accounthub/internal/app/store/accountusers"
	userstore "github.com/hubworks/accounthub/internal/app/store/users"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/formutil"
	"github.com/hubworks/accounthub/internal/app/system/htmlsanitize"
	"github.com/hubworks/accounthub/internal/app/system/navigation"
	"github.com/hubworks/accounthub/internal/app/system/status"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeEdit handles GET /accounts/{aid}/users/{id}/edit.
// Only the account-scoped fields (title, status) are editable here; the
// platform user edits their own identity through the profile page.
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, ok := h.parentAccount(ctx, w, r)
	if !ok {
		return
	}
	back := navigation.SafeBackURL(r, navigation.AccountUsersBackURL(acct.ID.Hex()))

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid account user id", err, "That user link is not valid.", back)
		return
	}

	au, err := accountuserstore.New(h.DB).GetByID(ctx, acct.ID, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "account user not found", "User not found.", back)
			return
		}
		h.ErrLog.LogServerError(w, r, "load account user failed", err, "Unable to load the user.", back)
		return
	}

	name := au.UserID.Hex()
	if u, err := userstore.New(h.DB).GetByID(ctx, au.UserID); err == nil {
		name = u.FullName()
	}

	data := editData{
		AccountID: acct.ID.Hex(),
		ID:        au.ID.Hex(),
		Name:      name,
		UserTitle: au.Title,
		Status:    au.Status,
	}
	formutil.SetBase(&data.Base, r, "Edit "+name, au.DetailPath())
	templates.Render(w, r, "accountuser_edit", data)
}

// HandleEdit handles POST /accounts/{aid}/users/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, ok := h.parentAccount(ctx, w, r)
	if !ok {
		return
	}
	back := navigation.SafeBackURL(r, navigation.AccountUsersBackURL(acct.ID.Hex()))

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid account user id", err, "That user link is not valid.", back)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse account user form failed", err, "The submitted form could not be read.", back)
		return
	}

	title := htmlsanitize.StripTags(strings.TrimSpace(r.FormValue("title")))
	st := strings.TrimSpace(r.FormValue("status"))

	renderWithError := func(msg string) {
		data := editData{
			AccountID: acct.ID.Hex(),
			ID:        id.Hex(),
			UserTitle: title,
			Status:    st,
		}
		formutil.SetBase(&data.Base, r, "Edit User", back)
		data.SetError(msg)
		templates.Render(w, r, "accountuser_edit", data)
	}

	if st != "" && !status.IsValid(st) {
		renderWithError("Status must be active or disabled.")
		return
	}

	store := accountuserstore.New(h.DB)
	au, err := store.GetByID(ctx, acct.ID, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "account user not found", "User not found.", back)
			return
		}
		h.ErrLog.LogServerError(w, r, "load account user failed", err, "Unable to save the user.", back)
		return
	}

	err = store.Update(ctx, acct.ID, id, models.AccountUser{
		Title:  title,
		Status: st,
	})
	if err != nil {
		h.ErrLog.LogServerError(w, r, "update account user failed", err, "Unable to save the user.", back)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.Audit.AccountUserUpdated(ctx, r, actorID.Hex(), acct.ID, au.UserID)

	http.Redirect(w, r, au.DetailPath(), http.StatusSeeOther)
}
