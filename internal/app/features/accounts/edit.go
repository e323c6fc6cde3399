// internal/app/features/accounts/edit.go
package accounts

import (
	"context"
	"errors"
	"net/http"
	"strings"

	accountstore "github.com/hubworks/accounthub/internal/app/store/accounts"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/formutil"
	"github.com/hubworks/accounthub/internal/app/system/htmlsanitize"
	"github.com/hubworks/accounthub/internal/app/system/inputval"
	"github.com/hubworks/accounthub/internal/app/system/navigation"
	"github.com/hubworks/accounthub/internal/app/system/status"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeEdit handles GET /accounts/{id}/edit (provider only).
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	back := navigation.SafeBackURL(r, navigation.AccountsBackURL)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid account id", err, "That account link is not valid.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, err := accountstore.New(h.DB).GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "account not found", "Account not found.", back)
			return
		}
		h.ErrLog.LogServerError(w, r, "load account failed", err, "Unable to load the account.", back)
		return
	}

	data := editData{
		ID:      acct.ID.Hex(),
		Name:    acct.Name,
		City:    acct.City,
		State:   acct.State,
		Status:  acct.Status,
		Contact: acct.ContactInfo,
	}
	formutil.SetBase(&data.Base, r, "Edit "+acct.Name, acct.DetailPath())
	templates.Render(w, r, "account_edit", data)
}

type editAccountInput struct {
	Name  string `validate:"required,max=200" label:"Account name"`
	City  string `validate:"max=100" label:"City"`
	State string `validate:"max=100" label:"State"`
}

// HandleEdit handles POST /accounts/{id}/edit.
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	back := navigation.SafeBackURL(r, navigation.AccountsBackURL)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid account id", err, "That account link is not valid.", back)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse account form failed", err, "The submitted form could not be read.", back)
		return
	}

	in := editAccountInput{
		Name:  strings.TrimSpace(r.FormValue("name")),
		City:  strings.TrimSpace(r.FormValue("city")),
		State: strings.TrimSpace(r.FormValue("state")),
	}
	st := strings.TrimSpace(r.FormValue("status"))
	contact := htmlsanitize.Sanitize(r.FormValue("contact_info"))

	renderWithError := func(msg string) {
		data := editData{
			ID:      id.Hex(),
			Name:    in.Name,
			City:    in.City,
			State:   in.State,
			Status:  st,
			Contact: contact,
		}
		formutil.SetBase(&data.Base, r, "Edit Account", back)
		data.SetError(msg)
		templates.Render(w, r, "account_edit", data)
	}

	if res := inputval.Validate(in); res.HasErrors() {
		renderWithError(res.First())
		return
	}
	if st != "" && st != status.Active && st != status.Disabled {
		renderWithError("Status must be active or disabled.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := accountstore.New(h.DB)

	// Preflight the unique name so the user gets a form error instead of a
	// duplicate-key failure from the partial $set update.
	taken, err := store.NameExistsForOther(ctx, text.Fold(in.Name), id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "check account name failed", err, "Unable to save the account.", back)
		return
	}
	if taken {
		renderWithError("An account with this name already exists.")
		return
	}

	err = store.Update(ctx, id, models.Account{
		Name:        in.Name,
		City:        in.City,
		State:       in.State,
		Status:      st,
		ContactInfo: contact,
	})
	if err != nil {
		if errors.Is(err, accountstore.ErrDuplicateAccount) {
			renderWithError("An account with this name already exists.")
			return
		}
		h.ErrLog.LogServerError(w, r, "update account failed", err, "Unable to save the account.", back)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.Audit.AccountUpdated(ctx, r, actorID.Hex(), id, in.Name)

	http.Redirect(w, r, "/accounts/"+id.Hex()+"/view", http.StatusSeeOther)
}
