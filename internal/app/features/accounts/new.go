// internal/app/features/accounts/new.go
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
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// ServeNew handles GET /accounts/new (provider only; routes enforce the role).
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	data := newData{}
	formutil.SetBase(&data.Base, r, "New Account", "/accounts")
	templates.Render(w, r, "account_new", data)
}

type createAccountInput struct {
	Name  string `validate:"required,max=200" label:"Account name"`
	City  string `validate:"max=100" label:"City"`
	State string `validate:"max=100" label:"State"`
}

// HandleCreate handles POST /accounts.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.ErrLog.LogBadRequest(w, r, "parse account form failed", err, "The submitted form could not be read.", "/accounts")
		return
	}

	in := createAccountInput{
		Name:  strings.TrimSpace(r.FormValue("name")),
		City:  strings.TrimSpace(r.FormValue("city")),
		State: strings.TrimSpace(r.FormValue("state")),
	}
	contact := htmlsanitize.Sanitize(r.FormValue("contact_info"))

	renderWithError := func(msg string) {
		data := newData{
			Name:    in.Name,
			City:    in.City,
			State:   in.State,
			Contact: contact,
		}
		formutil.SetBase(&data.Base, r, "New Account", "/accounts")
		data.SetError(msg)
		templates.Render(w, r, "account_new", data)
	}

	if res := inputval.Validate(in); res.HasErrors() {
		renderWithError(res.First())
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := accountstore.New(h.DB)
	acct, err := store.Create(ctx, models.Account{
		Name:        in.Name,
		City:        in.City,
		State:       in.State,
		ContactInfo: contact,
		ProviderID:  actorID,
	})
	if err != nil {
		if errors.Is(err, accountstore.ErrDuplicateAccount) {
			renderWithError("An account with this name already exists.")
			return
		}
		h.ErrLog.LogServerError(w, r, "create account failed", err, "Unable to create the account.", "/accounts")
		return
	}

	h.Audit.AccountCreated(ctx, r, actorID.Hex(), acct.ID, acct.Name)

	http.Redirect(w, r, acct.DetailPath(), http.StatusSeeOther)
}
