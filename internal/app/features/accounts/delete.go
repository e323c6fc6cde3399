// internal/app/features/accounts/delete.go
package accounts

import (
	"context"
	"errors"
	"net/http"

	accountstore "github.com/hubworks/accounthub/internal/app/store/accounts"
	accountuserstore "github.com/hubworks/accounthub/internal/app/store/accountusers"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/navigation"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// ServeDelete handles GET /accounts/{id}/delete: a confirmation page
// showing how many memberships will be removed along with the account.
func (h *Handler) ServeDelete(w http.ResponseWriter, r *http.Request) {
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

	usersCount, err := accountuserstore.New(h.DB).CountByAccount(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count account users failed", err, "Unable to load the account.", back)
		return
	}

	data := deleteData{
		BaseVM:     viewdata.NewBaseVM(r, "Delete "+acct.Name, acct.DetailPath()),
		ID:         acct.ID.Hex(),
		Name:       acct.Name,
		UsersCount: usersCount,
	}
	templates.Render(w, r, "account_delete", data)
}

// HandleDelete handles POST /accounts/{id}/delete. Memberships under the
// account are removed first, then the account itself.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid account id", err, "That account link is not valid.", "/accounts")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	store := accountstore.New(h.DB)
	acct, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Already gone. Deleting twice lands back on the list.
			h.Log.Info("delete of missing account", zap.String("account_id", id.Hex()))
			http.Redirect(w, r, "/accounts", http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "load account failed", err, "Unable to delete the account.", "/accounts")
		return
	}

	removed, err := accountuserstore.New(h.DB).DeleteByAccount(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete account memberships failed", err, "Unable to delete the account.", "/accounts")
		return
	}

	n, err := store.Delete(ctx, id)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "delete account failed", err, "Unable to delete the account.", "/accounts")
		return
	}
	if n == 0 {
		h.Log.Info("account vanished before delete", zap.String("account_id", id.Hex()))
		http.Redirect(w, r, "/accounts", http.StatusSeeOther)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.Audit.AccountDeleted(ctx, r, actorID.Hex(), id, acct.Name, removed)
	h.Log.Info("account deleted",
		zap.String("account_id", id.Hex()),
		zap.String("name", acct.Name),
		zap.Int64("memberships_removed", removed))

	http.Redirect(w, r, "/accounts", http.StatusSeeOther)
}
