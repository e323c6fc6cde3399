// internal/app/features/accountusers/delete.go
package accountusers

import (
	"context"
	"errors"
	"net/http"

	accountuserstore "github.com/hubworks/accounthub/internal/app/store/accountusers"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// HandleDelete handles POST /accounts/{aid}/users/{id}/delete.
// The membership is removed; the platform user record stays (it may be
// re-attached to another account). Redirects to the account-user list.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	acct, ok := h.parentAccount(ctx, w, r)
	if !ok {
		return
	}
	listURL := usersBase(acct.ID)

	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid account user id", err, "That user link is not valid.", listURL)
		return
	}

	store := accountuserstore.New(h.DB)
	au, err := store.GetByID(ctx, acct.ID, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// Already gone. Land back on the list.
			h.Log.Info("delete of missing account user", zap.String("account_user_id", id.Hex()))
			http.Redirect(w, r, listURL, http.StatusSeeOther)
			return
		}
		h.ErrLog.LogServerError(w, r, "load account user failed", err, "Unable to remove the user.", listURL)
		return
	}

	if _, err := store.Delete(ctx, acct.ID, id); err != nil {
		h.ErrLog.LogServerError(w, r, "delete account user failed", err, "Unable to remove the user.", listURL)
		return
	}

	_, _, actorID, _ := authz.UserCtx(r)
	h.Audit.AccountUserDeleted(ctx, r, actorID.Hex(), acct.ID, au.UserID)

	http.Redirect(w, r, listURL, http.StatusSeeOther)
}
