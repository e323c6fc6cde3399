// internal/app/features/accountusers/helpers.go
package accountusers

import (
	"context"
	"errors"
	"net/http"

	accountstore "github.com/hubworks/accounthub/internal/app/store/accounts"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/navigation"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"github.com/hubworks/accounthub/internal/domain/models"
)

// parentAccount resolves the routed parent account ("aid" URL parameter),
// enforces tenant access, and loads the account document. On failure it
// writes the error response and returns ok=false.
func (h *Handler) parentAccount(ctx context.Context, w http.ResponseWriter, r *http.Request) (models.Account, bool) {
	back := navigation.SafeBackURL(r, navigation.AccountsBackURL)

	aid, err := primitive.ObjectIDFromHex(chi.URLParam(r, "aid"))
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid account id", err, "That account link is not valid.", back)
		return models.Account{}, false
	}

	if !authz.CanAccessAccount(r, aid) {
		h.ErrLog.LogNotFound(w, r, "account access denied", "Account not found.", back)
		return models.Account{}, false
	}

	acct, err := accountstore.New(h.DB).GetByID(ctx, aid)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "account not found", "Account not found.", back)
			return models.Account{}, false
		}
		h.ErrLog.LogServerError(w, r, "load account failed", err, "Unable to load the account.", back)
		return models.Account{}, false
	}

	return acct, true
}

// usersBase returns the list URL for the routed account.
func usersBase(accountID primitive.ObjectID) string {
	return "/accounts/" + accountID.Hex() + "/users"
}
