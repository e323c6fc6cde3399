// internal/app/features/accountusers/view.go
package accountusers

import (
	"context"
	"errors"
	"net/http"

	accountuserstore "github.com/hubworks/accounthub/internal/app/store/accountusers"
	userstore "github.com/hubworks/accounthub/internal/app/store/users"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/navigation"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/app/system/viewdata"
	"github.com/dalemusser/waffle/pantry/templates"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeView handles GET /accounts/{aid}/users/{id}/view.
// The lookup is scoped by account, so an id under the wrong account is a 404.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
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

	u, err := userstore.New(h.DB).GetByID(ctx, au.UserID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load user failed", err, "Unable to load the user.", back)
		return
	}

	role, _, _, _ := authz.UserCtx(r)

	data := viewData{
		BaseVM:      viewdata.NewBaseVM(r, u.FullName(), back),
		AccountID:   acct.ID.Hex(),
		AccountName: acct.Name,
		ID:          au.ID.Hex(),
		Name:        u.FullName(),
		Username:    u.Username,
		Email:       u.Email,
		UserTitle:   au.Title,
		Status:      au.Status,
		CanManage:   role == "provider",
	}

	templates.Render(w, r, "accountuser_view", data)
}
