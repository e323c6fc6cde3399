// internal/app/features/accountusers/list.go
package accountusers

import (
	"context"
	"net/http"
	"sort"
	"strings"

	accountuserstore "github.com/hubworks/accounthub/internal/app/store/accountusers"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/app/system/viewdata"
	"github.com/hubworks/accounthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServeList handles GET /accounts/{aid}/users.
// An account with zero users is a 404 unless AllowEmpty is set.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	acct, ok := h.parentAccount(ctx, w, r)
	if !ok {
		return
	}

	items, err := h.loadMembers(ctx, acct.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account users failed", err, "Unable to load the account's users.", acct.DetailPath())
		return
	}

	if len(items) == 0 && !h.AllowEmpty {
		h.ErrLog.LogNotFound(w, r, "account has no users", "This account has no users.", acct.DetailPath())
		return
	}

	role, _, _, _ := authz.UserCtx(r)

	data := listData{
		BaseVM:      viewdata.NewBaseVM(r, acct.Name+" Users", acct.DetailPath()),
		AccountID:   acct.ID.Hex(),
		AccountName: acct.Name,
		Items:       items,
		CanManage:   role == "provider",
	}

	templates.Render(w, r, "accountusers_list", data)
}

// loadMembers fetches the account's memberships and joins in the user
// documents, sorted by folded full name.
func (h *Handler) loadMembers(ctx context.Context, accountID primitive.ObjectID) ([]listItem, error) {
	aus, err := accountuserstore.New(h.DB).Find(ctx, bson.M{"account_id": accountID})
	if err != nil {
		return nil, err
	}
	if len(aus) == 0 {
		return nil, nil
	}

	userIDs := make([]primitive.ObjectID, 0, len(aus))
	for _, au := range aus {
		userIDs = append(userIDs, au.UserID)
	}

	cur, err := h.DB.Collection("users").Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	items := make([]listItem, 0, len(aus))
	for _, au := range aus {
		u := byID[au.UserID]
		items = append(items, listItem{
			ID:       au.ID,
			UserID:   au.UserID,
			Name:     u.FullName(),
			Username: u.Username,
			Email:    u.Email,
			Title:    au.Title,
			Status:   au.Status,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return strings.ToLower(items[i].Name) < strings.ToLower(items[j].Name)
	})
	return items, nil
}
