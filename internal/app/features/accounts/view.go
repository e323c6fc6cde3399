// internal/app/features/accounts/view.go
package accounts

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"strings"

	accountstore "github.com/hubworks/accounthub/internal/app/store/accounts"
	accountuserstore "github.com/hubworks/accounthub/internal/app/store/accountusers"
	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/navigation"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/app/system/viewdata"
	"github.com/hubworks/accounthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ServeView handles GET /accounts/{id}/view.
// Providers may view any account; accountusers only their own.
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	back := navigation.SafeBackURL(r, navigation.AccountsBackURL)

	idStr := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(idStr)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "invalid account id", err, "That account link is not valid.", back)
		return
	}

	if !authz.CanAccessAccount(r, id) {
		h.ErrLog.LogNotFound(w, r, "account view denied", "Account not found.", back)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	store := accountstore.New(h.DB)
	acct, err := store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			h.ErrLog.LogNotFound(w, r, "account not found", "Account not found.", back)
			return
		}
		h.ErrLog.LogServerError(w, r, "load account failed", err, "Unable to load the account.", back)
		return
	}

	members, err := h.loadMembers(ctx, acct.ID)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "load account users failed", err, "Unable to load the account.", back)
		return
	}

	role, _, _, _ := authz.UserCtx(r)

	data := viewData{
		BaseVM:     viewdata.NewBaseVM(r, acct.Name, back),
		ID:         acct.ID.Hex(),
		Name:       acct.Name,
		City:       acct.City,
		State:      acct.State,
		Status:     acct.Status,
		Contact:    template.HTML(acct.ContactInfo),
		Members:    members,
		UsersCount: int64(len(members)),
		CanManage:  role == "provider",
	}

	templates.Render(w, r, "account_view", data)
}

// loadMembers fetches the account's memberships joined with the user
// documents, sorted by display name.
func (h *Handler) loadMembers(ctx context.Context, accountID primitive.ObjectID) ([]memberRow, error) {
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
	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}

	byID := make(map[primitive.ObjectID]models.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	rows := make([]memberRow, 0, len(aus))
	for _, au := range aus {
		row := memberRow{
			ID:     au.ID.Hex(),
			Title:  au.Title,
			Status: au.Status,
		}
		if u, ok := byID[au.UserID]; ok {
			row.Name = u.FullName()
			if row.Name == "" {
				row.Name = u.Username
			}
			row.Email = u.Email
		}
		rows = append(rows, row)
	}

	sort.Slice(rows, func(i, j int) bool {
		return strings.ToLower(rows[i].Name) < strings.ToLower(rows[j].Name)
	})
	return rows, nil
}
