// internal/app/features/accounts/list.go
package accounts

import (
	"context"
	"maps"
	"net/http"

	"github.com/hubworks/accounthub/internal/app/system/authz"
	"github.com/hubworks/accounthub/internal/app/system/paging"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/httpnav"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/dalemusser/waffle/pantry/text"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ServeList handles GET /accounts (with optional ?q= search).
// It supports HTMX partial refresh of the table when HX-Target="accounts-table-wrap".
// Providers see all accounts; accountusers are redirected to their own
// account's detail page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, uname, _, _ := authz.UserCtx(r)

	// Accountusers have exactly one account to look at.
	if role == "accountuser" {
		accID := authz.UserAccountID(r)
		if accID == primitive.NilObjectID {
			h.ErrLog.LogNotFound(w, r, "accountuser without account membership", "No account found for your user.", "/")
			return
		}
		http.Redirect(w, r, "/accounts/"+accID.Hex()+"/view", http.StatusSeeOther)
		return
	}

	q := query.Search(r, "q")
	after := query.Get(r, "after")
	before := query.Get(r, "before")
	start := paging.ParseStart(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	db := h.DB

	// Build base filter
	base := bson.M{}
	var searchOr []bson.M
	if q != "" {
		fq := text.Fold(q)
		if fq != "" {
			hi := fq + "￿"
			searchOr = []bson.M{
				{"name_ci": bson.M{"$gte": fq, "$lt": hi}},
				{"city_ci": bson.M{"$gte": fq, "$lt": hi}},
				{"state_ci": bson.M{"$gte": fq, "$lt": hi}},
			}
			base["$or"] = searchOr
		}
	}

	// Count total
	total, err := db.Collection("accounts").CountDocuments(ctx, base)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "count accounts failed", err, "Unable to load accounts.", "")
		return
	}

	// Clone base filter for pagination query
	f := maps.Clone(base)
	find := options.Find()
	sortField := "name_ci"

	// Configure keyset pagination
	cfg := paging.ConfigureKeyset(before, after)
	cfg.ApplyToFind(find, sortField)

	// Apply cursor conditions (handle $or clause specially)
	if ks := cfg.KeysetWindow(sortField); ks != nil {
		if q != "" && len(searchOr) > 0 {
			f["$and"] = []bson.M{{"$or": searchOr}, ks}
			delete(f, "$or")
		} else {
			maps.Copy(f, ks)
		}
	}

	type acctRow struct {
		ID     primitive.ObjectID `bson:"_id"`
		Name   string             `bson:"name"`
		NameCI string             `bson:"name_ci"`
		City   string             `bson:"city"`
		State  string             `bson:"state"`
		Status string             `bson:"status"`
	}

	cur, err := db.Collection("accounts").Find(ctx, f, find)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "find accounts failed", err, "Unable to load accounts.", "")
		return
	}
	defer cur.Close(ctx)

	var accts []acctRow
	if err := cur.All(ctx, &accts); err != nil {
		h.ErrLog.LogServerError(w, r, "decode accounts failed", err, "Unable to load accounts.", "")
		return
	}

	// Reverse if paging backwards
	if cfg.Direction == paging.Backward {
		paging.Reverse(accts)
	}

	// Apply pagination trimming
	page := paging.TrimPage(&accts, before, after)

	// Compute range
	shown := len(accts)
	rng := paging.ComputeRange(start, shown)

	// Per-account user counts for the list
	acctIDs := make([]primitive.ObjectID, 0, len(accts))
	for _, a := range accts {
		acctIDs = append(acctIDs, a.ID)
	}
	usersMap, err := countUsersByAccount(ctx, db, acctIDs)
	if err != nil {
		h.ErrLog.LogServerError(w, r, "aggregate account user counts failed", err, "Unable to load account data.", "")
		return
	}

	items := make([]listItem, 0, len(accts))
	for _, a := range accts {
		items = append(items, listItem{
			ID:         a.ID,
			Name:       a.Name,
			NameCI:     a.NameCI,
			City:       a.City,
			State:      a.State,
			Status:     a.Status,
			UsersCount: usersMap[a.ID.Hex()],
		})
	}

	// Build cursors
	prevCur, nextCur := "", ""
	if len(accts) > 0 {
		prevCur = wafflemongo.EncodeCursor(accts[0].NameCI, accts[0].ID)
		nextCur = wafflemongo.EncodeCursor(accts[len(accts)-1].NameCI, accts[len(accts)-1].ID)
	}

	data := listData{
		Title:       "Accounts",
		IsLoggedIn:  true,
		Role:        role,
		UserName:    uname,
		Q:           q,
		Items:       items,
		CurrentPath: httpnav.CurrentPath(r),

		Shown:      shown,
		Total:      total,
		HasPrev:    page.HasPrev,
		HasNext:    page.HasNext,
		PrevCursor: prevCur,
		NextCursor: nextCur,
		RangeStart: rng.Start,
		RangeEnd:   rng.End,
		PrevStart:  rng.PrevStart,
		NextStart:  rng.NextStart,
	}

	// HTMX partial: just the table
	if r.Header.Get("HX-Request") != "" && r.Header.Get("HX-Target") == "accounts-table-wrap" {
		templates.RenderSnippet(w, "accounts_table", data)
		return
	}

	templates.Render(w, r, "accounts_list", data)
}

// countUsersByAccount computes membership counts grouped by account.
func countUsersByAccount(ctx context.Context, db *mongo.Database, ids []primitive.ObjectID) (map[string]int64, error) {
	out := make(map[string]int64)
	if len(ids) == 0 {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"account_id": bson.M{"$in": ids}}}},
		bson.D{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$account_id"},
			{Key: "n", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}

	cur, err := db.Collection("account_users").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID primitive.ObjectID `bson:"_id"`
			N  int64              `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID.Hex()] = row.N
	}
	return out, cur.Err()
}
