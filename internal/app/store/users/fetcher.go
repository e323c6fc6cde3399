package userstore

import (
	"context"

	"github.com/hubworks/accounthub/internal/app/system/auth"
	"github.com/hubworks/accounthub/internal/app/system/normalize"
	"github.com/hubworks/accounthub/internal/app/system/timeouts"
	"github.com/hubworks/accounthub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
// It fetches user, account-membership, and account data from MongoDB.
type Fetcher struct {
	users        *mongo.Collection
	accounts     *mongo.Collection
	accountUsers *mongo.Collection
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{
		users:        db.Collection("users"),
		accounts:     db.Collection("accounts"),
		accountUsers: db.Collection("account_users"),
	}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// disabled, or if any error occurs. This implements auth.UserFetcher.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	// Use a short timeout for the DB query
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":        1,
		"username":   1,
		"first_name": 1,
		"last_name":  1,
		"role":       1,
		"status":     1,
	})

	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		// User not found or DB error
		return nil
	}

	if normalize.Status(u.Status) == "disabled" {
		return nil
	}

	su := &auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.FullName(),
		LoginID: u.Username,
		Role:    normalize.Role(u.Role),
	}

	// Accountusers belong to exactly one account; resolve it through the
	// account_users join so the membership is never stale.
	if su.Role == "accountuser" {
		var au models.AccountUser
		if err := f.accountUsers.FindOne(ctx, bson.M{"user_id": oid}).Decode(&au); err == nil {
			su.AccountID = au.AccountID.Hex()

			var acct models.Account
			acctProj := options.FindOne().SetProjection(bson.M{"name": 1})
			if err := f.accounts.FindOne(ctx, bson.M{"_id": au.AccountID}, acctProj).Decode(&acct); err == nil {
				su.AccountName = acct.Name
			}
			// If account fetch fails, we still return the user with empty account name
		}
	}

	return su
}
