// internal/app/system/authz/authz.go
package authz

import (
	"net/http"
	"strings"

	"github.com/hubworks/accounthub/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the user's role (lowercased), name, Mongo ObjectID, and a
// found flag. If no user is present in context or the user ID is malformed,
// it returns "visitor", "", NilObjectID, false. This ensures callers can
// trust that ok=true means a valid, authenticated user with a valid ObjectID.
func UserCtx(r *http.Request) (role string, name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "visitor", "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		// Malformed user ID in session - fail closed for security.
		return "visitor", "", primitive.NilObjectID, false
	}
	return strings.ToLower(user.Role), user.Name, userID, true
}

// IsProvider reports whether the current request's user is a provider.
func IsProvider(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "provider"
}

// IsAccountUser reports whether the current request's user is an accountuser.
func IsAccountUser(r *http.Request) bool {
	role, _, _, ok := UserCtx(r)
	return ok && role == "accountuser"
}

// UserAccountID returns the current user's account ID as an ObjectID.
// Returns NilObjectID if the user is not logged in or has no account.
func UserAccountID(r *http.Request) primitive.ObjectID {
	user, ok := auth.CurrentUser(r)
	if !ok || user.AccountID == "" {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(user.AccountID)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}

// CanAccessAccount reports whether the current user can access the given
// account. Providers can access all accounts; accountusers only their own.
func CanAccessAccount(r *http.Request, accountID primitive.ObjectID) bool {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return false
	}

	role := strings.ToLower(user.Role)

	if role == "provider" {
		return true
	}

	if role == "accountuser" {
		if user.AccountID == "" {
			return false
		}
		userAccID, err := primitive.ObjectIDFromHex(user.AccountID)
		if err != nil {
			return false
		}
		return userAccID == accountID
	}

	return false
}
