// internal/domain/models/accountuser.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccountUser is the authoritative join between platform users and accounts.
// Exactly one document per (account_id, user_id); Title carries the
// account-scoped role/profile label.
type AccountUser struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AccountID primitive.ObjectID `bson:"account_id" json:"account_id"`
	UserID    primitive.ObjectID `bson:"user_id" json:"user_id"`
	Title     string             `bson:"title,omitempty" json:"title,omitempty"`
	Status    string             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// DetailPath returns the canonical URL of the account-user's detail page.
func (au AccountUser) DetailPath() string {
	return "/accounts/" + au.AccountID.Hex() + "/users/" + au.ID.Hex() + "/view"
}
