// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// DefaultSiteName is used when no site name has been configured.
const DefaultSiteName = "AccountHub"

// User is a platform identity. Providers manage accounts; accountusers
// belong to exactly one account (see AccountUser for the join).
//
// NOTE:
//   - Account membership is not embedded on User.
//     Use the account_users collection to discover a user's account.
type User struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username   string             `bson:"username" json:"username"`
	UsernameCI string             `bson:"username_ci" json:"username_ci"` // lowercase, diacritics-stripped
	FirstName  string             `bson:"first_name" json:"first_name"`
	LastName   string             `bson:"last_name" json:"last_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"`
	Email      string             `bson:"email" json:"email"`
	EmailCI    string             `bson:"email_ci" json:"email_ci"`

	// PasswordHash is nil for users who sign in with an external method.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`
	AuthMethod   string  `bson:"auth_method,omitempty" json:"auth_method,omitempty"` // password | google
	// AuthReturnID links the user to an external identity (Google subject ID).
	AuthReturnID *string `bson:"auth_return_id,omitempty" json:"-"`

	Role   string `bson:"role" json:"role"` // provider | accountuser
	Status string `bson:"status,omitempty" json:"status,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// FullName returns the display name assembled from first and last name,
// falling back to the username when both are empty.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "":
		return u.FirstName
	case u.LastName != "":
		return u.LastName
	default:
		return u.Username
	}
}
