// internal/domain/models/account.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account is a tenant/organization entity owning a set of account users.
// Includes case/diacritic-insensitive fields for search/sort.
type Account struct {
	ID          primitive.ObjectID `bson:"_id"`
	Name        string             `bson:"name"`
	NameCI      string             `bson:"name_ci"` // ← always stored
	City        string             `bson:"city"`
	CityCI      string             `bson:"city_ci"` // ← always stored
	State       string             `bson:"state"`
	StateCI     string             `bson:"state_ci"` // ← always stored
	ContactInfo string             `bson:"contact_info"` // sanitized HTML
	Status      string             `bson:"status"`

	// ProviderID records the provider user that created the account.
	ProviderID primitive.ObjectID `bson:"provider_id"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// DetailPath returns the canonical URL of the account's detail page.
func (a Account) DetailPath() string {
	return "/accounts/" + a.ID.Hex() + "/view"
}
