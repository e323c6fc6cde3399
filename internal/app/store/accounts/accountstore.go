// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/hubworks/accounthub/internal/app/system/status"
	"github.com/hubworks/accounthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateAccount = errors.New("an account with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("accounts")}
}

func (s *Store) Create(ctx context.Context, acct models.Account) (models.Account, error) {
	now := time.Now().UTC()
	acct.ID = primitive.NewObjectID()
	acct.NameCI = text.Fold(acct.Name)
	acct.CityCI = text.Fold(acct.City)
	acct.StateCI = text.Fold(acct.State)
	if acct.Status == "" {
		acct.Status = status.Active
	}
	acct.CreatedAt = now
	acct.UpdatedAt = now
	_, err := s.c.InsertOne(ctx, acct)
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrDuplicateAccount
		}
		return models.Account{}, err
	}
	return acct, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Account, error) {
	var acct models.Account
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&acct)
	if err != nil {
		return models.Account{}, err
	}
	return acct, nil
}

// GetByIDs loads multiple accounts by their ObjectIDs.
func (s *Store) GetByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Account, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var accts []models.Account
	if err := cur.All(ctx, &accts); err != nil {
		return nil, err
	}
	return accts, nil
}

// Update modifies an account's mutable fields and refreshes UpdatedAt.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, acct models.Account) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
	}
	if acct.Name != "" {
		set["name"] = acct.Name
		set["name_ci"] = text.Fold(acct.Name)
	}
	if acct.City != "" {
		set["city"] = acct.City
		set["city_ci"] = text.Fold(acct.City)
	}
	if acct.State != "" {
		set["state"] = acct.State
		set["state_ci"] = text.Fold(acct.State)
	}
	if acct.Status != "" {
		set["status"] = acct.Status
	}
	if acct.ContactInfo != "" {
		set["contact_info"] = acct.ContactInfo
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateAccount
		}
		return err
	}
	return nil
}

// Delete removes an account by ID. Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// ExistsByNameCI checks if an account with the given case-insensitive name exists.
func (s *Store) ExistsByNameCI(ctx context.Context, nameCI string) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"name_ci": nameCI}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NameExistsForOther checks if an account with the given name exists, excluding the specified ID.
// This is useful for update validation to ensure uniqueness while allowing the current record to keep its name.
func (s *Store) NameExistsForOther(ctx context.Context, nameCI string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"name_ci": nameCI,
		"_id":     bson.M{"$ne": excludeID},
	}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Find returns accounts matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Account, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var accts []models.Account
	if err := cur.All(ctx, &accts); err != nil {
		return nil, err
	}
	return accts, nil
}

// Count returns the number of accounts matching the given filter.
func (s *Store) Count(ctx context.Context, filter bson.M) (int64, error) {
	return s.c.CountDocuments(ctx, filter)
}
