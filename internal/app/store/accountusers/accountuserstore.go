// internal/app/store/accountusers/accountuserstore.go
package accountuserstore

import (
	"context"
	"errors"
	"time"

	"github.com/hubworks/accounthub/internal/app/system/status"
	"github.com/hubworks/accounthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c        *mongo.Collection
	users    *mongo.Collection
	accounts *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{
		c:        db.Collection("account_users"),
		users:    db.Collection("users"),
		accounts: db.Collection("accounts"),
	}
}

var (
	// ErrDuplicateAccountUser is returned when the user already belongs to the account.
	ErrDuplicateAccountUser = errors.New("user already belongs to this account")
	errBadStatus            = errors.New(`status must be "active"|"disabled"`)
)

// Create adds a user to an account after verifying both exist.
// The (account_id, user_id) pair is unique; a user belongs to at most one account.
func (s *Store) Create(ctx context.Context, au models.AccountUser) (models.AccountUser, error) {
	// Both sides of the join must exist
	if err := s.accounts.FindOne(ctx, bson.M{"_id": au.AccountID}).Err(); err != nil {
		return models.AccountUser{}, err
	}
	if err := s.users.FindOne(ctx, bson.M{"_id": au.UserID}).Err(); err != nil {
		return models.AccountUser{}, err
	}

	if au.Status == "" {
		au.Status = status.Active
	}
	if !status.IsValid(au.Status) {
		return models.AccountUser{}, errBadStatus
	}

	now := time.Now().UTC()
	au.ID = primitive.NewObjectID()
	au.CreatedAt = now
	au.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, au); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AccountUser{}, ErrDuplicateAccountUser
		}
		return models.AccountUser{}, err
	}
	return au, nil
}

// GetByID loads an account-user by ID, scoped to the given account.
// Returns mongo.ErrNoDocuments if the record exists under a different account.
func (s *Store) GetByID(ctx context.Context, accountID, id primitive.ObjectID) (models.AccountUser, error) {
	var au models.AccountUser
	err := s.c.FindOne(ctx, bson.M{"_id": id, "account_id": accountID}).Decode(&au)
	if err != nil {
		return models.AccountUser{}, err
	}
	return au, nil
}

// GetByUserID returns the membership record for a user, if any.
func (s *Store) GetByUserID(ctx context.Context, userID primitive.ObjectID) (models.AccountUser, error) {
	var au models.AccountUser
	err := s.c.FindOne(ctx, bson.M{"user_id": userID}).Decode(&au)
	if err != nil {
		return models.AccountUser{}, err
	}
	return au, nil
}

// Update modifies the mutable fields of an account-user, scoped to the account.
func (s *Store) Update(ctx context.Context, accountID, id primitive.ObjectID, au models.AccountUser) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
		"title":      au.Title,
	}
	if au.Status != "" {
		if !status.IsValid(au.Status) {
			return errBadStatus
		}
		set["status"] = au.Status
	}
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id, "account_id": accountID}, bson.M{"$set": set})
	return err
}

// Delete removes an account-user, scoped to the account.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, accountID, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "account_id": accountID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteByAccount removes all memberships for an account. Used when the
// account itself is deleted so no orphan joins remain.
func (s *Store) DeleteByAccount(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"account_id": accountID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Find returns account-users matching the given filter with optional find options.
// The caller is responsible for building the filter and options (pagination, sorting, projection).
func (s *Store) Find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.AccountUser, error) {
	cur, err := s.c.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var aus []models.AccountUser
	if err := cur.All(ctx, &aus); err != nil {
		return nil, err
	}
	return aus, nil
}

// CountByAccount returns the number of users in an account.
func (s *Store) CountByAccount(ctx context.Context, accountID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"account_id": accountID})
}
