package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/hubworks/accounthub/internal/app/system/normalize"
	"github.com/hubworks/accounthub/internal/app/system/status"
	"github.com/hubworks/accounthub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrDuplicateUsername is returned when attempting to create a user with a username that already exists.
	ErrDuplicateUsername = errors.New("a user with this username already exists")
	errBadRole           = errors.New(`role must be "provider"|"accountuser"`)
	errBadStatus         = errors.New(`status must be "active"|"disabled"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": text.Fold(normalize.Email(email))}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByUsername looks up a user by case-insensitive username. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"username_ci": text.Fold(normalize.Username(username))}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByAuthReturnID looks up a user by their external identity subject ID.
func (s *Store) GetByAuthReturnID(ctx context.Context, subject string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"auth_return_id": subject}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	// Normalize core fields
	u.ID = primitive.NewObjectID()
	u.Username = normalize.Username(u.Username)
	u.UsernameCI = text.Fold(u.Username)
	u.FirstName = normalize.Name(u.FirstName)
	u.LastName = normalize.Name(u.LastName)
	u.FullNameCI = text.Fold(u.FullName())
	u.Email = normalize.Email(u.Email)
	u.EmailCI = text.Fold(u.Email)
	if u.Status == "" {
		u.Status = status.Active
	}

	// Validate role
	switch u.Role {
	case "provider", "accountuser":
		// ok
	default:
		return models.User{}, errBadRole
	}

	// Validate status
	if !status.IsValid(u.Status) {
		return models.User{}, errBadStatus
	}

	// Timestamps
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, s.classifyDup(ctx, u)
		}
		return models.User{}, err
	}
	return u, nil
}

// classifyDup decides which unique index a duplicate-key error came from
// so the caller can show the right message.
func (s *Store) classifyDup(ctx context.Context, u models.User) error {
	err := s.c.FindOne(ctx, bson.M{
		"username_ci": u.UsernameCI,
		"_id":         bson.M{"$ne": u.ID},
	}).Err()
	if err == nil {
		return ErrDuplicateUsername
	}
	return ErrDuplicateEmail
}

// ProfileUpdate holds the profile fields a user can change about themselves.
type ProfileUpdate struct {
	Username  string
	FirstName string
	LastName  string
	Email     string
}

// UpdateProfile updates a user's own profile fields.
// Returns ErrDuplicateEmail or ErrDuplicateUsername on unique-index conflicts.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, upd ProfileUpdate) error {
	username := normalize.Username(upd.Username)
	first := normalize.Name(upd.FirstName)
	last := normalize.Name(upd.LastName)
	fullName := first
	if last != "" {
		if fullName != "" {
			fullName += " "
		}
		fullName += last
	}
	email := normalize.Email(upd.Email)

	set := bson.M{
		"username":     username,
		"username_ci":  text.Fold(username),
		"first_name":   first,
		"last_name":    last,
		"full_name_ci": text.Fold(fullName),
		"email":        email,
		"email_ci":     text.Fold(email),
		"updated_at":   time.Now(),
	}

	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return s.classifyDup(ctx, models.User{ID: id, UsernameCI: text.Fold(username)})
		}
		return err
	}
	return nil
}

// UpdatePassword replaces a user's password hash and marks them as a
// password-auth user.
func (s *Store) UpdatePassword(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"password_hash": hash,
		"auth_method":   "password",
		"updated_at":    time.Now(),
	}})
	return err
}

// LinkAuthReturnID records the external identity subject ID for a user
// after their first successful federated sign-in.
func (s *Store) LinkAuthReturnID(ctx context.Context, id primitive.ObjectID, subject string) error {
	_, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"auth_return_id": subject,
		"updated_at":     time.Now(),
	}})
	return err
}

// EmailExistsForOther checks if an email already exists for a user other than the given ID.
func (s *Store) EmailExistsForOther(ctx context.Context, email string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"email_ci": text.Fold(normalize.Email(email)),
		"_id":      bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil // found another user with this email
	}
	if err == mongo.ErrNoDocuments {
		return false, nil // no duplicate
	}
	return false, err // actual error
}

// UsernameExistsForOther checks if a username already exists for a user other than the given ID.
func (s *Store) UsernameExistsForOther(ctx context.Context, username string, excludeID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{
		"username_ci": text.Fold(normalize.Username(username)),
		"_id":         bson.M{"$ne": excludeID},
	}).Err()
	if err == nil {
		return true, nil
	}
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	return false, err
}
