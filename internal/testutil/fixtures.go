package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/hubworks/accounthub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
// Calls stack: an existing route context on the request is reused.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx, ok := r.Context().Value(chi.RouteCtxKey).(*chi.Context)
	if !ok || rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateAccount creates a test account with the given name.
// Returns the created account with its generated ID.
func (f *Fixtures) CreateAccount(ctx context.Context, name string) models.Account {
	f.t.Helper()

	now := time.Now().UTC()
	acct := models.Account{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		City:      "Test City",
		CityCI:    text.Fold("Test City"),
		State:     "TS",
		StateCI:   text.Fold("TS"),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("accounts").InsertOne(ctx, acct)
	if err != nil {
		f.t.Fatalf("failed to create test account: %v", err)
	}

	return acct
}

// CreateUser creates a test user with the given parameters.
func (f *Fixtures) CreateUser(ctx context.Context, username, email, role string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Username:   username,
		UsernameCI: text.Fold(username),
		FirstName:  "Test",
		LastName:   "User",
		FullNameCI: text.Fold("Test User"),
		Email:      email,
		EmailCI:    text.Fold(email),
		AuthMethod: "password",
		Role:       role,
		Status:     "active",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	return user
}

// CreateProvider creates a test provider user.
func (f *Fixtures) CreateProvider(ctx context.Context, username, email string) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, username, email, "provider")
}

// CreateDisabledUser creates a test user with disabled status.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, username, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:         primitive.NewObjectID(),
		Username:   username,
		UsernameCI: text.Fold(username),
		Email:      email,
		EmailCI:    text.Fold(email),
		AuthMethod: "password",
		Role:       "accountuser",
		Status:     "disabled",
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := f.db.Collection("users").InsertOne(ctx, user)
	if err != nil {
		f.t.Fatalf("failed to create disabled test user: %v", err)
	}

	return user
}

// CreateAccountUser creates a membership record linking a user to an account.
func (f *Fixtures) CreateAccountUser(ctx context.Context, accountID, userID primitive.ObjectID, title string) models.AccountUser {
	f.t.Helper()

	now := time.Now().UTC()
	au := models.AccountUser{
		ID:        primitive.NewObjectID(),
		AccountID: accountID,
		UserID:    userID,
		Title:     title,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := f.db.Collection("account_users").InsertOne(ctx, au)
	if err != nil {
		f.t.Fatalf("failed to create test account user: %v", err)
	}

	return au
}

// CreateMemberWithAccount creates an accountuser-role user plus their
// membership record in one call. Returns both.
func (f *Fixtures) CreateMemberWithAccount(ctx context.Context, username, email string, accountID primitive.ObjectID) (models.User, models.AccountUser) {
	f.t.Helper()
	user := f.CreateUser(ctx, username, email, "accountuser")
	au := f.CreateAccountUser(ctx, accountID, user.ID, "Member")
	return user, au
}
