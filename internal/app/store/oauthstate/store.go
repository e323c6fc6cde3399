// internal/app/store/oauthstate/store.go
package oauthstate

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrStateNotFound is returned when a state is missing, expired, or already used.
var ErrStateNotFound = errors.New("oauth state not found")

// stateTTL is how long an OAuth state remains valid.
const stateTTL = 10 * time.Minute

// State is a one-time OAuth state token pending callback.
type State struct {
	State     string    `bson:"state"`
	ReturnURL string    `bson:"return_url,omitempty"`
	CreatedAt time.Time `bson:"created_at"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// Store persists pending OAuth states.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("oauth_states")}
}

// EnsureIndexes creates the unique state index and the TTL expiry index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "state", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_oauth_state"),
		},
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_oauth_state"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// Save stores a new pending state.
func (s *Store) Save(ctx context.Context, state, returnURL string) error {
	now := time.Now().UTC()
	_, err := s.c.InsertOne(ctx, State{
		State:     state,
		ReturnURL: returnURL,
		CreatedAt: now,
		ExpiresAt: now.Add(stateTTL),
	})
	return err
}

// Consume validates and deletes a state in one step. Returns the stored
// return URL, or ErrStateNotFound if the state is unknown or expired.
func (s *Store) Consume(ctx context.Context, state string) (string, error) {
	var doc State
	err := s.c.FindOneAndDelete(ctx, bson.M{
		"state":      state,
		"expires_at": bson.M{"$gt": time.Now().UTC()},
	}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return "", ErrStateNotFound
		}
		return "", err
	}
	return doc.ReturnURL, nil
}
