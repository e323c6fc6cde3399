package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/hubworks/accounthub/internal/app/system/indexes"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// defaultTestURI is used when ACCOUNTHUB_TEST_MONGO_URI is not set.
const defaultTestURI = "mongodb://localhost:27017"

// SetupTestDB connects to a local MongoDB and returns a database unique to
// this test. The test is skipped if no MongoDB is reachable, so store and
// handler tests only run where a database is available. The database is
// dropped when the test finishes.
func SetupTestDB(t *testing.T) *mongo.Database {
	t.Helper()

	uri := os.Getenv("ACCOUNTHUB_TEST_MONGO_URI")
	if uri == "" {
		uri = defaultTestURI
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Skipf("skipping: cannot connect to test MongoDB at %s: %v", uri, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("skipping: test MongoDB at %s not reachable: %v", uri, err)
	}

	dbName := fmt.Sprintf("accounthub_test_%d", time.Now().UnixNano())
	db := client.Database(dbName)

	// Unique-constraint behavior in store tests depends on the real indexes.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("failed to ensure test indexes: %v", err)
	}

	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = db.Drop(ctx)
		_ = client.Disconnect(ctx)
	})

	return db
}

// TestContext returns a context with a timeout suitable for test DB operations.
func TestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}
