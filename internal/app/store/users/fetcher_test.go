package userstore_test

import (
	"context"
	"testing"

	userstore "github.com/hubworks/accounthub/internal/app/store/users"
	"github.com/hubworks/accounthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestFetcher_FetchUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := userstore.NewFetcher(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateProvider(ctx, "provider", "provider@example.com")

	su := fetcher.FetchUser(context.Background(), user.ID.Hex())
	if su == nil {
		t.Fatal("expected session user, got nil")
	}
	if su.Role != "provider" {
		t.Errorf("Role: got %q, want %q", su.Role, "provider")
	}
	if su.LoginID != "provider" {
		t.Errorf("LoginID: got %q, want %q", su.LoginID, "provider")
	}
	if su.AccountID != "" {
		t.Errorf("expected empty AccountID for provider, got %q", su.AccountID)
	}
}

func TestFetcher_FetchUser_ResolvesAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := userstore.NewFetcher(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct := fixtures.CreateAccount(ctx, "Fetcher Account")
	user, _ := fixtures.CreateMemberWithAccount(ctx, "jdoe", "jdoe@example.com", acct.ID)

	su := fetcher.FetchUser(context.Background(), user.ID.Hex())
	if su == nil {
		t.Fatal("expected session user, got nil")
	}
	if su.AccountID != acct.ID.Hex() {
		t.Errorf("AccountID: got %q, want %q", su.AccountID, acct.ID.Hex())
	}
	if su.AccountName != "Fetcher Account" {
		t.Errorf("AccountName: got %q, want %q", su.AccountName, "Fetcher Account")
	}
}

func TestFetcher_FetchUser_Disabled(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := userstore.NewFetcher(db)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	user := fixtures.CreateDisabledUser(ctx, "disabled", "disabled@example.com")

	su := fetcher.FetchUser(context.Background(), user.ID.Hex())
	if su != nil {
		t.Error("expected nil for disabled user")
	}
}

func TestFetcher_FetchUser_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := userstore.NewFetcher(db)

	su := fetcher.FetchUser(context.Background(), primitive.NewObjectID().Hex())
	if su != nil {
		t.Error("expected nil for unknown user")
	}
}

func TestFetcher_FetchUser_BadID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fetcher := userstore.NewFetcher(db)

	su := fetcher.FetchUser(context.Background(), "not-a-hex-id")
	if su != nil {
		t.Error("expected nil for malformed id")
	}
}
