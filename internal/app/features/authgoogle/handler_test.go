package authgoogle_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hubworks/accounthub/internal/app/features/authgoogle"
	"github.com/hubworks/accounthub/internal/app/store/oauthstate"
	"github.com/hubworks/accounthub/internal/app/system/auth"
	"github.com/hubworks/accounthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newHandlerWithDB(t *testing.T, clientID, clientSecret string) (*authgoogle.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	sessionMgr, err := auth.NewSessionManager("test-session-key-for-testing-only", "test-session", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}

	h := authgoogle.NewHandler(
		db,
		sessionMgr,
		nil, // audit logger is nil-safe
		oauthstate.New(db),
		clientID,
		clientSecret,
		"http://localhost:8080",
		logger,
	)
	return h, db
}

func newTestHandler(t *testing.T) *authgoogle.Handler {
	t.Helper()
	h, _ := newHandlerWithDB(t, "test-client-id", "test-client-secret")
	return h
}

func TestIsConfigured_Configured(t *testing.T) {
	h := newTestHandler(t)
	if !h.IsConfigured() {
		t.Error("IsConfigured() should return true with client ID and secret")
	}
}

func TestIsConfigured_NotConfigured(t *testing.T) {
	h, _ := newHandlerWithDB(t, "", "")
	if h.IsConfigured() {
		t.Error("IsConfigured() should return false without client ID and secret")
	}
}

func TestServeLogin_NotConfigured(t *testing.T) {
	h, _ := newHandlerWithDB(t, "", "")

	req := httptest.NewRequest("GET", "/auth/google", nil)
	rec := httptest.NewRecorder()

	h.ServeLogin(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "google_not_configured") {
		t.Errorf("Location = %q, want to contain 'google_not_configured'", location)
	}
}

func TestServeLogin_RedirectsToGoogle(t *testing.T) {
	h, db := newHandlerWithDB(t, "test-client-id", "test-client-secret")

	req := httptest.NewRequest("GET", "/auth/google?return=/accounts", nil)
	rec := httptest.NewRecorder()

	h.ServeLogin(rec, req)

	if rec.Code != http.StatusTemporaryRedirect {
		t.Errorf("expected status %d, got %d", http.StatusTemporaryRedirect, rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "accounts.google.com") {
		t.Errorf("Location = %q, want to contain 'accounts.google.com'", location)
	}

	// The pending state must be persisted with the return URL.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := db.Collection("oauth_states").CountDocuments(ctx, bson.M{"return_url": "/accounts"})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("oauth_states count = %d, want 1", count)
	}
}

func TestServeCallback_MissingState(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback?code=test-code", nil)
	rec := httptest.NewRecorder()

	h.ServeCallback(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "invalid_state") {
		t.Errorf("Location = %q, want to contain 'invalid_state'", location)
	}
}

func TestServeCallback_GoogleError(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback?error=access_denied", nil)
	rec := httptest.NewRecorder()

	h.ServeCallback(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "google_denied") {
		t.Errorf("Location = %q, want to contain 'google_denied'", location)
	}
}

func TestServeCallback_InvalidState(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest("GET", "/auth/google/callback?state=invalid-state&code=test-code", nil)
	rec := httptest.NewRecorder()

	h.ServeCallback(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	location := rec.Header().Get("Location")
	if !strings.Contains(location, "invalid_state") {
		t.Errorf("Location = %q, want to contain 'invalid_state'", location)
	}
}

func TestServeCallback_StateIsSingleUse(t *testing.T) {
	h, db := newHandlerWithDB(t, "test-client-id", "test-client-secret")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	states := oauthstate.New(db)
	if err := states.Save(ctx, "one-shot-state", "/"); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	// First use consumes the state; the code exchange then fails against the
	// real endpoint and redirects with token_exchange.
	req := httptest.NewRequest("GET", "/auth/google/callback?state=one-shot-state&code=bogus", nil)
	rec := httptest.NewRecorder()
	h.ServeCallback(rec, req)

	location := rec.Header().Get("Location")
	if !strings.Contains(location, "token_exchange") {
		t.Errorf("first use: Location = %q, want to contain 'token_exchange'", location)
	}

	// Second use of the same state must be rejected.
	req = httptest.NewRequest("GET", "/auth/google/callback?state=one-shot-state&code=bogus", nil)
	rec = httptest.NewRecorder()
	h.ServeCallback(rec, req)

	location = rec.Header().Get("Location")
	if !strings.Contains(location, "invalid_state") {
		t.Errorf("second use: Location = %q, want to contain 'invalid_state'", location)
	}
}

func TestRoutes(t *testing.T) {
	h := newTestHandler(t)
	if authgoogle.Routes(h) == nil {
		t.Fatal("Routes() returned nil")
	}
}
