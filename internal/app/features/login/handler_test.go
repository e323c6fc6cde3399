package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/hubworks/accounthub/internal/app/features/errors"
	"github.com/hubworks/accounthub/internal/app/features/login"
	"github.com/hubworks/accounthub/internal/app/store/audit"
	"github.com/hubworks/accounthub/internal/app/system/auditlog"
	"github.com/hubworks/accounthub/internal/app/system/auth"
	"github.com/hubworks/accounthub/internal/app/system/authutil"
	"github.com/hubworks/accounthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})
	sm, err := auth.NewSessionManager("0123456789abcdef0123456789abcdef", "accounthub_test", "", false, logger)
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	handler := login.NewHandler(db, sm, errLog, auditLogger, false, logger)
	fixtures := testutil.NewFixtures(t, db)
	return handler, fixtures
}

func seedPassword(t *testing.T, fixtures *testutil.Fixtures, username, email, password string) {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateUser(ctx, username, email, "accountuser")
	hash, err := authutil.HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	_, err = fixtures.DB().Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"password_hash": hash}})
	if err != nil {
		t.Fatalf("seed password: %v", err)
	}
}

func postLogin(handler *login.Handler, loginID, password string) *httptest.ResponseRecorder {
	form := url.Values{
		"login_id": {loginID},
		"password": {password},
	}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleLoginPost(rec, req)
	}()
	return rec
}

func TestHandleLoginPost_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)

	seedPassword(t, fixtures, "gooduser", "gooduser@example.com", "correcthorse1")

	rec := postLogin(handler, "gooduser", "correcthorse1")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location: got %q, want %q", loc, "/")
	}
	if len(rec.Result().Cookies()) == 0 {
		t.Error("expected a session cookie to be set")
	}
}

func TestHandleLoginPost_ByEmail(t *testing.T) {
	handler, fixtures := newTestHandler(t)

	seedPassword(t, fixtures, "emailuser", "emailuser@example.com", "correcthorse1")

	rec := postLogin(handler, "EmailUser@Example.COM", "correcthorse1")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
}

func TestHandleLoginPost_WrongPassword(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	seedPassword(t, fixtures, "wrongpw", "wrongpw@example.com", "correcthorse1")

	rec := postLogin(handler, "wrongpw", "nope")

	if rec.Code == http.StatusSeeOther {
		t.Error("expected login to fail, got redirect")
	}

	// A failure audit event should be written
	count, err := fixtures.DB().Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventLoginFailedWrongPassword})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 wrong-password audit event, got %d", count)
	}
}

func TestHandleLoginPost_UnknownUser(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	rec := postLogin(handler, "ghost", "whatever1")

	if rec.Code == http.StatusSeeOther {
		t.Error("expected login to fail, got redirect")
	}

	count, err := fixtures.DB().Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventLoginFailedUserNotFound})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user-not-found audit event, got %d", count)
	}
}

func TestHandleLoginPost_DisabledUser(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	u := fixtures.CreateDisabledUser(ctx, "disabled", "disabled@example.com")
	hash, _ := authutil.HashPassword("correcthorse1")
	if _, err := fixtures.DB().Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"password_hash": hash}}); err != nil {
		t.Fatalf("seed password: %v", err)
	}

	rec := postLogin(handler, "disabled", "correcthorse1")

	if rec.Code == http.StatusSeeOther {
		t.Error("expected disabled user to be rejected, got redirect")
	}

	count, err := fixtures.DB().Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventLoginFailedUserDisabled})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 user-disabled audit event, got %d", count)
	}
}

func TestHandleLoginPost_SafeReturn(t *testing.T) {
	handler, fixtures := newTestHandler(t)

	seedPassword(t, fixtures, "retuser", "retuser@example.com", "correcthorse1")

	form := url.Values{
		"login_id": {"retuser"},
		"password": {"correcthorse1"},
		"return":   {"https://evil.example.com/"},
	}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	handler.HandleLoginPost(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	loc := rec.Header().Get("Location")
	if strings.Contains(loc, "evil.example.com") {
		t.Errorf("unsafe return URL used for redirect: %q", loc)
	}
}
