package accounts_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/hubworks/accounthub/internal/app/features/accounts"
	uierrors "github.com/hubworks/accounthub/internal/app/features/errors"
	"github.com/hubworks/accounthub/internal/app/store/audit"
	"github.com/hubworks/accounthub/internal/app/system/auditlog"
	"github.com/hubworks/accounthub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*accounts.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	errLog := uierrors.NewErrorLogger(logger)
	auditLogger := auditlog.New(audit.New(db), logger, auditlog.Config{Auth: "db", Admin: "db"})
	handler := accounts.NewHandler(db, errLog, auditLogger, logger)
	fixtures := testutil.NewFixtures(t, db)
	return handler, fixtures
}

func providerRequest(r *http.Request) *http.Request {
	return testutil.WithUser(r, testutil.ProviderUser())
}

func TestHandleCreate_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	db := fixtures.DB()

	form := url.Values{
		"name":         {"Test Account"},
		"city":         {"New York"},
		"state":        {"NY"},
		"contact_info": {"<p>contact@example.com</p>"},
	}

	req := httptest.NewRequest("POST", "/accounts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = providerRequest(req)

	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	// Should redirect to the new account's detail page
	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	loc := rec.Header().Get("Location")
	if !strings.HasPrefix(loc, "/accounts/") || !strings.HasSuffix(loc, "/view") {
		t.Errorf("expected redirect to account detail page, got %q", loc)
	}

	// Verify account was created in database
	count, err := db.Collection("accounts").CountDocuments(ctx, bson.M{"name": "Test Account"})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 account, got %d", count)
	}

	// Admin audit event should be written
	auditCount, err := db.Collection("audit_events").CountDocuments(ctx, bson.M{"event_type": audit.EventAccountCreated})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if auditCount != 1 {
		t.Errorf("expected 1 account_created audit event, got %d", auditCount)
	}
}

func TestHandleCreate_MissingRequiredField(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	db := fixtures.DB()

	// Missing name (required field)
	form := url.Values{
		"city":  {"New York"},
		"state": {"NY"},
	}

	req := httptest.NewRequest("POST", "/accounts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = providerRequest(req)

	rec := httptest.NewRecorder()

	// This will try to render a template on error, which may panic or fail
	// We use recover to catch any panics and check that no account was created
	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Logf("recovered from panic (expected - template not initialized): %v", r)
			}
		}()
		handler.HandleCreate(rec, req)
	}()

	count, err := db.Collection("accounts").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected 0 accounts (validation should fail), got %d", count)
	}
}

func TestHandleCreate_CaseInsensitiveDuplicate(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	db := fixtures.DB()

	fixtures.CreateAccount(ctx, "Test Account")

	// Try to create with different case
	form := url.Values{
		"name":  {"TEST ACCOUNT"},
		"city":  {"Boston"},
		"state": {"MA"},
	}

	req := httptest.NewRequest("POST", "/accounts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = providerRequest(req)

	rec := httptest.NewRecorder()

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Logf("recovered from panic (expected - template not initialized): %v", r)
			}
		}()
		handler.HandleCreate(rec, req)
	}()

	count, err := db.Collection("accounts").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 account (case-insensitive duplicate rejected), got %d", count)
	}
}

func TestHandleCreate_SanitizesContactInfo(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	db := fixtures.DB()

	form := url.Values{
		"name":         {"Script Account"},
		"contact_info": {`<p>ok</p><script>alert("x")</script>`},
	}

	req := httptest.NewRequest("POST", "/accounts", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = providerRequest(req)

	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, req)

	var acct struct {
		ContactInfo string `bson:"contact_info"`
	}
	if err := db.Collection("accounts").FindOne(ctx, bson.M{"name": "Script Account"}).Decode(&acct); err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if strings.Contains(acct.ContactInfo, "<script") {
		t.Errorf("contact_info not sanitized: %q", acct.ContactInfo)
	}
	if !strings.Contains(acct.ContactInfo, "<p>ok</p>") {
		t.Errorf("allowed markup stripped: %q", acct.ContactInfo)
	}
}

func TestHandleEdit_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	db := fixtures.DB()

	acct := fixtures.CreateAccount(ctx, "Original Name")

	form := url.Values{
		"name":   {"Updated Name"},
		"city":   {"Boston"},
		"state":  {"MA"},
		"status": {"disabled"},
	}

	req := httptest.NewRequest("POST", "/accounts/"+acct.ID.Hex()+"/edit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithChiURLParam(req, "id", acct.ID.Hex())
	req = providerRequest(req)

	rec := httptest.NewRecorder()
	handler.HandleEdit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	var updated struct {
		Name   string `bson:"name"`
		City   string `bson:"city"`
		Status string `bson:"status"`
	}
	err := db.Collection("accounts").FindOne(ctx, bson.M{"_id": acct.ID}).Decode(&updated)
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if updated.Name != "Updated Name" {
		t.Errorf("Name: got %q, want %q", updated.Name, "Updated Name")
	}
	if updated.City != "Boston" {
		t.Errorf("City: got %q, want %q", updated.City, "Boston")
	}
	if updated.Status != "disabled" {
		t.Errorf("Status: got %q, want %q", updated.Status, "disabled")
	}
}

func TestHandleEdit_DuplicateName(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	db := fixtures.DB()

	fixtures.CreateAccount(ctx, "First Account")
	acct2 := fixtures.CreateAccount(ctx, "Second Account")

	// Try to rename acct2 to "First Account" (should fail)
	form := url.Values{
		"name":  {"First Account"},
		"city":  {"Boston"},
		"state": {"MA"},
	}

	req := httptest.NewRequest("POST", "/accounts/"+acct2.ID.Hex()+"/edit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithChiURLParam(req, "id", acct2.ID.Hex())
	req = providerRequest(req)

	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleEdit(rec, req)
	}()

	var acct struct {
		Name string `bson:"name"`
	}
	err := db.Collection("accounts").FindOne(ctx, bson.M{"_id": acct2.ID}).Decode(&acct)
	if err != nil {
		t.Fatalf("FindOne failed: %v", err)
	}
	if acct.Name != "Second Account" {
		t.Errorf("Name should be unchanged: got %q, want %q", acct.Name, "Second Account")
	}
}

func TestHandleEdit_InvalidID(t *testing.T) {
	handler, _ := newTestHandler(t)

	form := url.Values{
		"name": {"Updated Name"},
	}

	req := httptest.NewRequest("POST", "/accounts/invalid-id/edit", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = testutil.WithChiURLParam(req, "id", "invalid-id")
	req = providerRequest(req)

	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleEdit(rec, req)
	}()

	if rec.Code == http.StatusSeeOther {
		t.Error("expected error response for invalid ID, got redirect")
	}
}

func TestHandleDelete_Success(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	db := fixtures.DB()

	acct := fixtures.CreateAccount(ctx, "To Be Deleted")

	req := httptest.NewRequest("POST", "/accounts/"+acct.ID.Hex()+"/delete", nil)
	req = testutil.WithChiURLParam(req, "id", acct.ID.Hex())
	req = providerRequest(req)

	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	count, err := db.Collection("accounts").CountDocuments(ctx, bson.M{"_id": acct.ID})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if count != 0 {
		t.Errorf("expected account to be deleted, but found %d", count)
	}
}

func TestHandleDelete_CascadeDeletesMemberships(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	db := fixtures.DB()

	acct := fixtures.CreateAccount(ctx, "Account With Users")
	fixtures.CreateMemberWithAccount(ctx, "member1", "member1@example.com", acct.ID)
	fixtures.CreateMemberWithAccount(ctx, "member2", "member2@example.com", acct.ID)

	auCount, _ := db.Collection("account_users").CountDocuments(ctx, bson.M{"account_id": acct.ID})
	if auCount != 2 {
		t.Fatalf("expected 2 memberships before delete, got %d", auCount)
	}

	req := httptest.NewRequest("POST", "/accounts/"+acct.ID.Hex()+"/delete", nil)
	req = testutil.WithChiURLParam(req, "id", acct.ID.Hex())
	req = providerRequest(req)

	rec := httptest.NewRecorder()
	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}

	auCount, _ = db.Collection("account_users").CountDocuments(ctx, bson.M{"account_id": acct.ID})
	if auCount != 0 {
		t.Errorf("expected 0 memberships after cascade delete, got %d", auCount)
	}
	acctCount, _ := db.Collection("accounts").CountDocuments(ctx, bson.M{"_id": acct.ID})
	if acctCount != 0 {
		t.Errorf("expected 0 accounts after delete, got %d", acctCount)
	}
}

func TestHandleDelete_InvalidID(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := httptest.NewRequest("POST", "/accounts/invalid-id/delete", nil)
	req = testutil.WithChiURLParam(req, "id", "invalid-id")
	req = providerRequest(req)

	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleDelete(rec, req)
	}()

	if rec.Code == http.StatusSeeOther {
		t.Error("expected error response for invalid ID, got redirect")
	}
}

func TestServeList_AccountUserRedirectsToOwnAccount(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	acct := fixtures.CreateAccount(ctx, "Member Account")

	req := httptest.NewRequest("GET", "/accounts", nil)
	req = testutil.WithUser(req, testutil.AccountUserUser(acct.ID))

	rec := httptest.NewRecorder()
	handler.ServeList(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("expected status %d, got %d", http.StatusSeeOther, rec.Code)
	}
	want := "/accounts/" + acct.ID.Hex() + "/view"
	if loc := rec.Header().Get("Location"); loc != want {
		t.Errorf("Location: got %q, want %q", loc, want)
	}
}
