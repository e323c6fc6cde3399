package home_test

import (
	"net/http/httptest"
	"testing"

	"github.com/hubworks/accounthub/internal/app/features/home"
	"github.com/hubworks/accounthub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) *home.Handler {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return home.NewHandler(db, zap.NewNop())
}

func TestNewHandler(t *testing.T) {
	h := newTestHandler(t)
	if h == nil {
		t.Fatal("NewHandler() returned nil")
	}
}

func TestServeRoot_Unauthenticated(t *testing.T) {
	handler := newTestHandler(t)

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Logf("recovered from panic (expected - template not initialized): %v", r)
			}
		}()
		handler.ServeRoot(rec, req)
	}()
}

func TestServeRoot_Provider(t *testing.T) {
	handler := newTestHandler(t)

	req := testutil.WithUser(httptest.NewRequest("GET", "/", nil), testutil.ProviderUser())
	rec := httptest.NewRecorder()

	func() {
		defer func() {
			if r := recover(); r != nil {
				t.Logf("recovered from panic (expected - template not initialized): %v", r)
			}
		}()
		handler.ServeRoot(rec, req)
	}()
}
