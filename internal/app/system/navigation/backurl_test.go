package navigation

import (
	"net/http/httptest"
	"testing"
)

func TestSafeBackURL_QueryParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/accounts/abc/view?return=/accounts?q=west", nil)

	got := SafeBackURL(r, AccountsBackURL)
	if got != "/accounts?q=west" {
		t.Errorf("SafeBackURL() = %q", got)
	}
}

func TestSafeBackURL_FallbackWhenMissing(t *testing.T) {
	r := httptest.NewRequest("GET", "/accounts/abc/view", nil)

	got := SafeBackURL(r, AccountsBackURL)
	if got != "/accounts" {
		t.Errorf("SafeBackURL() = %q, want fallback /accounts", got)
	}
}

func TestSafeBackURL_RejectsWrongPrefix(t *testing.T) {
	r := httptest.NewRequest("GET", "/accounts/abc/view?return=/profile", nil)

	got := SafeBackURL(r, AccountsBackURL)
	if got != "/accounts" {
		t.Errorf("SafeBackURL() = %q, want fallback for off-prefix return", got)
	}
}

func TestSafeBackURL_RejectsExcludedSubpaths(t *testing.T) {
	for _, ret := range []string{"/accounts/abc/edit", "/accounts/abc/delete", "/accounts/new"} {
		r := httptest.NewRequest("GET", "/accounts/abc/view?return="+ret, nil)
		if got := SafeBackURL(r, AccountsBackURL); got != "/accounts" {
			t.Errorf("return %q: SafeBackURL() = %q, want fallback", ret, got)
		}
	}
}

func TestSafeBackURL_RejectsExternal(t *testing.T) {
	r := httptest.NewRequest("GET", "/accounts/abc/view?return=https://evil.example.com/", nil)

	got := SafeBackURL(r, AccountsBackURL)
	if got != "/accounts" {
		t.Errorf("SafeBackURL() = %q, want fallback for external url", got)
	}
}

func TestSafeBackURL_NoPrefixOption(t *testing.T) {
	r := httptest.NewRequest("GET", "/profile?return=/accounts", nil)

	got := SafeBackURL(r, ProfileBackURL)
	if got != "/accounts" {
		t.Errorf("SafeBackURL() = %q", got)
	}
}

func TestAccountUsersBackURL(t *testing.T) {
	opts := AccountUsersBackURL("abc123")
	if opts.AllowedPrefix != "/accounts/abc123/users" {
		t.Errorf("AllowedPrefix = %q", opts.AllowedPrefix)
	}
	if opts.Fallback != "/accounts/abc123/users" {
		t.Errorf("Fallback = %q", opts.Fallback)
	}

	r := httptest.NewRequest("GET", "/x?return=/accounts/other/users", nil)
	if got := SafeBackURL(r, opts); got != "/accounts/abc123/users" {
		t.Errorf("SafeBackURL() = %q, want fallback for other account", got)
	}
}
