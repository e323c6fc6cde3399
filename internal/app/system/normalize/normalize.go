// Package normalize provides canonical forms for user-entered identity
// fields so lookups and uniqueness checks behave consistently.
package normalize

import (
	"strings"

	"github.com/hubworks/accounthub/internal/app/system/status"
)

// Email lowercases and trims an email address. Empty or whitespace-only
// input returns "".
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Username lowercases and trims a login username.
func Username(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Name trims a display name and collapses internal runs of whitespace
// to a single space.
func Name(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Role lowercases and trims a role value.
func Role(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Status lowercases and trims a status value, defaulting unknown values
// to active so legacy records remain usable.
func Status(s string) string {
	v := strings.ToLower(strings.TrimSpace(s))
	if !status.IsValid(v) {
		return status.Active
	}
	return v
}
