// Package htmlsanitize wraps bluemonday policies for the two kinds of
// user-entered rich text we store: contact blocks (limited markup allowed)
// and plain fields (all markup stripped).
package htmlsanitize

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// ugc allows the limited markup reasonable in account contact info:
	// links, emphasis, lists, line breaks. Scripts, styles, and event
	// handlers are removed.
	ugc = bluemonday.UGCPolicy()

	// strict strips every tag, leaving text content only.
	strict = bluemonday.StrictPolicy()
)

// Sanitize cleans a rich-text field for storage and later rendering.
func Sanitize(s string) string {
	return strings.TrimSpace(ugc.Sanitize(s))
}

// StripTags removes all markup from a plain-text field.
func StripTags(s string) string {
	return strings.TrimSpace(strict.Sanitize(s))
}
