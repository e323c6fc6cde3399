package htmlsanitize

import (
	"strings"
	"testing"
)

func TestSanitize_RemovesScripts(t *testing.T) {
	in := `<p>Call us</p><script>alert("x")</script>`
	got := Sanitize(in)

	if strings.Contains(got, "script") || strings.Contains(got, "alert") {
		t.Errorf("script survived sanitization: %q", got)
	}
	if !strings.Contains(got, "<p>Call us</p>") {
		t.Errorf("benign markup was stripped: %q", got)
	}
}

func TestSanitize_RemovesEventHandlers(t *testing.T) {
	got := Sanitize(`<a href="https://example.com" onclick="steal()">site</a>`)

	if strings.Contains(got, "onclick") {
		t.Errorf("event handler survived: %q", got)
	}
	if !strings.Contains(got, "example.com") {
		t.Errorf("link target lost: %q", got)
	}
}

func TestSanitize_KeepsLists(t *testing.T) {
	got := Sanitize("<ul><li>Mon 9-5</li><li>Tue 9-5</li></ul>")
	if !strings.Contains(got, "<li>Mon 9-5</li>") {
		t.Errorf("list markup stripped: %q", got)
	}
}

func TestStripTags(t *testing.T) {
	got := StripTags(`<b>Regional</b> <script>x()</script>Manager`)
	if got != "Regional Manager" {
		t.Errorf("StripTags() = %q, want %q", got, "Regional Manager")
	}
}

func TestStripTags_PlainTextUntouched(t *testing.T) {
	if got := StripTags("Site Coordinator"); got != "Site Coordinator" {
		t.Errorf("StripTags() = %q", got)
	}
}
