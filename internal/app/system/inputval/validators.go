package inputval

import "strings"

// IsValidEmail reports whether s looks like a deliverable email address.
//
// The check is stricter than a naive regex: dots may not lead, trail, or
// repeat in either part, and whitespace or display-name forms are rejected.
// Single-label domains (user@localhost) are allowed; RFC 5322 permits them
// and they are useful in dev/test environments.
func IsValidEmail(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}

	at := strings.LastIndex(s, "@")
	if at <= 0 || at == len(s)-1 {
		return false
	}

	local, domain := s[:at], s[at+1:]
	return validEmailPart(local) && validEmailPart(domain)
}

// validEmailPart checks one side of the @: no spaces or angle brackets,
// and no leading, trailing, or consecutive dots.
func validEmailPart(part string) bool {
	if part == "" {
		return false
	}
	if strings.HasPrefix(part, ".") || strings.HasSuffix(part, ".") {
		return false
	}
	if strings.Contains(part, "..") {
		return false
	}
	for _, r := range part {
		switch r {
		case ' ', '\t', '<', '>', '@':
			return false
		}
	}
	return true
}

// IsValidUsername reports whether s is an acceptable login username:
// 3-64 characters, letters/digits plus . _ - only.
func IsValidUsername(s string) bool {
	s = strings.TrimSpace(s)
	if len(s) < 3 || len(s) > 64 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
