// Package security masks credentials before they reach logs or the
// terminal and cleans user-supplied text.
package security

import (
	"net/url"
	"strings"
	"unicode"
)

// MaxQueryLen caps the length of a stock query taken from a request or the
// command line.
const MaxQueryLen = 64

// MaskCredential masks a credential value for logging.
func MaskCredential(value string) string {
	if len(value) == 0 {
		return ""
	}
	if len(value) <= 4 {
		return strings.Repeat("*", len(value))
	}
	if len(value) <= 8 {
		return value[:2] + strings.Repeat("*", len(value)-2)
	}
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}

// RedactURL hides the password of a URL such as an authenticated proxy.
// Text that does not parse as a URL is masked whole.
func RedactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return MaskCredential(raw)
	}
	return u.Redacted()
}

// SanitizeQuery trims a stock query, drops control characters and caps its
// length. Queries end up in log lines and validation messages.
func SanitizeQuery(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range strings.TrimSpace(query) {
		if unicode.IsControl(r) {
			continue
		}
		if n == MaxQueryLen {
			break
		}
		b.WriteRune(r)
		n++
	}
	return strings.TrimSpace(b.String())
}
