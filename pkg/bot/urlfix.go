// Copyright 2024-2026 Aiku AI

package bot

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL validates a user-entered URL, fixing up common shorthand
// forms instead of rejecting them:
//
//   - "@user:server" becomes a matrix.to profile link
//   - "matrix.to/..." gets the https scheme
//   - any value without a scheme gets "https://" prefixed
//
// A value that still has no host after fixing is a validation error.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty URL", ErrValidation)
	}

	if strings.HasPrefix(raw, "@") && strings.Contains(raw, ":") {
		return "https://matrix.to/#/" + raw, nil
	}
	if strings.HasPrefix(raw, "matrix.to/") {
		raw = "https://" + raw
	}
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}

	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return "", fmt.Errorf("%w: not a valid URL: %s", ErrValidation, raw)
	}
	return raw, nil
}

// LooksLikeURL reports whether a free-text value should go through URL
// normalization before storage. Plain text (a service name, a phrase)
// is stored as-is.
func LooksLikeURL(value string) bool {
	if strings.ContainsAny(value, " \t\n") {
		return false
	}
	if strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://") {
		return true
	}
	if strings.HasPrefix(value, "@") && strings.Contains(value, ":") {
		return true
	}
	// A dotted host like "example.com" or "example.com/path".
	host, _, _ := strings.Cut(value, "/")
	return strings.Contains(host, ".") && !strings.HasSuffix(host, ".")
}
