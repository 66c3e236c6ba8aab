package domain

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a raw URL into a reputation lookup key: the
// lowercase hostname with any "www." prefix stripped. URLs differing only in
// scheme, path, query, or a "www." prefix map to the same key.
//
// Normalize never fails; malformed input yields a best-effort (possibly
// empty) key, which callers must treat as an unknown domain.
func Normalize(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}

	parsed, err := url.Parse(NormalizeURL(rawURL))
	if err != nil {
		return ""
	}

	host := strings.ToLower(strings.TrimSpace(parsed.Hostname()))
	return strings.TrimPrefix(host, "www.")
}

// NormalizeURL trims the input and prepends "https://" when no scheme is
// present, so the result is always addressable by an HTTP client.
func NormalizeURL(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		rawURL = "https://" + rawURL
	}
	return rawURL
}
