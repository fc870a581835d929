package httputil

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var (
	// externalIDPattern matches IMDb title ids.
	externalIDPattern = regexp.MustCompile(`^tt[0-9]+$`)
)

// ValidateURL checks that a URL is well-formed and uses HTTPS.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("malformed URL: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("only HTTPS URLs are allowed, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL has no host")
	}
	return nil
}

// IsExternalID reports whether s looks like an IMDb title id (e.g. "tt0133093").
func IsExternalID(s string) bool {
	return externalIDPattern.MatchString(strings.TrimSpace(s))
}

// ValidateExternalID checks an IMDb title id before it is placed in a URL.
func ValidateExternalID(id string) error {
	if id == "" {
		return fmt.Errorf("external ID cannot be empty")
	}
	if len(id) > 16 {
		return fmt.Errorf("external ID too long: %d characters", len(id))
	}
	if !externalIDPattern.MatchString(id) {
		return fmt.Errorf("expected an IMDb id like tt0133093, got %q", id)
	}
	return nil
}

// BuildURL constructs a URL from base and path components, encoding each path
// segment, and appends the given query parameters.
func BuildURL(base string, query url.Values, pathSegments ...string) string {
	u := strings.TrimRight(base, "/")
	for _, seg := range pathSegments {
		u += "/" + url.PathEscape(seg)
	}
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}
