package urls

import (
	"fmt"
	"net/url"
	"strings"
)

// Resolve turns href into an absolute URL using base, dropping any fragment.
// Absolute hrefs are returned as-is (minus fragment).
func Resolve(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", fmt.Errorf("empty href")
	}

	parsed, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("parse href %q: %w", href, err)
	}
	parsed.Fragment = ""

	if parsed.IsAbs() {
		return parsed.String(), nil
	}

	if base == nil || !base.IsAbs() {
		return "", fmt.Errorf("cannot resolve relative href %q without an absolute base", href)
	}

	resolved := base.ResolveReference(parsed)
	resolved.Fragment = ""
	return resolved.String(), nil
}

// MustParse parses rawURL and panics on error. Only for package-level defaults and tests.
func MustParse(rawURL string) *url.URL {
	u, err := url.Parse(rawURL)
	if err != nil {
		panic(err)
	}
	return u
}
