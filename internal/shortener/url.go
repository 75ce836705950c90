package shortener

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeURL validates a long URL and returns its canonical form.
// - Requires an http or https scheme and a host
// - Lowercases the scheme and host
// - Removes default ports (80 for http, 443 for https)
// - Keeps path, query and fragment untouched
func NormalizeURL(rawURL string) (string, error) {
	rawURL = strings.TrimSpace(rawURL)

	if len(rawURL) < minURLLength || len(rawURL) > maxURLLength {
		return "", fmt.Errorf("%w: length must be between %d and %d", ErrInvalidURL, minURLLength, maxURLLength)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("%w: scheme must be http or https", ErrInvalidURL)
	}

	if u.Hostname() == "" {
		return "", fmt.Errorf("%w: missing host", ErrInvalidURL)
	}

	u.Host = strings.ToLower(u.Host)

	host := u.Host
	if strings.HasSuffix(host, ":80") && u.Scheme == "http" {
		u.Host = strings.TrimSuffix(host, ":80")
	} else if strings.HasSuffix(host, ":443") && u.Scheme == "https" {
		u.Host = strings.TrimSuffix(host, ":443")
	}

	return u.String(), nil
}

// TokenFromInput extracts a link token from a full short URL, a path or a
// bare token. baseURL is the public prefix short URLs are served under.
func TokenFromInput(raw, baseURL string) string {
	raw = strings.TrimSpace(raw)

	if baseURL != "" {
		base := strings.TrimSuffix(baseURL, "/")
		if after, ok := strings.CutPrefix(raw, base); ok {
			raw = after
		}
	}

	if u, err := url.Parse(raw); err == nil && u.Scheme != "" {
		raw = u.Path
	}

	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}

	raw = strings.Trim(raw, "/")

	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}

	return raw
}
