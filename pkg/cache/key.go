package cache

import (
	"net/url"
	"strings"
)

const keyPrefix = "stars"

// Key identifies one cached page.
type Key struct {
	// Path is the API path (e.g., "/users/octocat/starred")
	Path string

	// Query holds the page parameters (e.g., page=2, per_page=100)
	Query url.Values
}

// PageKey builds the key of a page URL. The host is ignored so that
// the same listing maps to one entry regardless of how the base URL was
// spelled. Unparseable URLs key on the raw string.
func PageKey(rawURL string) Key {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Key{Path: rawURL}
	}
	return Key{Path: u.Path, Query: u.Query()}
}

// String renders the Redis key: stars:<path>:<sorted query>.
//
//	stars:users/octocat/starred:page=2&per_page=100
func (k Key) String() string {
	var b strings.Builder
	b.WriteString(keyPrefix)

	if p := strings.Trim(k.Path, "/"); p != "" {
		b.WriteByte(':')
		b.WriteString(p)
	}
	// Encode sorts by parameter name.
	if q := k.Query.Encode(); q != "" {
		b.WriteByte(':')
		b.WriteString(q)
	}
	return b.String()
}
