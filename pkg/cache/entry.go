package cache

import (
	"net/http"
	"time"
)

// DefaultTTL is how long a page stays available for revalidation.
const DefaultTTL = 24 * time.Hour

// Entry is the last known copy of one starred page.
type Entry struct {
	// Body is the raw JSON array as GitHub sent it
	Body []byte

	// ETag is replayed as If-None-Match
	ETag string

	// Link is the pagination header that came with Body
	Link string

	StoredAt time.Time
	Expires  time.Time
}

// NewEntry captures a 2xx page response. Pages without an ETag cannot be
// revalidated, so nil is returned for them.
func NewEntry(header http.Header, body []byte, now time.Time, ttl time.Duration) *Entry {
	etag := header.Get("ETag")
	if etag == "" || len(body) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Entry{
		Body:     body,
		ETag:     etag,
		Link:     header.Get("Link"),
		StoredAt: now,
		Expires:  now.Add(ttl),
	}
}

// Expired reports whether the entry is past its lifetime at now.
func (e *Entry) Expired(now time.Time) bool {
	return !now.Before(e.Expires)
}

// Remaining returns the lifetime left at now, never negative.
func (e *Entry) Remaining(now time.Time) time.Duration {
	if d := e.Expires.Sub(now); d > 0 {
		return d
	}
	return 0
}

// Condition makes req conditional on the entry's ETag. It reports whether
// a header was added.
func (e *Entry) Condition(req *http.Request) bool {
	if e == nil || req == nil || e.ETag == "" || len(e.Body) == 0 {
		return false
	}
	req.Header.Set("If-None-Match", e.ETag)
	return true
}
