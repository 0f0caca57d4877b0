package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrMiss is returned when no live entry exists for a key.
	ErrMiss = errors.New("cache miss")

	// ErrInvalidEntry is returned when a stored hash lacks required fields.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Hash fields of a stored page.
const (
	fieldBody     = "body"
	fieldETag     = "etag"
	fieldLink     = "link"
	fieldStoredAt = "stored_at"
	fieldExpires  = "expires"
)

// Manager stores starred pages as Redis hashes that expire with the entry.
type Manager struct {
	redis *redis.Client
	ttl   time.Duration
	now   func() time.Time
}

// NewManager creates a page cache on redisClient.
// A non-positive ttl selects DefaultTTL.
func NewManager(redisClient *redis.Client, ttl time.Duration) *Manager {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{redis: redisClient, ttl: ttl, now: time.Now}
}

// TTL returns the lifetime given to new and refreshed entries.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Lookup returns the live entry for key, or ErrMiss.
func (m *Manager) Lookup(ctx context.Context, key Key) (*Entry, error) {
	fields, err := m.redis.HGetAll(ctx, key.String()).Result()
	if err != nil {
		errorsTotal.WithLabelValues("lookup").Inc()
		return nil, fmt.Errorf("redis hgetall: %w", err)
	}
	if len(fields) == 0 {
		lookupsTotal.WithLabelValues("miss").Inc()
		return nil, ErrMiss
	}

	entry, err := decodeEntry(fields)
	if err != nil {
		errorsTotal.WithLabelValues("lookup").Inc()
		return nil, err
	}

	if entry.Expired(m.now()) {
		_ = m.Forget(ctx, key)
		lookupsTotal.WithLabelValues("expired").Inc()
		return nil, ErrMiss
	}

	lookupsTotal.WithLabelValues("hit").Inc()
	return entry, nil
}

// Save writes entry under key. Entries already past their lifetime are
// not stored.
func (m *Manager) Save(ctx context.Context, key Key, entry *Entry) error {
	if entry == nil {
		return errors.New("cache entry cannot be nil")
	}

	ttl := entry.Remaining(m.now())
	if ttl <= 0 {
		return nil
	}

	k := key.String()
	_, err := m.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, k)
		pipe.HSet(ctx, k, encodeEntry(entry))
		pipe.PExpire(ctx, k, ttl)
		return nil
	})
	if err != nil {
		errorsTotal.WithLabelValues("save").Inc()
		return fmt.Errorf("redis save: %w", err)
	}

	storedBytes.Add(float64(len(entry.Body)))
	return nil
}

// Refresh gives the entry under key a full TTL again. It is called after a
// 304 Not Modified confirmed the entry is current.
func (m *Manager) Refresh(ctx context.Context, key Key) error {
	k := key.String()
	expires := m.now().Add(m.ttl)

	extended, err := m.redis.PExpire(ctx, k, m.ttl).Result()
	if err != nil {
		errorsTotal.WithLabelValues("refresh").Inc()
		return fmt.Errorf("redis pexpire: %w", err)
	}
	if !extended {
		return ErrMiss
	}

	if err := m.redis.HSet(ctx, k, fieldExpires, expires.UnixMilli()).Err(); err != nil {
		errorsTotal.WithLabelValues("refresh").Inc()
		return fmt.Errorf("redis hset: %w", err)
	}

	revalidatedTotal.Inc()
	return nil
}

// Forget removes the entry under key.
func (m *Manager) Forget(ctx context.Context, key Key) error {
	if err := m.redis.Del(ctx, key.String()).Err(); err != nil {
		errorsTotal.WithLabelValues("forget").Inc()
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

func encodeEntry(e *Entry) map[string]interface{} {
	return map[string]interface{}{
		fieldBody:     e.Body,
		fieldETag:     e.ETag,
		fieldLink:     e.Link,
		fieldStoredAt: e.StoredAt.UnixMilli(),
		fieldExpires:  e.Expires.UnixMilli(),
	}
}

func decodeEntry(fields map[string]string) (*Entry, error) {
	body, ok := fields[fieldBody]
	if !ok || fields[fieldETag] == "" {
		return nil, ErrInvalidEntry
	}

	storedAt, err := strconv.ParseInt(fields[fieldStoredAt], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: stored_at: %v", ErrInvalidEntry, err)
	}
	expires, err := strconv.ParseInt(fields[fieldExpires], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: expires: %v", ErrInvalidEntry, err)
	}

	return &Entry{
		Body:     []byte(body),
		ETag:     fields[fieldETag],
		Link:     fields[fieldLink],
		StoredAt: time.UnixMilli(storedAt),
		Expires:  time.UnixMilli(expires),
	}, nil
}
