package narrative

import (
	"context"
	"fmt"
	"time"
)

const (
	// DefaultTTL is how long a generated narrative stays valid.
	DefaultTTL = 24 * time.Hour

	expireSuffix = "-expire"

	// Millisecond-precision UTC ISO-8601, matching what browsers write.
	timestampLayout = "2006-01-02T15:04:05.000Z07:00"
)

// Entry is a cached narrative.
type Entry struct {
	Text      string
	ExpiresAt time.Time
}

// Cache stores narrative text and its expiry as two keys per slug:
// "<slug>" and "<slug>-expire".
type Cache struct {
	kv    KV
	clock Clock
	ttl   time.Duration
}

func NewCache(kv KV, clock Clock, ttl time.Duration) *Cache {
	if clock == nil {
		clock = SystemClock
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{kv: kv, clock: clock, ttl: ttl}
}

// ExpireKey returns the key holding the expiry timestamp for slug.
func ExpireKey(slug string) string {
	return slug + expireSuffix
}

// Lookup returns the cached entry for slug if its expiry is strictly after
// now. Storage errors and malformed timestamps count as a miss.
func (c *Cache) Lookup(ctx context.Context, slug string) (Entry, bool) {
	text, ok, err := c.kv.Get(ctx, slug)
	if err != nil || !ok || text == "" {
		return Entry{}, false
	}

	raw, ok, err := c.kv.Get(ctx, ExpireKey(slug))
	if err != nil || !ok || raw == "" {
		return Entry{}, false
	}

	expiresAt, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return Entry{}, false
	}
	if !expiresAt.After(c.clock.Now()) {
		return Entry{}, false
	}

	return Entry{Text: text, ExpiresAt: expiresAt}, true
}

// Store writes text under slug with a fresh expiry and returns the entry.
// The entry is valid for the caller even when the write fails.
func (c *Cache) Store(ctx context.Context, slug, text string) (Entry, error) {
	entry := Entry{Text: text, ExpiresAt: c.clock.Now().Add(c.ttl).UTC()}
	if err := ctx.Err(); err != nil {
		return entry, fmt.Errorf("store narrative %s: %w", slug, err)
	}

	if err := c.kv.Set(ctx, slug, text); err != nil {
		return entry, fmt.Errorf("store narrative %s: %w", slug, err)
	}
	if err := ctx.Err(); err != nil {
		return entry, fmt.Errorf("store narrative expiry %s: %w", slug, err)
	}
	if err := c.kv.Set(ctx, ExpireKey(slug), entry.ExpiresAt.Format(timestampLayout)); err != nil {
		return entry, fmt.Errorf("store narrative expiry %s: %w", slug, err)
	}
	return entry, nil
}
