// ABOUTME: Query cache keyed by canonical request descriptors with a fixed TTL
// ABOUTME: Validity is judged against the cached_at stamp using an injectable clock
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultTTL is how long a cached response stays valid.
const DefaultTTL = 5 * time.Minute

// Backend stores raw entry bytes. Expiry passed to Set is for storage
// cleanup only; the query cache decides validity itself.
type Backend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
	Clear(ctx context.Context) error
	Close() error
}

// Entry is a cached payload and the time it was stored.
type Entry struct {
	Payload  json.RawMessage `json:"payload"`
	CachedAt time.Time       `json:"cached_at"`
}

// QueryCache maps request keys to responses that expire after a TTL.
type QueryCache struct {
	backend Backend
	ttl     time.Duration
	now     func() time.Time
	logger  logrus.FieldLogger
}

type Option func(*QueryCache)

func WithTTL(ttl time.Duration) Option {
	return func(c *QueryCache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *QueryCache) {
		if now != nil {
			c.now = now
		}
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *QueryCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New creates a query cache over backend.
func New(backend Backend, opts ...Option) *QueryCache {
	c := &QueryCache{
		backend: backend,
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the validity window of cached entries.
func (c *QueryCache) TTL() time.Duration {
	return c.ttl
}

// Get decodes the cached payload for key into dest. It reports false when
// the entry is absent, expired, or unreadable; a miss has no side effects.
func (c *QueryCache) Get(ctx context.Context, key string, dest any) bool {
	raw, ok, err := c.backend.Get(ctx, key)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("cache backend read failed")
		return false
	}
	if !ok {
		return false
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("discarding unreadable cache entry")
		return false
	}
	if !c.valid(entry) {
		return false
	}
	if err := json.Unmarshal(entry.Payload, dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Debug("cached payload does not fit destination")
		return false
	}
	return true
}

// Set stores payload under key, stamped with the current time. Any
// existing entry is overwritten.
func (c *QueryCache) Set(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode cache payload: %w", err)
	}
	raw, err := json.Marshal(Entry{Payload: data, CachedAt: c.now()})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}
	return c.backend.Set(ctx, key, raw, c.ttl)
}

// Invalidate removes one entry.
func (c *QueryCache) Invalidate(ctx context.Context, key string) error {
	return c.backend.Delete(ctx, key)
}

// InvalidateCollection removes every entry whose key was built for the
// named collection.
func (c *QueryCache) InvalidateCollection(ctx context.Context, collection string) error {
	return c.backend.DeletePrefix(ctx, collection+":")
}

// InvalidateAll empties the cache.
func (c *QueryCache) InvalidateAll(ctx context.Context) error {
	return c.backend.Clear(ctx)
}

// Close releases the backend.
func (c *QueryCache) Close() error {
	return c.backend.Close()
}

func (c *QueryCache) valid(e Entry) bool {
	return c.now().Sub(e.CachedAt) < c.ttl
}

// KeyFor builds the cache key for a request on collection. The descriptor
// should already be in canonical form: its JSON encoding is what is hashed,
// so struct field order is fixed and omitempty fields drop out.
func KeyFor(collection string, descriptor any) string {
	data, err := json.Marshal(descriptor)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", descriptor))
	}
	sum := sha256.Sum256(data)
	return collection + ":" + hex.EncodeToString(sum[:])
}
