package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is the freshness window applied when no resource-specific TTL
// is configured.
const DefaultTTL = 5 * time.Minute

// Store is a time-boxed key/value store for idempotent reads. Entries past
// their freshness window are treated as absent even if still physically
// stored; a write always replaces the whole entry. There is no partial
// invalidation: Clear drops everything or nothing.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Clear(ctx context.Context) error
}

// TTLConfig maps resource volatility classes to freshness windows.
type TTLConfig struct {
	// Listings covers price/availability-sensitive product listings.
	Listings time.Duration
	// Default covers everything without a more specific class.
	Default time.Duration
	// Taxonomy covers rarely changing brand lists and category trees.
	Taxonomy time.Duration
}

// DefaultTTLConfig returns the standard freshness windows.
func DefaultTTLConfig() TTLConfig {
	return TTLConfig{
		Listings: time.Minute,
		Default:  DefaultTTL,
		Taxonomy: 30 * time.Minute,
	}
}

// Key derives a deterministic cache key from a logical query: the resource
// name plus every selection parameter in a fixed order. Parameters with
// empty values are dropped so normalized defaults never fragment the key
// space, and two callers asking for the same logical data always collide
// regardless of the order they supplied parameters in.
func Key(resource string, params map[string]string) string {
	if len(params) == 0 {
		return resource
	}

	names := make([]string, 0, len(params))
	for name, value := range params {
		if value != "" {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return resource
	}
	sort.Strings(names)

	var b strings.Builder
	b.WriteString(resource)
	for i, name := range names {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(params[name])
	}
	return b.String()
}

type entry struct {
	payload []byte
	at      time.Time
	ttl     time.Duration
}

// MemoryStore is the in-process Store implementation. Expiry is lazy: a
// stale entry is dropped on the next read that finds it.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

// Get returns the payload for key if the entry is still within its
// freshness window; otherwise the entry is evicted and absence reported.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}
	if s.now().Sub(e.at) >= e.ttl {
		delete(s.entries, key)
		return nil, false, nil
	}
	return e.payload, true, nil
}

// Set unconditionally replaces the entry for key, starting a fresh window.
func (s *MemoryStore) Set(_ context.Context, key string, payload []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = entry{payload: payload, at: s.now(), ttl: ttl}
	return nil
}

// Clear drops all entries as a unit.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	return nil
}

// Len reports the number of physically stored entries, including any whose
// window has lapsed but which no read has evicted yet.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Fetch returns the cached value for key, or loads it, stores the result,
// and returns it. A cache miss or an expired entry is normal control flow,
// not an error; only loader failures propagate. Storage failures are
// swallowed: serving the freshly loaded value matters more than memoizing
// it.
func Fetch[T any](ctx context.Context, store Store, key string, ttl time.Duration, load func(context.Context) (T, error)) (T, error) {
	var zero T

	if data, ok, err := store.Get(ctx, key); err == nil && ok {
		var cached T
		if err := json.Unmarshal(data, &cached); err == nil {
			return cached, nil
		}
		// An undecodable entry is treated as a miss and overwritten below.
	}

	value, err := load(ctx)
	if err != nil {
		return zero, fmt.Errorf("load %s: %w", key, err)
	}

	if data, err := json.Marshal(value); err == nil {
		_ = store.Set(ctx, key, data, ttl)
	}
	return value, nil
}
