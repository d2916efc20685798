package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClockedStore returns a store with a controllable clock.
func newClockedStore(t *testing.T) (*MemoryStore, *time.Time) {
	t.Helper()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }
	return s, &now
}

func TestKey_Deterministic(t *testing.T) {
	a := Key("products", map[string]string{"brand": "longi", "category": "panels"})
	b := Key("products", map[string]string{"category": "panels", "brand": "longi"})

	assert.Equal(t, a, b)
	assert.Equal(t, "products?brand=longi&category=panels", a)
}

func TestKey_NormalizesDefaults(t *testing.T) {
	// Empty values are dropped so defaulted parameters never fragment keys.
	assert.Equal(t, "products", Key("products", map[string]string{"brand": "", "sort": ""}))
	assert.Equal(t, "products", Key("products", nil))
	assert.Equal(t, "brands", Key("brands", map[string]string{}))
}

func TestMemoryStore_SetThenGet(t *testing.T) {
	s, _ := newClockedStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "brands", []byte(`["longi"]`), time.Minute))

	data, ok, err := s.Get(ctx, "brands")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, `["longi"]`, string(data))
}

func TestMemoryStore_ExpiryIsLazy(t *testing.T) {
	s, now := newClockedStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "brands", []byte(`v1`), 5*time.Minute))

	// Just inside the window.
	*now = now.Add(5*time.Minute - time.Second)
	_, ok, err := s.Get(ctx, "brands")
	require.NoError(t, err)
	assert.True(t, ok)

	// Past the window: treated as absent and physically evicted.
	*now = now.Add(2 * time.Second)
	_, ok, err = s.Get(ctx, "brands")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, s.Len())
}

func TestMemoryStore_ResetStartsFreshWindow(t *testing.T) {
	s, now := newClockedStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "k", []byte(`v1`), time.Minute))

	*now = now.Add(59 * time.Second)
	require.NoError(t, s.Set(ctx, "k", []byte(`v2`), time.Minute))

	// 59s after the second write the entry is still fresh.
	*now = now.Add(59 * time.Second)
	data, ok, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", string(data))
}

func TestMemoryStore_Clear(t *testing.T) {
	s, _ := newClockedStore(t)
	ctx := context.Background()

	require.NoError(t, s.Set(ctx, "a", []byte(`1`), time.Minute))
	require.NoError(t, s.Set(ctx, "b", []byte(`2`), time.Minute))
	require.NoError(t, s.Clear(ctx))

	assert.Zero(t, s.Len())
	_, ok, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFetch_MissLoadsAndStores(t *testing.T) {
	s, _ := newClockedStore(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) ([]string, error) {
		loads++
		return []string{"longi", "jinko"}, nil
	}

	got, err := Fetch(ctx, s, "brands", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"longi", "jinko"}, got)
	assert.Equal(t, 1, loads)

	// Second call is served from the store.
	got, err = Fetch(ctx, s, "brands", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, []string{"longi", "jinko"}, got)
	assert.Equal(t, 1, loads)
}

func TestFetch_ExpiredEntryReloads(t *testing.T) {
	s, now := newClockedStore(t)
	ctx := context.Background()

	loads := 0
	load := func(context.Context) (int, error) {
		loads++
		return loads, nil
	}

	first, err := Fetch(ctx, s, "counter", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	*now = now.Add(2 * time.Minute)

	second, err := Fetch(ctx, s, "counter", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, 2, second)
}

func TestFetch_LoaderErrorPropagates(t *testing.T) {
	s, _ := newClockedStore(t)

	_, err := Fetch(context.Background(), s, "products", time.Minute, func(context.Context) ([]string, error) {
		return nil, errors.New("upstream down")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")

	// Nothing was stored for the failed load.
	assert.Zero(t, s.Len())
}
