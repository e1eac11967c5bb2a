package limiter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdvance(t *testing.T) {
	now := time.UnixMilli(10_000)
	policy := Policy{Interval: time.Second, MaxRequests: 2}

	t.Run("Absent entry opens a window", func(t *testing.T) {
		entry, admitted := Advance(Entry{}, false, policy, now)
		assert.True(t, admitted)
		assert.Equal(t, Entry{Count: 1, ResetAt: time.UnixMilli(11_000)}, entry)
	})

	t.Run("Expired entry is replaced", func(t *testing.T) {
		old := Entry{Count: 2, ResetAt: now.Add(-time.Millisecond)}
		entry, admitted := Advance(old, true, policy, now)
		assert.True(t, admitted)
		assert.Equal(t, 1, entry.Count)
		assert.Equal(t, now.Add(policy.Interval), entry.ResetAt)
	})

	t.Run("Active entry increments", func(t *testing.T) {
		current := Entry{Count: 1, ResetAt: now.Add(time.Millisecond)}
		entry, admitted := Advance(current, true, policy, now)
		assert.True(t, admitted)
		assert.Equal(t, 2, entry.Count)
		assert.Equal(t, current.ResetAt, entry.ResetAt)
	})

	t.Run("Full entry is left untouched", func(t *testing.T) {
		current := Entry{Count: 2, ResetAt: now}
		entry, admitted := Advance(current, true, policy, now)
		assert.False(t, admitted)
		assert.Equal(t, current, entry)
	})
}

func TestMemoryStoreGetSet(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get("login:1.2.3.4")
	assert.False(t, ok)

	entry := Entry{Count: 3, ResetAt: time.UnixMilli(5_000)}
	store.Set("login:1.2.3.4", entry)

	got, ok := store.Get("login:1.2.3.4")
	require.True(t, ok)
	assert.Equal(t, entry, got)

	store.Set("login:1.2.3.4", Entry{Count: 1, ResetAt: time.UnixMilli(9_000)})
	got, _ = store.Get("login:1.2.3.4")
	assert.Equal(t, 1, got.Count)
}

func TestMemoryStoreTakeDoesNotStoreDenials(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	policy := Policy{Interval: time.Minute, MaxRequests: 1}
	now := time.UnixMilli(0)

	_, admitted, err := store.Take(ctx, "k", policy, now)
	require.NoError(t, err)
	require.True(t, admitted)

	entry, admitted, err := store.Take(ctx, "k", policy, now.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, admitted)
	assert.Equal(t, 1, entry.Count)

	stored, _ := store.Get("k")
	assert.Equal(t, 1, stored.Count)
}

func TestMemoryStoreSweep(t *testing.T) {
	store := NewMemoryStore()
	now := time.UnixMilli(100_000)

	store.Set("expired", Entry{Count: 1, ResetAt: now.Add(-time.Second)})
	store.Set("boundary", Entry{Count: 1, ResetAt: now})
	store.Set("active", Entry{Count: 1, ResetAt: now.Add(time.Second)})

	removed := store.Sweep(now)

	assert.Equal(t, 1, removed)
	assert.Equal(t, 2, store.Len())
	_, ok := store.Get("expired")
	assert.False(t, ok)
	_, ok = store.Get("boundary")
	assert.True(t, ok)
}

func TestMemoryStoreSweepDoesNotAffectDecisions(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	policy := Policy{Interval: time.Second, MaxRequests: 1}
	now := time.UnixMilli(0)

	_, _, _ = store.Take(ctx, "k", policy, now)
	later := now.Add(2 * time.Second)

	// Com ou sem sweep, uma janela expirada é tratada como ausente
	entryWithout, admittedWithout, _ := store.Take(ctx, "k", policy, later)

	other := NewMemoryStore()
	_, _, _ = other.Take(ctx, "k", policy, now)
	other.Sweep(later)
	entryWith, admittedWith, _ := other.Take(ctx, "k", policy, later)

	assert.Equal(t, admittedWithout, admittedWith)
	assert.Equal(t, entryWithout, entryWith)
}

func TestMemoryStoreClose(t *testing.T) {
	assert.NoError(t, NewMemoryStore().Close())
}
