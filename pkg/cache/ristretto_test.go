package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestRistretto(t *testing.T) *Ristretto[bool] {
	t.Helper()

	r, err := NewRistretto[bool](&RistrettoConfig{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r
}

func TestRistretto_SetAndGet(t *testing.T) {
	t.Parallel()

	r := newTestRistretto(t)

	r.Set("PETR4", true)
	r.Set("BOGUS", false)
	r.Wait()

	v, ok := r.Get("PETR4")
	require.True(t, ok)
	assert.True(t, v)

	v, ok = r.Get("BOGUS")
	require.True(t, ok)
	assert.False(t, v)

	_, ok = r.Get("missing")
	assert.False(t, ok)
}

func TestRistretto_TTLExpiry(t *testing.T) {
	t.Parallel()

	r := newTestRistretto(t)

	r.SetTTL("k", true, 50*time.Millisecond)
	r.Wait()

	_, ok := r.Get("k")
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		_, ok := r.Get("k")
		return !ok
	}, time.Second, 20*time.Millisecond)
}

func TestRistretto_HasAndDelete(t *testing.T) {
	t.Parallel()

	r := newTestRistretto(t)

	r.Set("k", true)
	r.Wait()

	assert.True(t, r.Has("k"))
	assert.True(t, r.Delete("k"))
	assert.False(t, r.Has("k"))
	assert.False(t, r.Delete("k"))
}

func TestRistretto_Clear(t *testing.T) {
	t.Parallel()

	r := newTestRistretto(t)

	r.Set("a", true)
	r.Set("b", false)
	r.Wait()

	r.Clear()

	assert.False(t, r.Has("a"))
	assert.False(t, r.Has("b"))
}

func TestRistretto_TypeMismatchIsMiss(t *testing.T) {
	t.Parallel()

	r := newTestRistretto(t)

	// A foreign value under the same key must not panic the typed reader.
	require.True(t, r.cache.SetWithTTL("k", "not-a-bool", 1, time.Minute))
	r.Wait()

	_, ok := r.Get("k")
	assert.False(t, ok)
}
