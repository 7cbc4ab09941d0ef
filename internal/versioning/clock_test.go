package versioning

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type frozenClock struct{ t time.Time }

func (c frozenClock) Now() time.Time { return c.t }

func TestMonotonicClock_StrictlyIncreasing(t *testing.T) {
	frozen := time.Date(2016, 2, 2, 12, 20, 2, 0, time.UTC)
	clock := NewMonotonicClock(frozenClock{t: frozen})

	first := clock.Now()
	assert.True(t, first.Equal(frozen))
	second := clock.Now()
	assert.Equal(t, time.Millisecond, second.Sub(first))
}

func TestMonotonicClock_FollowsBase(t *testing.T) {
	clock := NewMonotonicClock(nil)
	a := clock.Now()
	time.Sleep(5 * time.Millisecond)
	b := clock.Now()
	assert.True(t, b.After(a))
	assert.Equal(t, time.UTC, b.Location())
}

func TestMonotonicClock_ThreadSafe(t *testing.T) {
	clock := NewMonotonicClock(frozenClock{t: time.Unix(0, 0)})
	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int64]bool)

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				ms := clock.Now().UnixMilli()
				mu.Lock()
				seen[ms] = true
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Len(t, seen, 1000)
}

func TestUUIDv7Supplier(t *testing.T) {
	ctx := context.Background()

	id, err := UUIDv7Supplier{}.CreateID(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(id), DefaultIDPrefix))
	assert.Len(t, string(id), len(DefaultIDPrefix)+36)

	other, err := UUIDv7Supplier{Prefix: "https://rmap.example.org/"}.CreateID(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(other), "https://rmap.example.org/"))
	assert.NotEqual(t, id, other)
}
