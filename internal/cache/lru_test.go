package cache

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)

	// Touching a makes b the eviction candidate.
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	c.Put("c", 3)
	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestLRUPutRefreshesExisting(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Put("a", 10)
	c.Put("c", 3)

	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 10, v)
	_, ok = c.Get("b")
	assert.False(t, ok)
}

func TestLRUPopIdempotent(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](4)
	c.Put("a", 1)

	v, ok := c.Pop("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Pop("a")
	assert.False(t, ok)
	_, ok = c.Pop("never")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRUMinimumSize(t *testing.T) {
	t.Parallel()

	c := NewLRU[int, int](0)
	c.Put(1, 1)
	c.Put(2, 2)
	assert.Equal(t, 1, c.Len())
}

func TestLRUConcurrent(t *testing.T) {
	t.Parallel()

	c := NewLRU[string, int](50)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				k := fmt.Sprintf("%d-%d", g, i%60)
				c.Put(k, i)
				c.Get(k)
				if i%7 == 0 {
					c.Pop(k)
				}
			}
		}(g)
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 50)
}
