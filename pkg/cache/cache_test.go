package cache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ali-kazmi85/rule-engine/pkg/cache"
	"github.com/ali-kazmi85/rule-engine/pkg/parser"
	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

func compile(t *testing.T, text string) *types.Expression {
	t.Helper()
	expr, err := parser.Parse(text)
	require.NoError(t, err)
	return expr
}

func TestCacheNew(t *testing.T) {
	c := cache.New(10)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 10, c.Capacity())
}

func TestCacheDefaultCapacity(t *testing.T) {
	assert.Equal(t, 256, cache.New(0).Capacity())
}

func TestCacheSetGet(t *testing.T) {
	c := cache.New(4)
	expr := compile(t, `age > 1`)
	c.Set(`age > 1`, expr)

	got, ok := c.Get(`age > 1`)
	require.True(t, ok)
	assert.Same(t, expr, got)

	_, ok = c.Get("missing")
	assert.False(t, ok)
}

func TestCacheLRUEviction(t *testing.T) {
	c := cache.New(2)
	c.Set("a", compile(t, `true`))
	c.Set("b", compile(t, `false`))

	// Touch "a" so "b" is the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", compile(t, `null`))
	assert.Equal(t, 2, c.Len())

	_, ok = c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
}

func TestCacheGetOrCompile(t *testing.T) {
	c := cache.New(4)
	calls := 0
	compileFn := func() (*types.Expression, error) {
		calls++
		return parser.Parse(`x == 1`)
	}

	first, err := c.GetOrCompile(`x == 1`, compileFn)
	require.NoError(t, err)
	second, err := c.GetOrCompile(`x == 1`, compileFn)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, calls)
}

func TestCacheGetOrCompileError(t *testing.T) {
	c := cache.New(4)
	calls := 0
	compileFn := func() (*types.Expression, error) {
		calls++
		return parser.Parse(`x ==`)
	}

	// Errors are not cached; the next call compiles again.
	_, err := c.GetOrCompile(`x ==`, compileFn)
	require.Error(t, err)
	_, err = c.GetOrCompile(`x ==`, compileFn)
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 0, c.Len())
}

func TestCacheInvalidateAndClear(t *testing.T) {
	c := cache.New(4)
	c.Set("a", compile(t, `true`))
	c.Set("b", compile(t, `false`))

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
