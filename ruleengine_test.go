package ruleengine

import (
	"context"
	"errors"
	"iter"
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ali-kazmi85/rule-engine/pkg/cache"
	"github.com/ali-kazmi85/rule-engine/pkg/evaluator"
	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

func assertDecimal(t *testing.T, want string, got any) {
	t.Helper()
	d, ok := got.(*apd.Decimal)
	require.True(t, ok, "expected decimal, got %T", got)
	expected, _, err := apd.NewFromString(want)
	require.NoError(t, err)
	assert.Zero(t, d.Cmp(expected), "expected %s, got %s", want, d)
}

func seq(items ...any) iter.Seq[any] {
	return func(yield func(any) bool) {
		for _, item := range items {
			if !yield(item) {
				return
			}
		}
	}
}

func TestNewAndMatches(t *testing.T) {
	rule, err := New(`age >= 21`)
	require.NoError(t, err)

	ok, err := rule.Matches(map[string]any{"age": 30})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = rule.Matches(map[string]any{"age": 18})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewReportsCompileErrors(t *testing.T) {
	_, err := New(`age >`)
	require.Error(t, err)
	var perr *types.ParseError
	assert.True(t, errors.As(err, &perr))

	_, err = New(`"a" == true`)
	require.Error(t, err)
	var root *types.Error
	require.True(t, errors.As(err, &root))
	assert.Equal(t, byte('T'), root.Code.Class())
}

func TestMustNew(t *testing.T) {
	assert.NotNil(t, MustNew(`true`))
	assert.Panics(t, func() { MustNew(`age >`) })
}

func TestIsValid(t *testing.T) {
	assert.True(t, IsValid(`name == "x"`))
	assert.False(t, IsValid(`name ==`))
}

func TestMatchesRejectsNonBoolean(t *testing.T) {
	rule := MustNew(`age + 1`)
	_, err := rule.Matches(map[string]any{"age": 1})
	require.Error(t, err)
	var root *types.Error
	require.True(t, errors.As(err, &root))
	assert.Equal(t, types.ErrNonBooleanMatch, root.Code)
}

func TestRegexMatchExample(t *testing.T) {
	rule := MustNew(`name =~ "^A"`)
	ok, err := rule.Matches(map[string]any{"name": "Alice"})
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = rule.Matches(map[string]any{"name": "Bob"})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFilterOrderAndRestart(t *testing.T) {
	rule := MustNew(`score > 10`)
	things := seq(
		map[string]any{"id": "a", "score": 5},
		map[string]any{"id": "b", "score": 15},
		map[string]any{"id": "c", "score": 25},
	)

	var ids []string
	for item, err := range rule.Filter(things) {
		require.NoError(t, err)
		ids = append(ids, item.(map[string]any)["id"].(string))
	}
	assert.Equal(t, []string{"b", "c"}, ids)

	// A second pass starts fresh.
	ids = nil
	for item, err := range rule.Filter(things) {
		require.NoError(t, err)
		ids = append(ids, item.(map[string]any)["id"].(string))
	}
	assert.Equal(t, []string{"b", "c"}, ids)
}

func TestFilterIsLazy(t *testing.T) {
	rule := MustNew(`score > 10`)

	evaluated := 0
	counting := func(yield func(any) bool) {
		for i := 0; i < 100; i++ {
			evaluated++
			if !yield(map[string]any{"score": 50}) {
				return
			}
		}
	}

	// Taking one match must not drain the input.
	for range rule.Filter(counting) {
		break
	}
	assert.Equal(t, 1, evaluated)

	// An empty input performs no evaluation at all.
	for range rule.Filter(seq()) {
		t.Fatal("unexpected item")
	}
}

func TestFilterYieldsErrors(t *testing.T) {
	rule := MustNew(`missing > 1`)
	var errs int
	for _, err := range rule.Filter(seq(map[string]any{"x": 1})) {
		require.Error(t, err)
		errs++
	}
	assert.Equal(t, 1, errs)
}

func TestFilterSlice(t *testing.T) {
	rule := MustNew(`n % 2 == 0`)
	got, err := rule.FilterSlice([]any{
		map[string]any{"n": 1},
		map[string]any{"n": 2},
		map[string]any{"n": 4},
	})
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestFilterContextCancellation(t *testing.T) {
	rule := MustNew(`true`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, err := range rule.FilterContext(ctx, seq(map[string]any{})) {
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestWithCache(t *testing.T) {
	lru := cache.New(8)
	r1, err := New(`age > 1`, WithCache(lru))
	require.NoError(t, err)
	r2, err := New(`age > 1`, WithCache(lru))
	require.NoError(t, err)

	assert.Equal(t, 1, lru.Len())
	assert.Same(t, r1.expr, r2.expr)
}

func TestWithCacheSeparatesContexts(t *testing.T) {
	lru := cache.New(8)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	text := `d"2024-01-01 00:00:00".to_epoch`
	rTokyo, err := New(text, WithCache(lru),
		WithContext(evaluator.NewContext(evaluator.WithTimezone(tokyo))))
	require.NoError(t, err)
	rUTC, err := New(text, WithCache(lru),
		WithContext(evaluator.NewContext(evaluator.WithTimezone(time.UTC))))
	require.NoError(t, err)

	// Datetime literals bake the context timezone into the compiled
	// tree, so the two contexts must not share an entry.
	assert.Equal(t, 2, lru.Len())
	assert.NotSame(t, rTokyo.expr, rUTC.expr)

	epochTokyo, err := rTokyo.Evaluate(nil)
	require.NoError(t, err)
	epochUTC, err := rUTC.Evaluate(nil)
	require.NoError(t, err)
	assertDecimal(t, "1704034800", epochTokyo)
	assertDecimal(t, "1704067200", epochUTC)
}

func TestWithContext(t *testing.T) {
	ec := evaluator.NewContext(
		evaluator.WithRegexFlags("i"),
		evaluator.WithTimezone(time.UTC),
	)
	rule, err := New(`name =~ "^a"`, WithContext(ec))
	require.NoError(t, err)

	ok, err := rule.Matches(map[string]any{"name": "Alice"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestWithContextTypeResolver(t *testing.T) {
	ec := evaluator.NewContext(
		evaluator.WithTypeResolver(func(name string) (types.Kind, bool) {
			if name == "age" {
				return types.Float, true
			}
			return types.Unknown, false
		}),
	)

	// The resolver's kinds feed the static checker.
	_, err := New(`age == "x"`, WithContext(ec))
	require.Error(t, err)
	var root *types.Error
	require.True(t, errors.As(err, &root))
	assert.Equal(t, types.ErrComparisonKinds, root.Code)
}

func TestMatchesContextDeferred(t *testing.T) {
	resolver := evaluator.ResolverFunc(func(thing any, name string) (any, error) {
		return evaluator.DeferredFunc(func(ctx context.Context) (any, error) {
			return thing.(map[string]any)[name], nil
		}), nil
	})
	ec := evaluator.NewContext(evaluator.WithResolver(resolver))
	rule, err := New(`age > 18`, WithContext(ec))
	require.NoError(t, err)

	_, err = rule.Matches(map[string]any{"age": 30})
	require.Error(t, err)

	ok, err := rule.MatchesContext(context.Background(), map[string]any{"age": 30})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEval(t *testing.T) {
	got, err := Eval(`1 < 2`, nil)
	require.NoError(t, err)
	assert.Equal(t, true, got)
}
