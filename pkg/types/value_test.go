package types

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestNormalizeNumbers(t *testing.T) {
	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"int", 42, "42"},
		{"int64", int64(-7), "-7"},
		{"uint64 above int64 range", uint64(18446744073709551615), "18446744073709551615"},
		{"float64", 1.5, "1.5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := Normalize(tt.value).(*apd.Decimal)
			require.True(t, ok)
			assert.Zero(t, d.Cmp(dec(tt.want)))
		})
	}
}

func TestNormalizeContainers(t *testing.T) {
	got := Normalize([]int{1, 2, 3})
	arr, ok := got.([]any)
	require.True(t, ok)
	require.Len(t, arr, 3)
	assert.True(t, Equal(arr[0], dec("1")))

	got = Normalize(map[string]int{"a": 1})
	m, ok := got.(map[string]any)
	require.True(t, ok)
	assert.True(t, Equal(m["a"], dec("1")))

	// Pointers dereference; nil pointers normalize to null.
	n := 5
	assert.True(t, Equal(Normalize(&n), dec("5")))
	var pn *int
	assert.Nil(t, Normalize(pn))
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b any
		want bool
	}{
		{"numeric decimals", dec("1.0"), dec("1"), true},
		{"strings", "a", "a", true},
		{"string vs bytes", "a", []byte("a"), false},
		{"bytes", []byte{1, 2}, []byte{1, 2}, true},
		{"arrays ordered", []any{dec("1"), dec("2")}, []any{dec("1"), dec("2")}, true},
		{"arrays order matters", []any{dec("1"), dec("2")}, []any{dec("2"), dec("1")}, false},
		{"sets unordered", NewSet(dec("1"), dec("2")), NewSet(dec("2"), dec("1")), true},
		{"mappings", map[string]any{"a": "b"}, map[string]any{"a": "b"}, true},
		{"nils", nil, nil, true},
		{"nil vs value", nil, "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Equal(tt.a, tt.b))
		})
	}
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(dec("0")))
	assert.False(t, Truthy([]any{}))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(dec("-1")))
	assert.True(t, Truthy([]any{nil}))
	assert.True(t, Truthy(time.Now()))
}

func TestCompare(t *testing.T) {
	cmp, err := Compare(dec("1"), dec("2"))
	require.NoError(t, err)
	assert.Negative(t, cmp)

	cmp, err = Compare("b", "a")
	require.NoError(t, err)
	assert.Positive(t, cmp)

	cmp, err = Compare(time.Hour, time.Hour)
	require.NoError(t, err)
	assert.Zero(t, cmp)

	_, err = Compare(dec("1"), "1")
	require.Error(t, err)
	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, ErrIncompatibleValues, engineErr.Code)
}

func TestCoerce(t *testing.T) {
	got, err := Coerce(dec("1.5"), String)
	require.NoError(t, err)
	assert.Equal(t, "1.5", got)

	got, err = Coerce("2.5", Float)
	require.NoError(t, err)
	assert.True(t, Equal(got, dec("2.5")))

	got, err = Coerce(NewSet("a"), Kind{Tag: KindArray})
	require.NoError(t, err)
	assert.Equal(t, []any{"a"}, got)

	_, err = Coerce(time.Hour, Float)
	require.Error(t, err)

	// Null is compatible with every kind statically, but never coerces
	// to a concrete value.
	got, err = Coerce(nil, Null)
	require.NoError(t, err)
	assert.Nil(t, got)

	var engineErr *Error
	_, err = Coerce(nil, String)
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, ErrIncompatibleValues, engineErr.Code)
}

func TestSetDeduplication(t *testing.T) {
	s := NewSet(dec("1"), dec("1.0"), "a")
	assert.Len(t, s, 2)
	assert.True(t, s.Contains(dec("1.000")))
	assert.False(t, s.Contains("b"))
}
