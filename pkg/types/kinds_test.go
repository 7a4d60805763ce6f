package types

import (
	"testing"
	"time"

	"github.com/cockroachdb/apd/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Unknown, "unknown"},
		{Float, "float"},
		{String, "string"},
		{ArrayOf(String), "array(string)"},
		{ArrayOf(Unknown), "array(unknown)"},
		{Kind{Tag: KindArray}, "array"},
		{SetOf(Float), "set(float)"},
		{MappingOf(String, Float), "mapping(string, float)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestCompatible(t *testing.T) {
	tests := []struct {
		name     string
		expected Kind
		actual   Kind
		want     bool
	}{
		{"unknown accepts anything", Unknown, String, true},
		{"anything accepts unknown", String, Unknown, true},
		{"null compatible with every kind", String, Null, true},
		{"scalar self", Float, Float, true},
		{"scalar mismatch", Float, String, false},
		{"undefined never compatible", String, Undefined, false},
		{"undefined as expected", Undefined, Undefined, false},
		{"array element match", ArrayOf(String), ArrayOf(String), true},
		{"array element mismatch", ArrayOf(String), ArrayOf(Float), false},
		{"array wildcard element accepts", ArrayOf(Unknown), ArrayOf(Float), true},
		{"bare array accepts typed array", Kind{Tag: KindArray}, ArrayOf(Float), true},
		{"array not set", ArrayOf(String), SetOf(String), false},
		{"nested compound", ArrayOf(ArrayOf(Float)), ArrayOf(ArrayOf(Float)), true},
		{"nested compound mismatch", ArrayOf(ArrayOf(Float)), ArrayOf(ArrayOf(String)), false},
		{"mapping covariant", MappingOf(String, Unknown), MappingOf(String, Float), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compatible(tt.expected, tt.actual))
		})
	}
}

func TestKindOf(t *testing.T) {
	d := apd.New(42, 0)
	tests := []struct {
		name  string
		value any
		want  Kind
	}{
		{"nil", nil, Null},
		{"bool", true, Boolean},
		{"decimal", d, Float},
		{"string", "x", String},
		{"bytes", []byte{1}, Bytes},
		{"datetime", time.Now(), Datetime},
		{"timedelta", time.Hour, Timedelta},
		{"homogeneous array", []any{"a", "b"}, ArrayOf(String)},
		{"mixed array", []any{"a", d}, ArrayOf(Unknown)},
		{"empty array", []any{}, ArrayOf(Unknown)},
		{"set", NewSet("a", "b"), SetOf(String)},
		{"mapping", map[string]any{"a": d}, MappingOf(String, Float)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.value))
		})
	}
}

func TestIsDefinition(t *testing.T) {
	assert.False(t, Kind{Tag: KindArray}.IsDefinition())
	assert.True(t, ArrayOf(String).IsDefinition())
	assert.False(t, ArrayOf(Unknown).IsDefinition())
	assert.True(t, Float.IsDefinition())
	assert.False(t, Unknown.IsDefinition())
}

func TestAttributeKind(t *testing.T) {
	kind, ok := AttributeKind(String, "length")
	require.True(t, ok)
	assert.Equal(t, Float, kind)

	kind, ok = AttributeKind(Datetime, "weekday")
	require.True(t, ok)
	assert.Equal(t, String, kind)

	_, ok = AttributeKind(Float, "length")
	assert.False(t, ok)

	// Unknown bases defer to runtime resolution.
	kind, ok = AttributeKind(Unknown, "anything")
	require.True(t, ok)
	assert.Equal(t, Unknown, kind)

	// Element-carrying attributes refine to the base's parameters.
	kind, ok = AttributeKind(ArrayOf(Float), "to_set")
	require.True(t, ok)
	assert.Equal(t, SetOf(Float), kind)
}
