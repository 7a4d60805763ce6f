package types

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodeClass(t *testing.T) {
	assert.Equal(t, byte('S'), ErrSyntax.Class())
	assert.Equal(t, byte('T'), ErrComparisonKinds.Class())
	assert.Equal(t, byte('U'), ErrSymbolNotFound.Class())
	assert.Equal(t, byte('D'), ErrDeferredResult.Class())
}

func TestParseErrorUnwrapsToRoot(t *testing.T) {
	perr := NewParseError(ErrExpectedToken, "expected ] but got end of expression", "", 12, 1, 13)

	var root *Error
	require.True(t, errors.As(perr, &root))
	assert.Equal(t, ErrExpectedToken, root.Code)
	assert.Equal(t, 1, perr.Line())
	assert.Equal(t, 13, perr.Column())
	assert.Contains(t, perr.Error(), "line 1, column 13")
}

func TestSymbolResolutionErrorSuggestions(t *testing.T) {
	rerr := NewSymbolResolutionError(ErrSymbolNotFound, "agee", map[string]any{})
	assert.NotContains(t, rerr.Error(), "did you mean")

	rerr.Suggestions = []string{"age", "ages"}
	assert.Contains(t, rerr.Error(), `did you mean "age", "ages"?`)

	var root *Error
	require.True(t, errors.As(rerr, &root))
	assert.Equal(t, ErrSymbolNotFound, root.Code)
}
