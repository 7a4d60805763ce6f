package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComparisonKind(t *testing.T) {
	kind, err := ComparisonKind("==", String, String)
	require.NoError(t, err)
	assert.Equal(t, Boolean, kind)

	// Equality between provably incompatible kinds is a static error.
	_, err = ComparisonKind("==", String, Boolean)
	require.Error(t, err)
	assertCode(t, err, ErrComparisonKinds)

	// Unknown operands defer to runtime.
	_, err = ComparisonKind("<", Unknown, Float)
	require.NoError(t, err)

	// Ordering requires matching ordered kinds.
	_, err = ComparisonKind("<", String, Float)
	require.Error(t, err)
	_, err = ComparisonKind(">=", Datetime, Datetime)
	require.NoError(t, err)
	_, err = ComparisonKind("<", Boolean, Boolean)
	require.Error(t, err)
}

func TestArithmeticKind(t *testing.T) {
	tests := []struct {
		name        string
		op          string
		left, right Kind
		want        Kind
		wantErr     bool
	}{
		{"numeric add", "+", Float, Float, Float, false},
		{"string concat", "+", String, Float, String, false},
		{"bytes concat", "+", Bytes, Bytes, Bytes, false},
		{"datetime shift", "+", Datetime, Timedelta, Datetime, false},
		{"datetime difference", "-", Datetime, Datetime, Timedelta, false},
		{"duration sum", "+", Timedelta, Timedelta, Timedelta, false},
		{"unknown defers", "*", Unknown, Float, Float, false},
		{"boolean arithmetic", "*", Boolean, Float, Unknown, true},
		{"string minus", "-", String, String, Unknown, true},
		{"array add", "+", ArrayOf(Float), ArrayOf(Float), Unknown, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			kind, err := ArithmeticKind(tt.op, tt.left, tt.right)
			if tt.wantErr {
				require.Error(t, err)
				assertCode(t, err, ErrArithmeticKinds)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, kind)
		})
	}
}

func TestUnaryKind(t *testing.T) {
	kind, err := UnaryKind("-", Float)
	require.NoError(t, err)
	assert.Equal(t, Float, kind)

	kind, err = UnaryKind("-", Timedelta)
	require.NoError(t, err)
	assert.Equal(t, Timedelta, kind)

	_, err = UnaryKind("-", String)
	require.Error(t, err)

	kind, err = UnaryKind("not", String)
	require.NoError(t, err)
	assert.Equal(t, Boolean, kind)
}

func TestRegexMatchKind(t *testing.T) {
	kind, err := RegexMatchKind(String, String)
	require.NoError(t, err)
	assert.Equal(t, Boolean, kind)

	_, err = RegexMatchKind(Float, String)
	require.Error(t, err)
	assertCode(t, err, ErrRegexKinds)

	_, err = RegexMatchKind(String, Float)
	require.Error(t, err)
}

func TestMembershipKind(t *testing.T) {
	kind, err := MembershipKind(Float, ArrayOf(Float))
	require.NoError(t, err)
	assert.Equal(t, Boolean, kind)

	_, err = MembershipKind(Float, ArrayOf(String))
	require.Error(t, err)
	assertCode(t, err, ErrMembershipKinds)

	_, err = MembershipKind(Float, String)
	require.Error(t, err)

	_, err = MembershipKind(String, Unknown)
	require.NoError(t, err)

	_, err = MembershipKind(String, Float)
	require.Error(t, err)
}

func TestContainerLiteralKinds(t *testing.T) {
	kind, err := ArrayLiteralKind([]Kind{String, String})
	require.NoError(t, err)
	assert.Equal(t, ArrayOf(String), kind)

	// Null and unknown members do not constrain the element kind.
	kind, err = ArrayLiteralKind([]Kind{Null, Float, Unknown})
	require.NoError(t, err)
	assert.Equal(t, ArrayOf(Float), kind)

	_, err = ArrayLiteralKind([]Kind{String, Float})
	require.Error(t, err)
	assertCode(t, err, ErrElementKinds)

	kind, err = MappingLiteralKind([]Kind{String}, []Kind{Float})
	require.NoError(t, err)
	assert.Equal(t, MappingOf(String, Float), kind)
}

func TestBranchKinds(t *testing.T) {
	assert.Equal(t, Boolean, LogicalKind(Float, String))
	assert.Equal(t, Float, CoalesceKind(Null, Float))
	assert.Equal(t, String, TernaryKind(String, String))
	assert.Equal(t, Unknown, TernaryKind(String, Float))
}

func assertCode(t *testing.T, err error, code ErrorCode) {
	t.Helper()
	var engineErr *Error
	require.ErrorAs(t, err, &engineErr)
	assert.Equal(t, code, engineErr.Code)
}
