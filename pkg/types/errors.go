package types

import (
	"fmt"
	"strings"
)

// ErrorCode classifies an engine error. The leading letter groups codes into
// the broad failure classes: S for syntax/parse failures, T for static type
// failures detected at rule construction, U for symbol resolution failures,
// and D for runtime failures (D1xxx evaluation, D2xxx function invocation).
type ErrorCode string

const (
	// S0xxx: parse/syntax errors
	ErrStringNotClosed  ErrorCode = "S0101"
	ErrInvalidNumber    ErrorCode = "S0102"
	ErrInvalidEscape    ErrorCode = "S0103"
	ErrUnexpectedEnd    ErrorCode = "S0104"
	ErrInvalidDatetime  ErrorCode = "S0105"
	ErrInvalidTimedelta ErrorCode = "S0106"
	ErrRegexNotClosed   ErrorCode = "S0107"
	ErrInvalidRegex     ErrorCode = "S0108"
	ErrSyntax           ErrorCode = "S0201"
	ErrExpectedToken    ErrorCode = "S0202"

	// T0xxx: static type errors (provable at rule construction)
	ErrComparisonKinds ErrorCode = "T0101"
	ErrArithmeticKinds ErrorCode = "T0102"
	ErrRegexKinds      ErrorCode = "T0103"
	ErrMembershipKinds ErrorCode = "T0104"
	ErrElementKinds    ErrorCode = "T0105"
	ErrUnaryKinds      ErrorCode = "T0106"

	// U1xxx: symbol resolution errors
	ErrSymbolNotFound    ErrorCode = "U1001"
	ErrAttributeNotFound ErrorCode = "U1002"
	ErrBuiltinNotFound   ErrorCode = "U1003"

	// D1xxx: runtime evaluation errors
	ErrIncompatibleValues ErrorCode = "D1001"
	ErrDivisionByZero     ErrorCode = "D1002"
	ErrNonBooleanMatch    ErrorCode = "D1003"
	ErrDecimalRange       ErrorCode = "D1004"
	ErrNotIterable        ErrorCode = "D1005"
	ErrRegexRuntime       ErrorCode = "D1006"
	ErrMappingKey         ErrorCode = "D1007"
	ErrIndexKinds         ErrorCode = "D1008"

	// D2xxx: function invocation errors
	ErrInvokeNonFunction ErrorCode = "D2001"
	ErrFunctionArity     ErrorCode = "D2002"
	ErrDeferredResult    ErrorCode = "D2003"
	ErrFunctionFailed    ErrorCode = "D2004"
)

// Class returns the leading code letter ('S', 'T', 'U' or 'D').
func (c ErrorCode) Class() byte {
	if len(c) == 0 {
		return 0
	}
	return c[0]
}

// Error is the root error type of the engine. Every failure the engine
// produces either is an *Error or unwraps to one, so callers can catch
// broadly with errors.As(err, &engineErr) or narrowly by code.
type Error struct {
	Code     ErrorCode
	Message  string
	Position int // byte offset in the rule text, -1 when not applicable
	Line     int // 1-based, 0 when not applicable
	Column   int // 1-based, 0 when not applicable
	Token    string
	Err      error
}

// NewError creates a new engine error without source position information.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message, Position: -1}
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s at line %d, column %d: %s", e.Code, e.Line, e.Column, e.Message)
	}
	if e.Position >= 0 {
		return fmt.Sprintf("%s at position %d: %s", e.Code, e.Position, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// WithCause wraps another error.
func (e *Error) WithCause(err error) *Error {
	e.Err = err
	return e
}

// ParseError reports a lexical or grammar violation. It always carries the
// offending token and its line and column.
type ParseError struct {
	Err *Error
}

// NewParseError creates a parse error at the given token location.
func NewParseError(code ErrorCode, message, token string, position, line, column int) *ParseError {
	return &ParseError{Err: &Error{
		Code:     code,
		Message:  message,
		Token:    token,
		Position: position,
		Line:     line,
		Column:   column,
	}}
}

func (e *ParseError) Error() string { return e.Err.Error() }

// Unwrap exposes the root engine error.
func (e *ParseError) Unwrap() error { return e.Err }

// Token returns the offending token text (empty at end of input).
func (e *ParseError) Token() string { return e.Err.Token }

// Line returns the 1-based line of the offending token.
func (e *ParseError) Line() int { return e.Err.Line }

// Column returns the 1-based column of the offending token.
func (e *ParseError) Column() int { return e.Err.Column }

// SymbolResolutionError reports a name that could not be resolved against a
// value. Suggestions, when present, are near-miss names ranked by edit
// distance; they are advisory display data only and never change the
// outcome of the failed resolution.
type SymbolResolutionError struct {
	Err         *Error
	Symbol      string
	Thing       any
	Suggestions []string
}

// NewSymbolResolutionError creates a resolution failure for name against thing.
func NewSymbolResolutionError(code ErrorCode, name string, thing any) *SymbolResolutionError {
	return &SymbolResolutionError{
		Err:    NewError(code, fmt.Sprintf("unknown symbol %q", name)),
		Symbol: name,
		Thing:  thing,
	}
}

func (e *SymbolResolutionError) Error() string {
	if len(e.Suggestions) == 0 {
		return e.Err.Error()
	}
	quoted := make([]string, len(e.Suggestions))
	for i, s := range e.Suggestions {
		quoted[i] = fmt.Sprintf("%q", s)
	}
	return fmt.Sprintf("%s (did you mean %s?)", e.Err.Error(), strings.Join(quoted, ", "))
}

// Unwrap exposes the root engine error.
func (e *SymbolResolutionError) Unwrap() error { return e.Err }
