// Package parser implements the lexer and grammar of the rule language.
//
// The parser uses a hand-written recursive descent approach with Pratt
// operator precedence. Parsing performs the static kind checks: literal
// and structural nodes carry a statically inferred result kind, and a
// provable kind mismatch aborts compilation with a T-class error.
//
// # Example
//
//	expr, err := parser.Parse(`age >= 18 and name =~ "^A"`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ast := expr.AST()
package parser

import (
	"time"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// TypeHint supplies an advisory static kind for a top-level symbol. It is
// consulted by the static checker for symbol nodes; a reported kind
// participates in construction-time checks but never overrides a
// literal-provable one.
type TypeHint func(name string) (types.Kind, bool)

// Parse parses a rule expression and returns the compiled Expression.
//
// The function tokenizes the input, builds a syntax tree and applies the
// static kind checks. On failure it returns a *types.ParseError (syntax)
// or a T-class *types.Error (provable kind mismatch).
func Parse(text string, opts ...CompileOption) (*types.Expression, error) {
	p := NewParser(text, opts...)
	return p.Parse()
}

// CompileOption configures compilation behavior.
type CompileOption func(*CompileOptions)

// CompileOptions holds parser configuration.
type CompileOptions struct {
	// Timezone is the location used to interpret datetime literals that
	// carry no explicit offset. Defaults to time.UTC.
	Timezone *time.Location
	// TypeHint supplies advisory symbol kinds for the static checker.
	TypeHint TypeHint
	// MaxDepth limits expression nesting to prevent stack exhaustion.
	MaxDepth int
}

// WithTimezone sets the location for offset-less datetime literals.
func WithTimezone(loc *time.Location) CompileOption {
	return func(opts *CompileOptions) {
		opts.Timezone = loc
	}
}

// WithTypeHint installs an advisory symbol kind source.
func WithTypeHint(hint TypeHint) CompileOption {
	return func(opts *CompileOptions) {
		opts.TypeHint = hint
	}
}

// WithMaxDepth sets the maximum expression nesting depth.
func WithMaxDepth(depth int) CompileOption {
	return func(opts *CompileOptions) {
		opts.MaxDepth = depth
	}
}
