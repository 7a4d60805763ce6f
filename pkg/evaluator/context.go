// Package evaluator executes compiled rule expressions against values
// supplied by a Resolver. A Context carries the shared, reusable
// configuration for evaluation; the per-evaluation state lives in an
// internal structure created for each run, so a single Context is safe
// for concurrent use across goroutines.
package evaluator

import (
	"io"
	"log/slog"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// Resolver supplies values for symbols referenced by an expression.
// thing is the object the expression is being evaluated against.
type Resolver interface {
	Resolve(thing any, name string) (any, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(thing any, name string) (any, error)

func (f ResolverFunc) Resolve(thing any, name string) (any, error) {
	return f(thing, name)
}

// SymbolEnumerator is an optional capability a Resolver can implement to
// enable "did you mean" suggestions when a symbol is not found.
type SymbolEnumerator interface {
	Symbols(thing any) []string
}

// TypeResolver supplies static kind information for named symbols,
// enabling compile-time checks against symbols the resolver will
// provide at runtime.
type TypeResolver func(name string) (types.Kind, bool)

// Context holds the reusable evaluation configuration. The zero value
// is not usable; create one with NewContext.
type Context struct {
	resolver     Resolver
	typeResolver TypeResolver
	regexFlags   string
	timezone     *time.Location
	decCtx       *apd.Context
	logger       *slog.Logger
	debug        bool
}

// Option configures a Context.
type Option func(*Context)

// WithResolver sets the symbol resolver. When unset, symbols resolve
// through the default item resolver, which treats the evaluated thing
// as a string-keyed mapping.
func WithResolver(r Resolver) Option {
	return func(c *Context) {
		c.resolver = r
	}
}

// WithTypeResolver sets a resolver for static symbol kinds, checked at
// compile time.
func WithTypeResolver(tr TypeResolver) Option {
	return func(c *Context) {
		c.typeResolver = tr
	}
}

// WithRegexFlags sets regex flags applied to every string match pattern,
// using Go's inline flag syntax (for example "i" for case-insensitive,
// "s" to let . match newlines).
func WithRegexFlags(flags string) Option {
	return func(c *Context) {
		c.regexFlags = flags
	}
}

// WithTimezone sets the location used for datetime literals without an
// explicit offset and for the $now and $today builtins. Defaults to UTC.
func WithTimezone(loc *time.Location) Option {
	return func(c *Context) {
		if loc != nil {
			c.timezone = loc
		}
	}
}

// WithPrecision sets the decimal arithmetic precision in significant
// digits. Defaults to 34 (IEEE 754 decimal128).
func WithPrecision(digits uint32) Option {
	return func(c *Context) {
		decCtx := apd.BaseContext.WithPrecision(digits)
		c.decCtx = decCtx
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Context) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithDebug enables per-node debug logging.
func WithDebug(debug bool) Option {
	return func(c *Context) {
		c.debug = debug
	}
}

// NewContext creates an evaluation context with the given options.
func NewContext(opts ...Option) *Context {
	c := &Context{
		timezone: time.UTC,
		decCtx:   apd.BaseContext.WithPrecision(34),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.resolver == nil {
		c.resolver = ItemResolver{}
	}
	return c
}

// Resolver returns the configured symbol resolver.
func (c *Context) Resolver() Resolver { return c.resolver }

// TypeResolver returns the configured static kind resolver, or nil.
func (c *Context) TypeResolver() TypeResolver { return c.typeResolver }

// Timezone returns the configured location.
func (c *Context) Timezone() *time.Location { return c.timezone }

// DecimalContext returns the apd context governing arithmetic.
func (c *Context) DecimalContext() *apd.Context { return c.decCtx }
