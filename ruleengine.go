// Package ruleengine provides an embeddable expression language for
// filtering and matching arbitrary Go values against user-supplied rules.
//
// A rule is a single expression such as `age >= 21 and name =~ "^A"`.
// Rules are compiled once and evaluated many times against different
// inputs; a compiled Rule and its Context are safe for concurrent use.
//
// # Quick Start
//
//	// Compile once, evaluate many times
//	rule, err := ruleengine.New(`age >= 21`)
//	ok, _ := rule.Matches(map[string]any{"age": 30})
//
//	// With a shared context
//	ctx := evaluator.NewContext(evaluator.WithRegexFlags("i"))
//	rule, err := ruleengine.New(`name =~ "^a"`, ruleengine.WithContext(ctx))
//
//	// Filter a sequence lazily
//	for item, err := range rule.Filter(items) {
//	    ...
//	}
//
// For suspension-aware hosts whose resolvers produce deferred values,
// the Context-taking variants (EvaluateContext, MatchesContext,
// FilterContext) await those values; the direct variants treat a
// deferred value as a runtime error.
package ruleengine

import (
	"context"
	"fmt"
	"iter"

	"github.com/ali-kazmi85/rule-engine/pkg/cache"
	"github.com/ali-kazmi85/rule-engine/pkg/evaluator"
	"github.com/ali-kazmi85/rule-engine/pkg/parser"
	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// Version returns the current version of the module.
func Version() string {
	return "v0.1.0-dev"
}

// Rule is a compiled expression bound to an evaluation Context.
// Safe for concurrent use.
type Rule struct {
	expr *types.Expression
	ctx  *evaluator.Context
}

// Option configures rule compilation.
type Option func(*config)

type config struct {
	ctx   *evaluator.Context
	cache *cache.Cache
}

// WithContext binds the rule to an evaluation context. When unset, a
// default context with the item resolver is used.
func WithContext(ctx *evaluator.Context) Option {
	return func(c *config) {
		c.ctx = ctx
	}
}

// WithCache compiles through the given LRU cache, so repeated
// compilations of the same text under the same context settings reuse
// the parsed expression. Entries are keyed by text plus the context's
// timezone and type resolver, so one cache may serve several contexts.
func WithCache(lru *cache.Cache) Option {
	return func(c *config) {
		c.cache = lru
	}
}

// New compiles the rule text. Lexical, grammar and statically provable
// kind violations are reported here rather than at evaluation time.
func New(text string, opts ...Option) (*Rule, error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.ctx == nil {
		cfg.ctx = evaluator.NewContext()
	}

	compile := func() (*types.Expression, error) {
		return parser.Parse(text, compileOptions(cfg.ctx)...)
	}

	var expr *types.Expression
	var err error
	if cfg.cache != nil {
		expr, err = cfg.cache.GetOrCompile(cacheKey(text, cfg.ctx), compile)
	} else {
		expr, err = compile()
	}
	if err != nil {
		return nil, err
	}
	return &Rule{expr: expr, ctx: cfg.ctx}, nil
}

// MustNew is like New but panics if the rule cannot be compiled.
// It simplifies safe initialization of global variables.
func MustNew(text string, opts ...Option) *Rule {
	rule, err := New(text, opts...)
	if err != nil {
		panic(fmt.Sprintf("ruleengine: New(%q): %v", text, err))
	}
	return rule
}

// IsValid reports whether the rule text compiles under the default
// context, without retaining the compiled rule.
func IsValid(text string) bool {
	_, err := New(text)
	return err == nil
}

// cacheKey derives the cache key for text compiled under ctx. Compilation
// depends on the context's timezone (datetime literals bake it into the
// tree) and on its type resolver, so both are part of the key. Resolvers
// are distinguished by function identity.
func cacheKey(text string, ctx *evaluator.Context) string {
	key := text + "\x00" + ctx.Timezone().String()
	if tr := ctx.TypeResolver(); tr != nil {
		key += fmt.Sprintf("\x00%p", tr)
	}
	return key
}

// compileOptions adapts a Context's static configuration to the parser.
func compileOptions(ctx *evaluator.Context) []parser.CompileOption {
	opts := []parser.CompileOption{
		parser.WithTimezone(ctx.Timezone()),
	}
	if tr := ctx.TypeResolver(); tr != nil {
		opts = append(opts, parser.WithTypeHint(parser.TypeHint(tr)))
	}
	return opts
}

// Source returns the original rule text.
func (r *Rule) Source() string {
	return r.expr.Source()
}

// Evaluate runs the rule against thing and returns the raw result.
// Deferred values from the resolver are an error in this mode.
func (r *Rule) Evaluate(thing any) (any, error) {
	return evaluator.Evaluate(r.ctx, r.expr, thing)
}

// EvaluateContext runs the rule against thing, awaiting any deferred
// values the resolver or called functions produce.
func (r *Rule) EvaluateContext(ctx context.Context, thing any) (any, error) {
	return evaluator.EvaluateContext(ctx, r.ctx, r.expr, thing)
}

// Matches evaluates the rule and requires a boolean result. A
// non-boolean result is a runtime error, not an implicit truthiness
// coercion.
func (r *Rule) Matches(thing any) (bool, error) {
	result, err := r.Evaluate(thing)
	if err != nil {
		return false, err
	}
	return requireBool(result)
}

// MatchesContext is the suspension-aware variant of Matches.
func (r *Rule) MatchesContext(ctx context.Context, thing any) (bool, error) {
	result, err := r.EvaluateContext(ctx, thing)
	if err != nil {
		return false, err
	}
	return requireBool(result)
}

func requireBool(result any) (bool, error) {
	b, ok := result.(bool)
	if !ok {
		return false, types.NewError(types.ErrNonBooleanMatch,
			fmt.Sprintf("rule produced %s where a boolean was required", types.KindOf(result)))
	}
	return b, nil
}

// Filter lazily yields, in input order, each item of things for which
// the rule matches. Evaluation errors are yielded alongside the item
// that produced them; the caller decides whether to stop. Ranging over
// the result again performs a fresh pass over things.
func (r *Rule) Filter(things iter.Seq[any]) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for thing := range things {
			ok, err := r.Matches(thing)
			if err != nil {
				if !yield(thing, err) {
					return
				}
				continue
			}
			if ok && !yield(thing, nil) {
				return
			}
		}
	}
}

// FilterContext is the suspension-aware variant of Filter. It stops
// yielding when ctx is cancelled.
func (r *Rule) FilterContext(ctx context.Context, things iter.Seq[any]) iter.Seq2[any, error] {
	return func(yield func(any, error) bool) {
		for thing := range things {
			if ctx.Err() != nil {
				yield(nil, ctx.Err())
				return
			}
			ok, err := r.MatchesContext(ctx, thing)
			if err != nil {
				if !yield(thing, err) {
					return
				}
				continue
			}
			if ok && !yield(thing, nil) {
				return
			}
		}
	}
}

// FilterSlice collects the matching items of a slice, stopping at the
// first evaluation error.
func (r *Rule) FilterSlice(things []any) ([]any, error) {
	var result []any
	for _, thing := range things {
		ok, err := r.Matches(thing)
		if err != nil {
			return nil, err
		}
		if ok {
			result = append(result, thing)
		}
	}
	return result, nil
}

// Eval is a convenience function that compiles and evaluates a rule in
// a single call. For repeated evaluations of the same rule, use New.
func Eval(text string, thing any, opts ...Option) (any, error) {
	rule, err := New(text, opts...)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(thing)
}
