package evaluator

import "context"

// Deferred is a value that is not yet available. Resolvers, attribute
// accessors and functions may return one; the suspension-aware entry
// points (EvaluateContext and friends) await it before continuing, while
// the direct entry points reject it with an error.
type Deferred interface {
	Await(ctx context.Context) (any, error)
}

// DeferredFunc adapts a function to the Deferred interface.
type DeferredFunc func(ctx context.Context) (any, error)

func (f DeferredFunc) Await(ctx context.Context) (any, error) {
	return f(ctx)
}
