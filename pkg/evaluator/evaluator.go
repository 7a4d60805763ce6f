package evaluator

import (
	"context"
	"fmt"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// evaluation is a single run of an expression against a thing. It pairs
// the shared Context with run-local state and the suspension mode.
type evaluation struct {
	ctx     context.Context
	ec      *Context
	state   *evalState
	thing   any
	suspend bool
}

// Evaluate runs the expression against thing in direct mode. Any
// Deferred value produced during evaluation is an error in this mode.
func Evaluate(ec *Context, expr *types.Expression, thing any) (any, error) {
	e := &evaluation{
		ctx:   context.Background(),
		ec:    ec,
		state: newEvalState(),
		thing: thing,
	}
	return e.run(expr)
}

// EvaluateContext runs the expression against thing in suspension-aware
// mode: Deferred values returned by the resolver, by attribute access or
// by function calls are awaited with the given context before evaluation
// continues.
func EvaluateContext(ctx context.Context, ec *Context, expr *types.Expression, thing any) (any, error) {
	e := &evaluation{
		ctx:     ctx,
		ec:      ec,
		state:   newEvalState(),
		thing:   thing,
		suspend: true,
	}
	return e.run(expr)
}

func (e *evaluation) run(expr *types.Expression) (any, error) {
	if e.ec.debug {
		e.ec.logger.Debug("evaluating expression",
			"eval_id", e.state.id,
			"source", expr.Source())
	}
	result, err := e.evalNode(expr.AST())
	if err != nil {
		return nil, err
	}
	return result, nil
}

// settle resolves a Deferred value according to the evaluation mode.
// All values crossing the resolver, attribute and call boundaries pass
// through here.
func (e *evaluation) settle(value any) (any, error) {
	d, ok := value.(Deferred)
	if !ok {
		return value, nil
	}
	if !e.suspend {
		return nil, types.NewError(types.ErrDeferredResult,
			"a deferred value was produced during direct evaluation")
	}
	resolved, err := d.Await(e.ctx)
	if err != nil {
		return nil, err
	}
	// An awaited value may itself defer again.
	return e.settle(resolved)
}

func (e *evaluation) evalNode(node *types.ASTNode) (any, error) {
	select {
	case <-e.ctx.Done():
		return nil, e.ctx.Err()
	default:
	}

	if e.ec.debug {
		e.ec.logger.Debug("evaluating node",
			"eval_id", e.state.id,
			"type", node.Type,
			"op", node.Op)
	}

	switch node.Type {
	case types.NodeNull:
		return nil, nil
	case types.NodeBoolean, types.NodeFloat, types.NodeString,
		types.NodeBytes, types.NodeDatetime, types.NodeTimedelta,
		types.NodeRegex:
		return node.Value, nil
	case types.NodeSymbol:
		return e.evalSymbol(node)
	case types.NodeBuiltin:
		return e.evalBuiltin(node)
	case types.NodeAttribute:
		return e.evalAttribute(node)
	case types.NodeIndex:
		return e.evalIndex(node)
	case types.NodeUnary:
		return e.evalUnary(node)
	case types.NodeArithmetic:
		return e.evalArithmetic(node)
	case types.NodeComparison:
		return e.evalComparison(node)
	case types.NodeLogical:
		return e.evalLogical(node)
	case types.NodeRegexMatch:
		return e.evalRegexMatch(node)
	case types.NodeMembership:
		return e.evalMembership(node)
	case types.NodeCoalesce:
		return e.evalCoalesce(node)
	case types.NodeTernary:
		return e.evalTernary(node)
	case types.NodeArray:
		return e.evalArrayLiteral(node)
	case types.NodeSet:
		return e.evalSetLiteral(node)
	case types.NodeMapping:
		return e.evalMappingLiteral(node)
	case types.NodeComprehension:
		return e.evalComprehension(node)
	case types.NodeCall:
		return e.evalCall(node)
	default:
		return nil, types.NewError(types.ErrIncompatibleValues,
			fmt.Sprintf("unsupported node type %q", node.Type))
	}
}

// evalSymbol resolves a name through the comprehension scopes and then
// the Context resolver. Resolved values are settled and normalized.
func (e *evaluation) evalSymbol(node *types.ASTNode) (any, error) {
	if value, ok := e.state.lookup(node.Name); ok {
		return value, nil
	}

	value, err := e.ec.resolver.Resolve(e.thing, node.Name)
	if err != nil {
		return nil, positioned2(e.enrichSymbolError(err, node.Name), node)
	}
	value, err = e.settle(value)
	if err != nil {
		return nil, err
	}
	return types.Normalize(value), nil
}

// enrichSymbolError attaches suggestions to a symbol resolution failure
// when the resolver can enumerate the available names.
func (e *evaluation) enrichSymbolError(err error, name string) error {
	resErr, ok := err.(*types.SymbolResolutionError)
	if !ok {
		return err
	}
	if len(resErr.Suggestions) > 0 {
		return resErr
	}
	var candidates []string
	if enum, ok := e.ec.resolver.(SymbolEnumerator); ok {
		candidates = enum.Symbols(e.thing)
	}
	candidates = append(candidates, e.state.boundSymbols()...)
	clone := *resErr
	clone.Suggestions = suggest(name, candidates)
	return &clone
}

func (e *evaluation) evalTernary(node *types.ASTNode) (any, error) {
	cond, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}
	if types.Truthy(cond) {
		return e.evalNode(node.RHS)
	}
	return e.evalNode(node.Expressions[0])
}

func (e *evaluation) evalCoalesce(node *types.ASTNode) (any, error) {
	left, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}
	if left != nil {
		return left, nil
	}
	return e.evalNode(node.RHS)
}

func (e *evaluation) evalArrayLiteral(node *types.ASTNode) (any, error) {
	result := make([]any, 0, len(node.Expressions))
	for _, expr := range node.Expressions {
		value, err := e.evalNode(expr)
		if err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, nil
}

func (e *evaluation) evalSetLiteral(node *types.ASTNode) (any, error) {
	set := types.Set{}
	for _, expr := range node.Expressions {
		value, err := e.evalNode(expr)
		if err != nil {
			return nil, err
		}
		if !set.Contains(value) {
			set = append(set, value)
		}
	}
	return set, nil
}

func (e *evaluation) evalMappingLiteral(node *types.ASTNode) (any, error) {
	result := make(map[string]any, len(node.Expressions)/2)
	for i := 0; i < len(node.Expressions); i += 2 {
		key, err := e.evalNode(node.Expressions[i])
		if err != nil {
			return nil, err
		}
		keyStr, ok := key.(string)
		if !ok {
			return nil, positioned(types.NewError(types.ErrMappingKey,
				fmt.Sprintf("mapping keys must be strings, got %s", types.KindOf(key))), node)
		}
		value, err := e.evalNode(node.Expressions[i+1])
		if err != nil {
			return nil, err
		}
		result[keyStr] = value
	}
	return result, nil
}

// evalCall invokes a function value. Matching the resolver boundary, a
// Deferred result is awaited in suspension-aware mode.
func (e *evaluation) evalCall(node *types.ASTNode) (any, error) {
	callee, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}

	args := make([]any, len(node.Arguments))
	for i, argNode := range node.Arguments {
		arg, err := e.evalNode(argNode)
		if err != nil {
			return nil, err
		}
		args[i] = arg
	}

	fn, ok := callee.(func(...any) (any, error))
	if !ok {
		return nil, positioned(types.NewError(types.ErrInvokeNonFunction,
			fmt.Sprintf("value of %s cannot be called", types.KindOf(callee))), node)
	}

	result, err := fn(args...)
	if err != nil {
		if _, ok := err.(*types.Error); ok {
			return nil, err
		}
		return nil, positioned(types.NewError(types.ErrFunctionFailed,
			"function call failed").WithCause(err), node)
	}

	result, err = e.settle(result)
	if err != nil {
		return nil, err
	}
	return types.Normalize(result), nil
}

// positioned copies a node's source location onto an error.
func positioned(err *types.Error, node *types.ASTNode) *types.Error {
	err.Position = node.Position
	err.Line = node.Line
	err.Column = node.Column
	return err
}
