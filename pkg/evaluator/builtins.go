package evaluator

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// Builtins are process-wide symbols available to every rule, referenced
// with a $ prefix. They resolve before the Context resolver and cannot
// be shadowed by it.

var (
	builtinPi, _, _ = apd.NewFromString("3.141592653589793238462643383279503")
	builtinE, _, _  = apd.NewFromString("2.718281828459045235360287471352662")
)

func (e *evaluation) evalBuiltin(node *types.ASTNode) (any, error) {
	switch node.Name {
	case "re_groups":
		if e.state.regexGroups == nil {
			return nil, nil
		}
		return e.state.regexGroups, nil
	case "pi":
		return builtinPi, nil
	case "e":
		return builtinE, nil
	case "now":
		return time.Now().In(e.ec.timezone), nil
	case "today":
		now := time.Now().In(e.ec.timezone)
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, e.ec.timezone), nil
	}
	resErr := types.NewSymbolResolutionError(types.ErrBuiltinNotFound,
		"$"+node.Name, e.thing)
	resErr.Suggestions = suggest(node.Name, builtinNames())
	return nil, positioned2(resErr, node)
}

func builtinNames() []string {
	return []string{"re_groups", "pi", "e", "now", "today"}
}

// Function wraps a fixed-arity Go function as a callable rule value.
// The returned callable checks its argument count before delegating.
func Function(arity int, fn func(args ...any) (any, error)) func(...any) (any, error) {
	return func(args ...any) (any, error) {
		if len(args) != arity {
			return nil, types.NewError(types.ErrFunctionArity,
				fmt.Sprintf("function takes %d arguments, got %d", arity, len(args)))
		}
		return fn(args...)
	}
}
