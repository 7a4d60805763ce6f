package evaluator

import (
	"fmt"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// iterate produces the items of an iterable value in order. Mappings
// are not iterable directly to keep iteration order deterministic; use
// .keys or .values instead.
func (e *evaluation) iterate(value any, node *types.ASTNode) ([]any, error) {
	switch v := value.(type) {
	case []any:
		return v, nil
	case types.Set:
		return v, nil
	case string:
		items := make([]any, 0, len(v))
		for _, r := range v {
			items = append(items, string(r))
		}
		return items, nil
	}
	return nil, positioned(types.NewError(types.ErrNotIterable,
		fmt.Sprintf("a value of %s is not iterable", types.KindOf(value))), node)
}

// evalComprehension evaluates all comprehension forms. The bound symbol
// shadows any outer binding of the same name for the duration of the
// iteration and is restored on exit.
func (e *evaluation) evalComprehension(node *types.ASTNode) (any, error) {
	iterable, err := e.evalNode(node.RHS)
	if err != nil {
		return nil, err
	}
	items, err := e.iterate(iterable, node)
	if err != nil {
		return nil, err
	}

	e.state.pushScope(node.Name, nil)
	defer e.state.popScope()
	scope := e.state.scopes[len(e.state.scopes)-1]

	// include reports whether the optional filter admits the current item.
	include := func() (bool, error) {
		if node.Cond == nil {
			return true, nil
		}
		cond, err := e.evalNode(node.Cond)
		if err != nil {
			return false, err
		}
		return types.Truthy(cond), nil
	}

	switch node.StrValue {
	case types.CompArray:
		result := []any{}
		for _, item := range items {
			scope[node.Name] = item
			ok, err := include()
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			value, err := e.evalNode(node.LHS)
			if err != nil {
				return nil, err
			}
			result = append(result, value)
		}
		return result, nil

	case types.CompSet:
		result := types.Set{}
		for _, item := range items {
			scope[node.Name] = item
			ok, err := include()
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			value, err := e.evalNode(node.LHS)
			if err != nil {
				return nil, err
			}
			if !result.Contains(value) {
				result = append(result, value)
			}
		}
		return result, nil

	case types.CompMapping:
		result := map[string]any{}
		for _, item := range items {
			scope[node.Name] = item
			ok, err := include()
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
			key, err := e.evalNode(node.LHS)
			if err != nil {
				return nil, err
			}
			keyStr, ok := key.(string)
			if !ok {
				return nil, positioned(types.NewError(types.ErrMappingKey,
					fmt.Sprintf("mapping keys must be strings, got %s", types.KindOf(key))), node)
			}
			value, err := e.evalNode(node.Expressions[0])
			if err != nil {
				return nil, err
			}
			result[keyStr] = value
		}
		return result, nil

	case types.CompAny:
		for _, item := range items {
			scope[node.Name] = item
			cond, err := e.evalNode(node.LHS)
			if err != nil {
				return nil, err
			}
			if types.Truthy(cond) {
				return true, nil
			}
		}
		return false, nil

	case types.CompAll:
		for _, item := range items {
			scope[node.Name] = item
			cond, err := e.evalNode(node.LHS)
			if err != nil {
				return nil, err
			}
			if !types.Truthy(cond) {
				return false, nil
			}
		}
		return true, nil
	}

	return nil, positioned(types.NewError(types.ErrIncompatibleValues,
		fmt.Sprintf("unknown comprehension form %q", node.StrValue)), node)
}
