package evaluator

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

func (e *evaluation) evalUnary(node *types.ASTNode) (any, error) {
	operand, err := e.evalNode(node.RHS)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "not":
		return !types.Truthy(operand), nil
	case "-":
		switch v := operand.(type) {
		case *apd.Decimal:
			result := new(apd.Decimal)
			if _, err := e.ec.decCtx.Neg(result, v); err != nil {
				return nil, positioned(types.NewError(types.ErrDecimalRange,
					"negation failed").WithCause(err), node)
			}
			return result, nil
		case time.Duration:
			return -v, nil
		}
		return nil, positioned(types.NewError(types.ErrIncompatibleValues,
			fmt.Sprintf("cannot negate a value of %s", types.KindOf(operand))), node)
	}
	return nil, positioned(types.NewError(types.ErrIncompatibleValues,
		fmt.Sprintf("unknown unary operator %q", node.Op)), node)
}

func (e *evaluation) evalArithmetic(node *types.ASTNode) (any, error) {
	left, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}
	right, err := e.evalNode(node.RHS)
	if err != nil {
		return nil, err
	}

	// Non-numeric forms of + and -. Concatenation coerces the other
	// operand to string; this is one of the enumerated coercion boundaries.
	if node.Op == "+" {
		_, lstr := left.(string)
		_, rstr := right.(string)
		if lstr || rstr {
			lc, err := types.Coerce(left, types.String)
			if err != nil {
				return nil, positioned(err.(*types.Error), node)
			}
			rc, err := types.Coerce(right, types.String)
			if err != nil {
				return nil, positioned(err.(*types.Error), node)
			}
			ls, lok := lc.(string)
			rs, rok := rc.(string)
			if !lok || !rok {
				return nil, positioned(types.NewError(types.ErrIncompatibleValues,
					fmt.Sprintf("cannot concatenate %s and %s",
						types.KindOf(left), types.KindOf(right))), node)
			}
			return ls + rs, nil
		}
	}
	switch l := left.(type) {
	case []byte:
		if r, ok := right.([]byte); ok && node.Op == "+" {
			return append(append([]byte{}, l...), r...), nil
		}
	case time.Time:
		if r, ok := right.(time.Duration); ok {
			switch node.Op {
			case "+":
				return l.Add(r), nil
			case "-":
				return l.Add(-r), nil
			}
		}
		if r, ok := right.(time.Time); ok && node.Op == "-" {
			return l.Sub(r), nil
		}
	case time.Duration:
		if r, ok := right.(time.Duration); ok {
			switch node.Op {
			case "+":
				return l + r, nil
			case "-":
				return l - r, nil
			}
		}
	}

	ld, lok := left.(*apd.Decimal)
	rd, rok := right.(*apd.Decimal)
	if !lok || !rok {
		return nil, positioned(types.NewError(types.ErrIncompatibleValues,
			fmt.Sprintf("cannot apply %q to %s and %s",
				node.Op, types.KindOf(left), types.KindOf(right))), node)
	}

	result := new(apd.Decimal)
	var cond apd.Condition
	switch node.Op {
	case "+":
		cond, err = e.ec.decCtx.Add(result, ld, rd)
	case "-":
		cond, err = e.ec.decCtx.Sub(result, ld, rd)
	case "*":
		cond, err = e.ec.decCtx.Mul(result, ld, rd)
	case "/":
		if rd.IsZero() {
			return nil, positioned(types.NewError(types.ErrDivisionByZero,
				"division by zero"), node)
		}
		cond, err = e.ec.decCtx.Quo(result, ld, rd)
	case "%":
		if rd.IsZero() {
			return nil, positioned(types.NewError(types.ErrDivisionByZero,
				"modulo by zero"), node)
		}
		cond, err = e.ec.decCtx.Rem(result, ld, rd)
	case "**":
		cond, err = e.ec.decCtx.Pow(result, ld, rd)
	default:
		return nil, positioned(types.NewError(types.ErrIncompatibleValues,
			fmt.Sprintf("unknown arithmetic operator %q", node.Op)), node)
	}
	if err != nil {
		return nil, positioned(types.NewError(types.ErrDecimalRange,
			fmt.Sprintf("arithmetic %q failed", node.Op)).WithCause(err), node)
	}
	if _, trapErr := cond.GoError(apd.DefaultTraps); trapErr != nil {
		return nil, positioned(types.NewError(types.ErrDecimalRange,
			fmt.Sprintf("arithmetic %q out of range", node.Op)).WithCause(trapErr), node)
	}
	return result, nil
}

func (e *evaluation) evalComparison(node *types.ASTNode) (any, error) {
	left, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}
	right, err := e.evalNode(node.RHS)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "==":
		return types.Equal(left, right), nil
	case "!=":
		return !types.Equal(left, right), nil
	}

	cmp, err := types.Compare(left, right)
	if err != nil {
		if engineErr, ok := err.(*types.Error); ok {
			return nil, positioned(engineErr, node)
		}
		return nil, err
	}
	switch node.Op {
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	case ">=":
		return cmp >= 0, nil
	}
	return nil, positioned(types.NewError(types.ErrIncompatibleValues,
		fmt.Sprintf("unknown comparison operator %q", node.Op)), node)
}

// evalLogical applies and/or with short-circuit semantics. The result
// is always a boolean, not the operand value.
func (e *evaluation) evalLogical(node *types.ASTNode) (any, error) {
	left, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}

	switch node.Op {
	case "and":
		if !types.Truthy(left) {
			return false, nil
		}
	case "or":
		if types.Truthy(left) {
			return true, nil
		}
	default:
		return nil, positioned(types.NewError(types.ErrIncompatibleValues,
			fmt.Sprintf("unknown logical operator %q", node.Op)), node)
	}

	right, err := e.evalNode(node.RHS)
	if err != nil {
		return nil, err
	}
	return types.Truthy(right), nil
}

func (e *evaluation) evalMembership(node *types.ASTNode) (any, error) {
	member, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}
	container, err := e.evalNode(node.RHS)
	if err != nil {
		return nil, err
	}

	switch c := container.(type) {
	case string:
		m, ok := member.(string)
		if !ok {
			return nil, positioned(types.NewError(types.ErrIncompatibleValues,
				fmt.Sprintf("cannot search a string for a value of %s", types.KindOf(member))), node)
		}
		return strings.Contains(c, m), nil
	case []byte:
		m, ok := member.([]byte)
		if !ok {
			return nil, positioned(types.NewError(types.ErrIncompatibleValues,
				fmt.Sprintf("cannot search bytes for a value of %s", types.KindOf(member))), node)
		}
		return bytes.Contains(c, m), nil
	case []any:
		for _, item := range c {
			if types.Equal(member, item) {
				return true, nil
			}
		}
		return false, nil
	case types.Set:
		return c.Contains(member), nil
	case map[string]any:
		m, ok := member.(string)
		if !ok {
			return false, nil
		}
		_, present := c[m]
		return present, nil
	}
	return nil, positioned(types.NewError(types.ErrNotIterable,
		fmt.Sprintf("a value of %s is not a container", types.KindOf(container))), node)
}

func (e *evaluation) evalIndex(node *types.ASTNode) (any, error) {
	base, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}
	index, err := e.evalNode(node.RHS)
	if err != nil {
		return nil, err
	}

	switch b := base.(type) {
	case []any:
		i, err := e.indexOffset(index, len(b), node)
		if err != nil {
			return nil, err
		}
		return b[i], nil
	case types.Set:
		i, err := e.indexOffset(index, len(b), node)
		if err != nil {
			return nil, err
		}
		return b[i], nil
	case string:
		runes := []rune(b)
		i, err := e.indexOffset(index, len(runes), node)
		if err != nil {
			return nil, err
		}
		return string(runes[i]), nil
	case []byte:
		i, err := e.indexOffset(index, len(b), node)
		if err != nil {
			return nil, err
		}
		return []byte{b[i]}, nil
	case map[string]any:
		key, ok := index.(string)
		if !ok {
			return nil, positioned(types.NewError(types.ErrIndexKinds,
				fmt.Sprintf("mapping index must be a string, got %s", types.KindOf(index))), node)
		}
		value, present := b[key]
		if !present {
			return nil, positioned(types.NewError(types.ErrMappingKey,
				fmt.Sprintf("key %q not present", key)), node)
		}
		return value, nil
	}
	return nil, positioned(types.NewError(types.ErrIndexKinds,
		fmt.Sprintf("a value of %s is not indexable", types.KindOf(base))), node)
}

// indexOffset converts a decimal index into a bounds-checked offset.
// Negative indexes count from the end.
func (e *evaluation) indexOffset(index any, length int, node *types.ASTNode) (int, error) {
	d, ok := index.(*apd.Decimal)
	if !ok {
		return 0, positioned(types.NewError(types.ErrIndexKinds,
			fmt.Sprintf("index must be a number, got %s", types.KindOf(index))), node)
	}
	i64, err := d.Int64()
	if err != nil {
		return 0, positioned(types.NewError(types.ErrIndexKinds,
			"index must be a whole number").WithCause(err), node)
	}
	i := int(i64)
	if i < 0 {
		i += length
	}
	if i < 0 || i >= length {
		return 0, positioned(types.NewError(types.ErrIndexKinds,
			fmt.Sprintf("index %d out of range for length %d", i64, length)), node)
	}
	return i, nil
}
