package evaluator

import (
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// evalAttribute dispatches attribute access through the built-in
// capability table for the base value's kind, falling back to the
// Context resolver for anything the table does not cover.
func (e *evaluation) evalAttribute(node *types.ASTNode) (any, error) {
	base, err := e.evalNode(node.LHS)
	if err != nil {
		return nil, err
	}

	if value, ok, err := builtinAttribute(base, node.Name); ok || err != nil {
		if err != nil {
			if engineErr, ok := err.(*types.Error); ok {
				return nil, positioned(engineErr, node)
			}
			return nil, err
		}
		return value, nil
	}

	value, err := e.ec.resolver.Resolve(base, node.Name)
	if err != nil {
		return nil, positioned2(e.enrichAttributeError(err, base, node.Name), node)
	}
	value, err = e.settle(value)
	if err != nil {
		return nil, err
	}
	return types.Normalize(value), nil
}

// enrichAttributeError adds near-miss suggestions drawn from both the
// built-in attributes of the base's kind and the resolver's enumeration.
func (e *evaluation) enrichAttributeError(err error, base any, name string) error {
	resErr, ok := err.(*types.SymbolResolutionError)
	if !ok {
		return err
	}
	if len(resErr.Suggestions) > 0 {
		return resErr
	}
	candidates := types.Attributes(types.KindOf(base))
	if enum, ok := e.ec.resolver.(SymbolEnumerator); ok {
		candidates = append(candidates, enum.Symbols(base)...)
	}
	clone := *resErr
	clone.Suggestions = suggest(name, candidates)
	return &clone
}

// positioned2 attaches a node location to the root error of a
// resolution failure, leaving other errors untouched. Errors are
// copied first; a resolver may hand back a shared error value, and
// mutating it would race across concurrent evaluations.
func positioned2(err error, node *types.ASTNode) error {
	if resErr, ok := err.(*types.SymbolResolutionError); ok {
		clone := *resErr
		if resErr.Err != nil {
			root := *resErr.Err
			clone.Err = positioned(&root, node)
		}
		return &clone
	}
	if engineErr, ok := err.(*types.Error); ok {
		clone := *engineErr
		return positioned(&clone, node)
	}
	return err
}

// builtinAttribute serves the attributes every value of a kind exposes.
// The boolean reports whether the attribute was handled here; a false
// return sends the lookup to the resolver.
func builtinAttribute(base any, name string) (any, bool, error) {
	switch v := base.(type) {
	case string:
		switch name {
		case "length":
			return decimalFromInt(len([]rune(v))), true, nil
		case "is_empty":
			return v == "", true, nil
		case "as_lower":
			return strings.ToLower(v), true, nil
		case "as_upper":
			return strings.ToUpper(v), true, nil
		case "as_bytes":
			return []byte(v), true, nil
		}
	case []byte:
		switch name {
		case "length":
			return decimalFromInt(len(v)), true, nil
		case "is_empty":
			return len(v) == 0, true, nil
		case "as_string":
			return string(v), true, nil
		}
	case []any:
		switch name {
		case "length":
			return decimalFromInt(len(v)), true, nil
		case "is_empty":
			return len(v) == 0, true, nil
		case "to_set":
			return types.NewSet(v...), true, nil
		}
	case types.Set:
		switch name {
		case "length":
			return decimalFromInt(len(v)), true, nil
		case "is_empty":
			return len(v) == 0, true, nil
		case "to_array":
			return []any(append([]any{}, v...)), true, nil
		}
	case map[string]any:
		switch name {
		case "length":
			return decimalFromInt(len(v)), true, nil
		case "is_empty":
			return len(v) == 0, true, nil
		case "keys":
			keys := make([]any, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sortStrings(keys)
			return keys, true, nil
		case "values":
			keys := make([]any, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sortStrings(keys)
			values := make([]any, 0, len(v))
			for _, k := range keys {
				values = append(values, v[k.(string)])
			}
			return values, true, nil
		}
	case time.Time:
		switch name {
		case "year":
			return decimalFromInt(v.Year()), true, nil
		case "month":
			return decimalFromInt(int(v.Month())), true, nil
		case "day":
			return decimalFromInt(v.Day()), true, nil
		case "hour":
			return decimalFromInt(v.Hour()), true, nil
		case "minute":
			return decimalFromInt(v.Minute()), true, nil
		case "second":
			return decimalFromInt(v.Second()), true, nil
		case "weekday":
			return v.Weekday().String(), true, nil
		case "date":
			y, m, d := v.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, v.Location()), true, nil
		case "to_epoch":
			return decimalFromInt64(v.Unix()), true, nil
		}
	case time.Duration:
		switch name {
		case "days":
			return decimalFromInt64(int64(v / (24 * time.Hour))), true, nil
		case "seconds":
			return decimalFromInt64(int64(v/time.Second) % (24 * 60 * 60)), true, nil
		case "total_seconds":
			d := new(apd.Decimal)
			d.SetFinite(v.Nanoseconds(), -9)
			reduced, _ := d.Reduce(d)
			return reduced, true, nil
		}
	}
	return nil, false, nil
}

func decimalFromInt(i int) *apd.Decimal {
	return apd.New(int64(i), 0)
}

func decimalFromInt64(i int64) *apd.Decimal {
	return apd.New(i, 0)
}

// sortStrings orders a slice of string-valued any items, keeping mapping
// key iteration deterministic.
func sortStrings(items []any) {
	sort.Slice(items, func(i, j int) bool {
		return items[i].(string) < items[j].(string)
	})
}
