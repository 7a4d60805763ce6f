package types

import (
	"bytes"
	"fmt"
	"reflect"
	"strconv"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// Set is an insertion-ordered collection of distinct values. Distinctness
// is decided by Equal, so numerically equal decimals collapse to one member.
type Set []any

// NewSet builds a set from items, dropping duplicates while preserving the
// order of first appearance. Items must already be normalized.
func NewSet(items ...any) Set {
	s := make(Set, 0, len(items))
	for _, item := range items {
		if !s.Contains(item) {
			s = append(s, item)
		}
	}
	return s
}

// Contains reports whether the set holds a member equal to item.
func (s Set) Contains(item any) bool {
	for _, member := range s {
		if Equal(member, item) {
			return true
		}
	}
	return false
}

// Normalize converts a host-supplied value into the engine's canonical
// representation: numbers become *apd.Decimal, arbitrary slices become
// []any and string-keyed maps become map[string]any, all recursively.
// Values the engine has no canonical form for (structs, functions, channels)
// pass through untouched for the resolver to interpret.
func Normalize(value any) any {
	switch v := value.(type) {
	case nil, bool, string, []byte, time.Time, time.Duration, *apd.Decimal, Set:
		return v
	case apd.Decimal:
		return &v
	case float64:
		d := new(apd.Decimal)
		d.SetFloat64(v) //nolint:errcheck // never fails for finite floats
		return d
	case float32:
		d := new(apd.Decimal)
		d.SetFloat64(float64(v)) //nolint:errcheck
		return d
	case int:
		return apd.New(int64(v), 0)
	case int8:
		return apd.New(int64(v), 0)
	case int16:
		return apd.New(int64(v), 0)
	case int32:
		return apd.New(int64(v), 0)
	case int64:
		return apd.New(v, 0)
	case uint:
		return decimalFromUint(uint64(v))
	case uint8:
		return apd.New(int64(v), 0)
	case uint16:
		return apd.New(int64(v), 0)
	case uint32:
		return apd.New(int64(v), 0)
	case uint64:
		return decimalFromUint(v)
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			out[k] = Normalize(item)
		}
		return out
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = Normalize(rv.Index(i).Interface())
		}
		return out
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			out := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().String()] = Normalize(iter.Value().Interface())
			}
			return out
		}
	case reflect.Ptr:
		if !rv.IsNil() {
			return Normalize(rv.Elem().Interface())
		}
		return nil
	}
	return value
}

func decimalFromUint(v uint64) *apd.Decimal {
	d, _, err := apd.NewFromString(strconv.FormatUint(v, 10))
	if err != nil {
		return apd.New(0, 0)
	}
	return d
}

// Equal reports value equality on normalized values. Decimals compare
// numerically, arrays compare element-wise in order, sets compare as
// unordered collections and mappings compare key-wise.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case *apd.Decimal:
		bv, ok := b.(*apd.Decimal)
		return ok && av.Cmp(bv) == 0
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case time.Duration:
		bv, ok := b.(time.Duration)
		return ok && av == bv
	case Set:
		bv, ok := b.(Set)
		if !ok || len(av) != len(bv) {
			return false
		}
		for _, member := range av {
			if !bv.Contains(member) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case map[string]any:
		bv, ok := b.(map[string]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for k, item := range av {
			other, present := bv[k]
			if !present || !Equal(item, other) {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Truthy reports the boolean interpretation of a normalized value: null and
// empty or zero values are false, everything else is true.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case []byte:
		return len(v) > 0
	case *apd.Decimal:
		return !v.IsZero()
	case time.Duration:
		return v != 0
	case []any:
		return len(v) > 0
	case Set:
		return len(v) > 0
	case map[string]any:
		return len(v) > 0
	default:
		return true
	}
}

// Compare orders two normalized values of the same ordered kind. It returns
// a negative, zero or positive integer in the usual way, or an error when
// the values are not mutually orderable.
func Compare(a, b any) (int, error) {
	switch av := a.(type) {
	case *apd.Decimal:
		if bv, ok := b.(*apd.Decimal); ok {
			return av.Cmp(bv), nil
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1, nil
			case av > bv:
				return 1, nil
			default:
				return 0, nil
			}
		}
	case []byte:
		if bv, ok := b.([]byte); ok {
			return bytes.Compare(av, bv), nil
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv), nil
		}
	case time.Duration:
		if bv, ok := b.(time.Duration); ok {
			switch {
			case av < bv:
				return -1, nil
			case av > bv:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, NewError(ErrIncompatibleValues,
		fmt.Sprintf("cannot order %s and %s values", KindOf(a), KindOf(b)))
}

// Coerce converts a normalized value to the target kind at an enumerated
// operator boundary. Coercion is never applied implicitly elsewhere.
func Coerce(value any, target Kind) (any, error) {
	// Null is statically compatible with every kind, but there is no
	// concrete value to convert it to at runtime.
	if value == nil {
		if target.Tag == KindNull || target.Tag == KindUnknown {
			return nil, nil
		}
		return nil, NewError(ErrIncompatibleValues,
			fmt.Sprintf("cannot coerce null to %s", target))
	}
	if Compatible(target, KindOf(value)) {
		return value, nil
	}
	switch target.Tag {
	case KindString:
		switch v := value.(type) {
		case *apd.Decimal:
			return v.Text('f'), nil
		case bool:
			if v {
				return "true", nil
			}
			return "false", nil
		case []byte:
			return string(v), nil
		}
	case KindBytes:
		if v, ok := value.(string); ok {
			return []byte(v), nil
		}
	case KindFloat:
		switch v := value.(type) {
		case string:
			d, _, err := apd.NewFromString(v)
			if err != nil {
				return nil, NewError(ErrIncompatibleValues,
					fmt.Sprintf("cannot coerce %q to float", v))
			}
			return d, nil
		case bool:
			if v {
				return apd.New(1, 0), nil
			}
			return apd.New(0, 0), nil
		}
	case KindBoolean:
		return Truthy(value), nil
	case KindArray:
		if v, ok := value.(Set); ok {
			return []any(v), nil
		}
	case KindSet:
		if v, ok := value.([]any); ok {
			return NewSet(v...), nil
		}
	}
	return nil, NewError(ErrIncompatibleValues,
		fmt.Sprintf("cannot coerce %s value to %s", KindOf(value), target))
}
