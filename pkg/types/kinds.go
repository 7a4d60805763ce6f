package types

import (
	"reflect"
	"strings"
	"time"

	"github.com/cockroachdb/apd/v3"
)

// KindTag identifies the coarse shape of a value.
type KindTag uint8

// Scalar and compound kind tags. KindUnknown is the zero value and means
// "no static information": it is compatible with every kind.
const (
	KindUnknown KindTag = iota
	KindUndefined
	KindNull
	KindBoolean
	KindFloat
	KindString
	KindBytes
	KindDatetime
	KindTimedelta
	KindArray
	KindSet
	KindMapping
	KindFunction
)

// String returns the lowercase name of the kind tag.
func (kt KindTag) String() string {
	switch kt {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBytes:
		return "bytes"
	case KindDatetime:
		return "datetime"
	case KindTimedelta:
		return "timedelta"
	case KindArray:
		return "array"
	case KindSet:
		return "set"
	case KindMapping:
		return "mapping"
	case KindFunction:
		return "function"
	default:
		return "unknown"
	}
}

// Kind is a tagged, possibly parameterized description of a value's shape.
// It doubles as a runtime tag (derived from a concrete value by KindOf) and
// a type declaration (built with ArrayOf, MappingOf, and friends).
//
// Compound kinds carry nested kinds: Elem for array/set elements and mapping
// values, Key for mapping keys, Args and Ret for functions. A nil nested
// pointer means the parameter is unspecified (a coarse tag).
type Kind struct {
	Tag  KindTag
	Key  *Kind  // mapping key kind
	Elem *Kind  // array/set element kind, mapping value kind
	Args []Kind // function argument kinds (nil when unspecified)
	Ret  *Kind  // function return kind
}

// Predeclared scalar kinds.
var (
	Unknown   = Kind{Tag: KindUnknown}
	Undefined = Kind{Tag: KindUndefined}
	Null      = Kind{Tag: KindNull}
	Boolean   = Kind{Tag: KindBoolean}
	Float     = Kind{Tag: KindFloat}
	String    = Kind{Tag: KindString}
	Bytes     = Kind{Tag: KindBytes}
	Datetime  = Kind{Tag: KindDatetime}
	Timedelta = Kind{Tag: KindTimedelta}
)

// ArrayOf returns the kind of an array with the given element kind.
func ArrayOf(elem Kind) Kind {
	return Kind{Tag: KindArray, Elem: &elem}
}

// SetOf returns the kind of a set with the given element kind.
func SetOf(elem Kind) Kind {
	return Kind{Tag: KindSet, Elem: &elem}
}

// MappingOf returns the kind of a mapping with the given key and value kinds.
func MappingOf(key, value Kind) Kind {
	return Kind{Tag: KindMapping, Key: &key, Elem: &value}
}

// FunctionOf returns the kind of a function with the given argument and
// return kinds. Pass args == nil for a function of unspecified arity.
func FunctionOf(args []Kind, ret Kind) Kind {
	return Kind{Tag: KindFunction, Args: args, Ret: &ret}
}

// String renders the kind, e.g. "array(string)" or "mapping(string, float)".
func (k Kind) String() string {
	switch k.Tag {
	case KindArray, KindSet:
		if k.Elem == nil {
			return k.Tag.String()
		}
		return k.Tag.String() + "(" + k.Elem.String() + ")"
	case KindMapping:
		if k.Key == nil && k.Elem == nil {
			return k.Tag.String()
		}
		key, val := Unknown, Unknown
		if k.Key != nil {
			key = *k.Key
		}
		if k.Elem != nil {
			val = *k.Elem
		}
		return "mapping(" + key.String() + ", " + val.String() + ")"
	case KindFunction:
		if k.Args == nil && k.Ret == nil {
			return "function"
		}
		parts := make([]string, len(k.Args))
		for i, a := range k.Args {
			parts[i] = a.String()
		}
		ret := Unknown
		if k.Ret != nil {
			ret = *k.Ret
		}
		return "function(" + strings.Join(parts, ", ") + ") " + ret.String()
	default:
		return k.Tag.String()
	}
}

// IsScalar reports whether the kind is one of the scalar tags.
func (k Kind) IsScalar() bool {
	switch k.Tag {
	case KindNull, KindBoolean, KindFloat, KindString, KindBytes, KindDatetime, KindTimedelta:
		return true
	default:
		return false
	}
}

// IsCompound reports whether the kind is parameterized (array, set, mapping
// or function).
func (k Kind) IsCompound() bool {
	switch k.Tag {
	case KindArray, KindSet, KindMapping, KindFunction:
		return true
	default:
		return false
	}
}

// IsDefinition reports whether the kind fully specifies a declared shape.
// Scalar kinds trivially do; compound kinds qualify only when every nested
// parameter is present and itself a definition. A bare "array" tag with no
// element kind is a coarse runtime tag, not a definition.
func (k Kind) IsDefinition() bool {
	switch k.Tag {
	case KindUnknown, KindUndefined:
		return false
	case KindArray, KindSet:
		return k.Elem != nil && k.Elem.Tag != KindUnknown && k.Elem.IsDefinition()
	case KindMapping:
		return k.Key != nil && k.Key.IsDefinition() && k.Elem != nil && k.Elem.IsDefinition()
	case KindFunction:
		if k.Ret == nil || !k.Ret.IsDefinition() {
			return false
		}
		for _, a := range k.Args {
			if !a.IsDefinition() {
				return false
			}
		}
		return k.Args != nil
	default:
		return true
	}
}

// Compatible reports whether a value of kind actual may appear where kind
// expected is required.
//
// The rules:
//   - unknown (no static information) is compatible with everything
//   - undefined is compatible with nothing, itself included
//   - null is compatible with every concrete kind
//   - scalar kinds are compatible only with themselves
//   - compound kinds require the same tag and pairwise compatible
//     parameters (covariant element checking); an absent parameter acts
//     as a wildcard
func Compatible(expected, actual Kind) bool {
	if expected.Tag == KindUndefined || actual.Tag == KindUndefined {
		return false
	}
	if expected.Tag == KindUnknown || actual.Tag == KindUnknown {
		return true
	}
	if expected.Tag == KindNull || actual.Tag == KindNull {
		return true
	}
	if expected.Tag != actual.Tag {
		return false
	}
	switch expected.Tag {
	case KindArray, KindSet:
		return nestedCompatible(expected.Elem, actual.Elem)
	case KindMapping:
		return nestedCompatible(expected.Key, actual.Key) && nestedCompatible(expected.Elem, actual.Elem)
	case KindFunction:
		if expected.Args != nil && actual.Args != nil {
			if len(expected.Args) != len(actual.Args) {
				return false
			}
			for i := range expected.Args {
				if !Compatible(expected.Args[i], actual.Args[i]) {
					return false
				}
			}
		}
		return nestedCompatible(expected.Ret, actual.Ret)
	default:
		return true
	}
}

func nestedCompatible(expected, actual *Kind) bool {
	if expected == nil || actual == nil {
		return true
	}
	return Compatible(*expected, *actual)
}

// KindOf derives a kind tag from a runtime value. Container values are
// scanned so that a homogeneous container yields a parameterized kind;
// mixed containers yield a coarse tag with unknown parameters.
func KindOf(value any) Kind {
	switch v := value.(type) {
	case nil:
		return Null
	case bool:
		return Boolean
	case *apd.Decimal, apd.Decimal, float64, float32,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return Float
	case string:
		return String
	case []byte:
		return Bytes
	case time.Time:
		return Datetime
	case time.Duration:
		return Timedelta
	case Set:
		return SetOf(elementKind(v))
	case []any:
		return ArrayOf(elementKind(v))
	case map[string]any:
		elem := Unknown
		first := true
		for _, item := range v {
			elem = mergeElementKind(elem, KindOf(item), &first)
		}
		return MappingOf(String, elem)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return ArrayOf(elementKind(items))
	case reflect.Map:
		key := Unknown
		elem := Unknown
		firstKey, firstElem := true, true
		iter := rv.MapRange()
		for iter.Next() {
			key = mergeElementKind(key, KindOf(iter.Key().Interface()), &firstKey)
			elem = mergeElementKind(elem, KindOf(iter.Value().Interface()), &firstElem)
		}
		return MappingOf(key, elem)
	case reflect.Func:
		return Kind{Tag: KindFunction}
	}
	return Unknown
}

// elementKind computes the common kind of a container's elements, or Unknown
// when the elements disagree.
func elementKind(items []any) Kind {
	elem := Unknown
	first := true
	for _, item := range items {
		elem = mergeElementKind(elem, KindOf(item), &first)
	}
	return elem
}

func mergeElementKind(acc, next Kind, first *bool) Kind {
	if *first {
		*first = false
		return next
	}
	if acc.Tag == next.Tag {
		return acc
	}
	// Null members do not change the element kind of the others.
	if acc.Tag == KindNull {
		return next
	}
	if next.Tag == KindNull {
		return acc
	}
	return Unknown
}
