package types

import "fmt"

// Static kind rules applied at rule construction time. Each function
// composes the statically inferred kinds of child nodes into the kind of
// the combined node, or reports a provable mismatch. Unknown child kinds
// (resolver-dependent symbols) pass every rule: static checking only
// rejects expressions that cannot possibly succeed, deferring everything
// else to runtime.

// numericCoercible reports whether a kind may appear as an arithmetic
// operand.
func numericCoercible(k Kind) bool {
	switch k.Tag {
	case KindUnknown, KindNull, KindFloat:
		return true
	default:
		return false
	}
}

// stringCoercible reports whether a kind can be coerced to a string at a
// concatenation boundary.
func stringCoercible(k Kind) bool {
	switch k.Tag {
	case KindUnknown, KindNull, KindString, KindFloat, KindBoolean, KindBytes:
		return true
	default:
		return false
	}
}

func orderable(k Kind) bool {
	switch k.Tag {
	case KindUnknown, KindNull, KindFloat, KindString, KindBytes, KindDatetime, KindTimedelta:
		return true
	default:
		return false
	}
}

// ComparisonKind checks the operand kinds of a comparison operator and
// returns the node's result kind (always boolean).
func ComparisonKind(op string, left, right Kind) (Kind, error) {
	switch op {
	case "==", "!=":
		if !Compatible(left, right) && !Compatible(right, left) {
			return Unknown, NewError(ErrComparisonKinds,
				fmt.Sprintf("cannot compare %s and %s values with %q", left, right, op))
		}
	default:
		if !orderable(left) || !orderable(right) {
			return Unknown, NewError(ErrComparisonKinds,
				fmt.Sprintf("cannot order %s and %s values", left, right))
		}
		if left.Tag != KindUnknown && right.Tag != KindUnknown &&
			left.Tag != KindNull && right.Tag != KindNull && left.Tag != right.Tag {
			return Unknown, NewError(ErrComparisonKinds,
				fmt.Sprintf("cannot order %s and %s values", left, right))
		}
	}
	return Boolean, nil
}

// ArithmeticKind checks the operand kinds of an arithmetic operator and
// returns the node's result kind.
func ArithmeticKind(op string, left, right Kind) (Kind, error) {
	if op == "+" {
		switch {
		case left.Tag == KindString || right.Tag == KindString:
			// Concatenation: the other operand must be string-coercible.
			if stringCoercible(left) && stringCoercible(right) {
				return String, nil
			}
		case left.Tag == KindBytes && right.Tag == KindBytes:
			return Bytes, nil
		case left.Tag == KindDatetime && right.Tag == KindTimedelta,
			left.Tag == KindTimedelta && right.Tag == KindDatetime:
			return Datetime, nil
		case left.Tag == KindTimedelta && right.Tag == KindTimedelta:
			return Timedelta, nil
		case numericCoercible(left) && numericCoercible(right):
			if left.Tag == KindUnknown || right.Tag == KindUnknown {
				return Unknown, nil
			}
			return Float, nil
		}
		return Unknown, NewError(ErrArithmeticKinds,
			fmt.Sprintf("cannot add %s and %s values", left, right))
	}

	if op == "-" {
		switch {
		case left.Tag == KindDatetime && right.Tag == KindDatetime:
			return Timedelta, nil
		case left.Tag == KindDatetime && right.Tag == KindTimedelta:
			return Datetime, nil
		case left.Tag == KindTimedelta && right.Tag == KindTimedelta:
			return Timedelta, nil
		}
	}

	if !numericCoercible(left) || !numericCoercible(right) {
		return Unknown, NewError(ErrArithmeticKinds,
			fmt.Sprintf("cannot apply %q to %s and %s values", op, left, right))
	}
	return Float, nil
}

// UnaryKind checks the operand kind of a unary operator.
func UnaryKind(op string, operand Kind) (Kind, error) {
	switch op {
	case "-":
		switch operand.Tag {
		case KindUnknown, KindNull, KindFloat:
			return Float, nil
		case KindTimedelta:
			return Timedelta, nil
		}
		return Unknown, NewError(ErrUnaryKinds,
			fmt.Sprintf("cannot negate a %s value", operand))
	case "not":
		return Boolean, nil
	}
	return Unknown, NewError(ErrUnaryKinds, fmt.Sprintf("unknown unary operator %q", op))
}

// RegexMatchKind checks the operand kinds of a =~ or !~ node. The subject
// must be string-like and the pattern a string.
func RegexMatchKind(subject, pattern Kind) (Kind, error) {
	switch subject.Tag {
	case KindUnknown, KindNull, KindString, KindBytes:
	default:
		return Unknown, NewError(ErrRegexKinds,
			fmt.Sprintf("cannot match a regex against a %s value", subject))
	}
	switch pattern.Tag {
	case KindUnknown, KindString:
	default:
		return Unknown, NewError(ErrRegexKinds,
			fmt.Sprintf("regex pattern must be a string, not %s", pattern))
	}
	return Boolean, nil
}

// MembershipKind checks the operand kinds of an "in" node.
func MembershipKind(member, container Kind) (Kind, error) {
	switch container.Tag {
	case KindUnknown, KindNull:
		return Boolean, nil
	case KindString:
		if member.Tag != KindUnknown && member.Tag != KindNull && member.Tag != KindString {
			return Unknown, NewError(ErrMembershipKinds,
				fmt.Sprintf("cannot test %s membership in a string", member))
		}
		return Boolean, nil
	case KindArray, KindSet:
		if container.Elem != nil && !Compatible(*container.Elem, member) {
			return Unknown, NewError(ErrMembershipKinds,
				fmt.Sprintf("cannot test %s membership in %s", member, container))
		}
		return Boolean, nil
	case KindMapping:
		if container.Key != nil && !Compatible(*container.Key, member) {
			return Unknown, NewError(ErrMembershipKinds,
				fmt.Sprintf("cannot test %s membership in %s", member, container))
		}
		return Boolean, nil
	}
	return Unknown, NewError(ErrMembershipKinds,
		fmt.Sprintf("%s values do not support membership tests", container))
}

// LogicalKind returns the result kind of an and/or node. Logical
// combinators always reduce their operands to a boolean.
func LogicalKind(left, right Kind) Kind {
	return Boolean
}

// CoalesceKind returns the result kind of a ?? node.
func CoalesceKind(left, right Kind) Kind {
	return lub(left, right)
}

// TernaryKind returns the result kind of a ternary node.
func TernaryKind(then, els Kind) Kind {
	return lub(then, els)
}

// ArrayLiteralKind composes an array literal's kind from its element kinds.
// Literal containers must be kind-homogeneous where kinds are known.
func ArrayLiteralKind(elems []Kind) (Kind, error) {
	elem, err := literalElementKind(elems)
	if err != nil {
		return Unknown, err
	}
	return ArrayOf(elem), nil
}

// SetLiteralKind composes a set literal's kind from its element kinds.
func SetLiteralKind(elems []Kind) (Kind, error) {
	elem, err := literalElementKind(elems)
	if err != nil {
		return Unknown, err
	}
	return SetOf(elem), nil
}

// MappingLiteralKind composes a mapping literal's kind from its key and
// value kinds.
func MappingLiteralKind(keys, values []Kind) (Kind, error) {
	key, err := literalElementKind(keys)
	if err != nil {
		return Unknown, err
	}
	value, err := literalElementKind(values)
	if err != nil {
		return Unknown, err
	}
	return MappingOf(key, value), nil
}

func literalElementKind(elems []Kind) (Kind, error) {
	elem := Unknown
	for _, k := range elems {
		if k.Tag == KindUnknown || k.Tag == KindNull {
			continue
		}
		if elem.Tag == KindUnknown {
			elem = k
			continue
		}
		if !Compatible(elem, k) {
			return Unknown, NewError(ErrElementKinds,
				fmt.Sprintf("container literal members must share one kind, got %s and %s", elem, k))
		}
	}
	return elem, nil
}

// lub is the least upper bound of two kinds: the kind itself when they
// agree, otherwise Unknown (never an error; mixed branches are legal).
func lub(a, b Kind) Kind {
	if a.Tag == b.Tag {
		if a.IsScalar() {
			return a
		}
		if Compatible(a, b) && Compatible(b, a) {
			return a
		}
		return Kind{Tag: a.Tag}
	}
	if a.Tag == KindNull || a.Tag == KindUnknown {
		return b
	}
	if b.Tag == KindNull || b.Tag == KindUnknown {
		return a
	}
	return Unknown
}
