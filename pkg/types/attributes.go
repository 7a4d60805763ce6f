package types

// attributeTable maps each kind to the attributes values of that kind
// expose. It is the single source of truth shared by the parser, which
// uses it for static result kinds, and the evaluator, which uses it to
// dispatch attribute access before falling back to the resolver.
var attributeTable = map[KindTag]map[string]Kind{
	KindString: {
		"length":   Float,
		"is_empty": Boolean,
		"as_lower": String,
		"as_upper": String,
		"as_bytes": Bytes,
	},
	KindBytes: {
		"length":    Float,
		"is_empty":  Boolean,
		"as_string": String,
	},
	KindArray: {
		"length":   Float,
		"is_empty": Boolean,
		"to_set":   SetOf(Unknown),
	},
	KindSet: {
		"length":   Float,
		"is_empty": Boolean,
		"to_array": ArrayOf(Unknown),
	},
	KindMapping: {
		"length":   Float,
		"is_empty": Boolean,
		"keys":     ArrayOf(Unknown),
		"values":   ArrayOf(Unknown),
	},
	KindDatetime: {
		"year":     Float,
		"month":    Float,
		"day":      Float,
		"hour":     Float,
		"minute":   Float,
		"second":   Float,
		"weekday":  String,
		"date":     Datetime,
		"to_epoch": Float,
	},
	KindTimedelta: {
		"days":          Float,
		"seconds":       Float,
		"total_seconds": Float,
	},
}

// AttributeKind reports the result kind of accessing the named attribute
// on a value of the given base kind. The second return is false when the
// base kind does not statically expose the attribute; for Unknown bases
// the result is always Unknown and true, since resolution happens at
// runtime.
func AttributeKind(base Kind, name string) (Kind, bool) {
	if base.Tag == KindUnknown {
		return Unknown, true
	}
	attrs, ok := attributeTable[base.Tag]
	if !ok {
		return Unknown, false
	}
	kind, ok := attrs[name]
	if !ok {
		return Unknown, false
	}
	// Element-carrying attributes refine to the base's parameters when
	// those are known.
	switch {
	case kind.Tag == KindSet && base.Elem != nil:
		return SetOf(*base.Elem), true
	case kind.Tag == KindArray && base.Elem != nil && (name == "to_array" || name == "values"):
		return ArrayOf(*base.Elem), true
	case kind.Tag == KindArray && base.Key != nil && name == "keys":
		return ArrayOf(*base.Key), true
	}
	return kind, true
}

// Attributes returns the attribute names a kind statically exposes,
// used for suggestion generation when an attribute lookup fails.
func Attributes(base Kind) []string {
	attrs, ok := attributeTable[base.Tag]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(attrs))
	for name := range attrs {
		names = append(names, name)
	}
	return names
}
