package evaluator

import (
	"reflect"

	"github.com/ali-kazmi85/rule-engine/pkg/types"
)

// ItemResolver resolves symbols by key lookup on a string-keyed mapping.
// It is the default resolver of a Context.
type ItemResolver struct{}

func (ItemResolver) Resolve(thing any, name string) (any, error) {
	m, ok := thing.(map[string]any)
	if !ok {
		rv := reflect.ValueOf(thing)
		if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
			value := rv.MapIndex(reflect.ValueOf(name))
			if value.IsValid() {
				return value.Interface(), nil
			}
			return nil, types.NewSymbolResolutionError(types.ErrSymbolNotFound, name, thing)
		}
		return nil, types.NewSymbolResolutionError(types.ErrSymbolNotFound, name, thing)
	}
	value, present := m[name]
	if !present {
		return nil, types.NewSymbolResolutionError(types.ErrSymbolNotFound, name, thing)
	}
	return value, nil
}

// Symbols enumerates the mapping's keys for suggestion generation.
func (ItemResolver) Symbols(thing any) []string {
	rv := reflect.ValueOf(thing)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil
	}
	names := make([]string, 0, rv.Len())
	for _, key := range rv.MapKeys() {
		names = append(names, key.String())
	}
	return names
}

// AttributeResolver resolves symbols against the exported fields of a
// struct (or pointer to struct), matching the field name or its
// `rule:"name"` tag.
type AttributeResolver struct{}

func (AttributeResolver) Resolve(thing any, name string) (any, error) {
	rv := reflect.ValueOf(thing)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, types.NewSymbolResolutionError(types.ErrSymbolNotFound, name, thing)
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil, types.NewSymbolResolutionError(types.ErrSymbolNotFound, name, thing)
	}
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		if fieldSymbol(field) == name {
			return rv.Field(i).Interface(), nil
		}
	}
	return nil, types.NewSymbolResolutionError(types.ErrAttributeNotFound, name, thing)
}

// Symbols enumerates the struct's resolvable field names.
func (AttributeResolver) Symbols(thing any) []string {
	rv := reflect.ValueOf(thing)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return nil
	}
	rt := rv.Type()
	names := make([]string, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		names = append(names, fieldSymbol(field))
	}
	return names
}

func fieldSymbol(field reflect.StructField) string {
	if tag, ok := field.Tag.Lookup("rule"); ok && tag != "" {
		return tag
	}
	return field.Name
}
