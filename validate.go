// FILE: argconfig/validate.go
package argconfig

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
)

// validateValue checks a value that did not come from token decoding (file data or a
// declared default) against kind, and returns it in canonical form. Representations of
// the same native type are normalized (int64 and json.Number to int, for instance);
// values of a different native type are rejected. Records found anywhere in the value
// are built into instances.
func validateValue(v any, kind Kind, path string) (any, error) {
	switch k := kind.(type) {
	case scalarKind:
		return validateScalar(v, k, path)

	case *ChoiceKind:
		if lit, ok := matchLiteral(v, k); ok {
			return lit, nil
		}
		return nil, &TypeMismatchError{Path: path, Expected: k, Value: v, Reason: "not one of the declared choices"}

	case *OptionalKind:
		if v == nil {
			return nil, nil
		}
		return validateValue(v, k.Inner, path)

	case *ListKind:
		items, ok := sequence(v)
		if !ok {
			return nil, &TypeMismatchError{Path: path, Expected: k, Value: v}
		}
		out := make([]any, len(items))
		for i, item := range items {
			val, err := validateValue(item, k.Elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil

	case *TupleKind:
		items, ok := sequence(v)
		if !ok {
			return nil, &TypeMismatchError{Path: path, Expected: k, Value: v}
		}
		if len(items) != len(k.Elems) {
			return nil, &TypeMismatchError{Path: path, Expected: k, Value: v,
				Reason: fmt.Sprintf("expected %d values, got %d", len(k.Elems), len(items))}
		}
		out := make([]any, len(items))
		for i, item := range items {
			val, err := validateValue(item, k.Elems[i], fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil

	case *MapKind:
		entries, ok := mapEntries(v)
		if !ok {
			return nil, &TypeMismatchError{Path: path, Expected: k, Value: v}
		}
		out := newMapping(k.Key, len(entries))
		for _, e := range entries {
			entryPath := path + "." + fmt.Sprint(e.key)
			key, err := validateKey(e.key, k.Key, entryPath)
			if err != nil {
				return nil, err
			}
			val, err := validateValue(e.value, k.Value, entryPath)
			if err != nil {
				return nil, err
			}
			out.put(key, val)
		}
		return out.value(), nil

	case *RecordKind:
		return materializeRecord(v, k.Schema, path)
	}
	return nil, &TypeMismatchError{Path: path, Expected: kind, Value: v, Reason: "unsupported kind"}
}

func validateScalar(v any, k scalarKind, path string) (any, error) {
	switch KindTag(k) {
	case KindInt:
		if n, ok := integral(v); ok {
			return n, nil
		}
	case KindFloat:
		if f, ok := floating(v); ok {
			return f, nil
		}
	case KindStr:
		if _, isNumber := v.(json.Number); !isNumber {
			if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
				return rv.String(), nil
			}
		}
	case KindBool:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Bool {
			return rv.Bool(), nil
		}
	}
	return nil, &TypeMismatchError{Path: path, Expected: k, Value: v}
}

// integral accepts integer-typed values only; floats are rejected even when whole.
func integral(v any) (int, bool) {
	if n, ok := v.(json.Number); ok {
		i, err := strconv.ParseInt(string(n), 10, 0)
		return int(i), err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		u := rv.Uint()
		if u > math.MaxInt {
			return 0, false
		}
		return int(u), true
	}
	return 0, false
}

// floating accepts integer or floating values, never booleans.
func floating(v any) (float64, bool) {
	if n, ok := v.(json.Number); ok {
		f, err := n.Float64()
		return f, err == nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), true
	}
	return 0, false
}

// matchLiteral finds the declared literal equal to v, comparing numbers canonically.
func matchLiteral(v any, k *ChoiceKind) (any, bool) {
	var candidate any
	switch n := v.(type) {
	case json.Number:
		if i, err := strconv.ParseInt(string(n), 10, 0); err == nil {
			candidate = int(i)
		} else if f, err := n.Float64(); err == nil {
			candidate = f
		}
	default:
		candidate = normalizeLiteral(v)
	}
	switch candidate.(type) {
	case string, int, float64, bool:
	default:
		return nil, false
	}
	for _, lit := range k.Values {
		if lit == candidate {
			return lit, true
		}
	}
	return nil, false
}

// validateKey checks a map key. File formats deliver keys as strings, so string keys
// for non-string key kinds are decoded with the token grammar.
func validateKey(key any, kind Kind, path string) (any, error) {
	if s, isString := key.(string); isString && !stringKeyed(kind) {
		v, err := decodeToken(s, kind, path)
		if err != nil {
			return nil, &TypeMismatchError{Path: path, Expected: kind, Value: key, Reason: "invalid map key"}
		}
		return v, nil
	}
	return validateValue(key, kind, path)
}

func materializeRecord(v any, schema *Schema, path string) (any, error) {
	if inst, ok := v.(*Instance); ok {
		if inst == nil || inst.schema != schema {
			return nil, &TypeMismatchError{Path: path, Expected: Record(schema), Value: v,
				Reason: "instance of a different record"}
		}
		return inst, nil
	}
	if m, ok := asMapping(v); ok {
		inst, err := construct(schema, path, m)
		if err != nil {
			return nil, err
		}
		return inst, nil
	}
	return nil, &TypeMismatchError{Path: path, Expected: Record(schema), Value: v}
}

// sequence returns the elements of a slice or array value.
func sequence(v any) ([]any, bool) {
	if items, ok := v.([]any); ok {
		return items, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

type mapEntry struct {
	key   any
	value any
}

func mapEntries(v any) ([]mapEntry, bool) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map {
		return nil, false
	}
	entries := make([]mapEntry, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		entries = append(entries, mapEntry{key: iter.Key().Interface(), value: iter.Value().Interface()})
	}
	return entries, true
}

// asMapping views v as a string-keyed mapping. map[any]any qualifies when every key is a string.
func asMapping(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			s, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[s] = val
		}
		return out, true
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}
