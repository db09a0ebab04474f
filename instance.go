// FILE: argconfig/instance.go
package argconfig

import (
	"fmt"
	"strings"
)

// Instance is an assembled record: every declared field holds a value in canonical form.
// Instances are immutable; nested records are *Instance values.
type Instance struct {
	schema *Schema
	values map[string]any
}

// Schema returns the record schema the instance was built from.
func (i *Instance) Schema() *Schema { return i.schema }

// Get retrieves a field value by dotted path, descending into nested records.
// The second return value is false if the path does not lead to a field.
func (i *Instance) Get(path string) (any, bool) {
	current := i
	segments := strings.Split(path, ".")
	for n, segment := range segments {
		v, ok := current.values[segment]
		if !ok {
			return nil, false
		}
		if n == len(segments)-1 {
			return v, true
		}
		next, isInstance := v.(*Instance)
		if !isInstance || next == nil {
			return nil, false
		}
		current = next
	}
	return nil, false
}

// String retrieves a string field value.
func (i *Instance) String(path string) (string, error) {
	val, found := i.Get(path)
	if !found {
		return "", fmt.Errorf("field not found: %s", path)
	}
	s, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("field %s holds %T, not string", path, val)
	}
	return s, nil
}

// Int retrieves an integer field value.
func (i *Instance) Int(path string) (int, error) {
	val, found := i.Get(path)
	if !found {
		return 0, fmt.Errorf("field not found: %s", path)
	}
	n, ok := val.(int)
	if !ok {
		return 0, fmt.Errorf("field %s holds %T, not int", path, val)
	}
	return n, nil
}

// Float64 retrieves a float field value. Integer values are widened.
func (i *Instance) Float64(path string) (float64, error) {
	val, found := i.Get(path)
	if !found {
		return 0, fmt.Errorf("field not found: %s", path)
	}
	switch v := val.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	}
	return 0, fmt.Errorf("field %s holds %T, not float64", path, val)
}

// Bool retrieves a boolean field value.
func (i *Instance) Bool(path string) (bool, error) {
	val, found := i.Get(path)
	if !found {
		return false, fmt.Errorf("field not found: %s", path)
	}
	b, ok := val.(bool)
	if !ok {
		return false, fmt.Errorf("field %s holds %T, not bool", path, val)
	}
	return b, nil
}

// Record retrieves a nested record. A nil instance is returned for an unset optional record.
func (i *Instance) Record(path string) (*Instance, error) {
	val, found := i.Get(path)
	if !found {
		return nil, fmt.Errorf("field not found: %s", path)
	}
	if val == nil {
		return nil, nil
	}
	inst, ok := val.(*Instance)
	if !ok {
		return nil, fmt.Errorf("field %s holds %T, not a record", path, val)
	}
	return inst, nil
}

// Map returns the instance as nested plain data, keyed by field name.
// The result is shaped like a configuration file subtree for the record.
func (i *Instance) Map() map[string]any {
	out := make(map[string]any, len(i.values))
	for k, v := range i.values {
		out[k] = plain(v)
	}
	return out
}

func plain(v any) any {
	switch val := v.(type) {
	case *Instance:
		if val == nil {
			return nil
		}
		return val.Map()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = plain(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = plain(item)
		}
		return out
	case map[any]any:
		out := make(map[any]any, len(val))
		for k, item := range val {
			out[k] = plain(item)
		}
		return out
	}
	return v
}
