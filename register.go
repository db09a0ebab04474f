// FILE: argconfig/register.go
package argconfig

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
	ipType       = reflect.TypeOf(net.IP{})
	urlType      = reflect.TypeOf(url.URL{})
)

// SchemaFromStruct derives a record schema from a struct type, using the values in
// defaults as field defaults. It uses struct tags to shape each field:
//
//	arg:"name"            field name (defaults to the Go field name), "-" skips the field
//	arg:"name,required"   the field has no default
//	help:"..."            flag usage text
//	choice:"a,b,c"        restrict a string or integer field to the listed literals
//
// Nested structs become records defaulting to their own field values, pointers become
// optionals, slices lists, arrays tuples and maps maps. Durations, times, IPs and URLs
// are declared as strings and converted back by Scan.
//
// Each call returns a new schema. Call it once per struct type and reuse the result.
func SchemaFromStruct(name string, defaults any) (*Schema, error) {
	v := reflect.ValueOf(defaults)
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return nil, fmt.Errorf("SchemaFromStruct requires a non-nil struct pointer or value")
		}
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil, fmt.Errorf("SchemaFromStruct requires a struct or struct pointer, got %T", defaults)
	}
	return schemaFromValue(name, v, make(map[reflect.Type]bool))
}

// MustSchemaFromStruct is like SchemaFromStruct but panics on error.
func MustSchemaFromStruct(name string, defaults any) *Schema {
	s, err := SchemaFromStruct(name, defaults)
	if err != nil {
		panic(err)
	}
	return s
}

func schemaFromValue(name string, v reflect.Value, visiting map[reflect.Type]bool) (*Schema, error) {
	t := v.Type()
	if visiting[t] {
		return nil, declErr(name, "struct type %s contains itself", t)
	}
	visiting[t] = true
	defer delete(visiting, t)

	s := NewSchema(name)
	var errors []string

	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		fieldValue := v.Field(i)
		if !field.IsExported() {
			continue
		}

		key, required, skip := parseArgTag(field)
		if skip {
			continue
		}

		kind, err := kindOfType(key, field.Type, fieldValue, field.Tag.Get("choice"), visiting)
		if err != nil {
			errors = append(errors, fmt.Sprintf("field %s: %v", field.Name, err))
			continue
		}

		opts := []FieldOption{Help(field.Tag.Get("help"))}
		if !required {
			if def, ok := structDefault(fieldValue, kind, name+"."+key); ok {
				opts = append(opts, Default(def))
			}
		}
		s.Field(key, kind, opts...)
	}

	if len(errors) > 0 {
		return nil, fmt.Errorf("failed to register %d field(s): %s", len(errors), strings.Join(errors, "; "))
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

// parseArgTag returns the field key and options from the `arg` tag.
func parseArgTag(field reflect.StructField) (key string, required, skip bool) {
	tag := field.Tag.Get(DefaultTagName)
	if tag == "-" {
		return "", false, true
	}
	key = field.Name
	parts := strings.Split(tag, ",")
	if parts[0] != "" {
		key = parts[0]
	}
	for _, opt := range parts[1:] {
		if strings.TrimSpace(opt) == "required" {
			required = true
		}
	}
	return key, required, false
}

// kindOfType maps a Go type onto the kind model. v carries nested struct defaults
// and may be the invalid Value where no default exists.
func kindOfType(key string, t reflect.Type, v reflect.Value, choice string, visiting map[reflect.Type]bool) (Kind, error) {
	switch t {
	case durationType, timeType, ipType, urlType:
		return Str, nil
	}

	switch t.Kind() {
	case reflect.Bool:
		return Bool, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if choice != "" {
			return intChoice(choice)
		}
		return Int, nil
	case reflect.Float32, reflect.Float64:
		return Float, nil
	case reflect.String:
		if choice != "" {
			values := make([]any, 0)
			for _, c := range strings.Split(choice, ",") {
				values = append(values, strings.TrimSpace(c))
			}
			return Choice(values...), nil
		}
		return Str, nil
	case reflect.Slice:
		elem, err := kindOfType(key, t.Elem(), reflect.Value{}, "", visiting)
		if err != nil {
			return nil, err
		}
		return List(elem), nil
	case reflect.Array:
		elem, err := kindOfType(key, t.Elem(), reflect.Value{}, "", visiting)
		if err != nil {
			return nil, err
		}
		elems := make([]Kind, t.Len())
		for i := range elems {
			elems[i] = elem
		}
		return Tuple(elems...), nil
	case reflect.Map:
		keyKind, err := kindOfType(key, t.Key(), reflect.Value{}, "", visiting)
		if err != nil {
			return nil, err
		}
		valueKind, err := kindOfType(key, t.Elem(), reflect.Value{}, "", visiting)
		if err != nil {
			return nil, err
		}
		return Map(keyKind, valueKind), nil
	case reflect.Struct:
		if !v.IsValid() {
			v = reflect.New(t).Elem()
		}
		name := t.Name()
		if name == "" {
			name = key
		}
		nested, err := schemaFromValue(name, v, visiting)
		if err != nil {
			return nil, err
		}
		return Record(nested), nil
	case reflect.Ptr:
		var elem reflect.Value
		if v.IsValid() && !v.IsNil() {
			elem = v.Elem()
		}
		inner, err := kindOfType(key, t.Elem(), elem, choice, visiting)
		if err != nil {
			return nil, err
		}
		return Optional(inner), nil
	}
	return nil, fmt.Errorf("unsupported type %s", t)
}

func intChoice(choice string) (Kind, error) {
	var values []any
	for _, c := range strings.Split(choice, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(c))
		if err != nil {
			return nil, fmt.Errorf("invalid integer choice %q", c)
		}
		values = append(values, n)
	}
	return Choice(values...), nil
}

// structDefault converts a struct field value into a field default. A default that
// does not fit the kind (a zero value outside the declared choices, or a nested record
// with required fields) leaves the field required.
func structDefault(v reflect.Value, kind Kind, path string) (any, bool) {
	if rk, ok := kind.(*RecordKind); ok {
		inst, err := construct(rk.Schema, path, plainStruct(v))
		if err != nil {
			return nil, false
		}
		return inst, true
	}

	def := plainValue(v)
	if _, err := validateValue(def, kind, path); err != nil {
		return nil, false
	}
	return def, true
}

// plainValue converts a Go value into the plain data shape file loaders produce.
func plainValue(v reflect.Value) any {
	if !v.IsValid() {
		return nil
	}
	switch v.Type() {
	case durationType:
		return time.Duration(v.Int()).String()
	case timeType:
		t := v.Interface().(time.Time)
		if t.IsZero() {
			return ""
		}
		return t.Format(time.RFC3339)
	case ipType:
		ip := v.Interface().(net.IP)
		if ip == nil {
			return ""
		}
		return ip.String()
	case urlType:
		u := v.Interface().(url.URL)
		return u.String()
	}

	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return plainValue(v.Elem())
	case reflect.Struct:
		return plainStruct(v)
	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := range out {
			out[i] = plainValue(v.Index(i))
		}
		return out
	case reflect.Map:
		out := make(map[any]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			out[plainValue(iter.Key())] = plainValue(iter.Value())
		}
		return out
	}
	return v.Interface()
}

// plainStruct converts a struct into a mapping keyed by `arg` field keys.
func plainStruct(v reflect.Value) map[string]any {
	t := v.Type()
	out := make(map[string]any, v.NumField())
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		key, required, skip := parseArgTag(field)
		if skip || required {
			continue
		}
		out[key] = plainValue(v.Field(i))
	}
	return out
}
