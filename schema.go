// FILE: argconfig/schema.go
package argconfig

import (
	"errors"
	"sync/atomic"
)

type defaultMode int

const (
	noDefault defaultMode = iota
	valueDefault
	factoryDefault
)

// Field describes one declared field of a record schema.
type Field struct {
	Name string
	Kind Kind
	Help string

	mode    defaultMode
	value   any
	factory func() any
}

// Required reports whether the field has neither a default value nor a factory.
func (f *Field) Required() bool { return f.mode == noDefault }

// defaultValue materializes the field default, invoking the factory if one is declared.
func (f *Field) defaultValue() (any, bool) {
	switch f.mode {
	case valueDefault:
		return f.value, true
	case factoryDefault:
		return f.factory(), true
	}
	return nil, false
}

// FieldOption configures a field at declaration time.
type FieldOption func(*Field)

// Default sets a static default. Record defaults may be an *Instance or a mapping;
// an *Instance default is handed out as-is on every resolution.
func Default(value any) FieldOption {
	return func(f *Field) {
		f.mode = valueDefault
		f.value = value
	}
}

// Factory sets a default produced by fn. fn runs once per resolution that needs the default.
func Factory(fn func() any) FieldOption {
	return func(f *Field) {
		f.mode = factoryDefault
		f.factory = fn
	}
}

// DefaultRecord defaults a record field to a fresh instance built from the nested
// schema's own field defaults.
func DefaultRecord() FieldOption {
	return Factory(func() any { return map[string]any{} })
}

// Help sets the field description shown in flag usage.
func Help(text string) FieldOption {
	return func(f *Field) {
		f.Help = text
	}
}

// Schema is a record type declaration: an ordered set of typed fields.
// A schema is identified by its pointer. Declare all fields before the first use;
// once a schema has been indexed further declarations are rejected.
type Schema struct {
	name   string
	fields []*Field
	byName map[string]*Field
	errs   []error
	frozen atomic.Bool
}

// NewSchema starts a record declaration. The name doubles as the default record alias.
func NewSchema(name string) *Schema {
	s := &Schema{
		name:   name,
		byName: make(map[string]*Field),
	}
	if name == "" {
		s.errs = append(s.errs, declErr("schema", "name cannot be empty"))
	}
	return s
}

// Field declares the next field. Declaration problems are collected and reported by Err.
func (s *Schema) Field(name string, kind Kind, opts ...FieldOption) *Schema {
	if s.frozen.Load() {
		s.errs = append(s.errs, declErr(s.name+"."+name, "schema is already in use and cannot be extended"))
		return s
	}
	if !isValidKeySegment(name) {
		s.errs = append(s.errs, declErr(s.name+"."+name, "invalid field name %q", name))
		return s
	}
	if _, exists := s.byName[name]; exists {
		s.errs = append(s.errs, declErr(s.name+"."+name, "duplicate field"))
		return s
	}
	if err := checkKind(kind); err != nil {
		s.errs = append(s.errs, declErr(s.name+"."+name, "%v", err))
		return s
	}

	f := &Field{Name: name, Kind: kind}
	for _, opt := range opts {
		opt(f)
	}
	if f.mode == factoryDefault && f.factory == nil {
		s.errs = append(s.errs, declErr(s.name+"."+name, "nil default factory"))
		return s
	}

	s.fields = append(s.fields, f)
	s.byName[name] = f
	return s
}

// Name returns the declared record name.
func (s *Schema) Name() string { return s.name }

// Fields returns the declared fields in declaration order.
func (s *Schema) Fields() []*Field {
	out := make([]*Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Lookup finds a declared field by name.
func (s *Schema) Lookup(name string) (*Field, bool) {
	f, ok := s.byName[name]
	return f, ok
}

// Err returns every declaration problem recorded while building the schema.
func (s *Schema) Err() error {
	return errors.Join(s.errs...)
}

// New constructs an instance from Go values keyed by field name.
// Values are validated like file data; absent fields take their defaults.
func (s *Schema) New(values map[string]any) (*Instance, error) {
	return construct(s, s.name, values)
}

// MustNew is like New but panics on error.
func (s *Schema) MustNew(values map[string]any) *Instance {
	inst, err := s.New(values)
	if err != nil {
		panic(err)
	}
	return inst
}
