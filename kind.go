// FILE: argconfig/kind.go
package argconfig

import (
	"fmt"
	"strconv"
	"strings"
)

// KindTag identifies the shape of a Kind.
type KindTag int

const (
	KindInt KindTag = iota
	KindFloat
	KindStr
	KindBool
	KindChoice
	KindOptional
	KindList
	KindTuple
	KindMap
	KindRecord
)

// Kind is the declared type of a schema field.
// The set of kinds is closed: scalars, Choice, Optional, List, Tuple, Map and Record.
type Kind interface {
	Tag() KindTag
	String() string
}

type scalarKind KindTag

func (k scalarKind) Tag() KindTag { return KindTag(k) }

func (k scalarKind) String() string {
	switch KindTag(k) {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindStr:
		return "str"
	case KindBool:
		return "bool"
	}
	return "unknown"
}

// Scalar kinds.
var (
	Int   Kind = scalarKind(KindInt)
	Float Kind = scalarKind(KindFloat)
	Str   Kind = scalarKind(KindStr)
	Bool  Kind = scalarKind(KindBool)
)

// ChoiceKind restricts a value to a fixed set of literals.
type ChoiceKind struct {
	Values []any
}

// Choice declares an enumerated choice. Literals may be strings, integers, floats or booleans.
func Choice(values ...any) *ChoiceKind {
	normalized := make([]any, len(values))
	for i, v := range values {
		normalized[i] = normalizeLiteral(v)
	}
	return &ChoiceKind{Values: normalized}
}

func (k *ChoiceKind) Tag() KindTag { return KindChoice }

func (k *ChoiceKind) String() string {
	parts := make([]string, len(k.Values))
	for i, v := range k.Values {
		parts[i] = literalText(v)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// OptionalKind permits an absent (nil) value in addition to Inner.
type OptionalKind struct {
	Inner Kind
}

func Optional(inner Kind) *OptionalKind { return &OptionalKind{Inner: inner} }

func (k *OptionalKind) Tag() KindTag { return KindOptional }

func (k *OptionalKind) String() string { return "optional[" + kindName(k.Inner) + "]" }

// ListKind is a homogeneous sequence.
type ListKind struct {
	Elem Kind
}

func List(elem Kind) *ListKind { return &ListKind{Elem: elem} }

func (k *ListKind) Tag() KindTag { return KindList }

func (k *ListKind) String() string { return "list[" + kindName(k.Elem) + "]" }

// TupleKind is a fixed-arity sequence with positional element kinds.
type TupleKind struct {
	Elems []Kind
}

func Tuple(elems ...Kind) *TupleKind { return &TupleKind{Elems: elems} }

func (k *TupleKind) Tag() KindTag { return KindTuple }

func (k *TupleKind) String() string {
	parts := make([]string, len(k.Elems))
	for i, e := range k.Elems {
		parts[i] = kindName(e)
	}
	return "tuple[" + strings.Join(parts, ",") + "]"
}

// MapKind is a key/value mapping. Keys must be scalar or Choice kinds.
type MapKind struct {
	Key   Kind
	Value Kind
}

func Map(key, value Kind) *MapKind { return &MapKind{Key: key, Value: value} }

func (k *MapKind) Tag() KindTag { return KindMap }

func (k *MapKind) String() string {
	return "map[" + kindName(k.Key) + "]" + kindName(k.Value)
}

// RecordKind nests another schema. Record fields expand into their own leaves.
type RecordKind struct {
	Schema *Schema
}

func Record(schema *Schema) *RecordKind { return &RecordKind{Schema: schema} }

func (k *RecordKind) Tag() KindTag { return KindRecord }

func (k *RecordKind) String() string {
	if k.Schema == nil {
		return "record"
	}
	return "record " + k.Schema.Name()
}

func kindName(k Kind) string {
	if k == nil {
		return "<nil>"
	}
	return k.String()
}

// recordSchema returns the nested schema of a Record or Optional(Record) kind.
func recordSchema(k Kind) (schema *Schema, optional bool) {
	switch rk := k.(type) {
	case *RecordKind:
		return rk.Schema, false
	case *OptionalKind:
		if inner, ok := rk.Inner.(*RecordKind); ok {
			return inner.Schema, true
		}
	}
	return nil, false
}

// tokenDecodable reports whether a leaf of kind k can be set from one command-line token.
// Compounds holding records are populated from file data or defaults only.
func tokenDecodable(k Kind) bool {
	switch kk := k.(type) {
	case *RecordKind:
		return false
	case *OptionalKind:
		return tokenDecodable(kk.Inner)
	case *ListKind:
		return tokenDecodable(kk.Elem)
	case *TupleKind:
		for _, e := range kk.Elems {
			if !tokenDecodable(e) {
				return false
			}
		}
		return true
	case *MapKind:
		return tokenDecodable(kk.Value)
	}
	return true
}

// stringKeyed reports whether maps of this key kind use map[string]any.
func stringKeyed(key Kind) bool {
	switch kk := key.(type) {
	case *ChoiceKind:
		for _, v := range kk.Values {
			if _, ok := v.(string); !ok {
				return false
			}
		}
		return true
	default:
		return key.Tag() == KindStr
	}
}

// checkKind validates a declared kind tree. Records are checked by their own schema.
func checkKind(k Kind) error {
	switch kk := k.(type) {
	case nil:
		return fmt.Errorf("kind is nil")
	case scalarKind:
		return nil
	case *ChoiceKind:
		if len(kk.Values) == 0 {
			return fmt.Errorf("choice declares no values")
		}
		for _, v := range kk.Values {
			switch v.(type) {
			case string, int, float64, bool:
			default:
				return fmt.Errorf("choice literal %v has unsupported type %T", v, v)
			}
		}
		return nil
	case *OptionalKind:
		return checkKind(kk.Inner)
	case *ListKind:
		return checkKind(kk.Elem)
	case *TupleKind:
		for _, e := range kk.Elems {
			if err := checkKind(e); err != nil {
				return err
			}
		}
		return nil
	case *MapKind:
		switch kk.Key.(type) {
		case scalarKind, *ChoiceKind:
		default:
			return fmt.Errorf("map key kind %s is not a scalar or choice", kindName(kk.Key))
		}
		if err := checkKind(kk.Key); err != nil {
			return err
		}
		return checkKind(kk.Value)
	case *RecordKind:
		if kk.Schema == nil {
			return fmt.Errorf("record kind has no schema")
		}
		return nil
	}
	return fmt.Errorf("unsupported kind %T", k)
}

// normalizeLiteral maps numeric literals onto the canonical int/float64 representation.
func normalizeLiteral(v any) any {
	switch n := v.(type) {
	case int8:
		return int(n)
	case int16:
		return int(n)
	case int32:
		return int(n)
	case int64:
		return int(n)
	case uint:
		return int(n)
	case uint8:
		return int(n)
	case uint16:
		return int(n)
	case uint32:
		return int(n)
	case float32:
		return float64(n)
	}
	return v
}

// literalText is the exact token that selects a choice literal.
// Floats always carry a decimal point or exponent, so 1.0 reads "1.0".
func literalText(v any) string {
	if f, ok := v.(float64); ok {
		s := strconv.FormatFloat(f, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eEnN") {
			s += ".0"
		}
		return s
	}
	return fmt.Sprint(v)
}
