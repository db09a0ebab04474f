// FILE: argconfig/decode.go
package argconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// decodeToken converts one raw command-line token into the canonical value of kind.
func decodeToken(raw string, kind Kind, path string) (any, error) {
	switch k := kind.(type) {
	case scalarKind:
		return decodeScalar(raw, k, path)
	case *ChoiceKind:
		return decodeChoice(raw, k, path)
	case *OptionalKind:
		if _, isRecord := k.Inner.(*RecordKind); isRecord {
			return nil, unsupportedToken(raw, kind, path)
		}
		return decodeToken(raw, k.Inner, path)
	case *ListKind:
		return decodeList(raw, k, path)
	case *TupleKind:
		return decodeTuple(raw, k, path)
	case *MapKind:
		return decodeMap(raw, k, path)
	case *RecordKind:
		return nil, unsupportedToken(raw, kind, path)
	}
	return nil, &DecodeError{Path: path, Token: raw, Expected: kindName(kind), Reason: "unsupported kind"}
}

func unsupportedToken(raw string, kind Kind, path string) error {
	return &DecodeError{
		Path:     path,
		Token:    raw,
		Expected: kindName(kind),
		Reason:   "records are not settable from a single command-line value; set their fields or use a config file",
	}
}

func decodeScalar(raw string, k scalarKind, path string) (any, error) {
	s := strings.TrimSpace(raw)
	switch KindTag(k) {
	case KindInt:
		n, err := strconv.ParseInt(s, 10, 0)
		if err != nil {
			return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(), Err: numErr(err)}
		}
		return int(n), nil
	case KindFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(), Err: numErr(err)}
		}
		return f, nil
	case KindBool:
		b, ok := parseStrictBool(s)
		if !ok {
			return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(),
				Reason: "accepted values are True, true, 1, False, false, 0"}
		}
		return b, nil
	}
	return raw, nil
}

// numErr drops the strconv function prefix, the token is already part of the message.
func numErr(err error) error {
	if ne, ok := err.(*strconv.NumError); ok {
		return ne.Err
	}
	return err
}

func parseStrictBool(s string) (bool, bool) {
	switch s {
	case "True", "true", "1":
		return true, true
	case "False", "false", "0":
		return false, true
	}
	return false, false
}

func decodeChoice(raw string, k *ChoiceKind, path string) (any, error) {
	for _, lit := range k.Values {
		if raw == literalText(lit) {
			return lit, nil
		}
	}
	return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(), Reason: "not one of the declared choices"}
}

func decodeList(raw string, k *ListKind, path string) (any, error) {
	if !tokenDecodable(k.Elem) {
		return nil, unsupportedToken(raw, k, path)
	}
	segments := splitTopLevel(unwrap(raw, '[', ']'))
	out := make([]any, 0, len(segments))
	for i, seg := range segments {
		v, err := decodeToken(seg, k.Elem, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeTuple(raw string, k *TupleKind, path string) (any, error) {
	if !tokenDecodable(k) {
		return nil, unsupportedToken(raw, k, path)
	}
	segments := splitTopLevel(unwrap(raw, '(', ')'))
	if len(segments) != len(k.Elems) {
		return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(),
			Reason: fmt.Sprintf("expected %d values, got %d", len(k.Elems), len(segments))}
	}
	out := make([]any, len(segments))
	for i, seg := range segments {
		v, err := decodeToken(seg, k.Elems[i], fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func decodeMap(raw string, k *MapKind, path string) (any, error) {
	if !tokenDecodable(k.Value) {
		return nil, unsupportedToken(raw, k, path)
	}
	s := strings.TrimSpace(raw)
	out := newMapping(k.Key, 0)
	if s == "" {
		return out.value(), nil
	}

	if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader([]byte(s)))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(), Reason: "invalid JSON object", Err: err}
		}
		if _, err := dec.Token(); !errors.Is(err, io.EOF) {
			return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(), Reason: "unexpected data after JSON object"}
		}
		for jk, jv := range obj {
			entryPath := path + "." + jk
			key, err := decodeToken(jk, k.Key, entryPath)
			if err != nil {
				return nil, err
			}
			val, err := validateValue(jv, k.Value, entryPath)
			if err != nil {
				return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(), Err: err}
			}
			out.put(key, val)
		}
		return out.value(), nil
	}

	for _, pair := range splitTopLevel(s) {
		ks, vs, found := strings.Cut(pair, "=")
		if !found {
			return nil, &DecodeError{Path: path, Token: raw, Expected: k.String(),
				Reason: fmt.Sprintf("invalid key=value format: %q (missing '=')", pair)}
		}
		ks, vs = strings.TrimSpace(ks), strings.TrimSpace(vs)
		entryPath := path + "." + ks
		key, err := decodeToken(ks, k.Key, entryPath)
		if err != nil {
			return nil, err
		}
		val, err := decodeToken(vs, k.Value, entryPath)
		if err != nil {
			return nil, err
		}
		out.put(key, val)
	}
	return out.value(), nil
}

// unwrap trims whitespace and strips one enclosing open/close pair if present.
func unwrap(raw string, open, close byte) string {
	s := strings.TrimSpace(raw)
	if len(s) >= 2 && s[0] == open && s[len(s)-1] == close {
		return s[1 : len(s)-1]
	}
	return s
}

// splitTopLevel splits on commas outside brackets, trims each segment and drops
// empty ones. Commas inside an element cannot be escaped.
func splitTopLevel(s string) []string {
	var (
		parts []string
		depth int
		start int
	)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '[', '(', '{':
			depth++
		case ']', ')', '}':
			if depth > 0 {
				depth--
			}
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])

	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// mapping builds the canonical map for a key kind: map[string]any for string keys, map[any]any otherwise.
type mapping struct {
	byString map[string]any
	byValue  map[any]any
}

func newMapping(key Kind, size int) *mapping {
	if stringKeyed(key) {
		return &mapping{byString: make(map[string]any, size)}
	}
	return &mapping{byValue: make(map[any]any, size)}
}

func (m *mapping) put(k, v any) {
	if m.byString != nil {
		m.byString[k.(string)] = v
		return
	}
	m.byValue[k] = v
}

func (m *mapping) value() any {
	if m.byString != nil {
		return m.byString
	}
	return m.byValue
}
