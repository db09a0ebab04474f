// FILE: argconfig/index.go
package argconfig

import (
	"fmt"
	"sync"
)

// leafEntry is one addressable leaf of a flattened schema.
type leafEntry struct {
	path        string // dotted, relative to the record root
	field       *Field
	decodable   bool
	defaultText string
}

// schemaIndex is the flattened, immutable view of one record schema.
type schemaIndex struct {
	schema  *Schema
	leaves  []leafEntry
	byPath  map[string]int
	records map[string]bool // relative paths of nested record fields
}

// indexCache maps *Schema to *schemaIndex. Entries are never replaced once stored.
var indexCache sync.Map

// indexOf returns the memoized index of a schema, building it on first use.
// Concurrent first calls may both build; LoadOrStore keeps one and drops the other.
func indexOf(s *Schema) (*schemaIndex, error) {
	if cached, ok := indexCache.Load(s); ok {
		return cached.(*schemaIndex), nil
	}

	idx := &schemaIndex{
		schema:  s,
		byPath:  make(map[string]int),
		records: make(map[string]bool),
	}
	if err := idx.add(s, "", make(map[*Schema]bool)); err != nil {
		return nil, err
	}

	actual, _ := indexCache.LoadOrStore(s, idx)
	return actual.(*schemaIndex), nil
}

func (idx *schemaIndex) add(s *Schema, prefix string, visiting map[*Schema]bool) error {
	if err := s.Err(); err != nil {
		return err
	}
	if visiting[s] {
		return declErr(s.name, "record contains itself through %q", prefix)
	}
	visiting[s] = true
	defer delete(visiting, s)
	s.frozen.Store(true)

	for _, f := range s.fields {
		path := joinPath(prefix, f.Name)

		if nested, _ := recordSchema(f.Kind); nested != nil {
			idx.records[path] = true
			if err := idx.add(nested, path, visiting); err != nil {
				return err
			}
			continue
		}

		if err := checkCompoundRecords(f.Kind); err != nil {
			return fmt.Errorf("field %s.%s: %w", s.name, f.Name, err)
		}
		if _, dup := idx.byPath[path]; dup {
			return declErr(path, "duplicate leaf path")
		}

		idx.byPath[path] = len(idx.leaves)
		idx.leaves = append(idx.leaves, leafEntry{
			path:        path,
			field:       f,
			decodable:   tokenDecodable(f.Kind),
			defaultText: defaultText(f),
		})
	}
	return nil
}

// checkCompoundRecords surfaces declaration errors of records held inside lists, tuples and maps.
func checkCompoundRecords(k Kind) error {
	switch kk := k.(type) {
	case *RecordKind:
		return kk.Schema.Err()
	case *OptionalKind:
		return checkCompoundRecords(kk.Inner)
	case *ListKind:
		return checkCompoundRecords(kk.Elem)
	case *TupleKind:
		for _, e := range kk.Elems {
			if err := checkCompoundRecords(e); err != nil {
				return err
			}
		}
	case *MapKind:
		return checkCompoundRecords(kk.Value)
	}
	return nil
}

// leaf looks up a leaf by relative path.
func (idx *schemaIndex) leaf(path string) (leafEntry, bool) {
	i, ok := idx.byPath[path]
	if !ok {
		return leafEntry{}, false
	}
	return idx.leaves[i], true
}

// defaultText renders a field default for usage output. Factories are invoked once here.
func defaultText(f *Field) string {
	v, ok := f.defaultValue()
	if !ok || v == nil {
		return ""
	}
	if _, isInstance := v.(*Instance); isInstance {
		return ""
	}
	return fmt.Sprint(v)
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
