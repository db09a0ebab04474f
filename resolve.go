// FILE: argconfig/resolve.go
package argconfig

import (
	"errors"

	"github.com/rs/zerolog"
)

// Source identifies the precedence tier a resolved value came from.
type Source string

const (
	// SourceDefault represents use of declared default values
	SourceDefault Source = "default"
	// SourceFile represents values loaded from a configuration file
	SourceFile Source = "file"
	// SourceCLI represents values loaded from command-line arguments
	SourceCLI Source = "cli"
)

// resolvedLeaf is the outcome for one path: a value with its source, missing, or
// failed when a record built for it lacks required values.
type resolvedLeaf struct {
	value   any
	source  Source
	missing bool
	failed  error
}

// resolver applies CLI > file > default precedence to a record and its nested records.
// Its inputs are read-only for the duration of a resolution.
type resolver struct {
	cli map[string]string // full dotted path -> raw token
	log zerolog.Logger
}

// resolveRecord resolves every field of schema rooted at prefix into out.
// Leaf fields get one entry each. A nested record with no override anywhere in its
// subtree gets a single entry at its own path holding the whole default instance;
// otherwise its leaves are resolved individually and it gets no entry of its own.
func (r *resolver) resolveRecord(schema *Schema, prefix string, file map[string]any, out map[string]resolvedLeaf) error {
	for _, f := range schema.fields {
		path := prefix + "." + f.Name

		if nested, optional := recordSchema(f.Kind); nested != nil {
			if err := r.resolveNested(f, nested, optional, path, file, out); err != nil {
				return err
			}
			continue
		}

		leaf, err := r.resolveLeaf(f, path, file)
		if err != nil {
			return err
		}
		out[path] = leaf
	}
	return nil
}

func (r *resolver) resolveLeaf(f *Field, path string, file map[string]any) (resolvedLeaf, error) {
	leaf := resolvedLeaf{missing: true}
	if v, ok := f.defaultValue(); ok {
		leaf = resolvedLeaf{value: v, source: SourceDefault}
	}
	if v, ok := file[f.Name]; ok {
		leaf = resolvedLeaf{value: v, source: SourceFile}
	}

	if raw, ok := r.cli[path]; ok {
		v, err := decodeToken(raw, f.Kind, path)
		if err != nil {
			return resolvedLeaf{}, err
		}
		r.log.Debug().Str("path", path).Str("source", string(SourceCLI)).Msg("Resolved field")
		return resolvedLeaf{value: v, source: SourceCLI}, nil
	}

	if leaf.missing {
		return leaf, nil
	}

	v, err := validateValue(leaf.value, f.Kind, path)
	if err != nil {
		if errors.Is(err, ErrMissingRequired) {
			return resolvedLeaf{failed: err}, nil
		}
		return resolvedLeaf{}, err
	}
	leaf.value = v
	r.log.Debug().Str("path", path).Str("source", string(leaf.source)).Msg("Resolved field")
	return leaf, nil
}

func (r *resolver) resolveNested(f *Field, nested *Schema, optional bool, path string, file map[string]any, out map[string]resolvedLeaf) error {
	if _, ok := r.cli[path]; ok {
		return unsupportedToken(r.cli[path], f.Kind, path)
	}

	sub, inFile := file[f.Name]
	subMap, isMap := asMapping(sub)

	cliOverride, err := r.hasCLIOverride(nested, path)
	if err != nil {
		return err
	}
	override := cliOverride || (isMap && len(subMap) > 0)
	r.log.Debug().Str("path", path).Bool("cli_override", cliOverride).Bool("override", override).Msg("Checked nested record")

	if override {
		if inFile && sub != nil && !isMap {
			inst, isInstance := sub.(*Instance)
			if !isInstance {
				return &TypeMismatchError{Path: path, Expected: f.Kind, Value: sub}
			}
			if _, err := materializeRecord(inst, nested, path); err != nil {
				return err
			}
			subMap = inst.values
		}
		return r.resolveRecord(nested, path, subMap, out)
	}

	leaf := resolvedLeaf{missing: true}
	if v, ok := f.defaultValue(); ok {
		leaf = resolvedLeaf{value: v, source: SourceDefault}
	}
	if inFile && !isMap {
		// An empty mapping is not an override: the default stays in place.
		if sub == nil && !optional {
			return &TypeMismatchError{Path: path, Expected: f.Kind, Value: sub}
		}
		leaf = resolvedLeaf{value: sub, source: SourceFile}
	}

	if !leaf.missing {
		v, err := validateValue(leaf.value, f.Kind, path)
		switch {
		case errors.Is(err, ErrMissingRequired):
			leaf = resolvedLeaf{failed: err}
		case err != nil:
			return err
		default:
			leaf.value = v
		}
	}
	out[path] = leaf
	return nil
}

// hasCLIOverride reports whether any leaf or nested record below path was given on
// the command line. A token at a nested record path is rejected once resolution
// reaches that record.
func (r *resolver) hasCLIOverride(nested *Schema, path string) (bool, error) {
	if len(r.cli) == 0 {
		return false, nil
	}
	idx, err := indexOf(nested)
	if err != nil {
		return false, err
	}
	for _, l := range idx.leaves {
		if _, ok := r.cli[path+"."+l.path]; ok {
			return true, nil
		}
	}
	for rel := range idx.records {
		if _, ok := r.cli[path+"."+rel]; ok {
			return true, nil
		}
	}
	return false, nil
}

// construct builds one instance of schema from structured values, as if they came
// from a configuration file with no command-line input.
func construct(schema *Schema, prefix string, values map[string]any) (*Instance, error) {
	r := resolver{log: zerolog.Nop()}
	leaves := make(map[string]resolvedLeaf)
	if err := r.resolveRecord(schema, prefix, values, leaves); err != nil {
		return nil, err
	}
	return assembleRecord(schema, prefix, leaves)
}
