// FILE: argconfig/assemble.go
package argconfig

import (
	"errors"
)

// assembleRecord builds the instance of schema rooted at prefix from resolved leaves.
// Nested records are built first. Every missing leaf owned by this record is collected
// into one MissingRequiredFieldError; nested failures are joined alongside it.
func assembleRecord(schema *Schema, prefix string, leaves map[string]resolvedLeaf) (*Instance, error) {
	values := make(map[string]any, len(schema.fields))
	var (
		missing []string
		errs    []error
	)

	for _, f := range schema.fields {
		path := prefix + "." + f.Name

		if leaf, ok := leaves[path]; ok {
			if leaf.failed != nil {
				errs = append(errs, leaf.failed)
				continue
			}
			if leaf.missing {
				missing = append(missing, path)
				continue
			}
			values[f.Name] = leaf.value
			continue
		}

		nested, _ := recordSchema(f.Kind)
		if nested == nil {
			missing = append(missing, path)
			continue
		}
		inst, err := assembleRecord(nested, path, leaves)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		values[f.Name] = inst
	}

	if len(missing) > 0 {
		errs = append(errs, &MissingRequiredFieldError{Record: schema.name, Paths: missing})
	}
	switch len(errs) {
	case 0:
		return &Instance{schema: schema, values: values}, nil
	case 1:
		return nil, errs[0]
	default:
		return nil, errors.Join(errs...)
	}
}
