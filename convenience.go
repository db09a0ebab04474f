// File: argconfig/convenience.go
package argconfig

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

// Quick resolves a single record derived from structDefaults using os.Args and an
// optional configuration file, then scans the result into target.
// This is the shortest way to configure an application from one struct.
func Quick(name string, structDefaults, target any, configFile string) (*Result, error) {
	schema, err := SchemaFromStruct(name, structDefaults)
	if err != nil {
		return nil, fmt.Errorf("failed to register defaults: %w", err)
	}

	parser, err := NewBuilder().
		WithName(name).
		WithRecord(schema).
		WithFile(configFile).
		Build()
	if err != nil {
		return nil, err
	}

	res, err := parser.Parse(os.Args[1:])
	if err != nil {
		return nil, err
	}
	if target != nil {
		if err := res.Scan(name, target); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// MustQuick is like Quick but panics on error
func MustQuick(name string, structDefaults, target any, configFile string) *Result {
	res, err := Quick(name, structDefaults, target, configFile)
	if err != nil {
		panic(fmt.Sprintf("config initialization failed: %v", err))
	}
	return res
}

// Debug returns a formatted string showing every resolved value and its source
func (r *Result) Debug() string {
	var b strings.Builder
	b.WriteString("Resolved configuration:\n")
	if r.ConfigFile != "" {
		b.WriteString(fmt.Sprintf("Config file: %s\n", r.ConfigFile))
	}

	flat := flattenMap(r.Tree(), "")
	paths := make([]string, 0, len(flat))
	for path := range flat {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		source, _ := r.Source(path)
		b.WriteString(fmt.Sprintf("  %s = %s (%s)\n", path, formatValue(flat[path]), source))
	}

	if len(r.Flags) > 0 {
		names := make([]string, 0, len(r.Flags))
		for name := range r.Flags {
			names = append(names, name)
		}
		sort.Strings(names)
		b.WriteString("Flags:\n")
		for _, name := range names {
			b.WriteString(fmt.Sprintf("  %s = %s\n", name, formatValue(r.Flags[name])))
		}
	}

	return b.String()
}

// Dump writes the resolved records to w in TOML format.
// Unset optional values are omitted.
func (r *Result) Dump(w io.Writer) error {
	encoder := toml.NewEncoder(w)
	return encoder.Encode(tomlSafe(r.Tree()))
}
