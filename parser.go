// FILE: argconfig/parser.go
package argconfig

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// recordBinding attaches a record schema to the alias its flags and file section use.
type recordBinding struct {
	alias  string
	schema *Schema
	index  *schemaIndex
}

// Parser resolves a fixed set of records from command-line input, a configuration
// file, and declared defaults, with precedence CLI > file > default.
//
// Parse and Resolve are safe for concurrent use as long as custom flag functions
// are. Evaluate reads the shared flag set returned by Flags.
type Parser struct {
	records    []*recordBinding
	byAlias    map[string]*recordBinding
	fs         *pflag.FlagSet
	flags      flagSetup
	leafFlags  map[string]bool
	configFlag string
	file       string
	discovery  *FileDiscoveryOptions
	validators []ValidatorFunc
	tagName    string
	log        zerolog.Logger
}

// Result holds the outcome of one resolution.
type Result struct {
	// Records maps record alias to its assembled instance.
	Records map[string]*Instance
	// Flags holds values of flags that belong to no record.
	Flags map[string]any
	// Sources records which tier supplied each resolved path.
	Sources map[string]Source
	// ConfigFile is the path of the loaded configuration file, if any.
	ConfigFile string

	tagName string
}

// Flags returns the flag set holding one string flag per command-line settable leaf,
// the config file flag, and any custom flags. Callers may merge it into another
// command's flags and call Evaluate after that command has parsed.
func (p *Parser) Flags() *pflag.FlagSet { return p.fs }

// Usage returns the formatted flag help.
func (p *Parser) Usage() string { return p.fs.FlagUsages() }

// Parse parses args with a fresh copy of the parser's flags, loads the configuration
// file and resolves every record. Custom flag functions run again on every call.
func (p *Parser) Parse(args []string) (*Result, error) {
	fs, err := p.flags.build(p)
	if err != nil {
		return nil, err
	}
	if err := fs.Parse(args); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCLIParse, err)
	}
	return p.evaluate(fs)
}

// MustParse is like Parse but panics on error.
func (p *Parser) MustParse(args []string) *Result {
	res, err := p.Parse(args)
	if err != nil {
		panic(fmt.Sprintf("argument resolution failed: %v", err))
	}
	return res
}

// Evaluate resolves records from the current state of the parser's flag set.
// Only flags that were set on the command line take part in precedence.
func (p *Parser) Evaluate() (*Result, error) {
	return p.evaluate(p.fs)
}

func (p *Parser) evaluate(fs *pflag.FlagSet) (*Result, error) {
	cli := make(map[string]string)
	flags := make(map[string]any)
	var configPath string

	fs.VisitAll(func(f *pflag.Flag) {
		switch {
		case f.Name == p.configFlag:
			if f.Changed {
				configPath = f.Value.String()
			}
		case p.leafFlags[f.Name]:
			if f.Changed {
				cli[f.Name] = f.Value.String()
			}
		default:
			flags[f.Name] = flagValue(fs, f)
		}
	})

	tree, loaded, err := p.loadTree(configPath)
	if err != nil {
		return nil, err
	}

	res, err := p.resolve(cli, tree)
	if err != nil {
		return nil, err
	}
	for name, value := range flags {
		res.Flags[name] = value
	}
	res.ConfigFile = loaded

	if err := p.validate(res); err != nil {
		return nil, err
	}
	return res, nil
}

// Resolve resolves every record from a raw CLI map (full dotted path without the
// leading dashes to raw token) and a parsed configuration tree keyed by record alias.
// CLI keys outside every record pass through to Result.Flags unchanged.
func (p *Parser) Resolve(cli map[string]string, tree map[string]any) (*Result, error) {
	res, err := p.resolve(cli, tree)
	if err != nil {
		return nil, err
	}
	if err := p.validate(res); err != nil {
		return nil, err
	}
	return res, nil
}

// MustResolve is like Resolve but panics on error.
func (p *Parser) MustResolve(cli map[string]string, tree map[string]any) *Result {
	res, err := p.Resolve(cli, tree)
	if err != nil {
		panic(fmt.Sprintf("argument resolution failed: %v", err))
	}
	return res
}

func (p *Parser) resolve(cli map[string]string, tree map[string]any) (*Result, error) {
	governed, passthrough, err := p.splitCLI(cli)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Records: make(map[string]*Instance, len(p.records)),
		Flags:   passthrough,
		Sources: make(map[string]Source),
		tagName: p.tagName,
	}

	r := resolver{cli: governed, log: p.log}
	var errs []error
	for _, b := range p.records {
		section, err := p.fileSection(b, tree)
		if err != nil {
			return nil, err
		}

		leaves := make(map[string]resolvedLeaf)
		if err := r.resolveRecord(b.schema, b.alias, section, leaves); err != nil {
			return nil, err
		}
		for path, leaf := range leaves {
			if !leaf.missing && leaf.failed == nil {
				res.Sources[path] = leaf.source
			}
		}

		inst, err := assembleRecord(b.schema, b.alias, leaves)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		res.Records[b.alias] = inst
	}

	switch len(errs) {
	case 0:
		return res, nil
	case 1:
		return nil, errs[0]
	default:
		return nil, errors.Join(errs...)
	}
}

// splitCLI separates keys inside a record's namespace from ungoverned flags.
func (p *Parser) splitCLI(cli map[string]string) (map[string]string, map[string]any, error) {
	governed := make(map[string]string)
	passthrough := make(map[string]any)

	for key, raw := range cli {
		alias, rest, _ := strings.Cut(key, ".")
		b, ok := p.byAlias[alias]
		if !ok {
			p.log.Debug().Str("flag", key).Msg("Passing through ungoverned flag")
			passthrough[key] = raw
			continue
		}
		if rest == "" {
			return nil, nil, unsupportedToken(raw, Record(b.schema), key)
		}
		if _, isLeaf := b.index.leaf(rest); isLeaf || b.index.records[rest] {
			governed[key] = raw
			continue
		}
		p.log.Debug().Str("flag", key).Msg("Passing through ungoverned flag")
		passthrough[key] = raw
	}
	return governed, passthrough, nil
}

// fileSection returns the mapping for a record: the tree entry under its alias,
// else under its schema name. A present non-mapping entry is a type mismatch.
func (p *Parser) fileSection(b *recordBinding, tree map[string]any) (map[string]any, error) {
	v, ok := tree[b.alias]
	if !ok {
		v, ok = tree[b.schema.name]
	}
	if !ok || v == nil {
		return nil, nil
	}
	section, isMap := asMapping(v)
	if !isMap {
		return nil, &TypeMismatchError{Path: b.alias, Expected: Record(b.schema), Value: v}
	}
	return section, nil
}

func (p *Parser) validate(res *Result) error {
	for _, validator := range p.validators {
		if err := validator(res); err != nil {
			return fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return nil
}

// loadTree loads the configuration file named on the command line, else the
// configured default file, else a discovered one. Only an explicitly requested
// file must exist.
func (p *Parser) loadTree(explicit string) (map[string]any, string, error) {
	path, required := explicit, explicit != ""
	if path == "" {
		path = p.file
	}
	if path == "" && p.discovery != nil {
		path = p.discovery.discover()
	}
	if path == "" {
		return nil, "", nil
	}

	tree, err := LoadFile(path)
	if err != nil {
		if !required && errors.Is(err, ErrConfigNotFound) {
			p.log.Debug().Str("path", path).Msg("Config file not found, using defaults")
			return nil, "", nil
		}
		return nil, "", err
	}
	p.log.Debug().Str("path", path).Str("format", detectFileFormat(path)).Msg("Loaded config file")
	return tree, path, nil
}

// flagValue returns a custom flag's typed value.
func flagValue(fs *pflag.FlagSet, f *pflag.Flag) any {
	var (
		v   any
		err error
	)
	switch f.Value.Type() {
	case "bool":
		v, err = fs.GetBool(f.Name)
	case "int":
		v, err = fs.GetInt(f.Name)
	case "int64":
		v, err = fs.GetInt64(f.Name)
	case "float64":
		v, err = fs.GetFloat64(f.Name)
	case "string":
		v, err = fs.GetString(f.Name)
	case "stringSlice":
		v, err = fs.GetStringSlice(f.Name)
	case "intSlice":
		v, err = fs.GetIntSlice(f.Name)
	case "duration":
		v, err = fs.GetDuration(f.Name)
	default:
		return f.Value.String()
	}
	if err != nil {
		return f.Value.String()
	}
	return v
}

// usageText renders the flag help for a leaf: its help text and default.
func usageText(l leafEntry) string {
	text := l.field.Help
	if text == "" {
		text = l.field.Kind.String()
	}
	switch {
	case l.field.Required():
		return text + " (required)"
	case l.defaultText != "":
		return text + " (default: " + l.defaultText + ")"
	}
	return text
}

// Record returns the instance for alias.
func (r *Result) Record(alias string) (*Instance, bool) {
	inst, ok := r.Records[alias]
	return inst, ok
}

// Scan decodes the record under alias into target.
func (r *Result) Scan(alias string, target any) error {
	inst, ok := r.Records[alias]
	if !ok {
		return fmt.Errorf("record not found: %s", alias)
	}
	tagName := r.tagName
	if tagName == "" {
		tagName = DefaultTagName
	}
	return scanInto(inst.Map(), tagName, target)
}

// Tree returns every record as plain data keyed by alias, the shape of a configuration file.
func (r *Result) Tree() map[string]any {
	tree := make(map[string]any, len(r.Records))
	for alias, inst := range r.Records {
		tree[alias] = inst.Map()
	}
	return tree
}

// Source returns the tier that supplied path, looking through enclosing records
// for paths resolved as a whole.
func (r *Result) Source(path string) (Source, bool) {
	for p := path; p != ""; {
		if s, ok := r.Sources[p]; ok {
			return s, true
		}
		i := strings.LastIndex(p, ".")
		if i < 0 {
			break
		}
		p = p[:i]
	}
	return "", false
}

// formatValue renders a value for debug output.
func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return strconv.Quote(val)
	case nil:
		return "<nil>"
	}
	return fmt.Sprint(v)
}
