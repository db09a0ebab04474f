// File: argconfig/builder.go
package argconfig

import (
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
)

// ValidatorFunc defines the signature for a function that can validate a resolution result.
// It runs after every record has been assembled and should return an error if validation fails.
type ValidatorFunc func(r *Result) error

// DefaultConfigFlag is the name of the flag that selects a configuration file.
const DefaultConfigFlag = "config"

// Builder provides a fluent interface for building parsers
type Builder struct {
	name        string
	records     []recordBinding
	configFlag  string
	configShort string
	file        string
	discovery   *FileDiscoveryOptions
	flagFns     []func(*pflag.FlagSet)
	validators  []ValidatorFunc
	tagName     string
	log         zerolog.Logger
	err         error
}

// NewBuilder creates a new parser builder
func NewBuilder() *Builder {
	return &Builder{
		name:       "argconfig",
		configFlag: DefaultConfigFlag,
		tagName:    DefaultTagName,
		log:        zerolog.Nop(),
		validators: make([]ValidatorFunc, 0),
	}
}

// WithName sets the flag set name used in parse errors
func (b *Builder) WithName(name string) *Builder {
	b.name = name
	return b
}

// WithRecord adds a record under its schema name
func (b *Builder) WithRecord(schema *Schema) *Builder {
	if schema == nil {
		b.err = declErr("record", "schema cannot be nil")
		return b
	}
	return b.WithNamedRecord(schema.Name(), schema)
}

// WithNamedRecord adds a record under alias. Its flags are --alias.<field> and its
// configuration file section is the top-level key alias.
func (b *Builder) WithNamedRecord(alias string, schema *Schema) *Builder {
	if schema == nil {
		b.err = declErr(alias, "schema cannot be nil")
		return b
	}
	b.records = append(b.records, recordBinding{alias: alias, schema: schema})
	return b
}

// WithConfigFlag sets the name and optional one-letter shorthand of the config file flag
func (b *Builder) WithConfigFlag(name, shorthand string) *Builder {
	b.configFlag = name
	b.configShort = shorthand
	return b
}

// WithoutConfigFlag disables the config file flag
func (b *Builder) WithoutConfigFlag() *Builder {
	b.configFlag = ""
	b.configShort = ""
	return b
}

// WithFile sets the configuration file used when none is given on the command line.
// A missing default file is not an error.
func (b *Builder) WithFile(path string) *Builder {
	b.file = path
	return b
}

// WithFileDiscovery enables automatic config file discovery when neither the
// command line nor WithFile names a file
func (b *Builder) WithFileDiscovery(opts FileDiscoveryOptions) *Builder {
	b.discovery = &opts
	return b
}

// WithFlags registers custom flags next to the record flags. Their parsed values
// are reported in Result.Flags.
func (b *Builder) WithFlags(fn func(fs *pflag.FlagSet)) *Builder {
	if fn != nil {
		b.flagFns = append(b.flagFns, fn)
	}
	return b
}

// WithValidator adds a validation function that runs at the end of every resolution
// Multiple validators can be added and are executed in the order they are added
func (b *Builder) WithValidator(fn ValidatorFunc) *Builder {
	if fn != nil {
		b.validators = append(b.validators, fn)
	}
	return b
}

// WithTagName sets the struct tag used by Result.Scan
func (b *Builder) WithTagName(tagName string) *Builder {
	b.tagName = tagName
	return b
}

// WithLogger sets the logger for resolution debug events
func (b *Builder) WithLogger(logger zerolog.Logger) *Builder {
	b.log = logger
	return b
}

// Build validates the declarations and creates the Parser
func (b *Builder) Build() (*Parser, error) {
	if b.err != nil {
		return nil, b.err
	}
	if len(b.records) == 0 {
		return nil, declErr("parser", "no records declared")
	}

	p := &Parser{
		byAlias:    make(map[string]*recordBinding, len(b.records)),
		leafFlags:  make(map[string]bool),
		configFlag: b.configFlag,
		file:       b.file,
		discovery:  b.discovery,
		validators: b.validators,
		tagName:    b.tagName,
		log:        b.log,
	}

	for i := range b.records {
		rb := b.records[i]
		if !isValidKeySegment(rb.alias) {
			return nil, declErr(rb.alias, "invalid record alias")
		}
		if rb.alias == "help" {
			return nil, declErr(rb.alias, "alias is reserved for the help flag")
		}
		if _, dup := p.byAlias[rb.alias]; dup {
			return nil, declErr(rb.alias, "duplicate record alias")
		}
		if rb.alias == p.configFlag {
			// The record owns the name; there is no config flag.
			p.log.Debug().Str("alias", rb.alias).Msg("Record alias disables config flag")
			p.configFlag = ""
		}

		idx, err := indexOf(rb.schema)
		if err != nil {
			return nil, fmt.Errorf("record %s: %w", rb.alias, err)
		}
		rb.index = idx
		p.records = append(p.records, &rb)
		p.byAlias[rb.alias] = &rb
	}

	for _, rb := range p.records {
		for _, l := range rb.index.leaves {
			if l.decodable {
				p.leafFlags[rb.alias+"."+l.path] = true
			}
		}
	}

	p.flags = flagSetup{
		name:        b.name,
		configShort: b.configShort,
		fns:         append([]func(*pflag.FlagSet){}, b.flagFns...),
	}
	fs, err := p.flags.build(p)
	if err != nil {
		return nil, err
	}
	p.fs = fs
	return p, nil
}

// MustBuild is like Build but panics on error
func (b *Builder) MustBuild() *Parser {
	p, err := b.Build()
	if err != nil {
		panic(fmt.Sprintf("parser build failed: %v", err))
	}
	return p
}

// flagSetup holds what is needed to create a parser's flag set. Parse builds a
// fresh set per call so no flag state carries over between calls.
type flagSetup struct {
	name        string
	configShort string
	fns         []func(*pflag.FlagSet)
}

// build registers leaf, config and custom flags. Definition conflicts are
// reported as declaration errors rather than pflag panics.
func (fd flagSetup) build(p *Parser) (fs *pflag.FlagSet, err error) {
	fs = pflag.NewFlagSet(fd.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}

	defer func() {
		if r := recover(); r != nil {
			fs, err = nil, declErr("flags", "%v", r)
		}
	}()

	for _, rb := range p.records {
		for _, l := range rb.index.leaves {
			if !l.decodable {
				continue
			}
			fs.String(rb.alias+"."+l.path, "", usageText(l))
		}
	}

	if p.configFlag != "" {
		fs.StringP(p.configFlag, fd.configShort, "",
			"path to a configuration file ("+strings.Join(supportedExtensions, ", ")+")")
	}

	for _, fn := range fd.fns {
		fn(fs)
	}

	var conflict error
	fs.VisitAll(func(f *pflag.Flag) {
		if conflict != nil || p.leafFlags[f.Name] || f.Name == p.configFlag {
			return
		}
		alias, _, _ := strings.Cut(f.Name, ".")
		if _, owned := p.byAlias[alias]; owned {
			conflict = declErr(f.Name, "flag conflicts with record %q", alias)
		}
	})
	if conflict != nil {
		return nil, conflict
	}
	return fs, nil
}
