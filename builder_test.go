// FILE: argconfig/builder_test.go
package argconfig

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBuilder tests the builder pattern
func TestBuilder(t *testing.T) {
	t.Run("BasicBuilder", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p, err := NewBuilder().WithRecord(outer).Build()
		require.NoError(t, err)
		require.NotNil(t, p)

		assert.NotNil(t, p.Flags().Lookup("Outer.inner.x"))
		assert.NotNil(t, p.Flags().Lookup("Outer.z"))
		assert.NotNil(t, p.Flags().Lookup(DefaultConfigFlag))
		assert.Nil(t, p.Flags().Lookup("Outer.inner"))
	})

	t.Run("BuilderWithAllOptions", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p, err := NewBuilder().
			WithName("demo").
			WithNamedRecord("app", outer).
			WithConfigFlag("file", "f").
			WithFileDiscovery(FileDiscoveryOptions{Name: "demo", Paths: []string{t.TempDir()}}).
			WithFlags(func(fs *pflag.FlagSet) { fs.Bool("dry-run", false, "") }).
			WithValidator(func(*Result) error { return nil }).
			WithTagName("arg").
			WithLogger(zerolog.Nop()).
			Build()
		require.NoError(t, err)

		assert.NotNil(t, p.Flags().Lookup("file"))
		assert.Equal(t, "f", p.Flags().Lookup("file").Shorthand)
		assert.Nil(t, p.Flags().Lookup("config"))

		res, err := p.Parse([]string{"--app.z", "2", "--dry-run"})
		require.NoError(t, err)
		assert.Equal(t, true, res.Flags["dry-run"])
	})

	t.Run("WithoutConfigFlag", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer).WithoutConfigFlag())
		assert.Nil(t, p.Flags().Lookup(DefaultConfigFlag))
	})

	t.Run("ConfigAliasDisablesConfigFlag", func(t *testing.T) {
		s := NewSchema("Settings").Field("path", Str, Default("x"))
		p := mustParser(t, NewBuilder().WithNamedRecord("config", s))

		assert.NotNil(t, p.Flags().Lookup("config.path"))
		assert.Nil(t, p.Flags().Lookup("config"))

		res, err := p.Parse([]string{"--config.path", "y"})
		require.NoError(t, err)
		v, _ := res.Records["config"].String("path")
		assert.Equal(t, "y", v)
	})

	t.Run("MustBuildPanics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewBuilder().MustBuild()
		})
	})
}

// TestBuilderDeclarationErrors tests configuration-time rejection
func TestBuilderDeclarationErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Builder
	}{
		{"NoRecords", func() *Builder { return NewBuilder() }},
		{"NilSchema", func() *Builder { return NewBuilder().WithRecord(nil) }},
		{"InvalidAlias", func() *Builder {
			return NewBuilder().WithNamedRecord("my app", NewSchema("S").Field("a", Int, Default(1)))
		}},
		{"HelpReserved", func() *Builder {
			return NewBuilder().WithNamedRecord("help", NewSchema("S").Field("a", Int, Default(1)))
		}},
		{"DuplicateAlias", func() *Builder {
			s := NewSchema("S").Field("a", Int, Default(1))
			return NewBuilder().WithRecord(s).WithNamedRecord("S", NewSchema("T").Field("b", Int, Default(1)))
		}},
		{"InvalidSchema", func() *Builder {
			return NewBuilder().WithRecord(NewSchema("S").Field("a", Int).Field("a", Int))
		}},
		{"CustomFlagRedefinesLeaf", func() *Builder {
			return NewBuilder().
				WithRecord(NewSchema("S").Field("a", Int, Default(1))).
				WithFlags(func(fs *pflag.FlagSet) { fs.String("S.a", "", "") })
		}},
		{"CustomFlagNamedAlias", func() *Builder {
			return NewBuilder().
				WithRecord(NewSchema("S").Field("a", Int, Default(1))).
				WithFlags(func(fs *pflag.FlagSet) { fs.Bool("S", false, "") })
		}},
		{"CustomFlagInRecordNamespace", func() *Builder {
			return NewBuilder().
				WithRecord(NewSchema("S").Field("a", Int, Default(1))).
				WithFlags(func(fs *pflag.FlagSet) { fs.Bool("S.extra", false, "") })
		}},
		{"CustomFlagRedefinesConfig", func() *Builder {
			return NewBuilder().
				WithRecord(NewSchema("S").Field("a", Int, Default(1))).
				WithFlags(func(fs *pflag.FlagSet) { fs.String("config", "", "") })
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.build().Build()
			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, ErrSchemaDeclaration), "got %v", err)
		})
	}
}
