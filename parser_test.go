// FILE: argconfig/parser_test.go
package argconfig

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// TestParse tests end-to-end parsing of command-line arguments and config files
func TestParse(t *testing.T) {
	t.Run("FlagForms", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer))

		res, err := p.Parse([]string{"--Outer.inner.x", "5", "--Outer.z=2.5"})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"inner": map[string]any{"x": 5, "y": "a"},
			"z":     2.5,
		}, res.Records["Outer"].Map())
		assert.Empty(t, res.ConfigFile)
	})

	t.Run("NoStateBetweenCalls", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer))

		_, err := p.Parse([]string{"--Outer.z", "2"})
		require.NoError(t, err)
		res, err := p.Parse(nil)
		require.NoError(t, err)
		z, _ := res.Records["Outer"].Float64("z")
		assert.Equal(t, 0.5, z)
		assert.Equal(t, SourceDefault, res.Sources["Outer.z"])
	})

	t.Run("ConfigFlag", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer))
		path := writeFile(t, t.TempDir(), "app.yaml", "Outer:\n  inner:\n    y: fromfile\n  z: 1.5\n")

		res, err := p.Parse([]string{"--config", path, "--Outer.z", "3"})
		require.NoError(t, err)
		assert.Equal(t, path, res.ConfigFile)

		y, _ := res.Records["Outer"].String("inner.y")
		z, _ := res.Records["Outer"].Float64("z")
		assert.Equal(t, "fromfile", y)
		assert.Equal(t, 3.0, z)
		assert.Equal(t, SourceFile, res.Sources["Outer.inner.y"])
		assert.Equal(t, SourceCLI, res.Sources["Outer.z"])
	})

	t.Run("ConfigShorthand", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer).WithConfigFlag("settings", "s"))
		path := writeFile(t, t.TempDir(), "app.json", `{"Outer": {"z": 4}}`)

		res, err := p.Parse([]string{"-s", path})
		require.NoError(t, err)
		z, _ := res.Records["Outer"].Float64("z")
		assert.Equal(t, 4.0, z)
	})

	t.Run("ExplicitConfigMissing", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer))

		_, err := p.Parse([]string{"--config", filepath.Join(t.TempDir(), "absent.yaml")})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfigNotFound))
	})

	t.Run("DefaultFileMissingIsFine", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer).WithFile(filepath.Join(t.TempDir(), "absent.toml")))

		res, err := p.Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, res.ConfigFile)
	})

	t.Run("DefaultFileUsed", func(t *testing.T) {
		outer, _ := newOuterSchema()
		path := writeFile(t, t.TempDir(), "app.toml", "[Outer.inner]\nx = 8\n")
		p := mustParser(t, NewBuilder().WithRecord(outer).WithFile(path))

		res, err := p.Parse(nil)
		require.NoError(t, err)
		x, _ := res.Records["Outer"].Int("inner.x")
		assert.Equal(t, 8, x)
		assert.Equal(t, path, res.ConfigFile)
	})

	t.Run("UnsupportedExtension", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer))
		path := writeFile(t, t.TempDir(), "app.ini", "z=1")

		_, err := p.Parse([]string{"--config", path})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
		assert.Contains(t, err.Error(), ".json, .yaml, .yml, .toml")
	})

	t.Run("UnknownFlag", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer))

		_, err := p.Parse([]string{"--Outer.nope", "1"})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCLIParse))
	})

	t.Run("HelpRequested", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer))

		_, err := p.Parse([]string{"--help"})
		assert.True(t, errors.Is(err, pflag.ErrHelp))
	})

	t.Run("BoolLeafNeedsValue", func(t *testing.T) {
		s := NewSchema("S").Field("debug", Bool, Default(false))
		p := mustParser(t, NewBuilder().WithRecord(s))

		res, err := p.Parse([]string{"--S.debug", "True"})
		require.NoError(t, err)
		debug, _ := res.Records["S"].Bool("debug")
		assert.True(t, debug)

		_, err = p.Parse([]string{"--S.debug=yes"})
		assert.True(t, errors.Is(err, ErrDecode))
	})

	t.Run("CompoundTokens", func(t *testing.T) {
		s := NewSchema("S").
			Field("size", Tuple(Int, Int), Default([]any{1, 1})).
			Field("tags", List(Str), Default([]any{})).
			Field("labels", Map(Str, Int), Default(map[string]any{})).
			Field("mode", Choice("fast", "slow"), Default("slow")).
			Field("limit", Optional(Int), Default(nil))
		p := mustParser(t, NewBuilder().WithRecord(s))

		res, err := p.Parse([]string{
			"--S.size", "(640, 480)",
			"--S.tags=[a,b]",
			"--S.labels", `{"k": 1}`,
			"--S.mode", "fast",
		})
		require.NoError(t, err)
		assert.Equal(t, map[string]any{
			"size":   []any{640, 480},
			"tags":   []any{"a", "b"},
			"labels": map[string]any{"k": 1},
			"mode":   "fast",
			"limit":  nil,
		}, res.Records["S"].Map())
	})
}

// TestCustomFlags tests flags outside every record
func TestCustomFlags(t *testing.T) {
	outer, _ := newOuterSchema()
	p := mustParser(t, NewBuilder().
		WithRecord(outer).
		WithFlags(func(fs *pflag.FlagSet) {
			fs.BoolP("verbose", "v", false, "verbose output")
			fs.Int("workers", 4, "worker count")
			fs.StringSlice("include", nil, "include patterns")
		}))

	res, err := p.Parse([]string{"-v", "--include", "a,b", "--Outer.z", "1"})
	require.NoError(t, err)
	assert.Equal(t, true, res.Flags["verbose"])
	assert.Equal(t, 4, res.Flags["workers"])
	assert.Equal(t, []string{"a", "b"}, res.Flags["include"])
	assert.NotContains(t, res.Flags, "config")
	assert.NotContains(t, res.Flags, "Outer.z")
}

// TestEvaluate tests resolving from a flag set parsed by another command
func TestEvaluate(t *testing.T) {
	outer, _ := newOuterSchema()
	p := mustParser(t, NewBuilder().WithRecord(outer))

	host := pflag.NewFlagSet("host", pflag.ContinueOnError)
	host.String("mode", "run", "host command flag")
	host.AddFlagSet(p.Flags())
	require.NoError(t, host.Parse([]string{"--mode", "check", "--Outer.inner.y", "zz"}))

	res, err := p.Evaluate()
	require.NoError(t, err)
	y, _ := res.Records["Outer"].String("inner.y")
	assert.Equal(t, "zz", y)
	assert.NotContains(t, res.Flags, "mode")
}

func TestUsage(t *testing.T) {
	_, inner := newOuterSchema()
	endpoint := NewSchema("Endpoint").Field("url", Str)
	s := NewSchema("S").
		Field("inner", Record(inner), DefaultRecord()).
		Field("name", Str, Help("service name")).
		Field("eps", List(Record(endpoint)), Default([]any{}))
	p := mustParser(t, NewBuilder().WithRecord(s))

	usage := p.Usage()
	assert.Contains(t, usage, "--S.inner.x")
	assert.Contains(t, usage, "first (default: 1)")
	assert.Contains(t, usage, "service name (required)")
	assert.Contains(t, usage, "--config")
	assert.NotContains(t, usage, "--S.eps")
	assert.Nil(t, p.Flags().Lookup("S.eps"))
}

func TestFileDiscovery(t *testing.T) {
	t.Run("SearchPaths", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "demo.json", `{"Outer": {"z": 9}}`)

		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer).WithFileDiscovery(FileDiscoveryOptions{
			Name:  "demo",
			Paths: []string{dir},
		}))

		res, err := p.Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "demo.json"), res.ConfigFile)
		z, _ := res.Records["Outer"].Float64("z")
		assert.Equal(t, 9.0, z)
	})

	t.Run("EnvVar", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "custom.yml", "Outer:\n  z: 7\n")
		t.Setenv("DEMO_CONFIG", path)

		opts := DefaultDiscoveryOptions("demo")
		opts.UseXDG = false
		opts.UseCurrentDir = false

		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer).WithFileDiscovery(opts))

		res, err := p.Parse(nil)
		require.NoError(t, err)
		assert.Equal(t, path, res.ConfigFile)
	})

	t.Run("NothingFound", func(t *testing.T) {
		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer).WithFileDiscovery(FileDiscoveryOptions{
			Name:  "demo",
			Paths: []string{t.TempDir()},
		}))

		res, err := p.Parse(nil)
		require.NoError(t, err)
		assert.Empty(t, res.ConfigFile)
	})

	t.Run("CommandLineWins", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "demo.json", `{"Outer": {"z": 9}}`)
		explicit := writeFile(t, dir, "other.json", `{"Outer": {"z": 2}}`)

		outer, _ := newOuterSchema()
		p := mustParser(t, NewBuilder().WithRecord(outer).WithFileDiscovery(FileDiscoveryOptions{
			Name:  "demo",
			Paths: []string{dir},
		}))

		res, err := p.Parse([]string{"--config", explicit})
		require.NoError(t, err)
		assert.Equal(t, explicit, res.ConfigFile)
	})
}
