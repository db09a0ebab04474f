package argconfig

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadFile tests format detection and parsing
func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("JSONKeepsNumbers", func(t *testing.T) {
		path := writeFile(t, dir, "a.json", `{"S": {"n": 3, "f": 1.5}}`)
		tree, err := LoadFile(path)
		require.NoError(t, err)
		section := tree["S"].(map[string]any)
		assert.Equal(t, json.Number("3"), section["n"])
		assert.Equal(t, json.Number("1.5"), section["f"])
	})

	t.Run("YAML", func(t *testing.T) {
		path := writeFile(t, dir, "a.yml", "S:\n  n: 3\n  tags: [a, b]\n")
		tree, err := LoadFile(path)
		require.NoError(t, err)
		section := tree["S"].(map[string]any)
		assert.Equal(t, 3, section["n"])
		assert.Equal(t, []any{"a", "b"}, section["tags"])
	})

	t.Run("TOML", func(t *testing.T) {
		path := writeFile(t, dir, "a.toml", "[S]\nn = 3\nname = \"x\"\n")
		tree, err := LoadFile(path)
		require.NoError(t, err)
		section := tree["S"].(map[string]any)
		assert.Equal(t, int64(3), section["n"])
		assert.Equal(t, "x", section["name"])
	})

	t.Run("ExtensionCaseInsensitive", func(t *testing.T) {
		path := writeFile(t, dir, "upper.JSON", `{}`)
		tree, err := LoadFile(path)
		require.NoError(t, err)
		assert.Empty(t, tree)
	})

	t.Run("EmptyYAML", func(t *testing.T) {
		path := writeFile(t, dir, "empty.yaml", "")
		tree, err := LoadFile(path)
		require.NoError(t, err)
		assert.NotNil(t, tree)
		assert.Empty(t, tree)
	})

	t.Run("Unsupported", func(t *testing.T) {
		path := writeFile(t, dir, "a.cfg", "x")
		_, err := LoadFile(path)
		var uf *UnsupportedFormatError
		require.ErrorAs(t, err, &uf)
		assert.Equal(t, ".cfg", uf.Extension)
		assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(dir, "absent.json"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrConfigNotFound))
		assert.Contains(t, err.Error(), "absent.json")
	})

	t.Run("Malformed", func(t *testing.T) {
		path := writeFile(t, dir, "bad.json", `{"S": `)
		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to parse JSON config file")
	})

	t.Run("SupportedExtensions", func(t *testing.T) {
		exts := SupportedExtensions()
		assert.Equal(t, []string{".json", ".yaml", ".yml", ".toml"}, exts)
		exts[0] = ".changed"
		assert.Equal(t, ".json", SupportedExtensions()[0])
	})
}

// TestFormatsResolveAlike tests that every format yields the same instance
func TestFormatsResolveAlike(t *testing.T) {
	files := map[string]string{
		"app.json": `{"S": {"n": 3, "f": 2, "name": "x", "on": true, "tags": ["a"], "size": [1, 2], "inner": {"x": 9}}}`,
		"app.yaml": "S:\n  n: 3\n  f: 2\n  name: x\n  on: true\n  tags: [a]\n  size: [1, 2]\n  inner:\n    x: 9\n",
		"app.toml": "[S]\nn = 3\nf = 2\nname = \"x\"\non = true\ntags = [\"a\"]\nsize = [1, 2]\n\n[S.inner]\nx = 9\n",
	}

	dir := t.TempDir()
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			_, inner := newOuterSchema()
			s := NewSchema("S").
				Field("n", Int).
				Field("f", Float).
				Field("name", Str).
				Field("on", Bool).
				Field("tags", List(Str)).
				Field("size", Tuple(Int, Int)).
				Field("inner", Record(inner), DefaultRecord())
			p := mustParser(t, NewBuilder().WithRecord(s))

			path := writeFile(t, dir, name, content)
			res, err := p.Parse([]string{"--config", path})
			require.NoError(t, err)
			assert.Equal(t, map[string]any{
				"n":     3,
				"f":     2.0,
				"name":  "x",
				"on":    true,
				"tags":  []any{"a"},
				"size":  []any{1, 2},
				"inner": map[string]any{"x": 9, "y": "a"},
			}, res.Records["S"].Map())
		})
	}
}
