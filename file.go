// FILE: argconfig/file.go
package argconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Configuration file formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

var supportedExtensions = []string{".json", ".yaml", ".yml", ".toml"}

// SupportedExtensions returns the configuration file extensions LoadFile accepts.
func SupportedExtensions() []string {
	out := make([]string, len(supportedExtensions))
	copy(out, supportedExtensions)
	return out
}

// LoadFile reads a configuration file into a tree keyed by record alias.
// The format is chosen by extension. A missing file fails with ErrConfigNotFound.
func LoadFile(path string) (map[string]any, error) {
	format := detectFileFormat(path)
	if format == "" {
		return nil, &UnsupportedFormatError{Path: path, Extension: filepath.Ext(path)}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	tree, err := decodeConfigData(data, format)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s config file '%s': %w", strings.ToUpper(format), path, err)
	}
	return tree, nil
}

// decodeConfigData parses file bytes of the given format into a generic tree.
// JSON numbers stay json.Number so integers and floats remain distinguishable.
func decodeConfigData(data []byte, format string) (map[string]any, error) {
	tree := make(map[string]any)
	switch format {
	case FormatTOML:
		if err := toml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	case FormatJSON:
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.UseNumber()
		if err := decoder.Decode(&tree); err != nil {
			return nil, err
		}
	case FormatYAML:
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown format %q", format)
	}
	if tree == nil {
		// An empty YAML document or a JSON null.
		tree = make(map[string]any)
	}
	return tree, nil
}

// detectFileFormat determines format from file extension
func detectFileFormat(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return ""
	}
}
