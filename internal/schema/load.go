// SPDX-License-Identifier: MIT
package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefinitionFileNames are the file names recognised as schema definitions.
var DefinitionFileNames = []string{"_schema.yml", "_schema.yaml", "_schema.json"}

// ManifestFileNames are the extension manifest names whose presence next to a
// schema file marks it as a Quarto extension schema.
var ManifestFileNames = []string{"_extension.yml", "_extension.yaml"}

// IsDefinitionFile reports whether path names a schema definition file.
func IsDefinitionFile(path string) bool {
	base := filepath.Base(path)
	for _, n := range DefinitionFileNames {
		if base == n {
			return true
		}
	}
	return false
}

// HasSiblingManifest reports whether the directory containing schemaPath also
// holds an extension manifest. A schema file without one is inert: not a
// Quarto extension schema.
func HasSiblingManifest(schemaPath string) bool {
	dir := filepath.Dir(schemaPath)
	for _, n := range ManifestFileNames {
		if info, err := os.Stat(filepath.Join(dir, n)); err == nil && !info.IsDir() {
			return true
		}
	}
	return false
}

// Load reads and decodes a schema definition file. JSON definitions decode
// through the same path, since YAML is a superset of JSON.
func Load(path string) (*ExtensionSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes schema definition bytes.
func Parse(data []byte) (*ExtensionSchema, error) {
	var s ExtensionSchema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decoding schema: %w", err)
	}
	return &s, nil
}
