package tools

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var builtinCatalog []byte

// CatalogEntry is one statically configured tool before discovery.
type CatalogEntry struct {
	Name     string       `yaml:"name"`
	Command  string       `yaml:"command"`
	Params   []string     `yaml:"params"`
	Category ToolCategory `yaml:"category"`
}

// Catalog is the ordered list of configured tools.
type Catalog struct {
	Tools []CatalogEntry `yaml:"tools"`
}

// DefaultCatalog returns the built-in catalog.
func DefaultCatalog() (*Catalog, error) {
	return ParseCatalog(builtinCatalog)
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// ParseCatalog decodes and validates catalog YAML.
func ParseCatalog(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks entry names and commands and rejects duplicate names.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Tools))
	for i, entry := range c.Tools {
		if entry.Name == "" {
			return fmt.Errorf("catalog entry %d: %w", i, ErrToolNameEmpty)
		}
		if entry.Command == "" {
			return fmt.Errorf("catalog entry %s: %w", entry.Name, ErrToolCommandEmpty)
		}
		if seen[entry.Name] {
			return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, entry.Name)
		}
		seen[entry.Name] = true
	}
	return nil
}
