package dataset

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Spec describes one spreadsheet source: which file it lives in, which
// columns the caller requires, and how those columns are typed. Column names
// under Required, Date, Category and Labels are the normalized (trimmed,
// lowercased) source names; Rename maps them to their canonical display
// names, and Fractions lists canonical metric names bounded to [0, 1].
type Spec struct {
	Name      string            `yaml:"name"`
	File      string            `yaml:"file"`
	Sheet     string            `yaml:"sheet,omitempty"`
	Required  []string          `yaml:"required"`
	Rename    map[string]string `yaml:"rename,omitempty"`
	Date      string            `yaml:"date,omitempty"`
	Category  string            `yaml:"category,omitempty"`
	Labels    []string          `yaml:"labels,omitempty"`
	Fractions []string          `yaml:"fractions,omitempty"`
}

// Canonical returns the display name for a normalized source column.
func (s Spec) Canonical(column string) string {
	if name, ok := s.Rename[column]; ok {
		return name
	}
	return column
}

// Catalog holds every dataset the dashboards can serve.
type Catalog struct {
	Datasets []Spec `yaml:"datasets"`
}

// LoadCatalog reads and parses the datasets.yaml file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset catalog: %w", err)
	}

	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to unmarshal dataset catalog: %w", err)
	}

	return &catalog, nil
}

// Get looks a dataset up by name.
func (c *Catalog) Get(name string) (Spec, bool) {
	for _, s := range c.Datasets {
		if s.Name == name {
			return s, true
		}
	}
	return Spec{}, false
}
