package catalog

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"mirror/internal/domain/trend"
)

//go:embed catalog.yaml
var catalogYAML []byte

// PlatformInfo describes a supported platform
type PlatformInfo struct {
	ID           trend.Platform `yaml:"id" json:"id"`
	Name         string         `yaml:"name" json:"name"`
	Description  string         `yaml:"description" json:"description"`
	Capabilities []string       `yaml:"capabilities" json:"capabilities"`
	Configured   bool           `yaml:"-" json:"configured"`
}

// ExampleQuery is a ready-made query shown to users
type ExampleQuery struct {
	Query            string   `yaml:"query" json:"query"`
	Description      string   `yaml:"description" json:"description"`
	ExpectedInsights []string `yaml:"expected_insights" json:"expected_insights"`
}

// Catalog holds static platform and example data
type Catalog struct {
	Platforms      []PlatformInfo `yaml:"platforms"`
	ExampleQueries []ExampleQuery `yaml:"example_queries"`
}

// Load parses the embedded catalog
func Load() (*Catalog, error) {
	return parse(catalogYAML)
}

func parse(b []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	for _, p := range c.Platforms {
		if !p.ID.Valid() {
			return nil, fmt.Errorf("catalog lists unknown platform %q", p.ID)
		}
	}
	return &c, nil
}

// PlatformsWith returns the platform list with Configured set for each entry in configured
func (c *Catalog) PlatformsWith(configured []trend.Platform) []PlatformInfo {
	on := make(map[trend.Platform]bool, len(configured))
	for _, p := range configured {
		on[p] = true
	}

	out := make([]PlatformInfo, len(c.Platforms))
	for i, p := range c.Platforms {
		p.Configured = on[p.ID]
		out[i] = p
	}
	return out
}
