package commands

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// settings mirrors the fit configuration as a YAML file. Explicit command
// line flags win over file values.
type settings struct {
	Filters  []string `yaml:"filters"`
	Distance struct {
		Min float64 `yaml:"min"`
		Max float64 `yaml:"max"`
	} `yaml:"distance"`
	Av struct {
		Min  float64 `yaml:"min"`
		Max  float64 `yaml:"max"`
		Step float64 `yaml:"step"`
	} `yaml:"av"`
	Policy         string  `yaml:"policy"`
	Extinction     string  `yaml:"extinction"`
	ExtinctionEdge float64 `yaml:"extinction_edge"`
}

func loadSettings(path string) (*settings, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var s settings
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return &s, nil
}
