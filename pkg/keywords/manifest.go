package keywords

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes a keyword group: where its keywords come from and how
// text is matched against them.
type Manifest struct {
	ID           string           `yaml:"id" json:"id"`
	Version      string           `yaml:"version" json:"version"`
	Category     string           `yaml:"category" json:"category"`
	Description  string           `yaml:"description,omitempty" json:"description,omitempty"`
	Source       string           `yaml:"source,omitempty" json:"source,omitempty"`
	DataFile     string           `yaml:"data_file,omitempty" json:"data_file,omitempty"`
	Method       string           `yaml:"method,omitempty" json:"method,omitempty"`
	Format       FormatSpec       `yaml:"format,omitempty" json:"-"`
	MetadataCols []MetadataColumn `yaml:"metadata_columns,omitempty" json:"-"`
	Keywords     []string         `yaml:"keywords,omitempty" json:"keywords,omitempty"`
	Patterns     []PatternSpec    `yaml:"patterns,omitempty" json:"patterns,omitempty"`
}

// PatternSpec defines a regex pattern with an optional validator.
type PatternSpec struct {
	Name      string `yaml:"name" json:"name"`
	Regex     string `yaml:"regex" json:"regex"`
	Validator string `yaml:"validator,omitempty" json:"validator,omitempty"`
}

// FormatSpec describes the CSV layout of a keyword data file.
type FormatSpec struct {
	Delimiter string `yaml:"delimiter,omitempty"`
	Encoding  string `yaml:"encoding,omitempty"`
	HasHeader bool   `yaml:"has_header,omitempty"`
	KeyColumn string `yaml:"key_column,omitempty"`
	Normalize string `yaml:"normalize,omitempty"`
}

// MetadataColumn maps a logical name to a CSV column.
type MetadataColumn struct {
	Name   string `yaml:"name"`
	Column string `yaml:"column"`
}

const (
	MethodSubstring = "substring"
	MethodPattern   = "pattern"
)

// LoadManifest reads and parses a manifest.yaml file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest %s: %w", path, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.ID == "" {
		return nil, fmt.Errorf("manifest %s: missing id", path)
	}
	if m.Method == "" {
		m.Method = MethodSubstring
	}
	if m.Method == MethodSubstring && len(m.Keywords) == 0 && m.DataFile == "" {
		m.DataFile = "data.csv"
	}
	return &m, nil
}

// WriteManifest writes m as YAML to dir/manifest.yaml, creating dir.
func WriteManifest(dir string, m *Manifest) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "manifest.yaml"), data, 0o644)
}
