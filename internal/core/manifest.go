package core

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"
)

const (
	ManifestFile = "manifest.yaml"
	DefaultUnit  = "lakh rupees"
)

type ArtifactSpec struct {
	Type       ArtifactType `yaml:"type"`
	Path       string       `yaml:"path"`
	InputName  string       `yaml:"input,omitempty"`
	OutputName string       `yaml:"output,omitempty"`
}

type CategorySpec struct {
	Name     string       `yaml:"name"`
	Label    string       `yaml:"label"`
	Artifact ArtifactSpec `yaml:"artifact"`
	Vehicles []string     `yaml:"vehicles"`
}

// Manifest describes the artifact directory: one independently trained
// artifact per vehicle category and the vehicle identifiers that belong to it.
type Manifest struct {
	Unit       string         `yaml:"unit"`
	Categories []CategorySpec `yaml:"categories"`
}

func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("error parsing artifact manifest: %w", err)
	}

	if m.Unit == "" {
		m.Unit = DefaultUnit
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

func LoadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("error reading artifact manifest: %w", err)
	}
	return ParseManifest(data)
}

func (m *Manifest) Validate() error {
	if len(m.Categories) == 0 {
		return fmt.Errorf("artifact manifest must declare at least one category")
	}

	names := make(map[string]struct{})
	owners := make(map[string]string)
	for _, c := range m.Categories {
		if c.Name == "" {
			return fmt.Errorf("artifact manifest contains a category without a name")
		}
		if _, ok := names[c.Name]; ok {
			return fmt.Errorf("category '%s' is declared more than once", c.Name)
		}
		names[c.Name] = struct{}{}

		if c.Artifact.Type == "" || c.Artifact.Path == "" {
			return fmt.Errorf("category '%s' must specify an artifact type and path", c.Name)
		}
		if len(c.Vehicles) == 0 {
			return fmt.Errorf("category '%s' does not list any vehicles", c.Name)
		}

		for _, v := range c.Vehicles {
			key := normalizeVehicle(v)
			if key == "" {
				return fmt.Errorf("category '%s' contains an empty vehicle identifier", c.Name)
			}
			if other, ok := owners[key]; ok {
				return fmt.Errorf("vehicle '%s' is listed in both '%s' and '%s'", v, other, c.Name)
			}
			owners[key] = c.Name
		}
	}

	return nil
}

func normalizeVehicle(v string) string {
	return strings.ToLower(strings.Join(strings.Fields(v), " "))
}
