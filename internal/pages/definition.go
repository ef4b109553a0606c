package pages

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"csd-portal/ops-portal/ops-portal-backend/internal/dashboard"
)

//go:embed defaults.yaml
var defaultDefinitions []byte

// Definition describes one navigable dashboard page
type Definition struct {
	ID         string                `json:"id" yaml:"id"`
	Title      string                `json:"title" yaml:"title"`
	Dataset    string                `json:"dataset" yaml:"dataset"`
	Permission string                `json:"permission,omitempty" yaml:"permission,omitempty"`
	Dashboard  dashboard.Config      `json:"dashboard" yaml:"dashboard"`
	Panel      dashboard.PanelConfig `json:"panel" yaml:"panel"`
}

// File is the top-level shape of a page definitions file
type File struct {
	Pages []Definition `yaml:"pages"`
}

// Parse decodes page definitions, rejecting unknown keys
func Parse(data []byte) ([]Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("parsing page definitions: %w", err)
	}
	return f.Pages, nil
}

// LoadFile reads page definitions from path. An empty path loads the
// built-in definitions.
func LoadFile(path string) ([]Definition, error) {
	if path == "" {
		return Defaults()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page definitions: %w", err)
	}
	return Parse(data)
}

// Defaults returns the built-in page definitions
func Defaults() ([]Definition, error) {
	return Parse(defaultDefinitions)
}

// Validate checks the definition against the schema of its dataset
func (d Definition) Validate(schema dashboard.Schema) *dashboard.ValidationResult {
	result := dashboard.NewValidationResult()
	if d.ID == "" {
		result.AddError("id", dashboard.CodeRequired, "Page id is required")
	}
	if d.Title == "" {
		result.AddError("title", dashboard.CodeRequired, "Page title is required")
	}
	result.Merge("dashboard", d.Dashboard.Validate(schema))
	result.Merge("panel", d.Panel.Validate(d.Dashboard, schema))
	return result
}
