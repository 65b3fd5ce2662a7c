package payload

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v2"
)

// LoadFile reads a league from a .json, .yaml or .yml file and validates it.
func LoadFile(path string) (*SimulationRequest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading league file: %w", err)
	}

	var req SimulationRequest
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: bad JSON in %s: %v", ErrInvalidInput, path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &req); err != nil {
			return nil, fmt.Errorf("%w: bad YAML in %s: %v", ErrInvalidInput, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: unsupported league file format %q", ErrInvalidInput, ext)
	}

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &req, nil
}

// WriteFile writes a league in the format given by the path's extension.
func WriteFile(path string, req *SimulationRequest) error {
	var (
		raw []byte
		err error
	)
	switch ext := filepath.Ext(path); ext {
	case ".json":
		raw, err = json.MarshalIndent(req, "", "  ")
	case ".yaml", ".yml":
		raw, err = yaml.Marshal(req)
	default:
		return fmt.Errorf("%w: unsupported league file format %q", ErrInvalidInput, ext)
	}
	if err != nil {
		return fmt.Errorf("encoding league file: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing league file: %w", err)
	}
	return nil
}
