package esindex

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromFile reads an index definition from a JSON or YAML file (decided by
// extension) and returns an Index named name. The file may contain
// "settings", "aliases" and "mappings" sections; settings.analysis is
// lifted into the analysis map so clones and serialization treat it like
// programmatic registration, and mappings.properties becomes a schema
// named after the index.
func FromFile(name, path string, opts ...Option) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("esindex: reading definition %q: %w", path, err)
	}

	var def map[string]any
	switch ext := filepath.Ext(path); ext {
	case ".json":
		if err := json.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("esindex: parsing JSON definition %q: %w", path, err)
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &def); err != nil {
			return nil, fmt.Errorf("esindex: parsing YAML definition %q: %w", path, err)
		}
	default:
		return nil, fmt.Errorf("esindex: unsupported definition format %q", ext)
	}

	i := New(name, opts...)
	if err := i.applyDefinition(def); err != nil {
		return nil, fmt.Errorf("esindex: definition %q: %w", path, err)
	}

	return i, nil
}

// FromDir reads one index definition per file from a directory. The index
// name is the file name without extension; files starting with "_" and
// subdirectories are skipped.
func FromDir(dir string, opts ...Option) ([]*Index, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("esindex: reading definitions directory %q: %w", dir, err)
	}

	var indices []*Index
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := filepath.Ext(name)
		if ext != ".json" && ext != ".yml" && ext != ".yaml" {
			continue
		}
		if strings.HasPrefix(name, "_") {
			continue
		}

		i, err := FromFile(strings.TrimSuffix(name, ext), filepath.Join(dir, name), opts...)
		if err != nil {
			return nil, err
		}
		indices = append(indices, i)
	}

	if len(indices) == 0 {
		return nil, fmt.Errorf("esindex: no definition files found in %q", dir)
	}

	return indices, nil
}

// applyDefinition merges a parsed definition document into the index.
func (i *Index) applyDefinition(def map[string]any) error {
	for key, section := range def {
		m, ok := section.(map[string]any)
		if !ok {
			return fmt.Errorf("section %q is not a mapping", key)
		}

		switch key {
		case "settings":
			if err := i.applySettings(m); err != nil {
				return err
			}
		case "aliases":
			i.Aliases(m)
		case "mappings":
			if err := i.applyMappings(m); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown section %q", key)
		}
	}
	return nil
}

func (i *Index) applySettings(settings map[string]any) error {
	for k, v := range settings {
		if k != "analysis" {
			i.Settings(map[string]any{k: v})
			continue
		}

		sections, ok := v.(map[string]any)
		if !ok {
			return fmt.Errorf("settings.analysis is not a mapping")
		}
		for section, defs := range sections {
			m, ok := defs.(map[string]any)
			if !ok {
				return fmt.Errorf("settings.analysis.%s is not a mapping", section)
			}
			if i.analysis[section] == nil {
				i.analysis[section] = make(map[string]any)
			}
			for name, d := range m {
				i.analysis[section][name] = copyAny(d)
			}
		}
	}
	return nil
}

func (i *Index) applyMappings(mappings map[string]any) error {
	props, ok := mappings["properties"]
	if !ok {
		return nil
	}
	fields, ok := props.(map[string]any)
	if !ok {
		return fmt.Errorf("mappings.properties is not a mapping")
	}

	s := NewSchema(i.name)
	for name, f := range fields {
		m, ok := f.(map[string]any)
		if !ok {
			return fmt.Errorf("mappings.properties.%s is not a mapping", name)
		}
		s.Field(name, Field(m))
	}

	return i.Document(s)
}
