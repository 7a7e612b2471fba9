package library

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML form of a function library.
//
//	functions:
//	  - name: SplitAt
//	    class: Curve
//	    kind: method
//	    params:
//	      - {name: parameter, type: double}
//	    return_keys: [Curve, Length]
type Manifest struct {
	Functions []ManifestFunction `yaml:"functions"`
}

// ManifestFunction is one entry of a manifest.
type ManifestFunction struct {
	Name        string          `yaml:"name"`
	Class       string          `yaml:"class,omitempty"`
	DisplayName string          `yaml:"display_name,omitempty"`
	Kind        string          `yaml:"kind,omitempty"`
	Params      []ManifestParam `yaml:"params,omitempty"`
	ReturnType  string          `yaml:"return_type,omitempty"`
	ReturnKeys  []string        `yaml:"return_keys,omitempty"`
	Description string          `yaml:"description,omitempty"`
}

// ManifestParam is one parameter of a manifest function.
type ManifestParam struct {
	Name string `yaml:"name"`
	Type string `yaml:"type,omitempty"`
}

// LoadManifestFile reads and parses a manifest from disk.
func LoadManifestFile(path string) ([]*FunctionDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return LoadManifest(data, path)
}

// LoadManifest parses manifest YAML into descriptors. path is only used in
// error messages.
func LoadManifest(data []byte, path string) ([]*FunctionDescriptor, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := m.validate(path); err != nil {
		return nil, err
	}

	descs := make([]*FunctionDescriptor, 0, len(m.Functions))
	for _, f := range m.Functions {
		kind, _ := ParseKind(f.Kind) // checked by validate
		d := &FunctionDescriptor{
			Name:        f.Name,
			ClassName:   f.Class,
			DisplayName: f.DisplayName,
			Kind:        kind,
			ReturnType:  f.ReturnType,
			ReturnKeys:  append([]string(nil), f.ReturnKeys...),
			Description: f.Description,
		}
		for _, p := range f.Params {
			d.Params = append(d.Params, Parameter{Name: p.Name, Type: p.Type})
		}
		descs = append(descs, d)
	}
	return descs, nil
}

// validate checks the manifest for semantic errors.
func (m *Manifest) validate(path string) error {
	for i, f := range m.Functions {
		if f.Name == "" {
			return fmt.Errorf("%s: functions[%d]: name is required", path, i)
		}
		kind, err := ParseKind(f.Kind)
		if err != nil {
			return fmt.Errorf("%s: functions[%d] (%s): %w", path, i, f.Name, err)
		}
		if (kind == KindConstructor || kind == KindInstanceMethod) && f.Class == "" {
			return fmt.Errorf("%s: functions[%d] (%s): class is required for %s", path, i, f.Name, kind)
		}

		seenParams := make(map[string]bool)
		for j, p := range f.Params {
			if p.Name == "" {
				return fmt.Errorf("%s: functions[%d].params[%d] (%s): name is required", path, i, j, f.Name)
			}
			if seenParams[p.Name] {
				return fmt.Errorf("%s: functions[%d] (%s): duplicate parameter %q", path, i, f.Name, p.Name)
			}
			seenParams[p.Name] = true
		}

		seenKeys := make(map[string]bool)
		for _, k := range f.ReturnKeys {
			if k == "" {
				return fmt.Errorf("%s: functions[%d] (%s): empty return key", path, i, f.Name)
			}
			if seenKeys[k] {
				return fmt.Errorf("%s: functions[%d] (%s): duplicate return key %q", path, i, f.Name, k)
			}
			seenKeys[k] = true
		}
	}
	return nil
}
