package annotation

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the YAML layout of an annotation file:
//
//	udfs:
//	  - name: enrich
//	    constant_fields: ["0->0", "2->1"]
type File struct {
	UDFs []FileEntry `yaml:"udfs"`
}

// FileEntry holds the declarations of one UDF.
type FileEntry struct {
	Name           string   `yaml:"name"`
	ConstantFields []string `yaml:"constant_fields"`
}

// LoadFile reads an annotation file into a Registry.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotation file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes annotation YAML into a Registry.
func Parse(data []byte) (*Registry, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse annotation YAML: %w", err)
	}
	return f.Registry()
}

// Registry converts the file into a Registry. UDF names must be unique.
func (f *File) Registry() (*Registry, error) {
	r := NewRegistry()
	seen := make(map[string]bool, len(f.UDFs))
	for i, e := range f.UDFs {
		if e.Name == "" {
			return nil, fmt.Errorf("udfs[%d]: name is required", i)
		}
		if seen[e.Name] {
			return nil, fmt.Errorf("udfs[%d]: duplicate udf %q", i, e.Name)
		}
		seen[e.Name] = true
		r.Register(e.Name, e.ConstantFields...)
	}
	return r, nil
}
