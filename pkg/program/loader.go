package program

import (
	"fmt"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	"gopkg.in/yaml.v3"

	"github.com/sandboxws/isotope/compiler/pkg/annotation"
	"github.com/sandboxws/isotope/compiler/pkg/config"
	"github.com/sandboxws/isotope/compiler/pkg/operator"
	"github.com/sandboxws/isotope/compiler/pkg/operators"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
	"github.com/sandboxws/isotope/compiler/pkg/udf"
)

// File is the YAML description of a program.
//
//	name: enrich-orders
//	annotations:
//	  - name: geo
//	    constant_fields: ["0->0"]
//	sources:
//	  - name: orders
//	    fields: [{name: id, type: int64}, {name: amount, type: int64}]
//	operators:
//	  - name: big
//	    kind: filter
//	    input: orders
//	    condition: amount > 100
type File struct {
	Name        string                 `yaml:"name"`
	Annotations []annotation.FileEntry `yaml:"annotations"`
	Sources     []SourceSpec           `yaml:"sources"`
	Operators   []OperatorSpec         `yaml:"operators"`
}

// FieldSpec is a named, typed field.
type FieldSpec struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// SourceSpec describes an input data set.
type SourceSpec struct {
	Name   string      `yaml:"name"`
	Fields []FieldSpec `yaml:"fields"`
}

// ColumnSpec is one output column of a map operator. An empty type is inferred
// from the expression.
type ColumnSpec struct {
	Name string `yaml:"name"`
	Expr string `yaml:"expr"`
	Type string `yaml:"type"`
}

// OperatorSpec describes one unary operator. Which fields apply depends on
// Kind.
type OperatorSpec struct {
	Name  string `yaml:"name"`
	Kind  string `yaml:"kind"`
	Input string `yaml:"input"`

	Condition string            `yaml:"condition"` // filter
	Columns   []ColumnSpec      `yaml:"columns"`   // map
	Renames   map[string]string `yaml:"renames"`   // rename
	Drop      []string          `yaml:"drop"`      // drop
	Casts     []FieldSpec       `yaml:"casts"`     // cast
	Unnest    string            `yaml:"unnest"`    // flatmap
	UDF       string            `yaml:"udf"`       // udf
	Result    []FieldSpec       `yaml:"result"`    // udf

	ConstantFields []string          `yaml:"constant_fields"`
	Derive         bool              `yaml:"derive"`
	Parameters     map[string]any    `yaml:"parameters"`
	Broadcast      map[string]string `yaml:"broadcast"`
}

// LoadFile reads a YAML program description from a file path.
func LoadFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read program file %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML program description and builds the program.
func Parse(data []byte) (*Program, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse program YAML: %w", err)
	}
	return f.Build()
}

// Build creates the data sets and operators of the file. An operator's input
// must be declared before it; broadcast sets may refer to any data set.
func (f *File) Build() (*Program, error) {
	registry, err := (&annotation.File{UDFs: f.Annotations}).Registry()
	if err != nil {
		return nil, fmt.Errorf("annotations: %w", err)
	}
	provider := annotation.Chain(annotation.Default(), registry)

	p := New(f.Name)
	byName := make(map[string]operator.DataSet)
	declare := func(ds operator.DataSet) error {
		if ds.Name() == "" {
			return fmt.Errorf("data set name is required")
		}
		if _, exists := byName[ds.Name()]; exists {
			return fmt.Errorf("duplicate data set %q", ds.Name())
		}
		byName[ds.Name()] = ds
		p.Add(ds)
		return nil
	}

	for i, s := range f.Sources {
		schema, err := schemaOf(s.Fields)
		if err != nil {
			return nil, fmt.Errorf("sources[%d] %s: %w", i, s.Name, err)
		}
		if err := declare(operator.NewSource(s.Name, schema)); err != nil {
			return nil, fmt.Errorf("sources[%d]: %w", i, err)
		}
	}

	built := make([]*operator.Unary, len(f.Operators))
	for i, spec := range f.Operators {
		input, ok := byName[spec.Input]
		if !ok {
			return nil, fmt.Errorf("operators[%d] %s: unknown input %q", i, spec.Name, spec.Input)
		}
		u, err := buildOperator(spec, input)
		if err != nil {
			return nil, fmt.Errorf("operators[%d]: %w", i, err)
		}
		if err := configure(u, spec, provider); err != nil {
			return nil, fmt.Errorf("operators[%d]: %w", i, err)
		}
		if err := declare(u); err != nil {
			return nil, fmt.Errorf("operators[%d]: %w", i, err)
		}
		built[i] = u
	}

	for i, spec := range f.Operators {
		for bcName, dsName := range spec.Broadcast {
			ds, ok := byName[dsName]
			if !ok {
				return nil, fmt.Errorf("operators[%d] %s: unknown broadcast data set %q", i, spec.Name, dsName)
			}
			built[i].WithBroadcastSet(ds, bcName)
		}
	}

	return p, nil
}

func buildOperator(spec OperatorSpec, input operator.DataSet) (*operator.Unary, error) {
	switch spec.Kind {
	case "filter":
		op, err := operators.NewFilter(spec.Name, input, spec.Condition)
		if err != nil {
			return nil, err
		}
		return op.Unary, nil

	case "map":
		cols := make([]operators.Column, len(spec.Columns))
		for i, c := range spec.Columns {
			cols[i] = operators.Column{Name: c.Name, Expr: c.Expr}
			if c.Type == "" {
				continue
			}
			dt, err := shape.ParseType(c.Type)
			if err != nil {
				return nil, fmt.Errorf("map %s: column %q: %w", spec.Name, c.Name, err)
			}
			cols[i].Type = dt
		}
		op, err := operators.NewMap(spec.Name, input, cols)
		if err != nil {
			return nil, err
		}
		return op.Unary, nil

	case "rename":
		op, err := operators.NewRename(spec.Name, input, spec.Renames)
		if err != nil {
			return nil, err
		}
		return op.Unary, nil

	case "drop":
		op, err := operators.NewDrop(spec.Name, input, spec.Drop)
		if err != nil {
			return nil, err
		}
		return op.Unary, nil

	case "cast":
		casts := make([]operators.CastColumn, len(spec.Casts))
		for i, c := range spec.Casts {
			dt, err := shape.ParseType(c.Type)
			if err != nil {
				return nil, fmt.Errorf("cast %s: column %q: %w", spec.Name, c.Name, err)
			}
			casts[i] = operators.CastColumn{Name: c.Name, TargetType: dt}
		}
		op, err := operators.NewCast(spec.Name, input, casts)
		if err != nil {
			return nil, err
		}
		return op.Unary, nil

	case "flatmap":
		op, err := operators.NewFlatMap(spec.Name, input, spec.Unnest)
		if err != nil {
			return nil, err
		}
		return op.Unary, nil

	case "", operator.DefaultKind:
		if spec.UDF == "" {
			return nil, fmt.Errorf("udf %s: udf name is required", spec.Name)
		}
		result, err := schemaOf(spec.Result)
		if err != nil {
			return nil, fmt.Errorf("udf %s: %w", spec.Name, err)
		}
		return operator.NewUnary(spec.Name, input, udf.Named(spec.UDF), result), nil

	default:
		return nil, fmt.Errorf("unsupported operator kind: %s", spec.Kind)
	}
}

// configure attaches parameters and semantic properties. Explicit constant
// fields replace what the operator kind derived unless derive is set, in which
// case both are merged.
func configure(u *operator.Unary, spec OperatorSpec, provider annotation.Provider) error {
	if spec.Parameters != nil {
		u.WithParameters(config.FromMap(spec.Parameters))
	}

	var err error
	switch {
	case spec.Derive:
		_, err = u.WithConstantSetAndDerived(provider, spec.ConstantFields...)
	case spec.ConstantFields != nil:
		_, err = u.WithConstantSet(spec.ConstantFields...)
	}
	return err
}

// schemaOf builds a schema from field specs. No fields means an unbound,
// non-addressable shape.
func schemaOf(fields []FieldSpec) (*arrow.Schema, error) {
	if len(fields) == 0 {
		return nil, nil
	}
	out := make([]arrow.Field, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return nil, fmt.Errorf("fields[%d]: name is required", i)
		}
		dt, err := shape.ParseType(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", f.Name, err)
		}
		out[i] = arrow.Field{Name: f.Name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(out, nil), nil
}
