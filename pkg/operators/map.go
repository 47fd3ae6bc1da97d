package operators

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/expr"
	"github.com/sandboxws/isotope/compiler/pkg/operator"
	"github.com/sandboxws/isotope/compiler/pkg/udf"
)

// Column is one output column of a Map: a SQL expression over input columns.
// A nil Type is inferred from the expression.
type Column struct {
	Name string
	Expr string
	Type arrow.DataType
}

// Map evaluates column-level SQL expressions to produce new records.
// Output columns appear in the order given. A column whose expression is a bare
// input column reference is a constant field.
type Map struct {
	*operator.Unary
	columns []Column
}

type mapFn struct {
	name    string
	columns []Column
}

func (m mapFn) Name() string { return m.name }

func (m mapFn) Projections() []udf.Projection {
	out := make([]udf.Projection, len(m.columns))
	for i, c := range m.columns {
		out[i] = udf.Projection{Name: c.Name, Expr: c.Expr}
	}
	return out
}

// NewMap creates a Map operator.
func NewMap(name string, input operator.DataSet, columns []Column) (*Map, error) {
	schema, err := inputSchema("map", name, input)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("map %s: at least one column is required", name)
	}

	checker := expr.NewChecker(schema)
	cols := append([]Column(nil), columns...)
	seen := make(map[string]bool, len(cols))
	fields := make([]arrow.Field, 0, len(cols))
	for i, c := range cols {
		if c.Name == "" || c.Expr == "" {
			return nil, fmt.Errorf("map %s: column name and expression are required", name)
		}
		if seen[c.Name] {
			return nil, fmt.Errorf("map %s: duplicate output column %q", name, c.Name)
		}
		dt, err := checker.TypeOf(c.Expr)
		if err != nil {
			return nil, fmt.Errorf("map %s: column %q: %w", name, c.Name, err)
		}
		if c.Type == nil {
			if dt.ID() == arrow.NULL {
				return nil, fmt.Errorf("map %s: column %q: cannot infer type of NULL", name, c.Name)
			}
			cols[i].Type = dt
		}
		seen[c.Name] = true
		fields = append(fields, arrow.Field{Name: c.Name, Type: cols[i].Type, Nullable: true})
	}

	u, err := newUnary("map", name, input, mapFn{name: name, columns: cols}, arrow.NewSchema(fields, nil))
	if err != nil {
		return nil, err
	}
	return &Map{Unary: u, columns: cols}, nil
}

// Columns returns the output columns.
func (m *Map) Columns() []Column { return append([]Column(nil), m.columns...) }
