package operators

import (
	"fmt"
	"maps"
	"slices"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/operator"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
)

// Drop removes specified columns. Kept columns move to compacted positions.
type Drop struct {
	*operator.Unary
	columns map[string]bool
}

// NewDrop creates a Drop operator.
func NewDrop(name string, input operator.DataSet, columns []string) (*Drop, error) {
	schema, err := inputSchema("drop", name, input)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(columns))
	for _, c := range columns {
		if shape.FieldIndex(schema, c) < 0 {
			return nil, fmt.Errorf("drop %s: column %q not found", name, c)
		}
		set[c] = true
	}

	var fields []arrow.Field
	var specs []string
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		if set[f.Name] {
			continue
		}
		specs = append(specs, spec(i, len(fields)))
		fields = append(fields, f)
	}

	fn := forwarding{name: name, specs: specs}
	u, err := newUnary("drop", name, input, fn, arrow.NewSchema(fields, nil))
	if err != nil {
		return nil, err
	}
	return &Drop{Unary: u, columns: set}, nil
}

// Columns returns the dropped column names in sorted order.
func (d *Drop) Columns() []string { return slices.Sorted(maps.Keys(d.columns)) }
