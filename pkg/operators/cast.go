package operators

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/operator"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
)

// CastColumn specifies a column to cast and its target Arrow type.
type CastColumn struct {
	Name       string
	TargetType arrow.DataType
}

// Cast converts specified columns to new Arrow types. Columns that are not cast,
// or are cast to the type they already have, are constant.
type Cast struct {
	*operator.Unary
	columns []CastColumn
}

// NewCast creates a Cast operator.
func NewCast(name string, input operator.DataSet, columns []CastColumn) (*Cast, error) {
	schema, err := inputSchema("cast", name, input)
	if err != nil {
		return nil, err
	}

	// Build a lookup of column name -> target type.
	castMap := make(map[string]arrow.DataType, len(columns))
	for _, col := range columns {
		if shape.FieldIndex(schema, col.Name) < 0 {
			return nil, fmt.Errorf("cast %s: column %q not found", name, col.Name)
		}
		if col.TargetType == nil {
			return nil, fmt.Errorf("cast %s: column %q has no target type", name, col.Name)
		}
		castMap[col.Name] = col.TargetType
	}

	newFields := make([]arrow.Field, schema.NumFields())
	var specs []string
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		target, needsCast := castMap[f.Name]
		if !needsCast || f.Type.ID() == target.ID() {
			newFields[i] = f
			specs = append(specs, spec(i, i))
			continue
		}
		newFields[i] = arrow.Field{Name: f.Name, Type: target, Nullable: f.Nullable}
	}

	fn := forwarding{name: name, specs: specs}
	u, err := newUnary("cast", name, input, fn, arrow.NewSchema(newFields, nil))
	if err != nil {
		return nil, err
	}
	return &Cast{Unary: u, columns: append([]CastColumn(nil), columns...)}, nil
}

// Columns returns the cast columns.
func (c *Cast) Columns() []CastColumn { return append([]CastColumn(nil), c.columns...) }
