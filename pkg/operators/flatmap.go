package operators

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/operator"
)

// FlatMap unnests a list column, replicating the other columns for each
// element. The unnested column takes the list's element type; every other
// column is constant.
type FlatMap struct {
	*operator.Unary
	unnestColumn string
}

// NewFlatMap creates a FlatMap operator.
func NewFlatMap(name string, input operator.DataSet, unnestColumn string) (*FlatMap, error) {
	schema, err := inputSchema("flatmap", name, input)
	if err != nil {
		return nil, err
	}

	// Find the unnest column.
	unnestIdx := -1
	for i := 0; i < schema.NumFields(); i++ {
		if schema.Field(i).Name == unnestColumn {
			unnestIdx = i
			break
		}
	}
	if unnestIdx < 0 {
		return nil, fmt.Errorf("flatmap %s: column %q not found", name, unnestColumn)
	}

	listType, ok := schema.Field(unnestIdx).Type.(*arrow.ListType)
	if !ok {
		return nil, fmt.Errorf("flatmap %s: column %q is not a list type, got %s",
			name, unnestColumn, schema.Field(unnestIdx).Type)
	}

	fields := schema.Fields()
	fields[unnestIdx] = arrow.Field{Name: unnestColumn, Type: listType.Elem(), Nullable: true}

	var specs []string
	for i := range fields {
		if i != unnestIdx {
			specs = append(specs, spec(i, i))
		}
	}

	fn := forwarding{name: name, specs: specs}
	u, err := newUnary("flatmap", name, input, fn, arrow.NewSchema(fields, nil))
	if err != nil {
		return nil, err
	}
	return &FlatMap{Unary: u, unnestColumn: unnestColumn}, nil
}

// UnnestColumn returns the name of the unnested list column.
func (f *FlatMap) UnnestColumn() string { return f.unnestColumn }
