package operators

import (
	"fmt"
	"maps"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/operator"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
)

// Rename renames columns in place. Columns not in the rename map keep their
// names; every field keeps its position and value.
type Rename struct {
	*operator.Unary
	columns map[string]string // old_name -> new_name
}

// NewRename creates a Rename operator.
func NewRename(name string, input operator.DataSet, columns map[string]string) (*Rename, error) {
	schema, err := inputSchema("rename", name, input)
	if err != nil {
		return nil, err
	}

	for old := range columns {
		if shape.FieldIndex(schema, old) < 0 {
			return nil, fmt.Errorf("rename %s: column %q not found", name, old)
		}
	}

	newFields := make([]arrow.Field, schema.NumFields())
	for i := 0; i < schema.NumFields(); i++ {
		f := schema.Field(i)
		if newName, ok := columns[f.Name]; ok {
			f.Name = newName
		}
		newFields[i] = f
	}

	fn := forwarding{name: name, specs: identity(schema.NumFields())}
	u, err := newUnary("rename", name, input, fn, arrow.NewSchema(newFields, nil))
	if err != nil {
		return nil, err
	}

	return &Rename{Unary: u, columns: maps.Clone(columns)}, nil
}

// Columns returns the rename map, old name to new name.
func (r *Rename) Columns() map[string]string { return maps.Clone(r.columns) }
