package annotation

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/expr"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
	"github.com/sandboxws/isotope/compiler/pkg/udf"
)

// Projection derives constant fields from functions implementing udf.Projector.
// An output column whose expression is a bare reference to an input column is a
// verbatim copy of that column, unless the output column has a different type,
// in which case the value is converted. When one input column is projected
// several times, only its first verbatim output position is reported.
type Projection struct{}

func (Projection) ConstantFields(fn udf.Function, in, out *arrow.Schema) ([]string, error) {
	proj, ok := fn.(udf.Projector)
	if !ok {
		return nil, nil
	}
	if in == nil || out == nil {
		return nil, fmt.Errorf("projection %s: schemas are not bound", fn.Name())
	}

	used := make(map[int]bool)
	var specs []string

	for _, col := range proj.Projections() {
		node, err := expr.Parse(col.Expr)
		if err != nil {
			return nil, fmt.Errorf("projection %s: %w", fn.Name(), err)
		}

		ref, ok := expr.ColumnRef(node)
		if !ok {
			continue
		}

		indices := in.FieldIndices(ref)
		switch len(indices) {
		case 0:
			return nil, fmt.Errorf("projection %s: column %q not found in input schema", fn.Name(), ref)
		case 1:
		default:
			// Ambiguous reference; nothing can be claimed about it.
			continue
		}
		src := indices[0]
		if used[src] {
			continue
		}

		dst := shape.FieldIndex(out, col.Name)
		if dst < 0 {
			return nil, fmt.Errorf("projection %s: output column %q not found in result schema", fn.Name(), col.Name)
		}
		if !arrow.TypeEqual(in.Field(src).Type, out.Field(dst).Type) {
			continue
		}

		used[src] = true
		specs = append(specs, fmt.Sprintf("%d->%d", src, dst))
	}
	return specs, nil
}
