package operators

import (
	"fmt"

	"github.com/sandboxws/isotope/compiler/pkg/expr"
	"github.com/sandboxws/isotope/compiler/pkg/operator"
)

// Filter keeps only the records matching a SQL condition. Records pass through
// unchanged, so every field is constant.
type Filter struct {
	*operator.Unary
	conditionSQL string
}

// NewFilter creates a Filter operator with the given SQL condition.
func NewFilter(name string, input operator.DataSet, conditionSQL string) (*Filter, error) {
	schema, err := inputSchema("filter", name, input)
	if err != nil {
		return nil, err
	}
	if conditionSQL == "" {
		return nil, fmt.Errorf("filter %s: condition is required", name)
	}
	if err := expr.NewChecker(schema).CheckBool(conditionSQL); err != nil {
		return nil, fmt.Errorf("filter %s: %w", name, err)
	}

	fn := forwarding{name: name, specs: identity(schema.NumFields())}
	u, err := newUnary("filter", name, input, fn, schema)
	if err != nil {
		return nil, err
	}
	return &Filter{Unary: u, conditionSQL: conditionSQL}, nil
}

// Condition returns the SQL filter condition.
func (f *Filter) Condition() string { return f.conditionSQL }
