// Package operators implements the built-in unary operator kinds. Each kind
// computes its result schema from its input and derives its constant fields at
// construction, so the optimizer sees correct semantic properties without the
// program author declaring them.
package operators

import (
	"fmt"
	"strconv"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/annotation"
	"github.com/sandboxws/isotope/compiler/pkg/operator"
	"github.com/sandboxws/isotope/compiler/pkg/udf"
)

// forwarding is a UDF that declares a fixed list of copied fields.
type forwarding struct {
	name  string
	specs []string
}

func (f forwarding) Name() string { return f.name }

func (f forwarding) ConstantFields() []string {
	return append([]string(nil), f.specs...)
}

func spec(src, dst int) string {
	return strconv.Itoa(src) + "->" + strconv.Itoa(dst)
}

// identity returns "i->i" for every field of an n-ary record.
func identity(n int) []string {
	specs := make([]string, n)
	for i := range specs {
		specs[i] = spec(i, i)
	}
	return specs
}

func inputSchema(kind, name string, input operator.DataSet) (*arrow.Schema, error) {
	if input == nil || input.Schema() == nil {
		return nil, fmt.Errorf("%s %s: input schema is required", kind, name)
	}
	return input.Schema(), nil
}

// newUnary creates the operator and derives its constant set.
func newUnary(kind, name string, input operator.DataSet, fn udf.Function, result *arrow.Schema) (*operator.Unary, error) {
	u := operator.NewUnary(name, input, fn, result, operator.Kind(kind))
	if _, err := u.DeriveConstantSet(annotation.Default()); err != nil {
		return nil, fmt.Errorf("%s %s: %w", kind, name, err)
	}
	return u, nil
}
