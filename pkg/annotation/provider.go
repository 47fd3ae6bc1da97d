// Package annotation derives constant field specifications from what a UDF
// declares about itself, without executing it.
//
// A Provider returns specifications in the same "<source>-><target>" text form a
// program author would pass to an operator, so derived and explicit
// specifications go through the same parser and builder.
package annotation

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/udf"
)

// Provider derives constant field specifications for a UDF bound to concrete
// input and output schemas.
type Provider interface {
	ConstantFields(fn udf.Function, in, out *arrow.Schema) ([]string, error)
}

// ProviderFunc adapts an ordinary function to the Provider interface.
type ProviderFunc func(fn udf.Function, in, out *arrow.Schema) ([]string, error)

func (f ProviderFunc) ConstantFields(fn udf.Function, in, out *arrow.Schema) ([]string, error) {
	return f(fn, in, out)
}

// Declared reads the constant fields a function declares through
// udf.ConstantFielder.
type Declared struct{}

func (Declared) ConstantFields(fn udf.Function, _, _ *arrow.Schema) ([]string, error) {
	cf, ok := fn.(udf.ConstantFielder)
	if !ok {
		return nil, nil
	}
	return cf.ConstantFields(), nil
}

type chain []Provider

// Chain concatenates the specifications of each provider in order.
func Chain(providers ...Provider) Provider {
	return chain(providers)
}

func (c chain) ConstantFields(fn udf.Function, in, out *arrow.Schema) ([]string, error) {
	var specs []string
	for _, p := range c {
		got, err := p.ConstantFields(fn, in, out)
		if err != nil {
			return nil, err
		}
		specs = append(specs, got...)
	}
	return specs, nil
}

// Default returns the provider used by the built-in operator kinds: declared
// constant fields followed by fields derived from SQL projections.
func Default() Provider {
	return Chain(Declared{}, Projection{})
}

// Registry maps UDF names to constant field specifications registered ahead of
// time, for example by generated code or a configuration file.
type Registry struct {
	specs map[string][]string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string][]string)}
}

// Register appends specifications for the named UDF.
func (r *Registry) Register(name string, specs ...string) {
	r.specs[name] = append(r.specs[name], specs...)
}

// Len returns the number of registered UDFs.
func (r *Registry) Len() int { return len(r.specs) }

func (r *Registry) ConstantFields(fn udf.Function, _, _ *arrow.Schema) ([]string, error) {
	if fn == nil {
		return nil, fmt.Errorf("registry: nil function")
	}
	return append([]string(nil), r.specs[fn.Name()]...), nil
}
