// Package operator defines the nodes of a dataflow program: sources and unary
// UDF operators, together with the metadata the optimizer reads from them.
package operator

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"
)

// DataSet is a node of the program graph that produces records of a known schema.
type DataSet interface {
	// ID is the unique identifier of this node in the program.
	ID() string

	// Name is the human-readable name of this node.
	Name() string

	// Schema describes the records this node produces.
	Schema() *arrow.Schema
}

// Source is a leaf data set read from outside the program.
type Source struct {
	id     string
	name   string
	schema *arrow.Schema
}

// NewSource creates a source producing records of the given schema.
func NewSource(name string, schema *arrow.Schema) *Source {
	return &Source{
		id:     uuid.NewString(),
		name:   name,
		schema: schema,
	}
}

func (s *Source) ID() string            { return s.id }
func (s *Source) Name() string          { return s.name }
func (s *Source) Schema() *arrow.Schema { return s.schema }
