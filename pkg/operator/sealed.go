package operator

import (
	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/config"
	"github.com/sandboxws/isotope/compiler/pkg/semantic"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
	"github.com/sandboxws/isotope/compiler/pkg/udf"
)

// Sealed is the immutable view of a Unary consumed by the optimizer and the
// executor.
type Sealed struct {
	id         string
	name       string
	kind       string
	input      DataSet
	fn         udf.Function
	result     *arrow.Schema
	parameters *config.Configuration
	broadcasts map[string]DataSet
	props      *semantic.Properties
}

func (s *Sealed) ID() string            { return s.id }
func (s *Sealed) Name() string          { return s.name }
func (s *Sealed) Kind() string          { return s.kind }
func (s *Sealed) Schema() *arrow.Schema { return s.result }
func (s *Sealed) Input() DataSet        { return s.input }
func (s *Sealed) UDF() udf.Function     { return s.fn }

func (s *Sealed) InputShape() shape.Shape {
	if s.input == nil {
		return shape.FromSchema(nil)
	}
	return shape.FromSchema(s.input.Schema())
}

func (s *Sealed) OutputShape() shape.Shape { return shape.FromSchema(s.result) }

// BroadcastSets returns a copy of the broadcast data sets by name.
func (s *Sealed) BroadcastSets() map[string]DataSet { return copyBroadcasts(s.broadcasts) }

// Parameters returns a copy of the configuration bag, or false if none is set.
func (s *Sealed) Parameters() (*config.Configuration, bool) {
	if s.parameters == nil {
		return nil, false
	}
	return s.parameters.Clone(), true
}

// SemanticProperties returns the constant field mappings. Never nil.
func (s *Sealed) SemanticProperties() *semantic.Properties { return s.props }
