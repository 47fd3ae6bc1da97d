// Package semantic models field constancy: which output fields of a unary
// operator are verbatim copies of which input fields. The optimizer relies on
// these contracts to keep partitioning, sort order and grouping across an
// operator instead of recomputing them.
package semantic

import (
	"fmt"
	"strconv"

	"github.com/sandboxws/isotope/compiler/pkg/shape"
)

// FieldRef is a zero-indexed reference to a field of a record shape. It may be
// created before the shape is known and validated once it is bound.
type FieldRef struct {
	Index int
}

// Field returns a reference to the field at index i.
func Field(i int) FieldRef { return FieldRef{Index: i} }

// Validate checks the reference against a bound shape.
func (f FieldRef) Validate(s shape.Shape) error {
	if s == nil || !s.Addressable() {
		return fmt.Errorf("field %d: shape %v is not field-addressable", f.Index, s)
	}
	if f.Index < 0 || f.Index >= s.Arity() {
		return fmt.Errorf("field %d out of range for arity %d", f.Index, s.Arity())
	}
	return nil
}

func (f FieldRef) String() string { return strconv.Itoa(f.Index) }

// Mapping states that the value at Source in every input record appears
// unmodified at Target in the corresponding output record.
type Mapping struct {
	Source FieldRef
	Target FieldRef
}

// Map is shorthand for a mapping from input field src to output field dst.
func Map(src, dst int) Mapping {
	return Mapping{Source: Field(src), Target: Field(dst)}
}

// String renders the mapping in the textual specification form, e.g. "4->3".
func (m Mapping) String() string {
	return m.Source.String() + Arrow + m.Target.String()
}
