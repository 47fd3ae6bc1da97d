package semantic

import (
	"github.com/sandboxws/isotope/compiler/pkg/metrics"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
)

// Builder accumulates mappings from one or more sources into a consistent set.
// Exact duplicates are ignored. A mapping that shares a source or a target with
// an accepted mapping, but not both, is rejected.
type Builder struct {
	in, out  shape.Shape
	bySource map[int]int
	byTarget map[int]int
}

// NewBuilder creates a builder scoped to the operator's input and output shapes.
func NewBuilder(in, out shape.Shape) *Builder {
	return &Builder{
		in:       in,
		out:      out,
		bySource: make(map[int]int),
		byTarget: make(map[int]int),
	}
}

// Add validates m against the bound shapes and adds it.
func (b *Builder) Add(m Mapping) error {
	if err := m.Source.Validate(b.in); err != nil {
		return &SpecError{Spec: m.String(), Reason: rangeReason(b.in, ReasonSourceOutOfRange), Detail: err.Error()}
	}
	if err := m.Target.Validate(b.out); err != nil {
		return &SpecError{Spec: m.String(), Reason: rangeReason(b.out, ReasonTargetOutOfRange), Detail: err.Error()}
	}
	if err := b.check(m); err != nil {
		return err
	}
	b.bySource[m.Source.Index] = m.Target.Index
	b.byTarget[m.Target.Index] = m.Source.Index
	return nil
}

func rangeReason(s shape.Shape, r Reason) Reason {
	if s == nil || !s.Addressable() {
		return ReasonNotAddressable
	}
	return r
}

func (b *Builder) check(m Mapping) error {
	if dst, ok := b.bySource[m.Source.Index]; ok && dst != m.Target.Index {
		metrics.ConstantSetConflicts.Inc()
		return &ConflictError{Existing: Map(m.Source.Index, dst), Conflicting: m}
	}
	if src, ok := b.byTarget[m.Target.Index]; ok && src != m.Source.Index {
		metrics.ConstantSetConflicts.Inc()
		return &ConflictError{Existing: Map(src, m.Target.Index), Conflicting: m}
	}
	return nil
}

// AddSpecs parses and adds a group of textual specifications. Either every
// spec is added or, on error, the builder is left as it was.
func (b *Builder) AddSpecs(specs ...string) error {
	mappings, err := ParseSpecs(specs, b.in, b.out)
	if err != nil {
		return err
	}

	staged := &Builder{in: b.in, out: b.out, bySource: cloneIndex(b.bySource), byTarget: cloneIndex(b.byTarget)}
	for _, m := range mappings {
		if err := staged.Add(m); err != nil {
			return err
		}
	}
	b.bySource, b.byTarget = staged.bySource, staged.byTarget
	return nil
}

// Build returns an immutable snapshot of the accumulated mappings. The builder
// stays usable.
func (b *Builder) Build() *Properties {
	return newProperties(b.bySource)
}

func cloneIndex(m map[int]int) map[int]int {
	out := make(map[int]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Merge combines explicitly given specifications with ones derived from UDF
// annotations. The result is their union; conflicting mappings fail the merge.
// With no specifications at all the result is an empty set.
func Merge(in, out shape.Shape, explicit, derived []string) (*Properties, error) {
	b := NewBuilder(in, out)
	if err := b.AddSpecs(explicit...); err != nil {
		return nil, err
	}
	if err := b.AddSpecs(derived...); err != nil {
		return nil, err
	}
	return b.Build(), nil
}
