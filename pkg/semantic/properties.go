package semantic

import (
	"sort"
	"strings"
)

// Properties is an immutable set of constancy mappings for one operator.
//
// A nil *Properties behaves exactly like an empty one: both mean that no field is
// known to be preserved.
type Properties struct {
	bySource map[int]int
	byTarget map[int]int
}

// Empty is the shared empty property set.
var Empty = &Properties{}

func newProperties(bySource map[int]int) *Properties {
	p := &Properties{
		bySource: make(map[int]int, len(bySource)),
		byTarget: make(map[int]int, len(bySource)),
	}
	for src, dst := range bySource {
		p.bySource[src] = dst
		p.byTarget[dst] = src
	}
	return p
}

// Len returns the number of mappings.
func (p *Properties) Len() int {
	if p == nil {
		return 0
	}
	return len(p.bySource)
}

// IsEmpty reports whether no field is known to be preserved.
func (p *Properties) IsEmpty() bool { return p.Len() == 0 }

// Mappings returns the mappings sorted by source field. The slice is a copy.
func (p *Properties) Mappings() []Mapping {
	if p.IsEmpty() {
		return []Mapping{}
	}
	out := make([]Mapping, 0, len(p.bySource))
	for src, dst := range p.bySource {
		out = append(out, Map(src, dst))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Source.Index < out[j].Source.Index })
	return out
}

// Specs returns the mappings in textual specification form, sorted by source.
func (p *Properties) Specs() []string {
	mappings := p.Mappings()
	specs := make([]string, len(mappings))
	for i, m := range mappings {
		specs[i] = m.String()
	}
	return specs
}

// Contains reports whether the exact mapping is part of the set.
func (p *Properties) Contains(m Mapping) bool {
	if p == nil {
		return false
	}
	dst, ok := p.bySource[m.Source.Index]
	return ok && dst == m.Target.Index
}

// SourceOf returns the input field copied to output field target.
func (p *Properties) SourceOf(target int) (int, bool) {
	if p == nil {
		return 0, false
	}
	src, ok := p.byTarget[target]
	return src, ok
}

// TargetOf returns the output field that input field source is copied to.
func (p *Properties) TargetOf(source int) (int, bool) {
	if p == nil {
		return 0, false
	}
	dst, ok := p.bySource[source]
	return dst, ok
}

// Forward translates input field positions to output positions. It returns false
// if any field is not preserved, in which case a property keyed on fields does
// not survive the operator.
func (p *Properties) Forward(fields []int) ([]int, bool) {
	out := make([]int, len(fields))
	for i, f := range fields {
		dst, ok := p.TargetOf(f)
		if !ok {
			return nil, false
		}
		out[i] = dst
	}
	return out, true
}

// Backward translates output field positions to the input fields they were
// copied from.
func (p *Properties) Backward(fields []int) ([]int, bool) {
	out := make([]int, len(fields))
	for i, f := range fields {
		src, ok := p.SourceOf(f)
		if !ok {
			return nil, false
		}
		out[i] = src
	}
	return out, true
}

// Equal reports whether both sets hold the same mappings.
func (p *Properties) Equal(other *Properties) bool {
	if p.Len() != other.Len() {
		return false
	}
	for src, dst := range p.mappingsBySource() {
		if got, ok := other.TargetOf(src); !ok || got != dst {
			return false
		}
	}
	return true
}

func (p *Properties) mappingsBySource() map[int]int {
	if p == nil {
		return nil
	}
	return p.bySource
}

func (p *Properties) String() string {
	return "{" + strings.Join(p.Specs(), ", ") + "}"
}
