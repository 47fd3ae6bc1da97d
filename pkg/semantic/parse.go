package semantic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sandboxws/isotope/compiler/pkg/metrics"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
)

// Arrow separates the source and target index of a specification.
const Arrow = "->"

// ParseSpec parses a single constant field specification of the form
// "<source>-><target>" and validates both indices against the input and output
// shapes. Whitespace around either index is ignored.
func ParseSpec(spec string, in, out shape.Shape) (Mapping, error) {
	m, err := parseSpec(spec, in, out)
	if err != nil {
		metrics.ConstantSpecRejections.WithLabelValues(err.Reason.String()).Inc()
		return Mapping{}, err
	}
	metrics.ConstantSpecsParsed.Inc()
	return m, nil
}

func parseSpec(spec string, in, out shape.Shape) (Mapping, *SpecError) {
	left, right, ok := strings.Cut(spec, Arrow)
	if !ok {
		return Mapping{}, &SpecError{Spec: spec, Reason: ReasonMalformed, Detail: "missing \"->\""}
	}

	src, err := parseIndex(left)
	if err != nil {
		return Mapping{}, &SpecError{Spec: spec, Reason: ReasonMalformed, Detail: "source: " + err.Error()}
	}
	dst, err := parseIndex(right)
	if err != nil {
		return Mapping{}, &SpecError{Spec: spec, Reason: ReasonMalformed, Detail: "target: " + err.Error()}
	}

	if in == nil || !in.Addressable() {
		return Mapping{}, &SpecError{Spec: spec, Reason: ReasonNotAddressable,
			Detail: fmt.Sprintf("input shape %v is not field-addressable", in)}
	}
	if out == nil || !out.Addressable() {
		return Mapping{}, &SpecError{Spec: spec, Reason: ReasonNotAddressable,
			Detail: fmt.Sprintf("output shape %v is not field-addressable", out)}
	}

	if src >= in.Arity() {
		return Mapping{}, &SpecError{Spec: spec, Reason: ReasonSourceOutOfRange,
			Detail: fmt.Sprintf("source %d, input arity %d", src, in.Arity())}
	}
	if dst >= out.Arity() {
		return Mapping{}, &SpecError{Spec: spec, Reason: ReasonTargetOutOfRange,
			Detail: fmt.Sprintf("target %d, output arity %d", dst, out.Arity())}
	}

	return Map(src, dst), nil
}

// parseIndex accepts [0-9]+ with optional surrounding whitespace.
func parseIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty index")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("%q is not a non-negative integer", s)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%q: %w", s, err)
	}
	return n, nil
}

// ParseSpecs parses an ordered list of specifications. It stops at the first
// invalid entry. The order of specs does not affect the resulting set.
func ParseSpecs(specs []string, in, out shape.Shape) ([]Mapping, error) {
	mappings := make([]Mapping, 0, len(specs))
	for _, spec := range specs {
		m, err := ParseSpec(spec, in, out)
		if err != nil {
			return nil, err
		}
		mappings = append(mappings, m)
	}
	return mappings, nil
}
