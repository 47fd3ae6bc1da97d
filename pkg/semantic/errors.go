package semantic

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpecification is matched by every error produced while parsing or
	// validating a constant field specification.
	ErrInvalidSpecification = errors.New("invalid constant field specification")

	// ErrConflictingConstancy is matched by errors produced when two mappings
	// disagree about a source or a target field.
	ErrConflictingConstancy = errors.New("conflicting constant field specification")
)

// Reason classifies why a specification was rejected.
type Reason int

const (
	ReasonMalformed Reason = iota
	ReasonSourceOutOfRange
	ReasonTargetOutOfRange
	ReasonNotAddressable
)

// String returns a short label, also used as the metrics label value.
func (r Reason) String() string {
	switch r {
	case ReasonMalformed:
		return "malformed"
	case ReasonSourceOutOfRange:
		return "source_out_of_range"
	case ReasonTargetOutOfRange:
		return "target_out_of_range"
	case ReasonNotAddressable:
		return "not_addressable"
	default:
		return "unknown"
	}
}

// SpecError reports a rejected constant field specification.
type SpecError struct {
	Spec   string
	Reason Reason
	Detail string
}

func (e *SpecError) Error() string {
	return fmt.Sprintf("%s %q: %s: %s", ErrInvalidSpecification, e.Spec, e.Reason, e.Detail)
}

func (e *SpecError) Unwrap() error { return ErrInvalidSpecification }

// ConflictError reports two mappings that share a source or a target but not both.
type ConflictError struct {
	Existing    Mapping
	Conflicting Mapping
}

func (e *ConflictError) Error() string {
	field := "target"
	if e.Existing.Source == e.Conflicting.Source {
		field = "source"
	}
	return fmt.Sprintf("%s: %s and %s share a %s", ErrConflictingConstancy, e.Existing, e.Conflicting, field)
}

func (e *ConflictError) Unwrap() error { return ErrConflictingConstancy }
