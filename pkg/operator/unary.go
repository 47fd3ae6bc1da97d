package operator

import (
	"fmt"
	"log/slog"
	"maps"
	"sync/atomic"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/google/uuid"

	"github.com/sandboxws/isotope/compiler/pkg/annotation"
	"github.com/sandboxws/isotope/compiler/pkg/config"
	"github.com/sandboxws/isotope/compiler/pkg/metrics"
	"github.com/sandboxws/isotope/compiler/pkg/semantic"
	"github.com/sandboxws/isotope/compiler/pkg/shape"
	"github.com/sandboxws/isotope/compiler/pkg/udf"
)

// DefaultKind is the kind of operators created directly with NewUnary.
const DefaultKind = "udf"

// Option configures a Unary at construction.
type Option func(*Unary)

// Kind sets the operator kind reported in logs and metrics.
func Kind(kind string) Option {
	return func(u *Unary) { u.kind = kind }
}

// Unary is a single-input operator executing a user-defined function.
//
// A Unary is configured by one authoring goroutine through its fluent methods
// and then handed to the optimizer with Seal. The sealed snapshot is immutable
// and safe for concurrent readers; any mutator called after Seal panics.
type Unary struct {
	id     string
	name   string
	kind   string
	input  DataSet
	fn     udf.Function
	result *arrow.Schema

	parameters *config.Configuration
	broadcasts map[string]DataSet
	props      *semantic.Properties

	sealed   atomic.Bool
	snapshot *Sealed
	logger   *slog.Logger
}

// NewUnary creates an operator applying fn to every record of input and
// producing records of the result schema.
func NewUnary(name string, input DataSet, fn udf.Function, result *arrow.Schema, opts ...Option) *Unary {
	id := uuid.NewString()
	u := &Unary{
		id:     id,
		name:   name,
		kind:   DefaultKind,
		input:  input,
		fn:     fn,
		result: result,
		props:  semantic.Empty,
	}
	for _, opt := range opts {
		opt(u)
	}
	u.logger = slog.Default().With("operator", id, "name", name, "kind", u.kind)
	return u
}

func (u *Unary) ID() string            { return u.id }
func (u *Unary) Name() string          { return u.name }
func (u *Unary) Kind() string          { return u.kind }
func (u *Unary) Schema() *arrow.Schema { return u.result }
func (u *Unary) Input() DataSet        { return u.input }
func (u *Unary) UDF() udf.Function     { return u.fn }

// InputShape is the record shape of the input data set.
func (u *Unary) InputShape() shape.Shape {
	if u.input == nil {
		return shape.FromSchema(nil)
	}
	return shape.FromSchema(u.input.Schema())
}

// OutputShape is the record shape of the result schema.
func (u *Unary) OutputShape() shape.Shape { return shape.FromSchema(u.result) }

func (u *Unary) mustBeOpen(method string) {
	if u.sealed.Load() {
		panic(fmt.Sprintf("operator %s: %s called after Seal", u.name, method))
	}
}

// ── Fluent configuration ────────────────────────────────────────────

// WithParameters replaces the configuration bag. The operator keeps its own
// copy; passing nil clears it.
func (u *Unary) WithParameters(parameters *config.Configuration) *Unary {
	u.mustBeOpen("WithParameters")
	u.parameters = parameters.Clone()
	return u
}

// WithBroadcastSet makes data available to every parallel instance of the
// operator under name. A later call with the same name replaces the earlier
// data set. Cycles introduced through broadcast sets are detected when the
// program is compiled.
func (u *Unary) WithBroadcastSet(data DataSet, name string) *Unary {
	u.mustBeOpen("WithBroadcastSet")
	if u.broadcasts == nil {
		u.broadcasts = make(map[string]DataSet)
	}
	u.broadcasts[name] = data
	return u
}

// WithConstantSet declares which input fields the UDF copies unchanged to the
// output, as "<source>-><target>" specifications with zero-indexed fields:
// "4->3" states that field 4 of every input record is field 3 of the output.
//
// Constant sets are optional, but if given they must be correct. They are
// checked against the input and output schemas only; nothing verifies that the
// UDF really copies the fields, and a wrong set makes the optimizer produce a
// plan that computes wrong results.
//
// Each call replaces the previously attached properties; it does not merge
// with them. Use WithConstantSetAndDerived to combine explicit and derived
// specifications. On error the attached properties are left unchanged. The
// operator itself is always returned.
func (u *Unary) WithConstantSet(specs ...string) (*Unary, error) {
	u.mustBeOpen("WithConstantSet")
	props, err := semantic.Merge(u.InputShape(), u.OutputShape(), specs, nil)
	if err != nil {
		return u, fmt.Errorf("operator %s: constant set: %w", u.name, err)
	}
	u.setSemanticProperties(props, "explicit")
	return u, nil
}

// DeriveConstantSet replaces the attached properties with the ones p derives
// from the UDF.
func (u *Unary) DeriveConstantSet(p annotation.Provider) (*Unary, error) {
	return u.WithConstantSetAndDerived(p)
}

// WithConstantSetAndDerived replaces the attached properties with the union of
// specs and the specifications p derives from the UDF. Conflicts between the
// two fail the call.
func (u *Unary) WithConstantSetAndDerived(p annotation.Provider, specs ...string) (*Unary, error) {
	u.mustBeOpen("WithConstantSetAndDerived")
	if p == nil {
		return u, fmt.Errorf("operator %s: nil annotation provider", u.name)
	}
	var inSchema *arrow.Schema
	if u.input != nil {
		inSchema = u.input.Schema()
	}
	derived, err := p.ConstantFields(u.fn, inSchema, u.result)
	if err != nil {
		return u, fmt.Errorf("operator %s: derive constant set: %w", u.name, err)
	}
	props, err := semantic.Merge(u.InputShape(), u.OutputShape(), specs, derived)
	if err != nil {
		return u, fmt.Errorf("operator %s: constant set: %w", u.name, err)
	}
	u.setSemanticProperties(props, "derived")
	return u, nil
}

// WithSemanticProperties replaces the attached properties with props, for
// example a set built with semantic.Builder or taken from another operator.
// Every mapping is validated again against this operator's schemas. A nil props
// clears the attached set.
func (u *Unary) WithSemanticProperties(props *semantic.Properties) (*Unary, error) {
	u.mustBeOpen("WithSemanticProperties")
	b := semantic.NewBuilder(u.InputShape(), u.OutputShape())
	for _, m := range props.Mappings() {
		if err := b.Add(m); err != nil {
			return u, fmt.Errorf("operator %s: semantic properties: %w", u.name, err)
		}
	}
	u.setSemanticProperties(b.Build(), "attached")
	return u, nil
}

func (u *Unary) setSemanticProperties(props *semantic.Properties, origin string) {
	u.props = props
	u.logger.Debug("semantic properties attached", "origin", origin, "mappings", props.String())
}

// ── Queries ─────────────────────────────────────────────────────────

// BroadcastSets returns a copy of the registered broadcast data sets by name.
// The result is never nil.
func (u *Unary) BroadcastSets() map[string]DataSet {
	return copyBroadcasts(u.broadcasts)
}

// Parameters returns a copy of the configuration bag, or false if none is set.
func (u *Unary) Parameters() (*config.Configuration, bool) {
	if u.parameters == nil {
		return nil, false
	}
	return u.parameters.Clone(), true
}

// SemanticProperties returns the attached properties. It never returns nil;
// an operator without constant sets reports an empty set.
func (u *Unary) SemanticProperties() *semantic.Properties {
	return u.props
}

// Sealed reports whether the operator has been handed off.
func (u *Unary) Sealed() bool { return u.sealed.Load() }

// Seal freezes the operator and returns its immutable snapshot. Calling Seal
// again returns the same snapshot.
func (u *Unary) Seal() *Sealed {
	if u.sealed.Load() {
		return u.snapshot
	}
	u.snapshot = &Sealed{
		id:         u.id,
		name:       u.name,
		kind:       u.kind,
		input:      u.input,
		fn:         u.fn,
		result:     u.result,
		parameters: u.parameters.Clone(),
		broadcasts: copyBroadcasts(u.broadcasts),
		props:      u.props,
	}
	u.sealed.Store(true)
	metrics.OperatorsSealed.WithLabelValues(u.kind).Inc()
	u.logger.Debug("operator sealed", "broadcasts", len(u.broadcasts), "mappings", u.props.Len())
	return u.snapshot
}

func copyBroadcasts(m map[string]DataSet) map[string]DataSet {
	out := make(map[string]DataSet, len(m))
	maps.Copy(out, m)
	return out
}
