// Package metrics provides Prometheus instrumentation for the Isotope compiler.
package metrics

import (
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

var (
	// ConstantSpecsParsed counts constant field specifications accepted by the parser.
	ConstantSpecsParsed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "isotope_constant_specs_parsed_total",
		Help: "Total number of constant field specifications parsed",
	})

	// ConstantSpecRejections counts rejected specifications by reason.
	ConstantSpecRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isotope_constant_spec_rejections_total",
		Help: "Total number of rejected constant field specifications by reason",
	}, []string{"reason"})

	// ConstantSetConflicts counts merges that failed on conflicting mappings.
	ConstantSetConflicts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "isotope_constant_set_conflicts_total",
		Help: "Total number of conflicting constant field mappings",
	})

	// OperatorsSealed counts operators handed off to the optimizer.
	OperatorsSealed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "isotope_operators_sealed_total",
		Help: "Total number of sealed operators by kind",
	}, []string{"kind"})
)

// WriteText writes every registered metric to w in the Prometheus text
// exposition format.
func WriteText(w io.Writer) error {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
