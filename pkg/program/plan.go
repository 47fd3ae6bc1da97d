package program

import (
	"fmt"

	"github.com/sandboxws/isotope/compiler/pkg/operator"
)

// Plan is a compiled, immutable program. Nodes are in topological order: every
// node follows its input and broadcast sets. Unary operators appear as their
// sealed snapshots.
type Plan struct {
	name      string
	nodes     []operator.DataSet
	operators []*operator.Sealed
	byID      map[string]operator.DataSet
}

func (p *Plan) Name() string { return p.name }

// Nodes returns every data set of the plan in topological order.
func (p *Plan) Nodes() []operator.DataSet {
	return append([]operator.DataSet(nil), p.nodes...)
}

// Operators returns the sealed operators in topological order.
func (p *Plan) Operators() []*operator.Sealed {
	return append([]*operator.Sealed(nil), p.operators...)
}

// Operator returns the sealed operator with the given id.
func (p *Plan) Operator(id string) (*operator.Sealed, bool) {
	s, ok := p.byID[id].(*operator.Sealed)
	return s, ok
}

// Lookup returns the first node with the given name.
func (p *Plan) Lookup(name string) (operator.DataSet, bool) {
	for _, n := range p.nodes {
		if n.Name() == name {
			return n, true
		}
	}
	return nil, false
}

// PreservedFields reports where the input fields of operator id end up in its
// output. It returns false if any of them is not a constant field, in which
// case partitioning, ordering or grouping on those fields does not survive
// the operator.
func (p *Plan) PreservedFields(id string, fields []int) ([]int, bool) {
	op, ok := p.Operator(id)
	if !ok {
		return nil, false
	}
	return op.SemanticProperties().Forward(fields)
}

// TraceFields follows fields of the data set fromID along the input chain down
// to toID and returns their positions in the output of toID. Broadcast edges
// are not followed.
func (p *Plan) TraceFields(fromID, toID string, fields []int) ([]int, error) {
	var chain []*operator.Sealed
	for id := toID; id != fromID; {
		op, ok := p.Operator(id)
		if !ok {
			return nil, fmt.Errorf("%s is not downstream of %s", toID, fromID)
		}
		chain = append(chain, op)
		id = op.Input().ID()
	}

	current := append([]int(nil), fields...)
	for i := len(chain) - 1; i >= 0; i-- {
		next, ok := chain[i].SemanticProperties().Forward(current)
		if !ok {
			return nil, fmt.Errorf("fields %v are not preserved by operator %q", current, chain[i].Name())
		}
		current = next
	}
	return current, nil
}
