// Package program assembles data sets and unary operators into a program graph,
// validates it and compiles it into an immutable Plan for the optimizer.
//
// Compile is the single handoff point between the authoring goroutine and the
// readers of the plan: it seals every operator, after which no operator can be
// reconfigured.
package program

import (
	"fmt"
	"log/slog"

	"github.com/sandboxws/isotope/compiler/pkg/operator"
	"github.com/sandboxws/isotope/compiler/pkg/semantic"
)

// UnaryNode is a program node with one input that is sealed at compile time.
// *operator.Unary and every built-in operator kind implement it.
type UnaryNode interface {
	operator.DataSet
	Input() operator.DataSet
	BroadcastSets() map[string]operator.DataSet
	SemanticProperties() *semantic.Properties
	Seal() *operator.Sealed
}

// Program is a mutable program graph under construction.
type Program struct {
	name   string
	nodes  []operator.DataSet
	logger *slog.Logger
}

// New creates an empty program.
func New(name string) *Program {
	return &Program{
		name:   name,
		logger: slog.Default().With("program", name),
	}
}

// Name returns the program name.
func (p *Program) Name() string { return p.name }

// Add registers data sets with the program. Nil data sets, including nil
// pointers, are reported by Compile.
func (p *Program) Add(nodes ...operator.DataSet) *Program {
	p.nodes = append(p.nodes, nodes...)
	return p
}

// Nodes returns the registered data sets in registration order.
func (p *Program) Nodes() []operator.DataSet {
	return append([]operator.DataSet(nil), p.nodes...)
}

// Compile validates the program, seals every operator and returns the plan.
func (p *Program) Compile() (*Plan, error) {
	if err := Validate(p); err != nil {
		return nil, fmt.Errorf("invalid program: %w", err)
	}

	order := topologicalOrder(p.nodes)
	plan := &Plan{
		name: p.name,
		byID: make(map[string]operator.DataSet, len(order)),
	}
	for _, node := range order {
		var compiled operator.DataSet = node
		if u, ok := node.(UnaryNode); ok {
			sealed := u.Seal()
			plan.operators = append(plan.operators, sealed)
			compiled = sealed
		}
		plan.nodes = append(plan.nodes, compiled)
		plan.byID[node.ID()] = compiled
	}

	p.logger.Info("program compiled",
		"nodes", len(plan.nodes),
		"operators", len(plan.operators),
	)
	return plan, nil
}

// edges returns, for every node id, the ids of the nodes it reads from: its
// input followed by its broadcast sets.
func edges(nodes []operator.DataSet) map[string][]string {
	upstream := make(map[string][]string, len(nodes))
	for _, n := range nodes {
		u, ok := n.(UnaryNode)
		if !ok {
			continue
		}
		if u.Input() != nil {
			upstream[n.ID()] = append(upstream[n.ID()], u.Input().ID())
		}
		for _, name := range sortedKeys(u.BroadcastSets()) {
			if bc := u.BroadcastSets()[name]; bc != nil {
				upstream[n.ID()] = append(upstream[n.ID()], bc.ID())
			}
		}
	}
	return upstream
}

// topologicalOrder returns nodes so that every node follows the nodes it
// reads from. The graph must be acyclic.
func topologicalOrder(nodes []operator.DataSet) []operator.DataSet {
	byID := make(map[string]operator.DataSet, len(nodes))
	for _, n := range nodes {
		byID[n.ID()] = n
	}
	upstream := edges(nodes)

	visited := make(map[string]bool, len(nodes))
	order := make([]operator.DataSet, 0, len(nodes))

	var visit func(id string)
	visit = func(id string) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, up := range upstream[id] {
			visit(up)
		}
		order = append(order, byID[id])
	}
	for _, n := range nodes {
		visit(n.ID())
	}
	return order
}
