package program

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/sandboxws/isotope/compiler/pkg/operator"
)

// Validate checks the program graph for structural integrity.
func Validate(p *Program) error {
	if p.name == "" {
		return fmt.Errorf("program name is required")
	}

	if len(p.nodes) == 0 {
		return fmt.Errorf("program must contain at least one data set")
	}

	// Build node lookup.
	nodeIDs := make(map[string]operator.DataSet, len(p.nodes))
	for _, n := range p.nodes {
		if isNil(n) {
			return fmt.Errorf("program contains a nil data set")
		}
		if n.ID() == "" {
			return fmt.Errorf("data set %q has empty id", n.Name())
		}
		if _, exists := nodeIDs[n.ID()]; exists {
			return fmt.Errorf("duplicate data set id: %s", n.ID())
		}
		nodeIDs[n.ID()] = n
	}

	// Validate inputs and broadcast sets reference registered data sets.
	for _, n := range p.nodes {
		u, ok := n.(UnaryNode)
		if !ok {
			continue
		}
		if isNil(u.Input()) {
			return fmt.Errorf("operator %q has no input", u.Name())
		}
		if _, ok := nodeIDs[u.Input().ID()]; !ok {
			return fmt.Errorf("operator %q: input %q is not part of the program", u.Name(), u.Input().Name())
		}
		broadcasts := u.BroadcastSets()
		for _, name := range sortedKeys(broadcasts) {
			bc := broadcasts[name]
			if isNil(bc) {
				return fmt.Errorf("operator %q: broadcast set %q is nil", u.Name(), name)
			}
			if _, ok := nodeIDs[bc.ID()]; !ok {
				return fmt.Errorf("operator %q: broadcast set %q (%s) is not part of the program", u.Name(), name, bc.Name())
			}
		}
	}

	// Check for cycles through inputs and broadcast sets using DFS.
	if err := detectCycles(p.nodes); err != nil {
		return err
	}

	// Validate semantic properties against the bound schemas.
	if err := validateSemanticProperties(p.nodes); err != nil {
		return err
	}

	return nil
}

// detectCycles performs a DFS-based cycle check on the program graph. Edges
// point from a node to the data sets it reads.
func detectCycles(nodes []operator.DataSet) error {
	adj := edges(nodes)
	names := make(map[string]string, len(nodes))
	for _, n := range nodes {
		names[n.ID()] = n.Name()
	}

	const (
		white = 0 // unvisited
		gray  = 1 // visiting (in current path)
		black = 2 // done
	)

	color := make(map[string]int)
	var path []string

	var dfs func(node string) error
	dfs = func(node string) error {
		color[node] = gray
		path = append(path, node)

		for _, next := range adj[node] {
			switch color[next] {
			case gray:
				// Found a cycle; find start of cycle in path.
				cycleStart := 0
				for i, n := range path {
					if n == next {
						cycleStart = i
						break
					}
				}
				cycle := append(append([]string(nil), path[cycleStart:]...), next)
				labels := make([]string, len(cycle))
				for i, id := range cycle {
					labels[i] = names[id]
				}
				return fmt.Errorf("cycle detected: %s", strings.Join(labels, " <- "))
			case white:
				if err := dfs(next); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		color[node] = black
		return nil
	}

	for _, n := range nodes {
		if color[n.ID()] == white {
			if err := dfs(n.ID()); err != nil {
				return err
			}
		}
	}

	return nil
}

// validateSemanticProperties re-checks every attached mapping against the
// shapes the operator is bound to. An unbound schema has no addressable fields.
func validateSemanticProperties(nodes []operator.DataSet) error {
	for _, n := range nodes {
		u, ok := n.(UnaryNode)
		if !ok {
			continue
		}
		inArity, outArity := 0, 0
		if u.Input().Schema() != nil {
			inArity = u.Input().Schema().NumFields()
		}
		if u.Schema() != nil {
			outArity = u.Schema().NumFields()
		}
		for _, m := range u.SemanticProperties().Mappings() {
			if m.Source.Index >= inArity || m.Target.Index >= outArity {
				return fmt.Errorf("operator %q: constant field %s out of range for arity %d -> %d",
					u.Name(), m, inArity, outArity)
			}
		}
	}
	return nil
}

// isNil reports whether ds is nil, including a nil pointer stored in the
// interface.
func isNil(ds operator.DataSet) bool {
	if ds == nil {
		return true
	}
	v := reflect.ValueOf(ds)
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}

func sortedKeys(m map[string]operator.DataSet) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
