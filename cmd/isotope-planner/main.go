// Command isotope-planner loads a YAML program, compiles it and prints the
// semantic properties the optimizer sees for every operator.
package main

import (
	"fmt"
	"log/slog"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/sandboxws/isotope/compiler/pkg/metrics"
	"github.com/sandboxws/isotope/compiler/pkg/program"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "usage: isotope-planner <program.yaml> [--metrics]\n")
		os.Exit(1)
	}

	programPath := os.Args[1]

	// Load and compile the program.
	prog, err := program.LoadFile(programPath)
	if err != nil {
		slog.Error("failed to load program", "path", programPath, "error", err)
		os.Exit(1)
	}

	plan, err := prog.Compile()
	if err != nil {
		slog.Error("failed to compile program", "program", prog.Name(), "error", err)
		os.Exit(1)
	}

	slog.Info("compiled program",
		"program", plan.Name(),
		"data_sets", len(plan.Nodes()),
		"operators", len(plan.Operators()),
	)

	for _, op := range plan.Operators() {
		sets := op.BroadcastSets()
		var broadcasts []string
		for _, name := range slices.Sorted(maps.Keys(sets)) {
			broadcasts = append(broadcasts, name+"="+sets[name].Name())
		}
		var params []string
		if cfg, ok := op.Parameters(); ok {
			params = cfg.Keys()
		}
		fmt.Printf("%-20s %-8s %s -> %s  constant=%s broadcast=[%s] parameters=[%s]\n",
			op.Name(), op.Kind(), op.Input().Name(), op.OutputShape(),
			op.SemanticProperties(), strings.Join(broadcasts, ","), strings.Join(params, ","))
	}

	if len(os.Args) > 2 && os.Args[2] == "--metrics" {
		if err := metrics.WriteText(os.Stdout); err != nil {
			slog.Error("failed to write metrics", "error", err)
			os.Exit(1)
		}
	}
}
