package program

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow"

	"github.com/sandboxws/isotope/compiler/pkg/operator"
	"github.com/sandboxws/isotope/compiler/pkg/operators"
	"github.com/sandboxws/isotope/compiler/pkg/semantic"
	"github.com/sandboxws/isotope/compiler/pkg/udf"
)

// ── Test helpers ────────────────────────────────────────────────────

func ordersSource() *operator.Source {
	return operator.NewSource("orders", arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "country", Type: arrow.BinaryTypes.String},
		{Name: "amount", Type: arrow.PrimitiveTypes.Int64},
		{Name: "note", Type: arrow.BinaryTypes.String},
	}, nil))
}

func names(nodes []operator.DataSet) string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name()
	}
	return strings.Join(out, ",")
}

func mustLookup(t *testing.T, plan *Plan, name string) operator.DataSet {
	t.Helper()
	ds, ok := plan.Lookup(name)
	if !ok {
		t.Fatalf("data set %q not in plan", name)
	}
	return ds
}

// ── Compile tests ───────────────────────────────────────────────────

func TestCompileSealsOperators(t *testing.T) {
	src := ordersSource()
	filter, err := operators.NewFilter("big", src, "amount > 100")
	if err != nil {
		t.Fatal(err)
	}
	drop, err := operators.NewDrop("slim", filter, []string{"country", "note"})
	if err != nil {
		t.Fatal(err)
	}

	// Registration order does not matter.
	plan, err := New("orders").Add(drop, src, filter).Compile()
	if err != nil {
		t.Fatal(err)
	}

	if got := names(plan.Nodes()); got != "orders,big,slim" {
		t.Errorf("expected topological order orders,big,slim, got %s", got)
	}
	if len(plan.Operators()) != 2 {
		t.Fatalf("expected 2 operators, got %d", len(plan.Operators()))
	}
	if !filter.Sealed() || !drop.Sealed() {
		t.Error("compile should seal every operator")
	}

	sealed, ok := plan.Operator(drop.ID())
	if !ok {
		t.Fatal("drop operator missing from plan")
	}
	if sealed.Kind() != "drop" || sealed.SemanticProperties().String() != "{0->0, 2->1}" {
		t.Errorf("unexpected sealed operator %s %s", sealed.Kind(), sealed.SemanticProperties())
	}
	if _, ok := plan.Operator(src.ID()); ok {
		t.Error("a source is not an operator")
	}
}

func TestCompileOrdersBroadcastsFirst(t *testing.T) {
	src := ordersSource()
	rates := operator.NewSource("rates", arrow.NewSchema([]arrow.Field{
		{Name: "country", Type: arrow.BinaryTypes.String},
	}, nil))
	enrich := operator.NewUnary("enrich", src, udf.Named("enrich"), src.Schema()).
		WithBroadcastSet(rates, "rates")

	plan, err := New("p").Add(enrich, src, rates).Compile()
	if err != nil {
		t.Fatal(err)
	}
	if got := names(plan.Nodes()); got != "orders,rates,enrich" {
		t.Errorf("expected orders,rates,enrich, got %s", got)
	}
}

func TestValidateErrors(t *testing.T) {
	src := ordersSource()
	orphan := ordersSource()

	tests := []struct {
		name    string
		program func() *Program
		wantErr string
	}{
		{
			name:    "missing name",
			program: func() *Program { return New("").Add(src) },
			wantErr: "name is required",
		},
		{
			name:    "empty program",
			program: func() *Program { return New("p") },
			wantErr: "at least one",
		},
		{
			name:    "duplicate data set",
			program: func() *Program { return New("p").Add(src, src) },
			wantErr: "duplicate",
		},
		{
			name: "unregistered input",
			program: func() *Program {
				u := operator.NewUnary("u", orphan, udf.Named("f"), nil)
				return New("p").Add(src, u)
			},
			wantErr: "input \"orders\" is not part of the program",
		},
		{
			name: "no input",
			program: func() *Program {
				return New("p").Add(operator.NewUnary("u", nil, udf.Named("f"), nil))
			},
			wantErr: "has no input",
		},
		{
			name: "unregistered broadcast",
			program: func() *Program {
				u := operator.NewUnary("u", src, udf.Named("f"), nil).WithBroadcastSet(orphan, "side")
				return New("p").Add(src, u)
			},
			wantErr: "broadcast set \"side\"",
		},
		{
			name:    "typed nil data set",
			program: func() *Program { return New("p").Add(src, (*operator.Source)(nil)) },
			wantErr: "nil data set",
		},
		{
			name: "typed nil operator",
			program: func() *Program {
				var u *operator.Unary
				return New("p").Add(src, u)
			},
			wantErr: "nil data set",
		},
		{
			name: "typed nil input",
			program: func() *Program {
				var missing *operator.Source
				return New("p").Add(src, operator.NewUnary("u", missing, udf.Named("f"), nil))
			},
			wantErr: "has no input",
		},
		{
			name: "typed nil broadcast",
			program: func() *Program {
				var missing *operator.Source
				u := operator.NewUnary("u", src, udf.Named("f"), nil).WithBroadcastSet(missing, "side")
				return New("p").Add(src, u)
			},
			wantErr: "broadcast set \"side\" is nil",
		},
		{
			name: "cycle through broadcast",
			program: func() *Program {
				a := operator.NewUnary("a", src, udf.Named("f"), src.Schema())
				b := operator.NewUnary("b", a, udf.Named("g"), src.Schema())
				a.WithBroadcastSet(b, "loop")
				return New("p").Add(src, a, b)
			},
			wantErr: "cycle detected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.program().Compile()
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFailedCompileLeavesOperatorsOpen(t *testing.T) {
	src := ordersSource()
	u := operator.NewUnary("u", src, udf.Named("f"), src.Schema()).
		WithBroadcastSet(ordersSource(), "side")

	if _, err := New("p").Add(src, u).Compile(); err == nil {
		t.Fatal("expected error")
	}
	if u.Sealed() {
		t.Error("operator should stay open after a failed compile")
	}
	if _, err := u.WithConstantSet("0->0"); err != nil {
		t.Fatal(err)
	}
}

// ── Field tracing ───────────────────────────────────────────────────

func TestPreservedAndTracedFields(t *testing.T) {
	src := ordersSource()
	filter, err := operators.NewFilter("big", src, "amount > 100")
	if err != nil {
		t.Fatal(err)
	}
	drop, err := operators.NewDrop("slim", filter, []string{"country", "note"})
	if err != nil {
		t.Fatal(err)
	}
	plan, err := New("p").Add(src, filter, drop).Compile()
	if err != nil {
		t.Fatal(err)
	}

	got, ok := plan.PreservedFields(drop.ID(), []int{0, 2})
	if !ok || len(got) != 2 || got[0] != 0 || got[1] != 1 {
		t.Errorf("expected [0 1], got %v %v", got, ok)
	}
	if _, ok := plan.PreservedFields(drop.ID(), []int{1}); ok {
		t.Error("a dropped field is not preserved")
	}
	if _, ok := plan.PreservedFields("unknown", []int{0}); ok {
		t.Error("unknown operator should not preserve anything")
	}

	traced, err := plan.TraceFields(src.ID(), drop.ID(), []int{2})
	if err != nil {
		t.Fatal(err)
	}
	if len(traced) != 1 || traced[0] != 1 {
		t.Errorf("expected amount at position 1, got %v", traced)
	}

	if _, err := plan.TraceFields(src.ID(), drop.ID(), []int{3}); err == nil {
		t.Error("expected error for a dropped field")
	}
	if _, err := plan.TraceFields(drop.ID(), filter.ID(), []int{0}); err == nil {
		t.Error("expected error when tracing upstream")
	}
}

// ── Loader tests ────────────────────────────────────────────────────

const ordersProgram = `
name: enrich-orders
annotations:
  - name: enrich
    constant_fields: ["0->0"]
sources:
  - name: orders
    fields:
      - {name: id, type: int64}
      - {name: country, type: string}
      - {name: amount, type: int64}
  - name: rates
    fields:
      - {name: country, type: string}
      - {name: rate, type: float64}
operators:
  - name: big
    kind: filter
    input: orders
    condition: amount > 100
  - name: enriched
    kind: udf
    udf: enrich
    input: big
    derive: true
    constant_fields: ["2->1"]
    result:
      - {name: id, type: int64}
      - {name: amount, type: int64}
      - {name: amount_eur, type: float64}
    parameters:
      currency: EUR
      precision: 2
    broadcast:
      rates: rates
  - name: slim
    kind: drop
    input: enriched
    drop: [amount_eur]
`

func TestParse(t *testing.T) {
	p, err := Parse([]byte(ordersProgram))
	if err != nil {
		t.Fatal(err)
	}
	if p.Name() != "enrich-orders" {
		t.Errorf("unexpected name %q", p.Name())
	}

	plan, err := p.Compile()
	if err != nil {
		t.Fatal(err)
	}
	if got := names(plan.Nodes()); got != "orders,rates,big,enriched,slim" {
		t.Errorf("unexpected order %s", got)
	}

	enriched, ok := plan.Operator(mustLookup(t, plan, "enriched").ID())
	if !ok {
		t.Fatal("enriched is not an operator")
	}
	if got := enriched.SemanticProperties().String(); got != "{0->0, 2->1}" {
		t.Errorf("expected declared and explicit fields merged, got %s", got)
	}
	if enriched.UDF().Name() != "enrich" || enriched.Kind() != operator.DefaultKind {
		t.Errorf("unexpected udf %s kind %s", enriched.UDF().Name(), enriched.Kind())
	}

	params, ok := enriched.Parameters()
	if !ok {
		t.Fatal("expected parameters")
	}
	if params.GetString("currency", "") != "EUR" || params.GetInt64("precision", 0) != 2 {
		t.Errorf("unexpected parameters %v", params.Keys())
	}
	if bc := enriched.BroadcastSets()["rates"]; bc == nil || bc.Name() != "rates" {
		t.Errorf("expected rates broadcast set, got %v", bc)
	}

	orders := mustLookup(t, plan, "orders")
	slim := mustLookup(t, plan, "slim")
	traced, err := plan.TraceFields(orders.ID(), slim.ID(), []int{0, 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(traced) != 2 || traced[0] != 0 || traced[1] != 1 {
		t.Errorf("expected [0 1], got %v", traced)
	}
}

func TestParseExplicitReplacesDerived(t *testing.T) {
	p, err := Parse([]byte(`
name: p
sources:
  - name: orders
    fields: [{name: id, type: int64}, {name: amount, type: int64}]
operators:
  - name: big
    kind: filter
    input: orders
    condition: amount > 0
    constant_fields: ["1->1"]
`))
	if err != nil {
		t.Fatal(err)
	}
	plan, err := p.Compile()
	if err != nil {
		t.Fatal(err)
	}
	big := plan.Operators()[0]
	if got := big.SemanticProperties().String(); got != "{1->1}" {
		t.Errorf("expected explicit fields only, got %s", got)
	}
}

func TestParseErrors(t *testing.T) {
	const sources = `
name: p
sources:
  - name: orders
    fields: [{name: id, type: int64}, {name: amount, type: int64}]
`
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad yaml",
			yaml:    "name: [",
			wantErr: "parse program YAML",
		},
		{
			name:    "unknown kind",
			yaml:    sources + "operators:\n  - {name: j, kind: join, input: orders}\n",
			wantErr: "unsupported operator kind: join",
		},
		{
			name:    "unknown input",
			yaml:    sources + "operators:\n  - {name: f, kind: filter, input: nope, condition: x > 1}\n",
			wantErr: "unknown input \"nope\"",
		},
		{
			name:    "unknown type",
			yaml:    "name: p\nsources:\n  - name: s\n    fields: [{name: a, type: decimal}]\n",
			wantErr: "unsupported arrow type",
		},
		{
			name:    "duplicate data set",
			yaml:    sources + "operators:\n  - {name: orders, kind: filter, input: orders, condition: id > 1}\n",
			wantErr: "duplicate data set",
		},
		{
			name:    "unknown broadcast",
			yaml:    sources + "operators:\n  - {name: f, kind: filter, input: orders, condition: id > 1, broadcast: {side: nope}}\n",
			wantErr: "unknown broadcast data set",
		},
		{
			name:    "udf without name",
			yaml:    sources + "operators:\n  - {name: f, kind: udf, input: orders}\n",
			wantErr: "udf name is required",
		},
		{
			name:    "out of range constant field",
			yaml:    sources + "operators:\n  - {name: f, kind: filter, input: orders, condition: id > 1, constant_fields: [\"5->0\"]}\n",
			wantErr: "source_out_of_range",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestParseConflictingDerivedFields(t *testing.T) {
	_, err := Parse([]byte(`
name: p
annotations:
  - name: enrich
    constant_fields: ["0->0"]
sources:
  - name: orders
    fields: [{name: id, type: int64}, {name: amount, type: int64}]
operators:
  - name: e
    kind: udf
    udf: enrich
    input: orders
    derive: true
    constant_fields: ["0->1"]
    result: [{name: a, type: int64}, {name: b, type: int64}]
`))
	if !errors.Is(err, semantic.ErrConflictingConstancy) {
		t.Fatalf("expected conflicting constancy, got %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "program.yaml")
	if err := os.WriteFile(path, []byte(ordersProgram), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Nodes()) != 5 {
		t.Errorf("expected 5 data sets, got %d", len(p.Nodes()))
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
