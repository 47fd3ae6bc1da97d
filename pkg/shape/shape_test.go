package shape

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
)

func testSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "id", Type: arrow.PrimitiveTypes.Int64},
		{Name: "name", Type: arrow.BinaryTypes.String},
		{Name: "amount", Type: arrow.PrimitiveTypes.Float64},
	}, nil)
}

func TestFromSchema(t *testing.T) {
	s := FromSchema(testSchema())
	if !s.Addressable() {
		t.Fatal("record shape should be addressable")
	}
	if s.Arity() != 3 {
		t.Errorf("expected arity 3, got %d", s.Arity())
	}
}

func TestFromSchemaNil(t *testing.T) {
	s := FromSchema(nil)
	if s.Addressable() {
		t.Error("nil schema should not be addressable")
	}
	if s.Arity() != 0 {
		t.Errorf("expected arity 0, got %d", s.Arity())
	}
}

func TestFromTypeStruct(t *testing.T) {
	st := arrow.StructOf(
		arrow.Field{Name: "lat", Type: arrow.PrimitiveTypes.Float64},
		arrow.Field{Name: "lon", Type: arrow.PrimitiveTypes.Float64},
	)
	s := FromType(st)
	if !s.Addressable() || s.Arity() != 2 {
		t.Errorf("expected addressable arity 2, got addressable=%v arity=%d", s.Addressable(), s.Arity())
	}
}

func TestFromTypeAtomic(t *testing.T) {
	s := FromType(arrow.PrimitiveTypes.Int64)
	if s.Addressable() {
		t.Error("int64 should not be addressable")
	}
	if s.String() != "int64" {
		t.Errorf("unexpected name %q", s.String())
	}
}

func TestFieldIndex(t *testing.T) {
	schema := testSchema()
	if idx := FieldIndex(schema, "amount"); idx != 2 {
		t.Errorf("expected 2, got %d", idx)
	}
	if idx := FieldIndex(schema, "missing"); idx != -1 {
		t.Errorf("expected -1, got %d", idx)
	}

	dup := arrow.NewSchema([]arrow.Field{
		{Name: "x", Type: arrow.PrimitiveTypes.Int64},
		{Name: "x", Type: arrow.PrimitiveTypes.Int64},
	}, nil)
	if idx := FieldIndex(dup, "x"); idx != -1 {
		t.Errorf("ambiguous name should resolve to -1, got %d", idx)
	}
}

func TestParseType(t *testing.T) {
	dt, err := ParseType(" Int64 ")
	if err != nil {
		t.Fatal(err)
	}
	if dt.ID() != arrow.INT64 {
		t.Errorf("expected int64, got %s", dt)
	}

	if _, err := ParseType("decimal"); err == nil {
		t.Error("expected error for unsupported type")
	}
}
