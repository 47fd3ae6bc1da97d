// Package shape adapts Arrow schemas and data types into the record shapes that
// field references are validated against.
package shape

import (
	"fmt"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
)

// Shape describes how many fields of a record type can be addressed by index.
type Shape interface {
	// Arity is the number of addressable fields. Zero for atomic shapes.
	Arity() int

	// Addressable reports whether fields of this shape can be referenced by index.
	Addressable() bool

	String() string
}

type record struct {
	fields []arrow.Field
}

func (r record) Arity() int        { return len(r.fields) }
func (r record) Addressable() bool { return true }

func (r record) String() string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name + ":" + f.Type.String()
	}
	return "record<" + strings.Join(names, ", ") + ">"
}

type atomic struct {
	name string
}

func (a atomic) Arity() int        { return 0 }
func (a atomic) Addressable() bool { return false }
func (a atomic) String() string    { return a.name }

// FromSchema returns the record shape of an Arrow schema.
// A nil schema is unbound and therefore not addressable.
func FromSchema(s *arrow.Schema) Shape {
	if s == nil {
		return atomic{name: "unbound"}
	}
	return record{fields: s.Fields()}
}

// FromType returns the shape of a single Arrow data type. Only struct types are
// addressable; every other type is atomic.
func FromType(dt arrow.DataType) Shape {
	if dt == nil {
		return atomic{name: "unbound"}
	}
	if st, ok := dt.(*arrow.StructType); ok {
		return record{fields: st.Fields()}
	}
	return atomic{name: dt.String()}
}

// Atomic returns a non-addressable shape with the given display name.
func Atomic(name string) Shape {
	return atomic{name: name}
}

// FieldIndex returns the index of a named field, or -1 if the name is absent or
// ambiguous.
func FieldIndex(s *arrow.Schema, name string) int {
	if s == nil {
		return -1
	}
	indices := s.FieldIndices(name)
	if len(indices) != 1 {
		return -1
	}
	return indices[0]
}

// FieldNames returns the list of field names in a schema.
func FieldNames(s *arrow.Schema) []string {
	names := make([]string, s.NumFields())
	for i := 0; i < s.NumFields(); i++ {
		names[i] = s.Field(i).Name
	}
	return names
}

// Equal reports whether two schemas have the same fields in the same order.
// Metadata is ignored.
func Equal(a, b *arrow.Schema) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(b)
}

// ParseType resolves a textual type name to an Arrow data type.
func ParseType(name string) (arrow.DataType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "int8":
		return arrow.PrimitiveTypes.Int8, nil
	case "int16":
		return arrow.PrimitiveTypes.Int16, nil
	case "int32":
		return arrow.PrimitiveTypes.Int32, nil
	case "int64":
		return arrow.PrimitiveTypes.Int64, nil
	case "float32":
		return arrow.PrimitiveTypes.Float32, nil
	case "float64":
		return arrow.PrimitiveTypes.Float64, nil
	case "string":
		return arrow.BinaryTypes.String, nil
	case "bool", "boolean":
		return arrow.FixedWidthTypes.Boolean, nil
	case "timestamp_ms":
		return arrow.FixedWidthTypes.Timestamp_ms, nil
	case "timestamp_us":
		return arrow.FixedWidthTypes.Timestamp_us, nil
	default:
		return nil, fmt.Errorf("unsupported arrow type: %q", name)
	}
}
