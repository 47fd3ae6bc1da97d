package expr

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
)

// promote returns the common type of two numeric operands following SQL rules:
// Int8/Int16/Int32 + Int64 -> Int64, Int + Float -> Float64, etc. A NULL
// operand takes the type of the other side.
func promote(left, right arrow.DataType) (arrow.DataType, error) {
	if left.ID() == arrow.NULL {
		left = right
	}
	if right.ID() == arrow.NULL {
		right = left
	}
	if left.ID() == arrow.NULL {
		return arrow.Null, nil
	}

	rank, otherRank := typeRank(left.ID()), typeRank(right.ID())
	if rank < 0 || otherRank < 0 {
		return nil, fmt.Errorf("arithmetic requires numeric operands, got %s and %s", left, right)
	}
	if otherRank > rank {
		rank = otherRank
	}
	return rankToType(rank), nil
}

// canCompare reports whether values of the two types can be compared.
func canCompare(left, right arrow.DataType) bool {
	if left.ID() == arrow.NULL || right.ID() == arrow.NULL {
		return true
	}
	if typeRank(left.ID()) >= 0 && typeRank(right.ID()) >= 0 {
		return true
	}
	return arrow.TypeEqual(left, right)
}

// typeRank assigns a promotion rank to numeric types.
func typeRank(t arrow.Type) int {
	switch t {
	case arrow.INT8:
		return 1
	case arrow.INT16:
		return 2
	case arrow.INT32:
		return 3
	case arrow.INT64:
		return 4
	case arrow.FLOAT32:
		return 5
	case arrow.FLOAT64:
		return 6
	default:
		return -1
	}
}

func rankToType(rank int) arrow.DataType {
	switch rank {
	case 1:
		return arrow.PrimitiveTypes.Int8
	case 2:
		return arrow.PrimitiveTypes.Int16
	case 3:
		return arrow.PrimitiveTypes.Int32
	case 4:
		return arrow.PrimitiveTypes.Int64
	case 5:
		return arrow.PrimitiveTypes.Float32
	default:
		return arrow.PrimitiveTypes.Float64
	}
}
