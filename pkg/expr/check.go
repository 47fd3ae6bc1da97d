package expr

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/pingcap/tidb/pkg/parser/ast"
	"github.com/pingcap/tidb/pkg/parser/opcode"
	"github.com/pingcap/tidb/pkg/parser/test_driver"
)

// Checker infers result types of SQL expressions over the columns of a schema.
type Checker struct {
	schema *arrow.Schema
}

// NewChecker creates a checker resolving column references against schema.
func NewChecker(schema *arrow.Schema) *Checker {
	return &Checker{schema: schema}
}

// TypeOf parses exprSQL and returns the type it produces.
func (c *Checker) TypeOf(exprSQL string) (arrow.DataType, error) {
	expr, err := Parse(exprSQL)
	if err != nil {
		return nil, err
	}
	dt, err := c.typeOf(expr)
	if err != nil {
		return nil, fmt.Errorf("expression %q: %w", exprSQL, err)
	}
	return dt, nil
}

// CheckBool verifies that exprSQL is a boolean condition.
func (c *Checker) CheckBool(exprSQL string) error {
	dt, err := c.TypeOf(exprSQL)
	if err != nil {
		return err
	}
	if !isBool(dt) {
		return fmt.Errorf("expression %q did not produce boolean result, got %s", exprSQL, dt)
	}
	return nil
}

// typeOf dispatches AST nodes to the appropriate typing function.
func (c *Checker) typeOf(expr ast.ExprNode) (arrow.DataType, error) {
	switch e := expr.(type) {
	case *ast.ColumnNameExpr:
		return c.columnType(e)
	case *test_driver.ValueExpr:
		return literalType(e)
	case *ast.BinaryOperationExpr:
		return c.binaryOpType(e)
	case *ast.UnaryOperationExpr:
		return c.unaryOpType(e)
	case *ast.IsNullExpr:
		if _, err := c.typeOf(e.Expr); err != nil {
			return nil, err
		}
		return arrow.FixedWidthTypes.Boolean, nil
	case *ast.ParenthesesExpr:
		return c.typeOf(e.Expr)
	case *ast.FuncCallExpr:
		return c.funcCallType(e)
	case *ast.CaseExpr:
		return c.caseType(e)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", expr)
	}
}

// ── Column references ───────────────────────────────────────────────

func (c *Checker) columnType(col *ast.ColumnNameExpr) (arrow.DataType, error) {
	name := col.Name.Name.O
	if c.schema == nil {
		return nil, fmt.Errorf("column %q: input has no schema", name)
	}
	indices := c.schema.FieldIndices(name)
	switch len(indices) {
	case 0:
		return nil, fmt.Errorf("column %q not found in schema", name)
	case 1:
		return c.schema.Field(indices[0]).Type, nil
	default:
		return nil, fmt.Errorf("column %q is ambiguous", name)
	}
}

// ── Literals ────────────────────────────────────────────────────────

func literalType(val *test_driver.ValueExpr) (arrow.DataType, error) {
	switch val.Datum.Kind() {
	case test_driver.KindInt64, test_driver.KindUint64:
		return arrow.PrimitiveTypes.Int64, nil
	case test_driver.KindFloat32, test_driver.KindFloat64, test_driver.KindMysqlDecimal:
		return arrow.PrimitiveTypes.Float64, nil
	case test_driver.KindString:
		return arrow.BinaryTypes.String, nil
	case test_driver.KindNull:
		return arrow.Null, nil
	default:
		return nil, fmt.Errorf("unsupported literal kind: %v", val.Datum.Kind())
	}
}

// ── Binary operations (comparisons, arithmetic, logical) ────────────

func (c *Checker) binaryOpType(expr *ast.BinaryOperationExpr) (arrow.DataType, error) {
	left, err := c.typeOf(expr.L)
	if err != nil {
		return nil, err
	}
	right, err := c.typeOf(expr.R)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case opcode.EQ, opcode.NE, opcode.GT, opcode.LT, opcode.GE, opcode.LE:
		if !canCompare(left, right) {
			return nil, fmt.Errorf("cannot compare %s with %s", left, right)
		}
		return arrow.FixedWidthTypes.Boolean, nil
	case opcode.Plus, opcode.Minus, opcode.Mul, opcode.Div:
		return promote(left, right)
	case opcode.LogicAnd, opcode.LogicOr:
		if !isBool(left) || !isBool(right) {
			return nil, fmt.Errorf("%v requires boolean operands, got %s and %s", expr.Op, left, right)
		}
		return arrow.FixedWidthTypes.Boolean, nil
	default:
		return nil, fmt.Errorf("unsupported binary operator: %v", expr.Op)
	}
}

// ── Unary operations ────────────────────────────────────────────────

func (c *Checker) unaryOpType(expr *ast.UnaryOperationExpr) (arrow.DataType, error) {
	inner, err := c.typeOf(expr.V)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case opcode.Not, opcode.Not2:
		if !isBool(inner) {
			return nil, fmt.Errorf("NOT requires boolean input, got %s", inner)
		}
		return arrow.FixedWidthTypes.Boolean, nil
	case opcode.Minus:
		if typeRank(inner.ID()) < 0 {
			return nil, fmt.Errorf("unary minus requires numeric input, got %s", inner)
		}
		return inner, nil
	default:
		return nil, fmt.Errorf("unsupported unary operator: %v", expr.Op)
	}
}

// ── CASE WHEN ───────────────────────────────────────────────────────

func (c *Checker) caseType(expr *ast.CaseExpr) (arrow.DataType, error) {
	if expr.Value != nil {
		return nil, fmt.Errorf("CASE with operand is not supported")
	}

	var result arrow.DataType
	for i, when := range expr.WhenClauses {
		cond, err := c.typeOf(when.Expr)
		if err != nil {
			return nil, fmt.Errorf("CASE WHEN[%d] condition: %w", i, err)
		}
		if !isBool(cond) {
			return nil, fmt.Errorf("CASE WHEN[%d] condition is %s, not boolean", i, cond)
		}
		val, err := c.typeOf(when.Result)
		if err != nil {
			return nil, fmt.Errorf("CASE WHEN[%d] value: %w", i, err)
		}
		// The result type is taken from the first THEN value.
		if result == nil {
			result = val
		}
	}

	if expr.ElseClause != nil {
		if _, err := c.typeOf(expr.ElseClause); err != nil {
			return nil, fmt.Errorf("CASE ELSE: %w", err)
		}
	}
	return result, nil
}

// ── Function calls ──────────────────────────────────────────────────

func (c *Checker) funcCallType(expr *ast.FuncCallExpr) (arrow.DataType, error) {
	// TiDB stores lowercase name in FnName.L.
	name := expr.FnName.L

	args := make([]arrow.DataType, len(expr.Args))
	for i, a := range expr.Args {
		dt, err := c.typeOf(a)
		if err != nil {
			return nil, fmt.Errorf("%s argument %d: %w", name, i, err)
		}
		args[i] = dt
	}

	switch name {
	case "upper", "lower", "trim":
		if len(args) != 1 || !isString(args[0]) {
			return nil, fmt.Errorf("%s requires one string argument", name)
		}
		return arrow.BinaryTypes.String, nil
	case "concat":
		if len(args) == 0 {
			return nil, fmt.Errorf("CONCAT requires at least 1 argument")
		}
		return arrow.BinaryTypes.String, nil
	case "substring", "substr":
		if len(args) < 2 || !isString(args[0]) {
			return nil, fmt.Errorf("%s requires a string and a start position", name)
		}
		return arrow.BinaryTypes.String, nil
	case "regexp_extract":
		if len(args) < 2 || !isString(args[0]) {
			return nil, fmt.Errorf("REGEXP_EXTRACT requires a string and a pattern")
		}
		return arrow.BinaryTypes.String, nil
	case "coalesce":
		if len(args) == 0 {
			return nil, fmt.Errorf("COALESCE requires at least 1 argument")
		}
		// Use the first arg's type for the result.
		return args[0], nil
	default:
		return nil, fmt.Errorf("unsupported function: %s", name)
	}
}

func isBool(dt arrow.DataType) bool {
	return dt.ID() == arrow.BOOL || dt.ID() == arrow.NULL
}

func isString(dt arrow.DataType) bool {
	return dt.ID() == arrow.STRING || dt.ID() == arrow.LARGE_STRING || dt.ID() == arrow.NULL
}
