// Package expr type-checks SQL expressions against Arrow schemas at plan
// construction time. It uses TiDB's SQL parser to parse expressions and infers
// the result type of every supported node without evaluating anything.
package expr

import (
	"fmt"

	"github.com/pingcap/tidb/pkg/parser"
	"github.com/pingcap/tidb/pkg/parser/ast"
)

// Parse parses a standalone SQL expression by wrapping it in a SELECT statement.
func Parse(exprSQL string) (ast.ExprNode, error) {
	stmt, err := parser.New().ParseOneStmt("SELECT "+exprSQL, "", "")
	if err != nil {
		return nil, fmt.Errorf("parse expression %q: %w", exprSQL, err)
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok || sel.Fields == nil || len(sel.Fields.Fields) != 1 {
		return nil, fmt.Errorf("parse expression %q: expected a single expression", exprSQL)
	}
	return sel.Fields.Fields[0].Expr, nil
}

// ColumnRef returns the column name if expr is a plain column reference,
// possibly wrapped in parentheses.
func ColumnRef(expr ast.ExprNode) (string, bool) {
	switch e := expr.(type) {
	case *ast.ColumnNameExpr:
		return e.Name.Name.O, true
	case *ast.ParenthesesExpr:
		return ColumnRef(e.Expr)
	default:
		return "", false
	}
}
