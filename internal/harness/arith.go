package harness

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"strconv"
)

// EvalArithmetic evaluates an expression of numbers, + - * / and
// parentheses with the usual precedence.
func EvalArithmetic(expr string) (float64, error) {
	node, err := parser.ParseExpr(expr)
	if err != nil {
		return 0, fmt.Errorf("parse %q: %w", expr, err)
	}
	return evalNode(node)
}

func evalNode(n ast.Expr) (float64, error) {
	switch n := n.(type) {
	case *ast.BasicLit:
		if n.Kind != token.INT && n.Kind != token.FLOAT {
			return 0, fmt.Errorf("unexpected literal %s", n.Value)
		}
		return strconv.ParseFloat(n.Value, 64)
	case *ast.ParenExpr:
		return evalNode(n.X)
	case *ast.UnaryExpr:
		x, err := evalNode(n.X)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.SUB:
			return -x, nil
		case token.ADD:
			return x, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)
	case *ast.BinaryExpr:
		x, err := evalNode(n.X)
		if err != nil {
			return 0, err
		}
		y, err := evalNode(n.Y)
		if err != nil {
			return 0, err
		}
		switch n.Op {
		case token.ADD:
			return x + y, nil
		case token.SUB:
			return x - y, nil
		case token.MUL:
			return x * y, nil
		case token.QUO:
			if y == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return x / y, nil
		}
		return 0, fmt.Errorf("unsupported operator %s", n.Op)
	}
	return 0, fmt.Errorf("unsupported expression %T", n)
}
