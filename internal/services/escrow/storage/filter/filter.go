// Package filter translates AIP-160 booking filters into SQL conditions.
package filter

import (
	"fmt"
	"strconv"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// Declarations returns the identifiers a booking filter may reference.
func Declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("status", filtering.TypeString),
		filtering.DeclareIdent("venue_id", filtering.TypeString),
		filtering.DeclareIdent("musician_id", filtering.TypeString),
		filtering.DeclareIdent("currency", filtering.TypeString),
	)
}

// Condition is a SQL WHERE fragment using ? placeholders.
type Condition struct {
	Clause string
	Params []any
}

// Empty reports whether the condition matches everything.
func (c Condition) Empty() bool {
	return strings.TrimSpace(c.Clause) == ""
}

// Numbered rewrites ? placeholders as $n starting after offset existing
// parameters, for drivers that use numbered placeholders.
func (c Condition) Numbered(offset int) string {
	var b strings.Builder
	n := offset
	for _, r := range c.Clause {
		if r == '?' {
			n++
			b.WriteString("$" + strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

var columns = map[string]string{
	"status":      "status",
	"venue_id":    "venue_id",
	"musician_id": "musician_id",
	"currency":    "currency",
}

// Parse parses an AIP-160 filter. An empty filter yields an empty condition.
func Parse(raw string) (Condition, error) {
	if strings.TrimSpace(raw) == "" {
		return Condition{}, nil
	}
	decls, err := Declarations()
	if err != nil {
		return Condition{}, fmt.Errorf("create declarations: %w", err)
	}
	parsed, err := filtering.ParseFilterString(raw, decls)
	if err != nil {
		return Condition{}, fmt.Errorf("parse filter: %w", err)
	}
	return translate(parsed.CheckedExpr.GetExpr())
}

func translate(e *expr.Expr) (Condition, error) {
	if e == nil {
		return Condition{}, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return Condition{}, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}
	args := call.CallExpr.Args
	switch call.CallExpr.Function {
	case "_&&_", "AND":
		return join(args, "AND")
	case "_||_", "OR":
		return join(args, "OR")
	case "_==_", "=":
		return compare(args, "=")
	case "_!=_", "!=":
		return compare(args, "!=")
	default:
		return Condition{}, fmt.Errorf("unsupported function: %s", call.CallExpr.Function)
	}
}

func join(args []*expr.Expr, op string) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("%s requires 2 arguments", op)
	}
	left, err := translate(args[0])
	if err != nil {
		return Condition{}, err
	}
	right, err := translate(args[1])
	if err != nil {
		return Condition{}, err
	}
	return Condition{
		Clause: fmt.Sprintf("(%s %s %s)", left.Clause, op, right.Clause),
		Params: append(left.Params, right.Params...),
	}, nil
}

func compare(args []*expr.Expr, op string) (Condition, error) {
	if len(args) != 2 {
		return Condition{}, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].GetExprKind().(*expr.Expr_IdentExpr)
	if !ok {
		return Condition{}, fmt.Errorf("expected field on the left of %s", op)
	}
	column, ok := columns[ident.IdentExpr.GetName()]
	if !ok {
		return Condition{}, fmt.Errorf("unknown field: %s", ident.IdentExpr.GetName())
	}
	constant, ok := args[1].GetExprKind().(*expr.Expr_ConstExpr)
	if !ok {
		return Condition{}, fmt.Errorf("expected literal on the right of %s", op)
	}
	value, ok := constant.ConstExpr.GetConstantKind().(*expr.Constant_StringValue)
	if !ok {
		return Condition{}, fmt.Errorf("field %s expects a string", ident.IdentExpr.GetName())
	}
	return Condition{
		Clause: fmt.Sprintf("%s %s ?", column, op),
		Params: []any{value.StringValue},
	}, nil
}
