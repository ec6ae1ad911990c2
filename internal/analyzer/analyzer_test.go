package analyzer

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/funvibe/matchkit/internal/ast"
	"github.com/funvibe/matchkit/internal/typesystem"
)

func typ(t typesystem.Tag, name string) ast.Pattern { return &ast.TypePattern{Type: t, Name: name} }
func and(l, r ast.Pattern) ast.Pattern              { return &ast.AndPattern{Left: l, Right: r} }
func or(l, r ast.Pattern) ast.Pattern               { return &ast.OrPattern{Left: l, Right: r} }
func not(p ast.Pattern) ast.Pattern                 { return &ast.NotPattern{Inner: p} }
func ident(name string) ast.Expression              { return &ast.Identifier{Value: name} }
func intLit(n int64) ast.Expression                 { return &ast.IntegerLiteral{Value: n} }
func strLit(s string) ast.Expression                { return &ast.StringLiteral{Value: s} }

func infix(l ast.Expression, op string, r ast.Expression) ast.Expression {
	return &ast.InfixExpression{Left: l, Operator: op, Right: r}
}

func call(fn string, args ...ast.Expression) ast.Expression {
	return &ast.CallExpression{Function: fn, Arguments: args}
}

func shapes(t *testing.T) *typesystem.Hierarchy {
	t.Helper()
	h := typesystem.NewHierarchy()
	if err := h.DeclareAll([]typesystem.Decl{
		{Name: "Shape"},
		{Name: "Circle", Parents: []typesystem.Tag{"Shape"}},
	}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	return h
}

func TestCheckPatternScope(t *testing.T) {
	a := New(shapes(t))
	tests := []struct {
		name string
		pat  ast.Pattern
		want []string
	}{
		{"wildcard", &ast.WildcardPattern{}, []string{}},
		{"type binds", typ(typesystem.String, "s"), []string{"s"}},
		{"discard name", typ(typesystem.String, "_"), []string{}},
		{"unnamed", typ("Shape", ""), []string{}},
		{"and unions", and(typ("Shape", "s"), typ("Circle", "c")), []string{"c", "s"}},
		{"or keeps common", or(typ(typesystem.Int, "v"), typ(typesystem.String, "v")), []string{"v"}},
		{"or drops one-sided", or(typ(typesystem.Int, "n"), &ast.ConstantPattern{Value: "x"}), []string{}},
		{"not binds nothing", not(typ(typesystem.String, "s")), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, err := a.CheckPattern(tt.pat)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := scope.Names(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckPatternOrWidensTag(t *testing.T) {
	a := New(nil)
	scope, err := a.CheckPattern(or(typ(typesystem.Int, "v"), typ(typesystem.String, "v")))
	if err != nil {
		t.Fatal(err)
	}
	if scope["v"] != typesystem.Any {
		t.Errorf("v narrowed to %s, want Any", scope["v"])
	}
}

func TestCheckPatternErrors(t *testing.T) {
	a := New(nil)

	_, err := a.CheckPattern(and(typ(typesystem.String, "s"), typ(typesystem.String, "s")))
	var dup *DuplicateBindingError
	if !errors.As(err, &dup) || dup.Name != "s" {
		t.Errorf("expected DuplicateBindingError for s, got %v", err)
	}

	_, err = a.CheckPattern(typ("Nope", "x"))
	var unknownType *typesystem.UnknownTypeError
	if !errors.As(err, &unknownType) {
		t.Errorf("expected UnknownTypeError, got %v", err)
	}

	invalid := []ast.Pattern{
		nil,
		&ast.RelationalPattern{Operator: "==", Bound: 1},
		&ast.AndPattern{Left: typ(typesystem.Int, "")},
		&ast.OrPattern{Right: typ(typesystem.Int, "")},
		&ast.NotPattern{},
		&ast.ConstantPattern{Value: 1.5},
	}
	for _, p := range invalid {
		_, err := a.CheckPattern(p)
		var inv *InvalidPatternError
		if !errors.As(err, &inv) {
			t.Errorf("CheckPattern(%#v): expected InvalidPatternError, got %v", p, err)
		}
	}
}

func TestCheckArmUnboundName(t *testing.T) {
	a := New(nil)
	tests := []struct {
		name string
		arm  *ast.MatchArm
		want string
	}{
		{
			"result uses unbound",
			&ast.MatchArm{Pattern: &ast.WildcardPattern{}, Result: ident("x")},
			"x",
		},
		{
			"guard uses name under not",
			&ast.MatchArm{Pattern: not(typ(typesystem.Int, "n")), Guard: infix(ident("n"), ">", intLit(0)), Result: strLit("")},
			"n",
		},
		{
			"one-sided or",
			&ast.MatchArm{Pattern: or(typ(typesystem.Int, "n"), typ(typesystem.String, "s")), Result: ident("s")},
			"s",
		},
		{
			// Unbound is reported even though the comparison is also ill-typed.
			"unbound before type error",
			&ast.MatchArm{Pattern: typ(typesystem.String, "s"), Guard: infix(ident("s"), "<", ident("y")), Result: strLit("")},
			"y",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.CheckArm(tt.arm, 3)
			var unbound *UnboundNameError
			if !errors.As(err, &unbound) {
				t.Fatalf("expected UnboundNameError, got %v", err)
			}
			if unbound.Name != tt.want || unbound.Arm != 3 {
				t.Errorf("got %+v, want name %s at arm 3", unbound, tt.want)
			}
		})
	}
}

func TestCheckArmGuardTypes(t *testing.T) {
	a := New(shapes(t))
	tests := []struct {
		name  string
		pat   ast.Pattern
		guard ast.Expression
	}{
		{"guard is int", typ(typesystem.String, "s"), call("len", ident("s"))},
		{"string compared with int", typ(typesystem.String, "s"), infix(ident("s"), ">", intLit(1))},
		{"len of int", typ(typesystem.Int, "n"), infix(call("len", ident("n")), "==", intLit(0))},
		{"logical on int", typ(typesystem.Int, "n"), infix(ident("n"), "&&", &ast.BooleanLiteral{Value: true})},
		{"bang on string", typ(typesystem.String, "s"), &ast.PrefixExpression{Operator: "!", Right: ident("s")}},
		{"field of int", typ(typesystem.Int, "n"), infix(&ast.FieldAccess{Left: ident("n"), Field: "x"}, "==", intLit(1))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.CheckArm(&ast.MatchArm{Pattern: tt.pat, Guard: tt.guard, Result: strLit("r")}, 0)
			var gte *GuardTypeError
			if !errors.As(err, &gte) {
				t.Errorf("expected GuardTypeError, got %v", err)
			}
		})
	}
}

func TestCheckArmInvalidExpressions(t *testing.T) {
	a := New(nil)
	tests := []struct {
		name   string
		result ast.Expression
		reason string
	}{
		{"unknown function", call("upper", strLit("x")), "unknown function"},
		{"arity", call("len"), "expects 1 argument"},
		{"unknown operator", infix(intLit(1), "**", intLit(2)), "unknown infix operator"},
		{"missing result", nil, "missing result"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.CheckArm(&ast.MatchArm{Pattern: &ast.WildcardPattern{}, Result: tt.result}, 1)
			var inv *InvalidExpressionError
			if !errors.As(err, &inv) {
				t.Fatalf("expected InvalidExpressionError, got %v", err)
			}
			if !strings.Contains(inv.Reason, tt.reason) {
				t.Errorf("reason %q does not mention %q", inv.Reason, tt.reason)
			}
		})
	}
}

func TestCheckArmAccepts(t *testing.T) {
	a := New(shapes(t))
	arms := []*ast.MatchArm{
		{Pattern: typ(typesystem.String, "s"), Guard: infix(call("len", ident("s")), "==", intLit(0)), Result: strLit("empty string")},
		{Pattern: typ(typesystem.Int, "n"), Guard: infix(infix(ident("n"), ">=", intLit(1)), "&&", infix(ident("n"), "<=", intLit(10))), Result: strLit("in range")},
		{Pattern: typ("Circle", "c"), Guard: infix(&ast.FieldAccess{Left: ident("c"), Field: "r"}, ">", intLit(2)), Result: call("show", ident("c"))},
		{Pattern: or(typ(typesystem.Int, "v"), typ(typesystem.String, "v")), Result: infix(strLit("v="), "+", ident("v"))},
		{Pattern: &ast.WildcardPattern{}, Result: &ast.FormatExpression{Parts: []ast.Expression{strLit("other")}}},
	}
	if err := a.CheckArms(arms); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckArmWrapsPatternErrors(t *testing.T) {
	a := New(nil)
	err := a.CheckArm(&ast.MatchArm{Pattern: typ("Missing", "m"), Result: strLit("")}, 4)
	if err == nil || !strings.HasPrefix(err.Error(), "arm 4: ") {
		t.Errorf("got %v, want an error prefixed with the arm index", err)
	}
	var unknownType *typesystem.UnknownTypeError
	if !errors.As(err, &unknownType) {
		t.Errorf("wrapped error lost its type: %v", err)
	}
}

func TestCheckArmWithoutIndex(t *testing.T) {
	a := New(nil)
	tests := []struct {
		name string
		arm  *ast.MatchArm
		want string
	}{
		{"unbound", &ast.MatchArm{Pattern: &ast.WildcardPattern{}, Result: ident("x")}, "name 'x' is not bound by the pattern"},
		{"guard type", &ast.MatchArm{Pattern: &ast.WildcardPattern{}, Guard: intLit(1), Result: strLit("")}, "guard: expected Bool, got Int"},
		{"missing result", &ast.MatchArm{Pattern: &ast.WildcardPattern{}}, "invalid expression: missing result"},
		{"pattern", &ast.MatchArm{Pattern: typ("Missing", "m"), Result: strLit("")}, ""},
		{"nil arm", nil, "invalid pattern: arm is nil"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.CheckArm(tt.arm, NoArm)
			if err == nil {
				t.Fatal("expected an error")
			}
			if strings.HasPrefix(err.Error(), "arm ") {
				t.Errorf("got %q, want no arm index", err)
			}
			if tt.want != "" && err.Error() != tt.want {
				t.Errorf("got %q, want %q", err, tt.want)
			}
		})
	}
}

func TestFreeNames(t *testing.T) {
	expr := &ast.FormatExpression{Parts: []ast.Expression{
		strLit("a"),
		ident("b"),
		call("show", &ast.FieldAccess{Left: ident("c"), Field: "x"}),
		infix(ident("b"), "+", &ast.PrefixExpression{Operator: "-", Right: ident("a")}),
	}}
	got := FreeNames(expr)
	want := []string{"b", "c", "a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
