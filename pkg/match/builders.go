package match

import (
	"github.com/funvibe/matchkit/internal/ast"
	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/typesystem"
)

// Builtin tags
const (
	AnyType    = typesystem.Any
	IntType    = typesystem.Int
	StringType = typesystem.String
	BoolType   = typesystem.Bool
)

// --- Values ---

func Int(n int64) Value  { return &evaluator.Integer{Value: n} }
func Str(s string) Value { return &evaluator.String{Value: s} }
func Bool(b bool) Value  { return &evaluator.Boolean{Value: b} }
func Null() Value        { return evaluator.NULL }
func Object(tag Tag, fields map[string]Value) Value {
	return evaluator.NewInstance(tag, fields)
}

// --- Patterns ---

// Const matches by value equality. v is an int64, int, string, bool, nil or a Value.
func Const(v interface{}) Pattern { return &ast.ConstantPattern{Value: v} }

func Less(n int64) Pattern      { return &ast.RelationalPattern{Operator: ast.OpLess, Bound: n} }
func LessEq(n int64) Pattern    { return &ast.RelationalPattern{Operator: ast.OpLessEqual, Bound: n} }
func Greater(n int64) Pattern   { return &ast.RelationalPattern{Operator: ast.OpGreater, Bound: n} }
func GreaterEq(n int64) Pattern { return &ast.RelationalPattern{Operator: ast.OpGreaterEqual, Bound: n} }

func And(l, r Pattern) Pattern { return &ast.AndPattern{Left: l, Right: r} }
func Or(l, r Pattern) Pattern  { return &ast.OrPattern{Left: l, Right: r} }
func Not(p Pattern) Pattern    { return &ast.NotPattern{Inner: p} }

// AnyOf folds alternatives to the left: AnyOf(a, b, c) is (a or b) or c.
func AnyOf(first Pattern, rest ...Pattern) Pattern {
	p := first
	for _, r := range rest {
		p = Or(p, r)
	}
	return p
}

// Type matches values whose tag is t or a subtype, binding them to name
// unless name is empty.
func Type(t Tag, name string) Pattern { return &ast.TypePattern{Type: t, Name: name} }

func Discard() Pattern { return &ast.WildcardPattern{} }

// --- Expressions ---

func Ref(name string) Expression { return &ast.Identifier{Value: name} }

// Lit builds a literal expression from an int64, int, string, bool or nil.
func Lit(v interface{}) Expression {
	switch x := v.(type) {
	case int64:
		return &ast.IntegerLiteral{Value: x}
	case int:
		return &ast.IntegerLiteral{Value: int64(x)}
	case string:
		return &ast.StringLiteral{Value: x}
	case bool:
		return &ast.BooleanLiteral{Value: x}
	case nil:
		return &ast.NullLiteral{}
	}
	panic("match.Lit: unsupported literal type")
}

func Infix(left Expression, op string, right Expression) Expression {
	return &ast.InfixExpression{Left: left, Operator: op, Right: right}
}

func Prefix(op string, right Expression) Expression {
	return &ast.PrefixExpression{Operator: op, Right: right}
}

func Call(fn string, args ...Expression) Expression {
	return &ast.CallExpression{Function: fn, Arguments: args}
}

func Field(left Expression, name string) Expression {
	return &ast.FieldAccess{Left: left, Field: name}
}

// Format concatenates parts; string arguments become literals.
func Format(parts ...interface{}) Expression {
	exprs := make([]ast.Expression, 0, len(parts))
	for _, p := range parts {
		if e, ok := p.(Expression); ok {
			exprs = append(exprs, e)
			continue
		}
		exprs = append(exprs, Lit(p))
	}
	return &ast.FormatExpression{Parts: exprs}
}
