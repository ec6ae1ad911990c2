package analyzer

import (
	"fmt"

	"github.com/funvibe/matchkit/internal/ast"
	"github.com/funvibe/matchkit/internal/config"
	"github.com/funvibe/matchkit/internal/typesystem"
)

// unknown is the tag of an expression whose type depends on the value.
const unknown typesystem.Tag = ""

type builtinSignature struct {
	params []typesystem.Tag // unknown accepts anything
	result typesystem.Tag
}

var builtinSignatures = map[string]builtinSignature{
	config.LenFuncName:    {params: []typesystem.Tag{typesystem.String}, result: typesystem.Int},
	config.ShowFuncName:   {params: []typesystem.Tag{unknown}, result: typesystem.String},
	config.TypeOfFuncName: {params: []typesystem.Tag{unknown}, result: typesystem.String},
}

// typeInferrer computes a best-effort static tag for expressions. Anything
// that cannot be known statically is unknown and checked at run time.
type typeInferrer struct {
	arm   int
	scope Scope
}

func isPrimitive(tag typesystem.Tag) bool {
	switch tag {
	case typesystem.Int, typesystem.String, typesystem.Bool, typesystem.Null:
		return true
	}
	return false
}

func (ti *typeInferrer) expect(got, want typesystem.Tag, context string) error {
	if got != unknown && got != want {
		return &GuardTypeError{Arm: ti.arm, Expected: want, Got: got, Context: context}
	}
	return nil
}

func (ti *typeInferrer) invalid(format string, a ...interface{}) error {
	return &InvalidExpressionError{Arm: ti.arm, Reason: fmt.Sprintf(format, a...)}
}

func (ti *typeInferrer) infer(expr ast.Expression) (typesystem.Tag, error) {
	switch e := expr.(type) {
	case nil:
		return unknown, ti.invalid("missing operand")
	case *ast.IntegerLiteral:
		return typesystem.Int, nil
	case *ast.StringLiteral:
		return typesystem.String, nil
	case *ast.BooleanLiteral:
		return typesystem.Bool, nil
	case *ast.NullLiteral:
		return typesystem.Null, nil

	case *ast.Identifier:
		tag := ti.scope[e.Value]
		if tag == typesystem.Any {
			return unknown, nil
		}
		return tag, nil

	case *ast.PrefixExpression:
		if !ast.PrefixOperators[e.Operator] {
			return unknown, ti.invalid("unknown prefix operator %q", e.Operator)
		}
		right, err := ti.infer(e.Right)
		if err != nil {
			return unknown, err
		}
		want := typesystem.Int
		if e.Operator == "!" {
			want = typesystem.Bool
		}
		if err := ti.expect(right, want, "operand of "+e.Operator); err != nil {
			return unknown, err
		}
		return want, nil

	case *ast.InfixExpression:
		return ti.inferInfix(e)

	case *ast.CallExpression:
		sig, ok := builtinSignatures[e.Function]
		if !ok {
			return unknown, ti.invalid("unknown function %q", e.Function)
		}
		if len(e.Arguments) != len(sig.params) {
			return unknown, ti.invalid("%s expects %d argument(s), got %d", e.Function, len(sig.params), len(e.Arguments))
		}
		for i, arg := range e.Arguments {
			tag, err := ti.infer(arg)
			if err != nil {
				return unknown, err
			}
			if sig.params[i] == unknown {
				continue
			}
			if err := ti.expect(tag, sig.params[i], fmt.Sprintf("argument %d of %s", i+1, e.Function)); err != nil {
				return unknown, err
			}
		}
		return sig.result, nil

	case *ast.FieldAccess:
		if e.Field == "" {
			return unknown, ti.invalid("field access without a field name")
		}
		left, err := ti.infer(e.Left)
		if err != nil {
			return unknown, err
		}
		if isPrimitive(left) {
			return unknown, &GuardTypeError{Arm: ti.arm, Expected: typesystem.Any, Got: left, Context: "field access ." + e.Field}
		}
		return unknown, nil

	case *ast.FormatExpression:
		for _, part := range e.Parts {
			if _, err := ti.infer(part); err != nil {
				return unknown, err
			}
		}
		return typesystem.String, nil
	}
	return unknown, ti.invalid("unsupported expression %T", expr)
}

func (ti *typeInferrer) inferInfix(e *ast.InfixExpression) (typesystem.Tag, error) {
	left, err := ti.infer(e.Left)
	if err != nil {
		return unknown, err
	}
	right, err := ti.infer(e.Right)
	if err != nil {
		return unknown, err
	}
	context := "operand of " + e.Operator

	switch {
	case ast.LogicalOperators[e.Operator]:
		if err := ti.expect(left, typesystem.Bool, context); err != nil {
			return unknown, err
		}
		if err := ti.expect(right, typesystem.Bool, context); err != nil {
			return unknown, err
		}
		return typesystem.Bool, nil

	case ast.EqualityOperators[e.Operator]:
		return typesystem.Bool, nil

	case ast.ComparisonOperators[e.Operator]:
		if err := ti.expect(left, typesystem.Int, context); err != nil {
			return unknown, err
		}
		if err := ti.expect(right, typesystem.Int, context); err != nil {
			return unknown, err
		}
		return typesystem.Bool, nil

	case ast.ArithmeticOperators[e.Operator]:
		if e.Operator == "+" {
			if left == typesystem.String || right == typesystem.String {
				return typesystem.String, nil
			}
			if left == unknown || right == unknown {
				return unknown, nil
			}
		}
		if err := ti.expect(left, typesystem.Int, context); err != nil {
			return unknown, err
		}
		if err := ti.expect(right, typesystem.Int, context); err != nil {
			return unknown, err
		}
		return typesystem.Int, nil
	}
	return unknown, ti.invalid("unknown infix operator %q", e.Operator)
}
