package evaluator

import (
	"strings"

	"github.com/funvibe/matchkit/internal/ast"
)

// Eval evaluates a guard or result expression against env.
func (e *Evaluator) Eval(node ast.Expression, env *Environment) (Object, error) {
	switch n := node.(type) {
	case *ast.IntegerLiteral:
		return &Integer{Value: n.Value}, nil
	case *ast.StringLiteral:
		return &String{Value: n.Value}, nil
	case *ast.BooleanLiteral:
		return nativeBoolToBooleanObject(n.Value), nil
	case *ast.NullLiteral:
		return NULL, nil

	case *ast.Identifier:
		val, ok := env.Get(n.Value)
		if !ok {
			// Arms are validated at build time, so this only happens for
			// arms assembled by hand.
			return nil, newError("identifier not bound: %s", n.Value)
		}
		return val, nil

	case *ast.PrefixExpression:
		right, err := e.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		return evalPrefixExpression(n.Operator, right)

	case *ast.InfixExpression:
		return e.evalInfixExpression(n, env)

	case *ast.CallExpression:
		args := make([]Object, 0, len(n.Arguments))
		for _, a := range n.Arguments {
			val, err := e.Eval(a, env)
			if err != nil {
				return nil, err
			}
			args = append(args, val)
		}
		fn, ok := Builtins[n.Function]
		if !ok {
			return nil, newError("unknown function: %s", n.Function)
		}
		return fn(args...)

	case *ast.FieldAccess:
		left, err := e.Eval(n.Left, env)
		if err != nil {
			return nil, err
		}
		inst, ok := left.(*Instance)
		if !ok {
			return nil, newError("cannot access field %s on %s", n.Field, left.RuntimeType())
		}
		val := inst.Get(n.Field)
		if val == nil {
			return nil, newError("%s does not have field '%s'", inst.TypeTag, n.Field)
		}
		return val, nil

	case *ast.FormatExpression:
		var out strings.Builder
		for _, part := range n.Parts {
			val, err := e.Eval(part, env)
			if err != nil {
				return nil, err
			}
			out.WriteString(Show(val))
		}
		return &String{Value: out.String()}, nil
	}
	return nil, newError("unsupported expression %T", node)
}

func evalPrefixExpression(op string, right Object) (Object, error) {
	switch op {
	case "!":
		b, ok := right.(*Boolean)
		if !ok {
			return nil, newError("operator ! expects Bool, got %s", right.RuntimeType())
		}
		return nativeBoolToBooleanObject(!b.Value), nil
	case "-":
		i, ok := right.(*Integer)
		if !ok {
			return nil, newError("operator - expects Int, got %s", right.RuntimeType())
		}
		return &Integer{Value: -i.Value}, nil
	}
	return nil, newError("unknown operator: %s%s", op, right.RuntimeType())
}

func (e *Evaluator) evalInfixExpression(n *ast.InfixExpression, env *Environment) (Object, error) {
	left, err := e.Eval(n.Left, env)
	if err != nil {
		return nil, err
	}

	// && and || short-circuit: the right side is only evaluated when needed.
	if ast.LogicalOperators[n.Operator] {
		lb, ok := left.(*Boolean)
		if !ok {
			return nil, newError("operator %s expects Bool, got %s", n.Operator, left.RuntimeType())
		}
		if n.Operator == "&&" && !lb.Value {
			return FALSE, nil
		}
		if n.Operator == "||" && lb.Value {
			return TRUE, nil
		}
		right, err := e.Eval(n.Right, env)
		if err != nil {
			return nil, err
		}
		rb, ok := right.(*Boolean)
		if !ok {
			return nil, newError("operator %s expects Bool, got %s", n.Operator, right.RuntimeType())
		}
		return rb, nil
	}

	right, err := e.Eval(n.Right, env)
	if err != nil {
		return nil, err
	}

	switch {
	case n.Operator == "==":
		return nativeBoolToBooleanObject(ObjectsEqual(left, right)), nil
	case n.Operator == "!=":
		return nativeBoolToBooleanObject(!ObjectsEqual(left, right)), nil
	}

	if n.Operator == "+" {
		_, ls := left.(*String)
		_, rs := right.(*String)
		if ls || rs {
			return &String{Value: Show(left) + Show(right)}, nil
		}
	}

	li, lok := left.(*Integer)
	ri, rok := right.(*Integer)
	if !lok || !rok {
		return nil, newError("type mismatch: %s %s %s", left.RuntimeType(), n.Operator, right.RuntimeType())
	}
	return evalIntegerInfixExpression(n.Operator, li.Value, ri.Value)
}

func evalIntegerInfixExpression(op string, a, b int64) (Object, error) {
	switch op {
	case "+":
		return &Integer{Value: a + b}, nil
	case "-":
		return &Integer{Value: a - b}, nil
	case "*":
		return &Integer{Value: a * b}, nil
	case "/":
		if b == 0 {
			return nil, newError("division by zero")
		}
		return &Integer{Value: a / b}, nil
	case "%":
		if b == 0 {
			return nil, newError("division by zero")
		}
		return &Integer{Value: a % b}, nil
	case "<", "<=", ">", ">=":
		return nativeBoolToBooleanObject(compareInts(op, a, b)), nil
	}
	return nil, newError("unknown operator: Int %s Int", op)
}
