// Package catalog holds the demonstration decision tables: small
// classifiers built programmatically with the match builders. They back the
// `matchkit demo` command and double as end-to-end fixtures.
package catalog

import (
	"github.com/funvibe/matchkit/internal/config"
	"github.com/funvibe/matchkit/pkg/match"
)

// Demo is a named arm list plus sample inputs.
type Demo struct {
	Name   string
	Arms   []*match.Arm
	Inputs []match.Value
}

// Classify sorts integers with relational and logical patterns:
//
//	< 0            => "negative"
//	>= 0 and < 10  => "small non-negative"
//	10 or 11 or 12 => "ten-ish"
//	not (> 100)    => "not greater than 100"
//	_              => "big"
func Classify(e *match.Engine) []*match.Arm {
	return []*match.Arm{
		e.MustArm(match.Less(0), nil, match.Lit("negative")),
		e.MustArm(match.And(match.GreaterEq(0), match.Less(10)), nil, match.Lit("small non-negative")),
		e.MustArm(match.AnyOf(match.Const(10), match.Const(11), match.Const(12)), nil, match.Lit("ten-ish")),
		e.MustArm(match.Not(match.Greater(100)), nil, match.Lit("not greater than 100")),
		e.MustArm(match.Discard(), nil, match.Lit("big")),
	}
}

// TypeCheck dispatches on the runtime type, with a guard on the first arm.
func TypeCheck(e *match.Engine) []*match.Arm {
	s, n := match.Ref("s"), match.Ref("n")
	return []*match.Arm{
		e.MustArm(match.Type(match.StringType, "s"),
			match.Infix(match.Call(config.LenFuncName, s), "==", match.Lit(0)),
			match.Lit("empty string")),
		e.MustArm(match.Type(match.StringType, "s"), nil, match.Format("string '", s, "'")),
		e.MustArm(match.Type(match.IntType, "n"), nil, match.Format("int ", n)),
		e.MustArm(match.Discard(), nil, match.Lit("other")),
	}
}

// Describe combines a length-tagged string arm with a guarded int range.
func Describe(e *match.Engine) []*match.Arm {
	s, n := match.Ref("s"), match.Ref("n")
	inRange := match.Infix(
		match.Infix(n, ">=", match.Lit(1)),
		"&&",
		match.Infix(n, "<=", match.Lit(10)),
	)
	return []*match.Arm{
		e.MustArm(match.Type(match.StringType, "s"), nil, match.Format("string (", match.Call(config.LenFuncName, s), ")")),
		e.MustArm(match.Type(match.IntType, "n"), inRange, match.Lit("int between 1 and 10")),
		e.MustArm(match.Type(match.IntType, config.WildcardName), nil, match.Lit("an int")),
		e.MustArm(match.Discard(), nil, match.Lit("something else")),
	}
}

// Relational buckets integers into negative, 0..10 and the rest.
func Relational(e *match.Engine) []*match.Arm {
	return []*match.Arm{
		e.MustArm(match.Less(0), nil, match.Lit("neg")),
		e.MustArm(match.And(match.GreaterEq(0), match.LessEq(10)), nil, match.Lit("0..10")),
		e.MustArm(match.Discard(), nil, match.Lit("big")),
	}
}

// All returns every demonstration with the inputs it is usually shown with.
func All(e *match.Engine) []Demo {
	return []Demo{
		{
			Name:   "classify",
			Arms:   Classify(e),
			Inputs: []match.Value{match.Int(-3), match.Int(5), match.Int(11), match.Int(150)},
		},
		{
			Name:   "typecheck",
			Arms:   TypeCheck(e),
			Inputs: []match.Value{match.Str(""), match.Int(42)},
		},
		{
			Name:   "describe",
			Arms:   Describe(e),
			Inputs: []match.Value{match.Str("hi"), match.Int(5), match.Int(42)},
		},
		{
			Name:   "relational",
			Arms:   Relational(e),
			Inputs: []match.Value{match.Int(5), match.Int(20)},
		},
	}
}
