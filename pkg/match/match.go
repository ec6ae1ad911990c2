// Package match is the embedding API of the matchkit engine.
//
// Patterns and expressions are plain data built with the constructors in
// this package. BuildPattern and BuildArm validate them once, at
// configuration time; Evaluate then selects the first arm whose pattern
// matches a value and whose guard holds.
//
//	e := match.New(nil)
//	arms := []*match.Arm{
//		e.MustArm(match.Less(0), nil, match.Lit("negative")),
//		e.MustArm(match.And(match.GreaterEq(0), match.Less(10)), nil, match.Lit("small non-negative")),
//		e.MustArm(match.Discard(), nil, match.Lit("big")),
//	}
//	out, err := e.Evaluate(arms, match.Int(5))
package match

import (
	"github.com/funvibe/matchkit/internal/analyzer"
	"github.com/funvibe/matchkit/internal/ast"
	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/prettyprinter"
	"github.com/funvibe/matchkit/internal/typesystem"
)

type (
	Pattern    = ast.Pattern
	Expression = ast.Expression
	Arm        = ast.MatchArm
	Value      = evaluator.Object
	Tag        = typesystem.Tag
	Types      = typesystem.Hierarchy
	Outcome    = evaluator.Selection
	Step       = evaluator.Step
	Tracer     = evaluator.Tracer
)

// Errors surfaced to callers.
type (
	NoMatchError           = evaluator.NoMatchError
	EvalError              = evaluator.EvalError
	UnboundNameError       = analyzer.UnboundNameError
	InvalidPatternError    = analyzer.InvalidPatternError
	InvalidExpressionError = analyzer.InvalidExpressionError
	DuplicateBindingError  = analyzer.DuplicateBindingError
	GuardTypeError         = analyzer.GuardTypeError
	UnknownTypeError       = typesystem.UnknownTypeError
)

// Engine ties a type hierarchy to a validator and an evaluator. It holds no
// per-call state and is safe for concurrent use once its types are declared.
type Engine struct {
	types *typesystem.Hierarchy
	check *analyzer.Analyzer
	eval  *evaluator.Evaluator
}

// New returns an Engine over types; nil means builtin tags only.
func New(types *Types) *Engine {
	if types == nil {
		types = typesystem.NewHierarchy()
	}
	return &Engine{
		types: types,
		check: analyzer.New(types),
		eval:  evaluator.New(types),
	}
}

// NewTypes returns a hierarchy holding the builtin tags.
func NewTypes() *Types { return typesystem.NewHierarchy() }

// Types returns the engine's hierarchy, for declaring object tags.
func (e *Engine) Types() *Types { return e.types }

// BuildPattern validates a pattern tree and returns it unchanged.
func (e *Engine) BuildPattern(p Pattern) (Pattern, error) {
	if _, err := e.check.CheckPattern(p); err != nil {
		return nil, err
	}
	return p, nil
}

// BuildArm validates an arm: the pattern tree, and that guard and result
// only use names the pattern definitely binds. guard may be nil.
func (e *Engine) BuildArm(p Pattern, guard, result Expression) (*Arm, error) {
	arm := &Arm{Pattern: p, Guard: guard, Result: result}
	if err := e.check.CheckArm(arm, analyzer.NoArm); err != nil {
		return nil, err
	}
	return arm, nil
}

// MustArm is BuildArm for static tables; it panics on error.
func (e *Engine) MustArm(p Pattern, guard, result Expression) *Arm {
	arm, err := e.BuildArm(p, guard, result)
	if err != nil {
		panic(err)
	}
	return arm
}

// CheckArms validates an ordered arm list; errors name the failing arm's
// position.
func (e *Engine) CheckArms(arms []*Arm) error { return e.check.CheckArms(arms) }

// Evaluate returns the outcome of the first satisfied arm. It fails with
// *NoMatchError when no arm is selected, or *EvalError when a guard or
// result expression faults.
func (e *Engine) Evaluate(arms []*Arm, v Value) (*Outcome, error) {
	return e.eval.Select(arms, v)
}

// EvaluateTrace is Evaluate with a per-arm observer.
func (e *Engine) EvaluateTrace(arms []*Arm, v Value, trace Tracer) (*Outcome, error) {
	return e.eval.SelectTrace(arms, v, trace)
}

// Match tests a single pattern, exposing the matcher outcome.
func (e *Engine) Match(p Pattern, v Value) evaluator.MatchResult {
	return e.eval.Match(p, v)
}

// PatternString renders p in the notation used by error messages and the CLI.
func PatternString(p Pattern) string { return prettyprinter.Pattern(p) }

// ArmString renders "pattern when guard => result".
func ArmString(a *Arm) string { return prettyprinter.Arm(a) }

var defaultEngine = New(nil)

// BuildPattern validates p against the builtin tags.
func BuildPattern(p Pattern) (Pattern, error) { return defaultEngine.BuildPattern(p) }

// BuildArm validates an arm against the builtin tags.
func BuildArm(p Pattern, guard, result Expression) (*Arm, error) {
	return defaultEngine.BuildArm(p, guard, result)
}

// Evaluate selects among arms using the builtin tags.
func Evaluate(arms []*Arm, v Value) (*Outcome, error) { return defaultEngine.Evaluate(arms, v) }
