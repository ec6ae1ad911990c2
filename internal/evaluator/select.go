package evaluator

import (
	"github.com/funvibe/matchkit/internal/ast"
)

// StepOutcome describes what happened to one inspected arm.
type StepOutcome int

const (
	StepNotMatched StepOutcome = iota
	StepTypeMismatch
	StepGuardRejected
	StepSelected
)

func (s StepOutcome) String() string {
	switch s {
	case StepNotMatched:
		return "not-matched"
	case StepTypeMismatch:
		return "type-mismatch"
	case StepGuardRejected:
		return "guard-rejected"
	case StepSelected:
		return "selected"
	}
	return "unknown"
}

// Step is reported to a Tracer once per inspected arm, in order.
type Step struct {
	Index   int
	Outcome StepOutcome
}

// Tracer observes selection. It is called synchronously.
type Tracer func(Step)

// Selection is the outcome of a successful Select.
type Selection struct {
	Index    int            // position of the selected arm
	Arm      *ast.MatchArm
	Result   Object
	Bindings map[string]Object
}

// Select returns the first arm whose pattern matches val and whose guard, if
// any, is true. Arms are inspected strictly in order and none is revisited.
func (e *Evaluator) Select(arms []*ast.MatchArm, val Object) (*Selection, error) {
	return e.SelectTrace(arms, val, nil)
}

// SelectTrace is Select with a per-arm observer; trace may be nil.
func (e *Evaluator) SelectTrace(arms []*ast.MatchArm, val Object, trace Tracer) (*Selection, error) {
	if val == nil {
		val = NULL
	}
	report := func(i int, o StepOutcome) {
		if trace != nil {
			trace(Step{Index: i, Outcome: o})
		}
	}

	for i, arm := range arms {
		res := e.Match(arm.Pattern, val)
		switch res.Outcome {
		case NotMatched:
			report(i, StepNotMatched)
			continue
		case TypeMismatch:
			// An ill-typed relational pattern fails this arm only.
			report(i, StepTypeMismatch)
			continue
		}

		env := NewEnvironmentFrom(res.Bindings)

		if arm.Guard != nil {
			guardResult, err := e.Eval(arm.Guard, env)
			if err != nil {
				return nil, withArm(err, i)
			}
			boolVal, ok := guardResult.(*Boolean)
			if !ok {
				return nil, &EvalError{Arm: i, Message: "guard must evaluate to Bool, got " + string(guardResult.RuntimeType())}
			}
			if !boolVal.Value {
				report(i, StepGuardRejected)
				continue
			}
		}

		result, err := e.Eval(arm.Result, env)
		if err != nil {
			return nil, withArm(err, i)
		}
		report(i, StepSelected)
		return &Selection{
			Index:    i,
			Arm:      arm,
			Result:   result,
			Bindings: env.GetStore(),
		}, nil
	}

	return nil, &NoMatchError{Value: val, Arms: len(arms)}
}

func withArm(err error, i int) error {
	if ee, ok := err.(*EvalError); ok && ee.Arm < 0 {
		return &EvalError{Arm: i, Message: ee.Message}
	}
	return err
}
