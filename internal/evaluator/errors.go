package evaluator

import "fmt"

// NoMatchError is returned when no arm accepts the value. The engine never
// substitutes a default; callers decide whether a missing catch-all arm is a
// configuration mistake.
type NoMatchError struct {
	Value Object
	Arms  int
}

func (e *NoMatchError) Error() string {
	return fmt.Sprintf("non-exhaustive match: no arm of %d matched value %s of type %s",
		e.Arms, e.Value.Inspect(), e.Value.RuntimeType())
}

// EvalError is a runtime fault while evaluating a guard or result expression.
type EvalError struct {
	Arm     int
	Message string
}

func (e *EvalError) Error() string {
	if e.Arm < 0 {
		return e.Message
	}
	return fmt.Sprintf("arm %d: %s", e.Arm, e.Message)
}

func newError(format string, a ...interface{}) *EvalError {
	return &EvalError{Arm: -1, Message: fmt.Sprintf(format, a...)}
}
