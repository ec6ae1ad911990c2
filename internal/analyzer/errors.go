package analyzer

import (
	"fmt"

	"github.com/funvibe/matchkit/internal/typesystem"
)

// NoArm is the arm index of an arm validated on its own, outside a list.
// Errors for it carry no "arm N:" prefix.
const NoArm = -1

func armPrefix(index int) string {
	if index < 0 {
		return ""
	}
	return fmt.Sprintf("arm %d: ", index)
}

// UnboundNameError is raised when a guard or result refers to a name that
// the arm's pattern does not definitely bind.
type UnboundNameError struct {
	Name string
	Arm  int
}

func (e *UnboundNameError) Error() string {
	return fmt.Sprintf("%sname '%s' is not bound by the pattern", armPrefix(e.Arm), e.Name)
}

// InvalidPatternError reports a structurally malformed pattern tree.
type InvalidPatternError struct {
	Reason string
}

func (e *InvalidPatternError) Error() string {
	return "invalid pattern: " + e.Reason
}

// DuplicateBindingError reports a name bound twice along one match path,
// e.g. (String s) and (String s).
type DuplicateBindingError struct {
	Name string
}

func (e *DuplicateBindingError) Error() string {
	return fmt.Sprintf("name '%s' is bound more than once in the pattern", e.Name)
}

// InvalidExpressionError reports a malformed guard or result expression.
type InvalidExpressionError struct {
	Arm    int
	Reason string
}

func (e *InvalidExpressionError) Error() string {
	return fmt.Sprintf("%sinvalid expression: %s", armPrefix(e.Arm), e.Reason)
}

// GuardTypeError reports an expression whose operands have a known type
// incompatible with its operator, or a guard that is not Bool.
type GuardTypeError struct {
	Arm      int
	Expected typesystem.Tag
	Got      typesystem.Tag
	Context  string
}

func (e *GuardTypeError) Error() string {
	return fmt.Sprintf("%s%s: expected %s, got %s", armPrefix(e.Arm), e.Context, e.Expected, e.Got)
}
