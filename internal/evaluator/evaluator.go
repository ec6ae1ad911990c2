// Package evaluator implements the matching engine: the value model, the
// recursive pattern matcher, guard and result expression evaluation, and
// first-match-wins arm selection.
//
// An Evaluator holds no per-call state. Patterns, arms and the type
// hierarchy are read-only during evaluation, so one Evaluator may serve
// concurrent callers.
package evaluator

import "github.com/funvibe/matchkit/internal/typesystem"

type Evaluator struct {
	Types *typesystem.Hierarchy
}

// New creates an Evaluator over types. A nil hierarchy means builtins only.
func New(types *typesystem.Hierarchy) *Evaluator {
	if types == nil {
		types = typesystem.NewHierarchy()
	}
	return &Evaluator{Types: types}
}
