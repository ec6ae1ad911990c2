// Package analyzer validates patterns and arms at construction time.
//
// Everything that can be decided without a value is decided here: malformed
// trees, unknown type tags, names bound twice, names used but never bound,
// and guards that cannot produce a Bool. An arm that passes CheckArm can
// still fail at evaluation time only through genuine runtime faults such as
// division by zero.
package analyzer

import (
	"fmt"
	"sort"

	"github.com/funvibe/matchkit/internal/ast"
	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/typesystem"
)

type Analyzer struct {
	Types *typesystem.Hierarchy
}

func New(types *typesystem.Hierarchy) *Analyzer {
	if types == nil {
		types = typesystem.NewHierarchy()
	}
	return &Analyzer{Types: types}
}

// Scope maps each definitely-bound name to the tag it is narrowed to.
type Scope map[string]typesystem.Tag

// Names returns the bound names in sorted order.
func (s Scope) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CheckPattern validates a pattern tree and returns the names it binds on
// every successful match path.
//
// Names bound under a NotPattern are never available: a negation only
// matches when its inner pattern did not. Names bound on one side of an
// OrPattern only are not definitely bound and are dropped.
func (a *Analyzer) CheckPattern(pat ast.Pattern) (Scope, error) {
	switch p := pat.(type) {
	case nil:
		return nil, &InvalidPatternError{Reason: "missing pattern"}

	case *ast.WildcardPattern:
		return Scope{}, nil

	case *ast.ConstantPattern:
		if _, ok := evaluator.FromLiteral(p.Value); !ok {
			return nil, &InvalidPatternError{Reason: fmt.Sprintf("unsupported constant %T", p.Value)}
		}
		return Scope{}, nil

	case *ast.RelationalPattern:
		if !ast.IsRelationalOperator(p.Operator) {
			return nil, &InvalidPatternError{Reason: fmt.Sprintf("unknown relational operator %q", p.Operator)}
		}
		return Scope{}, nil

	case *ast.AndPattern:
		if p.Left == nil || p.Right == nil {
			return nil, &InvalidPatternError{Reason: "and pattern needs two operands"}
		}
		left, err := a.CheckPattern(p.Left)
		if err != nil {
			return nil, err
		}
		right, err := a.CheckPattern(p.Right)
		if err != nil {
			return nil, err
		}
		for name, tag := range right {
			if _, dup := left[name]; dup {
				return nil, &DuplicateBindingError{Name: name}
			}
			left[name] = tag
		}
		return left, nil

	case *ast.OrPattern:
		if p.Left == nil || p.Right == nil {
			return nil, &InvalidPatternError{Reason: "or pattern needs two operands"}
		}
		left, err := a.CheckPattern(p.Left)
		if err != nil {
			return nil, err
		}
		right, err := a.CheckPattern(p.Right)
		if err != nil {
			return nil, err
		}
		both := Scope{}
		for name, lt := range left {
			rt, ok := right[name]
			if !ok {
				continue
			}
			if lt == rt {
				both[name] = lt
			} else {
				both[name] = typesystem.Any
			}
		}
		return both, nil

	case *ast.NotPattern:
		if p.Inner == nil {
			return nil, &InvalidPatternError{Reason: "not pattern needs an operand"}
		}
		if _, err := a.CheckPattern(p.Inner); err != nil {
			return nil, err
		}
		return Scope{}, nil

	case *ast.TypePattern:
		if !a.Types.Has(p.Type) {
			return nil, typesystem.NewUnknownTypeError(p.Type)
		}
		if p.Binds() {
			return Scope{p.Name: p.Type}, nil
		}
		return Scope{}, nil
	}
	return nil, &InvalidPatternError{Reason: fmt.Sprintf("unsupported pattern %T", pat)}
}

// CheckArm validates a whole arm. index is used in error messages only;
// pass NoArm for an arm that is not part of a list.
func (a *Analyzer) CheckArm(arm *ast.MatchArm, index int) error {
	if arm == nil {
		if index < 0 {
			return &InvalidPatternError{Reason: "arm is nil"}
		}
		return &InvalidPatternError{Reason: fmt.Sprintf("arm %d is nil", index)}
	}
	scope, err := a.CheckPattern(arm.Pattern)
	if err != nil {
		if index < 0 {
			return err
		}
		return fmt.Errorf("arm %d: %w", index, err)
	}
	if arm.Result == nil {
		return &InvalidExpressionError{Arm: index, Reason: "missing result"}
	}

	// Unbound names are reported before type errors so the message points at
	// the configuration mistake rather than its consequence.
	for _, expr := range []ast.Expression{arm.Guard, arm.Result} {
		if expr == nil {
			continue
		}
		for _, name := range FreeNames(expr) {
			if _, ok := scope[name]; !ok {
				return &UnboundNameError{Name: name, Arm: index}
			}
		}
	}

	ti := &typeInferrer{arm: index, scope: scope}
	if arm.Guard != nil {
		tag, err := ti.infer(arm.Guard)
		if err != nil {
			return err
		}
		if tag != unknown && tag != typesystem.Bool {
			return &GuardTypeError{Arm: index, Expected: typesystem.Bool, Got: tag, Context: "guard"}
		}
	}
	if _, err := ti.infer(arm.Result); err != nil {
		return err
	}
	return nil
}

// CheckArms validates arms in order and stops at the first error.
func (a *Analyzer) CheckArms(arms []*ast.MatchArm) error {
	for i, arm := range arms {
		if err := a.CheckArm(arm, i); err != nil {
			return err
		}
	}
	return nil
}
