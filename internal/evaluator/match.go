package evaluator

import (
	"github.com/funvibe/matchkit/internal/ast"
)

// MatchOutcome is the result of testing one pattern against one value.
type MatchOutcome int

const (
	NotMatched MatchOutcome = iota
	Matched
	// TypeMismatch marks an ill-typed comparison, such as a relational
	// pattern applied to a string. It is distinct from NotMatched.
	TypeMismatch
)

func (o MatchOutcome) String() string {
	switch o {
	case Matched:
		return "matched"
	case NotMatched:
		return "not-matched"
	case TypeMismatch:
		return "type-mismatch"
	}
	return "unknown"
}

// MatchResult carries the outcome and, when Matched, the bindings introduced
// by type patterns. Bindings is nil unless something was bound.
type MatchResult struct {
	Outcome  MatchOutcome
	Bindings map[string]Object
}

var (
	notMatched   = MatchResult{Outcome: NotMatched}
	typeMismatch = MatchResult{Outcome: TypeMismatch}
	matchedEmpty = MatchResult{Outcome: Matched}
)

// Match tests pat against val. Grouping comes only from the tree shape; the
// matcher never reorders or regroups nodes.
func (e *Evaluator) Match(pat ast.Pattern, val Object) MatchResult {
	if val == nil {
		val = NULL
	}
	switch p := pat.(type) {
	case *ast.WildcardPattern:
		return matchedEmpty

	case *ast.ConstantPattern:
		lit, ok := FromLiteral(p.Value)
		if ok && ObjectsEqual(lit, val) {
			return matchedEmpty
		}
		return notMatched

	case *ast.RelationalPattern:
		intVal, ok := val.(*Integer)
		if !ok {
			return typeMismatch
		}
		if compareInts(p.Operator, intVal.Value, p.Bound) {
			return matchedEmpty
		}
		return notMatched

	case *ast.AndPattern:
		left := e.Match(p.Left, val)
		if left.Outcome != Matched {
			return left
		}
		right := e.Match(p.Right, val)
		if right.Outcome != Matched {
			return right
		}
		return MatchResult{Outcome: Matched, Bindings: mergeBindings(left.Bindings, right.Bindings)}

	case *ast.OrPattern:
		left := e.Match(p.Left, val)
		if left.Outcome == Matched {
			return left
		}
		right := e.Match(p.Right, val)
		if right.Outcome == Matched {
			return right
		}
		if left.Outcome == TypeMismatch && right.Outcome == TypeMismatch {
			return typeMismatch
		}
		return notMatched

	case *ast.NotPattern:
		inner := e.Match(p.Inner, val)
		switch inner.Outcome {
		case NotMatched:
			return matchedEmpty
		case TypeMismatch:
			return typeMismatch
		}
		return notMatched

	case *ast.TypePattern:
		if !e.Types.IsSubtype(val.RuntimeType(), p.Type) {
			return notMatched
		}
		if p.Binds() {
			return MatchResult{Outcome: Matched, Bindings: map[string]Object{p.Name: val}}
		}
		return matchedEmpty
	}
	return notMatched
}

func compareInts(op string, a, b int64) bool {
	switch op {
	case ast.OpLess:
		return a < b
	case ast.OpLessEqual:
		return a <= b
	case ast.OpGreater:
		return a > b
	case ast.OpGreaterEqual:
		return a >= b
	}
	return false
}

// mergeBindings combines two binding sets; right wins on a name collision.
func mergeBindings(left, right map[string]Object) map[string]Object {
	if len(left) == 0 {
		return right
	}
	if len(right) == 0 {
		return left
	}
	merged := make(map[string]Object, len(left)+len(right))
	for k, v := range left {
		merged[k] = v
	}
	for k, v := range right {
		merged[k] = v
	}
	return merged
}
