// Package ast holds the data model the engine evaluates: pattern trees,
// guard and result expressions, and match arms.
//
// Nodes are plain structs built top-down by callers (or decoded from rule
// files) and are never mutated after construction. Each composite node owns
// its children exclusively.
package ast

// Node is the base interface for all AST nodes.
type Node interface {
	Accept(v Visitor)
}

// Pattern is a Node tested structurally against a value.
type Pattern interface {
	Node
	patternNode()
}

// Expression is a Node evaluated against a binding environment.
type Expression interface {
	Node
	expressionNode()
}

// MatchArm represents a single case in a match.
// Optional Guard is evaluated after pattern match; the arm is selected only if
// the guard is true.
type MatchArm struct {
	Pattern Pattern
	Guard   Expression // nil if no guard
	Result  Expression
}

func (a *MatchArm) Accept(v Visitor) { v.VisitMatchArm(a) }

// Visitor walks AST nodes. Implementations recurse into children themselves.
type Visitor interface {
	VisitMatchArm(a *MatchArm)

	VisitConstantPattern(p *ConstantPattern)
	VisitRelationalPattern(p *RelationalPattern)
	VisitAndPattern(p *AndPattern)
	VisitOrPattern(p *OrPattern)
	VisitNotPattern(p *NotPattern)
	VisitTypePattern(p *TypePattern)
	VisitWildcardPattern(p *WildcardPattern)

	VisitIdentifier(e *Identifier)
	VisitIntegerLiteral(e *IntegerLiteral)
	VisitStringLiteral(e *StringLiteral)
	VisitBooleanLiteral(e *BooleanLiteral)
	VisitNullLiteral(e *NullLiteral)
	VisitPrefixExpression(e *PrefixExpression)
	VisitInfixExpression(e *InfixExpression)
	VisitCallExpression(e *CallExpression)
	VisitFieldAccess(e *FieldAccess)
	VisitFormatExpression(e *FormatExpression)
}
