package ast

// Identifier refers to a name bound by the arm's pattern.
type Identifier struct {
	Value string
}

func (e *Identifier) Accept(v Visitor) { v.VisitIdentifier(e) }
func (e *Identifier) expressionNode()  {}

type IntegerLiteral struct {
	Value int64
}

func (e *IntegerLiteral) Accept(v Visitor) { v.VisitIntegerLiteral(e) }
func (e *IntegerLiteral) expressionNode()  {}

type StringLiteral struct {
	Value string
}

func (e *StringLiteral) Accept(v Visitor) { v.VisitStringLiteral(e) }
func (e *StringLiteral) expressionNode()  {}

type BooleanLiteral struct {
	Value bool
}

func (e *BooleanLiteral) Accept(v Visitor) { v.VisitBooleanLiteral(e) }
func (e *BooleanLiteral) expressionNode()  {}

type NullLiteral struct{}

func (e *NullLiteral) Accept(v Visitor) { v.VisitNullLiteral(e) }
func (e *NullLiteral) expressionNode()  {}

// PrefixExpression: !x, -x
type PrefixExpression struct {
	Operator string
	Right    Expression
}

func (e *PrefixExpression) Accept(v Visitor) { v.VisitPrefixExpression(e) }
func (e *PrefixExpression) expressionNode()  {}

// InfixExpression: a + b, a == b, a && b
type InfixExpression struct {
	Left     Expression
	Operator string
	Right    Expression
}

func (e *InfixExpression) Accept(v Visitor) { v.VisitInfixExpression(e) }
func (e *InfixExpression) expressionNode()  {}

// CallExpression calls a builtin by name: len(s)
type CallExpression struct {
	Function  string
	Arguments []Expression
}

func (e *CallExpression) Accept(v Visitor) { v.VisitCallExpression(e) }
func (e *CallExpression) expressionNode()  {}

// FieldAccess: c.radius
type FieldAccess struct {
	Left  Expression
	Field string
}

func (e *FieldAccess) Accept(v Visitor) { v.VisitFieldAccess(e) }
func (e *FieldAccess) expressionNode()  {}

// FormatExpression concatenates the shown form of each part,
// e.g. "string '" s "'" for an interpolated string.
type FormatExpression struct {
	Parts []Expression
}

func (e *FormatExpression) Accept(v Visitor) { v.VisitFormatExpression(e) }
func (e *FormatExpression) expressionNode()  {}

// Operator sets understood by the evaluator and analyzer.
var (
	PrefixOperators     = map[string]bool{"!": true, "-": true}
	ArithmeticOperators = map[string]bool{"+": true, "-": true, "*": true, "/": true, "%": true}
	ComparisonOperators = map[string]bool{"<": true, "<=": true, ">": true, ">=": true}
	EqualityOperators   = map[string]bool{"==": true, "!=": true}
	LogicalOperators    = map[string]bool{"&&": true, "||": true}
)
