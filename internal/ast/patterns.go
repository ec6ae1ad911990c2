package ast

import "github.com/funvibe/matchkit/internal/typesystem"

// Relational operators
const (
	OpLess         = "<"
	OpLessEqual    = "<="
	OpGreater      = ">"
	OpGreaterEqual = ">="
)

// IsRelationalOperator reports whether op can appear in a RelationalPattern.
func IsRelationalOperator(op string) bool {
	switch op {
	case OpLess, OpLessEqual, OpGreater, OpGreaterEqual:
		return true
	}
	return false
}

// ConstantPattern: 10, "abc", true, null
// Value is an int64, string, bool, or nil for null.
type ConstantPattern struct {
	Value interface{}
}

func (p *ConstantPattern) Accept(v Visitor) { v.VisitConstantPattern(p) }
func (p *ConstantPattern) patternNode()     {}

// RelationalPattern: < 0, >= 10
type RelationalPattern struct {
	Operator string
	Bound    int64
}

func (p *RelationalPattern) Accept(v Visitor) { v.VisitRelationalPattern(p) }
func (p *RelationalPattern) patternNode()     {}

// AndPattern: p1 and p2
type AndPattern struct {
	Left  Pattern
	Right Pattern
}

func (p *AndPattern) Accept(v Visitor) { v.VisitAndPattern(p) }
func (p *AndPattern) patternNode()     {}

// OrPattern: p1 or p2
type OrPattern struct {
	Left  Pattern
	Right Pattern
}

func (p *OrPattern) Accept(v Visitor) { v.VisitOrPattern(p) }
func (p *OrPattern) patternNode()     {}

// NotPattern: not p
type NotPattern struct {
	Inner Pattern
}

func (p *NotPattern) Accept(v Visitor) { v.VisitNotPattern(p) }
func (p *NotPattern) patternNode()     {}

// TypePattern: String s (matches if value has type String or a subtype, binds to s)
type TypePattern struct {
	Type typesystem.Tag
	Name string // Binding name, "" or "_" binds nothing
}

// Binds reports whether the pattern introduces a name.
func (p *TypePattern) Binds() bool { return p.Name != "" && p.Name != "_" }

func (p *TypePattern) Accept(v Visitor) { v.VisitTypePattern(p) }
func (p *TypePattern) patternNode()     {}

// WildcardPattern: _
type WildcardPattern struct{}

func (p *WildcardPattern) Accept(v Visitor) { v.VisitWildcardPattern(p) }
func (p *WildcardPattern) patternNode()     {}
