package analyzer

import "github.com/funvibe/matchkit/internal/ast"

// FreeNames returns the identifiers an expression refers to, in order of
// first appearance.
func FreeNames(expr ast.Expression) []string {
	c := &nameCollector{seen: make(map[string]bool)}
	if expr != nil {
		expr.Accept(c)
	}
	return c.names
}

type nameCollector struct {
	names []string
	seen  map[string]bool
}

func (c *nameCollector) VisitIdentifier(e *ast.Identifier) {
	if !c.seen[e.Value] {
		c.seen[e.Value] = true
		c.names = append(c.names, e.Value)
	}
}

func (c *nameCollector) VisitPrefixExpression(e *ast.PrefixExpression) {
	if e.Right != nil {
		e.Right.Accept(c)
	}
}

func (c *nameCollector) VisitInfixExpression(e *ast.InfixExpression) {
	if e.Left != nil {
		e.Left.Accept(c)
	}
	if e.Right != nil {
		e.Right.Accept(c)
	}
}

func (c *nameCollector) VisitCallExpression(e *ast.CallExpression) {
	for _, a := range e.Arguments {
		if a != nil {
			a.Accept(c)
		}
	}
}

func (c *nameCollector) VisitFieldAccess(e *ast.FieldAccess) {
	if e.Left != nil {
		e.Left.Accept(c)
	}
}

func (c *nameCollector) VisitFormatExpression(e *ast.FormatExpression) {
	for _, p := range e.Parts {
		if p != nil {
			p.Accept(c)
		}
	}
}

func (c *nameCollector) VisitMatchArm(a *ast.MatchArm) {
	if a.Guard != nil {
		a.Guard.Accept(c)
	}
	if a.Result != nil {
		a.Result.Accept(c)
	}
}

func (c *nameCollector) VisitIntegerLiteral(*ast.IntegerLiteral)       {}
func (c *nameCollector) VisitStringLiteral(*ast.StringLiteral)         {}
func (c *nameCollector) VisitBooleanLiteral(*ast.BooleanLiteral)       {}
func (c *nameCollector) VisitNullLiteral(*ast.NullLiteral)             {}
func (c *nameCollector) VisitConstantPattern(*ast.ConstantPattern)     {}
func (c *nameCollector) VisitRelationalPattern(*ast.RelationalPattern) {}
func (c *nameCollector) VisitAndPattern(*ast.AndPattern)               {}
func (c *nameCollector) VisitOrPattern(*ast.OrPattern)                 {}
func (c *nameCollector) VisitNotPattern(*ast.NotPattern)               {}
func (c *nameCollector) VisitTypePattern(*ast.TypePattern)             {}
func (c *nameCollector) VisitWildcardPattern(*ast.WildcardPattern)     {}
