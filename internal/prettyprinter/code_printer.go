package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/matchkit/internal/ast"
)

// --- Code Printer (Output looks like switch arms) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3,
	"!=": 3,
	"<":  4,
	">":  4,
	"<=": 4,
	">=": 4,
	"+":  7,
	"-":  7,
	"*":  8,
	"/":  8,
	"%":  8,
}

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10 // Default high precedence for unknown ops
}

// Pattern combinator precedence: not binds tighter than and, and tighter than or.
const (
	patOr = iota + 1
	patAnd
	patNot
	patPrimary
)

type CodePrinter struct {
	buf bytes.Buffer
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

// Pattern renders a pattern with the minimal parentheses that preserve its
// tree shape.
func Pattern(pat ast.Pattern) string {
	p := NewCodePrinter()
	p.printPattern(pat, 0, false)
	return p.String()
}

// Expression renders a guard or result expression.
func Expression(expr ast.Expression) string {
	p := NewCodePrinter()
	p.printExpr(expr, 0, false)
	return p.String()
}

// Arm renders "pattern when guard => result".
func Arm(arm *ast.MatchArm) string {
	p := NewCodePrinter()
	arm.Accept(p)
	return p.String()
}

// Arms renders an arm list, one arm per line.
func Arms(arms []*ast.MatchArm) string {
	lines := make([]string, len(arms))
	for i, a := range arms {
		lines[i] = Arm(a)
	}
	return strings.Join(lines, "\n")
}

func patternPrecedence(pat ast.Pattern) int {
	switch pat.(type) {
	case *ast.OrPattern:
		return patOr
	case *ast.AndPattern:
		return patAnd
	case *ast.NotPattern:
		return patNot
	}
	return patPrimary
}

// printPattern prints a pattern, adding parentheses only if needed.
// A right operand at the same precedence is parenthesized because the tree
// groups to the left when printed without them.
func (p *CodePrinter) printPattern(pat ast.Pattern, parentPrec int, isRight bool) {
	if pat == nil {
		p.write("<???>")
		return
	}
	prec := patternPrecedence(pat)
	needParens := prec < parentPrec || (prec == parentPrec && isRight && prec != patPrimary)
	if needParens {
		p.write("(")
	}
	pat.Accept(p)
	if needParens {
		p.write(")")
	}
}

func (p *CodePrinter) VisitMatchArm(a *ast.MatchArm) {
	p.printPattern(a.Pattern, 0, false)
	if a.Guard != nil {
		p.write(" when ")
		p.printExpr(a.Guard, 0, false)
	}
	p.write(" => ")
	p.printExpr(a.Result, 0, false)
}

func (p *CodePrinter) VisitConstantPattern(pat *ast.ConstantPattern) {
	p.write(literalString(pat.Value))
}

func (p *CodePrinter) VisitRelationalPattern(pat *ast.RelationalPattern) {
	p.write(pat.Operator + " " + strconv.FormatInt(pat.Bound, 10))
}

func (p *CodePrinter) VisitAndPattern(pat *ast.AndPattern) {
	p.printPattern(pat.Left, patAnd, false)
	p.write(" and ")
	p.printPattern(pat.Right, patAnd, true)
}

func (p *CodePrinter) VisitOrPattern(pat *ast.OrPattern) {
	p.printPattern(pat.Left, patOr, false)
	p.write(" or ")
	p.printPattern(pat.Right, patOr, true)
}

func (p *CodePrinter) VisitNotPattern(pat *ast.NotPattern) {
	p.write("not ")
	switch pat.Inner.(type) {
	case *ast.ConstantPattern, *ast.TypePattern, *ast.WildcardPattern:
		p.printPattern(pat.Inner, patNot, false)
	default:
		// not (> 100) reads better than not > 100
		p.write("(")
		p.printPattern(pat.Inner, 0, false)
		p.write(")")
	}
}

func (p *CodePrinter) VisitTypePattern(pat *ast.TypePattern) {
	p.write(string(pat.Type))
	if pat.Name != "" {
		p.write(" " + pat.Name)
	}
}

func (p *CodePrinter) VisitWildcardPattern(*ast.WildcardPattern) {
	p.write("_")
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	switch e := expr.(type) {
	case *ast.InfixExpression:
		prec := getPrecedence(e.Operator)
		needParens := prec < parentPrec || (prec == parentPrec && isRight)
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.PrefixExpression:
		p.write(e.Operator)
		// Prefix has high precedence
		p.printExpr(e.Right, 100, false)
	default:
		expr.Accept(p)
	}
}

func (p *CodePrinter) VisitIdentifier(e *ast.Identifier)         { p.write(e.Value) }
func (p *CodePrinter) VisitStringLiteral(e *ast.StringLiteral)   { p.write(strconv.Quote(e.Value)) }
func (p *CodePrinter) VisitBooleanLiteral(e *ast.BooleanLiteral) { p.write(strconv.FormatBool(e.Value)) }
func (p *CodePrinter) VisitNullLiteral(*ast.NullLiteral)         { p.write("null") }

func (p *CodePrinter) VisitIntegerLiteral(e *ast.IntegerLiteral) {
	p.write(strconv.FormatInt(e.Value, 10))
}

func (p *CodePrinter) VisitPrefixExpression(e *ast.PrefixExpression) { p.printExpr(e, 0, false) }
func (p *CodePrinter) VisitInfixExpression(e *ast.InfixExpression)   { p.printExpr(e, 0, false) }

func (p *CodePrinter) VisitCallExpression(e *ast.CallExpression) {
	p.write(e.Function + "(")
	for i, a := range e.Arguments {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(a, 0, false)
	}
	p.write(")")
}

func (p *CodePrinter) VisitFieldAccess(e *ast.FieldAccess) {
	p.printExpr(e.Left, 100, false)
	p.write("." + e.Field)
}

// VisitFormatExpression prints an interpolated string: $"int {n}"
func (p *CodePrinter) VisitFormatExpression(e *ast.FormatExpression) {
	p.write(`$"`)
	for _, part := range e.Parts {
		if s, ok := part.(*ast.StringLiteral); ok {
			quoted := strconv.Quote(s.Value)
			quoted = quoted[1 : len(quoted)-1]
			quoted = strings.NewReplacer("{", "{{", "}", "}}").Replace(quoted)
			p.write(quoted)
			continue
		}
		p.write("{")
		p.printExpr(part, 0, false)
		p.write("}")
	}
	p.write(`"`)
}

func literalString(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case string:
		return strconv.Quote(x)
	case bool:
		return strconv.FormatBool(x)
	case interface{ Inspect() string }:
		return x.Inspect()
	}
	return "<???>"
}
