package main

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/matchkit/internal/evaluator"
)

const (
	ansiReset  = "\x1b[0m"
	ansiBold   = "\x1b[1m"
	ansiDim    = "\x1b[2m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
)

// colorEnabled reports whether w is a terminal that accepts ANSI colours.
func colorEnabled(w io.Writer) bool {
	// NO_COLOR convention: https://no-color.org/
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// printer writes classification output, coloured when the target is a TTY.
type printer struct {
	w     io.Writer
	color bool
}

func newPrinter(w io.Writer) *printer {
	return &printer{w: w, color: colorEnabled(w)}
}

func (p *printer) paint(code, s string) string {
	if !p.color {
		return s
	}
	return code + s + ansiReset
}

func (p *printer) selected(input evaluator.Object, arm int, result evaluator.Object) {
	fmt.Fprintf(p.w, "%s => %s %s\n",
		input.Inspect(),
		p.paint(ansiGreen+ansiBold, evaluator.Show(result)),
		p.paint(ansiDim, fmt.Sprintf("(arm %d)", arm)))
}

func (p *printer) noMatch(input evaluator.Object) {
	fmt.Fprintf(p.w, "%s => %s\n", input.Inspect(), p.paint(ansiRed, "no match"))
}

func (p *printer) step(index int, outcome string) {
	color := ansiDim
	switch outcome {
	case evaluator.StepSelected.String():
		color = ansiGreen
	case evaluator.StepGuardRejected.String(), evaluator.StepTypeMismatch.String():
		color = ansiYellow
	}
	fmt.Fprintf(p.w, "  arm %d: %s\n", index, p.paint(color, outcome))
}
