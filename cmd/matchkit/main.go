// Command matchkit loads rule files, classifies values against them and
// serves rule sets over gRPC.
package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/cobra"
)

// Exit codes
const (
	exitOK      = 0
	exitNoMatch = 1 // also used for rule files that fail validation
	exitUsage   = 2 // usage, I/O and network errors
)

// exitError carries the process exit code for an error returned by a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// loadFailure classifies a rule load error: unreadable files are I/O errors,
// everything else is a validation failure.
func loadFailure(err error) error {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return withCode(exitUsage, err)
	}
	return withCode(exitNoMatch, err)
}

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUsage
}

func run(args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(valueArgs(root, args))
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
	}
	return exitCode(err)
}

// valuesAnnotation marks commands whose positional arguments are values.
const valuesAnnotation = "matchkit/values"

var negativeNumber = regexp.MustCompile(`^-[0-9]`)

// valueArgs moves the positional arguments of a value-taking command behind
// "--" so that values such as -3 are not parsed as shorthand flags. Their
// order is kept.
func valueArgs(root *cobra.Command, args []string) []string {
	cmd, _, err := root.Find(args)
	if err != nil || cmd.Annotations[valuesAnnotation] == "" {
		return args
	}
	takesValue := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			f = cmd.InheritedFlags().Lookup(name)
		}
		return f != nil && f.NoOptDefVal == ""
	}

	out := make([]string, 0, len(args)+1)
	var values []string
	seenCmd := false
	for i := 0; i < len(args); i++ {
		arg := args[i]
		switch {
		case arg == "--":
			values = append(values, args[i+1:]...)
			i = len(args)
		case negativeNumber.MatchString(arg):
			values = append(values, arg)
		case strings.HasPrefix(arg, "--") && !strings.Contains(arg, "="):
			out = append(out, arg)
			if takesValue(arg[2:]) && i+1 < len(args) {
				i++
				out = append(out, args[i])
			}
		case strings.HasPrefix(arg, "-") && arg != "-":
			out = append(out, arg)
		case !seenCmd && arg == cmd.Name():
			seenCmd = true
			out = append(out, arg)
		default:
			values = append(values, arg)
		}
	}
	if len(values) == 0 {
		return out
	}
	return append(append(out, "--"), values...)
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}
