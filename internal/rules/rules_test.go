package rules

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/pkg/match"
)

const shapesYAML = `
types:
  - name: Circle
    parents: [Shape]
  - name: Shape
rulesets:
  - name: classify
    description: integers by magnitude
    arms:
      - pattern: {rel: "<", value: 0}
        result: negative
      - pattern: {and: [{rel: ">=", value: 0}, {rel: "<", value: 10}]}
        result: small non-negative
      - pattern: {or: [{const: 10}, {const: 11}, {const: 12}]}
        result: ten-ish
      - pattern: {not: {rel: ">", value: 100}}
        result: not greater than 100
      - pattern: _
        result: big
  - name: typecheck
    arms:
      - pattern: {type: String, bind: s}
        when: {op: "==", left: {call: len, args: [{ref: s}]}, right: 0}
        result: empty string
      - pattern: {type: String, bind: s}
        result: {format: ["string '", {ref: s}, "'"]}
      - pattern: {type: Int, bind: n}
        result: {format: ["int ", {ref: n}]}
      - pattern: {type: Circle, bind: c}
        when: {op: ">", left: {field: radius, of: {ref: c}}, right: 10}
        result: {op: "+", left: "large ", right: {call: typeOf, args: [{ref: c}]}}
      - pattern: {type: Shape}
        result: some shape
      - pattern: discard
        result: other
`

func mustCompile(t *testing.T, doc string) *RuleBook {
	t.Helper()
	f, err := Parse([]byte(doc), "test.yaml")
	require.NoError(t, err)
	book, err := Compile(f, "test.yaml")
	require.NoError(t, err)
	return book
}

func classify(t *testing.T, book *RuleBook, set, value string) string {
	t.Helper()
	v, err := book.ParseValue(value)
	require.NoError(t, err)
	out, err := book.Classify(set, v)
	require.NoError(t, err)
	return evaluator.Show(out.Result)
}

func TestCompileAndClassify(t *testing.T) {
	book := mustCompile(t, shapesYAML)
	assert.Equal(t, []string{"classify", "typecheck"}, book.Names())

	cases := []struct {
		set, in, want string
	}{
		{"classify", "-3", "negative"},
		{"classify", "5", "small non-negative"},
		{"classify", "11", "ten-ish"},
		{"classify", "50", "not greater than 100"},
		{"classify", "150", "big"},
		{"typecheck", `""`, "empty string"},
		{"typecheck", "abc", "string 'abc'"},
		{"typecheck", "42", "int 42"},
		{"typecheck", "{$type: Circle, radius: 12}", "large Circle"},
		{"typecheck", "{$type: Circle, radius: 1}", "some shape"},
		{"typecheck", "{$type: Shape}", "some shape"},
		{"typecheck", "true", "other"},
		{"typecheck", "~", "other"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, classify(t, book, tc.set, tc.in), "%s(%s)", tc.set, tc.in)
	}

	set, ok := book.Set("classify")
	require.True(t, ok)
	assert.Equal(t, "integers by magnitude", set.Description)
	assert.Len(t, set.Arms, 5)
}

func TestClassifyErrors(t *testing.T) {
	book := mustCompile(t, shapesYAML)

	_, err := book.Classify("missing", match.Int(1))
	var unknown *UnknownRuleSetError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing", unknown.Name)

	book = mustCompile(t, `
rulesets:
  - name: partial
    arms:
      - pattern: {rel: "<", value: 0}
        result: negative
`)
	_, err = book.Classify("partial", match.Int(3))
	var noMatch *match.NoMatchError
	require.ErrorAs(t, err, &noMatch)
}

func TestParseValidation(t *testing.T) {
	cases := []struct {
		name, doc, want string
	}{
		{"no rulesets", "types: []", "no rulesets defined"},
		{"unnamed set", "rulesets: [{arms: [{pattern: _, result: x}]}]", "rulesets[0]: name is required"},
		{"duplicate set", "rulesets: [{name: a, arms: [{pattern: _, result: x}]}, {name: a, arms: [{pattern: _, result: x}]}]", `ruleset "a" defined twice`},
		{"no arms", "rulesets: [{name: a, arms: []}]", "no arms defined"},
		{"missing result", "rulesets: [{name: a, arms: [{pattern: _}]}]", "arms[0]: result is required"},
		{"duplicate type", "types: [{name: A}, {name: A}]\nrulesets: [{name: a, arms: [{pattern: _, result: x}]}]", `type "A" declared twice`},
		{"bad yaml", "rulesets: [", "parsing test.yaml"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc), "test.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestCompileNodeErrors(t *testing.T) {
	cases := []struct {
		name, pattern, want string
	}{
		{"two kinds", `{rel: "<", value: 0, not: _}`, "more than one kind"},
		{"unknown key", `{type: Int, name: n}`, `unexpected key "name"`},
		{"no kind", `{foo: 1}`, "pattern map needs one of"},
		{"bad operator", `{rel: "==", value: 0}`, "unknown relational operator"},
		{"rel needs int", `{rel: "<", value: abc}`, "expected an integer"},
		{"single and", `{and: [_]}`, "at least two patterns"},
		{"scalar constant", `10`, "use {const: ...}"},
		{"object without tag", `{const: {radius: 1}}`, "needs a $type key"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			doc := "rulesets:\n  - name: s\n    arms:\n      - pattern: " + tc.pattern + "\n        result: x\n"
			f, err := Parse([]byte(doc), "test.yaml")
			require.NoError(t, err)
			_, err = Compile(f, "test.yaml")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)

			var nodeErr *NodeError
			require.ErrorAs(t, err, &nodeErr)
			assert.Equal(t, 4, nodeErr.Line)
			assert.Contains(t, nodeErr.Path, "rulesets[0].arms[0].pattern")
		})
	}
}

func TestCompileRunsAnalyzer(t *testing.T) {
	doc := `
rulesets:
  - name: s
    arms:
      - pattern: _
        result: fine
      - pattern: {not: {type: String, bind: s}}
        result: {ref: s}
`
	f, err := Parse([]byte(doc), "test.yaml")
	require.NoError(t, err)
	_, err = Compile(f, "test.yaml")

	var unbound *match.UnboundNameError
	require.ErrorAs(t, err, &unbound)
	assert.Equal(t, "s", unbound.Name)
	assert.Equal(t, 1, unbound.Arm)
	assert.Contains(t, err.Error(), "rulesets[0] (s)")
}

func TestCompileTypeErrors(t *testing.T) {
	cycle := "types: [{name: A, parents: [B]}, {name: B, parents: [A]}]\nrulesets: [{name: a, arms: [{pattern: _, result: x}]}]"
	f, err := Parse([]byte(cycle), "test.yaml")
	require.NoError(t, err)
	_, err = Compile(f, "test.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cycle")

	unknownTag := "rulesets: [{name: a, arms: [{pattern: {type: Square}, result: x}]}]"
	f, err = Parse([]byte(unknownTag), "test.yaml")
	require.NoError(t, err)
	_, err = Compile(f, "test.yaml")
	var ute *match.UnknownTypeError
	require.ErrorAs(t, err, &ute)
}

func TestParseValue(t *testing.T) {
	book := mustCompile(t, shapesYAML)

	v, err := book.ParseValue("42")
	require.NoError(t, err)
	assert.True(t, evaluator.ObjectsEqual(match.Int(42), v))

	v, err = book.ParseValue(`"42"`)
	require.NoError(t, err)
	assert.True(t, evaluator.ObjectsEqual(match.Str("42"), v))

	v, err = book.ParseValue("")
	require.NoError(t, err)
	assert.Equal(t, match.Null(), v)

	v, err = book.ParseValue("{$type: Circle, radius: 3, label: {$type: Shape}}")
	require.NoError(t, err)
	want := match.Object("Circle", map[string]match.Value{
		"radius": match.Int(3),
		"label":  match.Object("Shape", nil),
	})
	assert.True(t, evaluator.ObjectsEqual(want, v), "got %s", v.Inspect())

	for _, bad := range []string{"{$type: Square}", "{$type: Int}", "[1, 2]", "1.5"} {
		_, err := book.ParseValue(bad)
		assert.Error(t, err, bad)
	}
}

func writeRules(t *testing.T, path, doc string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
}

func TestRegistryReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, shapesYAML)

	reg := NewRegistry(path, nil)
	assert.Nil(t, reg.Book())
	require.NoError(t, reg.Reload())
	first := reg.Book()
	require.NotNil(t, first)
	assert.Equal(t, uint64(1), reg.Generation())

	writeRules(t, path, "rulesets: [{name: broken, arms: [{pattern: {type: Nope}, result: x}]}]")
	require.Error(t, reg.Reload())
	assert.Same(t, first, reg.Book(), "failed reload must keep the previous book")
	assert.Equal(t, uint64(1), reg.Generation())

	require.NoError(t, os.Remove(path))
	require.Error(t, reg.Reload())
	assert.Same(t, first, reg.Book())
}

func TestLoadRejectsExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.json")
	writeRules(t, path, shapesYAML)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported rule file extension")
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	writeRules(t, path, shapesYAML)
	reg := NewRegistry(path, nil)
	require.NoError(t, reg.Reload())

	w, err := NewWatcher(reg, nil)
	require.NoError(t, err)
	defer w.Stop()
	w.Debounce = 20 * time.Millisecond
	results := make(chan error, 4)
	w.OnReload = func(err error) { results <- err }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Start(ctx) }()

	// Give the watcher a moment to register the directory.
	time.Sleep(50 * time.Millisecond)
	writeRules(t, path, "rulesets: [{name: replaced, arms: [{pattern: _, result: x}]}]")

	select {
	case err := <-results:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
	assert.Equal(t, []string{"replaced"}, reg.Book().Names())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
