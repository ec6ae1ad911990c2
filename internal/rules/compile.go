package rules

import (
	"fmt"
	"sort"
	"time"

	"github.com/funvibe/matchkit/internal/typesystem"
	"github.com/funvibe/matchkit/pkg/match"
)

// UnknownRuleSetError is returned when a caller names a rule set the book
// does not hold.
type UnknownRuleSetError struct {
	Name string
}

func (e *UnknownRuleSetError) Error() string {
	return fmt.Sprintf("unknown ruleset: %s", e.Name)
}

// CompiledSet is a validated, read-only arm list.
type CompiledSet struct {
	Name        string
	Description string
	Arms        []*match.Arm
}

// RuleBook is the compiled form of a rule file. It is immutable and safe
// for concurrent classification.
type RuleBook struct {
	Source   string
	LoadedAt time.Time

	engine *match.Engine
	sets   map[string]*CompiledSet
	names  []string
}

// Compile declares the file's types and builds every arm through the
// analyzer. source is used in error messages and recorded on the book.
func Compile(f *File, source string) (*RuleBook, error) {
	types := match.NewTypes()
	decls := make([]typesystem.Decl, len(f.Types))
	for i, t := range f.Types {
		decls[i] = typesystem.Decl{Name: typesystem.Tag(t.Name)}
		for _, p := range t.Parents {
			decls[i].Parents = append(decls[i].Parents, typesystem.Tag(p))
		}
	}
	if err := types.DeclareAll(decls); err != nil {
		return nil, fmt.Errorf("%s: types: %w", source, err)
	}

	book := &RuleBook{
		Source:   source,
		LoadedAt: time.Now(),
		engine:   match.New(types),
		sets:     make(map[string]*CompiledSet, len(f.RuleSets)),
	}
	d := &decoder{types: types}

	for i, rs := range f.RuleSets {
		set := &CompiledSet{Name: rs.Name, Description: rs.Description}
		for j := range rs.Arms {
			spec := &rs.Arms[j]
			path := fmt.Sprintf("rulesets[%d].arms[%d]", i, j)

			arm := &match.Arm{}
			var err error
			if arm.Pattern, err = d.pattern(&spec.Pattern, path+".pattern"); err != nil {
				return nil, fmt.Errorf("%s: %w", source, err)
			}
			if spec.HasGuard() {
				if arm.Guard, err = d.expression(&spec.When, path+".when"); err != nil {
					return nil, fmt.Errorf("%s: %w", source, err)
				}
			}
			if arm.Result, err = d.expression(&spec.Result, path+".result"); err != nil {
				return nil, fmt.Errorf("%s: %w", source, err)
			}
			set.Arms = append(set.Arms, arm)
		}
		if err := book.engine.CheckArms(set.Arms); err != nil {
			return nil, fmt.Errorf("%s: rulesets[%d] (%s): %w", source, i, rs.Name, err)
		}
		book.sets[rs.Name] = set
		book.names = append(book.names, rs.Name)
	}
	sort.Strings(book.names)
	return book, nil
}

// Load parses and compiles a rule file in one step.
func Load(path string) (*RuleBook, error) {
	f, err := ParseFile(path)
	if err != nil {
		return nil, err
	}
	return Compile(f, path)
}

// Engine returns the engine the book's arms were validated against.
func (b *RuleBook) Engine() *match.Engine { return b.engine }

// Types returns the declared type hierarchy.
func (b *RuleBook) Types() *match.Types { return b.engine.Types() }

// Names returns the rule set names in sorted order.
func (b *RuleBook) Names() []string {
	out := make([]string, len(b.names))
	copy(out, b.names)
	return out
}

// Set looks up a compiled rule set.
func (b *RuleBook) Set(name string) (*CompiledSet, bool) {
	s, ok := b.sets[name]
	return s, ok
}

// Classify evaluates v against the named rule set.
func (b *RuleBook) Classify(name string, v match.Value) (*match.Outcome, error) {
	return b.ClassifyTrace(name, v, nil)
}

// ClassifyTrace is Classify with a per-arm observer.
func (b *RuleBook) ClassifyTrace(name string, v match.Value, trace match.Tracer) (*match.Outcome, error) {
	set, ok := b.sets[name]
	if !ok {
		return nil, &UnknownRuleSetError{Name: name}
	}
	return b.engine.EvaluateTrace(set.Arms, v, trace)
}

// ParseValue decodes a YAML value against the book's types.
func (b *RuleBook) ParseValue(text string) (match.Value, error) {
	return ParseValue(text, b.Types())
}
