// Package rules loads decision tables from YAML documents.
//
// A rule file declares object type tags and named rule sets. Each arm's
// pattern, guard and result are written as nested maps that mirror the tree
// node for node; nothing is parsed from pattern syntax. Compile turns a File
// into a RuleBook whose arms have been validated by the analyzer, so a book
// that loads never fails at evaluation time with an unbound name.
//
// Rule file layout:
//
//	types:
//	  - name: Shape
//	  - name: Circle
//	    parents: [Shape]
//	rulesets:
//	  - name: classify
//	    arms:
//	      - pattern: {rel: "<", value: 0}
//	        result: negative
//	      - pattern: {type: String, bind: s}
//	        when: {op: "==", left: {call: len, args: [{ref: s}]}, right: 0}
//	        result: {format: ["string '", {ref: s}, "'"]}
//	      - pattern: _
//	        result: other
package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/matchkit/internal/config"
)

// File is the top-level structure of a rule file.
type File struct {
	// Types declares object tags and their parents. Order does not matter.
	Types []TypeDecl `yaml:"types,omitempty"`

	// RuleSets are the named, ordered arm lists.
	RuleSets []RuleSet `yaml:"rulesets"`
}

// TypeDecl declares one object tag.
type TypeDecl struct {
	Name    string   `yaml:"name"`
	Parents []string `yaml:"parents,omitempty"`
}

// RuleSet is a named arm list. Arms are tried in the order written.
type RuleSet struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Arms        []ArmSpec `yaml:"arms"`
}

// ArmSpec keeps the raw nodes so that decode errors can report line numbers.
type ArmSpec struct {
	Pattern yaml.Node `yaml:"pattern"`
	When    yaml.Node `yaml:"when,omitempty"`
	Result  yaml.Node `yaml:"result"`
}

// HasGuard reports whether the arm has a when clause.
func (a *ArmSpec) HasGuard() bool { return a.When.Kind != 0 }

// ParseFile reads and parses a rule file.
func ParseFile(path string) (*File, error) {
	if !HasRuleExtension(path) {
		return nil, fmt.Errorf("%s: unsupported rule file extension (want one of %s)",
			path, strings.Join(config.RuleFileExtensions, ", "))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules %s: %w", path, err)
	}
	return Parse(data, path)
}

// Parse parses rule file content. The path argument is used only for error
// messages.
func Parse(data []byte, path string) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := f.validate(path); err != nil {
		return nil, err
	}
	return &f, nil
}

// HasRuleExtension reports whether path looks like a rule file.
func HasRuleExtension(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range config.RuleFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// validate checks the document shape. Node contents are checked by Compile.
func (f *File) validate(path string) error {
	if len(f.RuleSets) == 0 {
		return fmt.Errorf("%s: no rulesets defined", path)
	}

	seenTypes := make(map[string]bool)
	for i, t := range f.Types {
		if t.Name == "" {
			return fmt.Errorf("%s: types[%d]: name is required", path, i)
		}
		if seenTypes[t.Name] {
			return fmt.Errorf("%s: types[%d]: type %q declared twice", path, i, t.Name)
		}
		seenTypes[t.Name] = true
	}

	seenSets := make(map[string]bool)
	for i, rs := range f.RuleSets {
		if rs.Name == "" {
			return fmt.Errorf("%s: rulesets[%d]: name is required", path, i)
		}
		if seenSets[rs.Name] {
			return fmt.Errorf("%s: rulesets[%d]: ruleset %q defined twice", path, i, rs.Name)
		}
		seenSets[rs.Name] = true

		if len(rs.Arms) == 0 {
			return fmt.Errorf("%s: rulesets[%d] (%s): no arms defined", path, i, rs.Name)
		}
		for j, arm := range rs.Arms {
			if arm.Pattern.Kind == 0 {
				return fmt.Errorf("%s: rulesets[%d].arms[%d]: pattern is required", path, i, j)
			}
			if arm.Result.Kind == 0 {
				return fmt.Errorf("%s: rulesets[%d].arms[%d]: result is required", path, i, j)
			}
		}
	}
	return nil
}
