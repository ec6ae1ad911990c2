package rules

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/funvibe/matchkit/internal/ast"
	"github.com/funvibe/matchkit/internal/config"
	"github.com/funvibe/matchkit/internal/evaluator"
	"github.com/funvibe/matchkit/internal/typesystem"
)

// NodeError locates a decode failure inside a rule file.
type NodeError struct {
	Path    string // e.g. rulesets[0].arms[2].pattern.and[1]
	Line    int
	Message string
}

func (e *NodeError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d): %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func nodeErrorf(path string, n *yaml.Node, format string, a ...interface{}) error {
	line := 0
	if n != nil {
		line = n.Line
	}
	return &NodeError{Path: path, Line: line, Message: fmt.Sprintf(format, a...)}
}

// Discriminating keys. Each map node carries exactly one of these; the
// companion keys listed alongside are the only others allowed.
var patternKeys = map[string][]string{
	"rel":   {"value"},
	"and":   nil,
	"or":    nil,
	"not":   nil,
	"type":  {"bind"},
	"const": nil,
}

var expressionKeys = map[string][]string{
	"ref":    nil,
	"int":    nil,
	"str":    nil,
	"bool":   nil,
	"null":   nil,
	"call":   {"args"},
	"op":     {"left", "right"},
	"field":  {"of"},
	"format": nil,
}

// ValueTypeKey names the instance tag in a value map: {$type: Circle, radius: 3}.
const ValueTypeKey = "$type"

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && (n.Kind == yaml.AliasNode || n.Kind == yaml.DocumentNode) {
		if n.Kind == yaml.AliasNode {
			n = n.Alias
		} else if len(n.Content) > 0 {
			n = n.Content[0]
		} else {
			return nil
		}
	}
	return n
}

// mapping returns the entries of a mapping node, rejecting duplicate keys.
func mapping(n *yaml.Node, path string) (map[string]*yaml.Node, error) {
	fields := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if _, dup := fields[k.Value]; dup {
			return nil, nodeErrorf(path, k, "duplicate key %q", k.Value)
		}
		fields[k.Value] = resolve(n.Content[i+1])
	}
	return fields, nil
}

// discriminator finds the single discriminating key of a map node and checks
// that every other key is one of its companions.
func discriminator(n *yaml.Node, fields map[string]*yaml.Node, keys map[string][]string, path, what string) (string, error) {
	var found []string
	for k := range fields {
		if _, ok := keys[k]; ok {
			found = append(found, k)
		}
	}
	sort.Strings(found)
	switch len(found) {
	case 0:
		return "", nodeErrorf(path, n, "%s map needs one of: %s", what, strings.Join(sortedKeys(keys), ", "))
	case 1:
	default:
		return "", nodeErrorf(path, n, "%s map has more than one kind: %s", what, strings.Join(found, ", "))
	}
	key := found[0]
	allowed := map[string]bool{key: true}
	for _, c := range keys[key] {
		allowed[c] = true
	}
	for k := range fields {
		if !allowed[k] {
			return "", nodeErrorf(path, n, "unexpected key %q in %s node", k, key)
		}
	}
	return key, nil
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scalarString(n *yaml.Node, path string) (string, error) {
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() != "!!str" {
		return "", nodeErrorf(path, n, "expected a string")
	}
	return n.Value, nil
}

func scalarInt(n *yaml.Node, path string) (int64, error) {
	var v int64
	if n == nil || n.Kind != yaml.ScalarNode || n.ShortTag() != "!!int" {
		return 0, nodeErrorf(path, n, "expected an integer")
	}
	if err := n.Decode(&v); err != nil {
		return 0, nodeErrorf(path, n, "%v", err)
	}
	return v, nil
}

// decoder turns YAML nodes into pattern, expression and value trees. Types
// is consulted for instance values only; pattern tags are checked by the
// analyzer when the arm is compiled.
type decoder struct {
	types *typesystem.Hierarchy
}

func (d *decoder) pattern(n *yaml.Node, path string) (ast.Pattern, error) {
	n = resolve(n)
	if n == nil {
		return nil, nodeErrorf(path, nil, "missing pattern")
	}
	if n.Kind == yaml.ScalarNode {
		if n.Value == config.WildcardName || n.Value == config.DiscardName {
			return &ast.WildcardPattern{}, nil
		}
		return nil, nodeErrorf(path, n, "scalar pattern must be %q, use {const: ...} for constants", config.WildcardName)
	}
	if n.Kind != yaml.MappingNode {
		return nil, nodeErrorf(path, n, "expected a pattern map")
	}
	fields, err := mapping(n, path)
	if err != nil {
		return nil, err
	}
	key, err := discriminator(n, fields, patternKeys, path, "pattern")
	if err != nil {
		return nil, err
	}
	sub := path + "." + key

	switch key {
	case "rel":
		op, err := scalarString(fields["rel"], sub)
		if err != nil {
			return nil, err
		}
		if !ast.IsRelationalOperator(op) {
			return nil, nodeErrorf(sub, fields["rel"], "unknown relational operator %q", op)
		}
		bound, ok := fields["value"]
		if !ok {
			return nil, nodeErrorf(path, n, "rel pattern needs a value")
		}
		v, err := scalarInt(bound, path+".value")
		if err != nil {
			return nil, err
		}
		return &ast.RelationalPattern{Operator: op, Bound: v}, nil

	case "and", "or":
		seq := fields[key]
		if seq == nil || seq.Kind != yaml.SequenceNode || len(seq.Content) < 2 {
			return nil, nodeErrorf(sub, seq, "%s needs a list of at least two patterns", key)
		}
		var acc ast.Pattern
		for i, item := range seq.Content {
			p, err := d.pattern(item, fmt.Sprintf("%s[%d]", sub, i))
			if err != nil {
				return nil, err
			}
			switch {
			case acc == nil:
				acc = p
			case key == "and":
				acc = &ast.AndPattern{Left: acc, Right: p}
			default:
				acc = &ast.OrPattern{Left: acc, Right: p}
			}
		}
		return acc, nil

	case "not":
		inner, err := d.pattern(fields["not"], sub)
		if err != nil {
			return nil, err
		}
		return &ast.NotPattern{Inner: inner}, nil

	case "type":
		name, err := scalarString(fields["type"], sub)
		if err != nil {
			return nil, err
		}
		tp := &ast.TypePattern{Type: typesystem.Tag(name)}
		if b, ok := fields["bind"]; ok {
			if tp.Name, err = scalarString(b, path+".bind"); err != nil {
				return nil, err
			}
		}
		return tp, nil

	case "const":
		v, err := d.value(fields["const"], sub)
		if err != nil {
			return nil, err
		}
		return &ast.ConstantPattern{Value: v}, nil
	}
	return nil, nodeErrorf(path, n, "unsupported pattern kind %q", key)
}

func (d *decoder) expression(n *yaml.Node, path string) (ast.Expression, error) {
	n = resolve(n)
	if n == nil {
		return nil, nodeErrorf(path, nil, "missing expression")
	}
	if n.Kind == yaml.ScalarNode {
		return scalarLiteral(n, path)
	}
	if n.Kind != yaml.MappingNode {
		return nil, nodeErrorf(path, n, "expected an expression map or a scalar literal")
	}
	fields, err := mapping(n, path)
	if err != nil {
		return nil, err
	}
	key, err := discriminator(n, fields, expressionKeys, path, "expression")
	if err != nil {
		return nil, err
	}
	sub := path + "." + key

	switch key {
	case "ref":
		name, err := scalarString(fields["ref"], sub)
		if err != nil {
			return nil, err
		}
		return &ast.Identifier{Value: name}, nil

	case "int":
		v, err := scalarInt(fields["int"], sub)
		if err != nil {
			return nil, err
		}
		return &ast.IntegerLiteral{Value: v}, nil

	case "str":
		s, err := scalarString(fields["str"], sub)
		if err != nil {
			return nil, err
		}
		return &ast.StringLiteral{Value: s}, nil

	case "bool":
		var b bool
		bn := fields["bool"]
		if bn == nil || bn.ShortTag() != "!!bool" || bn.Decode(&b) != nil {
			return nil, nodeErrorf(sub, bn, "expected true or false")
		}
		return &ast.BooleanLiteral{Value: b}, nil

	case "null":
		return &ast.NullLiteral{}, nil

	case "call":
		fn, err := scalarString(fields["call"], sub)
		if err != nil {
			return nil, err
		}
		call := &ast.CallExpression{Function: fn}
		if args, ok := fields["args"]; ok {
			if args == nil || args.Kind != yaml.SequenceNode {
				return nil, nodeErrorf(path+".args", args, "args must be a list")
			}
			for i, a := range args.Content {
				arg, err := d.expression(a, fmt.Sprintf("%s.args[%d]", path, i))
				if err != nil {
					return nil, err
				}
				call.Arguments = append(call.Arguments, arg)
			}
		}
		return call, nil

	case "op":
		op, err := scalarString(fields["op"], sub)
		if err != nil {
			return nil, err
		}
		rn, ok := fields["right"]
		if !ok {
			return nil, nodeErrorf(path, n, "operator %q needs a right operand", op)
		}
		right, err := d.expression(rn, path+".right")
		if err != nil {
			return nil, err
		}
		ln, ok := fields["left"]
		if !ok {
			return &ast.PrefixExpression{Operator: op, Right: right}, nil
		}
		left, err := d.expression(ln, path+".left")
		if err != nil {
			return nil, err
		}
		return &ast.InfixExpression{Left: left, Operator: op, Right: right}, nil

	case "field":
		name, err := scalarString(fields["field"], sub)
		if err != nil {
			return nil, err
		}
		of, ok := fields["of"]
		if !ok {
			return nil, nodeErrorf(path, n, "field %q needs an 'of' operand", name)
		}
		left, err := d.expression(of, path+".of")
		if err != nil {
			return nil, err
		}
		return &ast.FieldAccess{Left: left, Field: name}, nil

	case "format":
		seq := fields["format"]
		if seq == nil || seq.Kind != yaml.SequenceNode {
			return nil, nodeErrorf(sub, seq, "format must be a list")
		}
		f := &ast.FormatExpression{}
		for i, item := range seq.Content {
			part, err := d.expression(item, fmt.Sprintf("%s[%d]", sub, i))
			if err != nil {
				return nil, err
			}
			f.Parts = append(f.Parts, part)
		}
		return f, nil
	}
	return nil, nodeErrorf(path, n, "unsupported expression kind %q", key)
}

// scalarLiteral reads a bare scalar as a literal, so `result: negative` is
// the string "negative" and `right: 0` the integer 0.
func scalarLiteral(n *yaml.Node, path string) (ast.Expression, error) {
	switch n.ShortTag() {
	case "!!int":
		v, err := scalarInt(n, path)
		if err != nil {
			return nil, err
		}
		return &ast.IntegerLiteral{Value: v}, nil
	case "!!str":
		return &ast.StringLiteral{Value: n.Value}, nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, nodeErrorf(path, n, "%v", err)
		}
		return &ast.BooleanLiteral{Value: b}, nil
	case "!!null":
		return &ast.NullLiteral{}, nil
	}
	return nil, nodeErrorf(path, n, "unsupported literal %s", n.ShortTag())
}

func (d *decoder) value(n *yaml.Node, path string) (evaluator.Object, error) {
	n = resolve(n)
	if n == nil {
		return evaluator.NULL, nil
	}
	switch n.Kind {
	case yaml.ScalarNode:
		switch n.ShortTag() {
		case "!!int":
			v, err := scalarInt(n, path)
			if err != nil {
				return nil, err
			}
			return &evaluator.Integer{Value: v}, nil
		case "!!str":
			return &evaluator.String{Value: n.Value}, nil
		case "!!bool":
			var b bool
			if err := n.Decode(&b); err != nil {
				return nil, nodeErrorf(path, n, "%v", err)
			}
			if b {
				return evaluator.TRUE, nil
			}
			return evaluator.FALSE, nil
		case "!!null":
			return evaluator.NULL, nil
		}
		return nil, nodeErrorf(path, n, "unsupported value %s", n.ShortTag())

	case yaml.MappingNode:
		fields, err := mapping(n, path)
		if err != nil {
			return nil, err
		}
		tagNode, ok := fields[ValueTypeKey]
		if !ok {
			return nil, nodeErrorf(path, n, "object value needs a %s key", ValueTypeKey)
		}
		name, err := scalarString(tagNode, path+"."+ValueTypeKey)
		if err != nil {
			return nil, err
		}
		tag := typesystem.Tag(name)
		if tag == typesystem.Any || tag == typesystem.Null || typesystem.IsSealed(tag) {
			return nil, nodeErrorf(path, tagNode, "%s is not an object type", tag)
		}
		if d.types != nil && !d.types.Has(tag) {
			return nil, nodeErrorf(path, tagNode, "%v", typesystem.NewUnknownTypeError(tag))
		}
		objFields := make(map[string]evaluator.Object, len(fields)-1)
		for k, fn := range fields {
			if k == ValueTypeKey {
				continue
			}
			v, err := d.value(fn, path+"."+k)
			if err != nil {
				return nil, err
			}
			objFields[k] = v
		}
		return evaluator.NewInstance(tag, objFields), nil
	}
	return nil, nodeErrorf(path, n, "lists are not supported as values")
}

// DecodeValue converts a YAML node into a value. Object maps must name a
// tag declared in types; a nil types accepts any object tag.
func DecodeValue(n *yaml.Node, types *typesystem.Hierarchy) (evaluator.Object, error) {
	d := &decoder{types: types}
	return d.value(n, "value")
}

// ParseValue parses a YAML scalar or flow map such as `42`, `hello` or
// `{$type: Circle, radius: 3}`.
func ParseValue(text string, types *typesystem.Hierarchy) (evaluator.Object, error) {
	var n yaml.Node
	if err := yaml.Unmarshal([]byte(text), &n); err != nil {
		return nil, fmt.Errorf("parsing value %q: %w", text, err)
	}
	if n.Kind == 0 || resolve(&n) == nil {
		return evaluator.NULL, nil
	}
	return DecodeValue(&n, types)
}
