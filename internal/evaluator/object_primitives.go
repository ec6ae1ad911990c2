package evaluator

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/funvibe/matchkit/internal/typesystem"
)

var (
	TRUE  = &Boolean{Value: true}
	FALSE = &Boolean{Value: false}
	NULL  = &Nil{}
)

func nativeBoolToBooleanObject(b bool) *Boolean {
	if b {
		return TRUE
	}
	return FALSE
}

// Integer
type Integer struct {
	Value int64
}

func (i *Integer) Type() ObjectType            { return INTEGER_OBJ }
func (i *Integer) Inspect() string             { return strconv.FormatInt(i.Value, 10) }
func (i *Integer) RuntimeType() typesystem.Tag { return typesystem.Int }
func (i *Integer) Hash() uint32 {
	return uint32(i.Value ^ (i.Value >> 32))
}

// String
type String struct {
	Value string
}

func (s *String) Type() ObjectType            { return STRING_OBJ }
func (s *String) Inspect() string             { return strconv.Quote(s.Value) }
func (s *String) RuntimeType() typesystem.Tag { return typesystem.String }
func (s *String) Hash() uint32                { return hashString(s.Value) }

// Boolean
type Boolean struct {
	Value bool
}

func (b *Boolean) Type() ObjectType            { return BOOLEAN_OBJ }
func (b *Boolean) Inspect() string             { return fmt.Sprintf("%t", b.Value) }
func (b *Boolean) RuntimeType() typesystem.Tag { return typesystem.Bool }
func (b *Boolean) Hash() uint32 {
	if b.Value {
		return 1
	}
	return 0
}

// Nil
type Nil struct{}

func (n *Nil) Type() ObjectType            { return NIL_OBJ }
func (n *Nil) Inspect() string             { return "null" }
func (n *Nil) RuntimeType() typesystem.Tag { return typesystem.Null }
func (n *Nil) Hash() uint32                { return 0 }

// Instance is a typed object: a runtime tag plus named fields.
type Instance struct {
	TypeTag typesystem.Tag
	Fields  map[string]Object
}

// NewInstance copies fields so later changes to the caller's map are not
// observed by the instance.
func NewInstance(tag typesystem.Tag, fields map[string]Object) *Instance {
	copied := make(map[string]Object, len(fields))
	for k, v := range fields {
		copied[k] = v
	}
	return &Instance{TypeTag: tag, Fields: copied}
}

func (o *Instance) Type() ObjectType            { return INSTANCE_OBJ }
func (o *Instance) RuntimeType() typesystem.Tag { return o.TypeTag }

// Get returns a field, or nil if absent
func (o *Instance) Get(name string) Object {
	return o.Fields[name]
}

func (o *Instance) fieldNames() []string {
	names := make([]string, 0, len(o.Fields))
	for k := range o.Fields {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

func (o *Instance) Inspect() string {
	var out strings.Builder
	out.WriteString(string(o.TypeTag))
	out.WriteString(" { ")
	for i, name := range o.fieldNames() {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(name)
		out.WriteString(": ")
		out.WriteString(o.Fields[name].Inspect())
	}
	out.WriteString(" }")
	return out.String()
}

func (o *Instance) Hash() uint32 {
	h := hashString(string(o.TypeTag))
	for _, name := range o.fieldNames() {
		h = h*31 + hashString(name)
		h = h*31 + o.Fields[name].Hash()
	}
	return h
}

// Show renders an object the way format expressions display it:
// strings without quotes, everything else as Inspect.
func Show(obj Object) string {
	if s, ok := obj.(*String); ok {
		return s.Value
	}
	return obj.Inspect()
}
