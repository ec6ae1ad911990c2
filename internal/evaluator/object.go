package evaluator

import (
	"hash/fnv"

	"github.com/funvibe/matchkit/internal/typesystem"
)

type ObjectType string

const (
	INTEGER_OBJ  = "INTEGER"
	STRING_OBJ   = "STRING"
	BOOLEAN_OBJ  = "BOOLEAN"
	NIL_OBJ      = "NIL"
	INSTANCE_OBJ = "INSTANCE"
)

// Object is a runtime value that patterns are tested against.
// Objects are immutable once constructed; the engine never mutates one.
type Object interface {
	Type() ObjectType
	Inspect() string
	RuntimeType() typesystem.Tag // Tag used by type patterns
	Hash() uint32
}

// Helper for hashing strings
func hashString(s string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(s))
	return h.Sum32()
}

// FromLiteral converts a Go literal (as held by constant patterns and rule
// files) into an Object. It returns false for unsupported literal types.
func FromLiteral(v interface{}) (Object, bool) {
	switch x := v.(type) {
	case nil:
		return NULL, true
	case int64:
		return &Integer{Value: x}, true
	case int:
		return &Integer{Value: int64(x)}, true
	case int32:
		return &Integer{Value: int64(x)}, true
	case string:
		return &String{Value: x}, true
	case bool:
		return nativeBoolToBooleanObject(x), true
	case Object:
		return x, true
	}
	return nil, false
}
