package evaluator

import (
	"unicode/utf8"

	"github.com/funvibe/matchkit/internal/config"
)

// BuiltinFunction is a pure function callable from expressions.
type BuiltinFunction func(args ...Object) (Object, error)

// Builtins maps function names to implementations. Arity and argument kinds
// are also checked by the analyzer before an arm is accepted.
var Builtins = map[string]BuiltinFunction{
	config.LenFuncName:    builtinLen,
	config.ShowFuncName:   builtinShow,
	config.TypeOfFuncName: builtinTypeOf,
}

func builtinLen(args ...Object) (Object, error) {
	if len(args) != 1 {
		return nil, newError("%s expects 1 argument, got %d", config.LenFuncName, len(args))
	}
	s, ok := args[0].(*String)
	if !ok {
		return nil, newError("%s expects String, got %s", config.LenFuncName, args[0].RuntimeType())
	}
	// Code points, not UTF-16 units: "😀" has length 1.
	return &Integer{Value: int64(utf8.RuneCountInString(s.Value))}, nil
}

func builtinShow(args ...Object) (Object, error) {
	if len(args) != 1 {
		return nil, newError("%s expects 1 argument, got %d", config.ShowFuncName, len(args))
	}
	return &String{Value: Show(args[0])}, nil
}

func builtinTypeOf(args ...Object) (Object, error) {
	if len(args) != 1 {
		return nil, newError("%s expects 1 argument, got %d", config.TypeOfFuncName, len(args))
	}
	return &String{Value: string(args[0].RuntimeType())}, nil
}
