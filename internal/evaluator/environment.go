package evaluator

// Environment holds the bindings produced while matching one arm.
// A fresh Environment is created per arm attempt and is never shared across
// arms or calls, so it needs no locking.
type Environment struct {
	store map[string]Object
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

// NewEnvironmentFrom copies bindings into a fresh environment.
func NewEnvironmentFrom(bindings map[string]Object) *Environment {
	env := &Environment{store: make(map[string]Object, len(bindings))}
	for k, v := range bindings {
		env.store[k] = v
	}
	return env
}

func (e *Environment) Get(name string) (Object, bool) {
	obj, ok := e.store[name]
	return obj, ok
}

func (e *Environment) Set(name string, val Object) Object {
	e.store[name] = val
	return val
}

func (e *Environment) Len() int { return len(e.store) }

// GetStore returns a copy of the store
func (e *Environment) GetStore() map[string]Object {
	copy := make(map[string]Object, len(e.store))
	for k, v := range e.store {
		copy[k] = v
	}
	return copy
}
