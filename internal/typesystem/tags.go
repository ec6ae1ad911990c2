package typesystem

import (
	"sort"
	"sync"
)

// Tag names a runtime type. Two tags are the same type iff their names match.
type Tag string

// Builtin tags. Every declared tag is a subtype of Any; Null is a subtype of nothing.
const (
	Any    Tag = "Any"
	Int    Tag = "Int"
	String Tag = "String"
	Bool   Tag = "Bool"
	Null   Tag = "Null"
)

// Builtins lists the tags every Hierarchy starts with.
var Builtins = []Tag{Any, Int, String, Bool}

// IsSealed reports whether tag is a primitive that cannot be extended.
// Values of these tags are never instances, so guards can rely on the
// tag to know the value's representation.
func IsSealed(tag Tag) bool {
	return tag == Int || tag == String || tag == Bool
}

// Decl declares a tag together with its direct parents.
type Decl struct {
	Name    Tag
	Parents []Tag
}

// Hierarchy is the "is-a" relation between tags, kept as an explicit table.
// Ancestor sets are closed transitively when a tag is declared, so subtype
// checks are a single map lookup.
type Hierarchy struct {
	mu        sync.RWMutex
	parents   map[Tag][]Tag
	ancestors map[Tag]map[Tag]struct{}
}

func NewHierarchy() *Hierarchy {
	h := &Hierarchy{
		parents:   make(map[Tag][]Tag),
		ancestors: make(map[Tag]map[Tag]struct{}),
	}
	h.ancestors[Any] = map[Tag]struct{}{Any: {}}
	for _, t := range Builtins[1:] {
		h.declare(t, nil)
	}
	return h
}

// Declare adds a tag. Parents must already be declared, which keeps the
// relation acyclic.
func (h *Hierarchy) Declare(tag Tag, parents ...Tag) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if tag == "" || tag == Null {
		return &InvalidTagError{Name: tag}
	}
	if _, exists := h.ancestors[tag]; exists {
		return &DuplicateTypeError{Name: tag}
	}
	for _, p := range parents {
		if p == tag {
			return &CycleError{Path: []Tag{tag, tag}}
		}
		if _, ok := h.ancestors[p]; !ok {
			return NewUnknownTypeError(p)
		}
		if IsSealed(p) {
			return &SealedTypeError{Name: p}
		}
	}
	h.declare(tag, parents)
	return nil
}

func (h *Hierarchy) declare(tag Tag, parents []Tag) {
	set := map[Tag]struct{}{tag: {}, Any: {}}
	for _, p := range parents {
		for a := range h.ancestors[p] {
			set[a] = struct{}{}
		}
	}
	h.parents[tag] = append([]Tag(nil), parents...)
	h.ancestors[tag] = set
}

// DeclareAll declares tags in dependency order, so declarations may name
// parents that appear later in the slice. A cycle among the declarations is
// reported as *CycleError.
func (h *Hierarchy) DeclareAll(decls []Decl) error {
	byName := make(map[Tag]Decl, len(decls))
	for _, d := range decls {
		if _, dup := byName[d.Name]; dup {
			return &DuplicateTypeError{Name: d.Name}
		}
		byName[d.Name] = d
	}

	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[Tag]int, len(decls))
	var path []Tag

	var visit func(d Decl) error
	visit = func(d Decl) error {
		switch state[d.Name] {
		case done:
			return nil
		case visiting:
			start := 0
			for i, t := range path {
				if t == d.Name {
					start = i
					break
				}
			}
			cycle := append(append([]Tag(nil), path[start:]...), d.Name)
			return &CycleError{Path: cycle}
		}
		state[d.Name] = visiting
		path = append(path, d.Name)
		for _, p := range d.Parents {
			if pd, ok := byName[p]; ok {
				if err := visit(pd); err != nil {
					return err
				}
			}
		}
		path = path[:len(path)-1]
		state[d.Name] = done
		return h.Declare(d.Name, d.Parents...)
	}

	for _, d := range decls {
		if err := visit(d); err != nil {
			return err
		}
	}
	return nil
}

// Has reports whether tag has been declared.
func (h *Hierarchy) Has(tag Tag) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.ancestors[tag]
	return ok
}

// IsSubtype reports whether tag is ancestor or a declared descendant of it.
func (h *Hierarchy) IsSubtype(tag, ancestor Tag) bool {
	if tag == Null {
		return false
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	set, ok := h.ancestors[tag]
	if !ok {
		return false
	}
	_, ok = set[ancestor]
	return ok
}

// Parents returns the direct parents of tag.
func (h *Hierarchy) Parents(tag Tag) []Tag {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Tag(nil), h.parents[tag]...)
}

// Tags returns every declared tag in name order.
func (h *Hierarchy) Tags() []Tag {
	h.mu.RLock()
	defer h.mu.RUnlock()
	tags := make([]Tag, 0, len(h.ancestors))
	for t := range h.ancestors {
		tags = append(tags, t)
	}
	sort.Slice(tags, func(i, j int) bool { return tags[i] < tags[j] })
	return tags
}
