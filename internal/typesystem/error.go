package typesystem

import (
	"fmt"
	"strings"
)

// UnknownTypeError indicates a tag was used before being declared
type UnknownTypeError struct {
	Name Tag
}

func (e *UnknownTypeError) Error() string {
	return fmt.Sprintf("unknown type: %s", e.Name)
}

func NewUnknownTypeError(name Tag) *UnknownTypeError {
	return &UnknownTypeError{Name: name}
}

// DuplicateTypeError indicates a tag was declared twice
type DuplicateTypeError struct {
	Name Tag
}

func (e *DuplicateTypeError) Error() string {
	return fmt.Sprintf("type already declared: %s", e.Name)
}

// InvalidTagError rejects empty and reserved tag names
type InvalidTagError struct {
	Name Tag
}

func (e *InvalidTagError) Error() string {
	if e.Name == "" {
		return "type name is empty"
	}
	return fmt.Sprintf("type name is reserved: %s", e.Name)
}

// CycleError reports a loop in declared parents, e.g. A -> B -> A
type CycleError struct {
	Path []Tag
}

func (e *CycleError) Error() string {
	parts := make([]string, len(e.Path))
	for i, t := range e.Path {
		parts[i] = string(t)
	}
	return "type hierarchy cycle: " + strings.Join(parts, " -> ")
}

// SealedTypeError rejects a declaration that extends a primitive tag
type SealedTypeError struct {
	Name Tag
}

func (e *SealedTypeError) Error() string {
	return fmt.Sprintf("type %s cannot be extended", e.Name)
}
