package typesystem

import (
	"errors"
	"testing"
)

func TestHierarchyBuiltins(t *testing.T) {
	h := NewHierarchy()
	for _, tag := range Builtins {
		if !h.Has(tag) {
			t.Errorf("builtin %s not declared", tag)
		}
		if !h.IsSubtype(tag, Any) {
			t.Errorf("%s should be a subtype of Any", tag)
		}
	}
	if h.IsSubtype(Int, String) {
		t.Error("Int must not be a subtype of String")
	}
	if h.IsSubtype(Null, Any) {
		t.Error("Null must not be a subtype of anything")
	}
	if h.Has(Null) {
		t.Error("Null is not a declarable tag")
	}
}

func TestHierarchyTransitive(t *testing.T) {
	h := NewHierarchy()
	if err := h.Declare("Shape"); err != nil {
		t.Fatal(err)
	}
	if err := h.Declare("Polygon", "Shape"); err != nil {
		t.Fatal(err)
	}
	if err := h.Declare("Square", "Polygon"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		tag, ancestor Tag
		want          bool
	}{
		{"Square", "Square", true},
		{"Square", "Polygon", true},
		{"Square", "Shape", true},
		{"Square", Any, true},
		{"Shape", "Square", false},
		{"Polygon", Int, false},
		{"Circle", "Shape", false},
	}
	for _, tt := range tests {
		if got := h.IsSubtype(tt.tag, tt.ancestor); got != tt.want {
			t.Errorf("IsSubtype(%s, %s) = %v, want %v", tt.tag, tt.ancestor, got, tt.want)
		}
	}

	if got := h.Parents("Square"); len(got) != 1 || got[0] != "Polygon" {
		t.Errorf("Parents(Square) = %v, want [Polygon]", got)
	}
}

func TestHierarchyDeclareErrors(t *testing.T) {
	h := NewHierarchy()

	var unknown *UnknownTypeError
	if err := h.Declare("Circle", "Shape"); !errors.As(err, &unknown) {
		t.Errorf("expected UnknownTypeError, got %v", err)
	}

	var dup *DuplicateTypeError
	if err := h.Declare(Int); !errors.As(err, &dup) {
		t.Errorf("expected DuplicateTypeError, got %v", err)
	}

	var sealed *SealedTypeError
	if err := h.Declare("SmallInt", Int); !errors.As(err, &sealed) {
		t.Errorf("expected SealedTypeError, got %v", err)
	}

	var invalid *InvalidTagError
	if err := h.Declare(""); !errors.As(err, &invalid) {
		t.Errorf("expected InvalidTagError for empty name, got %v", err)
	}
	if err := h.Declare(Null); !errors.As(err, &invalid) {
		t.Errorf("expected InvalidTagError for Null, got %v", err)
	}
}

func TestHierarchyDeclareAllOutOfOrder(t *testing.T) {
	h := NewHierarchy()
	err := h.DeclareAll([]Decl{
		{Name: "Circle", Parents: []Tag{"Shape"}},
		{Name: "Shape"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.IsSubtype("Circle", "Shape") {
		t.Error("Circle should be a subtype of Shape")
	}
}

func TestHierarchyDeclareAllCycle(t *testing.T) {
	h := NewHierarchy()
	err := h.DeclareAll([]Decl{
		{Name: "A", Parents: []Tag{"B"}},
		{Name: "B", Parents: []Tag{"A"}},
	})
	var cycle *CycleError
	if !errors.As(err, &cycle) {
		t.Fatalf("expected CycleError, got %v", err)
	}
	if got := cycle.Error(); got != "type hierarchy cycle: A -> B -> A" {
		t.Errorf("message = %q", got)
	}
}
