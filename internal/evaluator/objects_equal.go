package evaluator

// ObjectsEqual performs a structural equality check between two objects.
// Values of different variants are never equal, so 1 != "1" and 0 != null.
func ObjectsEqual(a, b Object) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}

	if a.Type() != b.Type() {
		return false
	}

	switch aVal := a.(type) {
	case *Integer:
		if bVal, ok := b.(*Integer); ok {
			return aVal.Value == bVal.Value
		}
	case *String:
		if bVal, ok := b.(*String); ok {
			return aVal.Value == bVal.Value
		}
	case *Boolean:
		if bVal, ok := b.(*Boolean); ok {
			return aVal.Value == bVal.Value
		}
	case *Nil:
		_, ok := b.(*Nil)
		return ok
	case *Instance:
		if bVal, ok := b.(*Instance); ok {
			if aVal.TypeTag != bVal.TypeTag || len(aVal.Fields) != len(bVal.Fields) {
				return false
			}
			for name, av := range aVal.Fields {
				bv, ok := bVal.Fields[name]
				if !ok || !ObjectsEqual(av, bv) {
					return false
				}
			}
			return true
		}
	}
	return false
}
