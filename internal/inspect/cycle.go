package inspect

import "reflect"

const maxCycleDepth = 64

// isCyclic reports whether v contains a map or slice that contains itself.
// fmt follows maps and slices without cycle detection but prints nested
// pointers as addresses, so only containers need checking.
func isCyclic(v reflect.Value) bool {
	return walkCycle(v, make(map[uintptr]bool), 0)
}

func walkCycle(v reflect.Value, path map[uintptr]bool, depth int) bool {
	if depth > maxCycleDepth || !v.IsValid() {
		return false
	}

	switch v.Kind() {
	case reflect.Interface:
		if v.IsNil() {
			return false
		}
		return walkCycle(v.Elem(), path, depth+1)

	case reflect.Pointer:
		// fmt dereferences only the outermost pointer.
		if depth > 0 || v.IsNil() {
			return false
		}
		return walkCycle(v.Elem(), path, depth+1)

	case reflect.Map:
		if v.IsNil() {
			return false
		}
		ptr := v.Pointer()
		if path[ptr] {
			return true
		}
		path[ptr] = true
		defer delete(path, ptr)
		iter := v.MapRange()
		for iter.Next() {
			if walkCycle(iter.Key(), path, depth+1) || walkCycle(iter.Value(), path, depth+1) {
				return true
			}
		}
		return false

	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 || !mayContain(v.Type().Elem()) {
			return false
		}
		ptr := v.Pointer()
		if path[ptr] {
			return true
		}
		path[ptr] = true
		defer delete(path, ptr)
		for i := 0; i < v.Len(); i++ {
			if walkCycle(v.Index(i), path, depth+1) {
				return true
			}
		}
		return false

	case reflect.Array:
		if !mayContain(v.Type().Elem()) {
			return false
		}
		for i := 0; i < v.Len(); i++ {
			if walkCycle(v.Index(i), path, depth+1) {
				return true
			}
		}
		return false

	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if walkCycle(v.Field(i), path, depth+1) {
				return true
			}
		}
		return false
	}
	return false
}

// mayContain reports whether values of t can hold a map or slice.
func mayContain(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Interface, reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		return true
	}
	return false
}
