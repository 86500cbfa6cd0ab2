package atom

import "reflect"

// Same reports whether a and b are the same value in the sense used by cells
// to decide whether to notify. Maps, pointers, channels and funcs are the same
// when they point to the same object; slices when they share backing array
// and length. Other comparable values compare with ==. Values that cannot be
// compared, such as structs holding maps, are never the same.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	switch va.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Chan, reflect.Func, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}

	if va.Comparable() && vb.Comparable() {
		return a == b
	}
	return false
}

func same[T any](a, b T) bool {
	return Same(a, b)
}
