package value

import "reflect"

// IsFunction reports whether v can be invoked.
func IsFunction(v any) bool {
	if v == nil {
		return false
	}
	_, ok := v.(Callable)
	return ok
}

// IsArray reports whether v is a slice or array.
func IsArray(v any) bool {
	if v == nil {
		return false
	}
	switch v.(type) {
	case []any:
		return true
	}
	k := reflect.TypeOf(v).Kind()
	return k == reflect.Slice || k == reflect.Array
}

// IsScalar reports whether v is a string, number or boolean.
func IsScalar(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64, uintptr,
		float32, float64:
		return true
	}
	return false
}

// IsExtendable reports whether v can carry properties of its own: anything
// that is neither nil nor a scalar.
func IsExtendable(v any) bool {
	if v == nil {
		return false
	}
	if rv := reflect.ValueOf(v); (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map) && rv.IsNil() {
		return false
	}
	return !IsScalar(v)
}

// Same reports strict identity between two dynamic values. Scalars compare by
// value, references by address. Values of uncomparable types are only the
// same as themselves when they share the same backing storage.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ta.Comparable() {
		// Interface fields may still hold uncomparable values
		if !va.Comparable() || !vb.Comparable() {
			return false
		}
		return a == b
	}
	switch va.Kind() {
	case reflect.Map, reflect.Func, reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Slice:
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	}
	return false
}
