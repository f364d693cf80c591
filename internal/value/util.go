package value

import (
	"reflect"
	"sort"
)

// Each calls fn for every element of v. Slices pass the index as key,
// property containers pass the property name. Iteration stops when fn
// returns false. A nil v is a no-op.
func Each(v any, fn func(key, val any) bool) {
	switch c := v.(type) {
	case nil:
		return
	case []any:
		for i, item := range c {
			if !fn(i, item) {
				return
			}
		}
	case Props:
		for _, k := range c.Keys() {
			if !fn(k, c[k]) {
				return
			}
		}
	case map[string]any:
		Each(Props(c), fn)
	case Holder:
		for _, k := range c.Keys() {
			item, _ := c.Get(k)
			if !fn(k, item) {
				return
			}
		}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			for i := 0; i < rv.Len(); i++ {
				if !fn(i, rv.Index(i).Interface()) {
					return
				}
			}
		}
	}
}

// Map applies fn to every element of v. Slices map to []any, property
// containers map to Props. A nil v maps to nil.
func Map(v any, fn func(val, key any) any) any {
	if v == nil {
		return nil
	}
	if IsArray(v) {
		out := make([]any, 0)
		Each(v, func(k, item any) bool {
			out = append(out, fn(item, k))
			return true
		})
		return out
	}
	out := make(Props)
	Each(v, func(k, item any) bool {
		out[k.(string)] = fn(item, k)
		return true
	})
	return out
}

// Filter keeps the elements of v for which fn returns true, preserving the
// shape of v like Map.
func Filter(v any, fn func(val, key any) bool) any {
	if v == nil {
		return nil
	}
	if IsArray(v) {
		out := make([]any, 0)
		Each(v, func(k, item any) bool {
			if fn(item, k) {
				out = append(out, item)
			}
			return true
		})
		return out
	}
	out := make(Props)
	Each(v, func(k, item any) bool {
		if fn(item, k) {
			out[k.(string)] = item
		}
		return true
	})
	return out
}

// Keys returns the own enumerable property names of v.
func Keys(v any) []string {
	switch c := v.(type) {
	case nil:
		return nil
	case Props:
		return c.Keys()
	case map[string]any:
		return Props(c).Keys()
	case Holder:
		return c.Keys()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String {
		keys := make([]string, 0, rv.Len())
		for _, k := range rv.MapKeys() {
			keys = append(keys, k.String())
		}
		sort.Strings(keys)
		return keys
	}
	return nil
}

// IndexOf returns the position of the first element of list identical to v,
// or -1.
func IndexOf(list []any, v any) int {
	for i, item := range list {
		if Same(item, v) {
			return i
		}
	}
	return -1
}

// ToArray converts v to a fresh []any. nil yields an empty slice and a
// non-slice value yields a single-element slice.
func ToArray(v any) []any {
	if v == nil {
		return []any{}
	}
	if !IsArray(v) {
		return []any{v}
	}
	out := make([]any, 0)
	Each(v, func(_, item any) bool {
		out = append(out, item)
		return true
	})
	return out
}

// ArgsToArray copies variadic arguments into a fresh slice, dropping the
// first skip of them.
func ArgsToArray(skip int, args ...any) []any {
	if skip >= len(args) {
		return []any{}
	}
	if skip < 0 {
		skip = 0
	}
	out := make([]any, len(args)-skip)
	copy(out, args[skip:])
	return out
}

// Extend copies the own properties of every source onto dst and returns dst.
// nil sources are skipped.
func Extend(dst Holder, sources ...any) Holder {
	for _, src := range sources {
		Each(src, func(k, item any) bool {
			if name, ok := k.(string); ok {
				dst.Set(name, item)
			}
			return true
		})
	}
	return dst
}
