package script

import (
	"fmt"
	"reflect"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/namespace"
	"github.com/dshills/classkit/internal/observer"
	"github.com/dshills/classkit/internal/value"
)

// Metatable names for engine values exposed to scripts.
const (
	metaClass     = "classkit.Class"
	metaObject    = "classkit.Object"
	metaObserver  = "classkit.Observer"
	metaNamespace = "classkit.Namespace"
)

// Bridge converts values between Lua and the engine.
//
// Lua functions become *value.Function members that receive the receiver as
// their first argument. Engine objects become userdata; each Go value maps to
// a single userdata so identity comparisons hold in Lua.
type Bridge struct {
	L       *lua.LState
	runtime *Runtime

	funcs    map[*lua.LFunction]*value.Function
	origins  map[*value.Function]*lua.LFunction
	queued   map[*lua.LFunction]*value.Function
	userdata map[any]*lua.LUserData

	// Calls of Lua-defined members currently running, innermost last
	calls []*value.Call
}

func newBridge(L *lua.LState, rt *Runtime) *Bridge {
	b := &Bridge{
		L:        L,
		runtime:  rt,
		funcs:    make(map[*lua.LFunction]*value.Function),
		origins:  make(map[*value.Function]*lua.LFunction),
		queued:   make(map[*lua.LFunction]*value.Function),
		userdata: make(map[any]*lua.LUserData),
	}
	b.registerMetatables()
	return b
}

// ToGoValue converts a Lua value to an engine value.
func (b *Bridge) ToGoValue(lv lua.LValue) any {
	return b.toGoValueWithVisited(lv, make(map[*lua.LTable]bool))
}

func (b *Bridge) toGoValueWithVisited(lv lua.LValue, visited map[*lua.LTable]bool) any {
	if lv == nil {
		return nil
	}

	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f)
		}
		return f
	case lua.LString:
		return string(v)
	case *lua.LTable:
		if visited[v] {
			return nil
		}
		visited[v] = true
		return b.tableToGoWithVisited(v, visited)
	case *lua.LNilType:
		return nil
	case *lua.LFunction:
		return b.function(v)
	case *lua.LUserData:
		return v.Value
	default:
		return nil
	}
}

// tableToGoWithVisited converts a sequence to []any and anything else to
// value.Props. An empty table is an empty property bag.
func (b *Bridge) tableToGoWithVisited(t *lua.LTable, visited map[*lua.LTable]bool) any {
	isArray := true
	maxN := 0
	count := 0
	t.ForEach(func(k, _ lua.LValue) {
		count++
		if kn, ok := k.(lua.LNumber); ok {
			n := int(kn)
			if float64(n) == float64(kn) && n > 0 {
				if n > maxN {
					maxN = n
				}
				return
			}
		}
		isArray = false
	})

	if isArray && maxN > 0 && count == maxN {
		arr := make([]any, maxN)
		for i := 1; i <= maxN; i++ {
			arr[i-1] = b.toGoValueWithVisited(t.RawGetInt(i), visited)
		}
		return arr
	}

	props := make(value.Props)
	t.ForEach(func(k, v lua.LValue) {
		var key string
		switch kv := k.(type) {
		case lua.LString:
			key = string(kv)
		case lua.LNumber:
			key = fmt.Sprintf("%v", float64(kv))
		default:
			key = k.String()
		}
		props[key] = b.toGoValueWithVisited(v, visited)
	})
	return props
}

// function returns the engine member for a Lua function. The member calls fn
// with the receiver followed by the arguments and yields its first result.
func (b *Bridge) function(fn *lua.LFunction) *value.Function {
	if f, ok := b.funcs[fn]; ok {
		return f
	}
	f := value.Fn(func(c *value.Call) (any, error) {
		b.calls = append(b.calls, c)
		defer func() { b.calls = b.calls[:len(b.calls)-1] }()

		args := make([]lua.LValue, 0, len(c.Args)+1)
		args = append(args, b.ToLuaValue(c.This))
		for _, a := range c.Args {
			args = append(args, b.ToLuaValue(a))
		}
		ret, err := b.call(fn, args...)
		if err != nil {
			return nil, err
		}
		return b.ToGoValue(ret), nil
	})
	b.funcs[fn] = f
	b.origins[f] = fn
	return f
}

// queuedFunction returns a member that defers the call to fn until the
// runtime next drains its queue. It is used for listeners that may fire on
// a timer goroutine.
func (b *Bridge) queuedFunction(fn *lua.LFunction) *value.Function {
	if f, ok := b.queued[fn]; ok {
		return f
	}
	target := b.function(fn)
	f := value.Fn(func(c *value.Call) (any, error) {
		call := &value.Call{This: c.This, Args: append([]any(nil), c.Args...)}
		b.runtime.Enqueue(func() error {
			_, err := target.Apply(call)
			return err
		})
		return nil, nil
	})
	b.queued[fn] = f
	return f
}

// call invokes a Lua function in protected mode and returns its first result.
func (b *Bridge) call(fn *lua.LFunction, args ...lua.LValue) (lua.LValue, error) {
	L := b.L

	top := L.GetTop()
	L.Push(fn)
	for _, arg := range args {
		L.Push(arg)
	}
	if err := L.PCall(len(args), 1, nil); err != nil {
		L.SetTop(top)
		return lua.LNil, err
	}
	ret := L.Get(-1)
	L.SetTop(top)
	return ret, nil
}

// current returns the innermost running Lua-defined member call.
func (b *Bridge) current() (*value.Call, bool) {
	if len(b.calls) == 0 {
		return nil, false
	}
	return b.calls[len(b.calls)-1], true
}

// ToLuaValue converts an engine value to a Lua value.
func (b *Bridge) ToLuaValue(v any) lua.LValue {
	if v == nil {
		return lua.LNil
	}

	switch val := v.(type) {
	case lua.LValue:
		return val
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int8:
		return lua.LNumber(val)
	case int16:
		return lua.LNumber(val)
	case int32:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case uint:
		return lua.LNumber(val)
	case uint8:
		return lua.LNumber(val)
	case uint16:
		return lua.LNumber(val)
	case uint32:
		return lua.LNumber(val)
	case uint64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []byte:
		return lua.LString(val)
	case error:
		return lua.LString(val.Error())
	case *class.Class:
		return b.wrapUserData(val, metaClass)
	case *value.Object:
		return b.wrapUserData(val, metaObject)
	case *observer.Observer:
		return b.wrapUserData(val, metaObserver)
	case *namespace.Namespace:
		return b.wrapUserData(val, metaNamespace)
	case *value.Function:
		if fn, ok := b.origins[val]; ok {
			return fn
		}
		return b.callableToLua(val)
	case value.Callable:
		return b.callableToLua(val)
	case value.Props:
		return b.mapToTable(val)
	case map[string]any:
		return b.mapToTable(val)
	case []any:
		return b.sliceToTable(val)
	case []string:
		t := b.L.NewTable()
		for i, s := range val {
			t.RawSetInt(i+1, lua.LString(s))
		}
		return t
	default:
		return b.reflectToLua(v)
	}
}

// callableToLua exposes an engine callable to Lua. The first Lua argument is
// the receiver.
func (b *Bridge) callableToLua(fn value.Callable) *lua.LFunction {
	return b.hostFunc(func(L *lua.LState) (any, error) {
		return fn.Apply(&value.Call{This: b.ToGoValue(L.Get(1)), Args: b.args(L, 2)})
	})
}

func (b *Bridge) wrapUserData(v any, meta string) *lua.LUserData {
	if ud, ok := b.userdata[v]; ok {
		return ud
	}
	ud := b.L.NewUserData()
	ud.Value = v
	b.L.SetMetatable(ud, b.L.GetTypeMetatable(meta))
	b.userdata[v] = ud
	return ud
}

func (b *Bridge) sliceToTable(s []any) *lua.LTable {
	t := b.L.NewTable()
	for i, v := range s {
		t.RawSetInt(i+1, b.ToLuaValue(v))
	}
	return t
}

func (b *Bridge) mapToTable(m map[string]any) *lua.LTable {
	t := b.L.NewTable()
	for _, k := range value.Props(m).Keys() {
		t.RawSetString(k, b.ToLuaValue(m[k]))
	}
	return t
}

// reflectToLua converts remaining slices, maps and pointers using reflection.
func (b *Bridge) reflectToLua(v any) lua.LValue {
	rv := reflect.ValueOf(v)

	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		t := b.L.NewTable()
		for i := 0; i < rv.Len(); i++ {
			t.RawSetInt(i+1, b.ToLuaValue(rv.Index(i).Interface()))
		}
		return t
	case reflect.Map:
		t := b.L.NewTable()
		iter := rv.MapRange()
		for iter.Next() {
			t.RawSet(b.ToLuaValue(iter.Key().Interface()), b.ToLuaValue(iter.Value().Interface()))
		}
		return t
	case reflect.Ptr:
		if rv.IsNil() {
			return lua.LNil
		}
		return b.ToLuaValue(rv.Elem().Interface())
	default:
		return lua.LString(fmt.Sprintf("%v", v))
	}
}

// args converts the Lua arguments from position from to the top.
func (b *Bridge) args(L *lua.LState, from int) []any {
	top := L.GetTop()
	if top < from {
		return nil
	}
	out := make([]any, 0, top-from+1)
	for i := from; i <= top; i++ {
		out = append(out, b.ToGoValue(L.Get(i)))
	}
	return out
}

// methodArgs converts the Lua arguments of a member looked up on self. The
// first argument is dropped when it is self, so both k.m(x) and k:m(x) work.
func (b *Bridge) methodArgs(L *lua.LState, self lua.LValue) []any {
	if L.GetTop() >= 1 && L.Get(1) == self {
		return b.args(L, 2)
	}
	return b.args(L, 1)
}

// hostFunc adapts a Go callback to a Lua function. Each call counts against
// the host call budget; a returned error is raised as a Lua error.
func (b *Bridge) hostFunc(fn func(L *lua.LState) (any, error)) *lua.LFunction {
	return b.L.NewFunction(func(L *lua.LState) int {
		if b.runtime.state.Sandbox().IncrementCalls(1) {
			L.RaiseError("%s", ErrCallLimit)
			return 0
		}
		ret, err := fn(L)
		if err != nil {
			L.RaiseError("%s", err)
			return 0
		}
		L.Push(b.ToLuaValue(ret))
		return 1
	})
}
