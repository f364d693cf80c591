package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/namespace"
	"github.com/dshills/classkit/internal/observer"
	"github.com/dshills/classkit/internal/value"
)

func (b *Bridge) registerMetatables() {
	b.registerObject()
	b.registerClass()
	b.registerObserver()
	b.registerNamespace()
}

func (b *Bridge) setMeta(name string, fields map[string]lua.LGFunction) {
	mt := b.L.NewTypeMetatable(name)
	for k, fn := range fields {
		b.L.SetField(mt, k, b.L.NewFunction(fn))
	}
}

// method returns a Lua function running fn on self. The leading self
// argument is optional.
func (b *Bridge) method(self lua.LValue, fn func(args []any) (any, error)) *lua.LFunction {
	return b.hostFunc(func(L *lua.LState) (any, error) {
		return fn(b.methodArgs(L, self))
	})
}

func (b *Bridge) registerObject() {
	b.setMeta(metaObject, map[string]lua.LGFunction{
		"__index": func(L *lua.LState) int {
			obj := L.CheckUserData(1).Value.(*value.Object)
			key := L.CheckString(2)

			v, owner := obj.Lookup(key)
			fn, ok := v.(value.Callable)
			if !ok || class.IsClass(v) {
				L.Push(b.ToLuaValue(v))
				return 1
			}
			L.Push(b.hostFunc(func(L *lua.LState) (any, error) {
				return fn.Apply(&value.Call{This: b.ToGoValue(L.Get(1)), Args: b.args(L, 2), Home: owner})
			}))
			return 1
		},
		"__newindex": func(L *lua.LState) int {
			obj := L.CheckUserData(1).Value.(*value.Object)
			key := L.CheckString(2)
			if L.Get(3) == lua.LNil {
				obj.Delete(key)
				return 0
			}
			obj.Set(key, b.ToGoValue(L.Get(3)))
			return 0
		},
		"__tostring": func(L *lua.LState) int {
			obj := L.CheckUserData(1).Value.(*value.Object)
			if k := class.Of(obj); k != nil {
				L.Push(lua.LString(fmt.Sprintf("instance of %s", k)))
				return 1
			}
			L.Push(lua.LString("object"))
			return 1
		},
	})
}

func (b *Bridge) registerClass() {
	b.setMeta(metaClass, map[string]lua.LGFunction{
		"__index": func(L *lua.LState) int {
			self := L.CheckUserData(1)
			k := self.Value.(*class.Class)
			key := L.CheckString(2)

			if member := b.classMember(self, k, key); member != nil {
				L.Push(member)
				return 1
			}

			v, ok := k.Get(key)
			if !ok {
				L.Push(lua.LNil)
				return 1
			}
			fn, callable := v.(value.Callable)
			if !callable || class.IsClass(v) {
				L.Push(b.ToLuaValue(v))
				return 1
			}
			L.Push(b.method(self, func(args []any) (any, error) {
				return fn.Apply(&value.Call{This: k, Args: args})
			}))
			return 1
		},
		"__newindex": func(L *lua.LState) int {
			k := L.CheckUserData(1).Value.(*class.Class)
			key := L.CheckString(2)
			if L.Get(3) == lua.LNil {
				k.Delete(key)
				return 0
			}
			k.Set(key, b.ToGoValue(L.Get(3)))
			return 0
		},
		"__call": func(L *lua.LState) int {
			k := L.CheckUserData(1).Value.(*class.Class)
			if b.runtime.state.Sandbox().IncrementCalls(1) {
				L.RaiseError("%s", ErrCallLimit)
				return 0
			}
			ret, err := k.Invoke(b.args(L, 2)...)
			if err != nil {
				L.RaiseError("%s", err)
				return 0
			}
			L.Push(b.ToLuaValue(ret))
			return 1
		},
		"__tostring": func(L *lua.LState) int {
			k := L.CheckUserData(1).Value.(*class.Class)
			L.Push(lua.LString(k.String()))
			return 1
		},
	})
}

// classMember resolves the engine members every class exposes. It returns
// nil for other keys, which resolve to static members.
func (b *Bridge) classMember(self *lua.LUserData, k *class.Class, key string) lua.LValue {
	switch key {
	case "new":
		return b.method(self, func(args []any) (any, error) {
			return k.New(args...)
		})
	case "extend":
		return b.method(self, func(args []any) (any, error) {
			return k.Extend(args...)
		})
	case "addProperty":
		return b.method(self, func(args []any) (any, error) {
			name, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("%w: property name must be a string", value.ErrTypeConstraint)
			}
			return nil, k.AddProperty(name, argAt(args, 1))
		})
	case "removeProperty":
		return b.method(self, func(args []any) (any, error) {
			name, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("%w: property name must be a string", value.ErrTypeConstraint)
			}
			return nil, k.RemoveProperty(name)
		})
	case "isSubclassOf":
		return b.method(self, func(args []any) (any, error) {
			other, _ := argAt(args, 0).(*class.Class)
			return other != nil && k.IsSubclassOf(other), nil
		})
	case "superclass":
		if k.Superclass() == nil {
			return lua.LNil
		}
		return b.ToLuaValue(k.Superclass())
	case "subclasses":
		subs := k.Subclasses()
		out := make([]any, len(subs))
		for i, s := range subs {
			out[i] = s
		}
		return b.ToLuaValue(out)
	case "implements":
		return b.ToLuaValue(k.Implements())
	case "prototype":
		return b.ToLuaValue(k.Prototype())
	case "name":
		return lua.LString(k.Name())
	case "fullName":
		return lua.LString(k.FullName())
	case "id":
		return lua.LString(k.ID())
	}
	return nil
}

func (b *Bridge) registerObserver() {
	b.setMeta(metaObserver, map[string]lua.LGFunction{
		"__index": func(L *lua.LState) int {
			self := L.CheckUserData(1)
			o := self.Value.(*observer.Observer)
			key := L.CheckString(2)

			var fn func(args []any) (any, error)
			switch key {
			case "get":
				fn = func([]any) (any, error) { return o.Get() }
			case "set":
				fn = func(args []any) (any, error) {
					if err := o.Set(argAt(args, 0)); err != nil {
						return nil, err
					}
					return o, nil
				}
			case "addListener":
				fn = func(args []any) (any, error) {
					return nil, o.AddListener(b.listener(argAt(args, 0), o))
				}
			case "removeListener":
				fn = func(args []any) (any, error) {
					return nil, o.RemoveListener(b.listener(argAt(args, 0), o))
				}
			case "removeAllListeners":
				fn = func([]any) (any, error) {
					o.RemoveAllListeners()
					return nil, nil
				}
			case "listenerCount":
				fn = func([]any) (any, error) { return o.ListenerCount(), nil }
			case "writable":
				fn = func([]any) (any, error) { return o.Writable(), nil }
			case "pending":
				fn = func([]any) (any, error) { return o.Pending(), nil }
			case "flush":
				fn = func([]any) (any, error) {
					if err := o.Flush(); err != nil {
						return nil, err
					}
					return b.runtime.Sync(), nil
				}
			case "close":
				fn = func([]any) (any, error) {
					o.Close()
					return nil, nil
				}
			default:
				L.Push(lua.LNil)
				return 1
			}
			L.Push(b.method(self, fn))
			return 1
		},
		"__tostring": func(L *lua.LState) int {
			o := L.CheckUserData(1).Value.(*observer.Observer)
			L.Push(lua.LString(fmt.Sprintf("observer(%v)", o.Raw())))
			return 1
		},
	})
}

// listener returns the engine listener for fn. Lua listeners of a delayed
// observer are queued to the runtime.
func (b *Bridge) listener(fn any, o *observer.Observer) any {
	f, ok := fn.(*value.Function)
	if !ok || o.Delay() <= 0 {
		return fn
	}
	if lfn, fromLua := b.origins[f]; fromLua {
		return b.queuedFunction(lfn)
	}
	return fn
}

func (b *Bridge) registerNamespace() {
	b.setMeta(metaNamespace, map[string]lua.LGFunction{
		"__index": func(L *lua.LState) int {
			self := L.CheckUserData(1)
			ns := self.Value.(*namespace.Namespace)
			key := L.CheckString(2)

			if member := b.namespaceMember(self, ns, key); member != nil {
				L.Push(member)
				return 1
			}
			v, _ := ns.Resolve(key)
			L.Push(b.ToLuaValue(v))
			return 1
		},
		"__tostring": func(L *lua.LState) int {
			ns := L.CheckUserData(1).Value.(*namespace.Namespace)
			if ns.IsGlobal() {
				L.Push(lua.LString("namespace(global)"))
				return 1
			}
			L.Push(lua.LString(fmt.Sprintf("namespace(%s)", ns.Name())))
			return 1
		},
	})
}

func (b *Bridge) namespaceMember(self *lua.LUserData, ns *namespace.Namespace, key string) lua.LValue {
	switch key {
	case "create":
		return b.method(self, func(args []any) (any, error) {
			name, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("%w: class name must be a string", value.ErrTypeConstraint)
			}
			return ns.Create(name, args[1:]...)
		})
	case "get":
		return b.method(self, func(args []any) (any, error) {
			name, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("%w: class name must be a string", value.ErrTypeConstraint)
			}
			if cb := argAt(args, 1); cb != nil {
				return nil, b.load(ns, name, cb)
			}
			if k := ns.Get(name); k != nil {
				return k, nil
			}
			return nil, nil
		})
	case "load":
		return b.method(self, func(args []any) (any, error) {
			name, ok := argString(args, 0)
			if !ok {
				return nil, fmt.Errorf("%w: class name must be a string", value.ErrTypeConstraint)
			}
			return nil, b.load(ns, name, argAt(args, 1))
		})
	case "has":
		return b.method(self, func(args []any) (any, error) {
			name, _ := argString(args, 0)
			return ns.Has(name), nil
		})
	case "destroy":
		return b.method(self, func(args []any) (any, error) {
			name, _ := argString(args, 0)
			ns.Destroy(name)
			return nil, nil
		})
	case "setAutoloader":
		return b.method(self, func(args []any) (any, error) {
			fn := argAt(args, 0)
			if !value.IsFunction(fn) {
				return nil, fmt.Errorf("%w: autoloader must be a function", value.ErrTypeConstraint)
			}
			return nil, ns.SetAutoloader(b.autoloader(fn))
		})
	case "classes":
		return b.method(self, func([]any) (any, error) {
			return ns.Classes(), nil
		})
	case "name":
		return lua.LString(ns.Name())
	}
	return nil
}

// load resolves name through the namespace and passes the class, or nil, to
// the callback cb.
func (b *Bridge) load(ns *namespace.Namespace, name string, cb any) error {
	if _, ok := cb.(value.Callable); !ok {
		return fmt.Errorf("%w: load callback must be a function", value.ErrTypeConstraint)
	}
	var cbErr error
	ns.Load(name, func(k *class.Class) {
		var arg any
		if k != nil {
			arg = k
		}
		if _, err := b.invokePlain(cb, arg); err != nil && cbErr == nil {
			cbErr = err
		}
	})
	return cbErr
}

// autoloader adapts a script autoloader fn(name, done) to the namespace.
func (b *Bridge) autoloader(fn any) namespace.Autoloader {
	return func(name string, done func(*class.Class)) {
		called := false
		doneFn := b.hostFunc(func(L *lua.LState) (any, error) {
			if called {
				return nil, nil
			}
			called = true
			k, _ := b.ToGoValue(L.Get(1)).(*class.Class)
			done(k)
			return nil, nil
		})
		if _, err := b.invokePlain(fn, name, doneFn); err != nil {
			b.runtime.logger.Warn("autoloader failed",
				zap.String("class", name),
				zap.Error(err),
			)
			if !called {
				called = true
				done(nil)
			}
		}
	}
}

// invokePlain calls fn without a receiver. Lua functions get exactly args.
func (b *Bridge) invokePlain(fn any, args ...any) (any, error) {
	if f, ok := fn.(*value.Function); ok {
		if lfn, fromLua := b.origins[f]; fromLua {
			largs := make([]lua.LValue, len(args))
			for i, a := range args {
				largs[i] = b.ToLuaValue(a)
			}
			ret, err := b.call(lfn, largs...)
			if err != nil {
				return nil, err
			}
			return b.ToGoValue(ret), nil
		}
	}
	return value.CallFunc(fn, nil, args...)
}

func argAt(args []any, i int) any {
	if i < 0 || i >= len(args) {
		return nil
	}
	return args[i]
}

func argString(args []any, i int) (string, bool) {
	s, ok := argAt(args, i).(string)
	return s, ok
}
