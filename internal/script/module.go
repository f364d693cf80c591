package script

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/mutators"
	"github.com/dshills/classkit/internal/observer"
	"github.com/dshills/classkit/internal/value"
)

// installModule builds the classkit module, preloads it for require and
// sets it as a global.
func (r *Runtime) installModule() {
	b := r.bridge
	L := b.L
	mod := L.NewTable()

	funcs := map[string]func(args []any) (any, error){
		"create":           r.luaCreate,
		"namespace":        r.luaNamespace,
		"destroyNamespace": r.luaDestroyNamespace,
		"testNamespace":    r.luaTestNamespace,
		"parent":           r.luaParent,
		"invoke":           r.luaInvoke,
		"observer":         r.luaObserver,
		"addMutator":       r.luaAddMutator,
		"removeMutator":    r.luaRemoveMutator,
		"mutators":         r.luaMutators,
		"isClass":          r.luaIsClass,
		"instanceOf":       r.luaInstanceOf,
		"classOf":          r.luaClassOf,
		"sync":             r.luaSync,
	}
	for name, fn := range funcs {
		fn := fn
		L.SetField(mod, name, b.hostFunc(func(L *lua.LState) (any, error) {
			return fn(b.args(L, 1))
		}))
	}
	L.SetField(mod, "global", b.ToLuaValue(r.namespaces.Global()))

	L.PreloadModule(ModuleName, func(L *lua.LState) int {
		L.Push(mod)
		return 1
	})
	L.SetGlobal(ModuleName, mod)
}

func (r *Runtime) luaCreate(args []any) (any, error) {
	return r.namespaces.Factory().Create(args...)
}

func (r *Runtime) luaNamespace(args []any) (any, error) {
	name, _ := argString(args, 0)
	return r.namespaces.Namespace(name), nil
}

func (r *Runtime) luaDestroyNamespace(args []any) (any, error) {
	name, _ := argString(args, 0)
	r.namespaces.Destroy(name)
	return nil, nil
}

func (r *Runtime) luaTestNamespace(args []any) (any, error) {
	path, _ := argString(args, 0)
	if ns, ok := r.namespaces.Test(path); ok {
		return ns, nil
	}
	return nil, nil
}

func (r *Runtime) luaParent(args []any) (any, error) {
	c, ok := r.bridge.current()
	if !ok {
		return nil, fmt.Errorf("%w: parent() called outside a method", value.ErrNoSuchParentMethod)
	}
	return c.Parent(args...)
}

func (r *Runtime) luaInvoke(args []any) (any, error) {
	name, ok := argString(args, 0)
	if !ok {
		return nil, fmt.Errorf("%w: method name must be a string", value.ErrTypeConstraint)
	}
	c, ok := r.bridge.current()
	if !ok {
		return nil, fmt.Errorf("%w: invoke(%q) called outside a method", value.ErrNoSuchParentMethod, name)
	}
	return c.InvokeParent(name, args[1:]...)
}

func (r *Runtime) luaObserver(args []any) (any, error) {
	d, err := mutators.ParseDescriptor(argAt(args, 0))
	if err != nil {
		return nil, err
	}
	return observer.FromDescriptor(d, observer.WithLogger(r.logger)), nil
}

// luaAddMutator registers a mutator whose hooks are the script functions
// onCreate(k, parent), onPropertyAdd(k, parent, name, v),
// onPropertyRemove(k, name) and onInstanceInit(inst, k).
func (r *Runtime) luaAddMutator(args []any) (any, error) {
	name, ok := argString(args, 0)
	if !ok {
		return nil, fmt.Errorf("%w: mutator name must be a string", value.ErrTypeConstraint)
	}
	hooks, ok := argAt(args, 1).(value.Props)
	if !ok && argAt(args, 1) != nil {
		return nil, fmt.Errorf("%w: mutator handlers must be a table", value.ErrTypeConstraint)
	}

	b := r.bridge
	var h class.Handlers
	if fn, ok := hooks["onCreate"]; ok {
		h.OnCreate = func(k, parent *class.Class) error {
			_, err := b.invokePlain(fn, k, classArg(parent))
			return err
		}
	}
	if fn, ok := hooks["onPropertyAdd"]; ok {
		h.OnPropertyAdd = func(k, parent *class.Class, prop string, v any) error {
			_, err := b.invokePlain(fn, k, classArg(parent), prop, v)
			return err
		}
	}
	if fn, ok := hooks["onPropertyRemove"]; ok {
		h.OnPropertyRemove = func(k *class.Class, prop string) error {
			_, err := b.invokePlain(fn, k, prop)
			return err
		}
	}
	if fn, ok := hooks["onInstanceInit"]; ok {
		h.OnInstanceInit = func(inst *value.Object, k *class.Class) (any, error) {
			return b.invokePlain(fn, inst, k)
		}
	}
	for key, fn := range hooks {
		if !value.IsFunction(fn) {
			return nil, fmt.Errorf("%w: mutator hook %q must be a function", value.ErrTypeConstraint, key)
		}
	}

	return nil, r.namespaces.Factory().Registry().AddMutator(name, h)
}

func (r *Runtime) luaRemoveMutator(args []any) (any, error) {
	name, _ := argString(args, 0)
	return nil, r.namespaces.Factory().Registry().RemoveMutator(name)
}

func (r *Runtime) luaMutators([]any) (any, error) {
	return r.namespaces.Factory().Registry().Names(), nil
}

func (r *Runtime) luaIsClass(args []any) (any, error) {
	return class.IsClass(argAt(args, 0)), nil
}

func (r *Runtime) luaInstanceOf(args []any) (any, error) {
	k, _ := argAt(args, 1).(*class.Class)
	return class.InstanceOf(argAt(args, 0), k), nil
}

func (r *Runtime) luaClassOf(args []any) (any, error) {
	if k := class.Of(argAt(args, 0)); k != nil {
		return k, nil
	}
	return nil, nil
}

func (r *Runtime) luaSync([]any) (any, error) {
	return r.Sync(), nil
}

// classArg keeps a nil class from reaching Lua as a typed nil.
func classArg(k *class.Class) any {
	if k == nil {
		return nil
	}
	return k
}
