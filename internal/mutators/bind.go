package mutators

import (
	"fmt"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/value"
)

// Bind installs prototype functions that every instance receives as a
// closure pinned to the instance. The bound name list is inherited by copy.
type Bind struct{}

// Name implements class.Mutator.
func (*Bind) Name() string { return NameBind }

// Bindings returns the bound member names of k in binding order.
func Bindings(k *class.Class) []string {
	names, _ := k.State(NameBind).([]string)
	out := make([]string, len(names))
	copy(out, names)
	return out
}

func setBindings(k *class.Class, names []string) {
	k.SetState(NameBind, names)
}

// OnCreate copies the parent's bindings.
func (*Bind) OnCreate(k, parent *class.Class) error {
	if parent == nil {
		setBindings(k, nil)
		return nil
	}
	setBindings(k, Bindings(parent))
	return nil
}

// OnPropertyAdd installs fn on the prototype and binds name on k and on
// every descendant that does not define name itself.
func (*Bind) OnPropertyAdd(k, parent *class.Class, name string, v any) error {
	if _, ok := v.(value.Callable); !ok || class.IsClass(v) {
		return fmt.Errorf("%w: bound member %q must be a function, got %T", value.ErrTypeConstraint, name, v)
	}
	if k.IsKeyword(name) {
		return nil
	}
	fn, ok := v.(*value.Function)
	if !ok {
		impl := v.(value.Callable)
		fn = value.Fn(impl.Apply)
	}
	if err := k.AddProperty(name, fn); err != nil {
		return err
	}

	addBinding(k, name)
	descendants(k, func(sub *class.Class) bool {
		if sub.Prototype().HasOwn(name) {
			return false
		}
		addBinding(sub, name)
		return true
	})
	return nil
}

// OnPropertyRemove removes the prototype function and unbinds name on k and
// on every descendant that does not define name itself.
func (*Bind) OnPropertyRemove(k *class.Class, name string) error {
	if err := k.RemoveProperty(name); err != nil {
		return err
	}
	removeBinding(k, name)
	descendants(k, func(sub *class.Class) bool {
		if sub.Prototype().HasOwn(name) {
			return false
		}
		removeBinding(sub, name)
		return true
	})
	return nil
}

// OnInstanceInit gives inst a pinned closure for every bound name. The
// closure resolves the prototype implementation at call time.
func (*Bind) OnInstanceInit(inst *value.Object, k *class.Class) (any, error) {
	proto := inst.Proto()
	for _, name := range Bindings(k) {
		name := name
		inst.Set(name, value.Fn(func(c *value.Call) (any, error) {
			impl, home := proto.Lookup(name)
			fn, ok := impl.(value.Callable)
			if !ok {
				return nil, fmt.Errorf("%w: bound member %q", value.ErrNotCallable, name)
			}
			return fn.Apply(&value.Call{This: inst, Args: c.Args, Home: home})
		}))
	}
	return nil, nil
}

func addBinding(k *class.Class, name string) {
	names, _ := k.State(NameBind).([]string)
	for _, n := range names {
		if n == name {
			return
		}
	}
	setBindings(k, append(names, name))
}

func removeBinding(k *class.Class, name string) {
	names, _ := k.State(NameBind).([]string)
	for i, n := range names {
		if n == name {
			out := make([]string, 0, len(names)-1)
			out = append(out, names[:i]...)
			out = append(out, names[i+1:]...)
			setBindings(k, out)
			return
		}
	}
}
