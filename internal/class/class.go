package class

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/dshills/classkit/internal/value"
)

// Class is a constructor produced by a Factory. Its identity is fixed at
// creation; its property set changes through AddProperty and RemoveProperty.
//
// Classes are not safe for concurrent mutation. The synchronous engine
// assumes a single goroutine drives class construction and property changes.
type Class struct {
	id       string
	name     string
	fullName string

	factory    *Factory
	superclass *Class
	subclasses []*Class
	implement  []any

	proto       *value.Object
	parentProto *value.Object
	statics     *value.Object

	invoke        value.Callable
	defaultInvoke bool

	// Per-mutator auxiliary state, keyed by mutator name
	state map[string]any
}

// ID returns the unique identifier assigned at creation.
func (k *Class) ID() string { return k.id }

// Name returns the simple name the class was registered under, or "".
func (k *Class) Name() string { return k.name }

// FullName returns the fully-qualified dotted name, or "".
func (k *Class) FullName() string { return k.fullName }

// SetName tags the class with its simple and fully-qualified names.
func (k *Class) SetName(name, fullName string) {
	k.name = name
	k.fullName = fullName
}

// String returns a readable label for logs and errors.
func (k *Class) String() string {
	switch {
	case k.fullName != "":
		return k.fullName
	case k.name != "":
		return k.name
	case k.IsBase():
		return "Base"
	default:
		return "Class<" + k.id + ">"
	}
}

// Factory returns the factory that created the class.
func (k *Class) Factory() *Factory { return k.factory }

// Superclass returns the parent class. It is nil only for the base class.
func (k *Class) Superclass() *Class { return k.superclass }

// IsBase reports whether k is its factory's base class.
func (k *Class) IsBase() bool { return k.superclass == nil }

// Subclasses returns the live classes created with k as parent, in creation
// order.
func (k *Class) Subclasses() []*Class {
	out := make([]*Class, len(k.subclasses))
	copy(out, k.subclasses)
	return out
}

// Implements returns the trait sources copied into the class, inherited ones
// first.
func (k *Class) Implements() []any {
	out := make([]any, len(k.implement))
	copy(out, k.implement)
	return out
}

// Prototype returns the object instances delegate to.
func (k *Class) Prototype() *value.Object { return k.proto }

// ParentPrototype returns the prototype of the superclass.
func (k *Class) ParentPrototype() *value.Object { return k.parentProto }

// Statics returns the object holding members installed on the class itself.
func (k *Class) Statics() *value.Object { return k.statics }

// Get returns a static member.
func (k *Class) Get(name string) (any, bool) { return k.statics.Get(name) }

// Set stores a static member.
func (k *Class) Set(name string, v any) { k.statics.Set(name, v) }

// Delete removes a static member.
func (k *Class) Delete(name string) bool { return k.statics.Delete(name) }

// Keys returns the static member names.
func (k *Class) Keys() []string { return k.statics.Keys() }

// State returns the auxiliary state a mutator stored on the class.
func (k *Class) State(mutator string) any { return k.state[mutator] }

// SetState stores auxiliary state for a mutator.
func (k *Class) SetState(mutator string, v any) { k.state[mutator] = v }

// InvokeFunc returns the function used when the class is called without
// construction.
func (k *Class) InvokeFunc() value.Callable { return k.invoke }

// HasDefaultInvoke reports whether the invoke behavior is the generated
// construct-on-call default.
func (k *Class) HasDefaultInvoke() bool { return k.defaultInvoke }

// Extend creates a subclass of k. Arguments follow Factory.Create without the
// parent: an optional trait (or trait list) and a descriptor.
func (k *Class) Extend(args ...any) (*Class, error) {
	return k.factory.Create(append([]any{k}, args...)...)
}

// New constructs an instance. Mutator instance hooks run first, in
// registration order, then init. A non-nil value returned by init (or by a
// hook) replaces the instance and must be an object or a function.
func (k *Class) New(args ...any) (any, error) {
	inst := value.NewObject(k.proto)

	result, err := k.factory.registry.runInstanceInit(inst, k)
	if err != nil {
		return nil, err
	}

	initFn, home := k.proto.Lookup(keyInit)
	if fn, ok := initFn.(value.Callable); ok {
		v, err := fn.Apply(&value.Call{This: inst, Args: args, Home: home})
		if err != nil {
			return nil, err
		}
		if v != nil {
			result = v
		}
	}

	if result == nil {
		return inst, nil
	}
	if !value.IsExtendable(result) {
		return nil, fmt.Errorf("%w: constructor of %s returned %T", value.ErrTypeConstraint, k, result)
	}
	return result, nil
}

// Applicate constructs an instance from an argument slice.
func (k *Class) Applicate(args []any) (any, error) {
	return k.New(args...)
}

// Instantiate constructs an instance and requires it to be an object.
func (k *Class) Instantiate(args ...any) (*value.Object, error) {
	v, err := k.New(args...)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(*value.Object)
	if !ok {
		return nil, fmt.Errorf("%w: constructor of %s returned %T, not an object", value.ErrTypeConstraint, k, v)
	}
	return obj, nil
}

// Invoke performs the call-without-construction behavior.
func (k *Class) Invoke(args ...any) (any, error) {
	return k.invoke.Apply(&value.Call{This: k, Args: args})
}

// Apply implements value.Callable by invoking the class.
func (k *Class) Apply(c *value.Call) (any, error) {
	return k.Invoke(c.Args...)
}

// Detach removes k from its superclass's subclass list.
func (k *Class) Detach() {
	if k.superclass == nil {
		return
	}
	subs := k.superclass.subclasses
	for i, s := range subs {
		if s == k {
			k.superclass.subclasses = append(subs[:i:i], subs[i+1:]...)
			return
		}
	}
}

// IsClass reports whether v is a class produced by a Factory.
func IsClass(v any) bool {
	k, ok := v.(*Class)
	return ok && k != nil
}

// IsSubclassOf reports whether k inherits, directly or transitively, from
// other.
func (k *Class) IsSubclassOf(other *Class) bool {
	for cur := k.superclass; cur != nil; cur = cur.superclass {
		if cur == other {
			return true
		}
	}
	return false
}

// InstanceOf reports whether v is an instance of k or one of its subclasses.
func InstanceOf(v any, k *Class) bool {
	obj, ok := v.(*value.Object)
	if !ok || k == nil {
		return false
	}
	return k.proto.IsPrototypeOf(obj)
}

// Of returns the class an instance was constructed by.
func Of(v any) *Class {
	obj, ok := v.(*value.Object)
	if !ok {
		return nil
	}
	k, _ := obj.MustGet(keyConstructor).(*Class)
	return k
}

func newID() string {
	return uuid.New().String()
}
