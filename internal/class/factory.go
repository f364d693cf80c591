package class

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/value"
)

// Member names the factory manages itself.
const (
	keyInit        = "init"
	keyInvoke      = "invoke"
	keyApplicate   = "applicate"
	keyConstructor = "constructor"
	keySelf        = "self"
)

// keywords are structural names rejected by AddProperty and RemoveProperty.
var keywords = map[string]bool{
	"superclass":     true,
	"subclass":       true,
	"implement":      true,
	"extend":         true,
	keyApplicate:     true,
	"addProperty":    true,
	"removeProperty": true,
	keyConstructor:   true,
	keySelf:          true,
}

// Factory turns descriptors into classes, routing property installation
// through its mutator registry.
type Factory struct {
	registry *Registry
	base     *Class
	logger   *zap.Logger
}

// FactoryOption configures a Factory.
type FactoryOption func(*Factory)

// WithLogger sets the logger used for class lifecycle events.
func WithLogger(l *zap.Logger) FactoryOption {
	return func(f *Factory) {
		if l != nil {
			f.logger = l
		}
	}
}

// NewFactory creates a factory bound to registry. A nil registry gets a fresh
// empty one.
func NewFactory(registry *Registry, opts ...FactoryOption) *Factory {
	if registry == nil {
		registry = NewRegistry()
	}
	f := &Factory{
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	f.base = f.newBase()
	return f
}

// Registry returns the mutator registry.
func (f *Factory) Registry() *Registry { return f.registry }

// Base returns the root class every other class descends from.
func (f *Factory) Base() *Class { return f.base }

func (f *Factory) newBase() *Class {
	k := &Class{
		id:          newID(),
		factory:     f,
		proto:       value.NewObject(value.ObjectPrototype),
		parentProto: value.ObjectPrototype,
		statics:     value.NewObject(nil),
		state:       make(map[string]any),
	}
	k.proto.Set(keyInit, value.Fn(func(c *value.Call) (any, error) { return nil, nil }))
	k.invoke = defaultInvoke
	k.defaultInvoke = true
	k.proto.Set(keyConstructor, k)
	k.proto.Set(keySelf, k)
	return k
}

// defaultInvoke constructs the called class from the call arguments.
var defaultInvoke = value.Fn(func(c *value.Call) (any, error) {
	k, ok := c.This.(*Class)
	if !ok {
		return nil, fmt.Errorf("%w: invoke receiver is %T, not a class", value.ErrTypeConstraint, c.This)
	}
	return k.Applicate(c.Args)
})

// Create builds a new class. Arguments are interpreted by count:
//
//	Create(descriptor)
//	Create(parent, descriptor)         // parent is a *Class or a plain function
//	Create(trait, descriptor)          // trait is anything else, or a []any of traits
//	Create(parent, traits, descriptor)
//
// A descriptor is a value.Props or *value.Object. When the parent is a plain
// function it becomes the init body unless the descriptor defines one.
func (f *Factory) Create(args ...any) (*Class, error) {
	switch len(args) {
	case 0:
		return nil, fmt.Errorf("%w: no descriptor", ErrInvalidConstruction)
	case 1:
		return f.define(nil, nil, args[0])
	case 2:
		if isParentLike(args[0]) {
			return f.define(args[0], nil, args[1])
		}
		return f.define(nil, args[0], args[1])
	default:
		return f.define(args[0], args[1], args[2])
	}
}

// CreateWith builds a class from already-typed parts. A nil parent means the
// base class.
func (f *Factory) CreateWith(parent *Class, traits []any, desc value.Props) (*Class, error) {
	var p any
	if parent != nil {
		p = parent
	}
	var t any
	if traits != nil {
		t = traits
	}
	return f.define(p, t, desc)
}

func isParentLike(v any) bool {
	if IsClass(v) {
		return true
	}
	_, ok := v.(*value.Function)
	return ok
}

// define implements the construction algorithm.
func (f *Factory) define(parentArg, traitArg, descArg any) (*Class, error) {
	desc, err := toDescriptor(descArg)
	if err != nil {
		return nil, err
	}

	parent := f.base
	switch p := parentArg.(type) {
	case nil:
	case *Class:
		if p.factory != f {
			return nil, fmt.Errorf("%w: parent %s belongs to another factory", value.ErrTypeConstraint, p)
		}
		parent = p
	case *value.Function:
		if _, ok := desc[keyInit]; !ok {
			desc[keyInit] = p
		}
	default:
		return nil, fmt.Errorf("%w: parent must be a class or function, got %T", value.ErrTypeConstraint, parentArg)
	}

	traits, err := toTraits(traitArg)
	if err != nil {
		return nil, err
	}

	k := &Class{
		id:          newID(),
		factory:     f,
		superclass:  parent,
		subclasses:  make([]*Class, 0),
		parentProto: parent.proto,
		proto:       value.NewObject(parent.proto),
		statics:     value.NewObject(nil),
		state:       make(map[string]any),
	}

	// applicate cannot be overridden
	delete(desc, keyApplicate)

	// invoke is consumed, not installed
	if inv, ok := desc[keyInvoke]; ok {
		fn, isFn := inv.(value.Callable)
		if !isFn {
			return nil, fmt.Errorf("%w: invoke must be callable, got %T", value.ErrTypeConstraint, inv)
		}
		k.invoke = fn
		delete(desc, keyInvoke)
	} else if !parent.defaultInvoke {
		k.invoke = parent.invoke
	} else {
		k.invoke = defaultInvoke
		k.defaultInvoke = true
	}

	k.implement = make([]any, 0, len(parent.implement)+len(traits))
	k.implement = append(k.implement, parent.implement...)
	k.implement = append(k.implement, traits...)
	parent.subclasses = append(parent.subclasses, k)

	for _, trait := range traits {
		if err := k.copyTrait(trait, desc); err != nil {
			k.Detach()
			return nil, err
		}
	}

	if err := f.registry.runCreate(k, parent); err != nil {
		k.Detach()
		return nil, err
	}

	if err := k.AddProperties(desc); err != nil {
		k.Detach()
		return nil, err
	}

	k.proto.Set(keyConstructor, k)
	k.proto.Set(keySelf, k)

	f.logger.Debug("class created",
		zap.String("class", k.id),
		zap.String("parent", parent.String()),
		zap.Int("traits", len(traits)),
		zap.Int("properties", len(desc)),
	)
	return k, nil
}

// copyTrait installs the members of a trait that neither the descriptor nor
// the immediate parent's own prototype define.
func (k *Class) copyTrait(trait any, desc value.Props) error {
	var (
		names []string
		get   func(string) any
	)
	switch t := trait.(type) {
	case *Class:
		names = t.proto.Keys()
		get = func(n string) any {
			v, _ := t.proto.Own(n)
			if fn, ok := v.(*value.Function); ok && fn.Wrapped() {
				return value.Unwrap(fn)
			}
			return v
		}
	case *value.Object:
		names = t.Keys()
		get = func(n string) any { v, _ := t.Own(n); return v }
	case value.Props:
		names = t.Keys()
		get = func(n string) any { return t[n] }
	}

	for _, name := range names {
		if k.proto.HasOwn(name) || k.parentProto.HasOwn(name) {
			continue
		}
		if _, inDesc := desc[name]; inDesc {
			continue
		}
		if err := k.AddProperty(name, get(name)); err != nil {
			return err
		}
	}
	return nil
}

// toDescriptor copies the descriptor so consumed entries can be removed
// without touching the caller's value.
func toDescriptor(v any) (value.Props, error) {
	switch d := v.(type) {
	case nil:
		return value.Props{}, nil
	case value.Props:
		return d.Clone(), nil
	case map[string]any:
		return value.Props(d).Clone(), nil
	case *value.Object:
		out := make(value.Props, d.Len())
		for _, key := range d.Keys() {
			out[key], _ = d.Own(key)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: descriptor must be a property bag, got %T", value.ErrTypeConstraint, v)
}

func toTraits(v any) ([]any, error) {
	if v == nil {
		return nil, nil
	}
	list, ok := v.([]any)
	if !ok {
		list = []any{v}
	}
	out := make([]any, 0, len(list))
	for _, t := range list {
		switch tt := t.(type) {
		case *Class, *value.Object, value.Props:
			out = append(out, tt)
		case map[string]any:
			out = append(out, value.Props(tt))
		default:
			return nil, fmt.Errorf("%w: trait must be a class or property bag, got %T", value.ErrTypeConstraint, t)
		}
	}
	return out, nil
}
