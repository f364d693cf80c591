package class

import (
	"fmt"

	"github.com/dshills/classkit/internal/value"
)

// IsKeyword reports whether name is a structural member that AddProperty and
// RemoveProperty ignore.
func (k *Class) IsKeyword(name string) bool {
	return keywords[name] || k.factory.registry.isKeyword(name)
}

// AddProperties installs every entry of props. Props are visited in sorted
// key order, objects in insertion order.
func (k *Class) AddProperties(props any) error {
	switch p := props.(type) {
	case nil:
		return nil
	case value.Props:
		for _, name := range p.Keys() {
			if err := k.AddProperty(name, p[name]); err != nil {
				return err
			}
		}
	case map[string]any:
		return k.AddProperties(value.Props(p))
	case *value.Object:
		for _, name := range p.Keys() {
			v, _ := p.Own(name)
			if err := k.AddProperty(name, v); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: properties must be a property bag, got %T", value.ErrTypeConstraint, props)
	}
	return nil
}

// AddProperty routes a single member to the mutator claiming its prefix, or
// installs it on the prototype with parent chaining.
func (k *Class) AddProperty(name string, v any) error {
	if value.IsBuiltin(name, v) || k.IsKeyword(name) {
		return nil
	}

	if e, stripped, container := k.factory.registry.match(name); e != nil {
		if container {
			return k.addContainer(e, v)
		}
		if e.add == nil {
			return nil
		}
		if err := e.add(k, k.superclass, stripped, v); err != nil {
			return fmt.Errorf("mutator %s: %s: %w", e.name, stripped, err)
		}
		return nil
	}

	k.install(name, v)
	return nil
}

// addContainer expands a container sentinel into prefixed members.
func (k *Class) addContainer(e *entry, v any) error {
	var nested value.Props
	switch c := v.(type) {
	case value.Props:
		nested = c
	case map[string]any:
		nested = value.Props(c)
	case *value.Object:
		for _, key := range c.Keys() {
			item, _ := c.Own(key)
			if err := k.AddProperty(e.prefix+key, item); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: %s expects a property bag, got %T", value.ErrTypeConstraint, e.sentinel, v)
	}
	for _, key := range nested.Keys() {
		if err := k.AddProperty(e.prefix+key, nested[key]); err != nil {
			return err
		}
	}
	return nil
}

// install stores an ordinary member on the prototype. A function overriding
// an inherited function is chained so Call.Parent reaches the nearest
// inherited implementation at call time.
func (k *Class) install(name string, v any) {
	fn, isFn := v.(*value.Function)
	if !isFn {
		k.proto.Set(name, v)
		return
	}

	installed := fn
	if inherited, home := k.parentProto.Lookup(name); home != nil {
		if _, ok := inherited.(*value.Function); ok {
			installed = value.Chain(fn, k.parentProto, name)
		}
	}
	k.proto.Set(name, installed)
	k.chainDescendants(name)
}

// chainDescendants chains the first function named name found below k on
// each subclass path. Functions that are already chained resolve their
// parent on each call and are left alone.
func (k *Class) chainDescendants(name string) {
	for _, sub := range k.subclasses {
		own, ok := sub.proto.Own(name)
		if !ok {
			sub.chainDescendants(name)
			continue
		}
		subFn, ok := own.(*value.Function)
		if !ok || subFn.Wrapped() {
			continue
		}
		sub.proto.Set(name, value.Chain(subFn, sub.parentProto, name))
	}
}

// RemoveProperty removes a member. Removing a member that was never added is
// a no-op.
func (k *Class) RemoveProperty(name string) error {
	if k.IsKeyword(name) {
		return nil
	}

	if e, stripped, container := k.factory.registry.match(name); e != nil {
		if container || e.remove == nil {
			return nil
		}
		if err := e.remove(k, stripped); err != nil {
			return fmt.Errorf("mutator %s: %s: %w", e.name, stripped, err)
		}
		return nil
	}

	current, ok := k.proto.Own(name)
	if !ok {
		return nil
	}
	if _, isFn := current.(value.Callable); isFn {
		for _, sub := range k.subclasses {
			own, ok := sub.proto.Own(name)
			if !ok {
				continue
			}
			subFn, ok := own.(*value.Function)
			if !ok || !subFn.Wrapped() || !value.Same(subFn.Parent(), current) {
				continue
			}
			sub.proto.Set(name, subFn.Original())
		}
	}
	k.proto.Delete(name)
	return nil
}
