package value

import (
	"fmt"
	"sort"
)

// Props is a plain property bag. Keys are visited in sorted order.
type Props map[string]any

// Keys returns the keys of the bag in sorted order.
func (p Props) Keys() []string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Get returns the value stored under name.
func (p Props) Get(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}

// Set stores v under name.
func (p Props) Set(name string, v any) {
	p[name] = v
}

// Delete removes name from the bag.
func (p Props) Delete(name string) bool {
	_, ok := p[name]
	delete(p, name)
	return ok
}

// Clone returns a shallow copy of the bag.
func (p Props) Clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Holder is anything that carries named properties.
type Holder interface {
	// Get returns the value for name, following any delegation.
	Get(name string) (any, bool)

	// Set stores an own property.
	Set(name string, v any)

	// Delete removes an own property and reports whether it existed.
	Delete(name string) bool

	// Keys returns the own property names in enumeration order.
	Keys() []string
}

// Object is an ordered property map with a single prototype link.
// Objects are not safe for concurrent mutation.
type Object struct {
	proto *Object
	props map[string]any
	order []string
}

// NewObject creates an empty object delegating to proto (which may be nil).
func NewObject(proto *Object) *Object {
	return &Object{
		proto: proto,
		props: make(map[string]any),
	}
}

// ObjectFrom creates an object without a prototype holding a copy of props.
func ObjectFrom(props Props) *Object {
	o := NewObject(nil)
	for _, k := range props.Keys() {
		o.Set(k, props[k])
	}
	return o
}

// Proto returns the prototype link.
func (o *Object) Proto() *Object {
	return o.proto
}

// Get returns the value for name, walking the prototype chain.
func (o *Object) Get(name string) (any, bool) {
	v, owner := o.Lookup(name)
	return v, owner != nil
}

// Lookup returns the value for name together with the object in the chain
// that owns it. The owner is nil when the name is not found.
func (o *Object) Lookup(name string) (any, *Object) {
	for cur := o; cur != nil; cur = cur.proto {
		if v, ok := cur.props[name]; ok {
			return v, cur
		}
	}
	return nil, nil
}

// Own returns an own property, ignoring the prototype chain.
func (o *Object) Own(name string) (any, bool) {
	v, ok := o.props[name]
	return v, ok
}

// HasOwn reports whether name is an own property.
func (o *Object) HasOwn(name string) bool {
	_, ok := o.props[name]
	return ok
}

// Set stores an own property. New names are appended to the enumeration order.
func (o *Object) Set(name string, v any) {
	if _, exists := o.props[name]; !exists {
		o.order = append(o.order, name)
	}
	o.props[name] = v
}

// Delete removes an own property.
func (o *Object) Delete(name string) bool {
	if _, exists := o.props[name]; !exists {
		return false
	}
	delete(o.props, name)
	for i, k := range o.order {
		if k == name {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return true
}

// Keys returns the own property names in insertion order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.order))
	copy(keys, o.order)
	return keys
}

// Len returns the number of own properties.
func (o *Object) Len() int {
	return len(o.order)
}

// IsPrototypeOf reports whether o appears in the prototype chain of other.
func (o *Object) IsPrototypeOf(other *Object) bool {
	if other == nil {
		return false
	}
	for cur := other.proto; cur != nil; cur = cur.proto {
		if cur == o {
			return true
		}
	}
	return false
}

// Call invokes the method name with o as the receiver.
func (o *Object) Call(name string, args ...any) (any, error) {
	v, owner := o.Lookup(name)
	fn, ok := v.(Callable)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotCallable, name)
	}
	return fn.Apply(&Call{This: o, Args: args, Home: owner})
}

// MustGet returns the value for name or nil.
func (o *Object) MustGet(name string) any {
	v, _ := o.Get(name)
	return v
}

// ObjectPrototype is the root every class prototype chain ends in. It stands
// in for the host's built-in object members.
var ObjectPrototype = newObjectPrototype()

func newObjectPrototype() *Object {
	root := NewObject(nil)
	root.Set("toString", Fn(func(c *Call) (any, error) {
		return "[object Object]", nil
	}))
	root.Set("hasOwnProperty", Fn(func(c *Call) (any, error) {
		name, _ := c.Arg(0).(string)
		switch this := c.This.(type) {
		case *Object:
			return this.HasOwn(name), nil
		case Holder:
			for _, k := range this.Keys() {
				if k == name {
					return true, nil
				}
			}
		}
		return false, nil
	}))
	return root
}

// IsBuiltin reports whether v is identical to the root member called name.
func IsBuiltin(name string, v any) bool {
	builtin, ok := ObjectPrototype.Own(name)
	return ok && Same(builtin, v)
}
