package value

import "fmt"

// Call is the context of a single invocation.
type Call struct {
	// This is the receiver.
	This any

	// Args are the positional arguments.
	Args []any

	// Home is the object the running member was found on. It is nil for
	// detached calls.
	Home *Object

	// Implementation shadowed by the running member
	parent     Callable
	parentHome *Object
}

// Arg returns the i-th argument or nil.
func (c *Call) Arg(i int) any {
	if i < 0 || i >= len(c.Args) {
		return nil
	}
	return c.Args[i]
}

// NArg returns the number of arguments.
func (c *Call) NArg() int {
	return len(c.Args)
}

// Get reads a property of the receiver.
func (c *Call) Get(name string) any {
	h, ok := c.This.(Holder)
	if !ok {
		return nil
	}
	v, _ := h.Get(name)
	return v
}

// Set writes a property of the receiver. It is a no-op for receivers that
// cannot hold properties.
func (c *Call) Set(name string, v any) {
	if h, ok := c.This.(Holder); ok {
		h.Set(name, v)
	}
}

// HasParent reports whether the running member shadows an implementation.
func (c *Call) HasParent() bool {
	return c.parent != nil
}

// Parent invokes the implementation the running member overrides, with the
// same receiver.
func (c *Call) Parent(args ...any) (any, error) {
	if c.parent == nil {
		return nil, fmt.Errorf("%w: no overridden implementation", ErrNoSuchParentMethod)
	}
	return c.parent.Apply(&Call{This: c.This, Args: args, Home: c.parentHome})
}

// InvokeParent invokes the member name as defined on the prototype of the
// running member's home object. While it runs, nested InvokeParent calls
// resolve from the object that member was found on.
func (c *Call) InvokeParent(name string, args ...any) (any, error) {
	if c.Home == nil || c.Home.Proto() == nil {
		return nil, fmt.Errorf("%w: %q (no parent prototype)", ErrNoSuchParentMethod, name)
	}
	v, owner := c.Home.Proto().Lookup(name)
	fn, ok := v.(Callable)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchParentMethod, name)
	}
	return fn.Apply(&Call{This: c.This, Args: args, Home: owner})
}
