package value

import "fmt"

// Func is the body of a callable member.
type Func func(c *Call) (any, error)

// Callable is implemented by every value that can be invoked.
type Callable interface {
	Apply(c *Call) (any, error)
}

// Function is a callable member. A Function created by Wrap keeps a
// back-reference to the function it wraps and the implementation its
// Call.Parent resolves to.
type Function struct {
	fn Func

	// Parent chaining
	original   *Function
	parent     Callable
	parentHome *Object

	// Late parent lookup, set by Chain
	parentProto *Object
	parentName  string

	// Pinned receiver
	this    any
	pinned  bool
	inner   Callable
	aliasOf string
}

// Fn creates a Function from fn.
func Fn(fn Func) *Function {
	return &Function{fn: fn}
}

// Wrap returns a Function that runs fn with parent as the implementation
// Call.Parent resolves to. home is the object parent was found on.
func Wrap(fn *Function, parent Callable, home *Object) *Function {
	return &Function{
		original:   fn,
		parent:     parent,
		parentHome: home,
	}
}

// Chain returns a Function that runs fn with Call.Parent resolving to the
// member name found on proto when the call happens. Members added to or
// removed from proto's chain later are seen by the next call.
func Chain(fn *Function, proto *Object, name string) *Function {
	return &Function{
		original:    fn,
		parentProto: proto,
		parentName:  name,
	}
}

// Bind returns a Function that always runs fn with this as the receiver,
// whatever receiver the call site supplies.
func Bind(fn Callable, this any) *Function {
	return &Function{
		inner:  fn,
		this:   this,
		pinned: true,
	}
}

// Alias returns a Function that looks up target on the receiver at call time
// and delegates to it with the same arguments.
func Alias(target string) *Function {
	return &Function{aliasOf: target}
}

// Store records original as the function w wraps.
func Store(w, original *Function) *Function {
	w.original = original
	return w
}

// Original returns the wrapped function, or nil if f is not a wrapper.
func (f *Function) Original() *Function {
	return f.original
}

// Wrapped reports whether f is a parent-chaining wrapper.
func (f *Function) Wrapped() bool {
	return f.original != nil
}

// Parent returns the implementation a wrapper chains to, or nil.
func (f *Function) Parent() Callable {
	parent, _ := f.resolveParent()
	return parent
}

func (f *Function) resolveParent() (Callable, *Object) {
	if f.parentProto == nil {
		return f.parent, f.parentHome
	}
	v, home := f.parentProto.Lookup(f.parentName)
	parent, ok := v.(Callable)
	if !ok {
		return nil, nil
	}
	return parent, home
}

// Unwrap follows stored originals to the innermost function.
func Unwrap(f *Function) *Function {
	for f != nil && f.original != nil {
		f = f.original
	}
	return f
}

// AliasTarget returns the aliased member name, or "" if f is not an alias.
func (f *Function) AliasTarget() string {
	return f.aliasOf
}

// Apply implements Callable.
func (f *Function) Apply(c *Call) (any, error) {
	if c == nil {
		c = &Call{}
	}
	if f.pinned {
		pinned := *c
		pinned.This = f.this
		pinned.parent = nil
		return f.inner.Apply(&pinned)
	}
	if f.original != nil {
		chained := *c
		chained.parent, chained.parentHome = f.resolveParent()
		return f.original.Apply(&chained)
	}
	if f.aliasOf != "" {
		return f.applyAlias(c)
	}
	if f.fn == nil {
		return nil, nil
	}
	return f.fn(c)
}

// Call invokes f with the given receiver and arguments.
func (f *Function) Call(this any, args ...any) (any, error) {
	return f.Apply(&Call{This: this, Args: args})
}

func (f *Function) applyAlias(c *Call) (any, error) {
	var (
		target any
		home   *Object
	)
	switch this := c.This.(type) {
	case *Object:
		target, home = this.Lookup(f.aliasOf)
	case Holder:
		target, _ = this.Get(f.aliasOf)
	}
	fn, ok := target.(Callable)
	if !ok {
		return nil, fmt.Errorf("%w: alias target %q", ErrNotCallable, f.aliasOf)
	}
	if Same(fn, f) {
		return nil, fmt.Errorf("%w: alias %q refers to itself", ErrNotCallable, f.aliasOf)
	}
	return fn.Apply(&Call{This: c.This, Args: c.Args, Home: home})
}

// CallFunc invokes v with the given receiver and arguments.
func CallFunc(v any, this any, args ...any) (any, error) {
	fn, ok := v.(Callable)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotCallable, v)
	}
	return fn.Apply(&Call{This: this, Args: args})
}

// Method invokes the member name on h. For objects the home object is
// recorded so InvokeParent can resolve from it.
func Method(h Holder, name string, args ...any) (any, error) {
	if o, ok := h.(*Object); ok {
		return o.Call(name, args...)
	}
	v, _ := h.Get(name)
	fn, ok := v.(Callable)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotCallable, name)
	}
	return fn.Apply(&Call{This: h, Args: args})
}
