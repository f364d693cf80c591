// Package observer provides a boxed mutable value that notifies listeners
// when it changes.
//
// An Observer applies an optional getter on Get and an optional setter on
// Set. Listeners run only when the stored value actually changes (strict
// identity), and receive the new and previous values:
//
//	o := observer.New(10)
//	o.AddListener(value.Fn(func(c *value.Call) (any, error) {
//	    fmt.Println("changed", c.Arg(1), "->", c.Arg(0))
//	    return nil, nil
//	}))
//	o.Set(20)
//
// With a delay, changes inside the delay window coalesce into a single
// notification carrying the latest value and the value before the burst.
package observer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/value"
)

// Descriptor describes an observable value.
type Descriptor struct {
	// Value is the initial stored value.
	Value any

	// Getter transforms the stored value on Get. Called with the stored value.
	Getter value.Callable

	// Setter transforms an incoming value before it is stored. Called with
	// the incoming and the current stored value.
	Setter value.Callable

	// Writable gates Set. A read-only observer ignores Set.
	Writable bool

	// Delay coalesces notifications. Zero notifies synchronously.
	Delay time.Duration
}

// Observer is a boxed value with change listeners. It is safe for concurrent
// use; listeners are called without the lock held.
type Observer struct {
	mu sync.Mutex

	value    any
	getter   value.Callable
	setter   value.Callable
	writable bool
	delay    time.Duration

	listeners []value.Callable

	// Debounce state
	timer      *time.Timer
	pending    bool
	pendingNew any
	pendingOld any

	closed bool
	logger *zap.Logger
}

// Option configures an Observer.
type Option func(*Observer)

// WithGetter sets the Get transform.
func WithGetter(fn value.Callable) Option {
	return func(o *Observer) { o.getter = fn }
}

// WithSetter sets the Set transform.
func WithSetter(fn value.Callable) Option {
	return func(o *Observer) { o.setter = fn }
}

// ReadOnly makes Set a no-op.
func ReadOnly() Option {
	return func(o *Observer) { o.writable = false }
}

// WithDelay coalesces notifications fired within d.
func WithDelay(d time.Duration) Option {
	return func(o *Observer) {
		if d > 0 {
			o.delay = d
		}
	}
}

// WithLogger sets the logger used for listener failures during delayed
// delivery.
func WithLogger(l *zap.Logger) Option {
	return func(o *Observer) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates a writable observer holding initial.
func New(initial any, opts ...Option) *Observer {
	o := &Observer{
		value:    initial,
		writable: true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FromDescriptor creates an observer from d.
func FromDescriptor(d Descriptor, opts ...Option) *Observer {
	o := New(d.Value, opts...)
	o.getter = d.Getter
	o.setter = d.Setter
	o.writable = d.Writable
	if d.Delay > 0 {
		o.delay = d.Delay
	}
	return o
}

// Get returns the stored value, passed through the getter if one is set.
func (o *Observer) Get() (any, error) {
	o.mu.Lock()
	v, getter := o.value, o.getter
	o.mu.Unlock()

	if getter == nil {
		return v, nil
	}
	return getter.Apply(&value.Call{This: o, Args: []any{v}})
}

// Raw returns the stored value without the getter.
func (o *Observer) Raw() any {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.value
}

// Writable reports whether Set stores values.
func (o *Observer) Writable() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writable
}

// Delay returns the notification delay. Zero means listeners run inside Set.
func (o *Observer) Delay() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.delay
}

// Set stores v, passed through the setter if one is set, and notifies
// listeners if the stored value changed. Set on a read-only observer does
// nothing.
func (o *Observer) Set(v any) error {
	o.mu.Lock()
	if !o.writable {
		o.mu.Unlock()
		return nil
	}
	old, setter := o.value, o.setter
	o.mu.Unlock()

	if setter != nil {
		transformed, err := setter.Apply(&value.Call{This: o, Args: []any{v, old}})
		if err != nil {
			return err
		}
		v = transformed
	}

	o.mu.Lock()
	old = o.value
	if value.Same(v, old) {
		o.mu.Unlock()
		return nil
	}
	o.value = v

	if o.delay > 0 {
		o.schedule(v, old)
		o.mu.Unlock()
		return nil
	}
	listeners := o.snapshot()
	closed := o.closed
	o.mu.Unlock()

	if closed {
		return nil
	}
	return o.notify(listeners, v, old)
}

// schedule records a pending notification and restarts the delay timer.
// Must be called with o.mu held.
func (o *Observer) schedule(newV, oldV any) {
	if o.closed {
		return
	}
	if !o.pending {
		o.pendingOld = oldV
		o.pending = true
	}
	o.pendingNew = newV

	if o.timer != nil {
		o.timer.Stop()
	}
	o.timer = time.AfterFunc(o.delay, o.fire)
}

func (o *Observer) fire() {
	if err := o.Flush(); err != nil {
		o.logger.Warn("observer listener failed", zap.Error(err))
	}
}

// Flush delivers a pending delayed notification immediately.
func (o *Observer) Flush() error {
	o.mu.Lock()
	if !o.pending {
		o.mu.Unlock()
		return nil
	}
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	newV, oldV := o.pendingNew, o.pendingOld
	o.pending = false
	o.pendingNew, o.pendingOld = nil, nil
	listeners := o.snapshot()
	o.mu.Unlock()

	if value.Same(newV, oldV) {
		return nil
	}
	return o.notify(listeners, newV, oldV)
}

// Pending reports whether a delayed notification is waiting.
func (o *Observer) Pending() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.pending
}

// Close drops any pending notification and stops further notifications.
// It is safe to call Close multiple times.
func (o *Observer) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}
	o.closed = true
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	o.pending = false
	o.pendingNew, o.pendingOld = nil, nil
}

// AddListener appends fn to the listener list. Listeners are called with the
// new and previous values.
func (o *Observer) AddListener(fn any) error {
	l, ok := fn.(value.Callable)
	if !ok || fn == nil {
		return fmt.Errorf("%w: listener must be callable, got %T", value.ErrTypeConstraint, fn)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = append(o.listeners, l)
	return nil
}

// RemoveListener removes the first registration of fn. Removing a listener
// that was never added is a no-op.
func (o *Observer) RemoveListener(fn any) error {
	if _, ok := fn.(value.Callable); !ok || fn == nil {
		return fmt.Errorf("%w: listener must be callable, got %T", value.ErrTypeConstraint, fn)
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	for i, l := range o.listeners {
		if value.Same(l, fn) {
			o.listeners = append(o.listeners[:i], o.listeners[i+1:]...)
			return nil
		}
	}
	return nil
}

// RemoveAllListeners clears the listener list.
func (o *Observer) RemoveAllListeners() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.listeners = nil
}

// ListenerCount returns the number of registered listeners.
func (o *Observer) ListenerCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.listeners)
}

// snapshot copies the listener list. Must be called with o.mu held.
func (o *Observer) snapshot() []value.Callable {
	out := make([]value.Callable, len(o.listeners))
	copy(out, o.listeners)
	return out
}

// notify calls every listener in registration order. All listeners run even
// if some fail.
func (o *Observer) notify(listeners []value.Callable, newV, oldV any) error {
	var errs []error
	for _, l := range listeners {
		if _, err := l.Apply(&value.Call{This: o, Args: []any{newV, oldV}}); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
