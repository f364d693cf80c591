package mutators

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/observer"
	"github.com/dshills/classkit/internal/value"
)

// descriptorKeys are the keys a property bag may use to describe an
// observable instead of being its initial value.
var descriptorKeys = map[string]bool{
	"value":    true,
	"get":      true,
	"set":      true,
	"writable": true,
	"delay":    true,
}

// observables is the per-class observable table.
type observables struct {
	entries map[string]observer.Descriptor
	// names defined by the class itself rather than inherited
	own map[string]bool
}

func (o *observables) clone() *observables {
	out := &observables{
		entries: make(map[string]observer.Descriptor, len(o.entries)),
		own:     make(map[string]bool),
	}
	for name, d := range o.entries {
		out.entries[name] = d
	}
	return out
}

// Observable gives every instance a fresh observer.Observer per declared
// member. The table is inherited by copy and kept in sync with subclasses
// that have not declared the same member themselves.
type Observable struct {
	logger *zap.Logger
}

// NewObservable creates the observable mutator. Observers it creates log
// delayed listener failures to logger.
func NewObservable(logger *zap.Logger) *Observable {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Observable{logger: logger}
}

// Name implements class.Mutator.
func (*Observable) Name() string { return NameObservable }

func table(k *class.Class) *observables {
	if k == nil {
		return nil
	}
	t, _ := k.State(NameObservable).(*observables)
	return t
}

func ensureTable(k *class.Class) *observables {
	t := table(k)
	if t == nil {
		t = &observables{entries: map[string]observer.Descriptor{}, own: map[string]bool{}}
		k.SetState(NameObservable, t)
	}
	return t
}

// Observables returns the observable member names of k, sorted.
func Observables(k *class.Class) []string {
	t := table(k)
	if t == nil {
		return nil
	}
	names := make([]string, 0, len(t.entries))
	for name := range t.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OnCreate copies the parent's table.
func (*Observable) OnCreate(k, parent *class.Class) error {
	if pt := table(parent); pt != nil {
		k.SetState(NameObservable, pt.clone())
		return nil
	}
	ensureTable(k)
	return nil
}

// OnPropertyAdd declares an observable. v is either a descriptor bag with a
// "value" key (and optionally get, set, writable, delay) or the initial value.
func (*Observable) OnPropertyAdd(k, parent *class.Class, name string, v any) error {
	if k.IsKeyword(name) {
		return nil
	}
	d, err := ParseDescriptor(v)
	if err != nil {
		return fmt.Errorf("observable %q: %w", name, err)
	}
	t := ensureTable(k)
	t.entries[name] = d
	t.own[name] = true

	descendants(k, func(sub *class.Class) bool {
		st := ensureTable(sub)
		if st.own[name] {
			return false
		}
		st.entries[name] = d
		return true
	})
	return nil
}

// OnPropertyRemove drops an observable. An inherited declaration the class
// had overridden becomes visible again.
func (*Observable) OnPropertyRemove(k *class.Class, name string) error {
	t := table(k)
	if t == nil {
		return nil
	}
	if _, ok := t.entries[name]; !ok {
		return nil
	}

	inherited, hasInherited := observer.Descriptor{}, false
	if pt := table(k.Superclass()); pt != nil {
		inherited, hasInherited = pt.entries[name]
	}
	apply := func(st *observables) {
		if hasInherited {
			st.entries[name] = inherited
		} else {
			delete(st.entries, name)
		}
	}

	apply(t)
	delete(t.own, name)
	descendants(k, func(sub *class.Class) bool {
		st := ensureTable(sub)
		if st.own[name] {
			return false
		}
		apply(st)
		return true
	})
	return nil
}

// OnInstanceInit materializes one observer per declared member.
func (m *Observable) OnInstanceInit(inst *value.Object, k *class.Class) (any, error) {
	t := table(k)
	if t == nil {
		return nil, nil
	}
	for _, name := range Observables(k) {
		inst.Set(name, observer.FromDescriptor(t.entries[name], observer.WithLogger(m.logger)))
	}
	return nil, nil
}

// ParseDescriptor interprets an observable declaration.
func ParseDescriptor(v any) (observer.Descriptor, error) {
	switch d := v.(type) {
	case observer.Descriptor:
		return d, nil
	case *observer.Descriptor:
		if d == nil {
			return observer.Descriptor{Writable: true}, nil
		}
		return *d, nil
	case map[string]any:
		return ParseDescriptor(value.Props(d))
	case value.Props:
		if isDescriptorBag(d) {
			return descriptorFromBag(d)
		}
	}
	return observer.Descriptor{Value: v, Writable: true}, nil
}

func isDescriptorBag(p value.Props) bool {
	if _, ok := p["value"]; !ok {
		return false
	}
	for key := range p {
		if !descriptorKeys[key] {
			return false
		}
	}
	return true
}

func descriptorFromBag(p value.Props) (observer.Descriptor, error) {
	d := observer.Descriptor{Value: p["value"], Writable: true}
	if g, ok := p["get"]; ok && g != nil {
		fn, isFn := g.(value.Callable)
		if !isFn {
			return d, fmt.Errorf("%w: get must be a function, got %T", value.ErrTypeConstraint, g)
		}
		d.Getter = fn
	}
	if s, ok := p["set"]; ok && s != nil {
		fn, isFn := s.(value.Callable)
		if !isFn {
			return d, fmt.Errorf("%w: set must be a function, got %T", value.ErrTypeConstraint, s)
		}
		d.Setter = fn
	}
	if w, ok := p["writable"]; ok {
		b, isBool := w.(bool)
		if !isBool {
			return d, fmt.Errorf("%w: writable must be a boolean, got %T", value.ErrTypeConstraint, w)
		}
		d.Writable = b
	}
	if raw, ok := p["delay"]; ok {
		delay, err := toDelay(raw)
		if err != nil {
			return d, err
		}
		d.Delay = delay
	}
	return d, nil
}

// toDelay accepts a time.Duration or a number of milliseconds.
func toDelay(v any) (time.Duration, error) {
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case int:
		return time.Duration(d) * time.Millisecond, nil
	case int64:
		return time.Duration(d) * time.Millisecond, nil
	case float64:
		return time.Duration(d * float64(time.Millisecond)), nil
	}
	return 0, fmt.Errorf("%w: delay must be a duration or milliseconds, got %T", value.ErrTypeConstraint, v)
}
