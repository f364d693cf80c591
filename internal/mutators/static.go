package mutators

import (
	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/value"
)

// Static installs members on the class object instead of the prototype.
// Function members run with the class as receiver whatever the call site
// passes. Statics are inherited by copy when a subclass is created and
// re-pinned to the subclass.
type Static struct{}

// Name implements class.Mutator.
func (*Static) Name() string { return NameStatic }

// raw returns the unpinned static members of k.
func (*Static) raw(k *class.Class) value.Props {
	if k == nil {
		return nil
	}
	p, _ := k.State(NameStatic).(value.Props)
	return p
}

// OnCreate copies the parent's statics.
func (s *Static) OnCreate(k, parent *class.Class) error {
	inherited := s.raw(parent)
	own := make(value.Props, len(inherited))
	k.SetState(NameStatic, own)
	for _, name := range inherited.Keys() {
		own[name] = inherited[name]
		k.Set(name, pin(inherited[name], k))
	}
	return nil
}

// OnPropertyAdd stores a static member.
func (s *Static) OnPropertyAdd(k, parent *class.Class, name string, v any) error {
	if k.IsKeyword(name) {
		return nil
	}
	own := s.raw(k)
	if own == nil {
		own = value.Props{}
		k.SetState(NameStatic, own)
	}
	own[name] = v
	k.Set(name, pin(v, k))
	return nil
}

// OnPropertyRemove removes a static member. An inherited member the subclass
// had overridden becomes visible again.
func (s *Static) OnPropertyRemove(k *class.Class, name string) error {
	own := s.raw(k)
	if _, ok := own[name]; !ok {
		return nil
	}
	if inherited, ok := s.raw(k.Superclass())[name]; ok {
		own[name] = inherited
		k.Set(name, pin(inherited, k))
		return nil
	}
	delete(own, name)
	k.Delete(name)
	return nil
}

func pin(v any, k *class.Class) any {
	if class.IsClass(v) {
		return v
	}
	if fn, ok := v.(value.Callable); ok {
		return value.Bind(fn, k)
	}
	return v
}
