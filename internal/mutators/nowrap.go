package mutators

import "github.com/dshills/classkit/internal/class"

// NoWrap installs prototype members as-is, without parent chaining.
type NoWrap struct{}

// Name implements class.Mutator.
func (*NoWrap) Name() string { return NameNoWrap }

// OnPropertyAdd implements class.PropertyAddHook.
func (*NoWrap) OnPropertyAdd(k, parent *class.Class, name string, v any) error {
	if k.IsKeyword(name) {
		return nil
	}
	k.Prototype().Set(name, v)
	return nil
}

// OnPropertyRemove implements class.PropertyRemoveHook.
func (*NoWrap) OnPropertyRemove(k *class.Class, name string) error {
	k.Prototype().Delete(name)
	return nil
}
