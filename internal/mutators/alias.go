package mutators

import (
	"fmt"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/value"
)

// Alias installs prototype members that call another member, looked up by
// name on the receiver at call time.
type Alias struct{}

// Name implements class.Mutator.
func (*Alias) Name() string { return NameAlias }

// OnPropertyAdd installs name as an alias of the member named by v.
func (*Alias) OnPropertyAdd(k, parent *class.Class, name string, v any) error {
	target, ok := v.(string)
	if !ok || target == "" {
		return fmt.Errorf("%w: alias target must be a member name, got %T", value.ErrTypeConstraint, v)
	}
	if k.IsKeyword(name) {
		return nil
	}
	k.Prototype().Set(name, value.Alias(target))
	return nil
}

// OnPropertyRemove removes the alias. Members that are not aliases are left
// alone.
func (*Alias) OnPropertyRemove(k *class.Class, name string) error {
	v, ok := k.Prototype().Own(name)
	if !ok {
		return nil
	}
	if fn, isFn := v.(*value.Function); isFn && fn.AliasTarget() != "" {
		k.Prototype().Delete(name)
	}
	return nil
}
