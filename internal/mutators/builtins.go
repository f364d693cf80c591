package mutators

import (
	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/class"
)

// Built-in mutator names.
const (
	NameStatic     = "static"
	NameNoWrap     = "nowrap"
	NameAlias      = "alias"
	NameBind       = "bind"
	NameObservable = "observable"
)

// Builtins returns fresh instances of the built-in mutators in registration
// order.
func Builtins(logger *zap.Logger) []class.Mutator {
	return []class.Mutator{
		&Static{},
		&NoWrap{},
		&Alias{},
		&Bind{},
		NewObservable(logger),
	}
}

// Register adds the built-in mutators to reg.
func Register(reg *class.Registry, logger *zap.Logger) error {
	for _, m := range Builtins(logger) {
		if err := reg.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// descendants visits every transitive subclass of k, depth first. Visiting
// stops below a class for which fn returns false.
func descendants(k *class.Class, fn func(sub *class.Class) bool) {
	for _, sub := range k.Subclasses() {
		if fn(sub) {
			descendants(sub, fn)
		}
	}
}
