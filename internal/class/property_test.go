package class_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/value"
)

func TestAddProperty_PropagatesToUnwrappedSubclass(t *testing.T) {
	f := class.NewFactory(nil)
	parent := mustCreate(t, f, value.Props{})
	child := mustCreate(t, f, parent, value.Props{
		"greet": value.Fn(func(c *value.Call) (any, error) {
			up, err := c.Parent()
			if err != nil {
				return nil, err
			}
			return "child>" + up.(string), nil
		}),
	})

	inst := mustNew(t, child)
	if _, err := inst.Call("greet"); !errors.Is(err, value.ErrNoSuchParentMethod) {
		t.Fatalf("greet() before parent defines it: error = %v, want ErrNoSuchParentMethod", err)
	}

	if err := parent.AddProperty("greet", ret("parent")); err != nil {
		t.Fatalf("AddProperty() error = %v", err)
	}
	got, err := inst.Call("greet")
	if err != nil {
		t.Fatalf("greet() error = %v", err)
	}
	if got != "child>parent" {
		t.Errorf("greet() = %v, want child>parent", got)
	}

	if err := parent.RemoveProperty("greet"); err != nil {
		t.Fatalf("RemoveProperty() error = %v", err)
	}
	if _, err := inst.Call("greet"); !errors.Is(err, value.ErrNoSuchParentMethod) {
		t.Errorf("greet() after removal: error = %v, want ErrNoSuchParentMethod", err)
	}
	own, _ := child.Prototype().Own("greet")
	if fn := own.(*value.Function); fn.Wrapped() {
		t.Error("child implementation should be unwrapped after parent removal")
	}
}

// over returns a member that prefixes the result of its parent with tag.
func over(tag string) *value.Function {
	return value.Fn(func(c *value.Call) (any, error) {
		up, err := c.Parent()
		if err != nil {
			return nil, err
		}
		return tag + ">" + up.(string), nil
	})
}

func TestAddProperty_RechainsOverriddenSubclasses(t *testing.T) {
	tests := []struct {
		name  string
		build func(t *testing.T, f *class.Factory) (leaf *class.Class, change func() error)
		want  string
	}{
		{
			name: "parent replaces its implementation",
			build: func(t *testing.T, f *class.Factory) (*class.Class, func() error) {
				a := mustCreate(t, f, value.Props{"m": ret("A1")})
				b := mustCreate(t, f, a, value.Props{"m": over("B")})
				return b, func() error { return a.AddProperty("m", ret("A2")) }
			},
			want: "B>A2",
		},
		{
			name: "intermediate class adds an implementation",
			build: func(t *testing.T, f *class.Factory) (*class.Class, func() error) {
				a := mustCreate(t, f, value.Props{"m": ret("A")})
				b := mustCreate(t, f, a, value.Props{})
				c := mustCreate(t, f, b, value.Props{"m": over("C")})
				return c, func() error { return b.AddProperty("m", ret("B")) }
			},
			want: "C>B",
		},
		{
			name: "grandparent replaces past a class without the member",
			build: func(t *testing.T, f *class.Factory) (*class.Class, func() error) {
				a := mustCreate(t, f, value.Props{"m": ret("A1")})
				b := mustCreate(t, f, a, value.Props{})
				c := mustCreate(t, f, b, value.Props{"m": over("C")})
				return c, func() error { return a.AddProperty("m", ret("A2")) }
			},
			want: "C>A2",
		},
		{
			name: "grandparent adds to an unchained descendant",
			build: func(t *testing.T, f *class.Factory) (*class.Class, func() error) {
				a := mustCreate(t, f, value.Props{})
				b := mustCreate(t, f, a, value.Props{})
				c := mustCreate(t, f, b, value.Props{"m": over("C")})
				return c, func() error { return a.AddProperty("m", ret("A")) }
			},
			want: "C>A",
		},
		{
			name: "chained override is overridden again",
			build: func(t *testing.T, f *class.Factory) (*class.Class, func() error) {
				a := mustCreate(t, f, value.Props{"m": ret("A")})
				b := mustCreate(t, f, a, value.Props{"m": over("B1")})
				c := mustCreate(t, f, b, value.Props{"m": over("C")})
				return c, func() error { return b.AddProperty("m", over("B2")) }
			},
			want: "C>B2>A",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			leaf, change := tt.build(t, class.NewFactory(nil))
			inst := mustNew(t, leaf)
			if err := change(); err != nil {
				t.Fatalf("AddProperty() error = %v", err)
			}
			got, err := inst.Call("m")
			if err != nil {
				t.Fatalf("m() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("m() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRemoveProperty_LeavesOtherChainsAlone(t *testing.T) {
	f := class.NewFactory(nil)
	grand := mustCreate(t, f, value.Props{"m": ret("grand")})
	parent := mustCreate(t, f, grand, value.Props{})
	child := mustCreate(t, f, parent, value.Props{
		"m": value.Fn(func(c *value.Call) (any, error) { return c.Parent() }),
	})

	// Removing from parent, which never defined m, must not touch child's
	// chain to grand.
	if err := parent.RemoveProperty("m"); err != nil {
		t.Fatalf("RemoveProperty() error = %v", err)
	}
	got, err := mustNew(t, child).Call("m")
	if err != nil || got != "grand" {
		t.Errorf("m() = %v, %v, want grand", got, err)
	}
}

func TestRemoveProperty_Missing(t *testing.T) {
	f := class.NewFactory(nil)
	k := mustCreate(t, f, value.Props{})
	if err := k.RemoveProperty("nothing"); err != nil {
		t.Errorf("RemoveProperty(nothing) error = %v, want nil", err)
	}
}

func TestRemoveProperty_Value(t *testing.T) {
	f := class.NewFactory(nil)
	k := mustCreate(t, f, value.Props{"x": 1})
	if err := k.RemoveProperty("x"); err != nil {
		t.Fatalf("RemoveProperty() error = %v", err)
	}
	if _, ok := mustNew(t, k).Get("x"); ok {
		t.Error("x still visible after removal")
	}
}

func TestKeywordsAreIgnored(t *testing.T) {
	f := class.NewFactory(nil)
	k := mustCreate(t, f, value.Props{
		"superclass": "bogus",
		"extend":     "bogus",
	})

	for _, name := range []string{"superclass", "subclass", "implement", "extend", "applicate", "addProperty", "removeProperty"} {
		if err := k.AddProperty(name, 1); err != nil {
			t.Errorf("AddProperty(%s) error = %v", name, err)
		}
		if k.Prototype().HasOwn(name) {
			t.Errorf("keyword %s was installed", name)
		}
	}
	if err := k.RemoveProperty("constructor"); err != nil {
		t.Fatalf("RemoveProperty(constructor) error = %v", err)
	}
	if v, _ := k.Prototype().Own("constructor"); v != k {
		t.Error("constructor should survive RemoveProperty")
	}
}

func TestAddProperty_SkipsBuiltins(t *testing.T) {
	f := class.NewFactory(nil)
	k := mustCreate(t, f, value.Props{})
	builtin, _ := value.ObjectPrototype.Own("toString")
	if err := k.AddProperty("toString", builtin); err != nil {
		t.Fatalf("AddProperty() error = %v", err)
	}
	if k.Prototype().HasOwn("toString") {
		t.Error("identical built-in should not be installed")
	}

	if err := k.AddProperty("toString", ret("custom")); err != nil {
		t.Fatalf("AddProperty() error = %v", err)
	}
	got, _ := mustNew(t, k).Call("toString")
	if got != "custom" {
		t.Errorf("toString() = %v, want custom", got)
	}
}

func TestMutatorRouting(t *testing.T) {
	reg := class.NewRegistry()
	var added, removed []string
	err := reg.AddMutator("tag", class.Handlers{
		OnPropertyAdd: func(k, parent *class.Class, name string, v any) error {
			added = append(added, name)
			return nil
		},
		OnPropertyRemove: func(k *class.Class, name string) error {
			removed = append(removed, name)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("AddMutator() error = %v", err)
	}
	f := class.NewFactory(reg)

	k := mustCreate(t, f, value.Props{
		"__tag_a": 1,
		"__tag":   value.Props{"b": 2, "c": 3},
		"plain":   4,
	})
	if err := k.RemoveProperty("__tag_a"); err != nil {
		t.Fatalf("RemoveProperty() error = %v", err)
	}

	if diff := cmp.Diff([]string{"b", "c", "a"}, added); diff != "" {
		t.Errorf("added mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a"}, removed); diff != "" {
		t.Errorf("removed mismatch (-want +got):\n%s", diff)
	}
	if k.Prototype().HasOwn("__tag_a") {
		t.Error("claimed member leaked onto the prototype")
	}
	if !k.Prototype().HasOwn("plain") {
		t.Error("ordinary member missing")
	}
}

func TestMutatorRouting_ContainerRejectsScalar(t *testing.T) {
	reg := class.NewRegistry()
	if err := reg.AddMutator("tag", class.Handlers{}); err != nil {
		t.Fatalf("AddMutator() error = %v", err)
	}
	f := class.NewFactory(reg)
	if _, err := f.Create(value.Props{"__tag": 5}); !errors.Is(err, value.ErrTypeConstraint) {
		t.Errorf("Create() error = %v, want ErrTypeConstraint", err)
	}
}

func TestMutatorError_Aborts(t *testing.T) {
	reg := class.NewRegistry()
	boom := errors.New("boom")
	_ = reg.AddMutator("fail", class.Handlers{
		OnPropertyAdd: func(k, parent *class.Class, name string, v any) error { return boom },
	})
	f := class.NewFactory(reg)

	if _, err := f.Create(value.Props{"__fail_x": 1}); !errors.Is(err, boom) {
		t.Errorf("Create() error = %v, want boom", err)
	}
	if n := len(f.Base().Subclasses()); n != 0 {
		t.Errorf("failed class left %d subclass links on the base class", n)
	}
}
