package classkit_test

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/classkit"
)

func newEngine(t *testing.T) *classkit.Engine {
	t.Helper()
	e, err := classkit.NewEngine()
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func instance(t *testing.T, k *classkit.Class) *classkit.Object {
	t.Helper()
	inst, err := k.Instantiate()
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	return inst
}

func TestEngine_Scenarios(t *testing.T) {
	e := newEngine(t)

	t.Run("method sees instance", func(t *testing.T) {
		k, err := e.Create(classkit.Props{
			"a": 1,
			"b": classkit.Fn(func(c *classkit.Call) (any, error) { return c.Get("a"), nil }),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got, err := instance(t, k).Call("b")
		if err != nil || got != 1 {
			t.Errorf("b() = %v, %v, want 1", got, err)
		}
	})

	t.Run("parent", func(t *testing.T) {
		parent, _ := e.Create(classkit.Props{
			"d": classkit.Fn(func(*classkit.Call) (any, error) { return 4, nil }),
		})
		child, err := e.Create(parent, classkit.Props{
			"d": classkit.Fn(func(c *classkit.Call) (any, error) { return c.Parent() }),
		})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		got, err := instance(t, child).Call("d")
		if err != nil || got != 4 {
			t.Errorf("d() = %v, %v, want 4", got, err)
		}
	})

	t.Run("static", func(t *testing.T) {
		k, err := e.Create(classkit.Props{"__static_a": 2, "a": 1})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if got, _ := k.Get("a"); got != 2 {
			t.Errorf("T.a = %v, want 2", got)
		}
		if got := instance(t, k).MustGet("a"); got != 1 {
			t.Errorf("instance a = %v, want 1", got)
		}
	})

	t.Run("namespace", func(t *testing.T) {
		ns := e.Namespace("N")
		k, err := ns.Create("A", classkit.Props{"x": 1})
		if err != nil {
			t.Fatalf("Create() error = %v", err)
		}
		if ns.Get("A") != k {
			t.Error("Get(A) did not return the created class")
		}
		ns.Destroy("A")
		if ns.Get("A") != nil {
			t.Error("Get(A) after Destroy should be nil")
		}
	})

	t.Run("bind", func(t *testing.T) {
		k, _ := e.Create(classkit.Props{
			"__bind_f": classkit.Fn(func(c *classkit.Call) (any, error) { return c.This, nil }),
		})
		inst := instance(t, k)
		fn := inst.MustGet("f").(classkit.Callable)
		got, err := fn.Apply(&classkit.Call{This: classkit.Props{}})
		if err != nil || got != inst {
			t.Errorf("detached f() = %v, %v, want the instance", got, err)
		}
	})

	t.Run("observable", func(t *testing.T) {
		k, _ := e.Create(classkit.Props{"__observable_x": 10})
		x := instance(t, k).MustGet("x").(*classkit.Observer)
		if got, _ := x.Get(); got != 10 {
			t.Errorf("x.Get() = %v, want 10", got)
		}
		if err := x.Set(20); err != nil {
			t.Fatalf("Set() error = %v", err)
		}
		if got, _ := x.Get(); got != 20 {
			t.Errorf("x.Get() = %v, want 20", got)
		}
	})
}

func TestEngine_Mutators(t *testing.T) {
	e := newEngine(t)
	want := []string{"static", "nowrap", "alias", "bind", "observable"}
	if diff := cmp.Diff(want, e.MutatorNames()); diff != "" {
		t.Errorf("MutatorNames() mismatch (-want +got):\n%s", diff)
	}

	var seen []string
	err := e.AddMutator("tag", classkit.Handlers{
		OnPropertyAdd: func(k, _ *classkit.Class, name string, v any) error {
			seen = append(seen, name)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("AddMutator() error = %v", err)
	}
	if err := e.AddMutator("tag", classkit.Handlers{}); !errors.Is(err, classkit.ErrDuplicateName) {
		t.Errorf("AddMutator() duplicate error = %v, want ErrDuplicateName", err)
	}
	if _, err := e.Create(classkit.Props{"__tag_x": 1}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if diff := cmp.Diff([]string{"x"}, seen); diff != "" {
		t.Errorf("tagged names mismatch (-want +got):\n%s", diff)
	}

	if err := e.RemoveMutator("tag"); err != nil {
		t.Fatalf("RemoveMutator() error = %v", err)
	}
	if err := e.RemoveMutator("tag"); !errors.Is(err, classkit.ErrUnknownName) {
		t.Errorf("RemoveMutator() error = %v, want ErrUnknownName", err)
	}
}

func TestEngine_WithoutBuiltins(t *testing.T) {
	e, err := classkit.NewEngine(classkit.WithoutBuiltins())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	if n := len(e.MutatorNames()); n != 0 {
		t.Errorf("MutatorNames() has %d entries, want 0", n)
	}
	k, err := e.Create(classkit.Props{"__static_a": 2})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if got := instance(t, k).MustGet("__static_a"); got != 2 {
		t.Errorf("__static_a = %v, want a plain member", got)
	}
}

func TestEngine_Namespaces(t *testing.T) {
	e := newEngine(t)
	app := e.Namespace("app.models")
	if e.Namespace("") != e.Global() {
		t.Error(`Namespace("") should be the global namespace`)
	}
	if ns, ok := e.TestNamespace("app.models.User"); !ok || ns != app {
		t.Errorf("TestNamespace() = %v, %v, want app.models", ns, ok)
	}
	e.DestroyNamespace("app.models")
	if _, ok := e.TestNamespace("app.models.User"); ok {
		t.Error("TestNamespace() found a destroyed namespace")
	}
	e.DestroyNamespace("missing")
}

func TestEngine_Runtime(t *testing.T) {
	e := newEngine(t)
	rt, err := e.NewRuntime()
	if err != nil {
		t.Fatalf("NewRuntime() error = %v", err)
	}
	defer rt.Close()

	err = rt.DoString(context.Background(), `
local ns = classkit.namespace("shapes")
ns.create("Square", { side = 3, area = function(self) return self.side * self.side end })
`)
	if err != nil {
		t.Fatalf("DoString() error = %v", err)
	}

	k := e.Namespace("shapes").Get("Square")
	if k == nil {
		t.Fatal("script class not visible to Go")
	}
	got, err := instance(t, k).Call("area")
	if err != nil || got != int64(9) {
		t.Errorf("area() = %v, %v, want 9", got, err)
	}
}

func TestDefault(t *testing.T) {
	if classkit.Default() != classkit.Default() {
		t.Fatal("Default() is not a singleton")
	}
	if _, err := classkit.Create(); !errors.Is(err, classkit.ErrInvalidConstruction) {
		t.Errorf("Create() error = %v, want ErrInvalidConstruction", err)
	}

	k, err := classkit.Create(classkit.Props{"v": 1})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if !classkit.IsClass(k) || !classkit.InstanceOf(instance(t, k), k) {
		t.Error("created class not recognized")
	}
	if classkit.GetNamespace() != classkit.Default().Global() {
		t.Error("GetNamespace() should be the global namespace")
	}
	ns := classkit.GetNamespace("facade")
	if got, ok := classkit.TestNamespace("facade.X"); !ok || got != ns {
		t.Errorf("TestNamespace() = %v, %v", got, ok)
	}
	classkit.DestroyNamespace("facade")

	o := classkit.NewObserver(1, classkit.ReadOnly())
	_ = o.Set(2)
	if got, _ := o.Get(); got != 1 {
		t.Errorf("read-only observer = %v, want 1", got)
	}
}
