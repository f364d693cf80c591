package class_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/value"
)

func ret(v any) *value.Function {
	return value.Fn(func(c *value.Call) (any, error) { return v, nil })
}

func mustCreate(t *testing.T, f *class.Factory, args ...any) *class.Class {
	t.Helper()
	k, err := f.Create(args...)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return k
}

func mustNew(t *testing.T, k *class.Class, args ...any) *value.Object {
	t.Helper()
	inst, err := k.Instantiate(args...)
	if err != nil {
		t.Fatalf("Instantiate() error = %v", err)
	}
	return inst
}

func TestCreate_MethodSeesInstance(t *testing.T) {
	f := class.NewFactory(nil)
	k := mustCreate(t, f, value.Props{
		"a": 1,
		"b": value.Fn(func(c *value.Call) (any, error) { return c.Get("a"), nil }),
	})

	got, err := mustNew(t, k).Call("b")
	if err != nil {
		t.Fatalf("Call(b) error = %v", err)
	}
	if got != 1 {
		t.Errorf("b() = %v, want 1", got)
	}
}

func TestCreate_ParentChaining(t *testing.T) {
	f := class.NewFactory(nil)
	parent := mustCreate(t, f, value.Props{"d": ret(4)})
	child := mustCreate(t, f, parent, value.Props{
		"d": value.Fn(func(c *value.Call) (any, error) { return c.Parent() }),
	})

	got, err := mustNew(t, child).Call("d")
	if err != nil {
		t.Fatalf("Call(d) error = %v", err)
	}
	if got != 4 {
		t.Errorf("d() = %v, want 4", got)
	}
}

func TestCreate_ZeroArgs(t *testing.T) {
	f := class.NewFactory(nil)
	if _, err := f.Create(); !errors.Is(err, class.ErrInvalidConstruction) {
		t.Errorf("Create() error = %v, want ErrInvalidConstruction", err)
	}
}

func TestCreate_BadDescriptor(t *testing.T) {
	f := class.NewFactory(nil)
	if _, err := f.Create(42); !errors.Is(err, value.ErrTypeConstraint) {
		t.Errorf("Create(42) error = %v, want ErrTypeConstraint", err)
	}
}

func TestCreate_InheritanceLinks(t *testing.T) {
	f := class.NewFactory(nil)
	a := mustCreate(t, f, value.Props{})
	b := mustCreate(t, f, a, value.Props{})
	c := mustCreate(t, f, b, value.Props{})

	if b.Superclass() != a || c.Superclass() != b {
		t.Fatal("superclass links not set")
	}
	if a.Superclass() != f.Base() {
		t.Error("default parent should be the base class")
	}
	for _, k := range []*class.Class{f.Base(), a, b} {
		for _, sub := range k.Subclasses() {
			if sub.Superclass() != k {
				t.Errorf("%s lists %s as subclass but its superclass is %s", k, sub, sub.Superclass())
			}
		}
	}
	if b.Prototype() == a.Prototype() {
		t.Error("child prototype must not be the parent prototype")
	}
	if !c.IsSubclassOf(a) || a.IsSubclassOf(c) {
		t.Error("IsSubclassOf() wrong")
	}

	inst := mustNew(t, c)
	if class.Of(inst) != c {
		t.Errorf("Of(inst) = %v, want %v", class.Of(inst), c)
	}
	for _, k := range []*class.Class{c, b, a, f.Base()} {
		if !class.InstanceOf(inst, k) {
			t.Errorf("instance should be an instance of %s", k)
		}
	}
	if class.InstanceOf(mustNew(t, a), c) {
		t.Error("parent instance reported as instance of child")
	}
	if v := inst.MustGet("self"); v != c {
		t.Errorf("self = %v, want %v", v, c)
	}
}

func TestCreate_FunctionParentBecomesInit(t *testing.T) {
	f := class.NewFactory(nil)
	initFn := value.Fn(func(c *value.Call) (any, error) {
		c.Set("v", c.Arg(0))
		return nil, nil
	})
	k := mustCreate(t, f, initFn, value.Props{})

	inst := mustNew(t, k, "x")
	if v := inst.MustGet("v"); v != "x" {
		t.Errorf("v = %v, want x", v)
	}
	if k.Superclass() != f.Base() {
		t.Error("function parent should leave the base class as superclass")
	}
}

func TestInit_ParentChain(t *testing.T) {
	f := class.NewFactory(nil)
	base := mustCreate(t, f, value.Props{
		"init": value.Fn(func(c *value.Call) (any, error) {
			c.Set("base", true)
			return nil, nil
		}),
	})
	sub := mustCreate(t, f, base, value.Props{
		"init": value.Fn(func(c *value.Call) (any, error) {
			if _, err := c.Parent(); err != nil {
				return nil, err
			}
			c.Set("sub", c.Arg(0))
			return nil, nil
		}),
	})

	inst := mustNew(t, sub, 7)
	if inst.MustGet("base") != true || inst.MustGet("sub") != 7 {
		t.Errorf("init chain did not run: base=%v sub=%v", inst.MustGet("base"), inst.MustGet("sub"))
	}
}

func TestNew_Substitution(t *testing.T) {
	f := class.NewFactory(nil)
	replacement := value.NewObject(nil)

	k := mustCreate(t, f, value.Props{"init": ret(replacement)})
	got, err := k.New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got != replacement {
		t.Error("init return value should replace the instance")
	}

	bad := mustCreate(t, f, value.Props{"init": ret(3)})
	if _, err := bad.New(); !errors.Is(err, value.ErrTypeConstraint) {
		t.Errorf("New() scalar substitution error = %v, want ErrTypeConstraint", err)
	}
}

func TestInvoke(t *testing.T) {
	f := class.NewFactory(nil)

	plain := mustCreate(t, f, value.Props{})
	got, err := plain.Invoke()
	if err != nil {
		t.Fatalf("Invoke() error = %v", err)
	}
	if !class.InstanceOf(got, plain) {
		t.Error("default invoke should construct")
	}

	custom := mustCreate(t, f, value.Props{
		"invoke": value.Fn(func(c *value.Call) (any, error) {
			return "called", nil
		}),
	})
	got, err = custom.Invoke()
	if err != nil || got != "called" {
		t.Errorf("Invoke() = %v, %v, want called", got, err)
	}
	if custom.Prototype().HasOwn("invoke") {
		t.Error("invoke should be consumed, not installed")
	}

	inherited := mustCreate(t, f, custom, value.Props{})
	if got, _ := inherited.Invoke(); got != "called" {
		t.Errorf("inherited Invoke() = %v, want called", got)
	}

	grandchild := mustCreate(t, f, plain, value.Props{})
	if !grandchild.HasDefaultInvoke() {
		t.Error("default invoke is regenerated, not inherited")
	}
	if got, _ := grandchild.Invoke(); !class.InstanceOf(got, grandchild) {
		t.Error("default invoke should construct the called class")
	}
}

func TestApplicate(t *testing.T) {
	f := class.NewFactory(nil)
	k := mustCreate(t, f, value.Props{
		"applicate": ret("nope"),
		"init": value.Fn(func(c *value.Call) (any, error) {
			c.Set("args", c.Args)
			return nil, nil
		}),
	})

	got, err := k.Applicate([]any{1, 2})
	if err != nil {
		t.Fatalf("Applicate() error = %v", err)
	}
	if diff := cmp.Diff([]any{1, 2}, got.(*value.Object).MustGet("args")); diff != "" {
		t.Errorf("Applicate() args mismatch (-want +got):\n%s", diff)
	}
	if k.Prototype().HasOwn("applicate") {
		t.Error("applicate descriptor entry should be dropped")
	}
}

func TestTraits(t *testing.T) {
	f := class.NewFactory(nil)
	trait := value.Props{
		"a": ret("trait-a"),
		"b": ret("trait-b"),
		"c": ret("trait-c"),
	}
	parent := mustCreate(t, f, value.Props{"c": ret("parent-c")})
	k := mustCreate(t, f, parent, trait, value.Props{"a": ret("own-a")})

	inst := mustNew(t, k)
	for name, want := range map[string]string{"a": "own-a", "b": "trait-b", "c": "parent-c"} {
		got, err := inst.Call(name)
		if err != nil {
			t.Fatalf("Call(%s) error = %v", name, err)
		}
		if got != want {
			t.Errorf("%s() = %v, want %v", name, got, want)
		}
	}
	if diff := cmp.Diff(1, len(k.Implements())); diff != "" {
		t.Errorf("Implements() length mismatch (-want +got):\n%s", diff)
	}

	sub := mustCreate(t, f, k, value.Props{"z": 1})
	if len(sub.Implements()) != 1 {
		t.Errorf("subclass Implements() = %d traits, want the inherited 1", len(sub.Implements()))
	}
}

func TestTraits_ClassTrait(t *testing.T) {
	f := class.NewFactory(nil)
	walker := mustCreate(t, f, value.Props{"walk": ret("walking")})

	mixin := mustCreate(t, f, []any{walker}, value.Props{})
	if mixin.Superclass() != f.Base() {
		t.Error("trait class must not become the superclass")
	}
	got, err := mustNew(t, mixin).Call("walk")
	if err != nil || got != "walking" {
		t.Errorf("walk() = %v, %v, want walking", got, err)
	}
	if class.InstanceOf(mustNew(t, mixin), walker) {
		t.Error("trait must not establish inheritance")
	}
}

func TestTraits_Invalid(t *testing.T) {
	f := class.NewFactory(nil)
	if _, err := f.Create(nil, []any{1}, value.Props{}); !errors.Is(err, value.ErrTypeConstraint) {
		t.Errorf("Create() with scalar trait error = %v, want ErrTypeConstraint", err)
	}
}

func TestExtend(t *testing.T) {
	f := class.NewFactory(nil)
	a := mustCreate(t, f, value.Props{"x": 1})
	b, err := a.Extend(value.Props{"y": 2})
	if err != nil {
		t.Fatalf("Extend() error = %v", err)
	}
	if b.Superclass() != a {
		t.Error("Extend() should subclass the receiver")
	}
	inst := mustNew(t, b)
	if inst.MustGet("x") != 1 || inst.MustGet("y") != 2 {
		t.Errorf("inherited members missing: x=%v y=%v", inst.MustGet("x"), inst.MustGet("y"))
	}
}

func TestClassIDsAreUnique(t *testing.T) {
	f := class.NewFactory(nil)
	a := mustCreate(t, f, value.Props{})
	b := mustCreate(t, f, value.Props{})
	if a.ID() == "" || a.ID() == b.ID() {
		t.Errorf("IDs not unique: %q %q", a.ID(), b.ID())
	}
	a.SetName("A", "N.A")
	if a.String() != "N.A" || a.Name() != "A" {
		t.Errorf("String() = %q, Name() = %q", a.String(), a.Name())
	}
}

func TestInvokeAsCallable(t *testing.T) {
	f := class.NewFactory(nil)
	k := mustCreate(t, f, value.Props{})
	got, err := value.CallFunc(k, nil)
	if err != nil {
		t.Fatalf("CallFunc(class) error = %v", err)
	}
	if !class.InstanceOf(got, k) {
		t.Error("calling a class should invoke it")
	}
}
