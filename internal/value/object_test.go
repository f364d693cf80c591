package value

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestObject_GetWalksPrototypeChain(t *testing.T) {
	root := NewObject(nil)
	root.Set("a", 1)
	child := NewObject(root)
	child.Set("b", 2)

	if v, ok := child.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %v, %v, want 1, true", v, ok)
	}
	if _, ok := child.Own("a"); ok {
		t.Error("Own(a) found an inherited property")
	}
	_, owner := child.Lookup("a")
	if owner != root {
		t.Error("Lookup(a) owner should be the prototype")
	}
	if _, ok := child.Get("missing"); ok {
		t.Error("Get(missing) reported found")
	}
}

func TestObject_KeysInsertionOrder(t *testing.T) {
	o := NewObject(nil)
	o.Set("z", 1)
	o.Set("a", 2)
	o.Set("m", 3)
	o.Set("a", 4) // overwrite keeps position

	if diff := cmp.Diff([]string{"z", "a", "m"}, o.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}

	if !o.Delete("a") {
		t.Error("Delete(a) = false, want true")
	}
	if o.Delete("a") {
		t.Error("second Delete(a) = true, want false")
	}
	if diff := cmp.Diff([]string{"z", "m"}, o.Keys()); diff != "" {
		t.Errorf("Keys() after delete mismatch (-want +got):\n%s", diff)
	}
}

func TestObject_IsPrototypeOf(t *testing.T) {
	a := NewObject(nil)
	b := NewObject(a)
	c := NewObject(b)

	if !a.IsPrototypeOf(c) {
		t.Error("a should be in c's chain")
	}
	if c.IsPrototypeOf(a) {
		t.Error("c should not be in a's chain")
	}
	if a.IsPrototypeOf(a) {
		t.Error("an object is not its own prototype")
	}
}

func TestObject_CallRecordsHome(t *testing.T) {
	proto := NewObject(nil)
	var home *Object
	proto.Set("f", Fn(func(c *Call) (any, error) {
		home = c.Home
		return c.Get("x"), nil
	}))
	o := NewObject(proto)
	o.Set("x", 42)

	got, err := o.Call("f")
	if err != nil {
		t.Fatalf("Call(f) error = %v", err)
	}
	if got != 42 {
		t.Errorf("Call(f) = %v, want 42", got)
	}
	if home != proto {
		t.Error("Call.Home should be the object the method was found on")
	}

	if _, err := o.Call("x"); !errors.Is(err, ErrNotCallable) {
		t.Errorf("Call(x) error = %v, want ErrNotCallable", err)
	}
}

func TestObjectPrototype_Builtins(t *testing.T) {
	o := NewObject(ObjectPrototype)
	o.Set("a", 1)

	got, err := o.Call("hasOwnProperty", "a")
	if err != nil || got != true {
		t.Errorf("hasOwnProperty(a) = %v, %v, want true", got, err)
	}
	got, _ = o.Call("hasOwnProperty", "toString")
	if got != false {
		t.Errorf("hasOwnProperty(toString) = %v, want false", got)
	}

	ts, _ := ObjectPrototype.Own("toString")
	if !IsBuiltin("toString", ts) {
		t.Error("IsBuiltin(toString) = false for the root member")
	}
	if IsBuiltin("toString", Fn(nil)) {
		t.Error("IsBuiltin should not match a different function")
	}
}

func TestProps(t *testing.T) {
	p := Props{"b": 1, "a": 2}
	if diff := cmp.Diff([]string{"a", "b"}, p.Keys()); diff != "" {
		t.Errorf("Keys() mismatch (-want +got):\n%s", diff)
	}
	clone := p.Clone()
	clone.Set("c", 3)
	if _, ok := p["c"]; ok {
		t.Error("Clone() shares storage with the original")
	}
	if !clone.Delete("c") || clone.Delete("c") {
		t.Error("Delete() should report presence")
	}
}
