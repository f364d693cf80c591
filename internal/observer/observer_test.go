package observer

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/dshills/classkit/internal/value"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorded struct {
	New, Old any
}

// collector is a listener that records every notification.
type collector struct {
	mu    sync.Mutex
	calls []recorded
	fn    *value.Function
}

func newCollector() *collector {
	c := &collector{}
	c.fn = value.Fn(func(call *value.Call) (any, error) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.calls = append(c.calls, recorded{call.Arg(0), call.Arg(1)})
		return nil, nil
	})
	return c
}

func (c *collector) got() []recorded {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]recorded, len(c.calls))
	copy(out, c.calls)
	return out
}

func TestObserver_SetGet(t *testing.T) {
	o := New(10)
	got, err := o.Get()
	if err != nil || got != 10 {
		t.Fatalf("Get() = %v, %v, want 10", got, err)
	}
	if err := o.Set(20); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := o.Get(); got != 20 {
		t.Errorf("Get() after Set(20) = %v, want 20", got)
	}
}

type wrapped struct{ V any }

func TestObserver_SetUncomparableValues(t *testing.T) {
	o := New(wrapped{V: []int{1}})
	c := newCollector()
	if err := o.AddListener(c.fn); err != nil {
		t.Fatalf("AddListener() error = %v", err)
	}

	if err := o.Set(wrapped{V: []int{2}}); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	got, _ := o.Get()
	if w, ok := got.(wrapped); !ok || w.V.([]int)[0] != 2 {
		t.Errorf("Get() = %v, want wrapped [2]", got)
	}
	if n := len(c.got()); n != 1 {
		t.Errorf("got %d notifications, want 1", n)
	}
}

func TestObserver_NotifiesOnlyOnChange(t *testing.T) {
	o := New(1)
	c := newCollector()
	if err := o.AddListener(c.fn); err != nil {
		t.Fatalf("AddListener() error = %v", err)
	}

	_ = o.Set(1)
	_ = o.Set(2)
	_ = o.Set(2)
	_ = o.Set(3)

	want := []recorded{{2, 1}, {3, 2}}
	if diff := cmp.Diff(want, c.got()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestObserver_ListenerOrder(t *testing.T) {
	o := New(0)
	var order []string
	for _, name := range []string{"a", "b", "c"} {
		name := name
		_ = o.AddListener(value.Fn(func(*value.Call) (any, error) {
			order = append(order, name)
			return nil, nil
		}))
	}
	_ = o.Set(1)
	if diff := cmp.Diff([]string{"a", "b", "c"}, order); diff != "" {
		t.Errorf("listener order mismatch (-want +got):\n%s", diff)
	}
}

func TestObserver_Transforms(t *testing.T) {
	double := value.Fn(func(c *value.Call) (any, error) { return c.Arg(0).(int) * 2, nil })
	clamp := value.Fn(func(c *value.Call) (any, error) {
		if v := c.Arg(0).(int); v > 100 {
			return 100, nil
		}
		return c.Arg(0), nil
	})
	o := New(5, WithGetter(double), WithSetter(clamp))

	if got, _ := o.Get(); got != 10 {
		t.Errorf("Get() = %v, want 10", got)
	}
	_ = o.Set(500)
	if o.Raw() != 100 {
		t.Errorf("Raw() = %v, want 100", o.Raw())
	}
	if got, _ := o.Get(); got != 200 {
		t.Errorf("Get() = %v, want 200", got)
	}
}

func TestObserver_ReadOnly(t *testing.T) {
	o := New("fixed", ReadOnly())
	c := newCollector()
	_ = o.AddListener(c.fn)

	if err := o.Set("other"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got, _ := o.Get(); got != "fixed" {
		t.Errorf("Get() = %v, want fixed", got)
	}
	if len(c.got()) != 0 {
		t.Error("read-only observer notified listeners")
	}
	if o.Writable() {
		t.Error("Writable() = true")
	}
}

func TestObserver_ListenerTypeConstraint(t *testing.T) {
	o := New(nil)
	if err := o.AddListener("nope"); !errors.Is(err, value.ErrTypeConstraint) {
		t.Errorf("AddListener(string) error = %v, want ErrTypeConstraint", err)
	}
	if err := o.RemoveListener(3); !errors.Is(err, value.ErrTypeConstraint) {
		t.Errorf("RemoveListener(int) error = %v, want ErrTypeConstraint", err)
	}
	if err := o.AddListener(nil); !errors.Is(err, value.ErrTypeConstraint) {
		t.Errorf("AddListener(nil) error = %v, want ErrTypeConstraint", err)
	}
}

func TestObserver_RemoveListener(t *testing.T) {
	o := New(0)
	a, b := newCollector(), newCollector()
	_ = o.AddListener(a.fn)
	_ = o.AddListener(b.fn)

	if err := o.RemoveListener(a.fn); err != nil {
		t.Fatalf("RemoveListener() error = %v", err)
	}
	if err := o.RemoveListener(value.Fn(nil)); err != nil {
		t.Errorf("RemoveListener(unknown) error = %v, want nil", err)
	}
	_ = o.Set(1)
	if len(a.got()) != 0 || len(b.got()) != 1 {
		t.Errorf("calls a=%d b=%d, want 0 and 1", len(a.got()), len(b.got()))
	}

	o.RemoveAllListeners()
	if o.ListenerCount() != 0 {
		t.Errorf("ListenerCount() = %d, want 0", o.ListenerCount())
	}
}

func TestObserver_ListenerErrors(t *testing.T) {
	o := New(0)
	boom := errors.New("boom")
	c := newCollector()
	_ = o.AddListener(value.Fn(func(*value.Call) (any, error) { return nil, boom }))
	_ = o.AddListener(c.fn)

	if err := o.Set(1); !errors.Is(err, boom) {
		t.Errorf("Set() error = %v, want boom", err)
	}
	if len(c.got()) != 1 {
		t.Error("a failing listener should not stop later listeners")
	}
}

func TestObserver_FromDescriptor(t *testing.T) {
	o := FromDescriptor(Descriptor{Value: 1, Writable: false})
	_ = o.Set(2)
	if o.Raw() != 1 {
		t.Errorf("Raw() = %v, want 1", o.Raw())
	}
}

func TestObserver_DelayCoalesces(t *testing.T) {
	o := New(0, WithDelay(time.Hour))
	defer o.Close()
	c := newCollector()
	_ = o.AddListener(c.fn)

	_ = o.Set(1)
	_ = o.Set(2)
	_ = o.Set(3)

	if len(c.got()) != 0 {
		t.Fatal("delayed observer notified synchronously")
	}
	if got, _ := o.Get(); got != 3 {
		t.Errorf("Get() = %v, want 3 before delivery", got)
	}
	if !o.Pending() {
		t.Error("Pending() = false")
	}

	if err := o.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if diff := cmp.Diff([]recorded{{3, 0}}, c.got()); diff != "" {
		t.Errorf("notifications mismatch (-want +got):\n%s", diff)
	}
	if o.Pending() {
		t.Error("Pending() = true after Flush")
	}
}

func TestObserver_DelayFires(t *testing.T) {
	o := New("a", WithDelay(5*time.Millisecond))
	defer o.Close()

	done := make(chan recorded, 1)
	_ = o.AddListener(value.Fn(func(c *value.Call) (any, error) {
		done <- recorded{c.Arg(0), c.Arg(1)}
		return nil, nil
	}))
	_ = o.Set("b")

	select {
	case got := <-done:
		if diff := cmp.Diff(recorded{"b", "a"}, got); diff != "" {
			t.Errorf("notification mismatch (-want +got):\n%s", diff)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("delayed notification never fired")
	}
}

func TestObserver_DelayRevertedBurst(t *testing.T) {
	o := New(1, WithDelay(time.Hour))
	defer o.Close()
	c := newCollector()
	_ = o.AddListener(c.fn)

	_ = o.Set(2)
	_ = o.Set(1)
	_ = o.Flush()

	if len(c.got()) != 0 {
		t.Error("burst that returned to the original value should not notify")
	}
}

func TestObserver_CloseDropsPending(t *testing.T) {
	o := New(0, WithDelay(time.Hour))
	c := newCollector()
	_ = o.AddListener(c.fn)

	_ = o.Set(1)
	o.Close()
	o.Close()

	if err := o.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if len(c.got()) != 0 {
		t.Error("Close() should drop the pending notification")
	}
}
