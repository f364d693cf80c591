package script

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/mutators"
	"github.com/dshills/classkit/internal/namespace"
)

// Runtime runs scripts against a namespace registry.
//
// A Runtime is driven from one goroutine. Enqueue, Invalidate and Sync may
// be called from any goroutine; queued work runs on the goroutine that
// next executes a script or calls Sync.
type Runtime struct {
	state      *State
	bridge     *Bridge
	namespaces *namespace.Registry
	logger     *zap.Logger

	mu    sync.Mutex
	queue []func() error
}

// Option configures a Runtime.
type Option func(*runtimeOptions)

type runtimeOptions struct {
	logger *zap.Logger
	state  []StateOption
}

// WithLogger sets the runtime logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *runtimeOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStateOptions passes options to the underlying Lua state.
func WithStateOptions(opts ...StateOption) Option {
	return func(o *runtimeOptions) {
		o.state = append(o.state, opts...)
	}
}

// NewRuntime creates a runtime over reg. A nil registry gets a private one
// with the built-in mutators.
func NewRuntime(reg *namespace.Registry, opts ...Option) (*Runtime, error) {
	options := runtimeOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&options)
	}

	if reg == nil {
		mreg := class.NewRegistry(class.WithRegistryLogger(options.logger))
		if err := mutators.Register(mreg, options.logger); err != nil {
			return nil, err
		}
		reg = namespace.NewRegistry(
			class.NewFactory(mreg, class.WithLogger(options.logger)),
			namespace.WithLogger(options.logger),
		)
	}

	state, err := NewState(options.state...)
	if err != nil {
		return nil, err
	}

	r := &Runtime{
		state:      state,
		namespaces: reg,
		logger:     options.logger,
	}
	r.bridge = newBridge(state.L, r)
	r.installModule()
	return r, nil
}

// DoString runs a Lua chunk after delivering queued work.
func (r *Runtime) DoString(ctx context.Context, code string) error {
	return r.state.run(ctx, func() error {
		r.drain()
		return r.state.L.DoString(code)
	})
}

// DoFile runs a Lua file after delivering queued work.
func (r *Runtime) DoFile(ctx context.Context, path string) error {
	return r.state.run(ctx, func() error {
		r.drain()
		return r.state.L.DoFile(path)
	})
}

// LoadFile runs a Lua file. Called from inside a running script, such as
// from an autoloader, it runs nested in the current execution.
func (r *Runtime) LoadFile(path string) error {
	return r.state.DoFileNested(path)
}

// Enqueue schedules fn to run on the script goroutine.
func (r *Runtime) Enqueue(fn func() error) {
	r.mu.Lock()
	r.queue = append(r.queue, fn)
	r.mu.Unlock()
}

// Pending returns the number of queued functions.
func (r *Runtime) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

// Invalidate schedules destruction of the class registered under the
// qualified name, together with its nested classes and subclasses.
func (r *Runtime) Invalidate(name string) {
	r.Enqueue(func() error {
		ns := r.namespaces.Global()
		if found, ok := r.namespaces.Test(name); ok {
			ns = found
		}
		if !ns.Has(name) {
			return nil
		}
		ns.Destroy(name)
		r.logger.Debug("class invalidated", zap.String("class", name))
		return nil
	})
}

// Sync runs queued work and returns how many functions ran.
func (r *Runtime) Sync() int {
	if r.state.Active() {
		return r.drain()
	}
	if r.Pending() == 0 {
		return 0
	}
	var n int
	err := r.state.run(context.Background(), func() error {
		n = r.drain()
		return nil
	})
	if err != nil {
		r.logger.Warn("sync failed", zap.Error(err))
	}
	return n
}

func (r *Runtime) drain() int {
	n := 0
	for {
		r.mu.Lock()
		batch := r.queue
		r.queue = nil
		r.mu.Unlock()

		if len(batch) == 0 {
			return n
		}
		for _, fn := range batch {
			n++
			if err := fn(); err != nil {
				r.logger.Warn("queued script call failed", zap.Error(err))
			}
		}
	}
}

// Global returns a global variable converted to an engine value.
func (r *Runtime) Global(name string) any {
	return r.bridge.ToGoValue(r.state.GetGlobal(name))
}

// Namespaces returns the namespace registry.
func (r *Runtime) Namespaces() *namespace.Registry {
	return r.namespaces
}

// Bridge returns the value bridge.
func (r *Runtime) Bridge() *Bridge {
	return r.bridge
}

// State returns the Lua state.
func (r *Runtime) State() *State {
	return r.state
}

// Close releases the Lua state and drops queued work.
func (r *Runtime) Close() error {
	r.mu.Lock()
	r.queue = nil
	r.mu.Unlock()
	return r.state.Close()
}
