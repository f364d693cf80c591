package classkit

import (
	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/mutators"
	"github.com/dshills/classkit/internal/namespace"
	"github.com/dshills/classkit/internal/observer"
	"github.com/dshills/classkit/internal/script"
	"github.com/dshills/classkit/internal/value"
)

// Engine types.
type (
	Class      = class.Class
	Mutator    = class.Mutator
	Handlers   = class.Handlers
	Object     = value.Object
	Function   = value.Function
	Call       = value.Call
	Callable   = value.Callable
	Props      = value.Props
	Observer   = observer.Observer
	Namespace  = namespace.Namespace
	Autoloader = namespace.Autoloader
	Runtime    = script.Runtime
)

// Errors.
var (
	ErrDuplicateName       = class.ErrDuplicateName
	ErrUnknownName         = class.ErrUnknownName
	ErrInvalidConstruction = class.ErrInvalidConstruction
	ErrUnresolvedReference = namespace.ErrUnresolvedReference
	ErrNoSuchParentMethod  = value.ErrNoSuchParentMethod
	ErrTypeConstraint      = value.ErrTypeConstraint
	ErrNotCallable         = value.ErrNotCallable
)

// Value helpers.
var (
	Fn           = value.Fn
	Bind         = value.Bind
	Alias        = value.Alias
	Store        = value.Store
	Each         = value.Each
	Map          = value.Map
	Filter       = value.Filter
	Keys         = value.Keys
	IndexOf      = value.IndexOf
	ToArray      = value.ToArray
	ArgsToArray  = value.ArgsToArray
	Extend       = value.Extend
	IsFunction   = value.IsFunction
	IsArray      = value.IsArray
	IsScalar     = value.IsScalar
	IsExtendable = value.IsExtendable
	Same         = value.Same
	IsClass      = class.IsClass
	InstanceOf   = class.InstanceOf
	ClassOf      = class.Of
)

// Engine bundles a mutator registry, the class factory over it and a
// namespace registry.
type Engine struct {
	mutators   *class.Registry
	factory    *class.Factory
	namespaces *namespace.Registry
	logger     *zap.Logger
}

// Option configures an Engine.
type Option func(*engineOptions)

type engineOptions struct {
	logger   *zap.Logger
	builtins bool
}

// WithLogger sets the logger shared by the engine's components.
func WithLogger(l *zap.Logger) Option {
	return func(o *engineOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithoutBuiltins leaves the mutator registry empty.
func WithoutBuiltins() Option {
	return func(o *engineOptions) { o.builtins = false }
}

// NewEngine creates an engine. The mutator registry is seeded with the
// built-in mutators unless WithoutBuiltins is given.
func NewEngine(opts ...Option) (*Engine, error) {
	o := engineOptions{logger: zap.NewNop(), builtins: true}
	for _, opt := range opts {
		opt(&o)
	}

	reg := class.NewRegistry(class.WithRegistryLogger(o.logger))
	if o.builtins {
		if err := mutators.Register(reg, o.logger); err != nil {
			return nil, err
		}
	}
	f := class.NewFactory(reg, class.WithLogger(o.logger))
	return &Engine{
		mutators:   reg,
		factory:    f,
		namespaces: namespace.NewRegistry(f, namespace.WithLogger(o.logger)),
		logger:     o.logger,
	}, nil
}

// Mutators returns the mutator registry.
func (e *Engine) Mutators() *class.Registry { return e.mutators }

// Factory returns the class factory.
func (e *Engine) Factory() *class.Factory { return e.factory }

// Namespaces returns the namespace registry.
func (e *Engine) Namespaces() *namespace.Registry { return e.namespaces }

// Base returns the root class every class inherits from.
func (e *Engine) Base() *Class { return e.factory.Base() }

// Create builds a class. See class.Factory.Create for the argument forms.
// Calling it without arguments fails with ErrInvalidConstruction.
func (e *Engine) Create(args ...any) (*Class, error) {
	return e.factory.Create(args...)
}

// AddMutator registers a mutator built from hook functions.
func (e *Engine) AddMutator(name string, h Handlers) error {
	return e.mutators.AddMutator(name, h)
}

// RegisterMutator registers a mutator value.
func (e *Engine) RegisterMutator(m Mutator) error {
	return e.mutators.Register(m)
}

// RemoveMutator unregisters a mutator.
func (e *Engine) RemoveMutator(name string) error {
	return e.mutators.RemoveMutator(name)
}

// MutatorNames returns the registered mutator names in registration order.
func (e *Engine) MutatorNames() []string {
	return e.mutators.Names()
}

// Namespace returns the named namespace, creating it on first use. An empty
// name returns the global namespace.
func (e *Engine) Namespace(name string) *Namespace {
	return e.namespaces.Namespace(name)
}

// Global returns the global namespace.
func (e *Engine) Global() *Namespace {
	return e.namespaces.Global()
}

// DestroyNamespace removes a namespace. The global namespace is kept.
func (e *Engine) DestroyNamespace(name string) {
	e.namespaces.Destroy(name)
}

// TestNamespace returns the most specific registered namespace for a dotted
// path.
func (e *Engine) TestNamespace(path string) (*Namespace, bool) {
	return e.namespaces.Test(path)
}

// NewObserver creates an observer logging through the engine's logger.
func (e *Engine) NewObserver(initial any, opts ...observer.Option) *Observer {
	opts = append([]observer.Option{observer.WithLogger(e.logger)}, opts...)
	return observer.New(initial, opts...)
}

// NewRuntime creates a Lua runtime over the engine's namespaces.
func (e *Engine) NewRuntime(opts ...script.Option) (*Runtime, error) {
	opts = append([]script.Option{script.WithLogger(e.logger)}, opts...)
	return script.NewRuntime(e.namespaces, opts...)
}

var defaultEngine = mustEngine()

func mustEngine() *Engine {
	e, err := NewEngine()
	if err != nil {
		panic("classkit: default engine: " + err.Error())
	}
	return e
}

// Default returns the process-wide engine used by the package functions.
func Default() *Engine { return defaultEngine }

// Create builds a class on the default engine.
func Create(args ...any) (*Class, error) { return defaultEngine.Create(args...) }

// AddMutator registers a mutator on the default engine.
func AddMutator(name string, h Handlers) error { return defaultEngine.AddMutator(name, h) }

// RemoveMutator unregisters a mutator from the default engine.
func RemoveMutator(name string) error { return defaultEngine.RemoveMutator(name) }

// GetNamespace returns a namespace of the default engine. Without a name it
// returns the global namespace.
func GetNamespace(name ...string) *Namespace {
	if len(name) == 0 {
		return defaultEngine.Global()
	}
	return defaultEngine.Namespace(name[0])
}

// DestroyNamespace removes a namespace from the default engine.
func DestroyNamespace(name string) { defaultEngine.DestroyNamespace(name) }

// TestNamespace finds the most specific namespace of the default engine.
func TestNamespace(path string) (*Namespace, bool) { return defaultEngine.TestNamespace(path) }

// NewObserver creates an observer.
func NewObserver(initial any, opts ...observer.Option) *Observer {
	return defaultEngine.NewObserver(initial, opts...)
}

// Observer options.
var (
	WithGetter = observer.WithGetter
	WithSetter = observer.WithSetter
	ReadOnly   = observer.ReadOnly
	WithDelay  = observer.WithDelay
)
