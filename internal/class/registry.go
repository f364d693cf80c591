package class

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/value"
)

// Mutator is the base interface for all mutators. A mutator implements any
// subset of the hook interfaces below; the registry only calls the hooks a
// mutator actually provides.
type Mutator interface {
	// Name returns the unique mutator name. It determines the property
	// prefix the mutator claims.
	Name() string
}

// CreateHook runs once per created class, before descriptor properties are
// installed.
type CreateHook interface {
	OnCreate(k, parent *Class) error
}

// PropertyAddHook receives properties whose name carries the mutator prefix.
// name has the prefix stripped.
type PropertyAddHook interface {
	OnPropertyAdd(k, parent *Class, name string, v any) error
}

// PropertyRemoveHook receives removals of prefixed properties.
type PropertyRemoveHook interface {
	OnPropertyRemove(k *Class, name string) error
}

// InstanceInitHook runs against every new instance before init. A non-nil
// result replaces the instance as the construction result.
type InstanceInitHook interface {
	OnInstanceInit(inst *value.Object, k *Class) (any, error)
}

// KeywordProvider is implemented by mutators that reserve extra member names.
type KeywordProvider interface {
	Keywords() []string
}

// Handlers is a set of optional hook functions registered under a name with
// AddMutator.
type Handlers struct {
	OnCreate         func(k, parent *Class) error
	OnPropertyAdd    func(k, parent *Class, name string, v any) error
	OnPropertyRemove func(k *Class, name string) error
	OnInstanceInit   func(inst *value.Object, k *Class) (any, error)
}

// entry is a registered mutator with its resolved hooks.
type entry struct {
	name     string
	prefix   string
	sentinel string
	mutator  Mutator

	create   func(k, parent *Class) error
	add      func(k, parent *Class, name string, v any) error
	remove   func(k *Class, name string) error
	init     func(inst *value.Object, k *Class) (any, error)
	keywords []string
}

// Prefix returns the property prefix claimed by the mutator called name.
func Prefix(name string) string {
	return "__" + name + "_"
}

// Sentinel returns the container property name of the mutator called name.
// An object stored under it expands into individually prefixed properties.
func Sentinel(name string) string {
	return "__" + name
}

// Registry is an ordered table of named mutators. Hooks fire in registration
// order within each hook type.
type Registry struct {
	mu      sync.RWMutex
	entries []*entry
	logger  *zap.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets the logger used for registry events.
func WithRegistryLogger(l *zap.Logger) RegistryOption {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates an empty mutator registry.
func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		entries: make([]*entry, 0),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a mutator. Returns ErrDuplicateName if the name is taken and
// value.ErrTypeConstraint if it is empty.
func (r *Registry) Register(m Mutator) error {
	e := &entry{
		name:     m.Name(),
		prefix:   Prefix(m.Name()),
		sentinel: Sentinel(m.Name()),
		mutator:  m,
	}
	if h, ok := m.(CreateHook); ok {
		e.create = h.OnCreate
	}
	if h, ok := m.(PropertyAddHook); ok {
		e.add = h.OnPropertyAdd
	}
	if h, ok := m.(PropertyRemoveHook); ok {
		e.remove = h.OnPropertyRemove
	}
	if h, ok := m.(InstanceInitHook); ok {
		e.init = h.OnInstanceInit
	}
	if kp, ok := m.(KeywordProvider); ok {
		e.keywords = kp.Keywords()
	}
	return r.insert(e)
}

// AddMutator registers a set of hook functions under name.
func (r *Registry) AddMutator(name string, h Handlers) error {
	return r.insert(&entry{
		name:     name,
		prefix:   Prefix(name),
		sentinel: Sentinel(name),
		create:   h.OnCreate,
		add:      h.OnPropertyAdd,
		remove:   h.OnPropertyRemove,
		init:     h.OnInstanceInit,
	})
}

func (r *Registry) insert(e *entry) error {
	if e.name == "" {
		return fmt.Errorf("%w: mutator name must not be empty", value.ErrTypeConstraint)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries {
		if existing.name == e.name {
			return fmt.Errorf("%w: %s", ErrDuplicateName, e.name)
		}
	}
	r.entries = append(r.entries, e)
	r.logger.Debug("mutator registered",
		zap.String("mutator", e.name),
		zap.String("prefix", e.prefix),
	)
	return nil
}

// RemoveMutator unregisters a mutator by name. Returns ErrUnknownName if it is
// not registered.
func (r *Registry) RemoveMutator(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, e := range r.entries {
		if e.name == name {
			r.entries = append(r.entries[:i:i], r.entries[i+1:]...)
			r.logger.Debug("mutator removed", zap.String("mutator", name))
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownName, name)
}

// Has reports whether a mutator is registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.name == name {
			return true
		}
	}
	return false
}

// Get returns the mutator registered under name, if it was added with
// Register.
func (r *Registry) Get(name string) (Mutator, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entries {
		if e.name == name && e.mutator != nil {
			return e.mutator, true
		}
	}
	return nil, false
}

// Names returns the registered mutator names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.entries))
	for i, e := range r.entries {
		names[i] = e.name
	}
	return names
}

// Count returns the number of registered mutators.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// snapshot copies the entry list so hooks run outside the lock and may
// themselves modify the registry.
func (r *Registry) snapshot() []*entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := make([]*entry, len(r.entries))
	copy(entries, r.entries)
	return entries
}

// match finds the first mutator claiming name. container reports whether
// name is the mutator's container sentinel; otherwise stripped is name
// without the prefix.
func (r *Registry) match(name string) (e *entry, stripped string, container bool) {
	if !strings.HasPrefix(name, "__") {
		return nil, "", false
	}
	for _, cand := range r.snapshot() {
		if name == cand.sentinel {
			return cand, "", true
		}
		if strings.HasPrefix(name, cand.prefix) {
			return cand, strings.TrimPrefix(name, cand.prefix), false
		}
	}
	return nil, "", false
}

// isKeyword reports whether some mutator reserved name.
func (r *Registry) isKeyword(name string) bool {
	for _, e := range r.snapshot() {
		for _, kw := range e.keywords {
			if kw == name {
				return true
			}
		}
	}
	return false
}

func (r *Registry) runCreate(k, parent *Class) error {
	for _, e := range r.snapshot() {
		if e.create == nil {
			continue
		}
		if err := e.create(k, parent); err != nil {
			return fmt.Errorf("mutator %s: %w", e.name, err)
		}
	}
	return nil
}

func (r *Registry) runInstanceInit(inst *value.Object, k *Class) (any, error) {
	var result any
	for _, e := range r.snapshot() {
		if e.init == nil {
			continue
		}
		v, err := e.init(inst, k)
		if err != nil {
			return nil, fmt.Errorf("mutator %s: %w", e.name, err)
		}
		if v != nil {
			result = v
		}
	}
	return result, nil
}
