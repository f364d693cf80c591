package namespace

import (
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/class"
)

// location records where a class is registered.
type location struct {
	ns  *Namespace
	rel string
}

// Registry owns the set of namespaces sharing one class factory.
type Registry struct {
	mu      sync.Mutex
	factory *class.Factory
	global  *Namespace
	spaces  map[string]*Namespace
	owners  map[*class.Class]location
	logger  *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for namespace events.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRegistry creates a registry whose namespaces build classes with f.
func NewRegistry(f *class.Factory, opts ...Option) *Registry {
	r := &Registry{
		factory: f,
		spaces:  make(map[string]*Namespace),
		owners:  make(map[*class.Class]location),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.global = newNamespace(r, "")
	return r
}

// Factory returns the class factory.
func (r *Registry) Factory() *class.Factory { return r.factory }

// Global returns the global namespace.
func (r *Registry) Global() *Namespace { return r.global }

// Namespace returns the namespace called name, creating it on first use.
// The empty name is the global namespace.
func (r *Registry) Namespace(name string) *Namespace {
	if name == "" {
		return r.global
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if ns, ok := r.spaces[name]; ok {
		return ns
	}
	ns := newNamespace(r, name)
	r.spaces[name] = ns
	r.logger.Debug("namespace created", zap.String("namespace", name))
	return ns
}

// Lookup returns the namespace called name without creating it.
func (r *Registry) Lookup(name string) (*Namespace, bool) {
	if name == "" {
		return r.global, true
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ns, ok := r.spaces[name]
	return ns, ok
}

// Destroy removes the namespace called name. Classes created in it are left
// alone. Destroying the global namespace or a missing one does nothing.
func (r *Registry) Destroy(name string) {
	if name == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.spaces[name]; !ok {
		return
	}
	delete(r.spaces, name)
	r.logger.Debug("namespace destroyed", zap.String("namespace", name))
}

// Test returns the most specific registered namespace among the dotted
// prefixes of path, longest first.
func (r *Registry) Test(path string) (*Namespace, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for candidate := path; candidate != ""; {
		if ns, ok := r.spaces[candidate]; ok {
			return ns, true
		}
		i := strings.LastIndex(candidate, ".")
		if i < 0 {
			break
		}
		candidate = candidate[:i]
	}
	return nil, false
}

// Names returns the names of the registered namespaces, sorted, without the
// global namespace.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.spaces))
	for name := range r.spaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Where returns the namespace and relative name a class is registered under.
func (r *Registry) Where(k *class.Class) (*Namespace, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	loc, ok := r.owners[k]
	return loc.ns, loc.rel, ok
}

func (r *Registry) own(k *class.Class, ns *Namespace, rel string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.owners[k] = location{ns: ns, rel: rel}
}

func (r *Registry) disown(k *class.Class) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.owners, k)
}

// destroyClass unregisters k, every class nested under its name and every
// subclass, detaching each from its superclass.
func (r *Registry) destroyClass(k *class.Class) {
	if ns, rel, ok := r.Where(k); ok {
		ns.unregister(rel, k)
		for _, nested := range ns.nestedUnder(rel) {
			r.destroyClass(nested)
		}
	}
	for _, sub := range k.Subclasses() {
		r.destroyClass(sub)
	}
	k.Detach()
	r.logger.Debug("class destroyed", zap.String("class", k.String()))
}
