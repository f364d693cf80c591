package namespace

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/value"
)

// Autoloader resolves a missing class. It must call done exactly once, with
// nil if the class cannot be loaded. It may call done before returning or
// later.
type Autoloader func(name string, done func(*class.Class))

func nothing(_ string, done func(*class.Class)) { done(nil) }

// Namespace is a named set of classes.
type Namespace struct {
	name     string
	registry *Registry

	// Classes by name relative to the namespace
	classes map[string]*class.Class

	// Nested containers; a segment is either a container object or a class
	root *value.Object

	autoloader Autoloader
}

func newNamespace(r *Registry, name string) *Namespace {
	return &Namespace{
		name:       name,
		registry:   r,
		classes:    make(map[string]*class.Class),
		root:       value.NewObject(nil),
		autoloader: nothing,
	}
}

// Name returns the namespace name. The global namespace has an empty name.
func (n *Namespace) Name() string { return n.name }

// IsGlobal reports whether n is the global namespace.
func (n *Namespace) IsGlobal() bool { return n.name == "" }

// Root returns the container tree holding classes under their dotted path.
func (n *Namespace) Root() *value.Object { return n.root }

// Classes returns the registered relative names, sorted.
func (n *Namespace) Classes() []string {
	names := make([]string, 0, len(n.classes))
	for rel := range n.classes {
		names = append(names, rel)
	}
	sort.Strings(names)
	return names
}

// relative strips a leading "<namespace>." from name.
func (n *Namespace) relative(name string) string {
	if n.name != "" && strings.HasPrefix(name, n.name+".") {
		return strings.TrimPrefix(name, n.name+".")
	}
	return name
}

func (n *Namespace) qualify(rel string) string {
	if n.name == "" {
		return rel
	}
	return n.name + "." + rel
}

// Create builds a class and registers it under name. The remaining arguments
// follow class.Factory.Create; a parent or trait given as a string is
// resolved in this namespace, then the global one.
func (n *Namespace) Create(name string, args ...any) (*class.Class, error) {
	rel := n.relative(name)
	if rel == "" {
		return nil, fmt.Errorf("%w: empty class name", value.ErrTypeConstraint)
	}

	resolved := make([]any, len(args))
	for i, arg := range args {
		if i == len(args)-1 {
			resolved[i] = arg
			continue
		}
		r, err := n.resolveRefs(arg)
		if err != nil {
			return nil, err
		}
		resolved[i] = r
	}

	k, err := n.registry.factory.Create(resolved...)
	if err != nil {
		return nil, err
	}

	simple := rel
	if i := strings.LastIndex(rel, "."); i >= 0 {
		simple = rel[i+1:]
	}
	k.SetName(simple, n.qualify(rel))
	n.register(rel, k)

	n.registry.logger.Debug("class registered",
		zap.String("namespace", n.name),
		zap.String("class", k.FullName()),
		zap.String("id", k.ID()),
	)
	return k, nil
}

// resolveRefs replaces string class references in a parent or trait argument.
func (n *Namespace) resolveRefs(arg any) (any, error) {
	switch ref := arg.(type) {
	case string:
		return n.resolve(ref)
	case []any:
		out := make([]any, len(ref))
		for i, item := range ref {
			s, ok := item.(string)
			if !ok {
				out[i] = item
				continue
			}
			k, err := n.resolve(s)
			if err != nil {
				return nil, err
			}
			out[i] = k
		}
		return out, nil
	}
	return arg, nil
}

func (n *Namespace) resolve(ref string) (*class.Class, error) {
	if k := n.Get(ref); k != nil {
		return k, nil
	}
	return nil, fmt.Errorf("%w: %q in namespace %q", ErrUnresolvedReference, ref, n.name)
}

// register stores k flat and nested under rel.
func (n *Namespace) register(rel string, k *class.Class) {
	if prev, ok := n.classes[rel]; ok && prev != k {
		n.registry.disown(prev)
	}
	n.classes[rel] = k
	n.registry.own(k, n, rel)

	segments := strings.Split(rel, ".")
	var cur value.Holder = n.root
	for _, seg := range segments[:len(segments)-1] {
		next, _ := cur.Get(seg)
		switch c := next.(type) {
		case *class.Class:
			cur = c
		case *value.Object:
			cur = c
		default:
			container := value.NewObject(nil)
			cur.Set(seg, container)
			cur = container
		}
	}
	cur.Set(segments[len(segments)-1], k)
}

// unregister removes k from rel if it is still the class stored there.
func (n *Namespace) unregister(rel string, k *class.Class) {
	if n.classes[rel] != k {
		return
	}
	delete(n.classes, rel)
	n.registry.disown(k)

	segments := strings.Split(rel, ".")
	var cur value.Holder = n.root
	for _, seg := range segments[:len(segments)-1] {
		next, _ := cur.Get(seg)
		h, ok := next.(value.Holder)
		if !ok {
			return
		}
		cur = h
	}
	if v, _ := cur.Get(segments[len(segments)-1]); v == any(k) {
		cur.Delete(segments[len(segments)-1])
	}
}

// nestedUnder returns the classes registered below rel by dotted prefix.
func (n *Namespace) nestedUnder(rel string) []*class.Class {
	prefix := rel + "."
	var out []*class.Class
	for _, name := range n.Classes() {
		if strings.HasPrefix(name, prefix) {
			out = append(out, n.classes[name])
		}
	}
	return out
}

// Resolve walks the container tree along a dotted path. It returns a class,
// a container object, or a static member of a class.
func (n *Namespace) Resolve(path string) (any, bool) {
	var cur value.Holder = n.root
	segments := strings.Split(n.relative(path), ".")
	for i, seg := range segments {
		v, ok := cur.Get(seg)
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return v, true
		}
		h, isHolder := v.(value.Holder)
		if !isHolder {
			return nil, false
		}
		cur = h
	}
	return nil, false
}

// Get returns the class registered under name, or nil. Lookups in a named
// namespace fall back to the global namespace; the global namespace resolves
// namespace-qualified names such as "app.ui.Button".
func (n *Namespace) Get(name string) *class.Class {
	if k, ok := n.classes[n.relative(name)]; ok {
		return k
	}
	if !n.IsGlobal() {
		return n.registry.global.Get(name)
	}
	if ns, ok := n.registry.Test(name); ok && ns != n {
		if k, found := ns.classes[ns.relative(name)]; found {
			return k
		}
	}
	return nil
}

// Has reports whether Get would find name.
func (n *Namespace) Has(name string) bool {
	return n.Get(name) != nil
}

// Load resolves name asynchronously. A class that is already registered is
// passed to done immediately; otherwise the autoloader is asked for it.
func (n *Namespace) Load(name string, done func(*class.Class)) {
	if k := n.Get(name); k != nil {
		done(k)
		return
	}
	n.registry.logger.Debug("autoload",
		zap.String("namespace", n.name),
		zap.String("class", name),
	)
	n.autoloader(name, done)
}

// SetAutoloader installs the resolver Load uses for missing names.
func (n *Namespace) SetAutoloader(fn Autoloader) error {
	if fn == nil {
		return fmt.Errorf("%w: autoloader must be a function", value.ErrTypeConstraint)
	}
	n.autoloader = fn
	return nil
}

// Destroy removes the class registered under name together with every class
// nested under it and every subclass. Unknown names are ignored.
func (n *Namespace) Destroy(name string) {
	k, ok := n.classes[n.relative(name)]
	if !ok {
		return
	}
	n.registry.destroyClass(k)
}
