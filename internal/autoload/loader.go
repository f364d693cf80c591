package autoload

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/dshills/classkit/internal/class"
	"github.com/dshills/classkit/internal/namespace"
)

// Ext is the extension of class script files.
const Ext = ".lua"

// ErrOutsideRoot is returned for paths that are not below the loader root.
var ErrOutsideRoot = errors.New("path is outside the autoload directory")

// FileRunner executes a script file. *script.Runtime implements it.
type FileRunner interface {
	LoadFile(path string) error
}

// Loader maps class names to script files below a root directory.
type Loader struct {
	dir    string
	runner FileRunner
	logger *zap.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader logger.
func WithLogger(l *zap.Logger) Option {
	return func(ld *Loader) {
		if l != nil {
			ld.logger = l
		}
	}
}

// NewLoader creates a loader for the scripts below dir.
func NewLoader(dir string, runner FileRunner, opts ...Option) (*Loader, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	l := &Loader{
		dir:    abs,
		runner: runner,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Dir returns the absolute root directory.
func (l *Loader) Dir() string { return l.dir }

// Path returns the file a class of ns is loaded from.
func (l *Loader) Path(ns *namespace.Namespace, name string) string {
	qualified := name
	if !ns.IsGlobal() && !strings.HasPrefix(name, ns.Name()+".") {
		qualified = ns.Name() + "." + name
	}
	parts := strings.Split(qualified, ".")
	return filepath.Join(l.dir, filepath.Join(parts...)) + Ext
}

// ClassName returns the qualified class name a script file defines.
func (l *Loader) ClassName(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(l.dir, abs)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrOutsideRoot
	}
	if filepath.Ext(rel) != Ext {
		return "", ErrOutsideRoot
	}
	rel = strings.TrimSuffix(rel, Ext)
	return strings.ReplaceAll(rel, string(filepath.Separator), "."), nil
}

// Autoloader returns the autoloader for ns. A missing file or a failing
// script resolves to nil.
func (l *Loader) Autoloader(ns *namespace.Namespace) namespace.Autoloader {
	return func(name string, done func(*class.Class)) {
		path := l.Path(ns, name)
		if _, err := os.Stat(path); err != nil {
			l.logger.Debug("no class script",
				zap.String("namespace", ns.Name()),
				zap.String("class", name),
				zap.String("path", path),
			)
			done(nil)
			return
		}

		if err := l.runner.LoadFile(path); err != nil {
			l.logger.Warn("class script failed",
				zap.String("namespace", ns.Name()),
				zap.String("class", name),
				zap.String("path", path),
				zap.Error(err),
			)
			done(nil)
			return
		}

		k := ns.Get(name)
		if k == nil {
			l.logger.Warn("class script did not define the class",
				zap.String("namespace", ns.Name()),
				zap.String("class", name),
				zap.String("path", path),
			)
		}
		done(k)
	}
}

// Install sets the file autoloader on each named namespace of reg. An empty
// list installs it on the global namespace.
func (l *Loader) Install(reg *namespace.Registry, names []string) error {
	if len(names) == 0 {
		return reg.Global().SetAutoloader(l.Autoloader(reg.Global()))
	}
	for _, name := range names {
		ns := reg.Namespace(name)
		if err := ns.SetAutoloader(l.Autoloader(ns)); err != nil {
			return err
		}
	}
	return nil
}
