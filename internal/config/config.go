package config

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dshills/classkit/internal/config/loader"
)

// Default values.
const (
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultScriptTimeout = 5 * time.Second
	DefaultCallLimit     = 10_000_000
)

// Config holds the decoded settings.
type Config struct {
	Log      LogConfig
	Script   ScriptConfig
	Autoload AutoloadConfig
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// ScriptConfig contains Lua runtime settings.
type ScriptConfig struct {
	// Timeout bounds one top-level script execution. Zero disables it.
	Timeout time.Duration
	// CallLimit bounds the classkit calls of one execution. Zero disables it.
	CallLimit int64
}

// AutoloadConfig contains class file autoloading settings.
type AutoloadConfig struct {
	// Dir is the root of the class scripts. Empty disables autoloading.
	Dir string
	// Namespaces get the file autoloader. Empty means the global namespace.
	Namespaces []string
	// Watch reloads classes whose files change.
	Watch bool
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Script: ScriptConfig{
			Timeout:   DefaultScriptTimeout,
			CallLimit: DefaultCallLimit,
		},
	}
}

// defaultMap returns the defaults as a settings map.
func defaultMap() map[string]any {
	d := Default()
	return map[string]any{
		"log": map[string]any{
			"level":  d.Log.Level,
			"format": d.Log.Format,
		},
		"script": map[string]any{
			"timeout":    d.Script.Timeout,
			"call_limit": d.Script.CallLimit,
		},
		"autoload": map[string]any{
			"dir":        "",
			"namespaces": []any{},
			"watch":      false,
		},
	}
}

// Option configures Load.
type Option func(*options)

type options struct {
	fs        loader.FileSystem
	envPrefix string
}

// WithFS reads the configuration file from fsys.
func WithFS(fsys loader.FileSystem) Option {
	return func(o *options) { o.fs = fsys }
}

// WithEnvPrefix changes the environment variable prefix. An empty prefix
// disables environment overrides.
func WithEnvPrefix(prefix string) Option {
	return func(o *options) { o.envPrefix = prefix }
}

// Load reads the file at path, applies environment overrides and decodes the
// result. An empty path or a missing file uses the defaults.
func Load(path string, opts ...Option) (Config, error) {
	o := options{fs: loader.DefaultFS(), envPrefix: loader.DefaultEnvPrefix}
	for _, opt := range opts {
		opt(&o)
	}

	var layers []loader.Loader
	if path != "" {
		fl, err := loader.NewFileLoaderWithFS(o.fs, path)
		if err != nil {
			return Config{}, err
		}
		layers = append(layers, fl)
	}
	if o.envPrefix != "" {
		layers = append(layers, loader.NewEnvLoader(o.envPrefix))
	}

	merged := defaultMap()
	for _, l := range layers {
		m, err := l.Load()
		if err != nil {
			return Config{}, err
		}
		merged = loader.DeepMerge(merged, loader.Clone(m))
	}

	return FromMap(merged)
}

// Read decodes a configuration document from r without environment
// overrides.
func Read(r io.Reader, format loader.Format) (Config, error) {
	fl, err := loader.NewFileLoader("config." + string(format))
	if err != nil {
		return Config{}, err
	}
	m, err := fl.LoadFromReader(r)
	if err != nil {
		return Config{}, err
	}
	return FromMap(loader.DeepMerge(defaultMap(), m))
}

// FromMap decodes a settings map. Missing settings keep their defaults.
func FromMap(m map[string]any) (Config, error) {
	d := decoder{m: m}
	def := Default()

	cfg := Config{
		Log: LogConfig{
			Level:  strings.ToLower(d.string("log.level", def.Log.Level)),
			Format: strings.ToLower(d.string("log.format", def.Log.Format)),
		},
		Script: ScriptConfig{
			Timeout:   d.duration("script.timeout", def.Script.Timeout),
			CallLimit: d.int("script.call_limit", def.Script.CallLimit),
		},
		Autoload: AutoloadConfig{
			Dir:        d.string("autoload.dir", ""),
			Namespaces: d.strings("autoload.namespaces"),
			Watch:      d.bool("autoload.watch", false),
		},
	}
	if len(d.errs) > 0 {
		return Config{}, errors.Join(d.errs...)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the settings' ranges.
func (c Config) Validate() error {
	var errs []error
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, &ValidationError{Path: "log.level", Value: c.Log.Level, Message: "want debug, info, warn or error"})
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		errs = append(errs, &ValidationError{Path: "log.format", Value: c.Log.Format, Message: "want console or json"})
	}
	if c.Script.Timeout < 0 {
		errs = append(errs, &ValidationError{Path: "script.timeout", Value: c.Script.Timeout, Message: "must not be negative"})
	}
	if c.Script.CallLimit < 0 {
		errs = append(errs, &ValidationError{Path: "script.call_limit", Value: c.Script.CallLimit, Message: "must not be negative"})
	}
	if c.Autoload.Watch && c.Autoload.Dir == "" {
		errs = append(errs, &ValidationError{Path: "autoload.watch", Value: true, Message: "requires autoload.dir"})
	}
	return errors.Join(errs...)
}

// decoder reads typed values from a settings map and collects type errors.
type decoder struct {
	m    map[string]any
	errs []error
}

func (d *decoder) get(path string) (any, bool) {
	return loader.GetByPath(d.m, path)
}

func (d *decoder) fail(path, expected string, v any) {
	d.errs = append(d.errs, &TypeError{Path: path, Expected: expected, Actual: typeName(v)})
}

func (d *decoder) string(path, def string) string {
	v, ok := d.get(path)
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		d.fail(path, "string", v)
		return def
	}
	return s
}

func (d *decoder) bool(path string, def bool) bool {
	v, ok := d.get(path)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case bool:
		return val
	case int64:
		if val == 0 || val == 1 {
			return val == 1
		}
	}
	d.fail(path, "bool", v)
	return def
}

func (d *decoder) int(path string, def int64) int64 {
	v, ok := d.get(path)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case int:
		return int64(val)
	case int64:
		return val
	case float64:
		if val == float64(int64(val)) {
			return int64(val)
		}
	}
	d.fail(path, "int", v)
	return def
}

// duration accepts a time.Duration, a Go duration string or a number of
// milliseconds.
func (d *decoder) duration(path string, def time.Duration) time.Duration {
	v, ok := d.get(path)
	if !ok {
		return def
	}
	switch val := v.(type) {
	case time.Duration:
		return val
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			d.errs = append(d.errs, fmt.Errorf("%w: %s: %v", ErrTypeMismatch, path, err))
			return def
		}
		return parsed
	case int64:
		return time.Duration(val) * time.Millisecond
	case int:
		return time.Duration(val) * time.Millisecond
	case float64:
		return time.Duration(val * float64(time.Millisecond))
	}
	d.fail(path, "duration", v)
	return def
}

func (d *decoder) strings(path string) []string {
	v, ok := d.get(path)
	if !ok || v == nil {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return append([]string(nil), val...)
	case string:
		if val == "" {
			return nil
		}
		return []string{val}
	case []any:
		if len(val) == 0 {
			return nil
		}
		out := make([]string, len(val))
		for i, item := range val {
			s, ok := item.(string)
			if !ok {
				d.fail(path, "[]string", v)
				return nil
			}
			out[i] = s
		}
		return out
	}
	d.fail(path, "[]string", v)
	return nil
}

// typeName returns the type name for error messages.
func typeName(v any) string {
	if v == nil {
		return "nil"
	}
	switch v.(type) {
	case string:
		return "string"
	case int, int64:
		return "int"
	case float64:
		return "float64"
	case bool:
		return "bool"
	case time.Duration:
		return "duration"
	case []string:
		return "[]string"
	case []any:
		return "[]any"
	case map[string]any:
		return "map"
	default:
		return fmt.Sprintf("%T", v)
	}
}
