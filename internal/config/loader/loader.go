// Package loader reads classkit configuration from files and the
// environment into nested maps.
//
// File formats are picked by extension: .toml is parsed with go-toml,
// .yaml and .yml with yaml.v3. Environment variables with the CLASSKIT_
// prefix override file values.
package loader

import "os"

// Loader is one configuration source. Load returns nil, nil when the source
// is absent.
type Loader interface {
	Load() (map[string]any, error)
}

var (
	_ Loader = (*FileLoader)(nil)
	_ Loader = (*EnvLoader)(nil)
)

// FileSystem reads configuration files.
type FileSystem interface {
	ReadFile(path string) ([]byte, error)
}

// OSFS reads from the operating system.
type OSFS struct{}

// ReadFile implements FileSystem.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// DefaultFS returns the OS file system.
func DefaultFS() FileSystem {
	return OSFS{}
}
