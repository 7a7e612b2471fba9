package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Settings represents the top-level funflow.yaml configuration.
type Settings struct {
	// Library lists the sources function descriptors are loaded from.
	Library LibrarySettings `yaml:"library"`

	// Naming selects the identifier naming scheme: "default" or "keyed".
	Naming string `yaml:"naming,omitempty"`

	// Cache configures the incremental compile cache.
	Cache CacheSettings `yaml:"cache"`

	// Log configures diagnostics output.
	Log LogSettings `yaml:"log"`

	// dir is the directory the settings file was read from. Relative paths
	// in the file are resolved against it.
	dir string
}

// LibrarySettings lists descriptor sources.
type LibrarySettings struct {
	// Manifests are YAML function manifests.
	Manifests []string `yaml:"manifests,omitempty"`

	// GoPackages are Go import paths (or ./relative dirs) whose exported
	// functions and methods become callable nodes.
	GoPackages []string `yaml:"go_packages,omitempty"`

	// ProtoFiles are .proto files, named relative to ProtoImportPaths (or the
	// settings directory), whose rpc methods become callable nodes.
	ProtoFiles []string `yaml:"proto_files,omitempty"`

	// ProtoImportPaths are searched when resolving proto imports.
	ProtoImportPaths []string `yaml:"proto_import_paths,omitempty"`

	// Reflection lists gRPC server addresses queried through server reflection.
	Reflection []string `yaml:"reflection,omitempty"`
}

// CacheSettings configures the compile cache.
type CacheSettings struct {
	// Path is the SQLite database file. Empty disables the cache.
	Path string `yaml:"path,omitempty"`
}

// LogSettings configures the logger.
type LogSettings struct {
	// Level is one of debug, info, warn, error. Defaults to warn.
	Level string `yaml:"level,omitempty"`
}

const (
	NamingDefault = "default"
	NamingKeyed   = "keyed"
)

// ErrInvalidSettings is wrapped by every validation failure.
var ErrInvalidSettings = errors.New("invalid settings")

// Default returns settings used when no funflow.yaml exists.
func Default() *Settings {
	return &Settings{Naming: NamingDefault, dir: "."}
}

// Load reads and validates a settings file.
func Load(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	s, err := Parse(data, path)
	if err != nil {
		return nil, err
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Parse parses settings from YAML. path is only used in error messages.
func Parse(data []byte, path string) (*Settings, error) {
	s := Default()
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// Validate checks the settings for consistency.
func (s *Settings) Validate() error {
	switch s.Naming {
	case "":
		s.Naming = NamingDefault
	case NamingDefault, NamingKeyed:
	default:
		return fmt.Errorf("%w: unknown naming scheme %q (want %q or %q)", ErrInvalidSettings, s.Naming, NamingDefault, NamingKeyed)
	}
	if _, err := ParseLevel(s.Log.Level); err != nil {
		return err
	}
	for _, addr := range s.Library.Reflection {
		if strings.TrimSpace(addr) == "" {
			return fmt.Errorf("%w: empty reflection address", ErrInvalidSettings)
		}
	}
	return nil
}

// Resolve makes a path from the settings file absolute relative to the
// directory the file was loaded from. Go import paths are left alone.
func (s *Settings) Resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(s.dir, path)
}

// ResolvePackage resolves a go_packages entry: ./relative directories are
// anchored at the settings directory, import paths pass through.
func (s *Settings) ResolvePackage(pkg string) string {
	if strings.HasPrefix(pkg, "./") || strings.HasPrefix(pkg, "../") {
		p := s.Resolve(pkg)
		if !filepath.IsAbs(p) && !strings.HasPrefix(p, ".") {
			p = "./" + p
		}
		return p
	}
	return pkg
}

// ParseLevel maps a level name onto slog. Empty means warn.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "":
		return slog.LevelWarn, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("%w: unknown log level %q", ErrInvalidSettings, name)
}

// FindSettings searches dir and its parents for a settings file.
// Returns "" when none exists up to the filesystem root.
func FindSettings(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving directory: %w", err)
	}

	for {
		for _, name := range []string{SettingsFileName, "funflow.yml"} {
			candidate := filepath.Join(dir, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}
