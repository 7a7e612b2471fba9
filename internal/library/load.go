package library

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/funvibe/funflow/internal/config"
)

// Load builds a registry from every source listed in the settings:
// manifests, then Go packages, proto files and reflection targets.
func Load(ctx context.Context, s *config.Settings, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	reg := NewRegistry()
	lib := s.Library

	add := func(source string, descs []*FunctionDescriptor) error {
		if err := reg.Register(descs...); err != nil {
			return fmt.Errorf("%s: %w", source, err)
		}
		logger.Debug("loaded functions", "source", source, "count", len(descs))
		return nil
	}

	for _, path := range lib.Manifests {
		descs, err := LoadManifestFile(s.Resolve(path))
		if err != nil {
			return nil, err
		}
		if err := add(path, descs); err != nil {
			return nil, err
		}
	}

	if len(lib.GoPackages) > 0 {
		patterns := make([]string, len(lib.GoPackages))
		for i, pkg := range lib.GoPackages {
			patterns[i] = s.ResolvePackage(pkg)
		}
		descs, err := NewInspector("").Inspect(patterns...)
		if err != nil {
			return nil, err
		}
		if err := add("go packages", descs); err != nil {
			return nil, err
		}
	}

	if len(lib.ProtoFiles) > 0 {
		// proto_files name files relative to the import paths.
		importPaths := []string{s.Resolve(".")}
		if len(lib.ProtoImportPaths) > 0 {
			importPaths = importPaths[:0]
			for _, p := range lib.ProtoImportPaths {
				importPaths = append(importPaths, s.Resolve(p))
			}
		}
		descs, err := LoadProtoFiles(importPaths, lib.ProtoFiles...)
		if err != nil {
			return nil, err
		}
		if err := add("proto files", descs); err != nil {
			return nil, err
		}
	}

	for _, target := range lib.Reflection {
		descs, err := LoadReflection(ctx, target)
		if err != nil {
			return nil, err
		}
		if err := add(target, descs); err != nil {
			return nil, err
		}
	}

	return reg, nil
}
