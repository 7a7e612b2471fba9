package library

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/funvibe/funflow/internal/config"
)

func TestLoadFromSettings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "lib.yaml"), `
functions:
  - name: Sum
    params: [{name: a}, {name: b}]
`)
	writeFile(t, filepath.Join(dir, "protos", "geometry.proto"), geometryProto)
	writeFile(t, filepath.Join(dir, "funflow.yaml"), `
library:
  manifests: [lib.yaml]
  proto_files: [geometry.proto]
  proto_import_paths: [protos]
`)

	s, err := config.Load(filepath.Join(dir, "funflow.yaml"))
	if err != nil {
		t.Fatalf("loading settings: %v", err)
	}
	reg, err := Load(context.Background(), s, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"Sum@var,var", "Curves.SplitAt@string,double", "Curves.Measure@Point"} {
		if _, ok := reg.Lookup(name); !ok {
			t.Errorf("%s not registered", name)
		}
	}
	if reg.Len() != 3 {
		t.Errorf("Len() = %d, want 3", reg.Len())
	}
}

func TestLoadFromSettings_Duplicate(t *testing.T) {
	dir := t.TempDir()
	manifest := "functions:\n  - name: Sum\n"
	writeFile(t, filepath.Join(dir, "a.yaml"), manifest)
	writeFile(t, filepath.Join(dir, "b.yaml"), manifest)
	writeFile(t, filepath.Join(dir, "funflow.yaml"), "library:\n  manifests: [a.yaml, b.yaml]\n")

	s, err := config.Load(filepath.Join(dir, "funflow.yaml"))
	if err != nil {
		t.Fatalf("loading settings: %v", err)
	}
	_, err = Load(context.Background(), s, nil)
	if !errors.Is(err, ErrDuplicateFunction) {
		t.Errorf("error = %v, want ErrDuplicateFunction", err)
	}
}
