package library

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

const geomSource = `package geom

import "errors"

type Point struct{ X, Y float64 }

// NewPoint creates a point.
func NewPoint(x, y float64) *Point { return &Point{x, y} }

func (p *Point) Translate(dx, dy float64) *Point { return &Point{p.X + dx, p.Y + dy} }

func (p Point) Split() (left, right Point) { return p, p }

func Distance(a, b Point) float64 { return 0 }

func Parse(s string) (x float64, y float64, err error) { return 0, 0, errors.New(s) }

func Pair(int, string) (int, string) { return 0, "" }

func helper() {}
`

func TestInspector(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping go/packages test in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go toolchain not available")
	}

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/geom\n\ngo 1.21\n")
	writeFile(t, filepath.Join(dir, "geom.go"), geomSource)

	descs, err := NewInspector(dir).Inspect(".")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byName := make(map[string]*FunctionDescriptor)
	for _, d := range descs {
		byName[d.QualifiedName()] = d
	}
	if _, ok := byName["geom.helper"]; ok {
		t.Error("unexported function described")
	}

	tests := []struct {
		name       string
		kind       Kind
		params     int
		returnKeys []string
		returnType string
	}{
		{"Point.NewPoint", KindConstructor, 2, nil, "*Point"},
		{"Point.Translate", KindInstanceMethod, 2, nil, "*Point"},
		{"Point.Split", KindInstanceMethod, 0, []string{"left", "right"}, ""},
		{"geom.Distance", KindFunction, 2, nil, "float64"},
		{"geom.Parse", KindFunction, 1, []string{"x", "y"}, ""},
		{"geom.Pair", KindFunction, 2, []string{"Result0", "Result1"}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := byName[tt.name]
			if !ok {
				t.Fatalf("%s not described", tt.name)
			}
			if d.Kind != tt.kind {
				t.Errorf("kind = %v, want %v", d.Kind, tt.kind)
			}
			if len(d.Params) != tt.params {
				t.Errorf("params = %v, want %d", d.Params, tt.params)
			}
			if len(d.ReturnKeys) != len(tt.returnKeys) {
				t.Fatalf("return keys = %v, want %v", d.ReturnKeys, tt.returnKeys)
			}
			for i := range tt.returnKeys {
				if d.ReturnKeys[i] != tt.returnKeys[i] {
					t.Errorf("return key %d = %q, want %q", i, d.ReturnKeys[i], tt.returnKeys[i])
				}
			}
			if d.ReturnType != tt.returnType {
				t.Errorf("return type = %q, want %q", d.ReturnType, tt.returnType)
			}
		})
	}

	if got := byName["geom.Pair"].Params[0].Name; got != "arg0" {
		t.Errorf("unnamed param = %q, want arg0", got)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
