package library

import (
	"fmt"
	"go/types"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"
)

// Inspector turns the exported API of Go packages into function descriptors:
//   - exported functions become functions qualified by the package name
//   - New<T> functions whose first result is T or *T become constructors of T
//   - exported methods of exported types become instance methods
//
// Two or more results (a trailing error excluded) make a multi-output
// function; named results supply the return keys.
type Inspector struct {
	// Dir is the directory packages are resolved from. Defaults to the
	// current directory.
	Dir string
}

func NewInspector(dir string) *Inspector {
	return &Inspector{Dir: dir}
}

// Inspect loads the packages matching patterns and describes their API.
// Descriptors are ordered by package, then by declaration name.
func (ins *Inspector) Inspect(patterns ...string) ([]*FunctionDescriptor, error) {
	pkgs, err := ins.loadPackages(patterns)
	if err != nil {
		return nil, err
	}

	var descs []*FunctionDescriptor
	for _, pkg := range pkgs {
		descs = append(descs, describePackage(pkg.Types)...)
	}
	return descs, nil
}

// loadPackages loads the specified Go packages using go/packages.
func (ins *Inspector) loadPackages(patterns []string) ([]*packages.Package, error) {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedTypes,
		Dir:  ins.Dir,
		Env:  append(os.Environ(), "GOWORK=off"),
	}

	pkgs, err := packages.Load(cfg, patterns...)
	if err != nil {
		return nil, fmt.Errorf("loading packages: %w", err)
	}

	// Check for package errors
	var errs []string
	for _, pkg := range pkgs {
		for _, e := range pkg.Errors {
			errs = append(errs, fmt.Sprintf("%s: %s", pkg.PkgPath, e.Msg))
		}
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("package errors:\n  %s", strings.Join(errs, "\n  "))
	}

	return pkgs, nil
}

// describePackage walks the package scope in name order.
func describePackage(pkg *types.Package) []*FunctionDescriptor {
	var descs []*FunctionDescriptor
	scope := pkg.Scope()
	qualifier := types.RelativeTo(pkg)

	for _, name := range scope.Names() {
		obj := scope.Lookup(name)
		if !obj.Exported() {
			continue
		}

		switch obj := obj.(type) {
		case *types.Func:
			sig := obj.Type().(*types.Signature)
			if sig.TypeParams().Len() > 0 {
				continue
			}
			d := describeSignature(obj.Name(), sig, qualifier)
			if class := constructedType(obj.Name(), sig, scope); class != "" {
				d.Kind = KindConstructor
				d.ClassName = class
			} else {
				d.Kind = KindFunction
				d.ClassName = pkg.Name()
			}
			descs = append(descs, d)

		case *types.TypeName:
			named, ok := obj.Type().(*types.Named)
			if !ok || named.TypeParams().Len() > 0 {
				continue
			}
			if _, isIface := named.Underlying().(*types.Interface); isIface {
				continue
			}
			mset := types.NewMethodSet(types.NewPointer(named))
			for i := 0; i < mset.Len(); i++ {
				fn, ok := mset.At(i).Obj().(*types.Func)
				if !ok || !fn.Exported() {
					continue
				}
				d := describeSignature(fn.Name(), fn.Type().(*types.Signature), qualifier)
				d.Kind = KindInstanceMethod
				d.ClassName = obj.Name()
				descs = append(descs, d)
			}
		}
	}
	return descs
}

// describeSignature extracts parameters and outputs. Kind and ClassName are
// left to the caller.
func describeSignature(name string, sig *types.Signature, qualifier types.Qualifier) *FunctionDescriptor {
	d := &FunctionDescriptor{Name: name}

	params := sig.Params()
	for i := 0; i < params.Len(); i++ {
		p := params.At(i)
		pname := p.Name()
		if pname == "" || pname == "_" {
			pname = fmt.Sprintf("arg%d", i)
		}
		d.Params = append(d.Params, Parameter{Name: pname, Type: types.TypeString(p.Type(), qualifier)})
	}

	results := sig.Results()
	n := results.Len()
	if n > 0 && isErrorType(results.At(n-1).Type()) {
		n--
	}
	switch {
	case n == 1:
		d.ReturnType = types.TypeString(results.At(0).Type(), qualifier)
	case n > 1:
		for i := 0; i < n; i++ {
			key := results.At(i).Name()
			if key == "" || key == "_" {
				key = fmt.Sprintf("Result%d", i)
			}
			d.ReturnKeys = append(d.ReturnKeys, key)
		}
	}
	return d
}

// constructedType returns T when name is New<T> and the first result is T
// or *T for a type T declared in scope.
func constructedType(name string, sig *types.Signature, scope *types.Scope) string {
	class, ok := strings.CutPrefix(name, "New")
	if !ok || class == "" || sig.Results().Len() == 0 {
		return ""
	}
	if _, isType := scope.Lookup(class).(*types.TypeName); !isType {
		return ""
	}
	t := sig.Results().At(0).Type()
	if ptr, ok := t.(*types.Pointer); ok {
		t = ptr.Elem()
	}
	named, ok := t.(*types.Named)
	if !ok || named.Obj().Name() != class {
		return ""
	}
	return class
}

// isErrorType checks if a type is the error interface.
func isErrorType(t types.Type) bool {
	return types.Identical(t, types.Universe.Lookup("error").Type())
}
