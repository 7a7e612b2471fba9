// Package library describes the functions dataflow nodes can call.
//
// Descriptors come from several sources:
//   - YAML manifests (LoadManifest)
//   - Go packages introspected via go/packages (Inspector)
//   - .proto service definitions (LoadProtoFiles)
//   - live gRPC servers through server reflection (LoadReflection)
//
// All sources register into a Registry keyed by mangled name. Descriptors are
// read-only once registered and are shared by every node that calls them.
package library

import (
	"fmt"
	"strings"
)

// Kind tells the lowering core which call shape a function needs.
type Kind int

const (
	KindFunction Kind = iota
	KindConstructor
	KindInstanceMethod
	KindCustom
)

var kindNames = map[Kind]string{
	KindFunction:       "function",
	KindConstructor:    "constructor",
	KindInstanceMethod: "method",
	KindCustom:         "custom",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind parses the manifest spelling of a kind. Empty means function.
func ParseKind(s string) (Kind, error) {
	if s == "" {
		return KindFunction, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown function kind %q", s)
}

// Parameter is one declared input of a function.
type Parameter struct {
	Name string
	Type string
}

// FunctionDescriptor describes a callable function.
type FunctionDescriptor struct {
	// Name is the unqualified function name.
	Name string

	// ClassName qualifies constructors and methods. Empty for free functions.
	ClassName string

	// DisplayName is shown as the node title. Defaults to Name.
	DisplayName string

	Kind Kind

	// Params are the declared inputs, excluding the receiver of methods.
	Params []Parameter

	// ReturnType names the single output when ReturnKeys is empty.
	ReturnType string

	// ReturnKeys name the fields of a multi-valued result, in output order.
	// Empty means the function has one unnamed output.
	ReturnKeys []string

	Description string
}

// QualifiedName is the name the emitted call uses: Class.Name or Name.
func (d *FunctionDescriptor) QualifiedName() string {
	if d.ClassName == "" {
		return d.Name
	}
	return d.ClassName + "." + d.Name
}

// MangledName uniquely identifies an overload: Class.Name@T1,T2
func (d *FunctionDescriptor) MangledName() string {
	types := make([]string, len(d.Params))
	for i, p := range d.Params {
		types[i] = p.Type
		if types[i] == "" {
			types[i] = "var"
		}
	}
	if len(types) == 0 {
		return d.QualifiedName()
	}
	return d.QualifiedName() + "@" + strings.Join(types, ",")
}

// Title returns DisplayName, falling back to the qualified name.
func (d *FunctionDescriptor) Title() string {
	if d.DisplayName != "" {
		return d.DisplayName
	}
	return d.QualifiedName()
}

// IsMultiOutput reports whether the result has more than one named field.
func (d *FunctionDescriptor) IsMultiOutput() bool {
	return len(d.ReturnKeys) > 1
}
