package lowering

import (
	"log/slog"

	"github.com/funvibe/funflow/internal/ast"
	"github.com/funvibe/funflow/internal/config"
	"github.com/funvibe/funflow/internal/graph"
	"github.com/funvibe/funflow/internal/library"
)

// hooksFor picks the call shape for a descriptor kind.
func hooksFor(def *library.FunctionDescriptor, logger *slog.Logger) Hooks {
	switch def.Kind {
	case library.KindConstructor:
		return &constructorCall{functionCall{def: def}}
	case library.KindInstanceMethod:
		return &methodCall{functionCall{def: def}}
	case library.KindCustom:
		return newCustomCall(def, logger)
	default:
		return &functionCall{def: def}
	}
}

// functionCall calls a free function: Name(args) or Class.Name(args).
type functionCall struct {
	def *library.FunctionDescriptor
}

func (f *functionCall) InitializeInputs(n *graph.Node) {
	for _, p := range f.def.Params {
		n.AddInPort(graph.PortData{Name: p.Name, Type: p.Type})
	}
}

func (f *functionCall) InitializeOutputs(n *graph.Node) {
	if len(f.def.ReturnKeys) == 0 {
		name := f.def.ReturnType
		if name == "" {
			name = config.DefaultPortName
		}
		n.AddOutPort(graph.PortData{Name: name, Type: f.def.ReturnType})
		return
	}
	for _, key := range f.def.ReturnKeys {
		n.AddOutPort(graph.PortData{Name: key})
	}
}

func (f *functionCall) FunctionApplication(n *graph.Node, args []ast.Expression) ast.Expression {
	return applyFunction(f.def.QualifiedName(), n, args)
}

// constructorCall calls Class.Name(args) to create an instance. Ports are the
// same as for a free function.
type constructorCall struct {
	functionCall
}

// methodCall calls an instance method. The receiver is the first input:
// Class.Name(this, args)
type methodCall struct {
	functionCall
}

func (m *methodCall) InitializeInputs(n *graph.Node) {
	n.AddInPort(graph.PortData{
		Name:        config.ThisParamName,
		Type:        m.def.ClassName,
		Description: m.def.ClassName + " instance",
	})
	m.functionCall.InitializeInputs(n)
}

// applyFunction emits a direct call when every input is connected.
// Otherwise it emits a function object binding the connected positions;
// args at unconnected positions are ignored and printed as free slots.
func applyFunction(name string, n *graph.Node, args []ast.Expression) ast.Expression {
	if !n.IsPartiallyApplied() {
		return ast.NewFunctionCall(name, args...)
	}

	arity := len(n.InPorts)
	bound := make([]int, 0, arity)
	padded := make([]ast.Expression, arity)
	for i := 0; i < arity; i++ {
		if n.HasInput(i) {
			bound = append(bound, i)
			if i < len(args) {
				padded[i] = args[i]
			}
		}
	}
	return ast.NewFunctionObject(name, arity, bound, padded)
}
