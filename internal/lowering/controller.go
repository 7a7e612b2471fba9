// Package lowering turns a function-call node into associative AST.
//
// A Controller pairs a function descriptor with the Hooks of one call shape
// (plain function, constructor, instance method, custom node). BuildAst emits
// the call and binds every declared output of the node:
//
//   - fully applied, or a single output: the call is bound to the preview
//     identifier, and each return key is bound to preview["key"] unless the
//     naming scheme already names the output that way;
//   - partially applied with several outputs: the partial application is
//     bound to a temporary derived from the node id, and each output becomes
//     an independent closure that waits for the missing arguments and then
//     extracts its own field.
//
// Lowering is pure and deterministic: the same node, descriptor and
// arguments always yield the same statements, temporaries included.
package lowering

import (
	"log/slog"

	"github.com/funvibe/funflow/internal/ast"
	"github.com/funvibe/funflow/internal/config"
	"github.com/funvibe/funflow/internal/graph"
	"github.com/funvibe/funflow/internal/library"
	"github.com/funvibe/funflow/internal/prettyprinter"
)

// Hooks is the capability set a call shape provides to the controller.
// Faults in a Hooks implementation are programming errors and propagate.
type Hooks interface {
	// InitializeInputs appends the input ports for the function.
	InitializeInputs(n *graph.Node)

	// InitializeOutputs appends the output ports for the function.
	InitializeOutputs(n *graph.Node)

	// FunctionApplication builds the call of the function on args. It must
	// not assign any of the node's identifiers.
	FunctionApplication(n *graph.Node, args []ast.Expression) ast.Expression
}

// Controller lowers nodes that act as calls of one function.
type Controller struct {
	// Definition describes the called function. nil marks an unresolved
	// binding: synchronization is then a no-op.
	Definition *library.FunctionDescriptor

	hooks  Hooks
	logger *slog.Logger
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHooks overrides the call shape chosen from the descriptor kind.
func WithHooks(h Hooks) Option {
	return func(c *Controller) {
		c.hooks = h
	}
}

// New creates a controller for def, picking the call shape from def.Kind.
func New(def *library.FunctionDescriptor, opts ...Option) *Controller {
	c := &Controller{
		Definition: def,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hooks == nil && def != nil {
		c.hooks = hooksFor(def, c.logger)
	}
	return c
}

// Hooks returns the call shape in use.
func (c *Controller) Hooks() Hooks {
	return c.hooks
}

// NickName is the node title derived from the definition.
func (c *Controller) NickName() string {
	if c.Definition == nil {
		return ""
	}
	return c.Definition.Title()
}

// ReturnKeys names the fields of a multi-valued result.
func (c *Controller) ReturnKeys() []string {
	if c.Definition == nil {
		return nil
	}
	return c.Definition.ReturnKeys
}

// BuildAst produces the statements calling the function for node n with the
// given arguments, taking multiple outputs and partial application into
// account.
func (c *Controller) BuildAst(n *graph.Node, args []ast.Expression) []ast.Statement {
	var resultAst []ast.Statement
	c.buildOutputAst(n, args, &resultAst)
	return resultAst
}

func (c *Controller) buildOutputAst(n *graph.Node, args []ast.Expression, resultAst *[]ast.Statement) {
	rhs := c.hooks.FunctionApplication(n, args)

	if !n.IsPartiallyApplied() || len(n.OutPorts) == 1 {
		c.assignIdentifiersForFunctionCall(n, rhs, resultAst)
	} else {
		c.buildAstForPartialMultiOutput(n, rhs, resultAst)
	}
}

// assignIdentifiersForFunctionCall binds the call to the preview identifier
// and every return key to its output identifier.
func (c *Controller) assignIdentifiersForFunctionCall(n *graph.Node, rhs ast.Expression, resultAst *[]ast.Statement) {
	preview := n.AstIdentifierForPreview()
	*resultAst = append(*resultAst, ast.NewAssignment(preview, rhs))

	keys := c.ReturnKeys()
	if len(keys) <= 1 {
		return
	}
	for i, key := range keys {
		outputIdent := n.AstIdentifierForOutput(i)
		thisIdent := ast.NewKeyedIdentifier(preview.Value, ast.NewString(key))
		// Skip the self-assignment when the naming scheme already names the
		// output as preview["key"].
		if prettyprinter.Print(outputIdent) == prettyprinter.Print(thisIdent) {
			continue
		}
		*resultAst = append(*resultAst, ast.NewAssignment(outputIdent, thisIdent))
	}
}

// buildAstForPartialMultiOutput binds each output to a closure that buffers
// the missing arguments, completes the partial application and extracts the
// output's field:
//
//	tmp = f(a, _);
//	out_i = __ComposeBuffered({__GetOutput(_, "key_i"), tmp}, missing, _);
func (c *Controller) buildAstForPartialMultiOutput(n *graph.Node, rhs ast.Expression, resultAst *[]ast.Statement) {
	missingAmt := n.MissingInputs()
	tmp := graph.TempIdentifier(n)
	*resultAst = append(*resultAst, ast.NewAssignment(tmp, rhs))

	for i, key := range c.ReturnKeys() {
		getOutput := ast.NewFunctionObject(
			config.GetOutputFuncName,
			config.GetOutputArity,
			[]int{1},
			[]ast.Expression{ast.NewNull(), ast.NewString(key)},
		)
		composed := ast.NewFunctionObject(
			config.ComposeBufferedFuncName,
			config.ComposeBufferedArity,
			[]int{0, 1},
			[]ast.Expression{
				ast.NewExprList(getOutput, ast.NewIdentifier(tmp.Value)),
				ast.NewInt(int64(missingAmt)),
				ast.NewNull(),
			},
		)
		*resultAst = append(*resultAst, ast.NewAssignment(n.AstIdentifierForOutput(i), composed))
	}
}

// SyncNodeWithDefinition rebuilds the node's ports from the definition and
// renames the node. Without a definition the node is left untouched.
func (c *Controller) SyncNodeWithDefinition(n *graph.Node) {
	if c.Definition == nil {
		return
	}

	n.ClearPorts()

	c.hooks.InitializeInputs(n)
	c.hooks.InitializeOutputs(n)
	n.RegisterAllPorts()
	n.NickName = c.NickName()

	c.logger.Debug("synced node with definition",
		"node", n.ID, "function", c.Definition.MangledName(),
		"inputs", len(n.InPorts), "outputs", len(n.OutPorts))
}
