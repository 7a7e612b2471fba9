package graph

import (
	"strconv"

	"github.com/funvibe/funflow/internal/ast"
	"github.com/funvibe/funflow/internal/config"
)

// NamingScheme decides which identifiers a node's results are bound to.
// Implementations must be pure functions of the node's id and port lists.
type NamingScheme interface {
	Preview(n *Node) *ast.Identifier
	Output(n *Node, i int) *ast.Identifier
}

// DefaultNaming binds every output to its own variable:
//
//	preview  var_<id>
//	output i var_<id>_out<i>
//
// A node with a single output port binds it to the preview variable.
type DefaultNaming struct{}

func (DefaultNaming) Preview(n *Node) *ast.Identifier {
	return ast.NewIdentifier(n.AstIdentifierBase())
}

func (DefaultNaming) Output(n *Node, i int) *ast.Identifier {
	if len(n.OutPorts) == 1 {
		return ast.NewIdentifier(n.AstIdentifierBase())
	}
	return ast.NewIdentifier(n.AstIdentifierBase() + config.OutputSuffix + strconv.Itoa(i))
}

// KeyedNaming addresses outputs of a multi-output node as keyed accesses
// into the preview variable, var_<id>["<port name>"], so no extra variable
// is needed per output.
type KeyedNaming struct{}

func (KeyedNaming) Preview(n *Node) *ast.Identifier {
	return ast.NewIdentifier(n.AstIdentifierBase())
}

func (KeyedNaming) Output(n *Node, i int) *ast.Identifier {
	if len(n.OutPorts) <= 1 || i < 0 || i >= len(n.OutPorts) {
		return DefaultNaming{}.Output(n, i)
	}
	return ast.NewKeyedIdentifier(n.AstIdentifierBase(), ast.NewString(n.OutPorts[i].Name))
}

// NamingByName maps the settings spelling onto a scheme.
func NamingByName(name string) NamingScheme {
	if name == config.NamingKeyed {
		return KeyedNaming{}
	}
	return DefaultNaming{}
}
