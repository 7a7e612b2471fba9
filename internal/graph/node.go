// Package graph models the dataflow graph: nodes with ordered input and
// output ports, the connectors between them, and the identifiers a node's
// results are bound to in lowered code.
//
// A Node is owned by one graph and must not be mutated concurrently. Port
// lists are rebuilt wholesale on synchronization, never patched in place.
package graph

import (
	"strings"

	"github.com/google/uuid"

	"github.com/funvibe/funflow/internal/ast"
	"github.com/funvibe/funflow/internal/config"
)

// PortData describes one input or output port.
type PortData struct {
	Name        string
	Type        string
	Description string
}

// Source is the upstream end of a connector feeding an input port.
type Source struct {
	Node   uuid.UUID
	Output int
}

// PortRegistrar is notified when a node's port lists were rebuilt.
type PortRegistrar interface {
	RegisterPorts(n *Node)
}

// Node is the port state of one node in the graph.
type Node struct {
	ID       uuid.UUID
	NickName string
	InPorts  []PortData
	OutPorts []PortData

	inputs map[int]Source
	owner  PortRegistrar
	naming NamingScheme
}

// NewNode creates a detached node with the default naming scheme.
func NewNode(id uuid.UUID) *Node {
	return &Node{
		ID:     id,
		inputs: make(map[int]Source),
		naming: DefaultNaming{},
	}
}

// SetNaming replaces the identifier naming scheme. nil restores the default.
func (n *Node) SetNaming(scheme NamingScheme) {
	if scheme == nil {
		scheme = DefaultNaming{}
	}
	n.naming = scheme
}

// HasInput reports whether input port i is fed by a connector.
func (n *Node) HasInput(i int) bool {
	_, ok := n.inputs[i]
	return ok
}

// Input returns the connector source feeding input port i.
func (n *Node) Input(i int) (Source, bool) {
	src, ok := n.inputs[i]
	return src, ok
}

// MissingInputs counts the input ports without a connector.
func (n *Node) MissingInputs() int {
	missing := 0
	for i := range n.InPorts {
		if !n.HasInput(i) {
			missing++
		}
	}
	return missing
}

// IsPartiallyApplied reports whether at least one input is unconnected.
func (n *Node) IsPartiallyApplied() bool {
	return n.MissingInputs() > 0
}

// AstIdentifierBase is the stem every identifier of this node derives from.
// It depends on the node id alone.
func (n *Node) AstIdentifierBase() string {
	return config.PreviewPrefix + identSafe(n.ID)
}

// AstIdentifierForPreview names the node's raw result.
func (n *Node) AstIdentifierForPreview() *ast.Identifier {
	return n.naming.Preview(n)
}

// AstIdentifierForOutput names output port i.
func (n *Node) AstIdentifierForOutput(i int) *ast.Identifier {
	return n.naming.Output(n, i)
}

// RegisterAllPorts tells the owning graph the port lists changed.
func (n *Node) RegisterAllPorts() {
	if n.owner != nil {
		n.owner.RegisterPorts(n)
	}
}

// ClearPorts drops both port lists, keeping connectors. Fresh slices are
// built afterwards so earlier snapshots of the lists stay intact.
func (n *Node) ClearPorts() {
	n.InPorts = nil
	n.OutPorts = nil
}

// AddInPort appends an input port.
func (n *Node) AddInPort(p PortData) {
	n.InPorts = append(n.InPorts, p)
}

// AddOutPort appends an output port.
func (n *Node) AddOutPort(p PortData) {
	n.OutPorts = append(n.OutPorts, p)
}

// identSafe renders an id usable inside identifiers.
func identSafe(id uuid.UUID) string {
	return strings.ReplaceAll(id.String(), "-", "_")
}

// TempIdentifier derives a deterministic temporary name for the node from
// its id alone.
func TempIdentifier(n *Node) *ast.Identifier {
	return ast.NewIdentifier(config.PartialPrefix + identSafe(n.ID))
}
