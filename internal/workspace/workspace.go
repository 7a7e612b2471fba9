// Package workspace binds a graph to the controllers that lower its nodes and
// reads and writes graph files.
package workspace

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/funflow/internal/graph"
	"github.com/funvibe/funflow/internal/library"
	"github.com/funvibe/funflow/internal/lowering"
)

// Options configures a workspace.
type Options struct {
	// Naming is the identifier naming scheme. nil means the default.
	Naming graph.NamingScheme

	// Logger receives diagnostics. nil means slog.Default().
	Logger *slog.Logger
}

// Workspace is a graph plus, per node, the function it calls and the
// controller lowering it.
type Workspace struct {
	Graph *graph.Graph

	controllers map[uuid.UUID]*lowering.Controller
	functions   map[uuid.UUID]string
	// raw extra state of nodes whose function is unknown, written back as is
	unresolvedExtra map[uuid.UUID]*yaml.Node

	logger *slog.Logger
}

// New creates an empty workspace.
func New(opts Options) *Workspace {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	g := graph.New()
	g.SetNaming(opts.Naming)
	return &Workspace{
		Graph:           g,
		controllers:     make(map[uuid.UUID]*lowering.Controller),
		functions:       make(map[uuid.UUID]string),
		unresolvedExtra: make(map[uuid.UUID]*yaml.Node),
		logger:          logger,
	}
}

// Place adds a new node calling def, with ports built from the descriptor.
func (ws *Workspace) Place(def *library.FunctionDescriptor) (*graph.Node, error) {
	n := graph.NewNode(uuid.New())
	if err := ws.add(n, def.MangledName(), def); err != nil {
		return nil, err
	}
	ws.controllers[n.ID].SyncNodeWithDefinition(n)
	return n, nil
}

func (ws *Workspace) add(n *graph.Node, function string, def *library.FunctionDescriptor) error {
	if err := ws.Graph.AddNode(n); err != nil {
		return err
	}
	ws.controllers[n.ID] = lowering.New(def, lowering.WithLogger(ws.logger))
	ws.functions[n.ID] = function
	return nil
}

// Remove deletes a node and its connectors.
func (ws *Workspace) Remove(id uuid.UUID) error {
	if err := ws.Graph.RemoveNode(id); err != nil {
		return err
	}
	delete(ws.controllers, id)
	delete(ws.functions, id)
	delete(ws.unresolvedExtra, id)
	return nil
}

// Controller returns the controller of node id.
func (ws *Workspace) Controller(id uuid.UUID) (*lowering.Controller, bool) {
	c, ok := ws.controllers[id]
	return c, ok
}

// Function returns the mangled name of the function node id calls.
func (ws *Workspace) Function(id uuid.UUID) string {
	return ws.functions[id]
}

// Logger returns the workspace logger.
func (ws *Workspace) Logger() *slog.Logger {
	return ws.logger
}

// Unresolved lists the nodes whose function is not in the registry, in
// insertion order.
func (ws *Workspace) Unresolved() []*graph.Node {
	var out []*graph.Node
	for _, n := range ws.Graph.Nodes() {
		if ws.controllers[n.ID].Definition == nil {
			out = append(out, n)
		}
	}
	return out
}

// Sync rebuilds the ports of every resolved node from its descriptor.
// Connectors to ports that vanished are dropped.
func (ws *Workspace) Sync() {
	for _, n := range ws.Graph.Nodes() {
		ws.controllers[n.ID].SyncNodeWithDefinition(n)
	}
}

// Connect links output out of node from to input in of node to.
func (ws *Workspace) Connect(from uuid.UUID, out int, to uuid.UUID, in int) error {
	if err := ws.Graph.Connect(from, out, to, in); err != nil {
		return fmt.Errorf("connecting %s[%d] -> %s[%d]: %w", from, out, to, in, err)
	}
	return nil
}
