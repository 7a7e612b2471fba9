package graph

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

var (
	ErrNodeNotFound   = errors.New("node not found")
	ErrDuplicateNode  = errors.New("duplicate node")
	ErrPortOutOfRange = errors.New("port out of range")
	ErrCycle          = errors.New("connector would create a cycle")
)

// Connector links output From.Output of one node to input In of another.
type Connector struct {
	From Source
	To   uuid.UUID
	In   int
}

// Graph owns a set of nodes and the connectors between them. It is not safe
// for concurrent mutation; concurrent readers are fine once editing stops.
type Graph struct {
	nodes  map[uuid.UUID]*Node
	order  []uuid.UUID // insertion order, the tie-break for every traversal
	naming NamingScheme
}

func New() *Graph {
	return &Graph{
		nodes:  make(map[uuid.UUID]*Node),
		naming: DefaultNaming{},
	}
}

// SetNaming applies a naming scheme to every current and future node.
func (g *Graph) SetNaming(scheme NamingScheme) {
	if scheme == nil {
		scheme = DefaultNaming{}
	}
	g.naming = scheme
	for _, n := range g.nodes {
		n.SetNaming(scheme)
	}
}

// AddNode adopts n. The node reports port changes to the graph from now on.
func (g *Graph) AddNode(n *Node) error {
	if _, exists := g.nodes[n.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
	}
	if n.inputs == nil {
		n.inputs = make(map[int]Source)
	}
	n.owner = g
	n.SetNaming(g.naming)
	g.nodes[n.ID] = n
	g.order = append(g.order, n.ID)
	return nil
}

// RemoveNode deletes a node and every connector touching it.
func (g *Graph) RemoveNode(id uuid.UUID) error {
	n, ok := g.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, id)
	}
	for _, other := range g.nodes {
		for in, src := range other.inputs {
			if src.Node == id {
				delete(other.inputs, in)
			}
		}
	}
	n.owner = nil
	delete(g.nodes, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	return nil
}

// Node returns the node with the given id.
func (g *Graph) Node(id uuid.UUID) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// Nodes returns the nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	out := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.nodes[id])
	}
	return out
}

// Len returns the number of nodes.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Connect feeds input port in of node to from output port out of node from.
// An existing connector on that input is replaced.
func (g *Graph) Connect(from uuid.UUID, out int, to uuid.UUID, in int) error {
	src, ok := g.nodes[from]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, from)
	}
	dst, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	if out < 0 || out >= len(src.OutPorts) {
		return fmt.Errorf("%w: output %d of %s has %d outputs", ErrPortOutOfRange, out, from, len(src.OutPorts))
	}
	if in < 0 || in >= len(dst.InPorts) {
		return fmt.Errorf("%w: input %d of %s has %d inputs", ErrPortOutOfRange, in, to, len(dst.InPorts))
	}
	if from == to || g.reaches(to, from) {
		return fmt.Errorf("%w: %s -> %s", ErrCycle, from, to)
	}
	dst.inputs[in] = Source{Node: from, Output: out}
	return nil
}

// Disconnect removes the connector feeding input port in of node to.
// Disconnecting an unconnected port is a no-op.
func (g *Graph) Disconnect(to uuid.UUID, in int) error {
	dst, ok := g.nodes[to]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, to)
	}
	delete(dst.inputs, in)
	return nil
}

// Connectors lists every connector ordered by target node insertion order,
// then by input index.
func (g *Graph) Connectors() []Connector {
	var out []Connector
	for _, id := range g.order {
		n := g.nodes[id]
		ins := make([]int, 0, len(n.inputs))
		for in := range n.inputs {
			ins = append(ins, in)
		}
		sort.Ints(ins)
		for _, in := range ins {
			out = append(out, Connector{From: n.inputs[in], To: id, In: in})
		}
	}
	return out
}

// RegisterPorts drops connectors that point at ports n no longer has, on
// both its inputs and its outputs.
func (g *Graph) RegisterPorts(n *Node) {
	for in := range n.inputs {
		if in >= len(n.InPorts) {
			delete(n.inputs, in)
		}
	}
	for _, other := range g.nodes {
		for in, src := range other.inputs {
			if src.Node == n.ID && src.Output >= len(n.OutPorts) {
				delete(other.inputs, in)
			}
		}
	}
}

// reaches reports whether target is reachable downstream of start.
func (g *Graph) reaches(start, target uuid.UUID) bool {
	seen := map[uuid.UUID]bool{start: true}
	stack := []uuid.UUID{start}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur == target {
			return true
		}
		for _, id := range g.order {
			if seen[id] {
				continue
			}
			for _, src := range g.nodes[id].inputs {
				if src.Node == cur {
					seen[id] = true
					stack = append(stack, id)
					break
				}
			}
		}
	}
	return false
}

// TopologicalOrder returns the nodes so that every node follows all of its
// upstream nodes. Ties keep insertion order, so the result is stable.
func (g *Graph) TopologicalOrder() ([]*Node, error) {
	indegree := make(map[uuid.UUID]int, len(g.nodes))
	downstream := make(map[uuid.UUID][]uuid.UUID, len(g.nodes))
	for _, id := range g.order {
		seen := make(map[uuid.UUID]bool)
		for _, src := range g.nodes[id].inputs {
			if seen[src.Node] {
				continue
			}
			seen[src.Node] = true
			indegree[id]++
			downstream[src.Node] = append(downstream[src.Node], id)
		}
	}

	position := make(map[uuid.UUID]int, len(g.order))
	for i, id := range g.order {
		position[id] = i
	}

	var ready []uuid.UUID
	for _, id := range g.order {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]*Node, 0, len(g.nodes))
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return position[ready[i]] < position[ready[j]] })
		id := ready[0]
		ready = ready[1:]
		out = append(out, g.nodes[id])
		for _, next := range downstream[id] {
			indegree[next]--
			if indegree[next] == 0 {
				ready = append(ready, next)
			}
		}
	}

	if len(out) != len(g.nodes) {
		return nil, ErrCycle
	}
	return out, nil
}
