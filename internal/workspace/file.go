package workspace

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/funflow/internal/graph"
	"github.com/funvibe/funflow/internal/library"
	"github.com/funvibe/funflow/internal/lowering"
)

// ErrInvalidGraph is wrapped by every structural error in a graph file.
var ErrInvalidGraph = errors.New("invalid graph file")

type graphFile struct {
	Nodes      []nodeRecord      `yaml:"nodes"`
	Connectors []connectorRecord `yaml:"connectors,omitempty"`
}

type nodeRecord struct {
	ID       string       `yaml:"id"`
	Function string       `yaml:"function"`
	NickName string       `yaml:"nickname,omitempty"`
	Inputs   []portRecord `yaml:"inputs,omitempty"`
	Outputs  []portRecord `yaml:"outputs,omitempty"`
	Extra    *yaml.Node   `yaml:"extra,omitempty"`
}

type portRecord struct {
	Name        string `yaml:"name"`
	Type        string `yaml:"type,omitempty"`
	Description string `yaml:"description,omitempty"`
}

type connectorRecord struct {
	From string `yaml:"from"`
	Out  int    `yaml:"out"`
	To   string `yaml:"to"`
	In   int    `yaml:"in"`
}

// Load reads a graph file. Nodes get the ports persisted in the file;
// call Sync to rebuild them from the registry. A node whose function is not
// registered is kept with an unresolved controller.
func Load(data []byte, reg *library.Registry, opts Options) (*Workspace, error) {
	var file graphFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGraph, err)
	}

	ws := New(opts)
	for i, rec := range file.Nodes {
		id, err := uuid.Parse(rec.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: nodes[%d]: bad id %q: %v", ErrInvalidGraph, i, rec.ID, err)
		}

		n := graph.NewNode(id)
		n.NickName = rec.NickName
		for _, p := range rec.Inputs {
			n.AddInPort(graph.PortData(p))
		}
		for _, p := range rec.Outputs {
			n.AddOutPort(graph.PortData(p))
		}

		var def *library.FunctionDescriptor
		if reg != nil {
			def, _ = reg.Lookup(rec.Function)
		}
		if err := ws.add(n, rec.Function, def); err != nil {
			return nil, fmt.Errorf("%w: nodes[%d]: %v", ErrInvalidGraph, i, err)
		}
		if def == nil {
			ws.logger.Warn("unresolved function", "node", id, "function", rec.Function)
			if rec.Extra != nil {
				ws.unresolvedExtra[id] = rec.Extra
			}
			continue
		}
		if err := ws.controllers[id].LoadNode(rec.Extra); err != nil {
			return nil, fmt.Errorf("nodes[%d] (%s): loading extra state: %w", i, id, err)
		}
	}

	for i, rec := range file.Connectors {
		from, err := uuid.Parse(rec.From)
		if err != nil {
			return nil, fmt.Errorf("%w: connectors[%d]: bad from %q: %v", ErrInvalidGraph, i, rec.From, err)
		}
		to, err := uuid.Parse(rec.To)
		if err != nil {
			return nil, fmt.Errorf("%w: connectors[%d]: bad to %q: %v", ErrInvalidGraph, i, rec.To, err)
		}
		if err := ws.Connect(from, rec.Out, to, rec.In); err != nil {
			return nil, fmt.Errorf("%w: connectors[%d]: %v", ErrInvalidGraph, i, err)
		}
	}
	return ws, nil
}

// Save writes the whole workspace as a graph file.
func Save(ws *Workspace) ([]byte, error) {
	return encode(ws, ws.Graph.Nodes(), lowering.SaveFile)
}

// Copy writes the given nodes in clipboard form: only connectors between
// copied nodes are kept and extra state is saved for copying.
func Copy(ws *Workspace, ids []uuid.UUID) ([]byte, error) {
	selected := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}
	var nodes []*graph.Node
	for _, n := range ws.Graph.Nodes() {
		if selected[n.ID] {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) != len(selected) {
		return nil, fmt.Errorf("copy: %w", graph.ErrNodeNotFound)
	}
	return encode(ws, nodes, lowering.SaveCopy)
}

func encode(ws *Workspace, nodes []*graph.Node, ctx lowering.SaveContext) ([]byte, error) {
	included := make(map[uuid.UUID]bool, len(nodes))
	file := graphFile{Nodes: make([]nodeRecord, 0, len(nodes))}

	for _, n := range nodes {
		included[n.ID] = true
		rec := nodeRecord{
			ID:       n.ID.String(),
			Function: ws.functions[n.ID],
			NickName: n.NickName,
		}
		for _, p := range n.InPorts {
			rec.Inputs = append(rec.Inputs, portRecord(p))
		}
		for _, p := range n.OutPorts {
			rec.Outputs = append(rec.Outputs, portRecord(p))
		}

		if raw, ok := ws.unresolvedExtra[n.ID]; ok {
			rec.Extra = raw
			if ctx == lowering.SaveCopy {
				rec.Extra = lowering.CopyableState(raw)
			}
		} else {
			state := lowering.NewStateNode()
			if err := ws.controllers[n.ID].SaveNode(state, ctx); err != nil {
				return nil, fmt.Errorf("node %s: saving extra state: %w", n.ID, err)
			}
			if len(state.Content) > 0 {
				rec.Extra = state
			}
		}
		file.Nodes = append(file.Nodes, rec)
	}

	for _, c := range ws.Graph.Connectors() {
		if !included[c.From.Node] || !included[c.To] {
			continue
		}
		file.Connectors = append(file.Connectors, connectorRecord{
			From: c.From.Node.String(),
			Out:  c.From.Output,
			To:   c.To.String(),
			In:   c.In,
		})
	}

	data, err := yaml.Marshal(&file)
	if err != nil {
		return nil, fmt.Errorf("encoding graph: %w", err)
	}
	return data, nil
}
