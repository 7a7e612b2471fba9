// Package compiler lowers every node of a workspace into one program.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/funvibe/funflow/internal/ast"
	"github.com/funvibe/funflow/internal/graph"
	"github.com/funvibe/funflow/internal/prettyprinter"
	"github.com/funvibe/funflow/internal/workspace"
)

// ErrUnboundIdentifier is returned when the lowered program reads a
// variable no earlier statement assigns.
var ErrUnboundIdentifier = errors.New("unbound identifier")

// NodeResult is the lowered code of one node.
type NodeResult struct {
	Node       uuid.UUID
	Function   string
	Statements []ast.Statement
	// Code is the printed form of Statements.
	Code string
	// Hash identifies Code; two lowerings with the same hash are identical.
	Hash uint64
	// Unresolved is set when the node's function is unknown and a null
	// placeholder was emitted instead of a call.
	Unresolved bool
}

// Result holds the per-node results in topological order.
type Result struct {
	Nodes []NodeResult
}

// Statements returns all statements of the program.
func (r *Result) Statements() []ast.Statement {
	var out []ast.Statement
	for _, nr := range r.Nodes {
		out = append(out, nr.Statements...)
	}
	return out
}

// Code returns the printed program.
func (r *Result) Code() string {
	var sb strings.Builder
	for _, nr := range r.Nodes {
		sb.WriteString(nr.Code)
	}
	return sb.String()
}

// Hashes maps each node to the hash of its lowered code.
func (r *Result) Hashes() map[uuid.UUID]uint64 {
	out := make(map[uuid.UUID]uint64, len(r.Nodes))
	for _, nr := range r.Nodes {
		out[nr.Node] = nr.Hash
	}
	return out
}

// Compile lowers every node of ws. Nodes are lowered concurrently; the
// result is ordered so that each node comes after its upstream nodes, with
// ties in insertion order.
func Compile(ctx context.Context, ws *workspace.Workspace) (*Result, error) {
	order, err := ws.Graph.TopologicalOrder()
	if err != nil {
		return nil, fmt.Errorf("ordering nodes: %w", err)
	}

	results := make([]NodeResult, len(order))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, n := range order {
		i, n := i, n // per-iteration copies (go directive < 1.22)
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = lowerNode(ws, n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if err := checkBindings(results); err != nil {
		return nil, err
	}

	for _, nr := range results {
		if nr.Unresolved {
			ws.Logger().Warn("emitting null for unresolved function", "node", nr.Node, "function", nr.Function)
		}
	}
	ws.Logger().Debug("compiled workspace", "nodes", len(results))

	return &Result{Nodes: results}, nil
}

func lowerNode(ws *workspace.Workspace, n *graph.Node) NodeResult {
	nr := NodeResult{Node: n.ID, Function: ws.Function(n.ID)}

	c, _ := ws.Controller(n.ID)
	if c == nil || c.Definition == nil {
		nr.Unresolved = true
		nr.Statements = placeholder(n)
	} else {
		nr.Statements = c.BuildAst(n, arguments(ws.Graph, n))
	}

	nr.Code = prettyprinter.PrintProgram(nr.Statements)
	nr.Hash = xxhash.Sum64String(nr.Code)
	return nr
}

// placeholder binds the preview and every output of an unresolved node to
// null, so downstream references stay bound.
func placeholder(n *graph.Node) []ast.Statement {
	preview := n.AstIdentifierForPreview()
	stmts := []ast.Statement{ast.NewAssignment(preview, ast.NewNull())}
	if len(n.OutPorts) <= 1 {
		return stmts
	}
	previewText := prettyprinter.Print(preview)
	for i := range n.OutPorts {
		out := n.AstIdentifierForOutput(i)
		if out.IsKeyed() || prettyprinter.Print(out) == previewText {
			continue
		}
		stmts = append(stmts, ast.NewAssignment(out, ast.NewNull()))
	}
	return stmts
}

// checkBindings reports the first identifier read before any statement
// assigned it.
func checkBindings(nodes []NodeResult) error {
	bound := make(map[string]bool)
	for _, nr := range nodes {
		for _, stmt := range nr.Statements {
			assign, ok := stmt.(*ast.Assignment)
			if !ok {
				continue
			}
			var unbound *ast.Identifier
			ast.Walk(assign.Value, func(node ast.Node) bool {
				if id, ok := node.(*ast.Identifier); ok && unbound == nil && !bound[id.Value] {
					unbound = id
				}
				return unbound == nil
			})
			if unbound != nil {
				return fmt.Errorf("%w: %s read by node %s", ErrUnboundIdentifier, prettyprinter.Print(unbound), nr.Node)
			}
			if !assign.Target.IsKeyed() {
				bound[assign.Target.Value] = true
			}
		}
	}
	return nil
}

// arguments builds one expression per input port: the upstream output
// identifier when connected, null otherwise.
func arguments(g *graph.Graph, n *graph.Node) []ast.Expression {
	args := make([]ast.Expression, len(n.InPorts))
	for i := range n.InPorts {
		args[i] = ast.NewNull()
		src, ok := n.Input(i)
		if !ok {
			continue
		}
		if up, ok := g.Node(src.Node); ok {
			args[i] = up.AstIdentifierForOutput(src.Output)
		}
	}
	return args
}
