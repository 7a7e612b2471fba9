package pipeline

import (
	"context"
	"fmt"

	"github.com/funvibe/funflow/internal/cache"
	"github.com/funvibe/funflow/internal/compiler"
	"github.com/funvibe/funflow/internal/graph"
	"github.com/funvibe/funflow/internal/library"
	"github.com/funvibe/funflow/internal/workspace"
)

// LibraryProcessor builds the function registry from the settings. A
// registry already in the context is kept.
type LibraryProcessor struct{}

func (LibraryProcessor) Process(ctx context.Context, pc *PipelineContext) *PipelineContext {
	if pc.Registry != nil {
		return pc
	}
	reg, err := library.Load(ctx, pc.Settings, pc.Logger)
	if err != nil {
		pc.addError(fmt.Errorf("loading library: %w", err))
		return pc
	}
	pc.Registry = reg
	return pc
}

// LoadProcessor parses the graph file.
type LoadProcessor struct{}

func (LoadProcessor) Process(_ context.Context, pc *PipelineContext) *PipelineContext {
	if pc.Registry == nil {
		return pc
	}
	ws, err := workspace.Load(pc.Source, pc.Registry, workspace.Options{
		Naming: graph.NamingByName(pc.Settings.Naming),
		Logger: pc.Logger,
	})
	if err != nil {
		pc.addError(fmt.Errorf("%s: %w", pc.FilePath, err))
		return pc
	}
	pc.Workspace = ws
	return pc
}

// SyncProcessor rebuilds node ports from the current descriptors.
type SyncProcessor struct{}

func (SyncProcessor) Process(_ context.Context, pc *PipelineContext) *PipelineContext {
	if pc.Workspace == nil {
		return pc
	}
	pc.Workspace.Sync()
	return pc
}

// CompileProcessor lowers the workspace.
type CompileProcessor struct{}

func (CompileProcessor) Process(ctx context.Context, pc *PipelineContext) *PipelineContext {
	if pc.Workspace == nil {
		return pc
	}
	res, err := compiler.Compile(ctx, pc.Workspace)
	if err != nil {
		pc.addError(fmt.Errorf("%s: %w", pc.FilePath, err))
		return pc
	}
	pc.Result = res
	return pc
}

// CacheProcessor compares the result with the cache and stores it.
// Without a store every node counts as changed.
type CacheProcessor struct {
	Store *cache.Store
}

func (p *CacheProcessor) Process(ctx context.Context, pc *PipelineContext) *PipelineContext {
	if pc.Result == nil {
		return pc
	}
	if p.Store == nil {
		pc.Changed = pc.Changed[:0]
		for _, nr := range pc.Result.Nodes {
			pc.Changed = append(pc.Changed, nr.Node)
		}
		return pc
	}
	changed, err := p.Store.Sync(ctx, pc.Result)
	if err != nil {
		pc.addError(fmt.Errorf("updating cache: %w", err))
		return pc
	}
	pc.Changed = changed
	return pc
}
