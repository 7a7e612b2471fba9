package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/funflow/internal/cache"
	"github.com/funvibe/funflow/internal/config"
	"github.com/funvibe/funflow/internal/workspace"
)

const manifest = `
functions:
  - name: Num
    return_type: double
  - name: SplitAt
    class: Curve
    kind: method
    params: [{name: parameter, type: double}]
    return_keys: [Curve, Length]
`

const graphFile = `
nodes:
  - {id: 00000000-0000-4000-8000-000000000001, function: Num}
  - {id: 00000000-0000-4000-8000-000000000002, function: Curve.SplitAt@double}
`

func setup(t *testing.T) *config.Settings {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lib.yaml"), []byte(manifest), 0o644))
	settingsPath := filepath.Join(dir, config.SettingsFileName)
	require.NoError(t, os.WriteFile(settingsPath, []byte("library:\n  manifests: [lib.yaml]\n"), 0o644))
	s, err := config.Load(settingsPath)
	require.NoError(t, err)
	return s
}

func newContext(s *config.Settings, source string) *PipelineContext {
	pc := NewPipelineContext("graph.flow.yaml", []byte(source), s)
	pc.Logger = slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	return pc
}

func compilePipeline(store *cache.Store) *Pipeline {
	return New(
		LibraryProcessor{},
		LoadProcessor{},
		SyncProcessor{},
		CompileProcessor{},
		&CacheProcessor{Store: store},
	)
}

func TestRun(t *testing.T) {
	ctx := context.Background()
	s := setup(t)
	store, err := cache.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer store.Close()

	pc := compilePipeline(store).Run(ctx, newContext(s, graphFile))
	require.Empty(t, pc.Errors)
	require.NotNil(t, pc.Result)
	assert.Equal(t, 2, pc.Registry.Len())

	code := pc.Result.Code()
	assert.Contains(t, code, "var_00000000_0000_4000_8000_000000000001 = Num();")
	assert.Contains(t, code, `__ComposeBuffered({__GetOutput(_, "Curve")`)
	assert.Len(t, pc.Changed, 2)

	again := compilePipeline(store).Run(ctx, newContext(s, graphFile))
	require.Empty(t, again.Errors)
	assert.Empty(t, again.Changed, "nothing changed since the last compile")
}

func TestRunWithoutCache(t *testing.T) {
	pc := compilePipeline(nil).Run(context.Background(), newContext(setup(t), graphFile))
	require.Empty(t, pc.Errors)
	assert.Len(t, pc.Changed, 2)
}

func TestRunCollectsErrors(t *testing.T) {
	pc := compilePipeline(nil).Run(context.Background(), newContext(setup(t), "nodes: [{id: nope}]"))
	require.Len(t, pc.Errors, 1)
	assert.True(t, pc.Failed())
	assert.ErrorIs(t, pc.Errors[0], workspace.ErrInvalidGraph)
	assert.True(t, strings.HasPrefix(pc.Errors[0].Error(), "graph.flow.yaml: "))
	assert.Nil(t, pc.Workspace)
	assert.Nil(t, pc.Result)
}

func TestRunBadLibrary(t *testing.T) {
	s, err := config.Parse([]byte("library:\n  manifests: [missing.yaml]\n"), "funflow.yaml")
	require.NoError(t, err)

	pc := compilePipeline(nil).Run(context.Background(), newContext(s, graphFile))
	require.Len(t, pc.Errors, 1)
	assert.Contains(t, pc.Errors[0].Error(), "loading library")
	assert.Nil(t, pc.Registry)
}
