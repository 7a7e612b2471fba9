package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/funflow/internal/compiler"
)

var (
	nodeA = uuid.MustParse("00000000-0000-4000-8000-00000000000a")
	nodeB = uuid.MustParse("00000000-0000-4000-8000-00000000000b")
	nodeC = uuid.MustParse("00000000-0000-4000-8000-00000000000c")
)

func openMemory(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func result(nodes ...compiler.NodeResult) *compiler.Result {
	return &compiler.Result{Nodes: nodes}
}

func TestPutLookup(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	_, ok, err := s.Lookup(ctx, nodeA)
	require.NoError(t, err)
	assert.False(t, ok)

	// The high bit must survive the round trip.
	e := Entry{Node: nodeA, Hash: 0xfedcba9876543210, Code: "a = 1;\n"}
	require.NoError(t, s.Put(ctx, e))
	got, ok, err := s.Lookup(ctx, nodeA)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, e, got)

	e.Hash, e.Code = 1, "a = 2;\n"
	require.NoError(t, s.Put(ctx, e))
	got, _, err = s.Lookup(ctx, nodeA)
	require.NoError(t, err)
	assert.Equal(t, e, got)
}

func TestChangedAndSync(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)

	first := result(
		compiler.NodeResult{Node: nodeA, Hash: 1, Code: "a;"},
		compiler.NodeResult{Node: nodeB, Hash: 2, Code: "b;"},
	)
	changed, err := s.Sync(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{nodeA, nodeB}, changed, "everything is new on the first compile")

	second := result(
		compiler.NodeResult{Node: nodeA, Hash: 1, Code: "a;"},
		compiler.NodeResult{Node: nodeC, Hash: 3, Code: "c;"},
	)
	changed, err = s.Changed(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{nodeC}, changed)

	changed, err = s.Sync(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{nodeC}, changed)

	_, ok, err := s.Lookup(ctx, nodeB)
	require.NoError(t, err)
	assert.False(t, ok, "nodes that left the graph are pruned")

	changed, err = s.Sync(ctx, second)
	require.NoError(t, err)
	assert.Empty(t, changed)
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	s := openMemory(t)
	require.NoError(t, s.Put(ctx,
		Entry{Node: nodeA, Hash: 1},
		Entry{Node: nodeB, Hash: 2},
		Entry{Node: nodeC, Hash: 3},
	))

	removed, err := s.Prune(ctx, []uuid.UUID{nodeB})
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, ok, err := s.Lookup(ctx, nodeB)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestPersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.db")

	s, err := Open(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Put(ctx, Entry{Node: nodeA, Hash: 7, Code: "a;"}))
	require.NoError(t, s.Close())

	s, err = Open(ctx, path)
	require.NoError(t, err)
	defer s.Close()

	changed, err := s.Changed(ctx, result(compiler.NodeResult{Node: nodeA, Hash: 7}))
	require.NoError(t, err)
	assert.Empty(t, changed)
}
