package lowering

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/funflow/internal/library"
)

var innerID = uuid.MustParse("0b7c1d52-9f3e-4a51-8c3d-7e2f4a6b9c10")

func customDef() *library.FunctionDescriptor {
	return &library.FunctionDescriptor{
		Name:   "Facade",
		Kind:   library.KindCustom,
		Params: []library.Parameter{{Name: "height"}},
	}
}

func TestDefaultStateIsNoOp(t *testing.T) {
	c := New(twoArgFunc())

	el := NewStateNode()
	require.NoError(t, c.SaveNode(el, SaveFile))
	assert.Empty(t, el.Content)

	require.NoError(t, c.LoadNode(el))
	require.NoError(t, c.LoadNode(nil))
	_, ok := c.Tracer()
	assert.False(t, ok)
}

func TestCustomStateRoundTrip(t *testing.T) {
	saved := New(customDef())
	tracer, ok := saved.Tracer()
	require.True(t, ok)
	tracer.Record(innerID, []string{"wall-1", "wall-2"})
	tracer.Record(innerID, []string{"wall-3"})

	el := NewStateNode()
	el.Content = append(el.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Value: "host"},
		&yaml.Node{Kind: yaml.ScalarNode, Value: "kept"},
	)
	require.NoError(t, saved.SaveNode(el, SaveFile))
	assert.Len(t, el.Content, 4, "saving must add to the mapping, not replace it")

	out, err := yaml.Marshal(el)
	require.NoError(t, err)

	var reread yaml.Node
	require.NoError(t, yaml.Unmarshal(out, &reread))

	loaded := New(customDef())
	require.NoError(t, loaded.LoadNode(reread.Content[0]))

	lt, _ := loaded.Tracer()
	assert.Equal(t, []uuid.UUID{innerID}, lt.Nodes())
	assert.Equal(t, [][]string{{"wall-1", "wall-2"}, {"wall-3"}}, lt.Runs(innerID))
}

func TestCustomStateSkippedOnCopy(t *testing.T) {
	c := New(customDef())
	tracer, _ := c.Tracer()
	tracer.Record(innerID, []string{"wall-1"})

	el := NewStateNode()
	require.NoError(t, c.SaveNode(el, SaveCopy))
	assert.Empty(t, el.Content)
}

func TestCopyableState(t *testing.T) {
	var el yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("host: kept\nbindings: [x]\n"), &el))
	mapping := el.Content[0]

	out := CopyableState(mapping)
	require.NotNil(t, out)
	var got map[string]string
	require.NoError(t, out.Decode(&got))
	assert.Equal(t, map[string]string{"host": "kept"}, got)
	assert.Len(t, mapping.Content, 4, "input is left untouched")

	var only yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte("bindings: [x]\n"), &only))
	assert.Nil(t, CopyableState(only.Content[0]))
	assert.Nil(t, CopyableState(nil))
}

func TestCustomStateToleratesMalformedEntries(t *testing.T) {
	src := `
bindings:
  - node: not-a-uuid
    runs: [[a]]
  - node: 0b7c1d52-9f3e-4a51-8c3d-7e2f4a6b9c10
    runs: [[wall-9]]
  - node: 0b7c1d52-9f3e-4a51-8c3d-7e2f4a6b9c10
    runs: oops
unknown: ignored
`
	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(src), &doc))

	var logs bytes.Buffer
	c := New(customDef(), WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))
	require.NoError(t, c.LoadNode(doc.Content[0]))

	tracer, _ := c.Tracer()
	assert.Equal(t, [][]string{{"wall-9"}}, tracer.Runs(innerID))
	assert.Contains(t, logs.String(), "invalid node id")
	assert.Contains(t, logs.String(), "malformed binding")
}

func TestCustomStateLoadReplacesPrevious(t *testing.T) {
	c := New(customDef())
	tracer, _ := c.Tracer()
	tracer.Record(innerID, []string{"stale"})

	require.NoError(t, c.LoadNode(NewStateNode()))
	assert.Empty(t, tracer.Nodes())
}
