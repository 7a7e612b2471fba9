package lowering

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/funvibe/funflow/internal/library"
)

const bindingsKey = "bindings"

// customCall calls a user-defined function. Besides the call it remembers,
// per inner node of the definition, the runs of host element ids created by
// previous executions, so a reopened graph can rebind them.
type customCall struct {
	functionCall

	logger   *slog.Logger
	bindings map[uuid.UUID][][]string
}

func newCustomCall(def *library.FunctionDescriptor, logger *slog.Logger) *customCall {
	return &customCall{
		functionCall: functionCall{def: def},
		logger:       logger,
		bindings:     make(map[uuid.UUID][][]string),
	}
}

// Record appends one run of element ids produced by inner node id.
func (cc *customCall) Record(id uuid.UUID, run []string) {
	cc.bindings[id] = append(cc.bindings[id], append([]string(nil), run...))
}

// Runs returns the recorded runs of inner node id.
func (cc *customCall) Runs(id uuid.UUID) [][]string {
	return cc.bindings[id]
}

// Nodes returns the inner node ids with recorded runs, sorted.
func (cc *customCall) Nodes() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(cc.bindings))
	for id := range cc.bindings {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Clear forgets all recorded runs.
func (cc *customCall) Clear() {
	cc.bindings = make(map[uuid.UUID][][]string)
}

type bindingRecord struct {
	Node string     `yaml:"node"`
	Runs [][]string `yaml:"runs"`
}

func (cc *customCall) SaveState(el *yaml.Node, ctx SaveContext) error {
	if ctx == SaveCopy || len(cc.bindings) == 0 {
		return nil
	}

	records := make([]bindingRecord, 0, len(cc.bindings))
	for _, id := range cc.Nodes() {
		records = append(records, bindingRecord{Node: id.String(), Runs: cc.bindings[id]})
	}

	var value yaml.Node
	if err := value.Encode(records); err != nil {
		return fmt.Errorf("encoding %s: %w", bindingsKey, err)
	}
	el.Content = append(el.Content,
		&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: bindingsKey},
		&value,
	)
	return nil
}

// LoadState replaces the recorded runs. Malformed records are skipped.
func (cc *customCall) LoadState(el *yaml.Node) error {
	cc.Clear()

	value := mappingValue(el, bindingsKey)
	if value == nil {
		return nil
	}
	if value.Kind != yaml.SequenceNode {
		cc.logger.Warn("ignoring malformed bindings", "function", cc.def.MangledName(), "line", value.Line)
		return nil
	}

	for _, item := range value.Content {
		var rec bindingRecord
		if err := item.Decode(&rec); err != nil {
			cc.logger.Warn("skipping malformed binding", "line", item.Line, "error", err)
			continue
		}
		id, err := uuid.Parse(rec.Node)
		if err != nil {
			cc.logger.Warn("skipping binding with invalid node id", "node", rec.Node, "line", item.Line)
			continue
		}
		for _, run := range rec.Runs {
			cc.Record(id, run)
		}
	}
	return nil
}

// Tracer is implemented by call shapes that remember the host elements
// earlier executions created.
type Tracer interface {
	Record(id uuid.UUID, run []string)
	Runs(id uuid.UUID) [][]string
	Nodes() []uuid.UUID
	Clear()
}

// Tracer returns the controller's element tracer, if its call shape has one.
func (c *Controller) Tracer() (Tracer, bool) {
	t, ok := c.hooks.(Tracer)
	return t, ok
}
