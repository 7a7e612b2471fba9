package lowering

import (
	"gopkg.in/yaml.v3"
)

// SaveContext tells state serializers why a node is being written.
type SaveContext int

const (
	// SaveFile writes the node into a graph file.
	SaveFile SaveContext = iota
	// SaveCopy writes the node to the clipboard; host-specific state that
	// must not be duplicated is left out.
	SaveCopy
)

// StateSerializer is implemented by call shapes that persist extra state
// with the node. SaveState adds entries to the mapping el and never removes
// any; LoadState reads the entries it knows and ignores the rest.
type StateSerializer interface {
	SaveState(el *yaml.Node, ctx SaveContext) error
	LoadState(el *yaml.Node) error
}

// NoExtraState is the serializer of call shapes without extra state.
type NoExtraState struct{}

func (NoExtraState) SaveState(*yaml.Node, SaveContext) error { return nil }
func (NoExtraState) LoadState(*yaml.Node) error              { return nil }

func (c *Controller) serializer() StateSerializer {
	if s, ok := c.hooks.(StateSerializer); ok {
		return s
	}
	return NoExtraState{}
}

// SaveNode writes the controller's extra state into the mapping el.
func (c *Controller) SaveNode(el *yaml.Node, ctx SaveContext) error {
	return c.serializer().SaveState(el, ctx)
}

// LoadNode restores the controller's extra state from the mapping el. A nil
// el means the node was saved without extra state.
func (c *Controller) LoadNode(el *yaml.Node) error {
	if el == nil {
		return nil
	}
	return c.serializer().LoadState(el)
}

// NewStateNode returns an empty mapping for SaveNode to fill.
func NewStateNode() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

// CopyableState returns the entries of a saved state mapping that may be
// duplicated into a copy, or nil when none remain. Host-specific entries
// such as trace bindings are left out. el is not modified.
func CopyableState(el *yaml.Node) *yaml.Node {
	if el == nil || el.Kind != yaml.MappingNode {
		return el
	}
	out := NewStateNode()
	for i := 0; i+1 < len(el.Content); i += 2 {
		if el.Content[i].Value == bindingsKey {
			continue
		}
		out.Content = append(out.Content, el.Content[i], el.Content[i+1])
	}
	if len(out.Content) == 0 {
		return nil
	}
	return out
}

// mappingValue returns the value stored under key in a mapping node.
func mappingValue(el *yaml.Node, key string) *yaml.Node {
	if el == nil || el.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(el.Content); i += 2 {
		if el.Content[i].Value == key {
			return el.Content[i+1]
		}
	}
	return nil
}
