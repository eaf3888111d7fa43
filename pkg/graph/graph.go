package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"slices"
)

// =============================================================================
// Snapshot
// =============================================================================

// Snapshot is a self-contained copy of a workflow graph. The layout engine
// receives a Snapshot, works on a private clone and returns a new one, so a
// snapshot handed out is never mutated behind its holder's back.
type Snapshot struct {
	Nodes    []Node   `json:"nodes" bson:"nodes"`
	Edges    []Edge   `json:"edges" bson:"edges"`
	Viewport Viewport `json:"viewport" bson:"viewport"`
}

// Clone returns a deep copy of s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Nodes:    make([]Node, len(s.Nodes)),
		Edges:    slices.Clone(s.Edges),
		Viewport: s.Viewport,
	}
	for i, n := range s.Nodes {
		out.Nodes[i] = n.Clone()
	}
	return out
}

// NodeIndex returns the position of the node with the given id, or -1.
func (s Snapshot) NodeIndex(id string) int {
	return slices.IndexFunc(s.Nodes, func(n Node) bool { return n.ID == id })
}

// Node returns a pointer into s.Nodes for id, or nil.
func (s Snapshot) Node(id string) *Node {
	if i := s.NodeIndex(id); i >= 0 {
		return &s.Nodes[i]
	}
	return nil
}

// EdgeIndex returns the position of the edge with the given id, or -1.
func (s Snapshot) EdgeIndex(id string) int {
	return slices.IndexFunc(s.Edges, func(e Edge) bool { return e.ID == id })
}

// EdgesOf returns the edges attached to nodeID in snapshot order.
func (s Snapshot) EdgesOf(nodeID string) []Edge {
	var out []Edge
	for _, e := range s.Edges {
		if e.Touches(nodeID) {
			out = append(out, e)
		}
	}
	return out
}

// NodeIDs returns all node ids in snapshot order.
func (s Snapshot) NodeIDs() []string {
	ids := make([]string, len(s.Nodes))
	for i, n := range s.Nodes {
		ids[i] = n.ID
	}
	return ids
}

// Names returns the set of node display names.
func (s Snapshot) Names() map[string]bool {
	names := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		names[n.Data.Name] = true
	}
	return names
}

// Validate checks id uniqueness and that every edge references existing
// nodes.
func (s Snapshot) Validate() error {
	ids := make(map[string]bool, len(s.Nodes))
	for _, n := range s.Nodes {
		if n.ID == "" {
			return fmt.Errorf("node with empty id")
		}
		if ids[n.ID] {
			return fmt.Errorf("duplicate node id %q", n.ID)
		}
		ids[n.ID] = true
	}
	edgeIDs := make(map[string]bool, len(s.Edges))
	for _, e := range s.Edges {
		if edgeIDs[e.ID] {
			return fmt.Errorf("duplicate edge id %q", e.ID)
		}
		edgeIDs[e.ID] = true
		if !ids[e.Source] {
			return fmt.Errorf("edge %s: unknown source %q", e.ID, e.Source)
		}
		if !ids[e.Target] {
			return fmt.Errorf("edge %s: unknown target %q", e.ID, e.Target)
		}
	}
	return nil
}

// =============================================================================
// Serialization API
// =============================================================================

// Marshal converts a snapshot to indented JSON bytes.
func Marshal(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(s, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a snapshot and validates it.
func Unmarshal(data []byte) (Snapshot, error) {
	return Read(bytes.NewReader(data))
}

// Write encodes a snapshot as indented JSON to w.
func Write(s Snapshot, w io.Writer) error {
	if s.Nodes == nil {
		s.Nodes = []Node{}
	}
	if s.Edges == nil {
		s.Edges = []Edge{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// Read decodes a JSON snapshot from r and validates it.
func Read(r io.Reader) (Snapshot, error) {
	var s Snapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return Snapshot{}, fmt.Errorf("decode: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Snapshot{}, fmt.Errorf("validate: %w", err)
	}
	return s, nil
}

// WriteFile writes a snapshot to a JSON file.
func WriteFile(s Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer f.Close()
	return Write(s, f)
}

// ReadFile reads a snapshot from a JSON file.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}
