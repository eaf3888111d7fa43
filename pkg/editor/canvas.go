package editor

import (
	"context"

	"github.com/matzehuels/vesselflow/pkg/graph"
)

// Canvas is the rendering surface the session drives. It owns node
// measurement: sizes are only known once the canvas has mounted a node.
type Canvas interface {
	// Reset removes every node and edge.
	Reset(ctx context.Context) error
	AddNodes(ctx context.Context, nodes []graph.Node) error
	AddEdges(ctx context.Context, edges []graph.Edge) error
	// UpdateNodes replaces nodes by id, including position, style and ports.
	UpdateNodes(ctx context.Context, nodes []graph.Node) error
	RemoveNodes(ctx context.Context, ids []string) error
	RemoveEdges(ctx context.Context, ids []string) error
	SetViewport(ctx context.Context, vp graph.Viewport) error
	FitView(ctx context.Context) error
	// WaitMeasured blocks until every listed node has been measured and
	// returns the sizes. It is a one-shot wait, not a poll.
	WaitMeasured(ctx context.Context, ids []string) (map[string]graph.Dimensions, error)
}

// Notifier shows a failure to the user. The session calls it once per
// failed operation.
type Notifier interface {
	Notify(ctx context.Context, err error)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, err error)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, err error) { f(ctx, err) }

// MemoryCanvas is a headless Canvas that keeps nodes and edges in memory and
// measures every node with a fixed size. The CLI and the HTTP server use it
// where no real canvas exists.
type MemoryCanvas struct {
	Size graph.Dimensions

	snap graph.Snapshot
}

// NewMemoryCanvas returns a canvas that measures nodes as size.
func NewMemoryCanvas(size graph.Dimensions) *MemoryCanvas {
	return &MemoryCanvas{Size: size}
}

// Snapshot returns a copy of what the canvas currently shows.
func (c *MemoryCanvas) Snapshot() graph.Snapshot { return c.snap.Clone() }

func (c *MemoryCanvas) Reset(context.Context) error {
	c.snap.Nodes, c.snap.Edges = nil, nil
	return nil
}

func (c *MemoryCanvas) AddNodes(_ context.Context, nodes []graph.Node) error {
	for _, n := range nodes {
		c.snap.Nodes = append(c.snap.Nodes, n.Clone())
	}
	return nil
}

func (c *MemoryCanvas) AddEdges(_ context.Context, edges []graph.Edge) error {
	c.snap.Edges = append(c.snap.Edges, edges...)
	return nil
}

func (c *MemoryCanvas) UpdateNodes(_ context.Context, nodes []graph.Node) error {
	for _, n := range nodes {
		if i := c.snap.NodeIndex(n.ID); i >= 0 {
			c.snap.Nodes[i] = n.Clone()
		}
	}
	return nil
}

func (c *MemoryCanvas) RemoveNodes(_ context.Context, ids []string) error {
	for _, id := range ids {
		if i := c.snap.NodeIndex(id); i >= 0 {
			c.snap.Nodes = append(c.snap.Nodes[:i], c.snap.Nodes[i+1:]...)
		}
	}
	return nil
}

func (c *MemoryCanvas) RemoveEdges(_ context.Context, ids []string) error {
	for _, id := range ids {
		if i := c.snap.EdgeIndex(id); i >= 0 {
			c.snap.Edges = append(c.snap.Edges[:i], c.snap.Edges[i+1:]...)
		}
	}
	return nil
}

func (c *MemoryCanvas) SetViewport(_ context.Context, vp graph.Viewport) error {
	c.snap.Viewport = vp
	return nil
}

func (c *MemoryCanvas) FitView(context.Context) error { return nil }

func (c *MemoryCanvas) WaitMeasured(_ context.Context, ids []string) (map[string]graph.Dimensions, error) {
	out := make(map[string]graph.Dimensions, len(ids))
	for _, id := range ids {
		out[id] = c.Size
	}
	return out, nil
}
