package editor

import (
	"context"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/port"
	"github.com/matzehuels/vesselflow/pkg/workflow"
)

// MoveNode places a node at pos. Moves of the same node that follow each
// other within the history debounce window collapse into one undo step.
func (s *Session) MoveNode(ctx context.Context, id string, pos graph.Position) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}

	n := s.snap.Node(id)
	if n == nil {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s not found", id)
	}
	from := n.Position
	if err := s.positionLocked(ctx, id, pos); err != nil {
		return err
	}

	if s.move != nil && s.move.id == id && s.history.LastPendingOffsetApplied() &&
		s.history.ReplaceLastPending(s.moveCmd(id, s.move.from, pos)) {
		return nil
	}
	s.history.AddCommand(s.moveCmd(id, from, pos))
	s.move = &pendingMove{id: id, from: from}
	return nil
}

// ConnectRequest describes a new edge. Empty handles are filled with the
// first free port: outward-facing sides for the source, inward-facing for the
// target, preferring ports named after the other node.
type ConnectRequest struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Connect adds an edge and records it as one undo step.
func (s *Session) Connect(ctx context.Context, req ConnectRequest) (graph.Edge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return graph.Edge{}, ErrClosed
	}

	src, dst := s.snap.Node(req.Source), s.snap.Node(req.Target)
	if src == nil {
		return graph.Edge{}, errors.New(errors.ErrCodeNodeNotFound, "node %s not found", req.Source)
	}
	if dst == nil {
		return graph.Edge{}, errors.New(errors.ErrCodeNodeNotFound, "node %s not found", req.Target)
	}

	alloc := s.allocatorLocked()
	sp, err := pickPort(alloc, src, req.SourceHandle, port.SourcePriority, dst.ID)
	if err != nil {
		return graph.Edge{}, err
	}
	tp, err := pickPort(alloc, dst, req.TargetHandle, port.TargetPriority, src.ID)
	if err != nil {
		return graph.Edge{}, err
	}

	e := graph.NewEdge(src.ID, dst.ID, sp, tp)
	s.move = nil
	if err := s.history.ExecuteAndAddCommand(ctx, s.addEdgeCmd(e, len(s.snap.Edges))); err != nil {
		return graph.Edge{}, err
	}
	return e, nil
}

// allocatorLocked returns an allocator that already knows every port bound
// by an existing edge.
func (s *Session) allocatorLocked() *port.Allocator {
	alloc := port.NewAllocator()
	for _, e := range s.snap.Edges {
		if _, uid, ok := port.ParseHandle(e.SourceHandle); ok {
			alloc.MarkUsed(e.Source, uid)
		}
		if _, uid, ok := port.ParseHandle(e.TargetHandle); ok {
			alloc.MarkUsed(e.Target, uid)
		}
	}
	return alloc
}

func pickPort(alloc *port.Allocator, n *graph.Node, handle string, priority []port.Side, remote string) (port.Port, error) {
	if handle != "" {
		i := port.Find(n.Data.Ports, handle)
		if i < 0 {
			return port.Port{}, errors.New(errors.ErrCodePortNotFound, "node %s has no port %s", n.ID, handle)
		}
		return n.Data.Ports[i], nil
	}
	p := alloc.NextUnusedPortNamed(n, priority, remote)
	if p == nil {
		return port.Port{}, errors.New(errors.ErrCodePortNotFound, "node %s has no free port", n.ID)
	}
	return *p, nil
}

// RemoveEdge deletes an edge as one undo step.
func (s *Session) RemoveEdge(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	i := s.snap.EdgeIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNotFound, "edge %s not found", id)
	}
	s.move = nil
	return s.history.ExecuteAndAddCommand(ctx, s.removeEdgeCmd(s.snap.Edges[i], i))
}

// RemoveNode deletes a node and its edges as one undo step. Edges go first;
// undo brings the node back before its edges.
func (s *Session) RemoveNode(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	i := s.snap.NodeIndex(id)
	if i < 0 {
		return errors.New(errors.ErrCodeNodeNotFound, "node %s not found", id)
	}
	node := s.snap.Nodes[i].Clone()
	s.move = nil

	// earlier gestures keep their own entries
	s.history.CommitBatch()
	return s.history.Transact(ctx, func(ctx context.Context) error {
		for _, e := range s.snap.EdgesOf(id) {
			if err := s.history.ExecuteAndAddCommand(ctx, s.removeEdgeCmd(e, s.snap.EdgeIndex(e.ID))); err != nil {
				return err
			}
		}
		return s.history.ExecuteAndAddCommand(ctx, s.removeNodeCmd(node, i))
	})
}

// AddModuleRequest describes a module dropped onto the canvas.
type AddModuleRequest struct {
	// Name is the wanted display name; it gets a _n suffix when taken.
	Name       string          `json:"name"`
	Module     workflow.Module `json:"module"`
	ModuleFile string          `json:"module_file"`
	VesselType string          `json:"vessel_type,omitempty"`
	// Inputs and Outputs are whitespace-separated port names, as in the
	// vessel table.
	Inputs  string `json:"inputs,omitempty"`
	Outputs string `json:"outputs,omitempty"`
	// At is the drop point; the node is centered on it once measured.
	At graph.Position `json:"at"`
}

// AddModule adds a node for a catalog module and records it as one undo
// step. It returns the node with its unique name and measured size.
func (s *Session) AddModule(ctx context.Context, req AddModuleRequest) (graph.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return graph.Node{}, ErrClosed
	}
	if err := errors.ValidateVesselName(req.Name); err != nil {
		return graph.Node{}, err
	}
	if err := errors.ValidateModuleKey(req.ModuleFile, req.Module.ComponentName); err != nil {
		return graph.Node{}, err
	}

	name := workflow.UniqueName(req.Name, s.snap.Names())
	n := graph.Node{
		ID:       name,
		Type:     graph.NodeTypeModule,
		Position: req.At,
		Style:    graph.VisibleStyle,
		Data: graph.NodeData{
			Name:       name,
			Label:      workflow.Label(req.Module),
			VesselType: req.VesselType,
			ModuleFile: req.ModuleFile,
			ModuleType: req.Module.ComponentName,
			Ports:      workflow.BuildPorts(workflow.Vessel{Name: name, Inputs: req.Inputs, Outputs: req.Outputs}),
			PortLabels: workflow.BuildPortLabels(req.Module, workflow.ConfigEntry{}),
		},
	}

	at := len(s.snap.Nodes)
	if err := s.insertNodeLocked(ctx, n, at); err != nil {
		return graph.Node{}, err
	}
	dims, err := s.canvas.WaitMeasured(ctx, []string{name})
	if err != nil {
		_ = s.deleteNodeLocked(ctx, name)
		return graph.Node{}, s.fail(ctx, errors.Wrap(errors.ErrCodeNotMeasured, err, "measure %s", name))
	}
	d := dims[name]
	placed := s.snap.Node(name)
	placed.Dimensions = d
	placed.Position = graph.Position{X: req.At.X - d.Width/2, Y: req.At.Y - d.Height/2}
	if err := s.canvas.UpdateNodes(ctx, []graph.Node{*placed}); err != nil {
		return graph.Node{}, err
	}

	s.move = nil
	out := placed.Clone()
	s.history.AddCommand(s.addNodeCmd(out, at))
	return out, nil
}
