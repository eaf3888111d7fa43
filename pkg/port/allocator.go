package port

import (
	mapset "github.com/deckarep/golang-set/v2"
)

// Owner is anything that has an id and an ordered port list. graph.Node
// satisfies it.
type Owner interface {
	OwnerID() string
	PortList() []Port
}

// Allocator hands out unused ports during one allocation session. The zero
// value is not usable; create one with NewAllocator. An Allocator is not
// safe for concurrent use.
type Allocator struct {
	used map[string]mapset.Set[string] // node id -> used port uids
}

// NewAllocator returns an empty allocation session.
func NewAllocator() *Allocator {
	return &Allocator{used: make(map[string]mapset.Set[string])}
}

// NextUnusedPort returns the first port of node whose side is in priority
// and whose UID has not been handed out yet, and marks it used. Sides are
// tried in priority order and, within a side, ports in node order. It
// returns nil when the node has no free port for the priority list.
func (a *Allocator) NextUnusedPort(node Owner, priority []Side) *Port {
	used := a.usedFor(node.OwnerID())
	ports := node.PortList()
	for _, side := range priority {
		for i := range ports {
			p := ports[i]
			if p.Type == side && !used.Contains(p.UID) {
				used.Add(p.UID)
				return &p
			}
		}
	}
	return nil
}

// NextUnusedPortNamed is NextUnusedPort that first looks for a free port
// whose Name is remote, so an edge lands on the port created for it.
func (a *Allocator) NextUnusedPortNamed(node Owner, priority []Side, remote string) *Port {
	used := a.usedFor(node.OwnerID())
	ports := node.PortList()
	for _, side := range priority {
		for i := range ports {
			p := ports[i]
			if p.Type == side && p.Name == remote && !used.Contains(p.UID) {
				used.Add(p.UID)
				return &p
			}
		}
	}
	return a.NextUnusedPort(node, priority)
}

// MarkUsed records uid as taken on nodeID, for ports already bound by
// existing edges.
func (a *Allocator) MarkUsed(nodeID, uid string) {
	a.usedFor(nodeID).Add(uid)
}

// Used reports how many ports of nodeID are taken.
func (a *Allocator) Used(nodeID string) int {
	if s, ok := a.used[nodeID]; ok {
		return s.Cardinality()
	}
	return 0
}

func (a *Allocator) usedFor(nodeID string) mapset.Set[string] {
	s, ok := a.used[nodeID]
	if !ok {
		s = mapset.NewThreadUnsafeSet[string]()
		a.used[nodeID] = s
	}
	return s
}
