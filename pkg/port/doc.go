// Package port defines node ports, their handle ids and the allocator that
// binds logical connections to concrete ports.
//
// # Ports and Handles
//
// A [Port] is created once per distinct connected vessel name. Its UID is a
// random UUID and never changes. Its [Side] may change when the layout
// engine re-derives sides from geometry. Edges reference ports through
// handles of the form "port_<side>_<uid>" (see [HandleID]); because the side
// is part of the handle, re-siding a port means rewriting the handles of the
// edges attached to it.
//
// # Allocation
//
// An [Allocator] is one allocation session. For every logical edge the
// caller asks for a source port with [SourcePriority] and a target port with
// [TargetPriority]:
//
//	alloc := port.NewAllocator()
//	src := alloc.NextUnusedPort(from, port.SourcePriority)
//	dst := alloc.NextUnusedPort(to, port.TargetPriority)
//	if src == nil || dst == nil {
//	    // ports exhausted: drop this edge, keep going
//	}
//
// A port UID is never handed out twice for the same node within a session,
// and the result is deterministic for a fixed port list and call order.
package port
