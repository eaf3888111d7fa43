package port

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Side is the edge of a node a port is drawn on.
type Side string

const (
	Left   Side = "left"
	Right  Side = "right"
	Top    Side = "top"
	Bottom Side = "bottom"
)

// Sides lists every side in the order ports are flattened after layout.
var Sides = []Side{Top, Right, Bottom, Left}

// Valid reports whether s is one of the four sides.
func (s Side) Valid() bool {
	switch s {
	case Left, Right, Top, Bottom:
		return true
	}
	return false
}

// SourcePriority is the prefer-outward order used for the source end of an
// edge.
var SourcePriority = []Side{Right, Bottom, Top, Left}

// TargetPriority is the prefer-inward order used for the target end of an
// edge.
var TargetPriority = []Side{Left, Top, Bottom, Right}

// Port is one connection point on a node. UID never changes once the port
// has been created; Type moves when layout re-sides the port.
type Port struct {
	UID  string `json:"uid" bson:"uid"`
	Type Side   `json:"type" bson:"type"`
	Name string `json:"name" bson:"name"` // remote endpoint
}

// New creates a port with a fresh UID.
func New(side Side, name string) Port {
	return Port{UID: NewUID(), Type: side, Name: name}
}

// NewUID returns a random (version 4) UUID string.
func NewUID() string {
	return uuid.NewString()
}

// HandleID returns the handle an edge uses to reference p.
func (p Port) HandleID() string {
	return HandleID(p.Type, p.UID)
}

// HandleID builds the handle string "port_<side>_<uid>".
func HandleID(side Side, uid string) string {
	return fmt.Sprintf("port_%s_%s", side, uid)
}

// ParseHandle splits a handle into its side and uid.
func ParseHandle(handle string) (Side, string, bool) {
	rest, ok := strings.CutPrefix(handle, "port_")
	if !ok {
		return "", "", false
	}
	side, uid, ok := strings.Cut(rest, "_")
	if !ok || uid == "" || !Side(side).Valid() {
		return "", "", false
	}
	return Side(side), uid, true
}

// Find returns the index of the port in ports whose handle is handle, or -1.
func Find(ports []Port, handle string) int {
	for i, p := range ports {
		if p.HandleID() == handle {
			return i
		}
	}
	return -1
}
