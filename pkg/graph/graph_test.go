package graph

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/vesselflow/pkg/port"
)

func sampleSnapshot() Snapshot {
	pa := port.Port{UID: "pa", Type: port.Right, Name: "B"}
	pb := port.Port{UID: "pb", Type: port.Left, Name: "A"}
	return Snapshot{
		Nodes: []Node{
			{ID: "A", Type: NodeTypeModule, Style: HiddenStyle, Data: NodeData{Name: "A", Ports: []port.Port{pa}}},
			{ID: "B", Type: NodeTypeModule, Style: HiddenStyle, Data: NodeData{Name: "B", Ports: []port.Port{pb}}},
		},
		Edges: []Edge{{
			ID: "e1", Source: "A", Target: "B",
			SourceHandle: pa.HandleID(), TargetHandle: pb.HandleID(),
		}},
		Viewport: DefaultViewport,
	}
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	s := sampleSnapshot()
	c := s.Clone()

	c.Nodes[0].Data.Ports[0].Type = port.Top
	c.Nodes[0].Position.X = 99
	c.Edges[0].SourceHandle = "changed"

	if s.Nodes[0].Data.Ports[0].Type != port.Right {
		t.Error("clone shares port slice with original")
	}
	if s.Nodes[0].Position.X != 0 {
		t.Error("clone shares node position with original")
	}
	if s.Edges[0].SourceHandle == "changed" {
		t.Error("clone shares edge slice with original")
	}
}

func TestSnapshot_Lookup(t *testing.T) {
	s := sampleSnapshot()

	if n := s.Node("B"); n == nil || n.Data.Name != "B" {
		t.Errorf("Node(B) = %v", n)
	}
	if n := s.Node("missing"); n != nil {
		t.Errorf("Node(missing) = %v, want nil", n)
	}
	if got := len(s.EdgesOf("A")); got != 1 {
		t.Errorf("EdgesOf(A) = %d edges, want 1", got)
	}
	if got := s.EdgeIndex("e1"); got != 0 {
		t.Errorf("EdgeIndex(e1) = %d, want 0", got)
	}
	if !s.Names()["A"] {
		t.Error("Names() missing A")
	}
}

func TestSnapshot_LookupOnReturnedValue(t *testing.T) {
	if n := sampleSnapshot().Node("A"); n == nil || n.ID != "A" {
		t.Errorf("Node(A) on returned snapshot = %v", n)
	}
	if got := sampleSnapshot().EdgeIndex("e1"); got != 0 {
		t.Errorf("EdgeIndex(e1) = %d, want 0", got)
	}

	s := sampleSnapshot()
	s.Node("B").Position = Position{X: 7, Y: 9}
	if got := s.Nodes[1].Position; got != (Position{X: 7, Y: 9}) {
		t.Errorf("write through Node() pointer lost: %+v", got)
	}
}

func TestSnapshot_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(s *Snapshot)
		wantErr string
	}{
		{name: "valid", mutate: func(*Snapshot) {}},
		{
			name:    "duplicate node",
			mutate:  func(s *Snapshot) { s.Nodes[1].ID = "A" },
			wantErr: "duplicate node id",
		},
		{
			name:    "dangling target",
			mutate:  func(s *Snapshot) { s.Edges[0].Target = "C" },
			wantErr: "unknown target",
		},
		{
			name:    "duplicate edge",
			mutate:  func(s *Snapshot) { s.Edges = append(s.Edges, s.Edges[0]) },
			wantErr: "duplicate edge id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sampleSnapshot()
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteRead_RoundTrip(t *testing.T) {
	s := sampleSnapshot()

	var buf bytes.Buffer
	if err := Write(s, &buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	for _, key := range []string{`"sourceHandle"`, `"portLabels"`, `"moduleNode"`, `"zoom": 1`} {
		if !strings.Contains(buf.String(), key) {
			t.Errorf("output missing %s", key)
		}
	}

	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if len(got.Nodes) != 2 || len(got.Edges) != 1 {
		t.Fatalf("got %d nodes, %d edges", len(got.Nodes), len(got.Edges))
	}
	if got.Nodes[0].Data.Ports[0].HandleID() != s.Edges[0].SourceHandle {
		t.Error("port handle not preserved")
	}
}

func TestWriteFile_ReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workflow.json")

	if err := WriteFile(sampleSnapshot(), path); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("file not written: %v", err)
	}
	got, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error: %v", err)
	}
	if got.Viewport != DefaultViewport {
		t.Errorf("Viewport = %+v, want %+v", got.Viewport, DefaultViewport)
	}
}

func TestReadFile_Errors(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("ReadFile(missing) = nil error")
	}
	if _, err := Unmarshal([]byte("{")); err == nil {
		t.Error("Unmarshal(invalid) = nil error")
	}
}

func TestMarshal_EmptyUsesArrays(t *testing.T) {
	data, err := Marshal(Snapshot{})
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	if !strings.Contains(string(data), `"nodes": []`) {
		t.Errorf("empty snapshot nodes not encoded as array: %s", data)
	}
}

func TestNewEdge(t *testing.T) {
	sp := port.Port{UID: "s", Type: port.Right}
	tp := port.Port{UID: "t", Type: port.Left}
	e := NewEdge("A", "B", sp, tp)

	if !strings.HasPrefix(e.ID, "e_A_B_") {
		t.Errorf("ID = %q, want prefix e_A_B_", e.ID)
	}
	if e.SourceHandle != "port_right_s" || e.TargetHandle != "port_left_t" {
		t.Errorf("handles = %q, %q", e.SourceHandle, e.TargetHandle)
	}
	if other := NewEdge("A", "B", sp, tp); other.ID == e.ID {
		t.Error("edge ids are not unique")
	}
}
