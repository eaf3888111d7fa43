package workflow

import (
	"slices"
	"testing"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/port"
)

func testCatalog() Catalog {
	return Catalog{{
		Filename: "modules.json",
		Modules: []Module{
			{
				ComponentName: "heart",
				SourceFile:    "heart.cellml",
				GeneralPorts: []PortGroup{
					{PortType: "vessel_port", Variables: []string{"u", "v"}, MultiPort: "Sum"},
					{PortType: "empty_port"},
				},
				ExitPorts: []PortGroup{{PortType: "exit", Variables: []string{"q"}}},
			},
			{ComponentName: "artery", SourceFile: "artery.cellml"},
		},
	}}
}

func testConfig() Config {
	return Config{
		{VesselType: "heart", ModuleFile: "modules.json", ModuleType: "heart"},
		{VesselType: "artery", ModuleFile: "modules.json", ModuleType: "artery"},
	}
}

func TestBuild_TwoVesselScenario(t *testing.T) {
	in := Input{
		Catalog: testCatalog(),
		Config:  testConfig(),
		Vessels: []Vessel{
			{Name: "A", VesselType: "heart", Outputs: "B"},
			{Name: "B", VesselType: "artery", Inputs: "A"},
		},
	}

	res, err := Build(in, ModeResolved)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(res.Nodes) != 2 {
		t.Fatalf("nodes = %d, want 2", len(res.Nodes))
	}

	a, b := res.Nodes[0], res.Nodes[1]
	if len(a.Data.Ports) != 1 || a.Data.Ports[0].Type != port.Right {
		t.Errorf("A ports = %+v, want one right port", a.Data.Ports)
	}
	if len(b.Data.Ports) != 1 || b.Data.Ports[0].Type != port.Left {
		t.Errorf("B ports = %+v, want one left port", b.Data.Ports)
	}

	if len(res.Edges) != 1 {
		t.Fatalf("edges = %d, want 1", len(res.Edges))
	}
	e := res.Edges[0]
	if e.Source != "A" || e.Target != "B" {
		t.Errorf("edge = %s->%s, want A->B", e.Source, e.Target)
	}
	if e.SourceHandle != a.Data.Ports[0].HandleID() || e.TargetHandle != b.Data.Ports[0].HandleID() {
		t.Errorf("handles = %s, %s", e.SourceHandle, e.TargetHandle)
	}
	if res.Dropped != 0 {
		t.Errorf("Dropped = %d, want 0", res.Dropped)
	}
}

func TestBuild_LogicalMode(t *testing.T) {
	in := Input{
		Catalog: testCatalog(),
		Config:  testConfig(),
		Vessels: []Vessel{
			{Name: "A", VesselType: "heart", Outputs: "B C"},
			{Name: "B", VesselType: "artery", Inputs: "A"},
		},
	}

	res, err := Build(in, ModeLogical)
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	if len(res.Edges) != 0 {
		t.Errorf("resolved edges in logical mode: %d", len(res.Edges))
	}
	// C does not resolve to a node
	want := []graph.LogicalEdge{{Source: "A", Target: "B"}}
	if !slices.Equal(res.LogicalEdges, want) {
		t.Errorf("LogicalEdges = %+v, want %+v", res.LogicalEdges, want)
	}
}

func TestBuildNodes_PortCountMatchesDistinctNames(t *testing.T) {
	tests := []struct {
		name    string
		inputs  string
		outputs string
		want    int
	}{
		{"empty", "", "", 0},
		{"inputs only", "a b c", "", 3},
		{"duplicates collapse", "a a b", "c c", 3},
		{"extra whitespace", "  a\t b\n", " c ", 3},
		{"name in both fields", "a", "a", 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nodes, err := BuildNodes(testCatalog(), []Vessel{
				{Name: "V", VesselType: "artery", Inputs: tt.inputs, Outputs: tt.outputs},
			}, testConfig())
			if err != nil {
				t.Fatalf("BuildNodes() error: %v", err)
			}
			want := len(ParseNames(tt.inputs)) + len(ParseNames(tt.outputs))
			if want != tt.want {
				t.Fatalf("test table mismatch: distinct = %d, want %d", want, tt.want)
			}
			if got := len(nodes[0].Data.Ports); got != tt.want {
				t.Errorf("ports = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBuildNodes_PortsKeepFirstSeenOrder(t *testing.T) {
	nodes, err := BuildNodes(testCatalog(), []Vessel{
		{Name: "V", VesselType: "artery", Inputs: "c a c b", Outputs: "z y"},
	}, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	for _, p := range nodes[0].Data.Ports {
		got = append(got, p.Name)
	}
	want := []string{"c", "a", "b", "z", "y"}
	if !slices.Equal(got, want) {
		t.Errorf("port names = %v, want %v", got, want)
	}
}

func TestBuildNodes_UniqueNames(t *testing.T) {
	nodes, err := BuildNodes(testCatalog(), []Vessel{
		{Name: "A", VesselType: "artery"},
		{Name: "A", VesselType: "artery"},
		{Name: "A", VesselType: "heart"},
		{Name: "A_1", VesselType: "artery"},
	}, testConfig())
	if err != nil {
		t.Fatal(err)
	}

	var got []string
	seen := map[string]bool{}
	for _, n := range nodes {
		if seen[n.Data.Name] {
			t.Errorf("duplicate name %s", n.Data.Name)
		}
		seen[n.Data.Name] = true
		if n.ID != n.Data.Name {
			t.Errorf("ID %s != Name %s", n.ID, n.Data.Name)
		}
		got = append(got, n.Data.Name)
	}
	want := []string{"A", "A_1", "A_2", "A_1_1"}
	if !slices.Equal(got, want) {
		t.Errorf("names = %v, want %v", got, want)
	}
}

func TestBuildNodes_NodeShape(t *testing.T) {
	nodes, err := BuildNodes(testCatalog(), []Vessel{
		{Name: "H", VesselType: "heart", BCType: "pp"},
	}, testConfig())
	if err != nil {
		t.Fatal(err)
	}
	n := nodes[0]

	if n.Type != graph.NodeTypeModule {
		t.Errorf("Type = %q", n.Type)
	}
	if n.Style != graph.HiddenStyle {
		t.Errorf("Style = %+v, want hidden", n.Style)
	}
	if n.Data.Label != "heart — heart.cellml" {
		t.Errorf("Label = %q", n.Data.Label)
	}
	if n.Dimensions.Measured() {
		t.Error("dimensions must come from the canvas")
	}

	want := []graph.PortLabel{
		{PortType: "general_ports", Label: "vessel_port", Option: "u", IsMultiPortSum: true},
		{PortType: "exit_ports", Label: "exit", Option: "q"},
	}
	if !slices.Equal(n.Data.PortLabels, want) {
		t.Errorf("PortLabels = %+v, want %+v", n.Data.PortLabels, want)
	}
}

func TestBuildNodes_MissingModuleIsCodedError(t *testing.T) {
	cfg := append(testConfig(), ConfigEntry{VesselType: "vein", ModuleFile: "modules.json", ModuleType: "vein"})

	tests := []struct {
		name   string
		vessel Vessel
	}{
		{"unknown module key", Vessel{Name: "X", VesselType: "vein"}},
		{"unmapped vessel type", Vessel{Name: "X", VesselType: "capillary"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildNodes(testCatalog(), []Vessel{tt.vessel}, cfg)
			if !errors.Is(err, errors.ErrCodeModuleNotFound) {
				t.Errorf("error = %v, want MODULE_NOT_FOUND", err)
			}
		})
	}
}

func TestBuildNodes_InvalidVesselName(t *testing.T) {
	_, err := BuildNodes(testCatalog(), []Vessel{{Name: "", VesselType: "artery"}}, testConfig())
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("error = %v, want INVALID_INPUT", err)
	}
}

func TestResolveEdges_DropsExhaustedEdges(t *testing.T) {
	// C declares no input port, so A->C cannot bind a target
	in := Input{
		Catalog: testCatalog(),
		Config:  testConfig(),
		Vessels: []Vessel{
			{Name: "A", VesselType: "heart", Outputs: "B C"},
			{Name: "B", VesselType: "artery", Inputs: "A"},
			{Name: "C", VesselType: "artery"},
		},
	}

	res, err := Build(in, ModeResolved)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Edges) != 1 || res.Dropped != 1 {
		t.Errorf("edges = %d, dropped = %d, want 1 and 1", len(res.Edges), res.Dropped)
	}
}

func TestResolveEdges_PrefersNamedPorts(t *testing.T) {
	in := Input{
		Catalog: testCatalog(),
		Config:  testConfig(),
		Vessels: []Vessel{
			{Name: "A", VesselType: "heart", Outputs: "B C"},
			{Name: "B", VesselType: "artery", Inputs: "A"},
			{Name: "C", VesselType: "artery", Inputs: "A"},
		},
	}
	nodes, err := BuildNodes(in.Catalog, in.Vessels, in.Config)
	if err != nil {
		t.Fatal(err)
	}
	// process A->C first; it must still land on A's port named C
	logical := []graph.LogicalEdge{{Source: "A", Target: "C"}, {Source: "A", Target: "B"}}

	edges, dropped := ResolveEdges(nodes, logical, port.NewAllocator())
	if dropped != 0 || len(edges) != 2 {
		t.Fatalf("edges = %d, dropped = %d", len(edges), dropped)
	}
	toC := nodes[0].Data.Ports[1]
	if toC.Name != "C" || edges[0].SourceHandle != toC.HandleID() {
		t.Errorf("A->C used %s, want %s", edges[0].SourceHandle, toC.HandleID())
	}
}

func TestResolveEdges_NeverReusesPort(t *testing.T) {
	nodes := []graph.Node{
		{ID: "S", Data: graph.NodeData{Ports: []port.Port{port.New(port.Right, "T"), port.New(port.Right, "T")}}},
		{ID: "T", Data: graph.NodeData{Ports: []port.Port{port.New(port.Left, "S"), port.New(port.Left, "S"), port.New(port.Left, "S")}}},
	}
	st := graph.LogicalEdge{Source: "S", Target: "T"}
	logical := []graph.LogicalEdge{st, st, st}

	edges, dropped := ResolveEdges(nodes, logical, port.NewAllocator())
	if len(edges) != 2 || dropped != 1 {
		t.Fatalf("edges = %d, dropped = %d, want 2 and 1", len(edges), dropped)
	}
	if edges[0].SourceHandle == edges[1].SourceHandle || edges[0].TargetHandle == edges[1].TargetHandle {
		t.Error("a port was bound twice")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name         string
		config       Config
		vessels      []Vessel
		wantValid    bool
		wantMissing  []string
		wantUnmapped []string
	}{
		{
			name:      "all present",
			config:    testConfig(),
			vessels:   []Vessel{{Name: "A", VesselType: "heart"}},
			wantValid: true,
		},
		{
			name: "missing module key reported once",
			config: append(testConfig(),
				ConfigEntry{VesselType: "vein", ModuleFile: "modules.json", ModuleType: "vein"},
				ConfigEntry{VesselType: "vein2", ModuleFile: "modules.json", ModuleType: "vein"},
			),
			wantMissing: []string{"modules.json::vein"},
		},
		{
			name:        "wrong file",
			config:      Config{{VesselType: "heart", ModuleFile: "other.json", ModuleType: "heart"}},
			vessels:     []Vessel{{Name: "A", VesselType: "heart"}},
			wantMissing: []string{"other.json::heart"},
		},
		{
			name:         "unmapped vessel type",
			config:       testConfig(),
			vessels:      []Vessel{{Name: "A", VesselType: "vein"}, {Name: "B", VesselType: "vein"}},
			wantUnmapped: []string{"vein"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Validate(testCatalog(), tt.config, tt.vessels)
			if v.Valid != tt.wantValid {
				t.Errorf("Valid = %v, want %v", v.Valid, tt.wantValid)
			}
			if !slices.Equal(v.Missing, tt.wantMissing) {
				t.Errorf("Missing = %v, want %v", v.Missing, tt.wantMissing)
			}
			if !slices.Equal(v.Unmapped, tt.wantUnmapped) {
				t.Errorf("Unmapped = %v, want %v", v.Unmapped, tt.wantUnmapped)
			}
			if err := v.Err(); (err == nil) != tt.wantValid {
				t.Errorf("Err() = %v", err)
			} else if err != nil && !errors.Is(err, errors.ErrCodeModuleNotFound) {
				t.Errorf("Err() code = %v", errors.GetCode(err))
			}
		})
	}
}

func TestUniqueName(t *testing.T) {
	existing := map[string]bool{"A": true, "A_1": true, "B_1": true}
	tests := []struct{ base, want string }{
		{"A", "A_2"},
		{"B", "B"},
		{"B_1", "B_1_1"},
		{"C", "C"},
	}
	for _, tt := range tests {
		if got := UniqueName(tt.base, existing); got != tt.want {
			t.Errorf("UniqueName(%q) = %q, want %q", tt.base, got, tt.want)
		}
	}
}

func TestParseNames(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"   ", nil},
		{"a", []string{"a"}},
		{"b a b  c a", []string{"b", "a", "c"}},
	}
	for _, tt := range tests {
		if got := ParseNames(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("ParseNames(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
