package workflow

import (
	"fmt"

	"github.com/matzehuels/vesselflow/pkg/errors"
	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/port"
)

// Mode selects what Build returns next to the nodes.
type Mode int

const (
	// ModeLogical returns node-to-node edges without handles, for callers
	// that bind ports after the canvas has measured the nodes.
	ModeLogical Mode = iota
	// ModeResolved binds every edge to concrete ports immediately.
	ModeResolved
)

// String returns the mode name used in logs and flags.
func (m Mode) String() string {
	if m == ModeResolved {
		return "resolved"
	}
	return "logical"
}

// Result is the output of Build.
type Result struct {
	Nodes        []graph.Node
	LogicalEdges []graph.LogicalEdge // ModeLogical only
	Edges        []graph.Edge        // ModeResolved only
	// Dropped counts logical edges that found no free port on one of their
	// endpoints.
	Dropped int
}

// Build turns an import into nodes plus logical or resolved edges. It has no
// side effects. Validation must have passed; Build still reports a missing
// module key as a MODULE_NOT_FOUND error.
func Build(in Input, mode Mode) (Result, error) {
	nodes, err := BuildNodes(in.Catalog, in.Vessels, in.Config)
	if err != nil {
		return Result{}, err
	}
	logical := BuildLogicalEdges(in.Vessels, nodes)

	if mode == ModeLogical {
		return Result{Nodes: nodes, LogicalEdges: logical}, nil
	}
	edges, dropped := ResolveEdges(nodes, logical, port.NewAllocator())
	return Result{Nodes: nodes, Edges: edges, Dropped: dropped}, nil
}

// BuildNodes creates one hidden node per vessel. Inputs become left ports
// and outputs right ports, one per distinct name in each field. Display
// names are made unique with _1, _2 suffixes and double as node ids.
func BuildNodes(catalog Catalog, vessels []Vessel, config Config) ([]graph.Node, error) {
	idx := catalog.Index()
	names := make(map[string]bool, len(vessels))
	nodes := make([]graph.Node, 0, len(vessels))

	for _, v := range vessels {
		if err := errors.ValidateVesselName(v.Name); err != nil {
			return nil, err
		}
		entry, ok := config.Lookup(v.VesselType)
		if !ok {
			return nil, errors.New(errors.ErrCodeModuleNotFound,
				"vessel %s: no module configured for type %q", v.Name, v.VesselType)
		}
		mod, ok := idx[entry.Key()]
		if !ok {
			return nil, errors.New(errors.ErrCodeModuleNotFound,
				"vessel %s: module %s not in catalog", v.Name, entry.Key())
		}

		name := UniqueName(v.Name, names)
		names[name] = true

		nodes = append(nodes, graph.Node{
			ID:    name,
			Type:  graph.NodeTypeModule,
			Style: graph.HiddenStyle,
			Data: graph.NodeData{
				Name:       name,
				Label:      Label(mod),
				VesselType: v.VesselType,
				BCType:     v.BCType,
				ModuleFile: entry.ModuleFile,
				ModuleType: mod.ComponentName,
				Ports:      BuildPorts(v),
				PortLabels: BuildPortLabels(mod, entry),
			},
		})
	}
	return nodes, nil
}

// Label is the node caption "<componentName> — <sourceFile>".
func Label(m Module) string {
	return fmt.Sprintf("%s — %s", m.ComponentName, m.SourceFile)
}

// BuildPorts returns the directional ports of a vessel: inputs on the left,
// outputs on the right. Each field is deduplicated on its own, so a name
// listed in both gets one port per side.
func BuildPorts(v Vessel) []port.Port {
	inputs := ParseNames(v.Inputs)
	outputs := ParseNames(v.Outputs)
	ports := make([]port.Port, 0, len(inputs)+len(outputs))
	for _, name := range inputs {
		ports = append(ports, port.New(port.Left, name))
	}
	for _, name := range outputs {
		ports = append(ports, port.New(port.Right, name))
	}
	return ports
}

// BuildPortLabels collects the port groups with a type and at least one
// variable. The config entry's groups win over the module's when present.
func BuildPortLabels(m Module, entry ConfigEntry) []graph.PortLabel {
	groups := []struct {
		kind   string
		module []PortGroup
		config []PortGroup
	}{
		{"general_ports", m.GeneralPorts, entry.GeneralPorts},
		{"entrance_ports", m.EntrancePorts, entry.EntrancePorts},
		{"exit_ports", m.ExitPorts, entry.ExitPorts},
	}

	labels := []graph.PortLabel{}
	for _, g := range groups {
		src := g.module
		if len(g.config) > 0 {
			src = g.config
		}
		for _, p := range src {
			if p.PortType == "" || len(p.Variables) == 0 {
				continue
			}
			labels = append(labels, graph.PortLabel{
				PortType:       g.kind,
				Label:          p.PortType,
				Option:         p.Variables[0],
				IsMultiPortSum: p.MultiPort == "Sum",
			})
		}
	}
	return labels
}

// BuildLogicalEdges emits one edge per distinct out_vessels name whose
// target resolves to a node. A name that several vessels share resolves to
// the first of them.
func BuildLogicalEdges(vessels []Vessel, nodes []graph.Node) []graph.LogicalEdge {
	byVessel := make(map[string]string, len(nodes))
	for i, v := range vessels {
		if i >= len(nodes) {
			break
		}
		if _, ok := byVessel[v.Name]; !ok {
			byVessel[v.Name] = nodes[i].ID
		}
	}

	var edges []graph.LogicalEdge
	for i, v := range vessels {
		if i >= len(nodes) {
			break
		}
		for _, target := range ParseNames(v.Outputs) {
			tgt, ok := byVessel[target]
			if !ok {
				continue
			}
			edges = append(edges, graph.LogicalEdge{Source: nodes[i].ID, Target: tgt})
		}
	}
	return edges
}

// ResolveEdges binds each logical edge to a free source port (prefer
// outward) and a free target port (prefer inward), preferring ports named
// after the other endpoint. Edges that find no port on either side are
// dropped and counted; the build carries on.
func ResolveEdges(nodes []graph.Node, logical []graph.LogicalEdge, alloc *port.Allocator) ([]graph.Edge, int) {
	byID := make(map[string]*graph.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	edges := make([]graph.Edge, 0, len(logical))
	dropped := 0
	for _, le := range logical {
		src, okS := byID[le.Source]
		dst, okT := byID[le.Target]
		if !okS || !okT {
			dropped++
			continue
		}

		sp := alloc.NextUnusedPortNamed(src, port.SourcePriority, dst.ID)
		if sp == nil {
			dropped++
			continue
		}
		tp := alloc.NextUnusedPortNamed(dst, port.TargetPriority, src.ID)
		if tp == nil {
			dropped++
			continue
		}
		edges = append(edges, graph.NewEdge(src.ID, dst.ID, *sp, *tp))
	}
	return edges, dropped
}
