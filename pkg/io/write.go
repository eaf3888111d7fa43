package io

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/vesselflow/pkg/graph"
	"github.com/matzehuels/vesselflow/pkg/workflow"
)

// VesselsFromGraph derives a vessel table from a graph: one row per node,
// inputs and outputs taken from the edges in edge order.
func VesselsFromGraph(s graph.Snapshot) []workflow.Vessel {
	names := make(map[string]string, len(s.Nodes))
	for _, n := range s.Nodes {
		names[n.ID] = n.Data.Name
	}
	vs := make([]workflow.Vessel, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		var in, out []string
		for _, e := range s.Edges {
			if e.Target == n.ID {
				if name, ok := names[e.Source]; ok {
					in = append(in, name)
				}
			}
			if e.Source == n.ID {
				if name, ok := names[e.Target]; ok {
					out = append(out, name)
				}
			}
		}
		vt := n.Data.VesselType
		if vt == "" {
			vt = n.Data.Name
		}
		vs = append(vs, workflow.Vessel{
			Name:       n.Data.Name,
			BCType:     n.Data.BCType,
			VesselType: vt,
			Inputs:     strings.Join(in, " "),
			Outputs:    strings.Join(out, " "),
		})
	}
	return vs
}

// WriteVesselsCSV writes a vessel table with a header row.
func WriteVesselsCSV(w io.Writer, vs []workflow.Vessel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColName, "BC_type", ColVesselType, ColInputs, ColOutputs}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, v := range vs {
		if err := cw.Write([]string{v.Name, v.BCType, v.VesselType, v.Inputs, v.Outputs}); err != nil {
			return fmt.Errorf("write %s: %w", v.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
