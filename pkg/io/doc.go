// Package io reads the three import tables and writes graphs back out.
//
// # Inputs
//
// An import needs a module catalog, a module config and a vessel table:
//
//	catalog.json   [{"filename": "heart.cellml", "modules": [{"componentName": "LV", ...}]}]
//	config.json    [{"vessel_type": "ventricle", "module_file": "heart.cellml", "module_type": "LV"}]
//	vessels.csv    name,BC_type,vessel_type,inp_vessels,out_vessels
//
// The vessel table is CSV or JSON; [ReadVessels] decides by the first
// non-space byte. CSV headers are matched case-insensitively and column
// order does not matter. inp_vessels and out_vessels hold space-separated
// vessel names.
//
// [LoadInput] reads all three files into a [workflow.Input].
//
// # Outputs
//
// [WriteVesselsCSV] writes a vessel table derived from a graph with
// [VesselsFromGraph], so an edited workflow can be imported again. Graph
// JSON itself is written by [graph.Write].
package io
