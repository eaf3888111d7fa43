// Package render names the output formats of a laid-out workflow.
//
// The drawing itself lives in the [nodelink] subpackage, which turns a
// [graph.Snapshot] into Graphviz DOT with every node and port pinned at
// its computed position, and renders it in process:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{})
//	svg, err := nodelink.Render(ctx, dot, render.FormatSVG)
package render
