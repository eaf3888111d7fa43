// Package nodelink draws a laid-out workflow as a node-link diagram.
//
// [ToDOT] pins every node body and every port marker at the position the
// layout engine computed, so the drawing matches the editor canvas:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{Detailed: true})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// Canvas pixels map to 0.75 Graphviz points and the y axis is flipped.
// Graphviz (neato, with all nodes pinned) only routes the edges, from port
// marker to port marker.
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG and
// PNG rendering.
package nodelink
