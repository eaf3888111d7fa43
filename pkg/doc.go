// Package pkg provides the core libraries for Vesselflow workflow graphs.
//
// # Overview
//
// Vesselflow turns three tables into an editable graph of module nodes: a
// module catalog, a config that maps vessel types to modules, and a vessel
// table listing each vessel with its input and output vessels. Every vessel
// becomes a node, every named neighbour becomes a port, and edges join the
// ports of the two vessels they connect.
//
// # Architecture
//
// The typical data flow:
//
//	catalog + config + vessels
//	         ↓
//	    [io] package (read JSON and CSV tables)
//	         ↓
//	    [workflow] package (validate, build nodes, resolve edges to ports)
//	         ↓
//	    [layout] package (place nodes, move ports to the facing side)
//	         ↓
//	    [render/nodelink] package (SVG, PNG, DOT, JSON)
//
// [pipeline] runs these stages with caching for the CLI and the HTTP API.
// [editor] runs them interactively: it keeps one graph, pushes every change
// to a canvas and records it in a [history] store for undo and redo.
//
// # Quick Start
//
//	in, _ := io.LoadInput(io.Paths{
//	    Catalog: "lib.json",
//	    Config:  "types.json",
//	    Vessels: "plant.csv",
//	})
//	runner := pipeline.NewRunner(nil, nil, nil)
//	res, _ := runner.Execute(ctx, in, pipeline.Options{Formats: []string{"svg"}})
//	os.WriteFile("plant.svg", res.Artifacts["svg"], 0o644)
//
// # Main Packages
//
// ## Domain
//
// [workflow] - Catalog, config and vessel types, import validation and the
// graph builder.
//
// [port] - Port sides, handle ids and the port allocator that hands out each
// free port once.
//
// [graph] - The persisted node/edge snapshot and its JSON form.
//
// [dag] and [dag/transform] - A directed graph with cycle breaking and
// layering, used by the layered layout backend.
//
// [layout] - The layout engine with graphviz and layered backends.
//
// [history] - The undo/redo command store with debounced batching.
//
// [editor] - An editor session over a canvas.
//
// ## Infrastructure
//
// [cache] - File, Redis and null caches for layouts and renders.
//
// [workspace] - Saved workspaces in files or MongoDB.
//
// [config] - The vesselflow.toml file.
//
// [server] - The HTTP API over workspaces and editor sessions.
//
// [errors] - Coded errors shared by every package.
//
// [observability] - Hooks for metrics and tracing.
//
// [cache]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/config
// [dag]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/dag/transform
// [editor]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/editor
// [errors]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/errors
// [graph]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/graph
// [history]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/history
// [io]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/io
// [layout]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/layout
// [observability]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/observability
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/pipeline
// [port]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/port
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/render/nodelink
// [server]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/server
// [workflow]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/workflow
// [workspace]: https://pkg.go.dev/github.com/matzehuels/vesselflow/pkg/workspace
package pkg
