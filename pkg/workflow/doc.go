// Package workflow builds workflow graphs from imported tables.
//
// An import consists of three tables (see [Input]):
//
//   - a module [Catalog]: module files and the components they define
//   - a module [Config]: which module implements each vessel type
//   - a vessel table: one [Vessel] per module instance, with
//     whitespace-separated inp_vessels and out_vessels fields
//
// [Validate] must run first. It reports missing module keys and unmapped
// vessel types without building anything, so a failed import leaves the
// editor untouched.
//
// [Build] then produces hidden nodes with directional ports (inputs left,
// outputs right) and either logical edges ([ModeLogical]) or edges bound to
// concrete ports through a [port.Allocator] ([ModeResolved]). The editor
// session uses the logical mode and binds ports after the canvas has
// measured the nodes; the CLI and HTTP pipeline use the resolved mode.
//
// Nothing in this package has side effects.
package workflow
