// Package export serializes analysis outputs for downstream tools.
//
// # Overview
//
// The analysis pipeline ends in two artifacts: the per-package summary
// table and the dependency graph itself. This package writes both in
// formats other tools can consume:
//
//   - Summary tables as JSON Lines or CSV
//   - Scatter series as CSV
//   - Graphs as JSON documents or Graphviz DOT source
//   - DOT rendered to SVG in process
//
// # Neighborhoods
//
// A full package index is far too large to draw. [Neighborhood] extracts
// the induced subgraph within a bounded number of hops of one package,
// walking either dependencies or dependents, so exports stay readable:
//
//	sub, err := export.Neighborhood(g, "flask", 2, false)
//	dot := export.ToDOT(sub, export.DOTOptions{Root: "flask"})
//	svg, err := export.RenderSVG(dot)
//
// # Determinism
//
// All writers emit nodes, edges, and rows in sorted order, so exporting
// the same graph twice produces byte-identical output.
package export
