package depgraph

import (
	"github.com/libklein/pypi-dependency-analysis/pkg/normalize"
)

// FromEdges builds a Graph from the dependency edge relation.
//
// Rows with an empty Dependency only materialize the package as a node;
// all other rows add an edge package→dependency. Rows with an empty
// Package are degenerate and are dropped. Because node and edge insertion
// are idempotent, the resulting graph is invariant under row reordering
// and duplication.
func FromEdges(edges []normalize.Edge) *Graph {
	g := New()
	for _, e := range edges {
		switch {
		case e.Package == "":
			continue
		case e.Dependency == "":
			_ = g.AddNode(e.Package)
		default:
			_ = g.AddEdge(e.Package, e.Dependency)
		}
	}
	return g
}
