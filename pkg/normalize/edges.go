package normalize

import (
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// Edge is one row of the dependency relation: the package declares a
// requirement on the dependency. A row with an empty Dependency records a
// package that declared no usable requirements, keeping it present in the
// relation so it still materializes as a graph node.
type Edge struct {
	Package    string
	Dependency string
}

// Edges converts snapshot records into the dependency edge relation.
//
// For each record, every requirement string that yields a name produces one
// edge row; requirement strings without a leading name are skipped. A record
// whose requirement list is empty, or whose requirements were all skipped,
// produces exactly one row with an empty Dependency.
//
// Both endpoints are canonicalized with [Name]. Duplicate rows are preserved
// here; collapsing them is the graph builder's job. Row order follows record
// order and, within a record, requirement order, so the relation is
// deterministic for a given snapshot.
func Edges(records []snapshot.Record) []Edge {
	edges := make([]Edge, 0, len(records))

	for _, rec := range records {
		pkg := Name(rec.Name)

		emitted := 0
		for _, req := range rec.RequiresDist {
			dep, ok := ExtractName(req)
			if !ok {
				continue
			}
			edges = append(edges, Edge{Package: pkg, Dependency: Name(dep)})
			emitted++
		}

		if emitted == 0 {
			edges = append(edges, Edge{Package: pkg})
		}
	}

	return edges
}
