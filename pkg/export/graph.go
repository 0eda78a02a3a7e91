package export

import (
	"encoding/json"
	"slices"

	"github.com/libklein/pypi-dependency-analysis/pkg/depgraph"
	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
)

// GraphDoc is the JSON shape of an exported graph.
type GraphDoc struct {
	Nodes []string  `json:"nodes"`
	Edges []EdgeDoc `json:"edges"`
}

// EdgeDoc is one directed edge, pointing from a package to a dependency.
type EdgeDoc struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// GraphJSON encodes the graph as an indented JSON document with sorted
// nodes and edges.
func GraphJSON(g *depgraph.Graph) ([]byte, error) {
	doc := GraphDoc{Nodes: g.Nodes(), Edges: []EdgeDoc{}}
	for _, from := range doc.Nodes {
		deps := slices.Clone(g.Successors(from))
		slices.Sort(deps)
		for _, to := range deps {
			doc.Edges = append(doc.Edges, EdgeDoc{From: from, To: to})
		}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Neighborhood extracts the induced subgraph on the packages within depth
// hops of root. With reverse false the walk follows dependencies; with
// reverse true it follows dependents. Either way the result keeps the
// original edge orientation, so arrows always point at dependencies.
//
// Depth 0 yields just the root. A root that is not in the graph is a
// PACKAGE_NOT_FOUND error.
func Neighborhood(g *depgraph.Graph, root string, depth int, reverse bool) (*depgraph.Graph, error) {
	if depth < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "depth must be non-negative, got %d", depth)
	}
	if !g.HasNode(root) {
		return nil, errors.New(errors.ErrCodePackageNotFound, "package not in graph: %s", root)
	}

	included := map[string]bool{root: true}
	frontier := []string{root}
	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, name := range frontier {
			neighbors := g.Successors(name)
			if reverse {
				neighbors = g.Predecessors(name)
			}
			for _, n := range neighbors {
				if !included[n] {
					included[n] = true
					next = append(next, n)
				}
			}
		}
		frontier = next
	}

	sub := depgraph.New()
	for name := range included {
		if err := sub.AddNode(name); err != nil {
			return nil, err
		}
		for _, dep := range g.Successors(name) {
			if !included[dep] {
				continue
			}
			if err := sub.AddEdge(name, dep); err != nil {
				return nil, err
			}
		}
	}
	return sub, nil
}
