// Package depgraph provides the directed dependency graph the analysis
// pipeline is built around.
//
// A [Graph] maps canonical package names to the packages they depend on.
// Unlike layered DAGs used for visualization, a dependency graph over a
// real package index may legitimately contain cycles and even self-loops,
// so no acyclicity is enforced anywhere in this package.
//
// Edges are simple: adding the same edge twice has no effect. Adding an
// edge materializes both endpoints, so a dependency on a package the index
// does not know about still becomes a node (with no outgoing edges of its
// own).
package depgraph

import (
	"errors"
	"maps"
	"slices"
)

var (
	// ErrInvalidNode is returned by [Graph.AddNode] and [Graph.AddEdge]
	// when a node name is empty. All nodes must have non-empty names.
	ErrInvalidNode = errors.New("node name must not be empty")
)

type edgeKey struct {
	from string
	to   string
}

// Graph is a directed graph over package names with adjacency-list storage.
//
// The zero value is not usable - use [New] to create a Graph.
// Graph is not safe for concurrent mutation; once built it is safe for
// concurrent reads.
type Graph struct {
	nodes    map[string]struct{}
	outgoing map[string][]string // package -> dependencies
	incoming map[string][]string // package -> dependents
	edges    map[edgeKey]struct{}
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		nodes:    make(map[string]struct{}),
		outgoing: make(map[string][]string),
		incoming: make(map[string][]string),
		edges:    make(map[edgeKey]struct{}),
	}
}

// AddNode adds a node to the graph. Adding an existing node is a no-op,
// so rebuilding from the same rows in any order yields the same graph.
// Returns ErrInvalidNode if the name is empty.
func (g *Graph) AddNode(name string) error {
	if name == "" {
		return ErrInvalidNode
	}
	g.nodes[name] = struct{}{}
	return nil
}

// AddEdge adds a directed edge from→to, materializing both endpoints.
// Duplicate edges collapse to one; self-loops are permitted. Returns
// ErrInvalidNode if either endpoint is empty.
func (g *Graph) AddEdge(from, to string) error {
	if from == "" || to == "" {
		return ErrInvalidNode
	}
	g.nodes[from] = struct{}{}
	g.nodes[to] = struct{}{}

	k := edgeKey{from, to}
	if _, dup := g.edges[k]; dup {
		return nil
	}
	g.edges[k] = struct{}{}
	g.outgoing[from] = append(g.outgoing[from], to)
	g.incoming[to] = append(g.incoming[to], from)
	return nil
}

// HasNode reports whether the package exists in the graph.
func (g *Graph) HasNode(name string) bool {
	_, ok := g.nodes[name]
	return ok
}

// HasEdge reports whether the edge from→to exists.
func (g *Graph) HasEdge(from, to string) bool {
	_, ok := g.edges[edgeKey{from, to}]
	return ok
}

// Nodes returns all package names in sorted order.
func (g *Graph) Nodes() []string {
	return slices.Sorted(maps.Keys(g.nodes))
}

// NodeCount returns the number of nodes in the graph.
func (g *Graph) NodeCount() int { return len(g.nodes) }

// EdgeCount returns the number of distinct edges in the graph.
func (g *Graph) EdgeCount() int { return len(g.edges) }

// Successors returns the packages this package depends on.
// Returns nil if the package has no dependencies or doesn't exist. The
// returned slice should not be modified - use it as a read-only view.
func (g *Graph) Successors(name string) []string { return g.outgoing[name] }

// Predecessors returns the packages that depend on this package.
// Returns nil if the package has no dependents or doesn't exist. The
// returned slice should not be modified - use it as a read-only view.
func (g *Graph) Predecessors(name string) []string { return g.incoming[name] }

// OutDegree returns the number of distinct dependencies of the package.
// Returns 0 if the package doesn't exist.
func (g *Graph) OutDegree(name string) int { return len(g.outgoing[name]) }

// InDegree returns the number of distinct dependents of the package.
// Returns 0 if the package doesn't exist.
func (g *Graph) InDegree(name string) int { return len(g.incoming[name]) }

// Reverse returns the structural transpose of the graph: the same node
// set with every edge flipped. The reverse graph is derived purely from
// this graph's structure, never recomputed from source data, so the two
// stay consistent by construction.
func (g *Graph) Reverse() *Graph {
	r := New()
	for name := range g.nodes {
		r.nodes[name] = struct{}{}
	}
	for k := range g.edges {
		rk := edgeKey{k.to, k.from}
		r.edges[rk] = struct{}{}
		r.outgoing[k.to] = append(r.outgoing[k.to], k.from)
		r.incoming[k.from] = append(r.incoming[k.from], k.to)
	}
	return r
}
