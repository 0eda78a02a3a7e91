// Package communities clusters the dependency graph into groups of tightly
// interdependent packages using Louvain modularity optimization.
//
// The optimization itself is delegated to gonum's community package and
// treated as a black box. This package adapts the dependency graph to
// gonum's integer node model, runs the optimizer, and maps the partition
// back to package names in a stable order.
package communities

import (
	"math/rand/v2"
	"slices"
	"strings"

	"gonum.org/v1/gonum/graph/community"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/libklein/pypi-dependency-analysis/pkg/depgraph"
)

// DefaultResolution is the standard modularity resolution.
const DefaultResolution = 1.0

// Options configure a detection run.
type Options struct {
	// Resolution controls cluster granularity. Values above 1 favor more,
	// smaller communities; values below 1 favor fewer, larger ones.
	Resolution float64 `json:"resolution,omitempty"`

	// Seed drives the shuffle in the local moving heuristic. Runs over the
	// same graph with the same resolution and seed produce the same
	// partition.
	Seed uint64 `json:"seed,omitempty"`
}

// WithDefaults returns a copy of the options with zero values replaced by
// defaults.
func (o Options) WithDefaults() Options {
	if o.Resolution <= 0 {
		o.Resolution = DefaultResolution
	}
	return o
}

// Community is one detected cluster of packages.
type Community struct {
	ID       int      `json:"id"`
	Packages []string `json:"packages"`
}

// Result is the partition produced by a detection run. Communities are
// ordered largest first, ties broken by the name of their first package,
// and IDs follow that order.
type Result struct {
	Communities []Community `json:"communities"`
	Modularity  float64     `json:"modularity"`
}

// Detect partitions the graph into communities of packages that depend on
// each other more densely than on the rest of the index. Self-loops carry
// no clustering signal and are ignored. An edgeless graph degrades to one
// singleton community per package with modularity 0.
func Detect(g *depgraph.Graph, opts Options) Result {
	opts = opts.WithDefaults()

	names := g.Nodes()
	if len(names) == 0 {
		return Result{}
	}

	ids := make(map[string]int64, len(names))
	for i, name := range names {
		ids[name] = int64(i)
	}

	sg := simple.NewDirectedGraph()
	for _, name := range names {
		sg.AddNode(simple.Node(ids[name]))
	}
	edges := 0
	for _, name := range names {
		for _, dep := range g.Successors(name) {
			// simple graphs reject self edges.
			if dep == name {
				continue
			}
			sg.SetEdge(simple.Edge{F: simple.Node(ids[name]), T: simple.Node(ids[dep])})
			edges++
		}
	}

	if edges == 0 {
		return singletons(names)
	}

	src := rand.NewPCG(opts.Seed, opts.Seed)
	groups := community.Modularize(sg, opts.Resolution, src).Communities()

	result := Result{
		Communities: make([]Community, 0, len(groups)),
		Modularity:  community.Q(sg, groups, opts.Resolution),
	}
	for _, group := range groups {
		packages := make([]string, len(group))
		for i, node := range group {
			packages[i] = names[node.ID()]
		}
		slices.Sort(packages)
		result.Communities = append(result.Communities, Community{Packages: packages})
	}
	sortCommunities(result.Communities)
	return result
}

func singletons(names []string) Result {
	result := Result{Communities: make([]Community, 0, len(names))}
	for _, name := range names {
		result.Communities = append(result.Communities, Community{Packages: []string{name}})
	}
	sortCommunities(result.Communities)
	return result
}

func sortCommunities(communities []Community) {
	slices.SortFunc(communities, func(a, b Community) int {
		if len(a.Packages) != len(b.Packages) {
			return len(b.Packages) - len(a.Packages)
		}
		return strings.Compare(a.Packages[0], b.Packages[0])
	})
	for i := range communities {
		communities[i].ID = i
	}
}
