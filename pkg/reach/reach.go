// Package reach computes transitive dependency closures over a dependency
// graph.
//
// The central question is "which packages does X depend on, directly or
// transitively?". Asked against the reverse graph it becomes "which packages
// depend on X?". [From] answers it for a single package; [All] answers it
// for every node in the graph at once, fanning the per-node traversals out
// over a worker pool.
//
// Cycles are legal input. A package never reaches itself through the empty
// path: X appears in its own closure only when some cycle (or a self-loop)
// leads back to it.
package reach

import (
	"context"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"sync"

	"github.com/libklein/pypi-dependency-analysis/pkg/depgraph"
)

// Strategy selects the traversal algorithm used by [All].
type Strategy string

const (
	// StrategyBFS runs an independent breadth-first traversal per node.
	// This is the default.
	StrategyBFS Strategy = "bfs"

	// StrategySCC condenses strongly connected components first and
	// derives per-node closures from the condensation. Produces exactly
	// the same sets as StrategyBFS; preferable on cycle-heavy graphs.
	StrategySCC Strategy = "scc"
)

// Options configures [All].
type Options struct {
	// Strategy selects the algorithm. Empty means StrategyBFS.
	Strategy Strategy

	// Workers bounds the number of concurrent per-node traversals for
	// StrategyBFS. Zero or negative means runtime.NumCPU().
	Workers int
}

// Result is the closure computed for one node.
//
// Reachable is sorted; traversal discovery order carries no meaning. A nil
// Reachable with a nil Err means the node reaches nothing. When Err is
// non-nil the computation for this node failed; other results are
// unaffected.
type Result struct {
	Node      string
	Reachable []string
	Err       error
}

// From returns the set of nodes reachable from start by following edges
// forward, sorted by name.
//
// The start node itself is excluded unless the traversal re-reaches it
// through a cycle or a self-loop. A start node missing from the graph
// reaches nothing and yields nil.
func From(g *depgraph.Graph, start string) []string {
	if !g.HasNode(start) {
		return nil
	}

	visited := make(map[string]struct{})
	queue := slices.Clone(g.Successors(start))

	for head := 0; head < len(queue); head++ {
		node := queue[head]
		if _, seen := visited[node]; seen {
			continue
		}
		visited[node] = struct{}{}
		queue = append(queue, g.Successors(node)...)
	}

	if len(visited) == 0 {
		return nil
	}
	return slices.Sorted(maps.Keys(visited))
}

// All computes the closure of every node in the graph.
//
// Results are indexed in the same order as g.Nodes() (sorted by name).
// A failure computing one node is recorded in that node's Result.Err and
// does not affect the others. Cancelling ctx aborts the run and returns
// ctx.Err().
func All(ctx context.Context, g *depgraph.Graph, opts Options) ([]Result, error) {
	if opts.Strategy == StrategySCC {
		return allSCC(ctx, g)
	}
	return allBFS(ctx, g, opts.Workers)
}

func allBFS(ctx context.Context, g *depgraph.Graph, workers int) ([]Result, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, nil
	}

	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(nodes) {
		workers = len(nodes)
	}

	// Workers share the immutable graph and write disjoint result slots,
	// so no synchronization beyond the job channel is needed.
	results := make([]Result, len(nodes))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				results[idx] = compute(g, nodes[idx])
			}
		}()
	}

	var cancelled bool
feed:
	for i := range nodes {
		select {
		case <-ctx.Done():
			cancelled = true
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if cancelled {
		return nil, ctx.Err()
	}
	return results, nil
}

// compute isolates a single node's traversal so one failure cannot take
// down the batch.
func compute(g *depgraph.Graph, node string) (res Result) {
	res.Node = node
	defer func() {
		if r := recover(); r != nil {
			res.Reachable = nil
			res.Err = fmt.Errorf("reachability for %s: panic: %v", node, r)
		}
	}()
	res.Reachable = From(g, node)
	return res
}
