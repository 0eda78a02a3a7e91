package reach

import (
	"context"
	"maps"
	"slices"

	"github.com/libklein/pypi-dependency-analysis/pkg/depgraph"
)

// allSCC computes all closures by condensing strongly connected components.
//
// Every node in a component shares the same closure modulo self-membership,
// so the closure is computed once per component and expanded per node. The
// output is identical to the per-node BFS: same sets, same order.
func allSCC(ctx context.Context, g *depgraph.Graph) ([]Result, error) {
	nodes := g.Nodes()
	if len(nodes) == 0 {
		return nil, nil
	}

	comps := stronglyConnected(g, nodes)

	compOf := make(map[string]int, len(nodes))
	for i, comp := range comps {
		for _, node := range comp {
			compOf[node] = i
		}
	}

	// Tarjan emits components in reverse topological order of the
	// condensation: every component a node can reach is emitted before the
	// node's own component. Processing in emission order therefore only
	// ever unions sets that are already final.
	full := make([]map[string]struct{}, len(comps))
	for i, comp := range comps {
		set := make(map[string]struct{}, len(comp))
		for _, node := range comp {
			set[node] = struct{}{}
		}
		for _, node := range comp {
			for _, succ := range g.Successors(node) {
				if j := compOf[succ]; j != i {
					maps.Copy(set, full[j])
				}
			}
		}
		full[i] = set
	}

	results := make([]Result, len(nodes))
	for idx, node := range nodes {
		if idx%1024 == 0 && ctx.Err() != nil {
			return nil, ctx.Err()
		}

		comp := compOf[node]
		includeSelf := len(comps[comp]) > 1 || g.HasEdge(node, node)

		set := full[comp]
		out := make([]string, 0, len(set))
		for n := range set {
			if n == node && !includeSelf {
				continue
			}
			out = append(out, n)
		}
		slices.Sort(out)
		if len(out) == 0 {
			out = nil
		}
		results[idx] = Result{Node: node, Reachable: out}
	}
	return results, nil
}

// stronglyConnected computes the strongly connected components of g with
// an iterative Tarjan traversal, visiting roots in the given node order.
// Components are returned in emission order (reverse topological order of
// the condensation).
func stronglyConnected(g *depgraph.Graph, nodes []string) [][]string {
	t := &tarjanState{
		g:       g,
		index:   make(map[string]int, len(nodes)),
		lowlink: make(map[string]int, len(nodes)),
		onStack: make(map[string]bool, len(nodes)),
	}
	for _, node := range nodes {
		if _, seen := t.index[node]; !seen {
			t.strongConnect(node)
		}
	}
	return t.comps
}

type tarjanState struct {
	g       *depgraph.Graph
	index   map[string]int
	lowlink map[string]int
	onStack map[string]bool
	stack   []string
	next    int
	comps   [][]string
}

type tarjanFrame struct {
	node  string
	succs []string
	i     int
}

// strongConnect runs Tarjan's algorithm from root with an explicit frame
// stack. Dependency chains in real indexes easily exceed the goroutine
// stack comfort zone, so no recursion.
func (t *tarjanState) strongConnect(root string) {
	t.visit(root)
	frames := []tarjanFrame{{node: root, succs: t.g.Successors(root)}}

	for len(frames) > 0 {
		f := &frames[len(frames)-1]

		if f.i < len(f.succs) {
			w := f.succs[f.i]
			f.i++

			if _, seen := t.index[w]; !seen {
				t.visit(w)
				frames = append(frames, tarjanFrame{node: w, succs: t.g.Successors(w)})
			} else if t.onStack[w] && t.index[w] < t.lowlink[f.node] {
				t.lowlink[f.node] = t.index[w]
			}
			continue
		}

		frames = frames[:len(frames)-1]
		if len(frames) > 0 {
			parent := &frames[len(frames)-1]
			if t.lowlink[f.node] < t.lowlink[parent.node] {
				t.lowlink[parent.node] = t.lowlink[f.node]
			}
		}

		if t.lowlink[f.node] == t.index[f.node] {
			var comp []string
			for {
				w := t.stack[len(t.stack)-1]
				t.stack = t.stack[:len(t.stack)-1]
				t.onStack[w] = false
				comp = append(comp, w)
				if w == f.node {
					break
				}
			}
			t.comps = append(t.comps, comp)
		}
	}
}

func (t *tarjanState) visit(node string) {
	t.index[node] = t.next
	t.lowlink[node] = t.next
	t.next++
	t.stack = append(t.stack, node)
	t.onStack[node] = true
}
