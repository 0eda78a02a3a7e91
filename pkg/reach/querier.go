package reach

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/libklein/pypi-dependency-analysis/pkg/depgraph"
)

// DefaultQuerierSize is the number of closures a Querier memoizes.
const DefaultQuerierSize = 4096

// Querier answers ad-hoc closure queries against a fixed graph, memoizing
// results in an LRU cache. Interactive exploration tends to revisit the
// same handful of packages, and closures on hub-heavy graphs are expensive
// enough to be worth keeping.
//
// A Querier is safe for concurrent use as long as the underlying graph is
// no longer mutated. Queries for unknown packages return nil, same as
// [From].
type Querier struct {
	g     *depgraph.Graph
	cache *lru.Cache[string, []string]
}

// NewQuerier creates a Querier over g. Size bounds the memo; zero or
// negative means DefaultQuerierSize. Use a Querier over g.Reverse() to
// answer "who depends on X" queries.
func NewQuerier(g *depgraph.Graph, size int) (*Querier, error) {
	if size <= 0 {
		size = DefaultQuerierSize
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, err
	}
	return &Querier{g: g, cache: cache}, nil
}

// Reachable returns the closure of name, computing it on first use and
// serving the memo afterwards. The returned slice is shared across calls
// and must be treated as read-only.
func (q *Querier) Reachable(name string) []string {
	if cached, ok := q.cache.Get(name); ok {
		return cached
	}
	result := From(q.g, name)
	q.cache.Add(name, result)
	return result
}

// Len returns the number of memoized closures.
func (q *Querier) Len() int { return q.cache.Len() }

// Purge drops all memoized closures.
func (q *Querier) Purge() { q.cache.Purge() }
