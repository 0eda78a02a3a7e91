// Package aggregate joins per-node reachability closures back to package
// metadata, producing the per-package summary table consumed by reporting,
// export, and archival.
//
// The join is keyed by normalized package name and relies on name uniqueness:
// NewSizeIndex rejects inputs where two records collapse to the same key, so
// a dependency lookup inside Build resolves to exactly one size or to none.
package aggregate

import (
	"slices"
	"strings"

	"github.com/libklein/pypi-dependency-analysis/pkg/normalize"
	"github.com/libklein/pypi-dependency-analysis/pkg/reach"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// Summary is one row of the per-package summary table. DependsOn holds the
// full transitive dependency closure, not just direct requirements; TotalSize
// adds the package's own size to the known sizes of every closure member.
// Rows are computed fresh per run and never mutated afterwards.
type Summary struct {
	Name            string   `json:"name" bson:"name"`
	TotalSize       int64    `json:"total_size" bson:"total_size"`
	DependsOn       []string `json:"depends_on" bson:"depends_on"`
	NumRequirements int      `json:"num_requirements" bson:"num_requirements"`
	NumProvidesFor  int      `json:"num_provides_for" bson:"num_provides_for"`
}

// Build produces one Summary per package record, joining the forward and
// reverse reachability results against the size index.
//
// Only packages with a metadata record get a row; names that exist purely as
// dependency targets appear inside DependsOn lists but never as rows.
// Closure members without a known size contribute 0 to TotalSize rather than
// poisoning the sum. A record whose traversal failed in either direction is
// skipped and counted, not fatal; the second return value reports how many
// rows were dropped that way. Passing a nil index builds one from the
// records, surfacing the same integrity error NewSizeIndex would.
//
// Output is sorted by name.
func Build(records []snapshot.Record, forward, reverse []reach.Result, index *SizeIndex) ([]Summary, int, error) {
	if index == nil {
		var err error
		index, err = NewSizeIndex(records)
		if err != nil {
			return nil, 0, err
		}
	}

	fwd := resultsByNode(forward)
	rev := resultsByNode(reverse)

	summaries := make([]Summary, 0, len(records))
	skipped := 0
	for _, rec := range records {
		name := normalize.Name(rec.Name)
		if name == "" {
			continue
		}

		f, r := fwd[name], rev[name]
		if f.Err != nil || r.Err != nil {
			skipped++
			continue
		}

		deps := f.Reachable
		if deps == nil {
			deps = []string{}
		}

		total := index.Size(name)
		for _, dep := range deps {
			total += index.Size(dep)
		}

		summaries = append(summaries, Summary{
			Name:            name,
			TotalSize:       total,
			DependsOn:       deps,
			NumRequirements: len(deps),
			NumProvidesFor:  len(r.Reachable),
		})
	}

	slices.SortFunc(summaries, func(a, b Summary) int {
		return strings.Compare(a.Name, b.Name)
	})
	return summaries, skipped, nil
}

// resultsByNode indexes traversal results by node name. Nodes absent from
// the map behave as empty closures downstream.
func resultsByNode(results []reach.Result) map[string]reach.Result {
	m := make(map[string]reach.Result, len(results))
	for _, res := range results {
		m[res.Node] = res
	}
	return m
}
