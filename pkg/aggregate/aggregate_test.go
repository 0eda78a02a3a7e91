package aggregate

import (
	"context"
	"fmt"
	"reflect"
	"testing"

	"github.com/libklein/pypi-dependency-analysis/pkg/depgraph"
	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
	"github.com/libklein/pypi-dependency-analysis/pkg/normalize"
	"github.com/libklein/pypi-dependency-analysis/pkg/reach"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// analyze runs the full normalize -> build -> traverse -> join path the
// pipeline uses, so these tests exercise the real stage wiring.
func analyze(t *testing.T, records []snapshot.Record) []Summary {
	t.Helper()

	g := depgraph.FromEdges(normalize.Edges(records))
	fwd, err := reach.All(context.Background(), g, reach.Options{})
	if err != nil {
		t.Fatalf("forward reach: %v", err)
	}
	rev, err := reach.All(context.Background(), g.Reverse(), reach.Options{})
	if err != nil {
		t.Fatalf("reverse reach: %v", err)
	}

	summaries, skipped, err := Build(records, fwd, rev, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("Build skipped %d rows", skipped)
	}
	return summaries
}

func row(t *testing.T, summaries []Summary, name string) Summary {
	t.Helper()
	for _, s := range summaries {
		if s.Name == name {
			return s
		}
	}
	t.Fatalf("no summary row for %q", name)
	return Summary{}
}

func TestBuildDanglingDependency(t *testing.T) {
	records := []snapshot.Record{
		{Name: "x", Size: snapshot.Int64(100), RequiresDist: []string{"left-pad>=1.0"}},
	}

	summaries := analyze(t, records)
	if len(summaries) != 1 {
		t.Fatalf("got %d rows, want 1 (dangling names must not get rows)", len(summaries))
	}

	x := summaries[0]
	if !reflect.DeepEqual(x.DependsOn, []string{"left-pad"}) {
		t.Errorf("DependsOn = %v, want [left-pad]", x.DependsOn)
	}
	if x.TotalSize != 100 {
		t.Errorf("TotalSize = %d, want 100 (dangling dep contributes 0)", x.TotalSize)
	}
	if x.NumRequirements != 1 || x.NumProvidesFor != 0 {
		t.Errorf("counts = (%d, %d), want (1, 0)", x.NumRequirements, x.NumProvidesFor)
	}
}

func TestBuildDiamond(t *testing.T) {
	records := []snapshot.Record{
		{Name: "a", Size: snapshot.Int64(10), RequiresDist: []string{"b", "c"}},
		{Name: "b", Size: snapshot.Int64(20), RequiresDist: []string{"c"}},
		{Name: "c", Size: snapshot.Int64(5)},
	}

	summaries := analyze(t, records)

	a := row(t, summaries, "a")
	if !reflect.DeepEqual(a.DependsOn, []string{"b", "c"}) {
		t.Errorf("DependsOn(a) = %v, want [b c]", a.DependsOn)
	}
	if a.TotalSize != 35 {
		t.Errorf("TotalSize(a) = %d, want 35 (c counted once)", a.TotalSize)
	}

	b := row(t, summaries, "b")
	if b.TotalSize != 25 || b.NumProvidesFor != 1 {
		t.Errorf("b: TotalSize = %d, NumProvidesFor = %d, want 25, 1", b.TotalSize, b.NumProvidesFor)
	}

	c := row(t, summaries, "c")
	if c.NumRequirements != 0 || c.NumProvidesFor != 2 {
		t.Errorf("c: counts = (%d, %d), want (0, 2)", c.NumRequirements, c.NumProvidesFor)
	}
	if c.TotalSize != 5 {
		t.Errorf("TotalSize(c) = %d, want 5", c.TotalSize)
	}
}

func TestBuildZeroRequirements(t *testing.T) {
	summaries := analyze(t, []snapshot.Record{
		{Name: "six", Size: snapshot.Int64(30)},
	})

	s := row(t, summaries, "six")
	if s.DependsOn == nil || len(s.DependsOn) != 0 {
		t.Errorf("DependsOn = %#v, want empty non-nil list", s.DependsOn)
	}
	if s.TotalSize != 30 {
		t.Errorf("TotalSize = %d, want own size 30", s.TotalSize)
	}
}

func TestBuildMissingOwnSize(t *testing.T) {
	records := []snapshot.Record{
		{Name: "x", RequiresDist: []string{"y"}}, // no size record
		{Name: "y", Size: snapshot.Int64(40)},
	}

	summaries := analyze(t, records)
	if got := row(t, summaries, "x").TotalSize; got != 40 {
		t.Errorf("TotalSize(x) = %d, want 40 (unknown own size counts as 0)", got)
	}
}

func TestBuildCycle(t *testing.T) {
	records := []snapshot.Record{
		{Name: "a", Size: snapshot.Int64(10), RequiresDist: []string{"b"}},
		{Name: "b", Size: snapshot.Int64(20), RequiresDist: []string{"a"}},
	}

	summaries := analyze(t, records)

	a := row(t, summaries, "a")
	if !reflect.DeepEqual(a.DependsOn, []string{"a", "b"}) {
		t.Errorf("DependsOn(a) = %v, want [a b] (cycle back to self)", a.DependsOn)
	}
	// Own size plus every closure member, self included: 10 + (10 + 20).
	if a.TotalSize != 40 {
		t.Errorf("TotalSize(a) = %d, want 40", a.TotalSize)
	}
	if a.NumProvidesFor != 2 {
		t.Errorf("NumProvidesFor(a) = %d, want 2", a.NumProvidesFor)
	}
}

func TestBuildSortedByName(t *testing.T) {
	summaries := analyze(t, []snapshot.Record{
		{Name: "zeta"},
		{Name: "alpha"},
		{Name: "mid"},
	})

	var names []string
	for _, s := range summaries {
		names = append(names, s.Name)
	}
	if !reflect.DeepEqual(names, []string{"alpha", "mid", "zeta"}) {
		t.Errorf("row order = %v, want sorted by name", names)
	}
}

func TestBuildSkipsFailedTraversals(t *testing.T) {
	records := []snapshot.Record{{Name: "p"}, {Name: "q"}}
	forward := []reach.Result{
		{Node: "p", Err: fmt.Errorf("boom")},
		{Node: "q"},
	}
	reverse := []reach.Result{{Node: "p"}, {Node: "q"}}

	summaries, skipped, err := Build(records, forward, reverse, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if len(summaries) != 1 || summaries[0].Name != "q" {
		t.Errorf("summaries = %v, want single row for q", summaries)
	}
}

func TestNewSizeIndexDuplicate(t *testing.T) {
	records := []snapshot.Record{
		{Name: "Django", Size: snapshot.Int64(1)},
		{Name: "django", Size: snapshot.Int64(2)},
	}

	if _, err := NewSizeIndex(records); !errors.Is(err, errors.ErrCodeIntegrity) {
		t.Errorf("NewSizeIndex error = %v, want INTEGRITY_ERROR", err)
	}

	// Build with a nil index hits the same gate.
	if _, _, err := Build(records, nil, nil, nil); !errors.Is(err, errors.ErrCodeIntegrity) {
		t.Errorf("Build error = %v, want INTEGRITY_ERROR", err)
	}
}

func TestSizeIndexLookup(t *testing.T) {
	index, err := NewSizeIndex([]snapshot.Record{
		{Name: "Requests", Size: snapshot.Int64(64)},
		{Name: "unsized"},
	})
	if err != nil {
		t.Fatalf("NewSizeIndex: %v", err)
	}

	if got := index.Size("requests"); got != 64 {
		t.Errorf("Size(requests) = %d, want 64 (lookup by normalized name)", got)
	}
	if got := index.Size("unsized"); got != 0 {
		t.Errorf("Size(unsized) = %d, want 0", got)
	}
	if got := index.Size("absent"); got != 0 {
		t.Errorf("Size(absent) = %d, want 0", got)
	}
	if index.Len() != 2 {
		t.Errorf("Len = %d, want 2", index.Len())
	}
}
