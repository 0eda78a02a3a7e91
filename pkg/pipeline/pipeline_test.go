package pipeline

import (
	"context"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/libklein/pypi-dependency-analysis/pkg/cache"
	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
	"github.com/libklein/pypi-dependency-analysis/pkg/reach"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

func quietRunner(c cache.Cache) *Runner {
	return NewRunner(c, nil, log.NewWithOptions(io.Discard, log.Options{}))
}

// testRecords describes a small ecosystem with one superseded release:
// pandas -> {numpy, python-dateutil}, python-dateutil -> six.
func testRecords() []snapshot.Record {
	t0 := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	return []snapshot.Record{
		{Name: "pandas", Version: "1.9.0", UploadTime: t0, Size: snapshot.Int64(100), RequiresDist: []string{"numpy>=1.20"}},
		{Name: "pandas", Version: "2.0.0", UploadTime: t0.AddDate(0, 6, 0), Size: snapshot.Int64(200), RequiresDist: []string{"numpy>=1.20", "python-dateutil>=2.8"}},
		{Name: "numpy", Version: "1.24.0", UploadTime: t0, Size: snapshot.Int64(50)},
		{Name: "python-dateutil", Version: "2.8.2", UploadTime: t0, Size: snapshot.Int64(30), RequiresDist: []string{"six>=1.5"}},
		{Name: "six", Version: "1.16.0", UploadTime: t0, Size: snapshot.Int64(10)},
	}
}

func TestOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", Options{}, false},
		{"bfs", Options{Strategy: reach.StrategyBFS}, false},
		{"scc", Options{Strategy: reach.StrategySCC}, false},
		{"unknown strategy", Options{Strategy: "dfs"}, true},
		{"negative workers", Options{Workers: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.ValidateAndSetDefaults()
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateAndSetDefaults() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptionsValidateAndSetDefaultsIdempotent(t *testing.T) {
	opts := Options{}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("first validation failed: %v", err)
	}
	if opts.Strategy != DefaultStrategy {
		t.Errorf("Strategy should be %s, got %s", DefaultStrategy, opts.Strategy)
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("second validation failed: %v", err)
	}
	if opts.Strategy != DefaultStrategy {
		t.Error("Strategy changed on second call")
	}
}

func TestExecute(t *testing.T) {
	runner := quietRunner(nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), testRecords(), Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID should be set")
	}
	if result.SnapshotHash == "" {
		t.Error("SnapshotHash should be set")
	}
	if result.Stats.Packages != 4 || result.Stats.Superseded != 1 {
		t.Errorf("Packages = %d, Superseded = %d, want 4, 1",
			result.Stats.Packages, result.Stats.Superseded)
	}
	if result.Stats.NodeCount != 4 || result.Stats.EdgeCount != 3 {
		t.Errorf("graph = %d nodes / %d edges, want 4 / 3",
			result.Stats.NodeCount, result.Stats.EdgeCount)
	}

	var names []string
	for _, s := range result.Summaries {
		names = append(names, s.Name)
	}
	want := []string{"numpy", "pandas", "python-dateutil", "six"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("summary rows = %v, want %v", names, want)
	}

	pandas := result.Summaries[1]
	if !reflect.DeepEqual(pandas.DependsOn, []string{"numpy", "python-dateutil", "six"}) {
		t.Errorf("DependsOn(pandas) = %v", pandas.DependsOn)
	}
	// Only the latest pandas release counts: 200 + 50 + 30 + 10.
	if pandas.TotalSize != 290 {
		t.Errorf("TotalSize(pandas) = %d, want 290", pandas.TotalSize)
	}

	six := result.Summaries[3]
	if six.NumProvidesFor != 2 {
		t.Errorf("NumProvidesFor(six) = %d, want 2 (python-dateutil and pandas)", six.NumProvidesFor)
	}
}

func TestExecuteCaching(t *testing.T) {
	backend, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	runner := quietRunner(backend)
	defer runner.Close()

	first, err := runner.Execute(context.Background(), testRecords(), Options{})
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.SummaryHit || first.CacheInfo.ForwardHit || first.CacheInfo.ReverseHit {
		t.Error("first run should not hit any cache")
	}

	second, err := runner.Execute(context.Background(), testRecords(), Options{})
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.SummaryHit {
		t.Error("second run should hit the summary cache")
	}
	if !reflect.DeepEqual(first.Summaries, second.Summaries) {
		t.Error("cached summaries differ from computed ones")
	}

	// With the summary entry gone, the traversal caches take over.
	keyer := cache.NewDefaultKeyer()
	if err := backend.Delete(context.Background(), keyer.SummaryKey(first.SnapshotHash)); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	third, err := runner.Execute(context.Background(), testRecords(), Options{})
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.CacheInfo.SummaryHit {
		t.Error("third run should miss the summary cache")
	}
	if !third.CacheInfo.ForwardHit || !third.CacheInfo.ReverseHit {
		t.Error("third run should hit both traversal caches")
	}
	if !reflect.DeepEqual(first.Summaries, third.Summaries) {
		t.Error("summaries rebuilt from cached closures differ")
	}

	fourth, err := runner.Execute(context.Background(), testRecords(), Options{Refresh: true})
	if err != nil {
		t.Fatalf("fourth Execute: %v", err)
	}
	if fourth.CacheInfo.SummaryHit || fourth.CacheInfo.ForwardHit || fourth.CacheInfo.ReverseHit {
		t.Error("refresh should bypass all caches")
	}
	if !reflect.DeepEqual(first.Summaries, fourth.Summaries) {
		t.Error("refreshed summaries differ")
	}
}

func TestExecuteStrategiesAgree(t *testing.T) {
	// Add a cycle so the strategies have something to disagree about.
	records := append(testRecords(),
		snapshot.Record{Name: "ring-a", Version: "1.0", Size: snapshot.Int64(5), RequiresDist: []string{"ring-b"}},
		snapshot.Record{Name: "ring-b", Version: "1.0", Size: snapshot.Int64(7), RequiresDist: []string{"ring-a"}},
	)

	runner := quietRunner(nil)
	defer runner.Close()

	bfs, err := runner.Execute(context.Background(), records, Options{Strategy: reach.StrategyBFS})
	if err != nil {
		t.Fatalf("bfs Execute: %v", err)
	}
	scc, err := runner.Execute(context.Background(), records, Options{Strategy: reach.StrategySCC})
	if err != nil {
		t.Fatalf("scc Execute: %v", err)
	}

	if !reflect.DeepEqual(bfs.Summaries, scc.Summaries) {
		t.Error("summary tables differ between traversal strategies")
	}
}

func TestExecuteDuplicateRecord(t *testing.T) {
	records := []snapshot.Record{
		{Name: "requests", Version: "2.28.0"},
		{Name: "requests", Version: "2.28.0"},
	}

	runner := quietRunner(nil)
	defer runner.Close()

	_, err := runner.Execute(context.Background(), records, Options{})
	if !errors.Is(err, errors.ErrCodeDuplicateRecord) {
		t.Errorf("Execute error = %v, want DUPLICATE_RECORD", err)
	}
}

func TestExecuteEmptySnapshot(t *testing.T) {
	runner := quietRunner(nil)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), nil, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(result.Summaries) != 0 {
		t.Errorf("got %d summaries for empty snapshot, want 0", len(result.Summaries))
	}
}

func TestSnapshotHashStableUnderOrder(t *testing.T) {
	records := testRecords()
	reversed := make([]snapshot.Record, len(records))
	for i, rec := range records {
		reversed[len(records)-1-i] = rec
	}

	runner := quietRunner(nil)
	defer runner.Close()

	a, err := runner.Execute(context.Background(), records, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	b, err := runner.Execute(context.Background(), reversed, Options{})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if a.SnapshotHash != b.SnapshotHash {
		t.Errorf("snapshot hash depends on input order: %s vs %s", a.SnapshotHash, b.SnapshotHash)
	}
}

func TestEncodeDecodeResults(t *testing.T) {
	results := []reach.Result{
		{Node: "a", Reachable: []string{"b", "c"}},
		{Node: "b"},
	}

	data, ok := encodeResults(results)
	if !ok {
		t.Fatal("encodeResults failed")
	}
	decoded, ok := decodeResults(data)
	if !ok {
		t.Fatal("decodeResults failed")
	}
	if !reflect.DeepEqual(results, decoded) {
		t.Errorf("roundtrip = %v, want %v", decoded, results)
	}

	failed := []reach.Result{{Node: "a", Err: fmt.Errorf("boom")}}
	if _, ok := encodeResults(failed); ok {
		t.Error("closures with failed nodes must not be cached")
	}
}
