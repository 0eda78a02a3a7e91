package cli

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/libklein/pypi-dependency-analysis/pkg/aggregate"
	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
	"github.com/libklein/pypi-dependency-analysis/pkg/export"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// isolate points every XDG path and deployment variable at scratch space so
// command runs cannot touch the developer's real config or cache.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("REDIS_URL", "")
	t.Setenv("MONGO_URI", "")
}

// runRoot executes the root command with the given arguments.
func runRoot(t *testing.T, args ...string) error {
	t.Helper()
	c := New(io.Discard, log.WarnLevel)
	root := c.RootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	return root.Execute()
}

func sizePtr(n int64) *int64 { return &n }

// writeSnapshot writes a three-package fixture: flask depends on click and
// on werkzeug, which has no metadata record of its own.
func writeSnapshot(t *testing.T) string {
	t.Helper()
	records := []snapshot.Record{
		{Name: "Flask", Version: "2.0.0", Size: sizePtr(100), RequiresDist: []string{"click>=8.0", "Werkzeug>=2.3"}},
		{Name: "click", Version: "8.1.0", Size: sizePtr(40)},
	}
	path := filepath.Join(t.TempDir(), "snapshot.jsonl")
	if err := snapshot.WriteFile(path, records); err != nil {
		t.Fatalf("writing fixture snapshot: %v", err)
	}
	return path
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, log.InfoLevel).RootCommand()

	if root.Use != "pypigraph" {
		t.Errorf("root.Use = %q, want %q", root.Use, "pypigraph")
	}

	got := make(map[string]bool)
	for _, cmd := range root.Commands() {
		got[cmd.Name()] = true
	}
	for _, name := range []string{"fetch", "analyze", "report", "graph", "communities", "cache", "completion"} {
		if !got[name] {
			t.Errorf("root command is missing subcommand %q", name)
		}
	}
}

func TestAnalyzeCommandCSV(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)
	out := filepath.Join(t.TempDir(), "summary.csv")

	err := runRoot(t, "analyze", snap, "--no-cache", "--format", "csv", "-o", out)
	if err != nil {
		t.Fatalf("analyze error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	want := []string{
		"name,total_size,num_requirements,num_provides_for,depends_on",
		"click,40,0,1,",
		"flask,140,2,0,click;werkzeug",
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(want) {
		t.Fatalf("got %d lines, want %d:\n%s", len(lines), len(want), data)
	}
	for i, line := range want {
		if lines[i] != line {
			t.Errorf("line %d = %q, want %q", i, lines[i], line)
		}
	}
}

func TestAnalyzeCommandJSONL(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)
	out := filepath.Join(t.TempDir(), "summary.jsonl")

	if err := runRoot(t, "analyze", snap, "--no-cache", "-o", out); err != nil {
		t.Fatalf("analyze error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d rows, want 2", len(lines))
	}

	var flask aggregate.Summary
	if err := json.Unmarshal([]byte(lines[1]), &flask); err != nil {
		t.Fatalf("unmarshaling flask row: %v", err)
	}
	if flask.Name != "flask" || flask.TotalSize != 140 {
		t.Errorf("flask row = %+v, want name=flask total_size=140", flask)
	}
	if len(flask.DependsOn) != 2 || flask.DependsOn[0] != "click" || flask.DependsOn[1] != "werkzeug" {
		t.Errorf("flask.DependsOn = %v, want [click werkzeug]", flask.DependsOn)
	}
}

func TestAnalyzeCommandUsesDiskCache(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)
	out := filepath.Join(t.TempDir(), "summary.jsonl")

	if err := runRoot(t, "analyze", snap, "-o", out); err != nil {
		t.Fatalf("first analyze error: %v", err)
	}

	dir, err := cacheDir()
	if err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		t.Fatalf("analyze should populate the disk cache at %s", dir)
	}

	// Second run is served from cache and must produce identical output.
	first, _ := os.ReadFile(out)
	if err := runRoot(t, "analyze", snap, "-o", out); err != nil {
		t.Fatalf("second analyze error: %v", err)
	}
	second, _ := os.ReadFile(out)
	if string(first) != string(second) {
		t.Error("cached analyze run should produce identical output")
	}
}

func TestAnalyzeCommandInvalidFormat(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)

	err := runRoot(t, "analyze", snap, "--no-cache", "--format", "yaml")
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("want invalid format error, got %v", err)
	}
}

func TestAnalyzeCommandInvalidStrategy(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)

	err := runRoot(t, "analyze", snap, "--no-cache", "--strategy", "dfs")
	if err == nil || !strings.Contains(err.Error(), "invalid strategy") {
		t.Errorf("want invalid strategy error, got %v", err)
	}
}

func TestAnalyzeCommandMissingSnapshot(t *testing.T) {
	isolate(t)

	err := runRoot(t, "analyze", filepath.Join(t.TempDir(), "missing.jsonl"), "--no-cache")
	if !errors.Is(err, errors.ErrCodeSnapshotNotFound) {
		t.Errorf("want SNAPSHOT_NOT_FOUND, got %v", err)
	}
}

func TestGraphExportCommandJSON(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)
	out := filepath.Join(t.TempDir(), "graph.json")

	err := runRoot(t, "graph", "export", snap, "--no-cache", "--format", "json", "-o", out)
	if err != nil {
		t.Fatalf("graph export error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}

	var doc export.GraphDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshaling graph doc: %v", err)
	}
	wantNodes := []string{"click", "flask", "werkzeug"}
	if len(doc.Nodes) != len(wantNodes) {
		t.Fatalf("nodes = %v, want %v", doc.Nodes, wantNodes)
	}
	for i, name := range wantNodes {
		if doc.Nodes[i] != name {
			t.Errorf("node %d = %q, want %q", i, doc.Nodes[i], name)
		}
	}
	if len(doc.Edges) != 2 {
		t.Errorf("got %d edges, want 2", len(doc.Edges))
	}
}

func TestGraphExportCommandDOTNeighborhood(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)
	out := filepath.Join(t.TempDir(), "graph.dot")

	err := runRoot(t, "graph", "export", snap, "--no-cache",
		"--root", "Flask", "--depth", "1", "-o", out)
	if err != nil {
		t.Fatalf("graph export error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	dot := string(data)

	if !strings.Contains(dot, "digraph deps {") {
		t.Error("DOT output should contain the digraph header")
	}
	if !strings.Contains(dot, `"flask" -> "click"`) {
		t.Error("DOT output should contain the flask -> click edge")
	}
}

func TestGraphExportCommandInvalidFormat(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)

	err := runRoot(t, "graph", "export", snap, "--no-cache", "--format", "gif")
	if err == nil || !strings.Contains(err.Error(), "invalid format") {
		t.Errorf("want invalid format error, got %v", err)
	}
}

func TestGraphReachCommand(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)

	// Mixed-case argument must resolve through name normalization.
	if err := runRoot(t, "graph", "reach", snap, "--no-cache", "Flask"); err != nil {
		t.Fatalf("graph reach error: %v", err)
	}

	// A package outside the graph warns instead of failing.
	if err := runRoot(t, "graph", "reach", snap, "--no-cache", "numpy"); err != nil {
		t.Fatalf("graph reach on unknown package error: %v", err)
	}
}

func TestGraphInfoCommand(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)

	if err := runRoot(t, "graph", "info", snap, "--no-cache"); err != nil {
		t.Fatalf("graph info error: %v", err)
	}
}

func TestReportTopCommand(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)

	if err := runRoot(t, "report", "top", snap, "--no-cache", "-n", "5"); err != nil {
		t.Fatalf("report top error: %v", err)
	}

	err := runRoot(t, "report", "top", snap, "--no-cache", "--metric", "popularity")
	if err == nil || !strings.Contains(err.Error(), "invalid metric") {
		t.Errorf("want invalid metric error, got %v", err)
	}
}

func TestReportScatterCommand(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)
	out := filepath.Join(t.TempDir(), "scatter.csv")

	err := runRoot(t, "report", "scatter", snap, "--no-cache", "-o", out)
	if err != nil {
		t.Fatalf("report scatter error: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "name,num_requirements,total_size" {
		t.Errorf("header = %q, want default axes", lines[0])
	}
	if len(lines) != 3 {
		t.Errorf("got %d lines, want header plus two rows", len(lines))
	}
}

func TestCommunitiesCommand(t *testing.T) {
	isolate(t)
	snap := writeSnapshot(t)

	if err := runRoot(t, "communities", snap, "--no-cache", "--seed", "7"); err != nil {
		t.Fatalf("communities error: %v", err)
	}
}

func TestFetchScanCommand(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	meta := `{"info":{"name":"Flask","version":"2.0.0","requires_dist":["click>=8.0"]},` +
		`"urls":[{"filename":"flask.whl","packagetype":"bdist_wheel","size":100,` +
		`"upload_time_iso_8601":"2023-01-01T00:00:00Z"}]}`
	if err := os.WriteFile(filepath.Join(dir, "flask.json"), []byte(meta), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(t.TempDir(), "scan.jsonl")
	if err := runRoot(t, "fetch", "scan", dir, "-o", out); err != nil {
		t.Fatalf("fetch scan error: %v", err)
	}

	records, skipped, err := snapshot.ReadFile(out)
	if err != nil {
		t.Fatalf("reading scan output: %v", err)
	}
	if skipped != 0 {
		t.Errorf("scan output should be fully readable, %d lines skipped", skipped)
	}
	if len(records) != 1 || records[0].Name != "Flask" {
		t.Errorf("records = %+v, want the single flask record", records)
	}
	if records[0].SizeValue() != 100 {
		t.Errorf("record size = %d, want 100", records[0].SizeValue())
	}
}

func TestFetchScanCommandMissingDir(t *testing.T) {
	isolate(t)

	err := runRoot(t, "fetch", "scan", filepath.Join(t.TempDir(), "nope"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("want FILE_NOT_FOUND, got %v", err)
	}
}
