// Package pkg provides the core libraries for PyPI dependency graph analysis.
//
// # Overview
//
// The analyzer turns point-in-time snapshots of PyPI package metadata into
// dependency graphs and per-package summary statistics (transitive footprint,
// installed size, reverse impact). The pkg directory is organized into five
// main areas:
//
//  1. Core analysis - [snapshot], [normalize], [depgraph], [reach], [aggregate]
//  2. Orchestration - [pipeline] (select → build → traverse → aggregate)
//  3. Infrastructure - [cache], [store], [config], [errors], [observability]
//  4. Integrations - [integrations] HTTP client core and the [integrations/pypi] registry client
//  5. Analysis products - [export], [report], [communities]
//
// # Architecture
//
// The typical data flow through an analysis run:
//
//	PyPI JSON API / metadata directory
//	         ↓
//	    [snapshot] package (JSONL records, latest-version selection)
//	         ↓
//	    [normalize] + [depgraph] packages (requirement strings → graph + transpose)
//	         ↓
//	    [reach] package (per-node transitive closures)
//	         ↓
//	    [aggregate] package (summary table join)
//	         ↓
//	    JSONL/CSV/DOT/SVG output
//
// # Quick Start
//
// Load a snapshot and compute the summary table:
//
//	import (
//	    "context"
//	    "github.com/libklein/pypi-dependency-analysis/pkg/pipeline"
//	    "github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
//	)
//
//	// 1. Load snapshot records
//	records, skipped, _ := snapshot.ReadFile("snapshot.jsonl")
//
//	// 2. Run the analysis pipeline (nil cache and logger use safe defaults)
//	runner := pipeline.NewRunner(nil, nil, nil)
//	result, _ := runner.Execute(context.Background(), records, pipeline.Options{})
//
//	// 3. Inspect the summary rows
//	for _, row := range result.Summaries {
//	    fmt.Println(row.Name, row.TotalSize, row.NumProvidesFor)
//	}
//
// # Main Packages
//
// ## Core Analysis
//
// [snapshot] - Snapshot records and their JSONL encoding. A record is one
// (package, version) observation with size, upload time, and raw requirement
// strings. SelectLatest reduces a snapshot to the newest record per package
// by upload time.
//
// [normalize] - Requirement-string parsing. Extracts the leading package name
// from PEP 508 requirement strings (version pins, extras, and environment
// markers are ignored) and canonicalizes names for matching.
//
// [depgraph] - Directed dependency graph over normalized names with O(1)
// degree lookups and an exact structural transpose via Reverse. Duplicate
// edges collapse, dangling targets are materialized as zero-out-degree nodes.
//
// [reach] - Transitive closure computation. Per-node BFS worklist by default,
// optional strongly-connected-component collapsing for cyclic graphs, both
// with bounded parallelism. [reach.Querier] adds an LRU-cached lookup layer
// for interactive queries.
//
// [aggregate] - Joins forward and reverse closures with package sizes into
// one Summary row per package: the transitive dependency list, total
// installed size, and dependent counts. Fails loudly on duplicate names.
//
// ## Orchestration
//
// [pipeline] - Complete analysis pipeline used by the CLI. Stages: select
// (latest versions) → build (graph + transpose) → traverse (closures, both
// directions in parallel) → aggregate (summary table). Traverse and aggregate
// results are cached against a content hash of the selected snapshot.
//
// ## Infrastructure
//
// [cache] - Byte-oriented Cache interface with TTL semantics and three
// implementations: FileCache (CLI), RedisCache (shared deployments), and
// NullCache (caching disabled). A Keyer derives namespaced keys from
// snapshot hashes.
//
// [store] - Archival of completed runs in MongoDB. A Run document captures
// the summary table together with the options and stats that produced it.
//
// [config] - TOML configuration file with environment overrides (REDIS_URL,
// MONGO_URI) following XDG directory conventions.
//
// [errors] - Coded errors for classification across package boundaries
// (not-found vs. integrity vs. network) without string matching.
//
// [observability] - Pluggable hooks for pipeline stage timing, cache traffic,
// and HTTP requests. The zero state is no-op; binaries register real hooks.
//
// [httputil] - Retry with exponential backoff for transient registry
// failures.
//
// ## External Integrations
//
// [integrations] - Shared HTTP client core: response caching, rate limiting,
// conditional requests, and User-Agent handling for registry APIs.
//
// [integrations/pypi] - PyPI JSON API client built on the shared core.
// Fetches package metadata, crawls dependency closures breadth-first, and
// scans local metadata directories into snapshot records.
//
// ## Analysis Products
//
// [export] - Output encoders: JSONL and CSV summary tables, node-link JSON,
// Graphviz DOT, and in-process SVG rendering. Neighborhood extracts a
// depth-bounded subgraph around a root for focused exports.
//
// [report] - Reporting primitives over the summary table: top-N rankings,
// histogram distributions with descriptive statistics, and scatter point
// extraction for size-vs-dependency plots.
//
// [communities] - Louvain community detection over the dependency graph,
// for discovering ecosystem clusters (web stacks, numeric stacks).
//
// # Common Workflows
//
// Crawl PyPI into a snapshot file:
//
//	backend, _ := cache.NewFileCache(dir)
//	client := pypi.NewClient(backend, 24*time.Hour)
//	records, _ := client.Crawl(ctx, []string{"flask"}, pypi.CrawlOptions{MaxDepth: 3})
//	_ = snapshot.WriteFile("snapshot.jsonl", records)
//
// Query reachability interactively:
//
//	q, _ := reach.NewQuerier(result.Graph, 0)
//	for _, name := range q.Reachable("flask") {
//	    fmt.Println(name)
//	}
//
// Export a dependency neighborhood as DOT:
//
//	sub, _ := export.Neighborhood(result.Graph, "flask", 2, false)
//	fmt.Print(export.ToDOT(sub, export.DOTOptions{Root: "flask"}))
//
// Detect ecosystem communities:
//
//	res := communities.Detect(result.Graph, communities.Options{})
//	for _, c := range res.Communities {
//	    fmt.Println(c.ID, len(c.Members))
//	}
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/reach/...              # Specific package
//	go test -run Example                 # Examples only
//	go test -tags integration ./pkg/...  # Include integration tests
//
// [snapshot]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/snapshot
// [normalize]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/normalize
// [depgraph]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/depgraph
// [reach]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/reach
// [reach.Querier]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/reach#Querier
// [aggregate]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/aggregate
// [pipeline]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/cache
// [store]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/store
// [config]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/config
// [errors]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/errors
// [observability]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/observability
// [httputil]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/httputil
// [integrations]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/integrations
// [integrations/pypi]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/integrations/pypi
// [export]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/export
// [report]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/report
// [communities]: https://pkg.go.dev/github.com/libklein/pypi-dependency-analysis/pkg/communities
package pkg
