package pypi

import (
	"context"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/libklein/pypi-dependency-analysis/pkg/normalize"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

const crawlWorkers = 20

// Default crawl limits.
const (
	DefaultMaxDepth = 50
	DefaultMaxNodes = 5000
)

// CrawlOptions configures transitive metadata crawling.
type CrawlOptions struct {
	MaxDepth int                  // Maximum dependency depth to follow (default: 50)
	MaxNodes int                  // Maximum packages to fetch (default: 5000)
	Refresh  bool                 // Bypass HTTP cache for fresh data
	Logger   func(string, ...any) // Progress/error callback (optional)
}

// WithDefaults returns a copy of CrawlOptions with zero values replaced by defaults.
func (o CrawlOptions) WithDefaults() CrawlOptions {
	opts := o
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if opts.MaxNodes <= 0 {
		opts.MaxNodes = DefaultMaxNodes
	}
	if opts.Logger == nil {
		opts.Logger = func(string, ...any) {}
	}
	return opts
}

// Crawl fetches the given root packages and their transitive runtime
// dependencies, returning one snapshot record per successfully fetched
// package, sorted by name. Each package is fetched at most once.
//
// A fetch failure on a root aborts the crawl; failures deeper in the tree
// are logged and skipped so one yanked package cannot sink a whole run.
func (c *Client) Crawl(ctx context.Context, roots []string, opts CrawlOptions) ([]snapshot.Record, error) {
	ctx, cancel := context.WithCancel(ctx)
	cr := &crawler{
		ctx:     ctx,
		cancel:  cancel,
		opts:    opts.WithDefaults(),
		fetch:   c.FetchPackage,
		roots:   make(map[string]bool, len(roots)),
		visited: make(map[string]bool),
		jobs:    make(chan crawlJob, crawlWorkers*2),
		results: make(chan crawlResult, crawlWorkers*2),
		done:    make(chan struct{}),
	}
	return cr.run(roots)
}

type crawler struct {
	ctx    context.Context
	cancel context.CancelFunc
	opts   CrawlOptions
	fetch  func(context.Context, string, bool) (*PackageInfo, error)

	roots   map[string]bool
	records []snapshot.Record

	jobs    chan crawlJob
	results chan crawlResult
	done    chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	visited map[string]bool
	pending int64
	fetched int32
}

type crawlJob struct {
	name  string
	depth int
}

type crawlResult struct {
	crawlJob
	info *PackageInfo
	err  error
}

func (c *crawler) run(roots []string) ([]snapshot.Record, error) {
	for range crawlWorkers {
		c.wg.Add(1)
		go c.worker()
	}

	// Roots are normalized up front so the visited set, which otherwise
	// only ever sees normalized dependency names, stays consistent.
	enqueued := 0
	for _, root := range roots {
		name := normalize.Name(root)
		c.roots[name] = true
		if c.enqueue(crawlJob{name: name}) {
			enqueued++
		}
	}

	var err error
	if enqueued > 0 {
		err = c.collect()
	}
	c.shutdown()
	if err != nil {
		return nil, err
	}

	slices.SortFunc(c.records, func(a, b snapshot.Record) int {
		return strings.Compare(a.Name, b.Name)
	})
	return c.records, nil
}

// shutdown stops the worker pool. The jobs and results channels are never
// closed; enqueue spawns sender goroutines that may still be in flight, and
// a send on a closed channel would panic. Everyone parks on done instead.
func (c *crawler) shutdown() {
	c.cancel()
	close(c.done)
	c.wg.Wait()
}

func (c *crawler) worker() {
	defer c.wg.Done()
	for {
		select {
		case <-c.done:
			return
		case j := <-c.jobs:
			if c.ctx.Err() != nil {
				atomic.AddInt64(&c.pending, -1)
				continue
			}
			info, err := c.fetch(c.ctx, j.name, c.opts.Refresh)
			select {
			case c.results <- crawlResult{crawlJob: j, info: info, err: err}:
			case <-c.done:
				return
			}
		}
	}
}

func (c *crawler) enqueue(j crawlJob) bool {
	c.mu.Lock()
	if c.visited[j.name] {
		c.mu.Unlock()
		return false
	}
	c.visited[j.name] = true
	c.mu.Unlock()

	atomic.AddInt64(&c.pending, 1)

	go func() {
		select {
		case c.jobs <- j:
		case <-c.done:
		}
	}()
	return true
}

func (c *crawler) collect() error {
	for {
		select {
		case r := <-c.results:
			if err := c.handle(r); err != nil {
				return err
			}
			if atomic.AddInt64(&c.pending, -1) == 0 {
				return nil
			}
		case <-c.ctx.Done():
			return c.ctx.Err()
		}
	}
}

func (c *crawler) handle(r crawlResult) error {
	if r.err != nil {
		if c.roots[r.name] {
			return r.err
		}
		c.opts.Logger("fetch failed: %s: %v", r.name, r.err)
		return nil
	}

	c.mu.Lock()
	c.records = append(c.records, r.info.Record())
	c.mu.Unlock()
	atomic.AddInt32(&c.fetched, 1)

	c.enqueueDeps(r)
	return nil
}

func (c *crawler) enqueueDeps(r crawlResult) {
	if r.depth >= c.opts.MaxDepth || len(r.info.Dependencies) == 0 {
		return
	}

	next := r.depth + 1
	count := atomic.LoadInt32(&c.fetched)

	for _, dep := range r.info.Dependencies {
		if int(count) < c.opts.MaxNodes {
			c.enqueue(crawlJob{name: dep, depth: next})
		}
	}
}
