package pypi

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/libklein/pypi-dependency-analysis/pkg/cache"
	pkgerrors "github.com/libklein/pypi-dependency-analysis/pkg/errors"
	"github.com/libklein/pypi-dependency-analysis/pkg/integrations"
	"github.com/libklein/pypi-dependency-analysis/pkg/normalize"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

var (
	markerRE = regexp.MustCompile(`;\s*(.+)`)
	skipRE   = regexp.MustCompile(`extra|dev|test`)
)

// PackageInfo holds metadata for a Python package from PyPI.
//
// Name and RequiresDist are reported exactly as the API returns them;
// Dependencies are normalized following PEP 503 (lowercase, separator runs
// collapsed to hyphens) with extras, dev, and test requirements excluded.
//
// Zero values: all string fields are empty, slices are nil, Size is nil when
// the release lists no distribution files.
// This struct is safe for concurrent reads after construction.
type PackageInfo struct {
	Name         string    // Package name as reported by PyPI (e.g., "Flask")
	Version      string    // Latest version string (e.g., "2.0.0")
	Size         *int64    // Size in bytes of the preferred distribution, nil if unknown
	UploadTime   time.Time // Upload time of the preferred distribution, zero if unknown
	RequiresDist []string  // Raw requirement strings, unmodified
	Dependencies []string  // Normalized runtime dependency names, markers filtered
	Summary      string    // Short package description (may be empty)
}

// Record converts the package info to a snapshot record. Names and
// requirement strings stay raw; normalization happens downstream when the
// snapshot is turned into an edge list.
func (p *PackageInfo) Record() snapshot.Record {
	return snapshot.Record{
		Name:         p.Name,
		Version:      p.Version,
		UploadTime:   p.UploadTime,
		Size:         p.Size,
		RequiresDist: p.RequiresDist,
	}
}

// Client provides access to the PyPI package registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates a PyPI client with the given cache backend.
//
// Parameters:
//   - backend: cache backend for HTTP response caching (nil disables caching)
//   - cacheTTL: how long responses are cached (typical: 1-24 hours)
//
// The returned Client is safe for concurrent use.
func NewClient(backend cache.Cache, cacheTTL time.Duration) *Client {
	return &Client{
		Client:  integrations.NewClient(backend, "pypi:", cacheTTL, nil),
		baseURL: "https://pypi.org/pypi",
	}
}

// FetchPackage retrieves metadata for a Python package from PyPI.
//
// The pkg parameter is normalized automatically (case-insensitive,
// separators collapse to hyphens) and validated before any request, so a
// malformed name never reaches the URL path.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
// If refresh is false, cached data is returned if available and not expired.
//
// Returns:
//   - PackageInfo populated with metadata on success
//   - An INVALID_PACKAGE error if the name fails validation
//   - [integrations.ErrNotFound] if the package doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//   - Other errors for JSON decoding failures
//
// The returned PackageInfo pointer is never nil if err is nil.
// This method is safe for concurrent use.
func (c *Client) FetchPackage(ctx context.Context, pkg string, refresh bool) (*PackageInfo, error) {
	pkg = normalize.Name(pkg)
	if err := pkgerrors.ValidatePythonPackageName(pkg); err != nil {
		return nil, err
	}
	key := pkg

	var info PackageInfo
	err := c.Cached(ctx, key, refresh, &info, func() error {
		return c.fetch(ctx, pkg, &info)
	})
	if err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *Client) fetch(ctx context.Context, pkg string, info *PackageInfo) error {
	var data apiResponse
	if err := c.Get(ctx, fmt.Sprintf("%s/%s/json", c.baseURL, pkg), &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: pypi package %s", err, pkg)
		}
		return err
	}

	*info = PackageInfo{
		Name:         data.Info.Name,
		Version:      data.Info.Version,
		Summary:      data.Info.Summary,
		RequiresDist: data.Info.RequiresDist,
		Dependencies: extractDeps(data.Info.RequiresDist),
	}
	if dist := selectDistribution(data.Urls); dist != nil {
		size := dist.Size
		info.Size = &size
		info.UploadTime = dist.UploadTime
	}
	return nil
}

// extractDeps pulls normalized runtime dependency names out of raw
// requirement strings. Requirements guarded by extra, dev, or test
// environment markers are dropped so crawls stay on the runtime closure.
func extractDeps(requires []string) []string {
	seen := make(map[string]bool)
	var deps []string
	for _, req := range requires {
		if m := markerRE.FindStringSubmatch(req); len(m) > 1 && skipRE.MatchString(m[1]) {
			continue
		}
		name, ok := normalize.ExtractName(req)
		if !ok {
			continue
		}
		dep := normalize.Name(name)
		if !seen[dep] {
			seen[dep] = true
			deps = append(deps, dep)
		}
	}
	return deps
}

// selectDistribution picks the release file whose size and upload time
// represent the package: the first wheel if one exists, otherwise the first
// file listed. Returns nil when the release has no files.
func selectDistribution(urls []apiURL) *apiURL {
	for i := range urls {
		if urls[i].PackageType == "bdist_wheel" {
			return &urls[i]
		}
	}
	if len(urls) > 0 {
		return &urls[0]
	}
	return nil
}

type apiResponse struct {
	Info apiInfo  `json:"info"`
	Urls []apiURL `json:"urls"`
}

type apiInfo struct {
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Summary      string   `json:"summary"`
	RequiresDist []string `json:"requires_dist"`
}

type apiURL struct {
	Filename    string    `json:"filename"`
	PackageType string    `json:"packagetype"`
	Size        int64     `json:"size"`
	UploadTime  time.Time `json:"upload_time_iso_8601"`
}
