// Package pypi provides an HTTP client for the Python Package Index API.
//
// # Overview
//
// This package fetches package metadata from PyPI (https://pypi.org), the
// official repository for Python packages, and turns it into snapshot
// records for dependency analysis.
//
// # Usage
//
//	client := pypi.NewClient(backend, 24*time.Hour) // cache backend + TTL
//
//	pkg, err := client.FetchPackage(ctx, "fastapi", false) // false = use cache
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(pkg.Name, pkg.Version)
//	fmt.Println("Dependencies:", pkg.Dependencies)
//
// # PackageInfo
//
// [Client.FetchPackage] returns a [PackageInfo] containing:
//
//   - Name, Version: package identity as reported by the API
//   - Size, UploadTime: taken from the preferred distribution file (wheel
//     if available, otherwise the first listed)
//   - RequiresDist: raw requirement strings for snapshot export
//   - Dependencies: normalized runtime dependencies (extras/dev filtered out)
//
// # Crawling
//
// [Client.Crawl] walks the transitive runtime dependencies of a set of root
// packages with a bounded worker pool, fetching each package once and
// returning the collected snapshot records. Fetch failures below the roots
// are logged and skipped.
//
// # Scanning
//
// [ScanDir] converts a directory of previously saved API responses into
// snapshot records without touching the network.
//
// # Caching
//
// Responses are cached to reduce load on PyPI and speed up repeated
// requests. The backend and TTL are set when creating the client. Pass
// refresh=true to [Client.FetchPackage] to bypass the cache.
//
// # Dependency Filtering
//
// Dependencies are extracted from requires_dist, filtering out:
//
//   - Optional extras (extra markers)
//   - Development dependencies (dev markers)
//   - Test dependencies (test markers)
//
// Package names are normalized following PEP 503.
package pypi
