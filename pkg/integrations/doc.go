// Package integrations provides HTTP clients for package registry APIs.
//
// # Overview
//
// This package contains the low-level client infrastructure for fetching
// package metadata from registries. Each registry has its own subpackage;
// currently only [pypi] is implemented.
//
// # Client Pattern
//
// Registry clients follow a consistent pattern:
//
//	client := pypi.NewClient(backend, 24*time.Hour)  // cache backend + TTL
//	pkg, err := client.FetchPackage(ctx, "fastapi", false)  // false = use cache
//
// Clients handle:
//   - HTTP requests with retry and rate limiting
//   - Response caching via a [cache.Cache] backend (file, Redis, or none)
//   - API-specific parsing and normalization
//
// # Shared Infrastructure
//
// The [Client] type provides the shared HTTP functionality: GET with JSON
// decoding, default headers, retry with backoff on transient failures, and
// a Cached helper that stores fetch results under a namespaced key.
//
// # Adding a New Registry
//
// To add support for a new package registry:
//
//  1. Create a subpackage: pkg/integrations/<registry>/
//  2. Define response structs matching the API schema
//  3. Implement a Client with a FetchPackage method
//  4. Embed [Client] via [NewClient] for HTTP with caching
//
// [pypi]: github.com/libklein/pypi-dependency-analysis/pkg/integrations/pypi
// [cache.Cache]: github.com/libklein/pypi-dependency-analysis/pkg/cache.Cache
package integrations
