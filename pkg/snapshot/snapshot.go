// Package snapshot defines the columnar package-metadata snapshot that the
// analysis pipeline consumes, together with codecs for reading and writing it.
//
// A snapshot is a point-in-time export of a package index: one record per
// released package version, carrying the declared requirements and release
// metadata. Snapshots are stored as JSON Lines so they can be streamed,
// diffed, and produced by external warehouse exports without coordination.
//
// The pipeline never consumes raw snapshots directly; [SelectLatest] first
// reduces them to one record per package.
package snapshot

import (
	"time"
)

// Record is one row of a snapshot: a single released version of a package.
//
// Size is a pointer because the index may not know the artifact size; a nil
// Size means unknown and is distinct from zero. RequiresDist holds the
// requirement strings exactly as published (PEP 508 syntax, including any
// environment markers and extras).
type Record struct {
	Name         string    `json:"name"`
	Version      string    `json:"version"`
	UploadTime   time.Time `json:"upload_time"`
	Size         *int64    `json:"size"`
	RequiresDist []string  `json:"requires_dist"`
}

// SizeValue returns the artifact size, or 0 when unknown.
func (r Record) SizeValue() int64 {
	if r.Size == nil {
		return 0
	}
	return *r.Size
}

// Int64 returns a pointer to v. Convenience for building records.
func Int64(v int64) *int64 { return &v }
