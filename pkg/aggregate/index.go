package aggregate

import (
	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
	"github.com/libklein/pypi-dependency-analysis/pkg/normalize"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// SizeIndex maps normalized package names to installed sizes. It backs the
// dependency-size lookup of Build: a name resolves to exactly one size or to
// zero, never to several.
//
// The zero value is not usable - use NewSizeIndex.
type SizeIndex struct {
	sizes map[string]int64
}

// NewSizeIndex builds a size index from package records. Record names are
// normalized before insertion. Two records whose names collapse to the same
// normalized name break the unique-key contract the summary join relies on
// and yield an INTEGRITY_ERROR rather than a silent pick.
func NewSizeIndex(records []snapshot.Record) (*SizeIndex, error) {
	sizes := make(map[string]int64, len(records))
	raw := make(map[string]string, len(records))
	for _, rec := range records {
		key := normalize.Name(rec.Name)
		if key == "" {
			continue
		}
		if prev, dup := raw[key]; dup {
			return nil, errors.New(errors.ErrCodeIntegrity,
				"duplicate package name: %q and %q both normalize to %q", prev, rec.Name, key)
		}
		raw[key] = rec.Name
		sizes[key] = rec.SizeValue()
	}
	return &SizeIndex{sizes: sizes}, nil
}

// Size returns the installed size recorded under the normalized name.
// Packages that are absent or carry no size record report 0.
func (x *SizeIndex) Size(name string) int64 {
	return x.sizes[name]
}

// Len returns the number of indexed packages.
func (x *SizeIndex) Len() int {
	return len(x.sizes)
}
