package snapshot

import (
	"slices"
	"strings"

	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
)

// SelectLatest reduces a snapshot to one record per package: the record
// with the maximum upload time. When several versions of a package share
// the same upload time, the lexicographically greatest version string wins,
// so the selection is deterministic regardless of input order.
//
// Two records with the same name and version are a corrupt export and
// yield a DUPLICATE_RECORD error rather than a silent choice between them.
//
// The result is sorted by package name.
func SelectLatest(records []Record) ([]Record, error) {
	type versionKey struct {
		name    string
		version string
	}

	seen := make(map[versionKey]struct{}, len(records))
	latest := make(map[string]Record, len(records))

	for _, rec := range records {
		k := versionKey{rec.Name, rec.Version}
		if _, dup := seen[k]; dup {
			return nil, errors.New(errors.ErrCodeDuplicateRecord,
				"duplicate snapshot record for %s %s", rec.Name, rec.Version)
		}
		seen[k] = struct{}{}

		cur, ok := latest[rec.Name]
		if !ok || newerThan(rec, cur) {
			latest[rec.Name] = rec
		}
	}

	out := make([]Record, 0, len(latest))
	for _, rec := range latest {
		out = append(out, rec)
	}
	slices.SortFunc(out, func(a, b Record) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out, nil
}

// newerThan reports whether a should replace b as the latest record.
func newerThan(a, b Record) bool {
	if !a.UploadTime.Equal(b.UploadTime) {
		return a.UploadTime.After(b.UploadTime)
	}
	return a.Version > b.Version
}
