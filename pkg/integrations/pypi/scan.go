package pypi

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
	"github.com/libklein/pypi-dependency-analysis/pkg/snapshot"
)

// ScanDir reads a directory of per-package PyPI API responses (one .json
// file per package, as written by a metadata fetch) and converts them to
// snapshot records. Files that fail to parse or carry no package name are
// skipped; the second return value reports how many.
//
// A missing directory is a FILE_NOT_FOUND error so callers fail before any
// graph construction starts, never on a half-read input.
func ScanDir(dir string) ([]snapshot.Record, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, errors.New(errors.ErrCodeFileNotFound, "metadata directory not found: %s", dir)
		}
		return nil, 0, errors.Wrap(errors.ErrCodeInvalidPath, err, "reading metadata directory %s", dir)
	}

	var records []snapshot.Record
	skipped := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			skipped++
			continue
		}

		var resp apiResponse
		if err := json.Unmarshal(data, &resp); err != nil || resp.Info.Name == "" {
			skipped++
			continue
		}

		rec := snapshot.Record{
			Name:         resp.Info.Name,
			Version:      resp.Info.Version,
			RequiresDist: resp.Info.RequiresDist,
		}
		if dist := selectDistribution(resp.Urls); dist != nil {
			size := dist.Size
			rec.Size = &size
			rec.UploadTime = dist.UploadTime
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}
