package snapshot

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/libklein/pypi-dependency-analysis/pkg/errors"
)

// maxLineBytes bounds a single snapshot line. Packages with thousands of
// requirement strings stay well below this.
const maxLineBytes = 4 * 1024 * 1024

// Read decodes snapshot records from JSON Lines input.
//
// Lines that fail to parse, or that parse but carry an empty package name,
// are skipped rather than aborting the read; the number of skipped lines is
// returned so callers can surface a warning. Blank lines are ignored and do
// not count as skipped.
//
// Read does not close r.
func Read(r io.Reader) ([]Record, int, error) {
	var (
		records []Record
		skipped int
	)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil || rec.Name == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scan snapshot: %w", err)
	}

	return records, skipped, nil
}

// ReadFile reads snapshot records from a JSON Lines file.
// A missing file is reported as a SNAPSHOT_NOT_FOUND error so callers can
// fail before any graph construction begins.
func ReadFile(path string) ([]Record, int, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, 0, errors.New(errors.ErrCodeSnapshotNotFound, "snapshot not found: %s", path)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Read(f)
}

// Write encodes records as JSON Lines to w, one record per line.
func Write(w io.Writer, records []Record) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode %s %s: %w", rec.Name, rec.Version, err)
		}
	}
	return bw.Flush()
}

// WriteFile writes records to a JSON Lines file at path, replacing any
// existing file.
func WriteFile(path string, records []Record) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
