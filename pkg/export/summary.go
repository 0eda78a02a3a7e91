package export

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/libklein/pypi-dependency-analysis/pkg/aggregate"
	"github.com/libklein/pypi-dependency-analysis/pkg/report"
)

// WriteSummaries encodes the summary table as JSON Lines, one row per line.
func WriteSummaries(w io.Writer, summaries []aggregate.Summary) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, s := range summaries {
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode %s: %w", s.Name, err)
		}
	}
	return bw.Flush()
}

// csvHeader is the column order of summary CSV output.
var csvHeader = []string{"name", "total_size", "num_requirements", "num_provides_for", "depends_on"}

// WriteSummariesCSV encodes the summary table as CSV with a header row.
// The depends_on column joins the transitive dependency list with ";".
func WriteSummariesCSV(w io.Writer, summaries []aggregate.Summary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, s := range summaries {
		row := []string{
			s.Name,
			strconv.FormatInt(s.TotalSize, 10),
			strconv.Itoa(s.NumRequirements),
			strconv.Itoa(s.NumProvidesFor),
			strings.Join(s.DependsOn, ";"),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", s.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WritePointsCSV encodes a scatter series as CSV. The header names the two
// metric columns after the metrics that produced them.
func WritePointsCSV(w io.Writer, x, y report.Metric, points []report.Point) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"name", string(x), string(y)}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, p := range points {
		row := []string{p.Name, strconv.FormatInt(p.X, 10), strconv.FormatInt(p.Y, 10)}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %s: %w", p.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}
