// Package report derives exploration views from the per-package summary
// table: rankings, histograms, and scatter series. It computes the numbers
// only; presentation is left to the caller.
package report

import (
	"fmt"
	"slices"
	"strings"

	"github.com/libklein/pypi-dependency-analysis/pkg/aggregate"
)

// Metric names a ranked quantity of a summary row.
type Metric string

const (
	MetricTotalSize    Metric = "total_size"
	MetricRequirements Metric = "num_requirements"
	MetricProvidesFor  Metric = "num_provides_for"
)

// ValidMetrics is the set of supported metrics.
var ValidMetrics = map[Metric]bool{
	MetricTotalSize:    true,
	MetricRequirements: true,
	MetricProvidesFor:  true,
}

// Value extracts the metric from a summary row.
func Value(s aggregate.Summary, m Metric) int64 {
	switch m {
	case MetricTotalSize:
		return s.TotalSize
	case MetricRequirements:
		return int64(s.NumRequirements)
	default:
		return int64(s.NumProvidesFor)
	}
}

func validateMetric(m Metric) error {
	if !ValidMetrics[m] {
		return fmt.Errorf("invalid metric: %q (must be one of: total_size, num_requirements, num_provides_for)", m)
	}
	return nil
}

// Top returns the n highest-ranked summary rows by metric. Ties break by
// name so rankings are stable across runs. The input is not modified.
func Top(summaries []aggregate.Summary, metric Metric, n int) ([]aggregate.Summary, error) {
	if err := validateMetric(metric); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, fmt.Errorf("top count must be positive, got %d", n)
	}

	ranked := slices.Clone(summaries)
	slices.SortFunc(ranked, func(a, b aggregate.Summary) int {
		va, vb := Value(a, metric), Value(b, metric)
		if va != vb {
			if va > vb {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	if n < len(ranked) {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// Bin is one histogram bucket with inclusive bounds.
type Bin struct {
	Low   int64 `json:"low"`
	High  int64 `json:"high"`
	Count int   `json:"count"`
}

// Distribution is a fixed-width histogram of one metric.
type Distribution struct {
	Metric Metric `json:"metric"`
	Min    int64  `json:"min"`
	Max    int64  `json:"max"`
	Bins   []Bin  `json:"bins"`
}

// Distribute buckets the metric values of all rows into a histogram with at
// most bins buckets. An empty summary table yields an empty distribution.
func Distribute(summaries []aggregate.Summary, metric Metric, bins int) (Distribution, error) {
	if err := validateMetric(metric); err != nil {
		return Distribution{}, err
	}
	if bins <= 0 {
		return Distribution{}, fmt.Errorf("bin count must be positive, got %d", bins)
	}
	if len(summaries) == 0 {
		return Distribution{Metric: metric}, nil
	}

	lo, hi := Value(summaries[0], metric), Value(summaries[0], metric)
	for _, s := range summaries[1:] {
		v := Value(s, metric)
		lo, hi = min(lo, v), max(hi, v)
	}

	span := hi - lo + 1
	width := span / int64(bins)
	if span%int64(bins) != 0 {
		width++
	}
	if width < 1 {
		width = 1
	}

	used := int((span + width - 1) / width)
	result := Distribution{Metric: metric, Min: lo, Max: hi, Bins: make([]Bin, used)}
	for i := range result.Bins {
		low := lo + int64(i)*width
		result.Bins[i] = Bin{Low: low, High: low + width - 1}
	}
	for _, s := range summaries {
		idx := (Value(s, metric) - lo) / width
		result.Bins[idx].Count++
	}
	return result, nil
}

// Point is one package in a scatter comparison.
type Point struct {
	Name string `json:"name"`
	X    int64  `json:"x"`
	Y    int64  `json:"y"`
}

// Scatter pairs two metrics per package, ordered by name.
func Scatter(summaries []aggregate.Summary, x, y Metric) ([]Point, error) {
	if err := validateMetric(x); err != nil {
		return nil, err
	}
	if err := validateMetric(y); err != nil {
		return nil, err
	}

	points := make([]Point, len(summaries))
	for i, s := range summaries {
		points[i] = Point{Name: s.Name, X: Value(s, x), Y: Value(s, y)}
	}
	slices.SortFunc(points, func(a, b Point) int {
		return strings.Compare(a.Name, b.Name)
	})
	return points, nil
}

// Stats summarizes the spread of one metric.
type Stats struct {
	Count  int     `json:"count"`
	Min    int64   `json:"min"`
	Max    int64   `json:"max"`
	Sum    int64   `json:"sum"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
}

// Describe computes summary statistics of the metric over all rows.
func Describe(summaries []aggregate.Summary, metric Metric) (Stats, error) {
	if err := validateMetric(metric); err != nil {
		return Stats{}, err
	}
	if len(summaries) == 0 {
		return Stats{}, nil
	}

	values := make([]int64, len(summaries))
	var sum int64
	for i, s := range summaries {
		values[i] = Value(s, metric)
		sum += values[i]
	}
	slices.Sort(values)

	stats := Stats{
		Count: len(values),
		Min:   values[0],
		Max:   values[len(values)-1],
		Sum:   sum,
		Mean:  float64(sum) / float64(len(values)),
	}
	mid := len(values) / 2
	if len(values)%2 == 1 {
		stats.Median = float64(values[mid])
	} else {
		stats.Median = float64(values[mid-1]+values[mid]) / 2
	}
	return stats, nil
}
