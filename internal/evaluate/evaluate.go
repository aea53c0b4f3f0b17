// Package evaluate scores computed joint angles against a reference table.
package evaluate

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"

	"github.com/banshee-data/swing.kinematics/internal/export"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Metric names.
const (
	RootMeanSquaredError = "root_mean_squared_error"
	MedianAbsoluteError  = "median_absolute_error"
)

// Metric is one error statistic of one angle column.
type Metric struct {
	Column string
	Name   string
	Value  float64
	// N is the number of sample pairs the value was computed from.
	N int
}

// Options controls Compare.
type Options struct {
	// Skip lists session swings excluded from the comparison.
	Skip map[string]bool
	// Decimals is the number of decimal places time stamps are rounded to
	// before rows are joined.
	Decimals int
}

type rowKey struct {
	sessionSwing string
	time         float64
}

// Compare joins source and reference rows on session swing and rounded time
// and returns, for every column present in both tables, the root mean
// squared error and the median absolute error over the rows where both
// values are defined. Only session swings present in both tables and not
// skipped take part. A column with no defined pairs yields NaN metrics.
func Compare(source, reference *export.Table, opts Options) []Metric {
	shared := make(map[string]bool)
	inSource := make(map[string]bool)
	for _, ss := range source.SessionSwings() {
		inSource[ss] = true
	}
	for _, ss := range reference.SessionSwings() {
		if inSource[ss] && !opts.Skip[ss] {
			shared[ss] = true
		}
	}

	scale := math.Pow(10, float64(opts.Decimals))
	round := func(t float64) float64 { return math.Round(t*scale) / scale }

	refRows := make(map[rowKey]int)
	for i, r := range reference.Rows {
		if !shared[r.SessionSwing] {
			continue
		}
		key := rowKey{r.SessionSwing, round(r.Time)}
		if _, ok := refRows[key]; !ok {
			refRows[key] = i
		}
	}

	type pair struct{ src, ref int }
	var joined []pair
	for i, r := range source.Rows {
		if !shared[r.SessionSwing] {
			continue
		}
		if j, ok := refRows[rowKey{r.SessionSwing, round(r.Time)}]; ok {
			joined = append(joined, pair{i, j})
		}
	}

	var metrics []Metric
	for k, col := range source.Columns {
		rk := reference.ColumnIndex(col)
		if rk < 0 {
			continue
		}
		var src, ref []float64
		for _, p := range joined {
			s, r := source.Rows[p.src].Values[k], reference.Rows[p.ref].Values[rk]
			if math.IsNaN(s) || math.IsNaN(r) {
				continue
			}
			src = append(src, s)
			ref = append(ref, r)
		}
		metrics = append(metrics,
			Metric{Column: col, Name: RootMeanSquaredError, Value: rmse(ref, src), N: len(src)},
			Metric{Column: col, Name: MedianAbsoluteError, Value: medianAbsoluteError(ref, src), N: len(src)},
		)
	}
	return metrics
}

func rmse(want, got []float64) float64 {
	if len(want) == 0 {
		return math.NaN()
	}
	return floats.Distance(want, got, 2) / math.Sqrt(float64(len(want)))
}

func medianAbsoluteError(want, got []float64) float64 {
	if len(want) == 0 {
		return math.NaN()
	}
	abs := make([]float64, len(want))
	floats.SubTo(abs, want, got)
	for i, v := range abs {
		abs[i] = math.Abs(v)
	}
	sort.Float64s(abs)
	lower := stat.Quantile(0.5, stat.Empirical, abs, nil)
	if len(abs)%2 == 1 {
		return lower
	}
	return (lower + abs[len(abs)/2]) / 2
}

// WriteMetrics writes metrics as CSV with the header col,metric,value.
func WriteMetrics(w io.Writer, metrics []Metric) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"col", "metric", "value"}); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, m := range metrics {
		if err := cw.Write([]string{m.Column, m.Name, strconv.FormatFloat(m.Value, 'g', -1, 64)}); err != nil {
			return fmt.Errorf("failed to write metric: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadMetrics reads metrics written by WriteMetrics.
func ReadMetrics(r io.Reader) ([]Metric, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics CSV: %w", err)
	}
	if len(records) < 1 || len(records[0]) != 3 || records[0][0] != "col" || records[0][1] != "metric" || records[0][2] != "value" {
		return nil, fmt.Errorf("invalid header in metrics CSV, expected: col,metric,value")
	}
	metrics := make([]Metric, 0, len(records)-1)
	for i, record := range records[1:] {
		v, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid value at line %d: %v", i+2, err)
		}
		metrics = append(metrics, Metric{Column: record[0], Name: record[1], Value: v})
	}
	return metrics, nil
}

// Select returns the metrics with the given name.
func Select(metrics []Metric, name string) []Metric {
	var out []Metric
	for _, m := range metrics {
		if m.Name == name {
			out = append(out, m)
		}
	}
	return out
}
