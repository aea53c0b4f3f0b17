// Package export reads and writes the joint angle table: one row per trial
// sample, keyed by session_swing and time, with one column per joint axis.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/banshee-data/swing.kinematics/internal/kinematics"
)

const (
	sessionSwingColumn = "session_swing"
	timeColumn         = "time"
)

// Row is one sample of one trial. Values align with Table.Columns; NaN
// marks an undefined angle.
type Row struct {
	SessionSwing string
	Time         float64
	Values       []float64
}

// Table is a joint angle table.
type Table struct {
	Columns []string
	Rows    []Row
}

// FromResults lays out results as a table. Columns follow the first result
// and columns first seen in later results are appended; a result without a
// column leaves it NaN.
func FromResults(results []*kinematics.Result) *Table {
	t := &Table{}
	index := make(map[string]int)
	for _, r := range results {
		for _, c := range r.Columns() {
			if _, ok := index[c]; !ok {
				index[c] = len(t.Columns)
				t.Columns = append(t.Columns, c)
			}
		}
	}

	for _, r := range results {
		base := len(t.Rows)
		for _, tm := range r.Time {
			values := make([]float64, len(t.Columns))
			for k := range values {
				values[k] = math.NaN()
			}
			t.Rows = append(t.Rows, Row{SessionSwing: r.SessionSwing, Time: tm, Values: values})
		}
		for _, j := range r.Joints {
			for axis, c := range j.Columns {
				k := index[c]
				for i, a := range j.Angles {
					t.Rows[base+i].Values[k] = a[axis]
				}
			}
		}
	}
	return t
}

// ColumnIndex returns the position of the named column, or -1.
func (t *Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// SessionSwings returns the distinct session swings in sorted order.
func (t *Table) SessionSwings() []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range t.Rows {
		if !seen[r.SessionSwing] {
			seen[r.SessionSwing] = true
			out = append(out, r.SessionSwing)
		}
	}
	sort.Strings(out)
	return out
}

// Session returns the rows of one session swing as a table sharing the
// same columns.
func (t *Table) Session(sessionSwing string) *Table {
	out := &Table{Columns: t.Columns}
	for _, r := range t.Rows {
		if r.SessionSwing == sessionSwing {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Column returns the time stamps and values of the named column.
func (t *Table) Column(name string) (times, values []float64, ok bool) {
	k := t.ColumnIndex(name)
	if k < 0 {
		return nil, nil, false
	}
	times = make([]float64, len(t.Rows))
	values = make([]float64, len(t.Rows))
	for i, r := range t.Rows {
		times[i] = r.Time
		values[i] = r.Values[k]
	}
	return times, values, true
}

// Write writes the table as CSV. Undefined values are written as empty cells.
func (t *Table) Write(w io.Writer) error {
	cw := csv.NewWriter(w)
	header := append([]string{sessionSwingColumn, timeColumn}, t.Columns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, r := range t.Rows {
		row := make([]string, 0, len(header))
		row = append(row, r.SessionSwing, strconv.FormatFloat(r.Time, 'g', -1, 64))
		for _, v := range r.Values {
			row = append(row, formatValue(v))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteAngles writes the results as one joint angle table.
func WriteAngles(w io.Writer, results []*kinematics.Result) error {
	return FromResults(results).Write(w)
}

// ReadAngles reads a joint angle table. Empty and NaN cells are undefined.
func ReadAngles(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read angle CSV: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("angle CSV has no header")
	}

	header := records[0]
	if len(header) < 2 || strings.TrimSpace(header[0]) != sessionSwingColumn || strings.TrimSpace(header[1]) != timeColumn {
		return nil, fmt.Errorf("invalid header in angle CSV, expected: %s,%s,...", sessionSwingColumn, timeColumn)
	}

	t := &Table{Columns: make([]string, len(header)-2)}
	for i, c := range header[2:] {
		t.Columns[i] = strings.TrimSpace(c)
	}
	t.Rows = make([]Row, 0, len(records)-1)
	for i, record := range records[1:] {
		line := i + 2
		if len(record) != len(header) {
			return nil, fmt.Errorf("invalid record at line %d: expected %d fields", line, len(header))
		}
		tm, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid time at line %d: %v", line, err)
		}
		values := make([]float64, len(t.Columns))
		for k, cell := range record[2:] {
			if values[k], err = parseValue(cell); err != nil {
				return nil, fmt.Errorf("invalid %s at line %d: %v", t.Columns[k], line, err)
			}
		}
		t.Rows = append(t.Rows, Row{SessionSwing: strings.TrimSpace(record[0]), Time: tm, Values: values})
	}
	return t, nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func parseValue(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}
