package trial

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/swing.kinematics/internal/fsutil"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"gonum.org/v1/gonum/spatial/r3"
)

var coordSuffixes = [3]string{"_x", "_y", "_z"}

// ReadMarkers parses a marker trajectory CSV with the header
// time,<NAME>_x,<NAME>_y,<NAME>_z,... into a series of point channels.
// Empty and NaN cells are undefined; a point with any undefined coordinate
// is undefined as a whole.
func ReadMarkers(r io.Reader) (*timeseries.Series, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read marker CSV: %w", err)
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("marker CSV has no header")
	}

	header := records[0]
	if len(header) < 1 || strings.ToLower(strings.TrimSpace(header[0])) != "time" {
		return nil, fmt.Errorf("invalid header in marker CSV, expected first column: time")
	}
	if (len(header)-1)%3 != 0 {
		return nil, fmt.Errorf("invalid header in marker CSV: %d coordinate columns is not a multiple of 3", len(header)-1)
	}
	names := make([]string, 0, (len(header)-1)/3)
	for c := 1; c < len(header); c += 3 {
		name, ok := strings.CutSuffix(strings.TrimSpace(header[c]), coordSuffixes[0])
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid header in marker CSV: column %d %q is not <NAME>_x", c+1, header[c])
		}
		for k := 1; k < 3; k++ {
			if got := strings.TrimSpace(header[c+k]); got != name+coordSuffixes[k] {
				return nil, fmt.Errorf("invalid header in marker CSV: column %d is %q, want %q", c+k+1, got, name+coordSuffixes[k])
			}
		}
		names = append(names, name)
	}

	rows := records[1:]
	tm := make([]float64, len(rows))
	points := make([][]r3.Vec, len(names))
	for m := range points {
		points[m] = make([]r3.Vec, len(rows))
	}
	for i, record := range rows {
		line := i + 2
		if len(record) != len(header) {
			return nil, fmt.Errorf("invalid record at line %d: expected %d fields", line, len(header))
		}
		if tm[i], err = strconv.ParseFloat(strings.TrimSpace(record[0]), 64); err != nil {
			return nil, fmt.Errorf("invalid time at line %d: %v", line, err)
		}
		for m := range names {
			var xyz [3]float64
			for k := range xyz {
				if xyz[k], err = parseCell(record[1+3*m+k]); err != nil {
					return nil, fmt.Errorf("invalid %s%s at line %d: %v", names[m], coordSuffixes[k], line, err)
				}
			}
			points[m][i] = r3.Vec{X: xyz[0], Y: xyz[1], Z: xyz[2]}
		}
	}

	s, err := timeseries.New(tm)
	if err != nil {
		return nil, fmt.Errorf("marker CSV: %w", err)
	}
	for m, name := range names {
		if err := s.AddPoints(name, points[m]); err != nil {
			return nil, fmt.Errorf("marker CSV: %w", err)
		}
	}
	return s, nil
}

func parseCell(cell string) (float64, error) {
	cell = strings.TrimSpace(cell)
	if cell == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(cell, 64)
}

// LoadMarkers reads the marker CSV at path.
func LoadMarkers(fsys fsutil.FileSystem, path string) (*timeseries.Series, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trial: %w", err)
	}
	defer f.Close()

	s, err := ReadMarkers(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

// WriteMarkers writes every point channel of s in the layout ReadMarkers
// accepts, channels in name order. Undefined coordinates are written empty.
func WriteMarkers(w io.Writer, s *timeseries.Series) error {
	names := s.PointNames()
	header := []string{"time"}
	for _, name := range names {
		for _, suffix := range coordSuffixes {
			header = append(header, name+suffix)
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}

	channels := make([][]r3.Vec, len(names))
	for m, name := range names {
		pts, err := s.Points(name)
		if err != nil {
			return err
		}
		channels[m] = pts
	}
	for i, t := range s.Time() {
		row := make([]string, 0, len(header))
		row = append(row, strconv.FormatFloat(t, 'g', -1, 64))
		for _, pts := range channels {
			for _, v := range [3]float64{pts[i].X, pts[i].Y, pts[i].Z} {
				row = append(row, formatCell(v))
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
