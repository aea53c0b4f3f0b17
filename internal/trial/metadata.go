// Package trial turns a directory of captured swings into pipeline inputs:
// file-name metadata, session/swing ordering, the marker CSV reader and the
// lead/rear column naming of the output table.
package trial

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/banshee-data/swing.kinematics/internal/body"
)

// Metadata is the information encoded in a trial file name:
// <user>_<session>_<height>_<weight>_<side>_<swing>_<velo>.<ext>
type Metadata struct {
	UserID     string
	SessionID  string
	Height     int
	Weight     int
	BatterHand body.Side
	Swing      int
	// ExitVelocity is in mph with one decimal place.
	ExitVelocity float64
}

// ParseFileName extracts Metadata from the base name of path.
func ParseFileName(path string) (Metadata, error) {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	fields := strings.Split(stem, "_")
	if len(fields) < 7 {
		return Metadata{}, fmt.Errorf("trial file %q: expected 7 underscore-separated fields, got %d", base, len(fields))
	}

	var (
		md  = Metadata{UserID: fields[0], SessionID: fields[1]}
		err error
	)
	if md.Height, err = strconv.Atoi(fields[2]); err != nil {
		return Metadata{}, fmt.Errorf("trial file %q: invalid height %q", base, fields[2])
	}
	if md.Weight, err = strconv.Atoi(fields[3]); err != nil {
		return Metadata{}, fmt.Errorf("trial file %q: invalid weight %q", base, fields[3])
	}
	if md.BatterHand, err = body.ParseSide(fields[4]); err != nil {
		return Metadata{}, fmt.Errorf("trial file %q: %w", base, err)
	}
	if md.Swing, err = strconv.Atoi(fields[5]); err != nil {
		return Metadata{}, fmt.Errorf("trial file %q: invalid swing number %q", base, fields[5])
	}
	if md.ExitVelocity, err = parseExitVelocity(fields[6]); err != nil {
		return Metadata{}, fmt.Errorf("trial file %q: %w", base, err)
	}
	return md, nil
}

// parseExitVelocity reads a velocity field such as "853" as 85.3: the first
// two digits are whole mph and the third is tenths. Digits past the third
// are ignored.
func parseExitVelocity(field string) (float64, error) {
	if len(field) < 3 {
		return 0, fmt.Errorf("invalid exit velocity %q: need at least 3 digits", field)
	}
	var digits [3]int
	for i := range digits {
		c := field[i]
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid exit velocity %q", field)
		}
		digits[i] = int(c - '0')
	}
	return float64(digits[0]*10+digits[1]) + float64(digits[2])*0.1, nil
}

// Label returns "rear" for a joint on the batter's hand side, "lead" for the
// opposite side and "" for an unsided joint.
func Label(side, batterHand body.Side) string {
	switch {
	case side == body.SideNone:
		return ""
	case side == batterHand:
		return "rear"
	default:
		return "lead"
	}
}

// AxisNames are the column suffixes of the three angle axes.
var AxisNames = [3]string{"x", "y", "z"}

// ColumnName returns the output column for one axis of a joint, for example
// "lead_elbow_angle_x".
func ColumnName(t body.JointType, side, batterHand body.Side, axis int) string {
	return LabeledColumn(Label(side, batterHand), t, axis)
}

// LabeledColumn returns the column for a joint axis under an explicit
// "lead" or "rear" label; an empty label gives the unsided form.
func LabeledColumn(label string, t body.JointType, axis int) string {
	name := fmt.Sprintf("%s_angle_%s", t, AxisNames[axis])
	if label != "" {
		return label + "_" + name
	}
	return name
}

// Columns returns the three axis columns of a joint.
func Columns(t body.JointType, side, batterHand body.Side) [3]string {
	var cols [3]string
	for i := range cols {
		cols[i] = ColumnName(t, side, batterHand, i)
	}
	return cols
}
