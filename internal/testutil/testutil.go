// Package testutil provides shared test utilities and fixtures.
//
// SwingMarkers builds a synthetic full-body marker set so that package tests
// never depend on recorded capture data.
package testutil

import (
	"math"
	"testing"

	"github.com/banshee-data/swing.kinematics/internal/geometry"
	"github.com/banshee-data/swing.kinematics/internal/timeseries"
	"gonum.org/v1/gonum/spatial/r3"
)

// SampleRate is the frame rate of SwingMarkers in Hz.
const SampleRate = 360.0

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// rightStance is a standing right-hand marker set in metres: X lateral to the
// right, Y up, Z forward. Left markers mirror it across X = 0.
var rightStance = map[string]r3.Vec{
	"SHO":  {X: 0.18, Y: 1.45, Z: 0},
	"ELB":  {X: 0.26, Y: 1.15, Z: 0},
	"MELB": {X: 0.18, Y: 1.15, Z: 0.02},
	"WRA":  {X: 0.25, Y: 0.90, Z: 0.08},
	"WRB":  {X: 0.21, Y: 0.90, Z: 0.12},
	"FIN":  {X: 0.24, Y: 0.80, Z: 0.14},
	"ASI":  {X: 0.12, Y: 1.00, Z: 0.08},
	"PSI":  {X: 0.05, Y: 1.02, Z: -0.10},
	"THI":  {X: 0.13, Y: 0.75, Z: 0.05},
	"KNE":  {X: 0.14, Y: 0.52, Z: 0.02},
	"MKNE": {X: 0.06, Y: 0.52, Z: 0.02},
	"TIB":  {X: 0.12, Y: 0.30, Z: 0.03},
	"ANK":  {X: 0.13, Y: 0.08, Z: -0.02},
	"MANK": {X: 0.06, Y: 0.08, Z: -0.02},
	"HEE":  {X: 0.09, Y: 0.03, Z: -0.08},
	"TOE":  {X: 0.11, Y: 0.02, Z: 0.14},
}

var trunk = map[string]r3.Vec{
	"T10":  {X: 0, Y: 1.25, Z: -0.12},
	"STRN": {X: 0, Y: 1.30, Z: 0.10},
}

// forearmMarkers rotate about the elbow during the synthetic swing.
var forearmMarkers = map[string]bool{"WRA": true, "WRB": true, "FIN": true}

// SwingMarkerNames returns the real marker names present in SwingMarkers.
func SwingMarkerNames() []string {
	names := []string{"T10", "STRN"}
	for _, side := range []string{"R", "L"} {
		for _, m := range []string{"SHO", "ELB", "MELB", "WRA", "WRB", "FIN", "ASI", "PSI", "THI", "KNE", "MKNE", "TIB", "ANK", "MANK", "HEE", "TOE"} {
			names = append(names, side+m)
		}
	}
	return names
}

// SwingMarkers returns n samples of a synthetic swing at SampleRate: the
// whole body turns up to 90 degrees about the vertical axis through the
// pelvis while each forearm flexes up to 40 degrees about its elbow axis.
// Every segment frame of the full-body model is defined at every sample.
func SwingMarkers(n int) *timeseries.Series {
	tm := make([]float64, n)
	for i := range tm {
		tm[i] = float64(i) / SampleRate
	}
	s, err := timeseries.New(tm)
	if err != nil {
		panic(err)
	}

	channels := make(map[string][]r3.Vec)
	for name := range trunk {
		channels[name] = make([]r3.Vec, n)
	}
	for _, side := range []string{"R", "L"} {
		for m := range rightStance {
			channels[side+m] = make([]r3.Vec, n)
		}
	}

	pelvis := r3.Vec{Y: 1.0}
	for i := 0; i < n; i++ {
		progress := 0.0
		if n > 1 {
			progress = float64(i) / float64(n-1)
		}
		turn := r3.NewRotation(progress*math.Pi/2, r3.Vec{Y: 1})
		flex := 40 * math.Pi / 180 * math.Sin(progress*math.Pi)

		place := func(p r3.Vec) r3.Vec {
			return r3.Add(pelvis, turn.Rotate(r3.Sub(p, pelvis)))
		}
		for name, p := range trunk {
			channels[name][i] = place(p)
		}
		for _, side := range []string{"R", "L"} {
			stance := make(map[string]r3.Vec, len(rightStance))
			for m, p := range rightStance {
				if side == "L" {
					p.X = -p.X
				}
				stance[m] = p
			}
			elbow := geometry.Mean(stance["ELB"], stance["MELB"])
			hinge := r3.NewRotation(flex, r3.Sub(stance["ELB"], stance["MELB"]))
			for m, p := range stance {
				if forearmMarkers[m] {
					p = r3.Add(elbow, hinge.Rotate(r3.Sub(p, elbow)))
				}
				channels[side+m][i] = place(p)
			}
		}
	}

	for _, name := range SwingMarkerNames() {
		if err := s.AddPoints(name, channels[name]); err != nil {
			panic(err)
		}
	}
	return s
}

// WithUndefined returns a copy of s in which marker name is NaN at the
// given samples.
func WithUndefined(s *timeseries.Series, name string, samples ...int) *timeseries.Series {
	out, err := timeseries.New(s.Time())
	if err != nil {
		panic(err)
	}
	for _, n := range s.PointNames() {
		pts, err := s.Points(n)
		if err != nil {
			panic(err)
		}
		if n == name {
			pts = append([]r3.Vec(nil), pts...)
			for _, i := range samples {
				pts[i] = geometry.NaNVec()
			}
		}
		if err := out.AddPoints(n, pts); err != nil {
			panic(err)
		}
	}
	return out
}
