// Package geometry holds the rigid-body math behind segment frames and joint
// angles: poses built from marker directions, relative orientation between two
// poses, and Euler/Cardan decomposition for a fixed axis sequence.
package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// NaNVec returns a vector whose components are all NaN. It marks a marker
// position that is undefined at a sample.
func NaNVec() r3.Vec {
	return r3.Vec{X: math.NaN(), Y: math.NaN(), Z: math.NaN()}
}

// Defined reports whether every component of v is finite.
func Defined(v r3.Vec) bool {
	return !isBad(v.X) && !isBad(v.Y) && !isBad(v.Z)
}

// Mean returns the arithmetic mean of vs. Any undefined input makes the
// result undefined; an empty input returns NaNVec.
func Mean(vs ...r3.Vec) r3.Vec {
	if len(vs) == 0 {
		return NaNVec()
	}
	var sum r3.Vec
	for _, v := range vs {
		sum = r3.Add(sum, v)
	}
	return r3.Scale(1/float64(len(vs)), sum)
}

func isBad(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
