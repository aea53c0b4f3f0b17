package geometry

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Axis names one of the three coordinate axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "X"
	case AxisY:
		return "Y"
	case AxisZ:
		return "Z"
	default:
		return "?"
	}
}

// Unit returns the lab-frame unit vector along a.
func (a Axis) Unit() r3.Vec {
	switch a {
	case AxisX:
		return r3.Vec{X: 1}
	case AxisY:
		return r3.Vec{Y: 1}
	default:
		return r3.Vec{Z: 1}
	}
}

// Sequence is an ordered triple of intrinsic rotation axes, read left to right.
// Consecutive axes differ; the first and third may repeat (proper Euler) or
// not (Cardan / Tait-Bryan).
type Sequence [3]Axis

// ParseSequence parses a sequence such as "ZXY" or "YXY". Case is ignored.
func ParseSequence(s string) (Sequence, error) {
	var seq Sequence
	if len(s) != 3 {
		return seq, fmt.Errorf("rotation sequence %q must have 3 axes", s)
	}
	for i, r := range strings.ToUpper(s) {
		switch r {
		case 'X':
			seq[i] = AxisX
		case 'Y':
			seq[i] = AxisY
		case 'Z':
			seq[i] = AxisZ
		default:
			return seq, fmt.Errorf("rotation sequence %q: invalid axis %q", s, r)
		}
	}
	if seq[0] == seq[1] || seq[1] == seq[2] {
		return seq, fmt.Errorf("rotation sequence %q repeats a consecutive axis", s)
	}
	return seq, nil
}

// MustParseSequence is ParseSequence for package-level tables; it panics on
// an invalid sequence.
func MustParseSequence(s string) Sequence {
	seq, err := ParseSequence(s)
	if err != nil {
		panic(err)
	}
	return seq
}

func (s Sequence) String() string {
	return s[0].String() + s[1].String() + s[2].String()
}

// Proper reports whether the first and third axes coincide.
func (s Sequence) Proper() bool {
	return s[0] == s[2]
}

// degenerateTolerance is the distance in radians from 0 or π of the middle
// angle of the symmetric form below which the first and third angles are
// treated as coupled.
const degenerateTolerance = 1e-7

// Compose returns the rotation obtained by applying the three elemental
// rotations of seq, in degrees, as intrinsic rotations: R = R0 · R1 · R2.
func Compose(anglesDeg [3]float64, seq Sequence) *r3.Mat {
	q := quat.Number{Real: 1}
	for i, axis := range seq {
		q = quat.Mul(q, quat.Number(r3.NewRotation(anglesDeg[i]*math.Pi/180, axis.Unit())))
	}
	return r3.Rotation(q).Mat()
}

// Decompose factors the rotation R into the three intrinsic elemental
// rotations of seq and returns their angles in degrees, in sequence order.
// The first and third angles lie in [-180, 180]; the middle one in
// [-90, 90] for Cardan sequences and [0, 180] for proper Euler sequences.
//
// At gimbal lock the split between the first and third angle is arbitrary;
// the third angle is then reported as 0. An undefined R gives NaN angles.
func Decompose(R *r3.Mat, seq Sequence) [3]float64 {
	nan := math.NaN()
	if R == nil {
		return [3]float64{nan, nan, nan}
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if isBad(R.At(i, j)) {
				return [3]float64{nan, nan, nan}
			}
		}
	}
	rad := decomposeQuat(quaternionFromMatrix(R), seq)
	for i := range rad {
		rad[i] *= 180 / math.Pi
	}
	return rad
}

// decomposeQuat implements the quaternion-based angle extraction of
// Bernardes & Viollet (2022) for intrinsic sequences. The intrinsic sequence
// ijk is the extrinsic sequence kji with first and last angles swapped.
func decomposeQuat(q quat.Number, seq Sequence) [3]float64 {
	i, j, k := int(seq[2]), int(seq[1]), int(seq[0])
	const first, third = 2, 0

	symmetric := i == k
	if symmetric {
		k = 3 - i - j
	}
	// +1 for an even permutation of (0, 1, 2), -1 for an odd one.
	sign := float64((i - j) * (j - k) * (k - i) / 2)

	var a, b, c, d float64
	if symmetric {
		a = q.Real
		b = component(q, i)
		c = component(q, j)
		d = component(q, k) * sign
	} else {
		a = q.Real - component(q, j)
		b = component(q, i) + component(q, k)*sign
		c = component(q, j) + q.Real
		d = component(q, k)*sign - component(q, i)
	}

	var angles [3]float64
	angles[1] = 2 * math.Atan2(math.Hypot(c, d), math.Hypot(a, b))

	halfSum := math.Atan2(b, a)
	halfDiff := math.Atan2(d, c)
	switch {
	case math.Abs(angles[1]) <= degenerateTolerance:
		angles[0] = 2 * halfSum
		angles[2] = 0
	case math.Abs(angles[1]-math.Pi) <= degenerateTolerance:
		angles[0] = 2 * halfDiff
		angles[2] = 0
	default:
		angles[first] = halfSum - halfDiff
		angles[third] = halfSum + halfDiff
	}

	if !symmetric {
		angles[third] *= sign
		angles[1] -= math.Pi / 2
	}

	for n := range angles {
		switch {
		case angles[n] < -math.Pi:
			angles[n] += 2 * math.Pi
		case angles[n] > math.Pi:
			angles[n] -= 2 * math.Pi
		}
	}
	return angles
}

// component returns the imaginary part of q along axis i.
func component(q quat.Number, i int) float64 {
	switch i {
	case 0:
		return q.Imag
	case 1:
		return q.Jmag
	default:
		return q.Kmag
	}
}

// quaternionFromMatrix converts a rotation matrix to a unit quaternion with
// Shepperd's method, branching on the largest of the trace and the diagonal.
func quaternionFromMatrix(R *r3.Mat) quat.Number {
	trace := R.At(0, 0) + R.At(1, 1) + R.At(2, 2)

	best, bestVal := 3, trace
	for n := 0; n < 3; n++ {
		if R.At(n, n) > bestVal {
			best, bestVal = n, R.At(n, n)
		}
	}

	var v [3]float64
	var w float64
	if best == 3 {
		w = 1 + trace
		v[0] = R.At(2, 1) - R.At(1, 2)
		v[1] = R.At(0, 2) - R.At(2, 0)
		v[2] = R.At(1, 0) - R.At(0, 1)
	} else {
		i := best
		j := (i + 1) % 3
		k := (j + 1) % 3
		v[i] = 1 - trace + 2*R.At(i, i)
		v[j] = R.At(j, i) + R.At(i, j)
		v[k] = R.At(k, i) + R.At(i, k)
		w = R.At(k, j) - R.At(j, k)
	}

	q := quat.Number{Real: w, Imag: v[0], Jmag: v[1], Kmag: v[2]}
	return quat.Scale(1/quat.Abs(q), q)
}
