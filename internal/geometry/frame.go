package geometry

import "gonum.org/v1/gonum/spatial/r3"

// Construction selects which axis a segment's primary direction defines and
// which plane its auxiliary direction lies in.
type Construction int

const (
	// PrimaryYPlaneYZ: the primary vector is the Y axis, the auxiliary vector
	// lies in the YZ plane. X = Y × aux, Z = X × Y.
	PrimaryYPlaneYZ Construction = iota
	// PrimaryXPlaneXZ: the primary vector is the X axis, the auxiliary vector
	// lies in the XZ plane. Y = aux × X, Z = X × Y.
	PrimaryXPlaneXZ
)

func (c Construction) String() string {
	switch c {
	case PrimaryYPlaneYZ:
		return "y/yz"
	case PrimaryXPlaneXZ:
		return "x/xz"
	default:
		return "unknown"
	}
}

// NewFrame builds a right-handed orthonormal pose at origin from a primary
// direction and an auxiliary direction. Neither vector needs to be unit length
// and the auxiliary vector need not be orthogonal to the primary one.
//
// If any input is undefined, or the directions are degenerate (zero length or
// parallel), the whole pose is NaN.
func NewFrame(origin, primary, auxiliary r3.Vec, c Construction) Pose {
	if !Defined(origin) || !Defined(primary) || !Defined(auxiliary) {
		return NaNPose()
	}
	primary = r3.Unit(primary)
	auxiliary = r3.Unit(auxiliary)

	var x, y, z r3.Vec
	switch c {
	case PrimaryYPlaneYZ:
		y = primary
		x = r3.Unit(r3.Cross(y, auxiliary))
		z = r3.Unit(r3.Cross(x, y))
	case PrimaryXPlaneXZ:
		x = primary
		y = r3.Unit(r3.Cross(auxiliary, x))
		z = r3.Unit(r3.Cross(x, y))
	default:
		return NaNPose()
	}

	p := NewPose(x, y, z, origin)
	if !p.Defined() {
		return NaNPose()
	}
	return p
}
