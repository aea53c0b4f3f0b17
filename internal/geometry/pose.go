package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MatrixValidationTolerance is the tolerance used when checking that a
// rotation is orthonormal with determinant +1.
const MatrixValidationTolerance = 1e-6

// Pose is the orientation and position of a body segment at one sample.
// The columns of Rotation are the segment's unit X, Y and Z axes expressed in
// the lab frame; Origin is the segment origin in the lab frame.
//
// A Pose is treated as immutable once built. Rotation is never nil for poses
// returned by this package.
type Pose struct {
	Rotation *r3.Mat
	Origin   r3.Vec
}

// NaNPose returns a pose whose rotation and origin are entirely NaN.
func NaNPose() Pose {
	nan := math.NaN()
	return Pose{
		Rotation: r3.NewMat([]float64{nan, nan, nan, nan, nan, nan, nan, nan, nan}),
		Origin:   NaNVec(),
	}
}

// NewPose assembles a pose from three axis vectors and an origin. The axes are
// placed as matrix columns in X, Y, Z order.
func NewPose(x, y, z, origin r3.Vec) Pose {
	return Pose{
		Rotation: r3.NewMat([]float64{
			x.X, y.X, z.X,
			x.Y, y.Y, z.Y,
			x.Z, y.Z, z.Z,
		}),
		Origin: origin,
	}
}

// Axis returns column i (0=X, 1=Y, 2=Z) of the rotation.
func (p Pose) Axis(i int) r3.Vec {
	return p.Rotation.VecCol(i)
}

// Defined reports whether every rotation element and origin component is finite.
func (p Pose) Defined() bool {
	if p.Rotation == nil || !Defined(p.Origin) {
		return false
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if isBad(p.Rotation.At(i, j)) {
				return false
			}
		}
	}
	return true
}

// Matrix returns the pose as a row-major 4x4 homogeneous transform.
func (p Pose) Matrix() [16]float64 {
	var T [16]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			T[i*4+j] = p.Rotation.At(i, j)
		}
	}
	T[3], T[7], T[11] = p.Origin.X, p.Origin.Y, p.Origin.Z
	T[15] = 1
	return T
}

// IsOrthonormal reports whether R has unit, mutually orthogonal columns and
// determinant +1, within tol.
func IsOrthonormal(R *r3.Mat, tol float64) bool {
	if R == nil {
		return false
	}
	for i := 0; i < 3; i++ {
		ci := R.VecCol(i)
		if math.Abs(r3.Norm(ci)-1) > tol {
			return false
		}
		for j := i + 1; j < 3; j++ {
			if math.Abs(r3.Dot(ci, R.VecCol(j))) > tol {
				return false
			}
		}
	}
	return math.Abs(R.Det()-1) <= tol
}

// IsValidTransformMatrix checks if a row-major 4x4 matrix is a rigid transform:
// an orthonormal rotation block with determinant 1 and a last row of [0 0 0 1].
func IsValidTransformMatrix(T [16]float64) bool {
	R := r3.NewMat([]float64{
		T[0], T[1], T[2],
		T[4], T[5], T[6],
		T[8], T[9], T[10],
	})
	if !IsOrthonormal(R, MatrixValidationTolerance) {
		return false
	}
	if T[12] != 0 || T[13] != 0 || T[14] != 0 || math.Abs(T[15]-1.0) > 0.001 {
		return false
	}
	return true
}

// LocalCoordinates expresses pose in the local frame of reference. The
// returned rotation is transpose(reference.Rotation) · pose.Rotation and the
// origin is pose.Origin relative to reference, in reference axes. Undefined
// inputs give an undefined result.
func LocalCoordinates(pose, reference Pose) Pose {
	if !pose.Defined() || !reference.Defined() {
		return NaNPose()
	}
	var R r3.Mat
	R.Mul(reference.Rotation.T(), pose.Rotation)
	return Pose{
		Rotation: &R,
		Origin:   reference.Rotation.MulVecTrans(r3.Sub(pose.Origin, reference.Origin)),
	}
}
