// Package camera defines the pinhole camera model produced by the DLT
// solver and consumed by the consensus and refinement stages.
//
// A pinhole camera is a 3×4 projection matrix P mapping homogeneous 3D
// points to homogeneous 2D image points, x ≃ P·X. The model is immutable
// once constructed: accessors hand out copies, never internal state.
//
// The matrix decomposes as P = K·[R | −R·C] with:
//
//	K — upper-triangular intrinsic matrix (focal lengths, skew, principal point)
//	R — extrinsic rotation (world → camera)
//	C — camera center in world coordinates
//
// Errors (sentinel):
//
//	– ErrBadShape        if a constructor receives a matrix that is not 3×4.
//	– ErrDecompose       if the left 3×3 block is singular (no K·R split exists).
//	– ErrBadQuaternion   if a zero quaternion is passed where a rotation is expected.
package camera

import (
	"errors"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
)

// Sentinel errors returned by the camera package.
var (
	// ErrBadShape indicates a projection matrix of the wrong dimensions.
	ErrBadShape = errors.New("camera: projection matrix must be 3x4")

	// ErrDecompose indicates the left 3x3 block is numerically singular,
	// so no intrinsic/extrinsic factorization exists.
	ErrDecompose = errors.New("camera: singular left 3x3 block, cannot decompose")

	// ErrBadQuaternion indicates a (near-)zero quaternion where a unit
	// rotation quaternion was required.
	ErrBadQuaternion = errors.New("camera: quaternion norm is zero")
)

// Camera is an immutable 3×4 pinhole projection matrix.
// The zero value is not usable; construct via New or FromMatrix.
type Camera struct {
	p *mat.Dense // 3x4, owned, never exposed directly
}

// Intrinsics holds the decomposed pinhole intrinsic parameters, i.e. the
// entries of the upper-triangular K normalized so K[2][2] == 1.
type Intrinsics struct {
	Fx   float64 // horizontal focal length (pixels)
	Fy   float64 // vertical focal length (pixels)
	Skew float64 // axis skew coefficient
	Cx   float64 // principal point, horizontal
	Cy   float64 // principal point, vertical
}

// AspectRatio returns Fy/Fx, the conventional vertical/horizontal ratio.
func (in Intrinsics) AspectRatio() float64 { return in.Fy / in.Fx }

// Extrinsics holds the decomposed pose: rotation (world→camera) and the
// camera center expressed in world coordinates.
type Extrinsics struct {
	R      *mat.Dense // 3x3 rotation, det == +1
	Center r3.Vector
}

// RotationQuat returns the extrinsic rotation as a unit quaternion
// [w, x, y, z]. The sign convention is w ≥ 0.
func (ex Extrinsics) RotationQuat() [4]float64 {
	return RotationToQuat(ex.R)
}
