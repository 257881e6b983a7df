// Package camera_test exercises the pinhole model via the public API:
// construction, projection, decomposition round trips and the quaternion
// conversions the refinement stage depends on.
package camera_test

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/robustfit/camera"
)

// testIntrinsics is a realistic VGA-ish calibration with non-trivial skew.
func testIntrinsics() camera.Intrinsics {
	return camera.Intrinsics{Fx: 800, Fy: 780, Skew: 0.25, Cx: 320, Cy: 240}
}

// testRotation is a small, generic rotation (no axis-aligned symmetry).
func testRotation(t *testing.T) *mat.Dense {
	t.Helper()
	rot, err := camera.QuatToRotation([4]float64{0.9, 0.1, -0.2, 0.15})
	require.NoError(t, err)
	return rot
}

func TestNewValidation(t *testing.T) {
	_, err := camera.New(make([]float64, 11))
	assert.ErrorIs(t, err, camera.ErrBadShape)

	_, err = camera.FromMatrix(mat.NewDense(3, 3, nil))
	assert.ErrorIs(t, err, camera.ErrBadShape)

	_, err = camera.FromMatrix(nil)
	assert.ErrorIs(t, err, camera.ErrBadShape)
}

func TestProjectCanonical(t *testing.T) {
	// K = I, R = I, C = 0: projection is the plain homogeneous divide.
	cam, err := camera.FromKRC(
		camera.Intrinsics{Fx: 1, Fy: 1},
		mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}),
		r3.Vector{},
	)
	require.NoError(t, err)

	p := cam.Project(r3.Vector{X: 2, Y: -3, Z: 4})
	assert.InDelta(t, 0.5, p.X, 1e-12)
	assert.InDelta(t, -0.75, p.Y, 1e-12)
}

func TestDecomposeRoundTrip(t *testing.T) {
	var (
		in     = testIntrinsics()
		rot    = testRotation(t)
		center = r3.Vector{X: 0.5, Y: -0.3, Z: -2}
	)
	cam, err := camera.FromKRC(in, rot, center)
	require.NoError(t, err)

	gotIn, gotEx, err := cam.Decompose()
	require.NoError(t, err)

	assert.InDelta(t, in.Fx, gotIn.Fx, 1e-9)
	assert.InDelta(t, in.Fy, gotIn.Fy, 1e-9)
	assert.InDelta(t, in.Skew, gotIn.Skew, 1e-9)
	assert.InDelta(t, in.Cx, gotIn.Cx, 1e-9)
	assert.InDelta(t, in.Cy, gotIn.Cy, 1e-9)
	assert.InDelta(t, in.AspectRatio(), gotIn.AspectRatio(), 1e-9)

	assert.InDelta(t, center.X, gotEx.Center.X, 1e-9)
	assert.InDelta(t, center.Y, gotEx.Center.Y, 1e-9)
	assert.InDelta(t, center.Z, gotEx.Center.Z, 1e-9)

	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.InDelta(t, rot.At(i, j), gotEx.R.At(i, j), 1e-9)
		}
	}
}

func TestDecomposeScaleInvariant(t *testing.T) {
	// A projective camera is defined up to scale; decomposition must not
	// care about the representative.
	cam, err := camera.FromKRC(testIntrinsics(), testRotation(t), r3.Vector{Z: -1})
	require.NoError(t, err)

	scaled := cam.Matrix()
	scaled.Scale(-7.5, scaled)
	cam2, err := camera.FromMatrix(scaled)
	require.NoError(t, err)

	in1, _, err := cam.Decompose()
	require.NoError(t, err)
	in2, _, err := cam2.Decompose()
	require.NoError(t, err)

	assert.InDelta(t, in1.Fx, in2.Fx, 1e-9)
	assert.InDelta(t, in1.Fy, in2.Fy, 1e-9)
	assert.InDelta(t, in1.Skew, in2.Skew, 1e-9)
}

func TestDecomposeSingular(t *testing.T) {
	// Zero left 3x3 block: no K·R factorization exists.
	cam, err := camera.New([]float64{0, 0, 0, 1, 0, 0, 0, 2, 0, 0, 0, 3})
	require.NoError(t, err)

	_, _, err = cam.Decompose()
	assert.ErrorIs(t, err, camera.ErrDecompose)
}

func TestQuatRotationRoundTrip(t *testing.T) {
	cases := [][4]float64{
		{1, 0, 0, 0},
		{0.9, 0.1, -0.2, 0.15},
		{0, 1, 0, 0},  // 180° about x: exercises the trace<=0 branches
		{0, 0, 1, 0},  // 180° about y
		{0, 0, 0, 1},  // 180° about z
		{0.5, 0.5, 0.5, 0.5},
	}
	for _, q := range cases {
		rot, err := camera.QuatToRotation(q)
		require.NoError(t, err)
		got := camera.RotationToQuat(rot)

		// Normalize the reference for comparison; sign convention w >= 0.
		n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
		want := q
		for i := range want {
			want[i] /= n
		}
		if want[0] < 0 {
			for i := range want {
				want[i] = -want[i]
			}
		}
		// q and -q encode the same rotation; align before comparing.
		if want[0]*got[0]+want[1]*got[1]+want[2]*got[2]+want[3]*got[3] < 0 {
			for i := range got {
				got[i] = -got[i]
			}
		}
		for i := 0; i < 4; i++ {
			assert.InDelta(t, want[i], got[i], 1e-9, "component %d of %v", i, q)
		}
	}
}

func TestQuatToRotationZero(t *testing.T) {
	_, err := camera.QuatToRotation([4]float64{})
	assert.ErrorIs(t, err, camera.ErrBadQuaternion)
}

func TestReprojectionError(t *testing.T) {
	cam, err := camera.FromKRC(testIntrinsics(), testRotation(t), r3.Vector{Z: -2})
	require.NoError(t, err)

	w := r3.Vector{X: 0.3, Y: -0.1, Z: 3}
	p := cam.Project(w)

	assert.InDelta(t, 0, cam.ReprojectionError(w, p), 1e-12)

	// Shift the observation by a 3-4-5 triangle: distance must be 5.
	shifted := p
	shifted.X += 3
	shifted.Y += 4
	assert.InDelta(t, 5, cam.ReprojectionError(w, shifted), 1e-12)
}
