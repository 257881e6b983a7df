// Package dlt_test - shared fixtures for the solver tests: a ground-truth
// camera, a non-coplanar synthetic scene and its exact projections.
package dlt_test

import (
	"math/rand"
	"testing"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/robustfit/camera"
	"github.com/katalvlaran/robustfit/euclid"
)

// gtIntrinsics is the ground-truth calibration used across the tests.
func gtIntrinsics() camera.Intrinsics {
	return camera.Intrinsics{Fx: 800, Fy: 780, Skew: 0.25, Cx: 320, Cy: 240}
}

// gtCamera builds the ground-truth camera: mild rotation, center behind
// the scene so every generated point projects finitely.
func gtCamera(t *testing.T) camera.Camera {
	t.Helper()
	rot, err := camera.QuatToRotation([4]float64{0.98, 0.05, -0.08, 0.03})
	require.NoError(t, err)
	cam, err := camera.FromKRC(gtIntrinsics(), rot, r3.Vector{X: 0.2, Y: -0.1, Z: -3})
	require.NoError(t, err)
	return cam
}

// gtMotion is the ground-truth rigid motion for the alignment tests.
func gtMotion(t *testing.T) euclid.Transform {
	t.Helper()
	tr, err := euclid.New([4]float64{0.9, 0.2, -0.3, 0.1}, r3.Vector{X: 1.2, Y: -0.5, Z: 0.8})
	require.NoError(t, err)
	return tr
}

// scenePoints generates n reproducible, non-coplanar 3D points in front of
// the camera (x, y in [-1, 1], z in [2, 6]).
func scenePoints(n int, seed int64) []r3.Vector {
	rng := rand.New(rand.NewSource(seed))
	pts := make([]r3.Vector, n)
	for i := range pts {
		pts[i] = r3.Vector{
			X: rng.Float64()*2 - 1,
			Y: rng.Float64()*2 - 1,
			Z: 2 + rng.Float64()*4,
		}
	}
	return pts
}

// project maps every scene point through the camera.
func project(cam camera.Camera, pts []r3.Vector) []r2.Point {
	out := make([]r2.Point, len(pts))
	for i, p := range pts {
		out[i] = cam.Project(p)
	}
	return out
}

// transformAll maps every point through the rigid motion.
func transformAll(tr euclid.Transform, pts []r3.Vector) []r3.Vector {
	out := make([]r3.Vector, len(pts))
	for i, p := range pts {
		out[i] = tr.Apply(p)
	}
	return out
}
