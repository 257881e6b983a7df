package refine

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/robustfit/camera"
)

// cameraParamCount is the decomposed camera parameterization: five
// intrinsics, a rotation quaternion and the camera center.
const cameraParamCount = 12

// CameraRefiner refines a pinhole camera over an inlier subset of its
// 3D↔2D correspondences. Implements consensus.Refiner[camera.Camera].
type CameraRefiner struct {
	world []r3.Vector
	image []r2.Point

	mode    Mode
	keepCov bool
	sugg    Suggestions
}

// NewCameraRefiner validates and builds a refiner over the full
// correspondence set; Refine later selects the inlier subset by index.
// keepCov is honored only in Full mode — Fast mode never produces a
// covariance.
func NewCameraRefiner(world []r3.Vector, image []r2.Point, mode Mode, keepCov bool, sugg Suggestions) (*CameraRefiner, error) {
	if len(world) != len(image) {
		return nil, ErrSizeMismatch
	}
	if mode != Fast && mode != Full {
		return nil, ErrBadMode
	}
	if !sugg.Ramp.valid() {
		return nil, ErrBadRamp
	}

	return &CameraRefiner{
		world:   append([]r3.Vector(nil), world...),
		image:   append([]r2.Point(nil), image...),
		mode:    mode,
		keepCov: keepCov,
		sugg:    sugg,
	}, nil
}

// Refine re-estimates the camera by LM over the inlier correspondences.
//
// Parameter vector: [fx, fy, skew, cx, cy, qw, qx, qy, qz, Cx, Cy, Cz],
// seeded from the consensus model's decomposition. Residuals: two
// reprojection components per inlier, one quaternion gauge term, and —
// when enabled — the weighted suggestion terms annealed over the ramp.
//
// Errors: ErrNoInliers, ErrDecompose, or the LM driver's error; the
// consensus engine maps any of them to "keep the unrefined model".
func (r *CameraRefiner) Refine(model camera.Camera, inliers []int) (camera.Camera, *mat.SymDense, error) {
	if len(inliers) < 6 {
		return camera.Camera{}, nil, ErrNoInliers
	}

	in, ex, err := model.Decompose()
	if err != nil {
		return camera.Camera{}, nil, errors.Wrap(ErrDecompose, err.Error())
	}
	q := ex.RotationQuat()

	x := []float64{
		in.Fx, in.Fy, in.Skew, in.Cx, in.Cy,
		q[0], q[1], q[2], q[3],
		ex.Center.X, ex.Center.Y, ex.Center.Z,
	}

	dataSize := 2 * len(inliers)

	if !r.sugg.enabled() {
		if x, err = runLM(r.residualFn(inliers, 0), x, dataSize+1, r.mode); err != nil {
			return camera.Camera{}, nil, err
		}
	} else {
		size := dataSize + 1 + r.suggestionTerms()
		for _, w := range rampWeights(r.sugg.Ramp) {
			if x, err = runLM(r.residualFn(inliers, w), x, size, r.mode); err != nil {
				return camera.Camera{}, nil, err
			}
		}
	}

	refined, err := cameraFromParams(x)
	if err != nil {
		return camera.Camera{}, nil, err
	}

	var cov *mat.SymDense
	if r.mode == Full && r.keepCov {
		// Gauge row included: without it JᵀJ is singular along the
		// quaternion scale for any data.
		cov = covariance(r.residualFn(inliers, 0), x, dataSize+1)
	}

	return refined, cov, nil
}

// suggestionTerms counts the residual components the enabled suggestions add.
func (r *CameraRefiner) suggestionTerms() int {
	n := 0
	if r.sugg.UseSkew {
		n++
	}
	if r.sugg.UseFx {
		n++
	}
	if r.sugg.UseFy {
		n++
	}
	if r.sugg.UseAspectRatio {
		n++
	}
	if r.sugg.UsePrincipalPoint {
		n += 2
	}
	if r.sugg.UseRotation {
		n += 4
	}
	if r.sugg.UseCenter {
		n += 3
	}

	return n
}

// dataResidualFn yields the pure reprojection residuals (two per inlier),
// used both inside the fit and for the covariance Jacobian.
func (r *CameraRefiner) dataResidualFn(inliers []int) residualFn {
	return func(dst, x []float64) {
		cam, err := cameraFromParams(x)
		if err != nil {
			// A transiently invalid parameter vector (zero quaternion)
			// gets a flat high-cost response instead of a panic.
			for i := range dst {
				dst[i] = 1e12
			}
			return
		}
		for k, idx := range inliers {
			pr := cam.Project(r.world[idx])
			dst[2*k] = pr.X - r.image[idx].X
			dst[2*k+1] = pr.Y - r.image[idx].Y
		}
	}
}

// residualFn stacks data residuals, the quaternion gauge term and the
// weighted suggestion terms at suggestion weight w.
func (r *CameraRefiner) residualFn(inliers []int, w float64) residualFn {
	data := r.dataResidualFn(inliers)
	dataSize := 2 * len(inliers)

	return func(dst, x []float64) {
		data(dst[:dataSize], x)

		qn := x[5]*x[5] + x[6]*x[6] + x[7]*x[7] + x[8]*x[8]
		dst[dataSize] = quatGaugeWeight * (qn - 1)

		if w == 0 {
			return
		}
		i := dataSize + 1
		if r.sugg.UseSkew {
			dst[i] = w * (r.sugg.Skew - x[2])
			i++
		}
		if r.sugg.UseFx {
			dst[i] = w * (r.sugg.Fx - x[0])
			i++
		}
		if r.sugg.UseFy {
			dst[i] = w * (r.sugg.Fy - x[1])
			i++
		}
		if r.sugg.UseAspectRatio {
			dst[i] = w * (r.sugg.AspectRatio - x[1]/x[0])
			i++
		}
		if r.sugg.UsePrincipalPoint {
			dst[i] = w * (r.sugg.PrincipalPoint.X - x[3])
			dst[i+1] = w * (r.sugg.PrincipalPoint.Y - x[4])
			i += 2
		}
		if r.sugg.UseRotation {
			q := []float64{x[5], x[6], x[7], x[8]}
			alignQuatSign(q, r.sugg.Rotation)
			for k := 0; k < 4; k++ {
				dst[i+k] = w * (r.sugg.Rotation[k] - q[k])
			}
			i += 4
		}
		if r.sugg.UseCenter {
			dst[i] = w * (r.sugg.Center.X - x[9])
			dst[i+1] = w * (r.sugg.Center.Y - x[10])
			dst[i+2] = w * (r.sugg.Center.Z - x[11])
		}
	}
}

// cameraFromParams rebuilds a Camera from the 12-parameter vector.
func cameraFromParams(x []float64) (camera.Camera, error) {
	rot, err := camera.QuatToRotation([4]float64{x[5], x[6], x[7], x[8]})
	if err != nil {
		return camera.Camera{}, err
	}

	return camera.FromKRC(
		camera.Intrinsics{Fx: x[0], Fy: x[1], Skew: x[2], Cx: x[3], Cy: x[4]},
		rot,
		r3.Vector{X: x[9], Y: x[10], Z: x[11]},
	)
}
