// Package dlt - consensus problem adapters.
//
// Each adapter binds one model type to consensus.Problem[M]: Fit gathers
// the sampled subset and delegates to the closed-form solver, Residual
// evaluates one correspondence against a candidate. A subset larger than
// the minimal sample (weak-minimum or LMSE scenarios) is solved with
// AllowLMSE.
package dlt

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/katalvlaran/robustfit/camera"
	"github.com/katalvlaran/robustfit/conic"
	"github.com/katalvlaran/robustfit/euclid"
)

// CameraProblem adapts 3D↔2D correspondences for consensus estimation of a
// pinhole camera. Residual: reprojection distance in image units.
type CameraProblem struct {
	world []r3.Vector
	image []r2.Point
	solve SolveOptions
}

// NewCameraProblem validates the parallel sequences and returns the adapter.
// Sequences are copied; the adapter is immutable afterwards.
func NewCameraProblem(world []r3.Vector, image []r2.Point) (*CameraProblem, error) {
	if len(world) != len(image) {
		return nil, ErrSizeMismatch
	}

	return &CameraProblem{
		world: append([]r3.Vector(nil), world...),
		image: append([]r2.Point(nil), image...),
		solve: DefaultSolveOptions(),
	}, nil
}

// WithSolveOptions returns a copy of the adapter using o for every Fit.
// The per-subset LMSE upgrade for oversized subsets still applies on top.
func (p *CameraProblem) WithSolveOptions(o SolveOptions) *CameraProblem {
	c := *p
	c.solve = o
	return &c
}

// Len returns the correspondence count.
func (p *CameraProblem) Len() int { return len(p.world) }

// MinSampleSize returns MinCameraPoints.
func (p *CameraProblem) MinSampleSize() int { return MinCameraPoints }

// WeakMinSampleSize returns MinCameraPoints: the 11-dof camera needs six
// points regardless; no weaker form exists.
func (p *CameraProblem) WeakMinSampleSize() int { return MinCameraPoints }

// Fit solves the DLT over the given subset.
func (p *CameraProblem) Fit(indices []int) (camera.Camera, error) {
	var (
		w  = make([]r3.Vector, len(indices))
		im = make([]r2.Point, len(indices))
	)
	for i, idx := range indices {
		w[i] = p.world[idx]
		im[i] = p.image[idx]
	}
	o := p.solve
	o.AllowLMSE = o.AllowLMSE || len(indices) > MinCameraPoints

	return FitCamera(w, im, o)
}

// Residual returns the reprojection distance of correspondence i.
func (p *CameraProblem) Residual(m camera.Camera, i int) float64 {
	return m.ReprojectionError(p.world[i], p.image[i])
}

// HomographyProblem adapts 2D point pairs for consensus estimation of a
// homography. Residual: forward transfer distance.
type HomographyProblem struct {
	src, dst []r2.Point
	solve    SolveOptions
}

// NewHomographyProblem validates the parallel sequences and returns the adapter.
func NewHomographyProblem(src, dst []r2.Point) (*HomographyProblem, error) {
	if len(src) != len(dst) {
		return nil, ErrSizeMismatch
	}

	return &HomographyProblem{
		src:   append([]r2.Point(nil), src...),
		dst:   append([]r2.Point(nil), dst...),
		solve: DefaultSolveOptions(),
	}, nil
}

// WithSolveOptions returns a copy of the adapter using o for every Fit.
func (p *HomographyProblem) WithSolveOptions(o SolveOptions) *HomographyProblem {
	c := *p
	c.solve = o
	return &c
}

func (p *HomographyProblem) Len() int               { return len(p.src) }
func (p *HomographyProblem) MinSampleSize() int     { return MinHomographyPoints }
func (p *HomographyProblem) WeakMinSampleSize() int { return MinHomographyPoints }

// Fit solves the homography DLT over the given subset.
func (p *HomographyProblem) Fit(indices []int) (Homography, error) {
	var (
		s = make([]r2.Point, len(indices))
		d = make([]r2.Point, len(indices))
	)
	for i, idx := range indices {
		s[i] = p.src[idx]
		d[i] = p.dst[idx]
	}
	o := p.solve
	o.AllowLMSE = o.AllowLMSE || len(indices) > MinHomographyPoints

	return FitHomography(s, d, o)
}

// Residual returns the forward transfer distance of pair i.
func (p *HomographyProblem) Residual(m Homography, i int) float64 {
	return m.TransferError(p.src[i], p.dst[i])
}

// RigidProblem adapts 3D point pairs for consensus estimation of a rigid
// motion. Residual: |R·in + t − out|.
type RigidProblem struct {
	in, out []r3.Vector
	solve   SolveOptions
}

// NewRigidProblem validates the parallel sequences and returns the adapter.
func NewRigidProblem(in, out []r3.Vector) (*RigidProblem, error) {
	if len(in) != len(out) {
		return nil, ErrSizeMismatch
	}

	return &RigidProblem{
		in:    append([]r3.Vector(nil), in...),
		out:   append([]r3.Vector(nil), out...),
		solve: DefaultSolveOptions(),
	}, nil
}

// WithSolveOptions returns a copy of the adapter using o for every Fit.
func (p *RigidProblem) WithSolveOptions(o SolveOptions) *RigidProblem {
	c := *p
	c.solve = o
	return &c
}

func (p *RigidProblem) Len() int               { return len(p.in) }
func (p *RigidProblem) MinSampleSize() int     { return MinRigidPoints }
func (p *RigidProblem) WeakMinSampleSize() int { return MinRigidPoints }

// Fit solves the Kabsch alignment over the given subset.
func (p *RigidProblem) Fit(indices []int) (euclid.Transform, error) {
	var (
		in  = make([]r3.Vector, len(indices))
		out = make([]r3.Vector, len(indices))
	)
	for i, idx := range indices {
		in[i] = p.in[idx]
		out[i] = p.out[idx]
	}

	return FitRigid(in, out, p.solve)
}

// Residual returns the transform distance of pair i.
func (p *RigidProblem) Residual(m euclid.Transform, i int) float64 {
	return m.TransformError(p.in[i], p.out[i])
}

// ConicProblem adapts 2D points for consensus estimation of a conic.
// Residual: Sampson distance.
type ConicProblem struct {
	pts   []r2.Point
	solve SolveOptions
}

// NewConicProblem copies the points and returns the adapter.
func NewConicProblem(pts []r2.Point) *ConicProblem {
	return &ConicProblem{
		pts:   append([]r2.Point(nil), pts...),
		solve: DefaultSolveOptions(),
	}
}

// WithSolveOptions returns a copy of the adapter using o for every Fit.
func (p *ConicProblem) WithSolveOptions(o SolveOptions) *ConicProblem {
	c := *p
	c.solve = o
	return &c
}

func (p *ConicProblem) Len() int               { return len(p.pts) }
func (p *ConicProblem) MinSampleSize() int     { return MinConicPoints }
func (p *ConicProblem) WeakMinSampleSize() int { return MinConicPoints }

// Fit solves the conic null-vector system over the given subset.
func (p *ConicProblem) Fit(indices []int) (conic.Conic, error) {
	pts := make([]r2.Point, len(indices))
	for i, idx := range indices {
		pts[i] = p.pts[idx]
	}
	o := p.solve
	o.AllowLMSE = o.AllowLMSE || len(indices) > MinConicPoints

	return FitConic(pts, o)
}

// Residual returns the Sampson distance of point i.
func (p *ConicProblem) Residual(m conic.Conic, i int) float64 {
	return m.SampsonDistance(p.pts[i])
}
