package consensus_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/katalvlaran/robustfit/consensus"
)

// lineModel is the normalized implicit line a·x + b·y + c = 0 (a² + b² = 1)
// used as the test-local model.
type lineModel struct{ a, b, c float64 }

var errDegenerateSample = errors.New("identical sample points")

// lineProblem fits a line through two sampled points; residual is the
// perpendicular point-to-line distance.
type lineProblem struct{ xs, ys []float64 }

func (p *lineProblem) Len() int               { return len(p.xs) }
func (p *lineProblem) MinSampleSize() int     { return 2 }
func (p *lineProblem) WeakMinSampleSize() int { return 2 }

func (p *lineProblem) Fit(indices []int) (lineModel, error) {
	var (
		i, j = indices[0], indices[1]
		dx   = p.xs[j] - p.xs[i]
		dy   = p.ys[j] - p.ys[i]
	)
	norm := math.Hypot(dx, dy)
	if norm == 0 {
		return lineModel{}, errDegenerateSample
	}
	m := lineModel{a: dy / norm, b: -dx / norm}
	m.c = -(m.a*p.xs[i] + m.b*p.ys[i])

	return m, nil
}

func (p *lineProblem) Residual(m lineModel, i int) float64 {
	return math.Abs(m.a*p.xs[i] + m.b*p.ys[i] + m.c)
}

// contaminatedLine builds 20 exact points on y = 2x + 1 followed by 5
// gross outliers.
func contaminatedLine() *lineProblem {
	p := &lineProblem{}
	for i := 0; i < 20; i++ {
		x := float64(i)
		p.xs = append(p.xs, x)
		p.ys = append(p.ys, 2*x+1)
	}
	for i := 0; i < 5; i++ {
		x := float64(i)
		p.xs = append(p.xs, x)
		p.ys = append(p.ys, 2*x+1+50+7*float64(i))
	}

	return p
}

// lineScores favors the 20 leading inliers for the quality-guided methods.
func lineScores(p *lineProblem) []float64 {
	s := make([]float64, p.Len())
	for i := range s {
		if i < 20 {
			s[i] = 1
		} else {
			s[i] = 0.1
		}
	}

	return s
}

// assertLineRecovered checks the mask splits inliers from outliers and the
// model matches y = 2x + 1 up to sign.
func assertLineRecovered(t *testing.T, res consensus.Result[lineModel]) {
	t.Helper()
	assert.Equal(t, 20, res.Inliers.NumInliers)
	for i, in := range res.Inliers.Mask {
		assert.Equal(t, i < 20, in, "mask at %d", i)
	}
	// 2x − y + 1 = 0 normalized: |a| = 2/√5, |b| = 1/√5.
	assert.InDelta(t, 2.0/math.Sqrt(5), math.Abs(res.Model.a), 1e-12)
	assert.InDelta(t, 1.0/math.Sqrt(5), math.Abs(res.Model.b), 1e-12)
}

func TestEstimateRANSAC(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Threshold = 0.5
	o.Seed = 17

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)

	res, err := e.Estimate()
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.False(t, res.Refined)
	assertLineRecovered(t, res)

	require.NotNil(t, e.Inliers())
	assert.Equal(t, res.Inliers.NumInliers, e.Inliers().NumInliers)
	assert.Equal(t, consensus.StateIdle, e.State())
}

func TestEstimateMSAC(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Method = consensus.MSAC
	o.Threshold = 0.5
	o.Seed = 23

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)

	res, err := e.Estimate()
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assertLineRecovered(t, res)
}

func TestEstimateLMedS(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Method = consensus.LMedS
	o.Seed = 31

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)

	res, err := e.Estimate()
	require.NoError(t, err)
	// Exact inliers give a zero winning median, so the early stop fires.
	assert.True(t, res.Converged)
	assert.InDelta(t, 0, res.Inliers.Median, 1e-12)
	assertLineRecovered(t, res)
}

func TestEstimatePROSAC(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Method = consensus.PROSAC
	o.Threshold = 0.5
	o.Seed = 41

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)
	require.NoError(t, e.SetQualityScores(lineScores(p)))

	res, err := e.Estimate()
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assertLineRecovered(t, res)
}

func TestEstimatePROMedS(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Method = consensus.PROMedS
	o.Seed = 43

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)
	require.NoError(t, e.SetQualityScores(lineScores(p)))

	res, err := e.Estimate()
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assertLineRecovered(t, res)
}

func TestEstimateKeepInliersDisabled(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Threshold = 0.5
	o.KeepInliers = false

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)

	res, err := e.Estimate()
	require.NoError(t, err)
	// The result keeps its own copy even when the estimator drops the snapshot.
	assert.Equal(t, 20, res.Inliers.NumInliers)
	assert.Nil(t, e.Inliers())
}

func TestEstimateDeterministicReplay(t *testing.T) {
	o := consensus.DefaultOptions()
	o.Threshold = 0.5
	o.Seed = 101

	run := func() consensus.Result[lineModel] {
		e, err := consensus.New[lineModel](contaminatedLine(), o)
		require.NoError(t, err)
		res, err := e.Estimate()
		require.NoError(t, err)
		return res
	}

	a, b := run(), run()
	assert.Equal(t, a.Iterations, b.Iterations)
	assert.Equal(t, a.Inliers.Mask, b.Inliers.Mask)
	assert.Equal(t, a.Model, b.Model)
}

func TestEstimateLocksMutationDuringRun(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Threshold = 0.5

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)

	// Mutation is open before the run.
	require.NoError(t, e.SetThreshold(0.5))

	var (
		lockErr  error
		seenBusy bool
	)
	require.NoError(t, e.SetCallbacks(consensus.Callbacks{
		OnIteration: func(consensus.Progress) {
			if lockErr == nil {
				lockErr = e.SetThreshold(2)
			}
			seenBusy = seenBusy || e.State() == consensus.StateEstimating
		},
	}))

	_, err = e.Estimate()
	require.NoError(t, err)

	assert.ErrorIs(t, lockErr, consensus.ErrLocked)
	assert.True(t, seenBusy)

	// And open again afterwards.
	assert.NoError(t, e.SetThreshold(0.5))
	assert.NoError(t, e.SetMaxIterations(100))
	assert.NoError(t, e.SetConfidence(0.95))
	assert.NoError(t, e.SetProgressDelta(0.1))
}

func TestEstimateCallbackCadence(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Threshold = 0.5
	o.ProgressDelta = 0 // report every improvement

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)

	var (
		starts, ends, iters int
		fractions           []float64
	)
	require.NoError(t, e.SetCallbacks(consensus.Callbacks{
		OnStart:     func(consensus.Progress) { starts++ },
		OnEnd:       func(consensus.Progress) { ends++ },
		OnIteration: func(consensus.Progress) { iters++ },
		OnProgress:  func(pr consensus.Progress) { fractions = append(fractions, pr.Fraction) },
	}))

	res, err := e.Estimate()
	require.NoError(t, err)

	assert.Equal(t, 1, starts)
	assert.Equal(t, 1, ends)
	assert.Equal(t, res.Iterations, iters)
	for i := 1; i < len(fractions); i++ {
		assert.GreaterOrEqual(t, fractions[i], fractions[i-1])
		assert.LessOrEqual(t, fractions[i], 1.0)
	}
}

// parabolaProblem is a lineProblem whose points admit no line with more
// than two members, keeping the adaptive bound pinned at the cap.
func parabolaProblem(n int) *lineProblem {
	p := &lineProblem{}
	for i := 0; i < n; i++ {
		x := float64(i)
		p.xs = append(p.xs, x)
		p.ys = append(p.ys, x*x)
	}

	return p
}

func TestEstimateIterationBudget(t *testing.T) {
	o := consensus.DefaultOptions()
	o.Threshold = 1e-9
	o.MaxIterations = 50
	o.FailOnMaxIterations = true

	e, err := consensus.New[lineModel](parabolaProblem(30), o)
	require.NoError(t, err)

	_, err = e.Estimate()
	assert.ErrorIs(t, err, consensus.ErrIterationBudget)

	// Without the strict flag the same run is a soft non-converged result.
	o.FailOnMaxIterations = false
	e, err = consensus.New[lineModel](parabolaProblem(30), o)
	require.NoError(t, err)

	res, err := e.Estimate()
	require.NoError(t, err)
	assert.False(t, res.Converged)
	assert.Equal(t, 50, res.Iterations)
	assert.Equal(t, 2, res.Inliers.NumInliers)
}

// failingProblem rejects every sample as degenerate.
type failingProblem struct{ lineProblem }

func (p *failingProblem) Fit([]int) (lineModel, error) {
	return lineModel{}, errDegenerateSample
}

func TestEstimateAllSamplesDegenerate(t *testing.T) {
	fp := &failingProblem{lineProblem: *contaminatedLine()}
	o := consensus.DefaultOptions()
	o.Threshold = 0.5
	o.MaxIterations = 10

	e, err := consensus.New[lineModel](fp, o)
	require.NoError(t, err)

	_, err = e.Estimate()
	assert.ErrorIs(t, err, consensus.ErrEstimationFailed)
}

func TestEstimateCallbacksPairOnFailure(t *testing.T) {
	countRun := func(t *testing.T, e *consensus.Estimator[lineModel], wantErr error) {
		t.Helper()
		var starts, ends int
		require.NoError(t, e.SetCallbacks(consensus.Callbacks{
			OnStart: func(consensus.Progress) { starts++ },
			OnEnd:   func(consensus.Progress) { ends++ },
		}))
		_, err := e.Estimate()
		assert.ErrorIs(t, err, wantErr)
		// Failed runs still close the bracket they opened.
		assert.Equal(t, 1, starts)
		assert.Equal(t, 1, ends)
	}

	t.Run("no acceptable candidate", func(t *testing.T) {
		fp := &failingProblem{lineProblem: *contaminatedLine()}
		o := consensus.DefaultOptions()
		o.Threshold = 0.5
		o.MaxIterations = 10

		e, err := consensus.New[lineModel](fp, o)
		require.NoError(t, err)
		countRun(t, e, consensus.ErrEstimationFailed)
	})

	t.Run("iteration budget", func(t *testing.T) {
		o := consensus.DefaultOptions()
		o.Threshold = 1e-9
		o.MaxIterations = 50
		o.FailOnMaxIterations = true

		e, err := consensus.New[lineModel](parabolaProblem(30), o)
		require.NoError(t, err)
		countRun(t, e, consensus.ErrIterationBudget)
	})
}

func TestEstimateBoundNeverLoosens(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Method = consensus.MSAC
	o.Threshold = 0.5

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)

	// A truncated-loss winner may carry fewer inliers than the model it
	// replaced; the adaptive bound must still only ever tighten.
	var bounds []int
	require.NoError(t, e.SetCallbacks(consensus.Callbacks{
		OnIteration: func(pr consensus.Progress) { bounds = append(bounds, pr.IterationBound) },
	}))

	_, err = e.Estimate()
	require.NoError(t, err)
	require.NotEmpty(t, bounds)
	for i := 1; i < len(bounds); i++ {
		assert.LessOrEqual(t, bounds[i], bounds[i-1], "iteration %d", i)
	}
}

func TestEstimateReadiness(t *testing.T) {
	o := consensus.DefaultOptions()
	o.Threshold = 0.5

	// Nil problem.
	e, err := consensus.New[lineModel](nil, o)
	require.NoError(t, err)
	assert.False(t, e.Ready())
	_, err = e.Estimate()
	assert.ErrorIs(t, err, consensus.ErrNilProblem)

	// Too little data.
	tiny := &lineProblem{xs: []float64{1}, ys: []float64{2}}
	require.NoError(t, e.SetProblem(tiny))
	_, err = e.Estimate()
	assert.ErrorIs(t, err, consensus.ErrInsufficientData)

	// Quality-guided method without scores.
	full := contaminatedLine()
	require.NoError(t, e.SetProblem(full))
	o.Method = consensus.PROSAC
	require.NoError(t, e.SetOptions(o))
	_, err = e.Estimate()
	assert.ErrorIs(t, err, consensus.ErrScoresRequired)

	// Score length mismatch.
	require.NoError(t, e.SetQualityScores([]float64{1, 2, 3}))
	_, err = e.Estimate()
	assert.ErrorIs(t, err, consensus.ErrScoreMismatch)

	require.NoError(t, e.SetQualityScores(lineScores(full)))
	assert.True(t, e.Ready())
}

// meanProblem estimates the mean of scalar samples; it advertises a weak
// minimum of one sample.
type meanProblem struct{ vs []float64 }

func (p *meanProblem) Len() int               { return len(p.vs) }
func (p *meanProblem) MinSampleSize() int     { return 2 }
func (p *meanProblem) WeakMinSampleSize() int { return 1 }

func (p *meanProblem) Fit(indices []int) (float64, error) {
	sum := 0.0
	for _, i := range indices {
		sum += p.vs[i]
	}

	return sum / float64(len(indices)), nil
}

func (p *meanProblem) Residual(m float64, i int) float64 { return math.Abs(p.vs[i] - m) }

func TestEstimateWeakMinimum(t *testing.T) {
	p := &meanProblem{vs: []float64{4.2}}
	o := consensus.DefaultOptions()
	o.Threshold = 0.5

	e, err := consensus.New[float64](p, o)
	require.NoError(t, err)
	_, err = e.Estimate()
	assert.ErrorIs(t, err, consensus.ErrInsufficientData)

	o.AllowWeakMinimum = true
	require.NoError(t, e.SetOptions(o))

	res, err := e.Estimate()
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.Equal(t, 4.2, res.Model)
	assert.Equal(t, 1, res.Inliers.NumInliers)
}

// stubRefiner returns a canned refinement outcome.
type stubRefiner struct {
	model      lineModel
	cov        *mat.SymDense
	err        error
	gotInliers []int
}

func (r *stubRefiner) Refine(_ lineModel, inliers []int) (lineModel, *mat.SymDense, error) {
	r.gotInliers = append([]int(nil), inliers...)
	return r.model, r.cov, r.err
}

func TestEstimateRefinerIntegration(t *testing.T) {
	p := contaminatedLine()
	o := consensus.DefaultOptions()
	o.Threshold = 0.5
	o.Refine = true

	refined := lineModel{a: 0.6, b: -0.8, c: 0.2}
	r := &stubRefiner{model: refined, cov: mat.NewSymDense(3, nil)}

	e, err := consensus.New[lineModel](p, o)
	require.NoError(t, err)
	require.NoError(t, e.SetRefiner(r))

	res, err := e.Estimate()
	require.NoError(t, err)
	assert.True(t, res.Refined)
	assert.Equal(t, refined, res.Model)
	assert.NotNil(t, res.Covariance)
	assert.Len(t, r.gotInliers, 20, "refiner must receive the winning inlier indices")

	// A failing refiner falls back to the consensus model.
	require.NoError(t, e.SetRefiner(&stubRefiner{err: errDegenerateSample}))
	res, err = e.Estimate()
	require.NoError(t, err)
	assert.False(t, res.Refined)
	assert.Nil(t, res.Covariance)
	assertLineRecovered(t, res)
}
