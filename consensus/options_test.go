package consensus_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/robustfit/consensus"
)

func TestNewRejectsBadOptions(t *testing.T) {
	base := consensus.DefaultOptions()

	cases := []struct {
		name   string
		mutate func(*consensus.Options)
		want   error
	}{
		{"unknown method", func(o *consensus.Options) { o.Method = consensus.Method(99) }, consensus.ErrBadMethod},
		{"zero threshold", func(o *consensus.Options) { o.Threshold = 0 }, consensus.ErrBadThreshold},
		{"negative threshold", func(o *consensus.Options) { o.Threshold = -1 }, consensus.ErrBadThreshold},
		{"zero stop threshold", func(o *consensus.Options) {
			o.Method = consensus.LMedS
			o.StopThreshold = 0
		}, consensus.ErrBadStopThreshold},
		{"confidence at zero", func(o *consensus.Options) { o.Confidence = 0 }, consensus.ErrBadConfidence},
		{"confidence at one", func(o *consensus.Options) { o.Confidence = 1 }, consensus.ErrBadConfidence},
		{"zero max iterations", func(o *consensus.Options) { o.MaxIterations = 0 }, consensus.ErrBadMaxIterations},
		{"progress delta above one", func(o *consensus.Options) { o.ProgressDelta = 1.5 }, consensus.ErrBadProgressDelta},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			o := base
			tc.mutate(&o)
			_, err := consensus.New[lineModel](nil, o)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestThresholdNotRequiredForMedianMethods(t *testing.T) {
	o := consensus.DefaultOptions()
	o.Method = consensus.LMedS
	o.Threshold = 0 // irrelevant for the median family

	_, err := consensus.New[lineModel](nil, o)
	assert.NoError(t, err)
}

func TestSetterValidation(t *testing.T) {
	e, err := consensus.New[lineModel](nil, consensus.DefaultOptions())
	require.NoError(t, err)

	assert.ErrorIs(t, e.SetThreshold(0), consensus.ErrBadThreshold)
	assert.ErrorIs(t, e.SetStopThreshold(-1), consensus.ErrBadStopThreshold)
	assert.ErrorIs(t, e.SetConfidence(1), consensus.ErrBadConfidence)
	assert.ErrorIs(t, e.SetConfidence(0), consensus.ErrBadConfidence)
	assert.ErrorIs(t, e.SetMaxIterations(0), consensus.ErrBadMaxIterations)
	assert.ErrorIs(t, e.SetProgressDelta(-0.1), consensus.ErrBadProgressDelta)

	// Failed setters leave the configuration untouched.
	assert.Equal(t, consensus.DefaultOptions(), e.Options())

	require.NoError(t, e.SetConfidence(0.9))
	assert.Equal(t, 0.9, e.Options().Confidence)

	bad := consensus.DefaultOptions()
	bad.MaxIterations = -5
	assert.ErrorIs(t, e.SetOptions(bad), consensus.ErrBadMaxIterations)
}

func TestMethodString(t *testing.T) {
	assert.Equal(t, "RANSAC", consensus.RANSAC.String())
	assert.Equal(t, "MSAC", consensus.MSAC.String())
	assert.Equal(t, "LMedS", consensus.LMedS.String())
	assert.Equal(t, "PROSAC", consensus.PROSAC.String())
	assert.Equal(t, "PROMedS", consensus.PROMedS.String())
	assert.Equal(t, "unknown", consensus.Method(42).String())
}
