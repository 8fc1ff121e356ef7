package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keagan/framesieve/internal/frame"
)

// solid returns a BGR frame whose every sample equals v.
func solid(width, height int, v byte) *frame.Frame {
	f := frame.New(width, height, frame.BGRChannels)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

// withPixel returns a copy of f with pixel (0,0) set to v on every channel.
func withPixel(f *frame.Frame, v byte) *frame.Frame {
	out := frame.New(f.Width, f.Height, f.Channels)
	copy(out.Pix, f.Pix)
	for c := 0; c < f.Channels; c++ {
		out.Pix[c] = v
	}
	return out
}

func TestNewEngine_RejectsInvalidThreshold(t *testing.T) {
	_, err := NewEngine(-1)
	assert.Error(t, err)

	_, err = NewEngine(10, WithAnalysisWidth(-5))
	assert.Error(t, err)

	e, err := NewEngine(0)
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.Threshold())
}

func TestEngine_FirstFrameAlwaysKept(t *testing.T) {
	for _, threshold := range []float64{0, 1, 1000, 1e12} {
		e, err := NewEngine(threshold)
		require.NoError(t, err)
		assert.False(t, e.HasReference())

		d, score, err := e.Decide(solid(2, 2, 42))
		require.NoError(t, err)
		assert.Equal(t, Keep, d)
		assert.Zero(t, score)
		assert.True(t, e.HasReference())
	}
}

func TestEngine_ConstantStreamKeepsOne(t *testing.T) {
	for _, threshold := range []float64{0, 0.5, 1000} {
		e, err := NewEngine(threshold)
		require.NoError(t, err)
		for i := 0; i < 37; i++ {
			_, _, err := e.Decide(solid(4, 3, 77))
			require.NoError(t, err)
		}
		s := e.State()
		assert.Equal(t, 1, s.Kept, "threshold %v", threshold)
		assert.Equal(t, 36, s.Dropped)
		assert.Equal(t, 37, s.Evaluated)
	}
}

func TestEngine_ExactThresholdDrops(t *testing.T) {
	base := solid(2, 2, 0)
	// one pixel off by 10 on a 2x2 frame: MSE = 100/4 = 25
	nudged := withPixel(base, 10)

	e, err := NewEngine(25)
	require.NoError(t, err)
	_, _, err = e.Decide(base)
	require.NoError(t, err)

	d, score, err := e.Decide(nudged)
	require.NoError(t, err)
	assert.Equal(t, 25.0, score)
	assert.Equal(t, Drop, d)

	e, err = NewEngine(24.999)
	require.NoError(t, err)
	_, _, err = e.Decide(base)
	require.NoError(t, err)
	d, _, err = e.Decide(nudged)
	require.NoError(t, err)
	assert.Equal(t, Keep, d)
}

func TestEngine_DropKeepsReference(t *testing.T) {
	e, err := NewEngine(30)
	require.NoError(t, err)

	_, _, err = e.Decide(solid(2, 2, 0))
	require.NoError(t, err)

	// Each step drifts 5 from the previous frame (MSE 25) but the reference
	// stays at 0, so the drift accumulates until it crosses the threshold.
	d, score, err := e.Decide(solid(2, 2, 5))
	require.NoError(t, err)
	assert.Equal(t, Drop, d)
	assert.Equal(t, 25.0, score)

	d, score, err = e.Decide(solid(2, 2, 10))
	require.NoError(t, err)
	assert.Equal(t, Keep, d)
	assert.Equal(t, 100.0, score)

	d, score, err = e.Decide(solid(2, 2, 10))
	require.NoError(t, err)
	assert.Equal(t, Drop, d)
	assert.Zero(t, score)
}

func TestEngine_AlternatingFramesAllKept(t *testing.T) {
	e, err := NewEngine(1000)
	require.NoError(t, err)

	for i := 0; i < 40; i++ {
		v := byte(0)
		if i%2 == 1 {
			v = 255
		}
		d, score, err := e.Decide(solid(2, 2, v))
		require.NoError(t, err)
		assert.Equal(t, Keep, d)
		if i > 0 {
			assert.Equal(t, 65025.0, score)
		}
	}
	assert.Equal(t, 40, e.State().Kept)
	assert.Zero(t, e.State().Dropped)
}

func TestEngine_ShapeMismatchLeavesStateUntouched(t *testing.T) {
	e, err := NewEngine(10)
	require.NoError(t, err)
	_, _, err = e.Decide(solid(2, 2, 0))
	require.NoError(t, err)

	before := e.State()
	_, _, err = e.Decide(solid(3, 2, 0))
	assert.ErrorIs(t, err, ErrShapeMismatch)
	assert.Equal(t, before, e.State())
}

func TestEngine_RejectsMalformedFrames(t *testing.T) {
	e, err := NewEngine(10)
	require.NoError(t, err)

	for _, f := range []*frame.Frame{
		frame.New(2, 2, 2),
		{Width: 2, Height: 2, Channels: 3, Pix: make([]byte, 6)},
	} {
		_, _, err := e.Decide(f)
		assert.ErrorIs(t, err, frame.ErrInvalidFrame)
	}
	assert.False(t, e.HasReference())
	assert.Zero(t, e.State().Evaluated)

	_, _, err = e.Decide(solid(2, 2, 0))
	require.NoError(t, err)
	_, _, err = e.Decide(&frame.Frame{Width: 2, Height: 2, Channels: 3, Pix: make([]byte, 11)})
	assert.ErrorIs(t, err, frame.ErrInvalidFrame)
	assert.Equal(t, 1, e.State().Evaluated)
}

func TestEngine_AnalysisWidth(t *testing.T) {
	e, err := NewEngine(1000, WithAnalysisWidth(8))
	require.NoError(t, err)

	d, _, err := e.Decide(solid(32, 16, 0))
	require.NoError(t, err)
	assert.Equal(t, Keep, d)

	d, score, err := e.Decide(solid(32, 16, 255))
	require.NoError(t, err)
	assert.Equal(t, Keep, d)
	assert.InDelta(t, 65025.0, score, 1)

	d, _, err = e.Decide(solid(32, 16, 255))
	require.NoError(t, err)
	assert.Equal(t, Drop, d)
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "keep", Keep.String())
	assert.Equal(t, "drop", Drop.String())
}
