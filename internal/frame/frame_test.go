package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func filled(width, height int, b, g, r byte) *Frame {
	f := New(width, height, BGRChannels)
	for i := 0; i < len(f.Pix); i += BGRChannels {
		f.Pix[i], f.Pix[i+1], f.Pix[i+2] = b, g, r
	}
	return f
}

func TestToGray_EqualChannelsPreserveValue(t *testing.T) {
	for _, v := range []byte{0, 1, 17, 128, 254, 255} {
		g := ToGray(filled(3, 2, v, v, v))
		require.Len(t, g.Pix, 6)
		for _, p := range g.Pix {
			assert.Equal(t, v, p, "value %d", v)
		}
	}
}

func TestToGray_Weights(t *testing.T) {
	tests := []struct {
		name    string
		b, g, r byte
		want    byte
	}{
		{"pure blue", 255, 0, 0, 29},
		{"pure green", 0, 255, 0, 150},
		{"pure red", 0, 0, 255, 76},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := ToGray(filled(1, 1, tt.b, tt.g, tt.r))
			assert.Equal(t, tt.want, g.Pix[0])
		})
	}
}

func TestToGray_SingleChannelCopies(t *testing.T) {
	f := &Frame{Width: 2, Height: 1, Channels: 1, Pix: []byte{9, 200}}
	g := ToGray(f)
	assert.Equal(t, []byte{9, 200}, g.Pix)

	g.Pix[0] = 0
	assert.Equal(t, byte(9), f.Pix[0], "gray view must not alias the frame")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, New(4, 2, 3).Validate())
	assert.Error(t, (&Frame{Width: 4, Height: 2, Channels: 3, Pix: make([]byte, 5)}).Validate())
	assert.Error(t, (&Frame{Width: 0, Height: 2, Channels: 3}).Validate())
	assert.NoError(t, New(2, 2, 1).Validate())
	assert.NoError(t, New(2, 2, 4).Validate())

	for _, f := range []*Frame{
		nil,
		New(2, 2, 2),
		New(2, 2, 5),
		{Width: 2, Height: 2, Channels: 3, Pix: make([]byte, 6)},
	} {
		assert.ErrorIs(t, f.Validate(), ErrInvalidFrame)
	}
}

func TestDownscale(t *testing.T) {
	g := ToGray(filled(64, 32, 100, 100, 100))

	same := Downscale(g, 0)
	assert.Same(t, g, same)
	assert.Same(t, g, Downscale(g, 64))
	assert.Same(t, g, Downscale(g, 128))

	small := Downscale(g, 16)
	assert.Equal(t, 16, small.Width)
	assert.Equal(t, 8, small.Height)
	require.Len(t, small.Pix, 16*8)
	for _, p := range small.Pix {
		assert.InDelta(t, 100, int(p), 1)
	}
}
