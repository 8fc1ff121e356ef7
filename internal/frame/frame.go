package frame

import (
	"errors"
	"fmt"
	"image"

	"github.com/nfnt/resize"
)

// BGRChannels is the sample layout produced by the decoder (bgr24).
const BGRChannels = 3

// Frame is one decoded picture: interleaved 8-bit samples, row-major.
type Frame struct {
	Width    int
	Height   int
	Channels int
	Pix      []byte
}

// New allocates a zeroed frame of the given geometry.
func New(width, height, channels int) *Frame {
	return &Frame{
		Width:    width,
		Height:   height,
		Channels: channels,
		Pix:      make([]byte, width*height*channels),
	}
}

// Size returns the number of bytes one frame of this geometry occupies.
func Size(width, height, channels int) int {
	return width * height * channels
}

// ErrInvalidFrame is returned by Validate for frames that cannot be scored.
var ErrInvalidFrame = errors.New("invalid frame")

// Validate checks the channel layout and that Pix matches the declared
// geometry. Only gray (1), BGR (3) and BGRA (4) layouts are accepted.
func (f *Frame) Validate() error {
	if f == nil {
		return fmt.Errorf("%w: nil frame", ErrInvalidFrame)
	}
	if f.Width <= 0 || f.Height <= 0 {
		return fmt.Errorf("%w: geometry %dx%dx%d", ErrInvalidFrame, f.Width, f.Height, f.Channels)
	}
	switch f.Channels {
	case 1, BGRChannels, 4:
	default:
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidFrame, f.Channels)
	}
	if len(f.Pix) != Size(f.Width, f.Height, f.Channels) {
		return fmt.Errorf("%w: buffer is %d bytes, want %d for %dx%dx%d", ErrInvalidFrame,
			len(f.Pix), Size(f.Width, f.Height, f.Channels), f.Width, f.Height, f.Channels)
	}
	return nil
}

// Gray is a single-channel luma view used for similarity scoring.
type Gray struct {
	Width  int
	Height int
	Pix    []byte
}

// BT.601 luma weights in 14-bit fixed point. They sum to 1<<14, so a pixel
// with equal channels maps to the same gray value.
const (
	lumaB     = 1868
	lumaG     = 9617
	lumaR     = 4899
	lumaShift = 14
	lumaRound = 1 << (lumaShift - 1)
)

// ToGray converts f to luma. Frames with one channel are copied as-is;
// three- and four-channel frames are treated as BGR(A). f must pass Validate.
func ToGray(f *Frame) *Gray {
	n := f.Width * f.Height
	g := &Gray{Width: f.Width, Height: f.Height, Pix: make([]byte, n)}

	if f.Channels == 1 {
		copy(g.Pix, f.Pix)
		return g
	}

	for i, p := 0, 0; i < n; i, p = i+1, p+f.Channels {
		b := int(f.Pix[p])
		gr := int(f.Pix[p+1])
		r := int(f.Pix[p+2])
		g.Pix[i] = byte((b*lumaB + gr*lumaG + r*lumaR + lumaRound) >> lumaShift)
	}
	return g
}

// Image exposes g as an image.Gray sharing the same buffer.
func (g *Gray) Image() *image.Gray {
	return &image.Gray{
		Pix:    g.Pix,
		Stride: g.Width,
		Rect:   image.Rect(0, 0, g.Width, g.Height),
	}
}

// Downscale shrinks g to the given width keeping the aspect ratio. It returns
// g unchanged when width is zero or not smaller than the current width.
func Downscale(g *Gray, width int) *Gray {
	if width <= 0 || width >= g.Width {
		return g
	}

	scaled := resize.Resize(uint(width), 0, g.Image(), resize.Bilinear)
	b := scaled.Bounds()
	out := &Gray{Width: b.Dx(), Height: b.Dy(), Pix: make([]byte, b.Dx()*b.Dy())}

	if gi, ok := scaled.(*image.Gray); ok {
		for y := 0; y < out.Height; y++ {
			row := gi.Pix[y*gi.Stride : y*gi.Stride+out.Width]
			copy(out.Pix[y*out.Width:], row)
		}
		return out
	}

	for y := 0; y < out.Height; y++ {
		for x := 0; x < out.Width; x++ {
			r, _, _, _ := scaled.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out.Pix[y*out.Width+x] = byte(r >> 8)
		}
	}
	return out
}
