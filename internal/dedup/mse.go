package dedup

import (
	"errors"
	"fmt"

	"github.com/keagan/framesieve/internal/frame"
)

// ErrShapeMismatch is returned when two frames of different geometry are compared.
var ErrShapeMismatch = errors.New("frame shape mismatch")

// MSE returns the mean squared per-pixel difference between a and b.
func MSE(a, b *frame.Gray) (float64, error) {
	if a.Width != b.Width || a.Height != b.Height {
		return 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrShapeMismatch, a.Width, a.Height, b.Width, b.Height)
	}
	n := a.Width * a.Height
	if n == 0 {
		return 0, nil
	}

	var sum int64
	for i := 0; i < n; i++ {
		d := int(a.Pix[i]) - int(b.Pix[i])
		sum += int64(d * d)
	}
	return float64(sum) / float64(n), nil
}
