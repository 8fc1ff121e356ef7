package dedup

import (
	"errors"
	"fmt"
)

var (
	// ErrDegenerateRate is returned when no frames were evaluated, so the
	// kept ratio is undefined.
	ErrDegenerateRate = errors.New("no evaluated frames to derive an output frame rate from")

	// ErrInvalidRate is returned for a non-positive source rate or stride.
	ErrInvalidRate = errors.New("invalid frame rate inputs")
)

// Reconcile returns the output frame rate. With recompute off it is the
// source rate. Otherwise the source rate is scaled by kept/evaluated, where
// evaluated is totalSourceFrames/skipFrames in real division, so nominal
// duration stays roughly the same.
func Reconcile(sourceFPS float64, totalSourceFrames, keptFrames, skipFrames int, recompute bool) (float64, error) {
	if sourceFPS <= 0 {
		return 0, fmt.Errorf("%w: source fps %v", ErrInvalidRate, sourceFPS)
	}
	if !recompute {
		return sourceFPS, nil
	}
	if skipFrames < 1 {
		return 0, fmt.Errorf("%w: skip frames %d", ErrInvalidRate, skipFrames)
	}

	evaluated := float64(totalSourceFrames) / float64(skipFrames)
	if evaluated == 0 {
		return 0, ErrDegenerateRate
	}
	if keptFrames <= 0 {
		return 0, fmt.Errorf("%w: no kept frames", ErrDegenerateRate)
	}
	ratio := float64(keptFrames) / evaluated
	return sourceFPS * ratio, nil
}
