package dedup

import (
	"fmt"
	"math"

	"github.com/keagan/framesieve/internal/frame"
)

// Decision is the outcome for one evaluated frame.
type Decision int

const (
	Drop Decision = iota
	Keep
)

func (d Decision) String() string {
	if d == Keep {
		return "keep"
	}
	return "drop"
}

// RunState is the state threaded through a single run of the engine.
type RunState struct {
	Evaluated int
	Kept      int
	Dropped   int

	reference *frame.Gray
}

// Engine applies the keep/drop policy to frames offered in stream order.
// It is not safe for concurrent use.
type Engine struct {
	threshold     float64
	analysisWidth int
	state         RunState
}

// Option configures an Engine.
type Option func(*Engine)

// WithAnalysisWidth downscales grayscale views to width pixels before scoring.
// Zero keeps full resolution.
func WithAnalysisWidth(width int) Option {
	return func(e *Engine) {
		e.analysisWidth = width
	}
}

// NewEngine returns an engine that keeps a frame when its score against the
// last kept frame strictly exceeds threshold.
func NewEngine(threshold float64, opts ...Option) (*Engine, error) {
	if threshold < 0 || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		return nil, fmt.Errorf("threshold must be a finite non-negative number (got %v)", threshold)
	}
	e := &Engine{threshold: threshold}
	for _, opt := range opts {
		opt(e)
	}
	if e.analysisWidth < 0 {
		return nil, fmt.Errorf("analysis width must not be negative (got %d)", e.analysisWidth)
	}
	return e, nil
}

// Decide evaluates f against the current reference and updates the state.
// The returned score is zero for the first frame of a run. Frames failing
// frame.Validate are rejected without touching the state.
func (e *Engine) Decide(f *frame.Frame) (Decision, float64, error) {
	if err := f.Validate(); err != nil {
		return Drop, 0, err
	}
	candidate := frame.Downscale(frame.ToGray(f), e.analysisWidth)

	if e.state.reference == nil {
		e.state.reference = candidate
		e.state.Evaluated++
		e.state.Kept++
		return Keep, 0, nil
	}

	score, err := MSE(e.state.reference, candidate)
	if err != nil {
		return Drop, 0, err
	}

	e.state.Evaluated++
	if score > e.threshold {
		e.state.reference = candidate
		e.state.Kept++
		return Keep, score, nil
	}
	e.state.Dropped++
	return Drop, score, nil
}

// HasReference reports whether a frame has been kept yet.
func (e *Engine) HasReference() bool {
	return e.state.reference != nil
}

// State returns a snapshot of the counters.
func (e *Engine) State() RunState {
	s := e.state
	s.reference = nil
	return s
}

// Threshold returns the configured keep threshold.
func (e *Engine) Threshold() float64 {
	return e.threshold
}
