package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// RunOptions names the files of a single run.
type RunOptions struct {
	Input  string
	Output string
}

func (o RunOptions) validate() error {
	if o.Input == "" {
		return fmt.Errorf("input path cannot be empty")
	}
	if o.Output == "" {
		return fmt.Errorf("output path cannot be empty")
	}
	if samePath(o.Input, o.Output) {
		return fmt.Errorf("%w %s: output would overwrite the input", ErrSinkOpen, o.Output)
	}
	return nil
}

// samePath reports whether a and b name the same file, either lexically or
// through links when both exist.
func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA == nil && errB == nil && filepath.Clean(absA) == filepath.Clean(absB) {
		return true
	}
	fa, err := os.Stat(a)
	if err != nil {
		return false
	}
	fb, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(fa, fb)
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithMetrics records run counters into m.
func WithMetrics(m *Metrics) Option {
	return func(p *Pipeline) {
		p.metrics = m
	}
}

// WithProgressWriter draws progress bars on w when the configuration
// enables them. Without it only log lines report progress.
func WithProgressWriter(w io.Writer) Option {
	return func(p *Pipeline) {
		p.progressOut = w
	}
}
