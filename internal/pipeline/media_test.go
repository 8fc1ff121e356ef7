package pipeline

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/keagan/framesieve/internal/frame"
)

// memSource replays frames from memory.
type memSource struct {
	info    frame.Info
	frames  []*frame.Frame
	pos     int
	failAt  int // 1-indexed frame that returns readErr; 0 disables
	readErr error
	closed  bool
	onRead  func(n int)
}

func (s *memSource) Info() frame.Info { return s.info }

func (s *memSource) Next() (*frame.Frame, error) {
	if s.failAt > 0 && s.pos+1 == s.failAt {
		return nil, s.readErr
	}
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	if s.onRead != nil {
		s.onRead(s.pos)
	}
	return f, nil
}

func (s *memSource) Close() error {
	s.closed = true
	return nil
}

// memSink records written frames and touches the output path so cleanup
// can be observed.
type memSink struct {
	path      string
	opts      frame.SinkOptions
	frames    []*frame.Frame
	failWrite int // 1-indexed write that fails; 0 disables
	closeErr  error
	closed    bool
}

func (s *memSink) Write(f *frame.Frame) error {
	if s.failWrite > 0 && len(s.frames)+1 == s.failWrite {
		return errors.New("disk full")
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *memSink) Close() error {
	s.closed = true
	return s.closeErr
}

// memMedia is an in-memory frame.Opener.
type memMedia struct {
	source    *memSource
	sourceErr error
	sinkErr   error
	failWrite int
	closeErr  error

	sinks []*memSink
	// readsAtSinkOpen is the number of frames read when the sink opened.
	readsAtSinkOpen int
}

func (m *memMedia) OpenSource(ctx context.Context, path string) (frame.Source, error) {
	if m.sourceErr != nil {
		return nil, m.sourceErr
	}
	return m.source, nil
}

func (m *memMedia) OpenSink(ctx context.Context, path string, opts frame.SinkOptions) (frame.Sink, error) {
	if m.sinkErr != nil {
		return nil, m.sinkErr
	}
	if err := os.WriteFile(path, []byte("partial"), 0644); err != nil {
		return nil, err
	}
	s := &memSink{path: path, opts: opts, failWrite: m.failWrite, closeErr: m.closeErr}
	m.sinks = append(m.sinks, s)
	m.readsAtSinkOpen = m.source.pos
	return s, nil
}

func (m *memMedia) sink() *memSink {
	if len(m.sinks) == 0 {
		return nil
	}
	return m.sinks[len(m.sinks)-1]
}

// solid builds a width x height BGR frame with every sample set to v.
func solid(width, height int, v byte) *frame.Frame {
	f := frame.New(width, height, frame.BGRChannels)
	for i := range f.Pix {
		f.Pix[i] = v
	}
	return f
}

func newMedia(fps float64, frames ...*frame.Frame) *memMedia {
	info := frame.Info{Width: 2, Height: 2, FPS: fps, FrameCount: len(frames)}
	if len(frames) > 0 {
		info.Width, info.Height = frames[0].Width, frames[0].Height
	}
	return &memMedia{source: &memSource{info: info, frames: frames}}
}
