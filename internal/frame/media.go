package frame

import "context"

// Info describes a source stream's geometry and timing as reported by the
// container. FrameCount may be zero when the container does not know it.
type Info struct {
	Width      int
	Height     int
	FPS        float64
	FrameCount int
	Codec      string
}

// Source yields decoded frames in presentation order. Next returns io.EOF
// once the stream is exhausted.
type Source interface {
	Info() Info
	Next() (*Frame, error)
	Close() error
}

// SinkOptions configures an output stream.
type SinkOptions struct {
	Codec  string // fourcc tag, e.g. "mp4v"
	FPS    float64
	Width  int
	Height int
}

// Sink accepts frames in order and finalizes the file on Close.
type Sink interface {
	Write(f *Frame) error
	Close() error
}

// Opener opens sources and sinks by path.
type Opener interface {
	OpenSource(ctx context.Context, path string) (Source, error)
	OpenSink(ctx context.Context, path string, opts SinkOptions) (Sink, error)
}
