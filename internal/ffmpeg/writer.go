package ffmpeg

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/keagan/framesieve/internal/config"
	"github.com/keagan/framesieve/internal/frame"
	"github.com/keagan/framesieve/pkg/util"
	"github.com/rs/zerolog"
)

// Writer encodes raw BGR frames fed through ffmpeg's stdin.
type Writer struct {
	logger  zerolog.Logger
	path    string
	width   int
	height  int
	stdin   io.WriteCloser
	proc    *process
	written int

	closeOnce sync.Once
	closeErr  error
}

var _ frame.Sink = (*Writer)(nil)

// OpenSink starts an encoder writing path with the codec named by the
// fourcc tag in opts. The parent directory is created when missing.
func (e *Executor) OpenSink(ctx context.Context, path string, opts frame.SinkOptions) (frame.Sink, error) {
	codec, ok := config.LookupCodec(opts.Codec)
	if !ok {
		return nil, fmt.Errorf("unsupported codec %q (supported: %v)", opts.Codec, config.CodecTags())
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid output geometry %dx%d", opts.Width, opts.Height)
	}
	if opts.FPS <= 0 {
		return nil, fmt.Errorf("invalid output frame rate %v", opts.FPS)
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := util.EnsureDir(dir); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	args := e.encodeArgs(path, codec, opts)

	var stdin io.WriteCloser
	proc, err := e.start(ctx, args, func(cmd *exec.Cmd) error {
		var err error
		stdin, err = cmd.StdinPipe()
		if err != nil {
			return fmt.Errorf("failed to create stdin pipe: %w", err)
		}
		return nil
	}, func(p *Progress) {
		e.logger.Debug().
			Int("frame", p.Frame).
			Float64("fps", p.FPS).
			Str("speed", p.Speed).
			Msg("encode progress")
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("output", path).
		Str("codec", opts.Codec).
		Str("encoder", codec.Encoder).
		Float64("fps", opts.FPS).
		Msg("encoder started")

	return &Writer{
		logger: e.logger,
		path:   path,
		width:  opts.Width,
		height: opts.Height,
		stdin:  stdin,
		proc:   proc,
	}, nil
}

func (e *Executor) encodeArgs(path string, codec config.Codec, opts frame.SinkOptions) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostats", "-progress", "pipe:2", "-y"}
	args = append(args, e.threadArgs()...)
	args = append(args,
		"-f", rawFormat,
		"-pix_fmt", rawPixFmt,
		"-s", fmt.Sprintf("%dx%d", opts.Width, opts.Height),
		"-r", strconv.FormatFloat(opts.FPS, 'f', -1, 64),
		"-i", "pipe:0",
		"-an",
	)

	if vf := NewFilterBuilder().PadEven(opts.Width, opts.Height).Build(); vf != "" {
		args = append(args, "-vf", vf)
	}

	args = append(args, "-c:v", codec.Encoder)
	if codec.Tag != "" {
		args = append(args, "-tag:v", codec.Tag)
	}
	if codec.Preset && e.preset != "" {
		args = append(args, "-preset", e.preset)
	}

	pixFmt := "yuv420p"
	if codec.Encoder == "mjpeg" {
		pixFmt = "yuvj420p"
	}
	args = append(args, "-pix_fmt", pixFmt, path)
	return args
}

// Write sends one frame to the encoder. The frame must match the geometry
// the sink was opened with.
func (w *Writer) Write(f *frame.Frame) error {
	if f.Width != w.width || f.Height != w.height || f.Channels != rawChannels {
		return fmt.Errorf("frame %dx%dx%d does not match sink %dx%dx%d",
			f.Width, f.Height, f.Channels, w.width, w.height, rawChannels)
	}
	if _, err := w.stdin.Write(f.Pix); err != nil {
		if msg := w.proc.stderr.String(); msg != "" {
			return fmt.Errorf("write frame %d: %w: %s", w.written+1, err, msg)
		}
		return fmt.Errorf("write frame %d: %w", w.written+1, err)
	}
	w.written++
	return nil
}

// Written returns the number of frames accepted so far.
func (w *Writer) Written() int {
	return w.written
}

// Close flushes the encoder and waits for it to finalize the container.
func (w *Writer) Close() error {
	w.closeOnce.Do(func() {
		if err := w.stdin.Close(); err != nil {
			w.closeErr = fmt.Errorf("close encoder input: %w", err)
		}
		if err := w.proc.wait(); err != nil {
			w.closeErr = fmt.Errorf("encode %s: %w", w.path, err)
			return
		}
		w.logger.Info().
			Str("output", w.path).
			Int("frames", w.Written()).
			Msg("encoder finished")
	})
	return w.closeErr
}
