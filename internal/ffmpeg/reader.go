package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"github.com/keagan/framesieve/internal/frame"
)

// Reader decodes a video into raw BGR frames through an ffmpeg pipe.
type Reader struct {
	info      frame.Info
	stdout    io.ReadCloser
	proc      *process
	frameSize int
	read      int

	closeOnce sync.Once
	closeErr  error
}

var _ frame.Source = (*Reader)(nil)

// OpenSource probes path and starts a decoder emitting bgr24 frames of the
// probed geometry. The first video stream that is not cover art is used;
// audio and subtitles are ignored.
func (e *Executor) OpenSource(ctx context.Context, path string) (frame.Source, error) {
	info, err := e.ProbeVideo(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("probe %s: %w", path, err)
	}
	if info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("probe %s: invalid geometry %dx%d", path, info.Width, info.Height)
	}

	if info.Rotation != 0 {
		e.logger.Warn().
			Str("input", path).
			Int("rotation", info.Rotation).
			Msg("display rotation ignored, frames are processed in coded orientation")
	}

	args := e.decodeArgs(path, info.StreamIndex)

	var stdout io.ReadCloser
	proc, err := e.start(ctx, args, func(cmd *exec.Cmd) error {
		var err error
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("failed to create stdout pipe: %w", err)
		}
		return nil
	}, nil)
	if err != nil {
		return nil, err
	}

	e.logger.Info().
		Str("input", path).
		Int("width", info.Width).
		Int("height", info.Height).
		Float64("fps", info.FPS).
		Int("frames", info.FrameCount).
		Str("codec", info.VideoCodec).
		Msg("decoder started")

	return &Reader{
		info:      info.FrameInfo(),
		stdout:    stdout,
		proc:      proc,
		frameSize: frame.Size(info.Width, info.Height, rawChannels),
	}, nil
}

// decodeArgs maps the probed stream by its container index and disables
// autorotation so frames keep the probed width and height.
func (e *Executor) decodeArgs(path string, streamIndex int) []string {
	args := e.baseArgs()
	args = append(args, e.threadArgs()...)
	args = append(args,
		"-noautorotate",
		"-i", path,
		"-map", fmt.Sprintf("0:%d", streamIndex),
		"-an", "-sn",
		"-fps_mode", "passthrough",
		"-f", rawFormat,
		"-pix_fmt", rawPixFmt,
		"pipe:1",
	)
	return args
}

// Info returns the probed stream metadata.
func (r *Reader) Info() frame.Info {
	return r.info
}

// Next reads one frame. It returns io.EOF after the last complete frame
// once the decoder exited cleanly.
func (r *Reader) Next() (*frame.Frame, error) {
	f := frame.New(r.info.Width, r.info.Height, rawChannels)
	n, err := io.ReadFull(r.stdout, f.Pix)
	switch {
	case err == nil:
		r.read++
		return f, nil
	case errors.Is(err, io.EOF):
		if werr := r.finish(); werr != nil {
			return nil, fmt.Errorf("decoder failed after %d frames: %w", r.read, werr)
		}
		return nil, io.EOF
	case errors.Is(err, io.ErrUnexpectedEOF):
		werr := r.finish()
		if werr != nil {
			return nil, fmt.Errorf("truncated frame %d (%d of %d bytes): %w", r.read+1, n, r.frameSize, werr)
		}
		return nil, fmt.Errorf("truncated frame %d (%d of %d bytes): %w", r.read+1, n, r.frameSize, err)
	default:
		return nil, fmt.Errorf("read frame %d: %w", r.read+1, err)
	}
}

// finish reaps the decoder after its output is exhausted.
func (r *Reader) finish() error {
	r.closeOnce.Do(func() {
		r.closeErr = r.proc.wait()
	})
	return r.closeErr
}

// Close stops the decoder if it is still running. Safe to call repeatedly.
func (r *Reader) Close() error {
	r.closeOnce.Do(func() {
		_ = r.stdout.Close()
		r.proc.kill()
	})
	return nil
}
