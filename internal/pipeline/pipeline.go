package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/keagan/framesieve/internal/config"
	"github.com/keagan/framesieve/internal/dedup"
	"github.com/keagan/framesieve/internal/frame"
	"github.com/keagan/framesieve/pkg/util"
	"github.com/rs/zerolog"
)

// Pipeline drives one deduplication run: decode, decide, then encode the
// surviving frames.
type Pipeline struct {
	logger      zerolog.Logger
	config      *config.Config
	media       frame.Opener
	metrics     *Metrics
	progressOut io.Writer
}

// New creates a new pipeline instance
func New(logger zerolog.Logger, cfg *config.Config, media frame.Opener, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if media == nil {
		return nil, fmt.Errorf("media opener is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{
		logger: logger.With().Str("component", "pipeline").Logger(),
		config: cfg,
		media:  media,
	}
	for _, opt := range opts {
		opt(p)
	}
	if !cfg.Progress.Bar {
		p.progressOut = nil
	}
	return p, nil
}

// output tracks the sink so a failed run never leaves a partial file.
type output struct {
	path   string
	sink   frame.Sink
	closed bool
}

func (o *output) abort() {
	if o.sink == nil {
		return
	}
	if !o.closed {
		_ = o.sink.Close()
		o.closed = true
	}
	util.CleanupFiles(o.path)
}

// Run processes opts.Input into opts.Output and returns the run report.
func (p *Pipeline) Run(ctx context.Context, opts RunOptions) (_ *Report, err error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	dc := p.config.Dedup

	engine, err := dedup.NewEngine(dc.Threshold, dedup.WithAnalysisWidth(dc.AnalysisWidth))
	if err != nil {
		return nil, err
	}

	src, err := p.media.OpenSource(ctx, opts.Input)
	if err != nil {
		return nil, fmt.Errorf("%w %s: %v", ErrSourceOpen, opts.Input, err)
	}
	defer src.Close()

	info := src.Info()
	if info.FPS <= 0 || info.Width <= 0 || info.Height <= 0 {
		return nil, fmt.Errorf("%w %s: unusable stream %dx%d at %v fps",
			ErrSourceOpen, opts.Input, info.Width, info.Height, info.FPS)
	}

	report := &Report{
		RunID:     uuid.NewString(),
		Input:     opts.Input,
		Output:    opts.Output,
		Width:     info.Width,
		Height:    info.Height,
		SourceFPS: info.FPS,
	}
	logger := p.logger.With().Str("run_id", report.RunID).Logger()

	logger.Info().
		Str("input", opts.Input).
		Str("output", opts.Output).
		Float64("threshold", engine.Threshold()).
		Int("skip_frames", dc.SkipFrames).
		Bool("new_fps", dc.NewFPS).
		Int("analysis_width", dc.AnalysisWidth).
		Msg("starting deduplication")

	streaming := p.config.Output.Streaming && !dc.NewFPS
	if p.config.Output.Streaming && dc.NewFPS {
		logger.Info().Msg("streaming write ignored: output rate depends on the final kept count")
	}

	out := &output{path: opts.Output}
	defer func() {
		if err != nil {
			out.abort()
		}
	}()

	var kept []*frame.Frame
	processed := 0
	readProgress := newProgress(logger, p.progressOut, "deduplicating", info.FrameCount, p.config.Progress.LogEvery)

	for {
		if cerr := ctx.Err(); cerr != nil {
			readProgress.done()
			return nil, fmt.Errorf("cancelled after %d frames: %w", processed, cerr)
		}

		f, rerr := src.Next()
		if errors.Is(rerr, io.EOF) {
			break
		}
		if rerr != nil {
			readProgress.done()
			return nil, fmt.Errorf("decode frame %d: %w", processed+1, rerr)
		}

		processed++
		p.metrics.processed()

		if f.Width != info.Width || f.Height != info.Height {
			readProgress.done()
			return nil, fmt.Errorf("frame %d is %dx%d, stream is %dx%d: %w",
				processed, f.Width, f.Height, info.Width, info.Height, dedup.ErrShapeMismatch)
		}

		if processed%dc.SkipFrames == 0 {
			first := !engine.HasReference()
			decision, score, derr := engine.Decide(f)
			if derr != nil {
				readProgress.done()
				return nil, fmt.Errorf("frame %d: %w", processed, derr)
			}
			p.metrics.observeDecision(decision, score, first)

			logger.Debug().
				Int("frame", processed).
				Float64("score", score).
				Stringer("decision", decision).
				Msg("frame evaluated")

			if decision == dedup.Keep {
				if streaming {
					if out.sink == nil {
						if err := p.openSink(ctx, out, info, info.FPS); err != nil {
							readProgress.done()
							return nil, err
						}
					}
					if err := out.sink.Write(f); err != nil {
						readProgress.done()
						return nil, fmt.Errorf("write frame %d: %w", engine.State().Kept, err)
					}
					p.metrics.written()
				} else {
					kept = append(kept, f)
				}
			}
		}

		state := engine.State()
		readProgress.read(processed, state.Kept)
	}
	readProgress.done()

	state := engine.State()
	report.Processed = processed
	report.Evaluated = state.Evaluated
	report.Kept = state.Kept
	report.Dropped = state.Dropped

	logger.Info().
		Int("processed", report.Processed).
		Int("kept", report.Kept).
		Int("dropped", report.Dropped).
		Msg("reading complete")

	if report.Kept == 0 {
		return nil, fmt.Errorf("%w from %d processed frames", ErrEmptyResult, processed)
	}

	outputFPS, rerr := dedup.Reconcile(info.FPS, processed, report.Kept, dc.SkipFrames, dc.NewFPS)
	if rerr != nil {
		if !errors.Is(rerr, dedup.ErrDegenerateRate) {
			return nil, rerr
		}
		logger.Warn().Err(rerr).Float64("fps", info.FPS).Msg("keeping source frame rate")
		outputFPS = info.FPS
		report.RateFallback = true
	}
	report.OutputFPS = outputFPS

	if !streaming {
		if err := p.openSink(ctx, out, info, outputFPS); err != nil {
			return nil, err
		}

		writeProgress := newProgress(logger, p.progressOut, "writing", len(kept), 0)
		for i, f := range kept {
			if err := ctx.Err(); err != nil {
				writeProgress.done()
				return nil, fmt.Errorf("cancelled while writing frame %d: %w", i, err)
			}
			writeProgress.write(i, len(kept))
			if err := out.sink.Write(f); err != nil {
				writeProgress.done()
				return nil, fmt.Errorf("write frame %d: %w", i, err)
			}
			p.metrics.written()
		}
		writeProgress.done()
	}

	out.closed = true
	if err := out.sink.Close(); err != nil {
		return nil, fmt.Errorf("finalize %s: %w", opts.Output, err)
	}

	report.Elapsed = time.Since(start)
	p.metrics.finish(report.OutputFPS, report.Elapsed)

	logger.Info().
		Int("processed", report.Processed).
		Int("kept", report.Kept).
		Int("dropped", report.Dropped).
		Float64("source_fps", report.SourceFPS).
		Float64("output_fps", report.OutputFPS).
		Float64("reduction_pct", report.Reduction()).
		Dur("elapsed", report.Elapsed).
		Msg("deduplication complete")

	return report, nil
}

func (p *Pipeline) openSink(ctx context.Context, out *output, info frame.Info, fps float64) error {
	sink, err := p.media.OpenSink(ctx, out.path, frame.SinkOptions{
		Codec:  p.config.Output.Codec,
		FPS:    fps,
		Width:  info.Width,
		Height: info.Height,
	})
	if err != nil {
		return fmt.Errorf("%w %s: %v", ErrSinkOpen, out.path, err)
	}
	out.sink = sink
	return nil
}
