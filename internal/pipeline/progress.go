package pipeline

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/schollz/progressbar/v3"
)

const writeLogEvery = 100

// progress reports read and write advancement as log lines and, when a
// writer is attached, as a terminal bar.
type progress struct {
	logger   zerolog.Logger
	logEvery int
	total    int
	bar      *progressbar.ProgressBar
}

func newProgress(logger zerolog.Logger, out io.Writer, description string, total, logEvery int) *progress {
	p := &progress{logger: logger, logEvery: logEvery, total: total}
	if out == nil {
		return p
	}

	limit := total
	if limit <= 0 {
		limit = -1
	}
	p.bar = progressbar.NewOptions(limit,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "▐",
			BarEnd:        "▌",
		}),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionSetWidth(50),
		progressbar.OptionThrottle(100_000_000),
		progressbar.OptionClearOnFinish(),
	)
	return p
}

// read records one decoded frame.
func (p *progress) read(processed, kept int) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
	if p.logEvery <= 0 || processed%p.logEvery != 0 {
		return
	}
	ev := p.logger.Info().
		Int("processed", processed).
		Int("kept", kept)
	if p.total > 0 {
		ev = ev.Float64("percent", float64(processed)/float64(p.total)*100)
	}
	ev.Msg("reading frames")
}

// write records the frame at index i being sent to the encoder.
func (p *progress) write(i, total int) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
	if i%writeLogEvery == 0 {
		p.logger.Info().
			Int("frame", i).
			Int("total", total).
			Msg("writing frames")
	}
}

func (p *progress) done() {
	if p.bar != nil {
		_ = p.bar.Finish()
	}
}
