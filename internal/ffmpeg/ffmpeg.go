package ffmpeg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	"github.com/keagan/framesieve/internal/config"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when the ffmpeg or ffprobe binary cannot be located.
var ErrNotFound = errors.New("binary not found")

// Executor spawns ffmpeg and ffprobe processes for decoding, encoding and probing
type Executor struct {
	logger      zerolog.Logger
	ffmpegPath  string
	ffprobePath string
	threads     int
	preset      string
}

// New creates a new ffmpeg executor
func New(logger zerolog.Logger, cfg config.FFmpegConfig) (*Executor, error) {
	ffmpegPath, err := exec.LookPath(cfg.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg %w (%s): %v", ErrNotFound, cfg.BinaryPath, err)
	}

	ffprobePath, err := exec.LookPath(cfg.ProbePath)
	if err != nil {
		return nil, fmt.Errorf("ffprobe %w (%s): %v", ErrNotFound, cfg.ProbePath, err)
	}

	return &Executor{
		logger:      logger.With().Str("component", "ffmpeg").Logger(),
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		threads:     cfg.Threads,
		preset:      cfg.Preset,
	}, nil
}

// baseArgs returns the flags shared by every ffmpeg invocation.
func (e *Executor) baseArgs() []string {
	return []string{"-hide_banner", "-nostdin", "-loglevel", "error"}
}

// threadArgs returns -threads when a limit is configured.
func (e *Executor) threadArgs() []string {
	if e.threads > 0 {
		return []string{"-threads", fmt.Sprintf("%d", e.threads)}
	}
	return nil
}

// process is a running ffmpeg child whose stderr is drained in the background.
type process struct {
	cmd    *exec.Cmd
	stderr *tail
	done   chan struct{}
}

// start launches ffmpeg with args. Pipes for stdin/stdout must be attached
// by the caller through the setup hook before the process starts.
func (e *Executor) start(ctx context.Context, args []string, setup func(*exec.Cmd) error, progressHandler func(*Progress)) (*process, error) {
	e.logger.Debug().
		Str("cmd", "ffmpeg").
		Strs("args", args).
		Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	if setup != nil {
		if err := setup(cmd); err != nil {
			return nil, err
		}
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	p := &process{cmd: cmd, stderr: newTail(stderrTailLines), done: make(chan struct{})}
	go func() {
		defer close(p.done)
		e.streamOutput(stderr, progressHandler, func(line string) {
			p.stderr.add(line)
			e.logger.Debug().Str("ffmpeg", line).Msg("ffmpeg output")
		})
	}()
	return p, nil
}

// wait drains stderr and reaps the process. A failure carries the last
// lines ffmpeg printed.
func (p *process) wait() error {
	<-p.done
	if err := p.cmd.Wait(); err != nil {
		if msg := p.stderr.String(); msg != "" {
			return fmt.Errorf("ffmpeg execution failed: %w: %s", err, msg)
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return nil
}

// kill terminates the process and reaps it, ignoring the exit status.
func (p *process) kill() {
	if p.cmd.Process != nil {
		_ = p.cmd.Process.Kill()
	}
	<-p.done
	_ = p.cmd.Wait()
}

// streamOutput parses ffmpeg output and calls handlers
func (e *Executor) streamOutput(r io.Reader, progressHandler func(*Progress), logHandler func(string)) {
	scanner := bufio.NewScanner(r)
	progressData := &Progress{}

	for scanner.Scan() {
		line := scanner.Text()

		// Parse progress lines
		switch {
		case strings.HasPrefix(line, "frame="):
			fmt.Sscanf(line, "frame=%d", &progressData.Frame)
		case strings.HasPrefix(line, "fps="):
			fmt.Sscanf(line, "fps=%f", &progressData.FPS)
		case strings.HasPrefix(line, "bitrate="):
			progressData.Bitrate = value(line)
		case strings.HasPrefix(line, "out_time="):
			progressData.Time = value(line)
		case strings.HasPrefix(line, "speed="):
			progressData.Speed = value(line)
		case strings.HasPrefix(line, "progress="):
			// End of progress block
			if progressHandler != nil && progressData.Frame > 0 {
				progressHandler(progressData)
			}
			progressData = &Progress{}
		default:
			if strings.Contains(line, "=") && !strings.Contains(line, " ") {
				// remaining -progress keys (total_size, dup_frames, ...)
				continue
			}
			if logHandler != nil {
				logHandler(line)
			}
		}
	}
}

func value(line string) string {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) == 2 {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

const stderrTailLines = 20

// tail keeps the last n lines written to it.
type tail struct {
	mu    sync.Mutex
	n     int
	lines []string
}

func newTail(n int) *tail {
	return &tail{n: n}
}

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = append(t.lines, line)
	if len(t.lines) > t.n {
		t.lines = t.lines[len(t.lines)-t.n:]
	}
}

func (t *tail) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.TrimSpace(strings.Join(t.lines, "\n"))
}
