package pipeline

import (
	"fmt"
	"time"

	"github.com/keagan/framesieve/internal/dedup"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the run counters on a private registry so several
// pipelines (and tests) never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	FramesProcessed prometheus.Counter
	FramesEvaluated prometheus.Counter
	FramesDecided   *prometheus.CounterVec
	FramesWritten   prometheus.Counter
	Score           prometheus.Histogram
	OutputFPS       prometheus.Gauge
	RunDuration     prometheus.Gauge
}

// NewMetrics registers the framesieve collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		FramesProcessed: factory.NewCounter(prometheus.CounterOpts{
			Name: "framesieve_frames_processed_total",
			Help: "Total number of frames decoded from the input",
		}),
		FramesEvaluated: factory.NewCounter(prometheus.CounterOpts{
			Name: "framesieve_frames_evaluated_total",
			Help: "Total number of frames that passed the stride filter",
		}),
		FramesDecided: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "framesieve_frames_decided_total",
			Help: "Total number of evaluated frames, by decision",
		}, []string{"decision"}),
		FramesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "framesieve_frames_written_total",
			Help: "Total number of frames handed to the encoder",
		}),
		Score: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "framesieve_frame_mse",
			Help:    "Mean squared error of evaluated frames against the last kept frame",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
		OutputFPS: factory.NewGauge(prometheus.GaugeOpts{
			Name: "framesieve_output_fps",
			Help: "Frame rate of the most recent output",
		}),
		RunDuration: factory.NewGauge(prometheus.GaugeOpts{
			Name: "framesieve_run_duration_seconds",
			Help: "Wall time of the most recent run",
		}),
	}
}

// WriteToTextfile dumps the current values in the node exporter textfile
// format.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics: %w", err)
	}
	return nil
}

func (m *Metrics) observeDecision(d dedup.Decision, score float64, first bool) {
	if m == nil {
		return
	}
	m.FramesEvaluated.Inc()
	m.FramesDecided.WithLabelValues(d.String()).Inc()
	if !first {
		m.Score.Observe(score)
	}
}

func (m *Metrics) processed() {
	if m != nil {
		m.FramesProcessed.Inc()
	}
}

func (m *Metrics) written() {
	if m != nil {
		m.FramesWritten.Inc()
	}
}

func (m *Metrics) finish(outputFPS float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.OutputFPS.Set(outputFPS)
	m.RunDuration.Set(elapsed.Seconds())
}
