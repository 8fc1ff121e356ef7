package main

import (
	"bytes"
	"testing"

	"github.com/keagan/framesieve/internal/config"
	"github.com/keagan/framesieve/internal/pipeline"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "dedup", RunE: func(*cobra.Command, []string) error { return nil }}
	addDedupFlags(cmd)
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestApplyDedupFlags_OnlyChangedFlagsOverride(t *testing.T) {
	cfg := config.Default()
	cfg.Dedup.Threshold = 250
	cfg.Output.Codec = "avc1"

	cmd := newTestCmd(t, "-i", "in.mp4", "-o", "out/clip.mp4", "-s", "3", "--new-fps", "--no-progress")
	opts, err := applyDedupFlags(cmd, cfg)
	require.NoError(t, err)

	assert.Equal(t, pipeline.RunOptions{Input: "in.mp4", Output: "out/clip.mp4"}, opts)
	assert.Equal(t, 250.0, cfg.Dedup.Threshold)
	assert.Equal(t, "avc1", cfg.Output.Codec)
	assert.Equal(t, 3, cfg.Dedup.SkipFrames)
	assert.True(t, cfg.Dedup.NewFPS)
	assert.False(t, cfg.Progress.Bar)
}

func TestApplyDedupFlags_AllOverrides(t *testing.T) {
	cfg := config.Default()
	cmd := newTestCmd(t,
		"--input", "a.avi", "--output", "b.avi",
		"-t", "12.5", "--codec", "mjpg", "--analysis-width", "160",
		"--streaming", "--report", "run.yaml", "--metrics-file", "run.prom")

	_, err := applyDedupFlags(cmd, cfg)
	require.NoError(t, err)
	assert.Equal(t, 12.5, cfg.Dedup.Threshold)
	assert.Equal(t, "mjpg", cfg.Output.Codec)
	assert.Equal(t, 160, cfg.Dedup.AnalysisWidth)
	assert.True(t, cfg.Output.Streaming)
	assert.Equal(t, "run.yaml", cfg.Output.Report)
	assert.Equal(t, "run.prom", cfg.Output.MetricsFile)
	assert.True(t, cfg.Progress.Bar)
}

func TestApplyDedupFlags_MissingPaths(t *testing.T) {
	cmd := newTestCmd(t, "-i", "in.mp4")
	_, err := applyDedupFlags(cmd, config.Default())
	assert.Error(t, err)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &pipeline.Report{
		Output:       "out.mp4",
		Processed:    10,
		Kept:         1,
		Dropped:      9,
		SourceFPS:    30,
		OutputFPS:    30,
		RateFallback: true,
	})
	out := buf.String()
	assert.Contains(t, out, "Kept:       1")
	assert.Contains(t, out, "Output FPS: 30.00 (source rate kept)")
	assert.Contains(t, out, "Reduction:  90.0%")
}

func TestPrintParameters(t *testing.T) {
	var buf bytes.Buffer
	printParameters(&buf, pipeline.RunOptions{Input: "in.mp4", Output: "out.mp4"}, config.Default())
	assert.Contains(t, buf.String(), "Threshold:   1000")
	assert.Contains(t, buf.String(), "Skip frames: 1")
}
