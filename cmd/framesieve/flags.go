package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/keagan/framesieve/internal/config"
	"github.com/keagan/framesieve/internal/pipeline"
	"github.com/spf13/cobra"
)

func addDedupFlags(cmd *cobra.Command) {
	defaults := config.Default()

	f := cmd.Flags()
	f.StringP("input", "i", "", "input video path")
	f.StringP("output", "o", "", "output video path")
	f.Float64P("threshold", "t", defaults.Dedup.Threshold, "MSE above which a frame is kept")
	f.IntP("skip-frames", "s", defaults.Dedup.SkipFrames, "evaluate only every Nth frame")
	f.Bool("new-fps", defaults.Dedup.NewFPS, "scale the output frame rate by the kept ratio")
	f.String("codec", defaults.Output.Codec, "output fourcc ("+strings.Join(config.CodecTags(), ", ")+")")
	f.Int("analysis-width", defaults.Dedup.AnalysisWidth, "downscale frames to this width before scoring (0 = full size)")
	f.Bool("streaming", defaults.Output.Streaming, "write kept frames as they are found (ignored with --new-fps)")
	f.String("report", "", "write a run report (.json, .yaml or .cbor)")
	f.String("metrics-file", "", "write Prometheus metrics in textfile format")
	f.Bool("no-progress", false, "disable the progress bar")

	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")
}

// applyDedupFlags copies explicitly set flags over cfg so flags win over
// file and environment values.
func applyDedupFlags(cmd *cobra.Command, cfg *config.Config) (pipeline.RunOptions, error) {
	f := cmd.Flags()
	var opts pipeline.RunOptions
	var err error

	if opts.Input, err = f.GetString("input"); err != nil {
		return opts, err
	}
	if opts.Output, err = f.GetString("output"); err != nil {
		return opts, err
	}

	if f.Changed("threshold") {
		if cfg.Dedup.Threshold, err = f.GetFloat64("threshold"); err != nil {
			return opts, err
		}
	}
	if f.Changed("skip-frames") {
		if cfg.Dedup.SkipFrames, err = f.GetInt("skip-frames"); err != nil {
			return opts, err
		}
	}
	if f.Changed("new-fps") {
		if cfg.Dedup.NewFPS, err = f.GetBool("new-fps"); err != nil {
			return opts, err
		}
	}
	if f.Changed("analysis-width") {
		if cfg.Dedup.AnalysisWidth, err = f.GetInt("analysis-width"); err != nil {
			return opts, err
		}
	}
	if f.Changed("codec") {
		if cfg.Output.Codec, err = f.GetString("codec"); err != nil {
			return opts, err
		}
	}
	if f.Changed("streaming") {
		if cfg.Output.Streaming, err = f.GetBool("streaming"); err != nil {
			return opts, err
		}
	}
	if f.Changed("report") {
		if cfg.Output.Report, err = f.GetString("report"); err != nil {
			return opts, err
		}
	}
	if f.Changed("metrics-file") {
		if cfg.Output.MetricsFile, err = f.GetString("metrics-file"); err != nil {
			return opts, err
		}
	}
	if noProgress, _ := f.GetBool("no-progress"); noProgress {
		cfg.Progress.Bar = false
	}

	if opts.Input == "" || opts.Output == "" {
		return opts, fmt.Errorf("both --input and --output are required")
	}
	return opts, nil
}

func printParameters(w io.Writer, opts pipeline.RunOptions, cfg *config.Config) {
	fmt.Fprintln(w, "Parameters:")
	fmt.Fprintf(w, "  Input:       %s\n", opts.Input)
	fmt.Fprintf(w, "  Output:      %s\n", opts.Output)
	fmt.Fprintf(w, "  Threshold:   %g\n", cfg.Dedup.Threshold)
	fmt.Fprintf(w, "  Skip frames: %d\n", cfg.Dedup.SkipFrames)
	fmt.Fprintf(w, "  New FPS:     %t\n", cfg.Dedup.NewFPS)
	fmt.Fprintf(w, "  Codec:       %s\n", cfg.Output.Codec)
	fmt.Fprintln(w)
}

func printSummary(w io.Writer, r *pipeline.Report) {
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Processed:  %d\n", r.Processed)
	fmt.Fprintf(w, "  Kept:       %d\n", r.Kept)
	fmt.Fprintf(w, "  Dropped:    %d\n", r.Dropped)
	fmt.Fprintf(w, "  Source FPS: %.2f\n", r.SourceFPS)
	fmt.Fprintf(w, "  Output FPS: %.2f", r.OutputFPS)
	if r.RateFallback {
		fmt.Fprint(w, " (source rate kept)")
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Reduction:  %.1f%%\n", r.Reduction())
	fmt.Fprintf(w, "  Output:     %s\n", r.Output)
}
