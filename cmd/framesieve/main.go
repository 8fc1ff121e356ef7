package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/keagan/framesieve/internal/config"
	"github.com/keagan/framesieve/internal/ffmpeg"
	"github.com/keagan/framesieve/internal/logging"
	"github.com/keagan/framesieve/internal/pipeline"
	"github.com/keagan/framesieve/pkg/util"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Warn().Msg("interrupted")
		} else {
			log.Error().Err(err).Msg("framesieve failed")
		}
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "framesieve",
	Short:         "framesieve - drop near-duplicate frames from a video",
	Long:          "Re-encodes a video keeping only frames whose mean squared difference from the last kept frame exceeds a threshold.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Initialize logging
		logging.Init(verbose)

		// Load config
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		// Store config in context
		ctx := config.WithConfig(cmd.Context(), cfg)
		cmd.SetContext(ctx)

		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./framesieve.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	addDedupFlags(dedupCmd)

	rootCmd.AddCommand(dedupCmd)
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Remove near-duplicate frames from a video",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if cfg == nil {
			cfg = config.Default()
		}

		opts, err := applyDedupFlags(cmd, cfg)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg)
		if err != nil {
			return fmt.Errorf("failed to initialize ffmpeg: %w", err)
		}

		metrics := pipeline.NewMetrics()
		pipeOpts := []pipeline.Option{pipeline.WithMetrics(metrics)}
		if logging.IsTerminal(os.Stderr) {
			pipeOpts = append(pipeOpts, pipeline.WithProgressWriter(os.Stderr))
		}

		pipe, err := pipeline.New(log.Logger, cfg, exec, pipeOpts...)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		printParameters(out, opts, cfg)

		report, err := pipe.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		printSummary(out, report)

		logger := logging.WithComponent("cli")
		if cfg.Output.Report != "" {
			if err := pipeline.WriteReport(cfg.Output.Report, report); err != nil {
				return err
			}
			logger.Info().Str("path", cfg.Output.Report).Msg("report written")
		}
		if cfg.Output.MetricsFile != "" {
			if err := metrics.WriteToTextfile(cfg.Output.MetricsFile); err != nil {
				return err
			}
			logger.Info().Str("path", cfg.Output.MetricsFile).Msg("metrics written")
		}
		return nil
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe [input video]",
	Short: "Show stream metadata for a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if cfg == nil {
			cfg = config.Default()
		}

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg)
		if err != nil {
			return fmt.Errorf("failed to initialize ffmpeg: %w", err)
		}

		info, err := exec.ProbeVideo(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "File:       %s\n", info.FilePath)
		fmt.Fprintf(out, "Resolution: %dx%d\n", info.Width, info.Height)
		fmt.Fprintf(out, "FPS:        %.3f\n", info.FPS)
		fmt.Fprintf(out, "Frames:     %d\n", info.FrameCount)
		fmt.Fprintf(out, "Codec:      %s (%s)\n", info.VideoCodec, info.PixFmt)
		fmt.Fprintf(out, "Duration:   %s\n", util.FormatDuration(info.Duration))
		if info.HasAudio {
			fmt.Fprintf(out, "Audio:      %s (not copied to output)\n", info.AudioCodec)
		}
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Config management commands",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		if cfg == nil {
			cfg = config.Default()
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "framesieve.yaml"
		if len(args) == 1 {
			path = args[0]
		}
		if util.FileExists(path) {
			return fmt.Errorf("%s already exists", path)
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("configuration written")
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "framesieve %s\n", version)
	},
}
