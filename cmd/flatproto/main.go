package main

import (
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/anirudhraja/flatproto"
	"github.com/anirudhraja/flatproto/config"
	"github.com/anirudhraja/flatproto/internal/logging"
	"github.com/anirudhraja/flatproto/stream"
)

// Set at build time with -ldflags "-X main.Version=...".
var (
	Version   = "dev"
	GitCommit = "unknown"
)

type globalFlags struct {
	configFile string
	logLevel   string
	logPretty  bool
	protoPaths []string
	shapeFiles []string
}

// app is what every subcommand runs against once flags and config are
// resolved.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	proto    *flatproto.Flatproto
	frames   []stream.FrameOption
	registry *prometheus.Registry
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:           "flatproto",
		Short:         "Encode and decode flat protobuf messages without generated code",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&g.configFile, "config", "", "config file path (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&g.logPretty, "log-pretty", false, "enable pretty logging")
	rootCmd.PersistentFlags().StringSliceVar(&g.protoPaths, "proto", nil, ".proto files or directories to load")
	rootCmd.PersistentFlags().StringSliceVar(&g.shapeFiles, "shapes", nil, "YAML shape files to load")

	rootCmd.AddCommand(
		newEncodeCmd(g),
		newDecodeCmd(g),
		newShapesCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "flatproto\n")
			fmt.Fprintf(out, "Version:    %s\n", Version)
			fmt.Fprintf(out, "Git Commit: %s\n", GitCommit)
			fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
			fmt.Fprintf(out, "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}

// newApp loads the config, applies flag overrides and loads every schema
// source.
func newApp(cmd *cobra.Command, g *globalFlags) (*app, error) {
	cfg, err := config.Load(g.configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	applyFlags(cmd, g, cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	logger, err := logging.New(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	mode, err := cfg.Int64Mode()
	if err != nil {
		return nil, err
	}
	frames, err := cfg.FrameOptions()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, log: logger, frames: frames}
	opts := []flatproto.Option{
		flatproto.WithLogger(logger),
		flatproto.WithConfig(cfg.WireConfig()),
		flatproto.WithInt64JSON(mode),
	}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		opts = append(opts, flatproto.WithMetrics(a.registry))
	}
	a.proto, err = flatproto.New(opts...)
	if err != nil {
		return nil, err
	}

	for _, path := range cfg.Schema.ProtoPaths {
		if err := a.proto.LoadSchema(path); err != nil {
			return nil, err
		}
	}
	for _, path := range cfg.Schema.ShapeFiles {
		if err := a.proto.LoadShapesFile(path); err != nil {
			return nil, err
		}
	}
	logger.Debug().
		Str("config_file", g.configFile).
		Strs("messages", a.proto.ListMessages()).
		Bool("strict_wire_type", cfg.Codec.StrictWireType).
		Bool("preserve_unknown", cfg.Codec.PreserveUnknown).
		Str("compression", cfg.Stream.Compression).
		Msg("Configuration loaded")
	return a, nil
}

func applyFlags(cmd *cobra.Command, g *globalFlags, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = g.logLevel
	}
	if flags.Changed("log-pretty") {
		cfg.Log.Pretty = g.logPretty
	}
	cfg.Schema.ProtoPaths = append(cfg.Schema.ProtoPaths, g.protoPaths...)
	cfg.Schema.ShapeFiles = append(cfg.Schema.ShapeFiles, g.shapeFiles...)
}

// close logs the codec counters when metrics are enabled.
func (a *app) close() {
	if a.registry == nil {
		return
	}
	families, err := a.registry.Gather()
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to gather metrics")
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			ev := a.log.Info().Str("metric", mf.GetName())
			for _, l := range m.GetLabel() {
				ev = ev.Str(l.GetName(), l.GetValue())
			}
			ev.Float64("value", m.GetCounter().GetValue()).Msg("codec metrics")
		}
	}
}

// openInput returns the named file, or stdin for no argument or "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	return f, nil
}
