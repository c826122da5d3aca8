package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tlms-tools/sprtrc/pkg/analyzer"
	"github.com/tlms-tools/sprtrc/pkg/batch"
	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/output"
	"github.com/tlms-tools/sprtrc/pkg/parser"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// AnalyzeOptions holds command-line options for the analyze command.
type AnalyzeOptions struct {
	ConfigFile string
	Output     string
	Analyzers  []string
	Lane       int
	OutDir     string
	Compress   bool
	NoExport   bool
	Workers    int
	LogLevel   string
	Verbose    bool
	Quiet      bool
}

// NewAnalyzeCommand creates the analyze command.
func NewAnalyzeCommand() *cobra.Command {
	opts := &AnalyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze [log-source...]",
		Short: "Parse, export and analyze TLMS measurement logs",
		Long: `Parse TLMS measurement result logs, export one forward-filled CSV per
log and report settling, oscillation and first valid tracking metrics.

Log sources are files, glob patterns or directories. Directories are walked
for MeasureResult*.csv files. Sources given on the command line replace the
log_sources of the configuration file.

Exit codes:
  0 - All files analyzed
  1 - At least one file failed
  2 - Configuration or runtime error`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAnalyze(cmd, args, opts)
		},
	}

	// Flags
	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (YAML or TOML)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().StringSliceVar(&opts.Analyzers, "analyzer", nil, "Run specific analyzer(s) only (can be repeated)")
	cmd.Flags().IntVar(&opts.Lane, "lane", 0, "Only report files from this lane")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Directory for exported series (overrides config)")
	cmd.Flags().BoolVar(&opts.Compress, "compress", false, "Write zstd-compressed exports (.csv.zst)")
	cmd.Flags().BoolVar(&opts.NoExport, "no-export", false, "Do not write series exports")
	cmd.Flags().IntVarP(&opts.Workers, "workers", "j", 0, "Files processed in parallel (default: config or one per CPU)")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "", "Log level (debug|info|warn|error)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Include parse statistics and export paths")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no details")

	return cmd
}

func runAnalyze(cmd *cobra.Command, args []string, opts *AnalyzeOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	formatter, ok := output.NewFormatter(opts.Output, output.FormatOptions{
		Verbose: opts.Verbose,
		Quiet:   opts.Quiet,
	})
	if !ok {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}

	if len(args) > 0 {
		cfg.LogSources = args
	}
	if opts.OutDir != "" {
		cfg.OutputDir = opts.OutDir
	}
	if opts.Compress {
		cfg.Export.Compress = true
	}
	if opts.NoExport {
		cfg.Export.Enabled = false
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid options: %w", err)
	}

	if len(cfg.LogSources) == 0 {
		return fmt.Errorf("no log sources: pass files or directories, or set log_sources in the config")
	}

	files, err := parser.ExpandSources(cfg.LogSources, cfg.FilePrefix)
	if err != nil {
		return fmt.Errorf("expanding log sources: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no log files matched: %v", cfg.LogSources)
	}

	runner, err := batch.New(cfg,
		batch.WithLogger(newLogger(cfg)),
		batch.WithAnalyzerOptions(analyzer.WithMetricFilter(opts.Analyzers)),
	)
	if err != nil {
		return fmt.Errorf("creating runner: %w", err)
	}

	result, err := runner.Run(ctx, files)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	outputDir := ""
	if cfg.Export.Enabled {
		outputDir = cfg.OutputDir
	}
	report := result.Report(opts.ConfigFile, outputDir)
	if cmd.Flags().Changed("lane") {
		report = report.FilterLane(opts.Lane)
	}

	if err := formatter.Format(ctx, report, cmd.OutOrStdout()); err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}

	// Lane filtering only affects what is shown.
	if result.Failed() > 0 {
		ExitCode = 1
	}

	return nil
}

// loadConfig loads the given file, or the defaults with environment
// overrides when path is empty.
func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnvironment()
	}
	cfg, err := config.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// newLogger returns the stderr logger for a validated config.
func newLogger(cfg *config.Config) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
}
