package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tlms-tools/sprtrc/pkg/output"
	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

// ParseOptions holds command-line options for the parse command.
type ParseOptions struct {
	ConfigFile string
	Save       bool
	OutDir     string
	Compress   bool
	NoFill     bool
}

// NewParseCommand creates the parse command.
func NewParseCommand() *cobra.Command {
	opts := &ParseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <log-file>",
		Short: "Parse one log file and print the series as CSV",
		Long: `Parse a single TLMS measurement result log and write its series as CSV.

By default the forward-filled series is printed to stdout. With --save it
is written to the output directory under its generated label instead:

  Lane_<lane>_Pos_<position>_<task>_<file>[_Not_seated].csv

Example:
  sprtrc parse MeasureResult_20240115_100001.csv
  sprtrc parse --save --compress MeasureResult_20240115_100001.csv
  sprtrc parse --no-fill MeasureResult_20240115_100001.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (YAML or TOML)")
	cmd.Flags().BoolVarP(&opts.Save, "save", "s", false, "Write the series to the output directory")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "Output directory for --save (overrides config)")
	cmd.Flags().BoolVar(&opts.Compress, "compress", false, "Write a zstd-compressed file with --save")
	cmd.Flags().BoolVar(&opts.NoFill, "no-fill", false, "Print the coalesced records without forward fill")

	return cmd
}

func runParse(cmd *cobra.Command, args []string, opts *ParseOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}

	p := parser.New(
		parser.WithCoalesceWindow(cfg.Parser.CoalesceWindow.Std()),
		parser.WithOverwriteOnMerge(cfg.Parser.OverwriteOnMerge),
		parser.WithLogger(newLogger(cfg).With("file", logFile)),
	)

	res, err := p.ParseFile(logFile)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", logFile, err)
	}

	label := series.Label(res.Sequence, logFile, cfg.Label.SeatingThreshold)

	var s *series.Series
	if opts.NoFill {
		s = series.Unfilled(res.Sequence)
	} else {
		s = series.FromSequence(res.Sequence)
	}

	if !opts.Save {
		return output.WriteSeries(cmd.OutOrStdout(), s)
	}

	dir := cfg.OutputDir
	if opts.OutDir != "" {
		dir = opts.OutDir
	}
	path, err := output.NewCSVWriter(dir, opts.Compress || cfg.Export.Compress).WriteFile(label, s)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d records to %s\n", s.Len(), path)
	return nil
}
