package commands

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/parser"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a sprtrc configuration file without running analysis.

Checks:
  - YAML or TOML syntax
  - Log level, coalesce window and seating threshold
  - Analyzer names
  - Settling window and task offset table
  - Oscillation columns (must be integer columns)
  - Log source file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Validating %s...\n", configPath)

	// Load and validate config
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	// Report what we found
	fmt.Fprintf(w, "\nConfiguration valid!\n")
	fmt.Fprintf(w, "  Log sources:     %d pattern(s)\n", len(cfg.LogSources))
	fmt.Fprintf(w, "  Output dir:      %s\n", cfg.OutputDir)
	fmt.Fprintf(w, "  Workers:         %d\n", cfg.Workers)
	fmt.Fprintf(w, "  Coalesce window: %s\n", cfg.Parser.CoalesceWindow)
	fmt.Fprintf(w, "  Analyzers:       %s\n", strings.Join(cfg.Analyzers, ", "))

	if cfg.AnalyzerEnabled(config.AnalyzerSettling) {
		fmt.Fprintf(w, "\nSettling window: %+d..%+d mm around target\n", cfg.Settling.Lower, cfg.Settling.Upper)
		for _, o := range cfg.Settling.TaskOffsets {
			extra := ""
			if o.AddContainerHeight {
				extra = " + container height"
			}
			fmt.Fprintf(w, "  task %d: %d mm%s\n", o.TaskCode, o.Offset, extra)
		}
	}

	// Check if log sources exist (warnings only)
	files, err := parser.ExpandSources(cfg.LogSources, cfg.FilePrefix)
	if err != nil {
		fmt.Fprintf(w, "\nWarning: Error expanding log source patterns: %v\n", err)
	} else if len(files) == 0 {
		fmt.Fprintf(w, "\nWarning: No log sources configured\n")
	} else {
		fmt.Fprintf(w, "\nLog files matched: %d\n", len(files))
		for _, f := range files {
			if _, err := os.Stat(f); err != nil {
				fmt.Fprintf(w, "  - %s (warning: %v)\n", f, err)
				continue
			}
			fmt.Fprintf(w, "  - %s\n", f)
		}
	}

	return nil
}
