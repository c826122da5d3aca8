// Package cli provides the command-line interface for sprtrc.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tlms-tools/sprtrc/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	rootCmd := NewRootCommand()

	if err := rootCmd.Execute(); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sprtrc",
		Short: "Parse and analyze TLMS spreader tracking logs",
		Long: `sprtrc turns TLMS MeasureResult logs into time series of crane spreader
positions and derives landing metrics from them.

For each log it:
  - Parses job metadata and spreader tracking values
  - Coalesces lines logged within 2 ms into one record
  - Forward-fills the series and names it by lane, position and task
  - Exports the series as CSV (optionally zstd-compressed)
  - Reports settling time, sway frequency and the first valid tracking result`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add subcommands
	rootCmd.AddCommand(commands.NewAnalyzeCommand())
	rootCmd.AddCommand(commands.NewParseCommand())
	rootCmd.AddCommand(commands.NewInspectCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
