package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tlms-tools/sprtrc/pkg/analyzer"
	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
	Sample  int
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string // "ok", "warning", "error"
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration and log issues",
		Long: `Diagnose common configuration and log issues.

This command checks your configuration file and a sample of the logs it
points to:
- Config file syntax and structure
- Log source existence and accessibility
- Whether logs reach the start and tracking markers
- Whether a settling target can be derived from the job data

Example:
  sprtrc diagnose sprtrc.yaml
  sprtrc diagnose -v --sample 10 sprtrc.yaml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDiagnose(cmd.Context(), cmd.OutOrStdout(), args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")
	cmd.Flags().IntVarP(&opts.Sample, "sample", "n", 5, "Number of log files to parse")

	return cmd
}

func runDiagnose(ctx context.Context, w io.Writer, configPath string, opts *DiagnoseOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	results := []DiagnosticResult{}

	// 1. Check config file existence
	result := checkConfigExists(configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 2. Parse config file
	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == "error" {
		printDiagnostics(w, results, opts)
		return nil
	}

	// 3. Check log sources
	files, sourceResults := checkLogSources(cfg)
	results = append(results, sourceResults...)

	// 4. Parse a sample of the logs
	results = append(results, checkLogContent(cfg, files, opts)...)

	printDiagnostics(w, results, opts)
	return nil
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{
		Check: "Config File",
	}

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		result.Status = "error"
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{"Check the file path is correct"}
		return result
	}
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
		return result
	}
	if info.IsDir() {
		result.Status = "error"
		result.Message = "Path is a directory, not a file"
		return result
	}

	result.Status = "ok"
	result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{
		Check: "Config Syntax",
	}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = "error"
		result.Message = fmt.Sprintf("Failed to parse config: %v", err)
		switch strings.ToLower(filepath.Ext(path)) {
		case ".toml":
			result.Suggests = []string{"Check TOML syntax - strings must be quoted"}
		default:
			result.Suggests = []string{"Check YAML syntax - ensure proper indentation (use spaces, not tabs)"}
		}
		return nil, result
	}

	result.Status = "ok"
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Log sources: %d", len(cfg.LogSources)),
		fmt.Sprintf("Analyzers: %s", strings.Join(cfg.Analyzers, ", ")),
		fmt.Sprintf("Output dir: %s", cfg.OutputDir),
	}
	return cfg, result
}

func checkLogSources(cfg *config.Config) ([]string, []DiagnosticResult) {
	results := []DiagnosticResult{}

	if len(cfg.LogSources) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Sources",
			Status:  "error",
			Message: "No log sources defined",
			Suggests: []string{
				"Add a log_sources section to your config",
				"Example: log_sources:\n  - /data/tlms/logs",
			},
		})
		return nil, results
	}

	var files []string
	for _, source := range cfg.LogSources {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Source: %s", source),
		}

		matched, err := parser.ExpandSources([]string{source}, cfg.FilePrefix)
		if err != nil {
			result.Status = "error"
			result.Message = err.Error()
			results = append(results, result)
			continue
		}

		var found []string
		for _, m := range matched {
			if _, err := os.Stat(m); err == nil {
				found = append(found, m)
			}
		}

		switch {
		case len(found) == 0:
			result.Status = "warning"
			result.Message = "No log files found"
			result.Suggests = []string{
				"Check if the log files exist at this path",
				fmt.Sprintf("Directories are searched for %s*.csv", cfg.FilePrefix),
			}
		default:
			result.Status = "ok"
			result.Message = fmt.Sprintf("Matches %d file(s)", len(found))
			result.Details = append(result.Details, found...)
			files = append(files, found...)
		}
		results = append(results, result)
	}

	if len(files) == 0 {
		results = append(results, DiagnosticResult{
			Check:   "Log Files Summary",
			Status:  "error",
			Message: "No accessible log files found",
			Suggests: []string{
				"Ensure at least one log file exists and is readable",
			},
		})
	}

	return files, results
}

func checkLogContent(cfg *config.Config, files []string, opts *DiagnoseOptions) []DiagnosticResult {
	results := []DiagnosticResult{}

	if opts.Sample > 0 && len(files) > opts.Sample {
		files = files[:opts.Sample]
	}

	p := parser.New(
		parser.WithCoalesceWindow(cfg.Parser.CoalesceWindow.Std()),
		parser.WithOverwriteOnMerge(cfg.Parser.OverwriteOnMerge),
	)

	for _, file := range files {
		result := DiagnosticResult{
			Check: fmt.Sprintf("Log Content: %s", filepath.Base(file)),
		}

		res, err := p.ParseFile(file)
		if err != nil {
			result.Status = "error"
			result.Message = fmt.Sprintf("Cannot read file: %v", err)
			results = append(results, result)
			continue
		}

		st := res.Stats
		result.Details = []string{
			fmt.Sprintf("Lines: %d read, %d matched", st.LinesRead, st.LinesMatched),
			fmt.Sprintf("Records: %d", st.Records),
			fmt.Sprintf("Final state: %s", st.FinalState),
		}

		switch {
		case st.FinalState == parser.StateAwaitStart:
			result.Status = "error"
			result.Message = "Start marker never found"
			result.Suggests = []string{
				"The log must contain 'ASCCS Start Measurement Message received'",
				"Check that this is a TLMS MeasureResult log",
			}
		case st.MalformedTimestamps > 0:
			result.Status = "warning"
			result.Message = fmt.Sprintf("%d line(s) with malformed timestamps skipped", st.MalformedTimestamps)
			result.Suggests = []string{"Timestamps must look like 15.01.2024 10:00:01;123"}
		case !st.FinalState.Terminal():
			result.Status = "warning"
			result.Message = "No spreader tracking data"
			result.Suggests = []string{"The job metadata was found but no tracking message followed"}
		default:
			result.Status = "ok"
			result.Message = series.Label(res.Sequence, file, cfg.Label.SeatingThreshold)
		}

		if result.Status == "ok" && cfg.AnalyzerEnabled(config.AnalyzerSettling) {
			s := series.FromSequence(res.Sequence)
			target, err := analyzer.FindTarget(s, cfg.Settling.DoneStatus, cfg.Settling.TaskOffsets)
			switch {
			case err == nil:
				result.Details = append(result.Details, fmt.Sprintf("Settling target: %d mm", target.Height()))
			case errors.Is(err, analyzer.ErrUnknownTask):
				result.Status = "warning"
				result.Message = "Task has no configured settling offset"
				result.Suggests = []string{"Add the task code to settling.task_offsets"}
			default:
				result.Status = "warning"
				result.Message = fmt.Sprintf("No settling target: %v", err)
			}
		}

		results = append(results, result)
	}

	return results
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== sprtrc Diagnostics ===")
	fmt.Fprintln(w)

	okCount := 0
	warnCount := 0
	errCount := 0

	for _, r := range results {
		// Status icon
		var icon string
		switch r.Status {
		case "ok":
			icon = "PASS"
			okCount++
		case "warning":
			icon = "WARN"
			warnCount++
		case "error":
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != "ok" {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}

		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}

		fmt.Fprintln(w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	if errCount > 0 {
		fmt.Fprintln(w, "\nFix the errors above before running analysis.")
	} else if warnCount > 0 {
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	} else {
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}
