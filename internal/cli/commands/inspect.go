package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

// InspectOptions holds command-line options for the inspect command.
type InspectOptions struct {
	ConfigFile string
	Output     string
}

// NewInspectCommand creates the inspect command.
func NewInspectCommand() *cobra.Command {
	opts := &InspectOptions{}

	cmd := &cobra.Command{
		Use:   "inspect <log-file>",
		Short: "Show how a log file is parsed",
		Long: `Parse a single log file and report what the parser saw: lines read and
matched, records produced, coalesced lines, malformed timestamps, the state
transitions with their line numbers and how often each pattern matched.

Useful to check why a file produced an empty or unexpected series.

Example:
  sprtrc inspect MeasureResult_20240115_100001.csv
  sprtrc inspect -o json MeasureResult_20240115_100001.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file (YAML or TOML)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")

	return cmd
}

// InspectResult is the inspect report for one file.
type InspectResult struct {
	File        string            `json:"file"`
	Label       string            `json:"label"`
	Seated      bool              `json:"seated"`
	Placeholder bool              `json:"placeholder"`
	Stats       inspectStats      `json:"stats"`
	Transitions []JSONTransition  `json:"transitions"`
	MatcherHits map[string]int    `json:"matcher_hits"`
	FirstRecord map[string]string `json:"first_record,omitempty"`
}

type inspectStats struct {
	LinesRead           int    `json:"lines_read"`
	LinesMatched        int    `json:"lines_matched"`
	Records             int    `json:"records"`
	Merges              int    `json:"merges"`
	MalformedTimestamps int    `json:"malformed_timestamps"`
	InvalidValues       int    `json:"invalid_values"`
	FinalState          string `json:"final_state"`
}

// JSONTransition is a state change in JSON output.
type JSONTransition struct {
	From string `json:"from"`
	To   string `json:"to"`
	Line int    `json:"line"`
}

func runInspect(cmd *cobra.Command, args []string, opts *InspectOptions) error {
	logFile := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	cfg, err := loadConfig(ctx, opts.ConfigFile)
	if err != nil {
		return err
	}

	p := parser.New(
		parser.WithCoalesceWindow(cfg.Parser.CoalesceWindow.Std()),
		parser.WithOverwriteOnMerge(cfg.Parser.OverwriteOnMerge),
	)
	res, err := p.ParseFile(logFile)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", logFile, err)
	}

	result := newInspectResult(logFile, res, cfg.Label.SeatingThreshold)

	switch opts.Output {
	case "json":
		encoder := json.NewEncoder(cmd.OutOrStdout())
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	default:
		outputInspectText(cmd.OutOrStdout(), result)
		return nil
	}
}

func newInspectResult(logFile string, res *parser.Result, threshold int) *InspectResult {
	st := res.Stats
	result := &InspectResult{
		File:        logFile,
		Label:       series.Label(res.Sequence, logFile, threshold),
		Seated:      series.Seated(res.Sequence, threshold),
		Placeholder: st.Placeholder,
		Stats: inspectStats{
			LinesRead:           st.LinesRead,
			LinesMatched:        st.LinesMatched,
			Records:             st.Records,
			Merges:              st.Merges,
			MalformedTimestamps: st.MalformedTimestamps,
			InvalidValues:       st.InvalidValues,
			FinalState:          st.FinalState.String(),
		},
		Transitions: make([]JSONTransition, 0, len(st.Transitions)),
		MatcherHits: st.MatcherHits,
	}

	for _, tr := range st.Transitions {
		result.Transitions = append(result.Transitions, JSONTransition{
			From: tr.From.String(),
			To:   tr.To.String(),
			Line: tr.LineNum,
		})
	}

	if !st.Placeholder {
		first := res.Sequence.First()
		result.FirstRecord = make(map[string]string)
		for _, f := range parser.Fields() {
			if v, ok := first.Value(f); ok {
				result.FirstRecord[f.String()] = v.String()
			}
		}
	}

	return result
}

func outputInspectText(w io.Writer, r *InspectResult) {
	fmt.Fprintln(w, "=== Log Inspection ===")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "File: %s\n", r.File)
	fmt.Fprintf(w, "Label: %s\n", r.Label)
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Lines read: %d\n", r.Stats.LinesRead)
	fmt.Fprintf(w, "Lines matched: %d\n", r.Stats.LinesMatched)
	fmt.Fprintf(w, "Records: %d (%d lines coalesced)\n", r.Stats.Records, r.Stats.Merges)
	if r.Stats.MalformedTimestamps > 0 {
		fmt.Fprintf(w, "Malformed timestamps: %d\n", r.Stats.MalformedTimestamps)
	}
	if r.Stats.InvalidValues > 0 {
		fmt.Fprintf(w, "Invalid values: %d\n", r.Stats.InvalidValues)
	}
	fmt.Fprintf(w, "Final state: %s\n", r.Stats.FinalState)
	fmt.Fprintln(w)

	if r.Placeholder {
		fmt.Fprintln(w, "No records parsed.")
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Tip: The parser waits for the ASCCS start marker before reading job data.")
		fmt.Fprintln(w, "Check that the file contains a complete measurement.")
		fmt.Fprintln(w)
	}
	if !r.Seated {
		fmt.Fprintln(w, "Spreader never went below the seating threshold.")
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "--- State transitions ---")
	for _, tr := range r.Transitions {
		fmt.Fprintf(w, "  line %d: %s -> %s\n", tr.Line, tr.From, tr.To)
	}
	fmt.Fprintln(w)

	if len(r.MatcherHits) > 0 {
		fmt.Fprintln(w, "--- Pattern matches ---")
		names := make([]string, 0, len(r.MatcherHits))
		for name := range r.MatcherHits {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-24s %d\n", name, r.MatcherHits[name])
		}
		fmt.Fprintln(w)
	}
}
