package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tlms-tools/sprtrc/pkg/analyzer"
)

// TextFormatter formats reports as human-readable text. Headings are styled
// when the writer is a terminal and plain otherwise.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

type textStyles struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	empty  lipgloss.Style
	failed lipgloss.Style
	label  lipgloss.Style
	dim    lipgloss.Style
}

func newTextStyles(w io.Writer) textStyles {
	r := lipgloss.NewRenderer(w)
	return textStyles{
		title:  r.NewStyle().Bold(true),
		ok:     r.NewStyle().Foreground(lipgloss.Color("2")).Bold(true),
		empty:  r.NewStyle().Foreground(lipgloss.Color("3")).Bold(true),
		failed: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		label:  r.NewStyle().Bold(true),
		dim:    r.NewStyle().Faint(true),
	}
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "sprtrc: %d files, %d analyzed, %d empty, %d failed\n",
		report.Summary.FilesTotal,
		report.Summary.FilesAnalyzed,
		report.Summary.FilesEmpty,
		report.Summary.FilesFailed)
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	st := newTextStyles(w)

	// Header
	fmt.Fprintln(w, st.title.Render("=== Spreader Tracking Report ==="))
	if report.Metadata.RunID != "" {
		fmt.Fprintln(w, st.dim.Render("Run "+report.Metadata.RunID))
	}
	if report.Metadata.LaneFilter != nil {
		fmt.Fprintf(w, "Lane filter: %d\n", *report.Metadata.LaneFilter)
	}
	fmt.Fprintln(w)

	for _, file := range report.Files {
		f.formatFile(st, file, w)
	}

	// Summary
	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d files, %d analyzed, %d empty, %d failed\n",
		report.Summary.FilesTotal,
		report.Summary.FilesAnalyzed,
		report.Summary.FilesEmpty,
		report.Summary.FilesFailed)

	if f.opts.Verbose {
		fmt.Fprintf(w, "Records: %d\n", report.Summary.RecordsTotal)
		fmt.Fprintf(w, "Analyses skipped: %d\n", report.Summary.AnalysesSkipped)
		if report.Metadata.OutputDir != "" {
			fmt.Fprintf(w, "Output: %s\n", report.Metadata.OutputDir)
		}
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e6))
	}

	return nil
}

func (f *TextFormatter) formatFile(st textStyles, file *FileReport, w io.Writer) {
	var status string
	switch file.Status {
	case StatusOK:
		status = st.ok.Render("[OK]")
	case StatusEmpty:
		status = st.empty.Render("[EMPTY]")
	default:
		status = st.failed.Render("[FAILED]")
	}

	name := file.Label
	if name == "" {
		name = file.Source
	}
	fmt.Fprintf(w, "%s %s\n", status, st.label.Render(name))

	if file.Status == StatusFailed {
		fmt.Fprintf(w, "  Error: %s\n", file.Error)
		fmt.Fprintln(w)
		return
	}

	if f.opts.Verbose {
		fmt.Fprintf(w, "  Source: %s\n", file.Source)
		if s := file.Stats; s != nil {
			fmt.Fprintf(w, "  Lines: %d read, %d matched, %d merged, %d malformed timestamps\n",
				s.LinesRead, s.LinesMatched, s.Merges, s.MalformedTimestamps)
			fmt.Fprintf(w, "  Final state: %s\n", s.FinalState)
		}
	}
	fmt.Fprintf(w, "  Records: %d\n", file.Records)

	if file.Analysis != nil {
		formatJob(&file.Analysis.Job, w)
		for _, res := range file.Analysis.Results {
			f.formatMetric(res, w)
		}
	}

	if file.Export != "" && f.opts.Verbose {
		fmt.Fprintf(w, "  Export: %s\n", file.Export)
	}
	fmt.Fprintln(w)
}

func formatJob(job *analyzer.JobInfo, w io.Writer) {
	var parts []string
	if job.Lane != nil {
		parts = append(parts, fmt.Sprintf("lane %d", *job.Lane))
	}
	if job.Task != nil {
		parts = append(parts, "task "+strings.TrimSpace(*job.Task))
	}
	if job.Position != nil {
		parts = append(parts, "position "+strings.TrimSpace(*job.Position))
	}
	if job.ContHeight != nil {
		parts = append(parts, fmt.Sprintf("container height %d mm", *job.ContHeight))
	}
	if len(parts) == 0 {
		return
	}
	fmt.Fprintf(w, "  Job: %s\n", strings.Join(parts, ", "))
}

func (f *TextFormatter) formatMetric(res *analyzer.MetricResult, w io.Writer) {
	if res.Skipped {
		fmt.Fprintf(w, "  %s: skipped (%s)\n", res.Name, res.SkipReason)
		return
	}

	switch res.Type {
	case analyzer.MetricTypeSettling:
		formatSettling(res.Settling, w)
	case analyzer.MetricTypeOscillation:
		formatOscillation(res.Oscillation, w)
	case analyzer.MetricTypeFirstValid:
		formatFirstValid(res.FirstValid, w)
	}
}

func formatSettling(r *analyzer.SettlingResult, w io.Writer) {
	fmt.Fprintf(w, "  Settling: window %d..%d mm (target %d)",
		r.Window.Lower, r.Window.Upper, r.Target.Height())
	if !r.Found {
		fmt.Fprintln(w, ", no samples")
		return
	}
	fmt.Fprintf(w, ", %d samples over %s from %s\n",
		r.Samples, r.Span, r.Start.Format("15:04:05.000"))
}

func formatOscillation(r *analyzer.OscillationResult, w io.Writer) {
	for _, s := range r.Signals {
		fmt.Fprintf(w, "  Oscillation %s: %.2f Hz, amplitude %.1f, peak-to-peak %.1f (%d samples)\n",
			s.Column, s.DominantFrequency, s.Amplitude, s.PeakToPeak, s.Samples)
	}
}

func formatFirstValid(r *analyzer.FirstValidResult, w io.Writer) {
	if !r.Found {
		fmt.Fprintln(w, "  First valid: none")
		return
	}
	fmt.Fprintf(w, "  First valid: %s, calc skew %s, msg skew %s\n",
		r.Timestamp.Format("15:04:05.000"), intOrDash(r.CalcSkew), intOrDash(r.MsgSkew))
}

func intOrDash(p *int) string {
	if p == nil {
		return "-"
	}
	return fmt.Sprint(*p)
}
