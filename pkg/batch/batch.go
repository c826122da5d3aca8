// Package batch runs the parse, label, analyze and export pipeline over a
// set of log files.
package batch

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tlms-tools/sprtrc/pkg/analyzer"
	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/output"
	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

// Runner processes log files in parallel. Each file is parsed, labeled,
// analyzed and exported independently; a failing file never stops the
// others.
type Runner struct {
	cfg      *config.Config
	analyzer *analyzer.Analyzer
	exporter *output.CSVWriter
	workers  int
	logger   *slog.Logger

	analyzerOpts []analyzer.AnalyzerOption
	noExport     bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the logger. Per-file messages carry a file attribute.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithWorkers overrides the configured number of parallel files.
func WithWorkers(n int) Option {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithAnalyzerOptions passes options to the analyzer.
func WithAnalyzerOptions(opts ...analyzer.AnalyzerOption) Option {
	return func(r *Runner) {
		r.analyzerOpts = append(r.analyzerOpts, opts...)
	}
}

// WithoutExport disables writing series files regardless of configuration.
func WithoutExport() Option {
	return func(r *Runner) {
		r.noExport = true
	}
}

// New creates a Runner from a validated configuration.
func New(cfg *config.Config, opts ...Option) (*Runner, error) {
	r := &Runner{
		cfg:     cfg,
		workers: cfg.Workers,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		r.workers = 1
	}

	a, err := analyzer.NewAnalyzer(cfg, append([]analyzer.AnalyzerOption{analyzer.WithLogger(r.logger)}, r.analyzerOpts...)...)
	if err != nil {
		return nil, err
	}
	r.analyzer = a

	if cfg.Export.Enabled && !r.noExport {
		r.exporter = output.NewCSVWriter(cfg.OutputDir, cfg.Export.Compress)
	}

	return r, nil
}

// Result is the outcome of a batch run.
type Result struct {
	RunID string

	// Files holds one report per input file, in input order.
	Files []*output.FileReport

	StartTime time.Time
	EndTime   time.Time
}

// Failed returns the number of files that failed.
func (r *Result) Failed() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == output.StatusFailed {
			n++
		}
	}
	return n
}

// Report builds the output report for the run.
func (r *Result) Report(configFile, outputDir string) *output.Report {
	return output.NewReport(r.Files, output.Metadata{
		RunID:      r.RunID,
		ConfigFile: configFile,
		OutputDir:  outputDir,
		AnalyzedAt: r.EndTime,
		Duration:   r.EndTime.Sub(r.StartTime),
	})
}

// Run processes files with at most the configured number in flight.
// Cancelling ctx stops files that have not started yet; Run then returns
// the context error.
func (r *Runner) Run(ctx context.Context, files []string) (*Result, error) {
	result := &Result{
		RunID:     uuid.NewString(),
		Files:     make([]*output.FileReport, len(files)),
		StartTime: time.Now(),
	}
	logger := r.logger.With("run", result.RunID)
	logger.Info("batch started", "files", len(files), "workers", r.workers)

	var g errgroup.Group
	g.SetLimit(r.workers)

	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result.Files[i] = r.processFile(ctx, path, logger.With("file", path))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result.EndTime = time.Now()
	logger.Info("batch finished",
		"files", len(files),
		"failed", result.Failed(),
		"duration", result.EndTime.Sub(result.StartTime).Round(time.Millisecond))

	return result, nil
}

// ProcessFile runs the pipeline for a single file.
func (r *Runner) ProcessFile(ctx context.Context, path string) *output.FileReport {
	return r.processFile(ctx, path, r.logger.With("file", path))
}

func (r *Runner) processFile(ctx context.Context, path string, logger *slog.Logger) *output.FileReport {
	report := &output.FileReport{Source: path}

	p := parser.New(
		parser.WithCoalesceWindow(r.cfg.Parser.CoalesceWindow.Std()),
		parser.WithOverwriteOnMerge(r.cfg.Parser.OverwriteOnMerge),
		parser.WithLogger(logger),
	)

	parsed, err := p.ParseFile(path)
	if err != nil {
		logger.Error("parse failed", "error", err)
		return failed(report, err)
	}

	seq := parsed.Sequence
	report.Stats = &parsed.Stats
	report.Records = seq.Len()
	report.Label = series.Label(seq, path, r.cfg.Label.SeatingThreshold)
	report.Status = output.StatusOK
	if seq.Placeholder() {
		report.Status = output.StatusEmpty
		logger.Warn("no records parsed", "lines", parsed.Stats.LinesRead)
	}

	s := series.FromSequence(seq)

	analysis, err := r.analyzer.Analyze(ctx, s, path)
	if err != nil {
		logger.Error("analysis failed", "error", err)
		return failed(report, err)
	}
	report.Analysis = analysis

	if r.exporter != nil {
		out, err := r.exporter.WriteFile(report.Label, s)
		if err != nil {
			logger.Error("export failed", "error", err)
			return failed(report, err)
		}
		report.Export = out
	}

	logger.Info("file processed",
		"label", report.Label,
		"records", report.Records,
		"skipped", analysis.SkippedCount())

	return report
}

func failed(report *output.FileReport, err error) *output.FileReport {
	report.Status = output.StatusFailed
	report.Error = err.Error()
	return report
}
