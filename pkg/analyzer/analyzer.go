package analyzer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

// Analyzer runs the configured engines over one series at a time. It holds
// no per-series state and is safe for concurrent use.
type Analyzer struct {
	cfg     *config.Config
	engines []Engine

	// Options
	metricFilter map[string]bool // nil means all enabled analyzers
	logger       *slog.Logger
}

// AnalyzerOption configures analyzer behavior.
type AnalyzerOption func(*Analyzer)

// WithMetricFilter limits analysis to the named analyzers.
func WithMetricFilter(names []string) AnalyzerOption {
	return func(a *Analyzer) {
		if len(names) > 0 {
			a.metricFilter = make(map[string]bool)
			for _, n := range names {
				a.metricFilter[n] = true
			}
		}
	}
}

// WithLogger sets the logger used to report skipped analyzers.
func WithLogger(l *slog.Logger) AnalyzerOption {
	return func(a *Analyzer) {
		if l != nil {
			a.logger = l
		}
	}
}

// NewAnalyzer creates a new analyzer from a validated configuration.
func NewAnalyzer(cfg *config.Config, opts ...AnalyzerOption) (*Analyzer, error) {
	a := &Analyzer{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		opt(a)
	}

	for name := range a.metricFilter {
		if !slices.Contains(config.AllAnalyzers, name) {
			return nil, fmt.Errorf("unknown analyzer: %s", name)
		}
	}

	for _, name := range config.AllAnalyzers {
		if !cfg.AnalyzerEnabled(name) {
			continue
		}
		if a.metricFilter != nil && !a.metricFilter[name] {
			continue
		}

		engine, err := createEngine(cfg, name)
		if err != nil {
			return nil, fmt.Errorf("creating %s analyzer: %w", name, err)
		}
		a.engines = append(a.engines, engine)
	}

	return a, nil
}

// createEngine creates the engine for an analyzer name.
func createEngine(cfg *config.Config, name string) (Engine, error) {
	switch name {
	case config.AnalyzerSettling:
		return NewSettlingAnalyzer(&cfg.Settling)
	case config.AnalyzerOscillation:
		return NewOscillationAnalyzer(&cfg.Settling, &cfg.Oscillation)
	case config.AnalyzerFirstValid:
		return NewFirstValidAnalyzer(&cfg.FirstValid), nil
	default:
		return nil, fmt.Errorf("unknown analyzer: %s", name)
	}
}

// Engines returns the names of the engines that will run, in order.
func (a *Analyzer) Engines() []string {
	names := make([]string, len(a.engines))
	for i, e := range a.engines {
		names[i] = e.Name()
	}
	return names
}

// AnalysisResult contains the complete analysis output for one series.
type AnalysisResult struct {
	// Job is the per-file summary row.
	Job JobInfo

	// Results contains the outcome of each engine, in engine order.
	Results []*MetricResult

	// Metadata provides context about the analysis.
	Metadata AnalysisMetadata
}

// AnalysisMetadata provides context about the analysis run.
type AnalysisMetadata struct {
	// Source is the analyzed log file.
	Source string

	// Records is the number of rows in the series.
	Records int

	// StartTime is when analysis began.
	StartTime time.Time

	// EndTime is when analysis completed.
	EndTime time.Time
}

// Result returns the result of the given metric type, or nil.
func (r *AnalysisResult) Result(t MetricType) *MetricResult {
	for _, res := range r.Results {
		if res.Type == t {
			return res
		}
	}
	return nil
}

// SkippedCount returns the number of analyzers that could not run.
func (r *AnalysisResult) SkippedCount() int {
	count := 0
	for _, res := range r.Results {
		if res.Skipped {
			count++
		}
	}
	return count
}

// Analyze runs every engine over s. Engines that cannot analyze the series
// are recorded as skipped; any other engine error aborts the analysis.
func (a *Analyzer) Analyze(ctx context.Context, s *series.Series, source string) (*AnalysisResult, error) {
	result := &AnalysisResult{
		Job:     ExtractJobInfo(s, source),
		Results: make([]*MetricResult, 0, len(a.engines)),
		Metadata: AnalysisMetadata{
			Source:    source,
			Records:   s.Len(),
			StartTime: time.Now(),
		},
	}

	for _, engine := range a.engines {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		res, err := engine.Analyze(ctx, s)
		if err != nil {
			if !recoverable(err) {
				return nil, fmt.Errorf("running %s analyzer: %w", engine.Name(), err)
			}
			a.logger.Info("analysis skipped", "file", source, "analyzer", engine.Name(), "reason", err)
			res = &MetricResult{
				Name:       engine.Name(),
				Type:       engine.Type(),
				Skipped:    true,
				SkipReason: err.Error(),
			}
		}
		result.Results = append(result.Results, res)
	}

	result.Metadata.EndTime = time.Now()

	return result, nil
}
