package analyzer

import (
	"context"

	"github.com/tlms-tools/sprtrc/pkg/series"
)

// Engine computes one metric from a forward-filled series. Engines hold no
// per-series state and may be shared between goroutines.
type Engine interface {
	// Name returns the analyzer name for reporting.
	Name() string

	// Type returns the metric type.
	Type() MetricType

	// Analyze runs the metric. Errors matching ErrMissingColumn,
	// ErrNoTarget, ErrUnknownTask or ErrTooFewSamples mean the series
	// cannot be analyzed; any other error is fatal.
	Analyze(ctx context.Context, s *series.Series) (*MetricResult, error)
}
