package analyzer

import (
	"errors"
	"fmt"

	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

var (
	// ErrMissingColumn means a column the analyzer needs has no value in any
	// row of the series.
	ErrMissingColumn = errors.New("missing column")

	// ErrNoTarget means no row carries the done status with a target
	// height.
	ErrNoTarget = errors.New("no target height")

	// ErrUnknownTask means the job's task has no configured offset.
	ErrUnknownTask = errors.New("unknown task")

	// ErrTooFewSamples means the selected window holds fewer samples than
	// the analysis needs.
	ErrTooFewSamples = errors.New("too few samples")
)

// recoverable reports whether err only skips the analyzer.
func recoverable(err error) bool {
	return errors.Is(err, ErrMissingColumn) ||
		errors.Is(err, ErrNoTarget) ||
		errors.Is(err, ErrUnknownTask) ||
		errors.Is(err, ErrTooFewSamples)
}

// requireColumns returns ErrMissingColumn naming the first field without a
// value anywhere in s.
func requireColumns(s *series.Series, fields ...parser.Field) error {
	for _, f := range fields {
		if !s.HasColumn(f) {
			return fmt.Errorf("%w: %s", ErrMissingColumn, f)
		}
	}
	return nil
}
