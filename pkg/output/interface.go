package output

import (
	"context"
	"io"
)

// Formatter renders a batch report in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose adds parse statistics, export paths and timing.
	Verbose bool

	// Quiet enables minimal summary-only output.
	Quiet bool
}

// NewFormatter returns the formatter for a format name.
func NewFormatter(name string, opts FormatOptions) (Formatter, bool) {
	switch name {
	case "text":
		return NewTextFormatter(opts), true
	case "json":
		return NewJSONFormatter(opts), true
	default:
		return nil, false
	}
}
