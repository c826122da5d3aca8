// Package output renders batch reports and exports parsed series.
package output

import (
	"time"

	"github.com/tlms-tools/sprtrc/pkg/analyzer"
	"github.com/tlms-tools/sprtrc/pkg/parser"
)

// FileStatus is the outcome of processing one log file.
type FileStatus string

const (
	// StatusOK means the file produced records and was analyzed.
	StatusOK FileStatus = "ok"

	// StatusEmpty means the file matched no lines and yielded the
	// placeholder record.
	StatusEmpty FileStatus = "empty"

	// StatusFailed means the file could not be read or exported.
	StatusFailed FileStatus = "failed"
)

// Report is the complete output of a batch run.
type Report struct {
	// Summary provides aggregate statistics.
	Summary Summary

	// Files holds one entry per input file, in input order.
	Files []*FileReport

	// Metadata provides context about the run.
	Metadata Metadata
}

// FileReport is the result for one log file.
type FileReport struct {
	Source string
	Label  string
	Status FileStatus

	// Records is the number of rows in the parsed sequence.
	Records int

	// Export is the path of the written CSV, if any.
	Export string

	// Error is set when Status is StatusFailed.
	Error string

	Stats    *parser.Stats
	Analysis *analyzer.AnalysisResult
}

// Lane returns the lane reported by the file, if any.
func (f *FileReport) Lane() (int, bool) {
	if f.Analysis == nil || f.Analysis.Job.Lane == nil {
		return 0, false
	}
	return *f.Analysis.Job.Lane, true
}

// Summary provides aggregate statistics.
type Summary struct {
	// FilesTotal is the number of files in the report.
	FilesTotal int

	FilesAnalyzed int
	FilesEmpty    int
	FilesFailed   int

	// RecordsTotal is the number of rows over all files.
	RecordsTotal int

	// AnalysesSkipped counts analyzers that could not run on a file.
	AnalysesSkipped int
}

// Metadata provides context about the run.
type Metadata struct {
	// RunID identifies the batch run.
	RunID string

	// ConfigFile is the path to the configuration file used, if any.
	ConfigFile string

	// OutputDir is where series exports were written.
	OutputDir string

	// LaneFilter is the lane the report was restricted to, if any.
	LaneFilter *int

	// AnalyzedAt is when the run completed.
	AnalyzedAt time.Time

	// Duration is how long the run took.
	Duration time.Duration
}

// NewReport creates a Report from per-file results.
func NewReport(files []*FileReport, meta Metadata) *Report {
	return &Report{
		Summary:  summarize(files),
		Files:    files,
		Metadata: meta,
	}
}

func summarize(files []*FileReport) Summary {
	s := Summary{FilesTotal: len(files)}
	for _, f := range files {
		switch f.Status {
		case StatusOK:
			s.FilesAnalyzed++
		case StatusEmpty:
			s.FilesEmpty++
		case StatusFailed:
			s.FilesFailed++
		}
		s.RecordsTotal += f.Records
		if f.Analysis != nil {
			s.AnalysesSkipped += f.Analysis.SkippedCount()
		}
	}
	return s
}

// FilterLane returns a report holding only the files whose job reports the
// given lane. Files without a lane are dropped.
func (r *Report) FilterLane(lane int) *Report {
	var files []*FileReport
	for _, f := range r.Files {
		if l, ok := f.Lane(); ok && l == lane {
			files = append(files, f)
		}
	}

	meta := r.Metadata
	meta.LaneFilter = &lane
	return NewReport(files, meta)
}

// HasFailures returns true if any file failed.
func (r *Report) HasFailures() bool {
	return r.Summary.FilesFailed > 0
}
