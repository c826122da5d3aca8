// Package analyzer derives settling and sway metrics from forward-filled
// spreader tracking series.
package analyzer

import (
	"time"
)

// MetricType enumerates the analyzers.
type MetricType string

const (
	MetricTypeSettling    MetricType = "settling"
	MetricTypeOscillation MetricType = "oscillation"
	MetricTypeFirstValid  MetricType = "first_valid"
)

// MetricResult is the outcome of one analyzer on one series. Exactly one of
// the typed results is set unless the analyzer was skipped.
type MetricResult struct {
	// Name is the analyzer name for reporting.
	Name string

	// Type indicates which analyzer produced the result.
	Type MetricType

	// Skipped is set when the series lacks what the analyzer needs. The
	// reason is human-readable.
	Skipped    bool
	SkipReason string

	Settling    *SettlingResult
	Oscillation *OscillationResult
	FirstValid  *FirstValidResult
}

// Target is the landing height derived from the job metadata.
type Target struct {
	// Row is the index of the first row with the done status.
	Row int

	TaskCode int

	// Z is Point_Center_Z of the target row.
	Z int

	// Offset includes the container height for tasks that add it.
	Offset int
}

// Height returns the reference height the windows are placed around.
func (t Target) Height() int {
	return t.Z + t.Offset
}

// Window is an inclusive range of spreader heights.
type Window struct {
	Lower int
	Upper int
}

// Contains reports whether z lies inside the window, bounds included.
func (w Window) Contains(z int) bool {
	return z >= w.Lower && z <= w.Upper
}

// SettlingResult describes how long the spreader hovered at settling
// height before landing.
type SettlingResult struct {
	Target Target
	Window Window

	// Found is false when no sample lies inside the window.
	Found bool

	Start   time.Time
	End     time.Time
	Span    time.Duration
	Samples int

	// Rows are the series indices of the samples, in order.
	Rows []int
}

// SignalStats is the sway analysis of one deflection column.
type SignalStats struct {
	Column  string
	Samples int

	// SampleInterval is the mean spacing of the analyzed samples.
	SampleInterval time.Duration

	// DominantFrequency is in Hz; the DC component is excluded.
	DominantFrequency float64

	// Amplitude is half the peak-to-peak value of the detrended signal.
	Amplitude  float64
	PeakToPeak float64
}

// OscillationResult holds the sway analysis per column.
type OscillationResult struct {
	Target  Target
	Window  Window
	Signals []SignalStats
}

// Signal returns the stats for a column.
func (r *OscillationResult) Signal(column string) (SignalStats, bool) {
	for _, s := range r.Signals {
		if s.Column == column {
			return s, true
		}
	}
	return SignalStats{}, false
}

// FirstValidResult is the first tracking result carrying the valid event
// code.
type FirstValidResult struct {
	Found     bool
	Row       int
	Timestamp time.Time

	// CalcSkew is SpTrRes_calc_Skew and MsgSkew SpTrMsg_position_Skew at
	// that row; nil when not reported.
	CalcSkew *int
	MsgSkew  *int
}

// JobInfo is the per-file summary taken from the first row.
type JobInfo struct {
	FileName  string
	Timestamp time.Time

	Lane          *int
	Task          *string
	Position      *string
	ChassisLength *string
	ChassisType   *string
	ContLength    *int
	ContWidth     *int
	ContHeight    *int
}
