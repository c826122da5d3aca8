package analyzer

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

// SettlingAnalyzer measures the time the spreader spends at settling height
// just above the landing point.
type SettlingAnalyzer struct {
	doneStatus string
	lower      int
	upper      int
	offsets    []config.TaskOffset
	slope      config.SlopeConfig
}

// NewSettlingAnalyzer creates a settling analyzer from a validated config.
func NewSettlingAnalyzer(cfg *config.SettlingConfig) (*SettlingAnalyzer, error) {
	if cfg.Lower > cfg.Upper {
		return nil, fmt.Errorf("settling window lower (%d) exceeds upper (%d)", cfg.Lower, cfg.Upper)
	}
	if len(cfg.TaskOffsets) == 0 {
		return nil, fmt.Errorf("settling analyzer needs at least one task offset")
	}

	offsets := make([]config.TaskOffset, len(cfg.TaskOffsets))
	copy(offsets, cfg.TaskOffsets)

	doneStatus := cfg.DoneStatus
	if doneStatus == "" {
		doneStatus = config.DefaultDoneStatus
	}

	return &SettlingAnalyzer{
		doneStatus: doneStatus,
		lower:      cfg.Lower,
		upper:      cfg.Upper,
		offsets:    offsets,
		slope:      cfg.Slope,
	}, nil
}

// Name returns the analyzer name.
func (a *SettlingAnalyzer) Name() string {
	return config.AnalyzerSettling
}

// Type returns the metric type.
func (a *SettlingAnalyzer) Type() MetricType {
	return MetricTypeSettling
}

// Analyze finds the settling run of s.
func (a *SettlingAnalyzer) Analyze(_ context.Context, s *series.Series) (*MetricResult, error) {
	res, err := a.Settle(s)
	if err != nil {
		return nil, err
	}
	return &MetricResult{Name: a.Name(), Type: a.Type(), Settling: res}, nil
}

// Settle computes the settling window and extracts the first contiguous run
// of samples whose spreader height lies inside it.
func (a *SettlingAnalyzer) Settle(s *series.Series) (*SettlingResult, error) {
	target, err := FindTarget(s, a.doneStatus, a.offsets)
	if err != nil {
		return nil, err
	}

	win := Window{Lower: target.Height() + a.lower, Upper: target.Height() + a.upper}
	res := &SettlingResult{Target: target, Window: win}

	rows := firstRun(s, win)
	if a.slope.Enabled {
		rows = steadyRows(s, rows, a.slope.Window, a.slope.Tolerance)
	}
	if len(rows) == 0 {
		return res, nil
	}

	ts := s.Timestamps()
	res.Found = true
	res.Rows = rows
	res.Samples = len(rows)
	res.Start = ts[rows[0]]
	res.End = ts[rows[len(rows)-1]]
	res.Span = res.End.Sub(res.Start)
	return res, nil
}

// FindTarget locates the first row whose Measurement_Status equals
// doneStatus and derives the landing height from its Point_Center_Z, task
// code and, for tasks that ask for it, Cont_Height.
func FindTarget(s *series.Series, doneStatus string, offsets []config.TaskOffset) (Target, error) {
	if err := requireColumns(s,
		parser.FieldMeasurementStatus,
		parser.FieldPointCenterZ,
		parser.FieldTask,
		parser.FieldMsgZ,
	); err != nil {
		return Target{}, err
	}

	row := -1
	for i := 0; i < s.Len(); i++ {
		rec := s.At(i)
		if status, ok := rec.Text(parser.FieldMeasurementStatus); ok && status == doneStatus {
			row = i
			break
		}
	}
	if row < 0 {
		return Target{}, fmt.Errorf("%w: no row with Measurement_Status %q", ErrNoTarget, doneStatus)
	}

	rec := s.At(row)
	z, ok := rec.Int(parser.FieldPointCenterZ)
	if !ok {
		return Target{}, fmt.Errorf("%w: Point_Center_Z not set at row %d", ErrNoTarget, row)
	}

	taskText, _ := rec.Text(parser.FieldTask)
	code, err := TaskCode(taskText)
	if err != nil {
		return Target{}, fmt.Errorf("%w: %v", ErrUnknownTask, err)
	}

	var entry *config.TaskOffset
	for i := range offsets {
		if offsets[i].TaskCode == code {
			entry = &offsets[i]
			break
		}
	}
	if entry == nil {
		return Target{}, fmt.Errorf("%w: no offset for task %q", ErrUnknownTask, taskText)
	}

	offset := entry.Offset
	if entry.AddContainerHeight {
		h, ok := rec.Int(parser.FieldContHeight)
		if !ok {
			return Target{}, fmt.Errorf("%w: %s", ErrMissingColumn, parser.FieldContHeight)
		}
		offset += h
	}

	return Target{Row: row, TaskCode: code, Z: z, Offset: offset}, nil
}

// TaskCode extracts the numeric code from a task value such as "2 -  Place".
func TaskCode(task string) (int, error) {
	head, _, _ := strings.Cut(task, "-")
	code, err := strconv.Atoi(strings.TrimSpace(head))
	if err != nil {
		return 0, fmt.Errorf("task %q has no numeric code", task)
	}
	return code, nil
}

// firstRun returns the rows of the first contiguous block whose
// SpTrMsg_position_Z lies in win.
func firstRun(s *series.Series, win Window) []int {
	heights, ok := s.Column(parser.FieldMsgZ)

	var rows []int
	for i := range heights {
		if ok[i] && win.Contains(heights[i].Int) {
			rows = append(rows, i)
			continue
		}
		if len(rows) > 0 {
			break
		}
	}
	return rows
}

// steadyRows keeps the rows whose height change, averaged over a trailing
// window of samples, stays below tolerance.
func steadyRows(s *series.Series, rows []int, window int, tolerance float64) []int {
	if len(rows) == 0 {
		return nil
	}
	if window < 1 {
		window = 1
	}

	heights, _ := s.Column(parser.FieldMsgZ)
	diffs := make([]float64, len(rows))
	for i := 1; i < len(rows); i++ {
		diffs[i] = float64(heights[rows[i]].Int - heights[rows[i-1]].Int)
	}

	var kept []int
	sum := 0.0
	for i := range rows {
		sum += diffs[i]
		if i >= window {
			sum -= diffs[i-window]
		}
		n := min(i+1, window)
		if math.Abs(sum/float64(n)) < tolerance {
			kept = append(kept, rows[i])
		}
	}
	return kept
}
