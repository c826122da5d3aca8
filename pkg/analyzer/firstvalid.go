package analyzer

import (
	"context"

	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

// FirstValidAnalyzer finds the first tracking result with a valid event
// code and reports the skew values at that moment.
type FirstValidAnalyzer struct {
	eventCode int
}

// NewFirstValidAnalyzer creates the analyzer for the configured event code.
func NewFirstValidAnalyzer(cfg *config.FirstValidConfig) *FirstValidAnalyzer {
	return &FirstValidAnalyzer{eventCode: cfg.EventCode}
}

// Name returns the analyzer name.
func (a *FirstValidAnalyzer) Name() string {
	return config.AnalyzerFirstValid
}

// Type returns the metric type.
func (a *FirstValidAnalyzer) Type() MetricType {
	return MetricTypeFirstValid
}

// Analyze scans s for the first row with the valid event code.
func (a *FirstValidAnalyzer) Analyze(_ context.Context, s *series.Series) (*MetricResult, error) {
	if err := requireColumns(s, parser.FieldEventCode); err != nil {
		return nil, err
	}

	res := &FirstValidResult{Row: -1}
	for i := 0; i < s.Len(); i++ {
		rec := s.At(i)
		if code, ok := rec.Int(parser.FieldEventCode); !ok || code != a.eventCode {
			continue
		}
		res.Found = true
		res.Row = i
		res.Timestamp = rec.Timestamp
		res.CalcSkew = rec.CalcSkew
		res.MsgSkew = rec.MsgSkew
		break
	}

	return &MetricResult{Name: a.Name(), Type: a.Type(), FirstValid: res}, nil
}
