package analyzer

import (
	"context"
	"fmt"
	"math"
	"math/cmplx"
	"time"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

// minSignalSamples is the shortest signal with a non-DC frequency bin.
const minSignalSamples = 2

// OscillationAnalyzer estimates spreader sway from deflection columns while
// the spreader hovers above the landing point.
type OscillationAnalyzer struct {
	settling *SettlingAnalyzer
	columns  []parser.Field
	gate     *Window
}

// NewOscillationAnalyzer creates an oscillation analyzer. Without a gate the
// samples are those of the settling run; with a gate, every row whose height
// lies in the gate around the target is used.
func NewOscillationAnalyzer(settling *config.SettlingConfig, osc *config.OscillationConfig) (*OscillationAnalyzer, error) {
	s, err := NewSettlingAnalyzer(settling)
	if err != nil {
		return nil, err
	}

	a := &OscillationAnalyzer{settling: s}
	for _, name := range osc.Columns {
		f, ok := parser.FieldByName(name)
		if !ok || f.Kind() != parser.KindInt {
			return nil, fmt.Errorf("oscillation column %q is not a numeric column", name)
		}
		a.columns = append(a.columns, f)
	}
	if len(a.columns) == 0 {
		return nil, fmt.Errorf("oscillation analyzer needs at least one column")
	}

	if osc.Gate != nil {
		a.gate = &Window{Lower: osc.Gate.Lower, Upper: osc.Gate.Upper}
	}
	return a, nil
}

// Name returns the analyzer name.
func (a *OscillationAnalyzer) Name() string {
	return config.AnalyzerOscillation
}

// Type returns the metric type.
func (a *OscillationAnalyzer) Type() MetricType {
	return MetricTypeOscillation
}

// Analyze runs the sway analysis for every configured column.
func (a *OscillationAnalyzer) Analyze(_ context.Context, s *series.Series) (*MetricResult, error) {
	if err := requireColumns(s, a.columns...); err != nil {
		return nil, err
	}

	target, win, rows, err := a.selectRows(s)
	if err != nil {
		return nil, err
	}

	res := &OscillationResult{Target: target, Window: win}
	elapsed := s.Elapsed()
	for _, f := range a.columns {
		vals, ok := s.Column(f)

		var times, signal []float64
		for _, i := range rows {
			if ok[i] {
				times = append(times, elapsed[i])
				signal = append(signal, float64(vals[i].Int))
			}
		}
		if len(signal) < minSignalSamples {
			return nil, fmt.Errorf("%w: %s has %d samples in window", ErrTooFewSamples, f, len(signal))
		}

		stats := AnalyzeSignal(signal, meanInterval(times))
		stats.Column = f.String()
		res.Signals = append(res.Signals, stats)
	}

	return &MetricResult{Name: a.Name(), Type: a.Type(), Oscillation: res}, nil
}

func (a *OscillationAnalyzer) selectRows(s *series.Series) (Target, Window, []int, error) {
	if a.gate == nil {
		st, err := a.settling.Settle(s)
		if err != nil {
			return Target{}, Window{}, nil, err
		}
		return st.Target, st.Window, st.Rows, nil
	}

	target, err := FindTarget(s, a.settling.doneStatus, a.settling.offsets)
	if err != nil {
		return Target{}, Window{}, nil, err
	}
	win := Window{Lower: target.Height() + a.gate.Lower, Upper: target.Height() + a.gate.Upper}

	heights, ok := s.Column(parser.FieldMsgZ)
	var rows []int
	for i := range heights {
		if ok[i] && win.Contains(heights[i].Int) {
			rows = append(rows, i)
		}
	}
	return target, win, rows, nil
}

// AnalyzeSignal detrends signal with a least-squares line over the sample
// index, then reports the dominant non-DC frequency of its spectrum and the
// spread of the detrended values. interval is the sample spacing; when it is
// zero the frequency is reported as 0.
func AnalyzeSignal(signal []float64, interval time.Duration) SignalStats {
	n := len(signal)
	stats := SignalStats{Samples: n, SampleInterval: interval}
	if n == 0 {
		return stats
	}

	detrended := Detrend(signal)
	hi, lo := floats.Max(detrended), floats.Min(detrended)
	stats.PeakToPeak = hi - lo
	stats.Amplitude = stats.PeakToPeak / 2

	if n < minSignalSamples || interval <= 0 {
		return stats
	}

	fft := fourier.NewFFT(n)
	coeffs := fft.Coefficients(nil, detrended)

	best, bestMag := 0, -1.0
	for i := 1; i < len(coeffs); i++ {
		if mag := cmplx.Abs(coeffs[i]); mag > bestMag {
			best, bestMag = i, mag
		}
	}
	if best > 0 {
		stats.DominantFrequency = fft.Freq(best) / interval.Seconds()
	}
	return stats
}

// Detrend subtracts the least-squares line fitted against the sample index.
func Detrend(signal []float64) []float64 {
	out := make([]float64, len(signal))
	if len(signal) < 2 {
		return out
	}

	x := make([]float64, len(signal))
	for i := range x {
		x[i] = float64(i)
	}
	alpha, beta := stat.LinearRegression(x, signal, nil, false)
	for i, y := range signal {
		out[i] = y - (alpha + beta*x[i])
	}
	return out
}

// meanInterval returns the average spacing of offsets given in seconds,
// rounded to the nanosecond.
func meanInterval(offsets []float64) time.Duration {
	if len(offsets) < 2 {
		return 0
	}
	mean := (offsets[len(offsets)-1] - offsets[0]) / float64(len(offsets)-1)
	return time.Duration(math.Round(mean * float64(time.Second)))
}
