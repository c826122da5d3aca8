package output

import (
	"time"

	"github.com/tlms-tools/sprtrc/pkg/analyzer"
	"github.com/tlms-tools/sprtrc/pkg/parser"
)

var t0 = time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)

func createTestReport() *Report {
	lane := 3
	task := "1 -  Pick"
	calcSkew, msgSkew := -2, 4

	ok := &FileReport{
		Source:  "/logs/MeasureResult_1.csv",
		Label:   "Lane_3_Pos_1_Pick_MeasureResult_1",
		Status:  StatusOK,
		Records: 120,
		Export:  "Output/Lane_3_Pos_1_Pick_MeasureResult_1.csv",
		Stats: &parser.Stats{
			Source:       "/logs/MeasureResult_1.csv",
			LinesRead:    400,
			LinesMatched: 360,
			Records:      120,
			Merges:       240,
			FinalState:   parser.StateCaptureTracking,
		},
		Analysis: &analyzer.AnalysisResult{
			Job: analyzer.JobInfo{FileName: "MeasureResult_1.csv", Timestamp: t0, Lane: &lane, Task: &task},
			Results: []*analyzer.MetricResult{
				{
					Name: "settling",
					Type: analyzer.MetricTypeSettling,
					Settling: &analyzer.SettlingResult{
						Target:  analyzer.Target{TaskCode: 1, Z: 1500, Offset: 370},
						Window:  analyzer.Window{Lower: 1810, Upper: 1920},
						Found:   true,
						Start:   t0.Add(time.Second),
						End:     t0.Add(1200 * time.Millisecond),
						Span:    200 * time.Millisecond,
						Samples: 3,
						Rows:    []int{10, 11, 12},
					},
				},
				{
					Name: "oscillation",
					Type: analyzer.MetricTypeOscillation,
					Oscillation: &analyzer.OscillationResult{
						Signals: []analyzer.SignalStats{
							{Column: "SpTrRes_calc_Y", Samples: 3, SampleInterval: 100 * time.Millisecond, DominantFrequency: 1.25, Amplitude: 4, PeakToPeak: 8},
						},
					},
				},
				{
					Name:       "first_valid",
					Type:       analyzer.MetricTypeFirstValid,
					FirstValid: &analyzer.FirstValidResult{Found: true, Row: 4, Timestamp: t0.Add(400 * time.Millisecond), CalcSkew: &calcSkew, MsgSkew: &msgSkew},
				},
			},
		},
	}

	empty := &FileReport{
		Source:  "/logs/MeasureResult_2.csv",
		Label:   "Lane_xx_Pos_yy_na_MeasureResult_2_Not_seated",
		Status:  StatusEmpty,
		Records: 1,
		Analysis: &analyzer.AnalysisResult{
			Results: []*analyzer.MetricResult{
				{Name: "settling", Type: analyzer.MetricTypeSettling, Skipped: true, SkipReason: "missing column"},
			},
		},
	}

	failed := &FileReport{
		Source: "/logs/MeasureResult_3.csv",
		Status: StatusFailed,
		Error:  "reading /logs/MeasureResult_3.csv: permission denied",
	}

	return NewReport([]*FileReport{ok, empty, failed}, Metadata{
		RunID:      "0b7c6c1e-5f4e-4d43-9d1e-3c0c3a1f2b9a",
		OutputDir:  "Output",
		AnalyzedAt: t0,
		Duration:   1500 * time.Millisecond,
	})
}
