package analyzer

import (
	"context"
	"testing"

	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/parser"
)

func createTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return cfg
}

func TestNewAnalyzer(t *testing.T) {
	a, err := NewAnalyzer(createTestConfig(t))
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}

	want := []string{"settling", "oscillation", "first_valid"}
	got := a.Engines()
	if len(got) != len(want) {
		t.Fatalf("Engines() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Engines()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestNewAnalyzer_ConfigSelection(t *testing.T) {
	cfg := createTestConfig(t)
	cfg.Analyzers = []string{config.AnalyzerFirstValid}

	a, err := NewAnalyzer(cfg)
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	if got := a.Engines(); len(got) != 1 || got[0] != "first_valid" {
		t.Errorf("Engines() = %v, want [first_valid]", got)
	}
}

func TestNewAnalyzer_MetricFilter(t *testing.T) {
	a, err := NewAnalyzer(createTestConfig(t), WithMetricFilter([]string{"settling"}))
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	if got := a.Engines(); len(got) != 1 || got[0] != "settling" {
		t.Errorf("Engines() = %v, want [settling]", got)
	}
}

func TestNewAnalyzer_UnknownMetric(t *testing.T) {
	if _, err := NewAnalyzer(createTestConfig(t), WithMetricFilter([]string{"wobble"})); err == nil {
		t.Error("expected error for unknown analyzer name")
	}
}

func TestAnalyzer_Analyze(t *testing.T) {
	a, err := NewAnalyzer(createTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	s := buildSeries(
		parser.Record{
			Timestamp:         at(0),
			Lane:              parser.Ptr(3),
			Task:              parser.Ptr("1 -  Pick"),
			MeasurementStatus: parser.Ptr("Done"),
			PointCenterZ:      parser.Ptr(1500),
			MsgZ:              parser.Ptr(5000),
		},
		parser.Record{Timestamp: at(100), MsgZ: parser.Ptr(1870), CalcY: parser.Ptr(1), CalcSkew: parser.Ptr(2), EventCode: parser.Ptr(5)},
		parser.Record{Timestamp: at(200), MsgZ: parser.Ptr(1860), CalcY: parser.Ptr(3), CalcSkew: parser.Ptr(2)},
		parser.Record{Timestamp: at(300), MsgZ: parser.Ptr(1000)},
	)

	res, err := a.Analyze(context.Background(), s, "/logs/MeasureResult_1.csv")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if res.Metadata.Records != 4 || res.Metadata.Source != "/logs/MeasureResult_1.csv" {
		t.Errorf("Metadata = %+v", res.Metadata)
	}
	if res.Job.FileName != "MeasureResult_1.csv" || res.Job.Lane == nil || *res.Job.Lane != 3 {
		t.Errorf("Job = %+v", res.Job)
	}
	if res.SkippedCount() != 0 {
		t.Errorf("SkippedCount() = %d, want 0", res.SkippedCount())
	}

	settling := res.Result(MetricTypeSettling)
	if settling == nil || settling.Settling == nil || settling.Settling.Samples != 2 {
		t.Errorf("settling result = %+v", settling)
	}
	if osc := res.Result(MetricTypeOscillation); osc == nil || len(osc.Oscillation.Signals) != 2 {
		t.Errorf("oscillation result = %+v", osc)
	}
	fv := res.Result(MetricTypeFirstValid)
	if fv == nil || !fv.FirstValid.Found || fv.FirstValid.Row != 1 {
		t.Errorf("first valid result = %+v", fv)
	}
}

func TestAnalyzer_SkipsMissingColumns(t *testing.T) {
	a, err := NewAnalyzer(createTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	// Placeholder series: no column has a value.
	res, err := a.Analyze(context.Background(), buildSeries(), "MeasureResult_empty.csv")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}

	if res.SkippedCount() != 3 {
		t.Errorf("SkippedCount() = %d, want 3", res.SkippedCount())
	}
	for _, r := range res.Results {
		if !r.Skipped || r.SkipReason == "" {
			t.Errorf("%s: Skipped = %v, reason %q", r.Name, r.Skipped, r.SkipReason)
		}
	}
}

func TestAnalyzer_Cancelled(t *testing.T) {
	a, err := NewAnalyzer(createTestConfig(t))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := a.Analyze(ctx, buildSeries(), "f.csv"); err == nil {
		t.Error("Analyze() expected error for cancelled context")
	}
}

func TestFirstValid(t *testing.T) {
	a := NewFirstValidAnalyzer(&config.FirstValidConfig{EventCode: 5})

	s := buildSeries(
		parser.Record{Timestamp: at(0), EventCode: parser.Ptr(3), CalcSkew: parser.Ptr(9)},
		parser.Record{Timestamp: at(100), EventCode: parser.Ptr(5), CalcSkew: parser.Ptr(-2), MsgSkew: parser.Ptr(4)},
		parser.Record{Timestamp: at(200), EventCode: parser.Ptr(5), CalcSkew: parser.Ptr(7)},
	)

	res, err := a.Analyze(context.Background(), s)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	fv := res.FirstValid
	if !fv.Found || fv.Row != 1 || !fv.Timestamp.Equal(at(100)) {
		t.Errorf("FirstValid = %+v", fv)
	}
	if fv.CalcSkew == nil || *fv.CalcSkew != -2 || fv.MsgSkew == nil || *fv.MsgSkew != 4 {
		t.Errorf("skews = %v / %v", fv.CalcSkew, fv.MsgSkew)
	}
}

func TestFirstValid_NotFound(t *testing.T) {
	a := NewFirstValidAnalyzer(&config.FirstValidConfig{EventCode: 5})
	s := buildSeries(parser.Record{Timestamp: at(0), EventCode: parser.Ptr(1)})

	res, err := a.Analyze(context.Background(), s)
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if res.FirstValid.Found || res.FirstValid.Row != -1 {
		t.Errorf("FirstValid = %+v, want not found", res.FirstValid)
	}
}

func TestExtractJobInfo(t *testing.T) {
	s := buildSeries(
		parser.Record{
			Timestamp:     at(0),
			Lane:          parser.Ptr(2),
			Task:          parser.Ptr("2 -  Place"),
			Position:      parser.Ptr("1 - Front"),
			ChassisLength: parser.Ptr("40ft"),
			ContHeight:    parser.Ptr(2591),
		},
		parser.Record{Timestamp: at(100), Lane: parser.Ptr(7)},
	)

	info := ExtractJobInfo(s, "/x/MeasureResult_9.csv")
	if info.FileName != "MeasureResult_9.csv" || !info.Timestamp.Equal(at(0)) {
		t.Errorf("ExtractJobInfo() = %+v", info)
	}
	if info.Lane == nil || *info.Lane != 2 {
		t.Errorf("Lane = %v, want 2", info.Lane)
	}
	if info.ContHeight == nil || *info.ContHeight != 2591 {
		t.Errorf("ContHeight = %v, want 2591", info.ContHeight)
	}
	if info.ContWidth != nil || info.ChassisType != nil {
		t.Error("unset fields should stay nil")
	}
}
