package batch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/tlms-tools/sprtrc/pkg/analyzer"
	"github.com/tlms-tools/sprtrc/pkg/config"
	"github.com/tlms-tools/sprtrc/pkg/output"
)

func logLine(ts, body string) string {
	return ts + ";1; ; ;S; " + body
}

// pickJob returns a lane 3 pick job whose spreader settles around 1870 mm.
func pickJob() string {
	lines := []string{
		logLine("15.01.2024 10:00:01;000", "- ASCCS Start Measurement Message received"),
		logLine("15.01.2024 10:00:01;010", "- Lane: 3"),
		logLine("15.01.2024 10:00:01;010", "- Task: 1 -  Pick"),
		logLine("15.01.2024 10:00:01;010", "- Pos: 1 - Front"),
		logLine("15.01.2024 10:00:01;011", "-  | MeasStat - Done"),
		logLine("15.01.2024 10:00:01;011", "- Point Center X/Y/Z: 100 / 200 / 1500"),
		logLine("15.01.2024 10:00:02;000", "- Spreader Tracking Message received"),
	}
	for i, z := range []int{1900, 1870, 1860, 1000} {
		ts := fmt.Sprintf("15.01.2024 10:00:02;%d00", i+1)
		lines = append(lines,
			logLine(ts, fmt.Sprintf("- Spreader position Z: %d", z)),
			logLine(ts, fmt.Sprintf("- Spreader calc. position Y: %d", i)),
			logLine(ts, "- Spreader calc. Skew: 2"),
			logLine(ts, "- Error/Event code: 5"),
		)
	}
	return strings.Join(lines, "\n") + "\n"
}

func writeLog(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testConfig(t *testing.T, modify func(*config.Config)) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.OutputDir = filepath.Join(t.TempDir(), "Output")
	if modify != nil {
		modify(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	return cfg
}

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	files := []string{
		writeLog(t, dir, "MeasureResult_1.csv", pickJob()),
		writeLog(t, dir, "MeasureResult_2.csv", "TLMS started\nnothing to see\n"),
		filepath.Join(dir, "MeasureResult_missing.csv"),
	}

	cfg := testConfig(t, nil)
	r, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := r.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if _, err := uuid.Parse(res.RunID); err != nil {
		t.Errorf("RunID %q is not a UUID: %v", res.RunID, err)
	}
	if len(res.Files) != 3 {
		t.Fatalf("Files = %d, want 3", len(res.Files))
	}

	ok := res.Files[0]
	if ok.Status != output.StatusOK || ok.Source != files[0] {
		t.Errorf("file 0 = %s %s (%s)", ok.Status, ok.Source, ok.Error)
	}
	if ok.Label != "Lane_3_Pos_Front_Pick_MeasureResult_1" {
		t.Errorf("Label = %q", ok.Label)
	}
	if ok.Records != 5 {
		t.Errorf("Records = %d, want 5", ok.Records)
	}
	if ok.Export != filepath.Join(cfg.OutputDir, ok.Label+".csv") {
		t.Errorf("Export = %q", ok.Export)
	}
	if _, err := os.Stat(ok.Export); err != nil {
		t.Errorf("export not written: %v", err)
	}
	settling := ok.Analysis.Result(analyzer.MetricTypeSettling)
	if settling == nil || settling.Skipped || settling.Settling.Samples != 3 {
		t.Errorf("settling = %+v", settling)
	}

	empty := res.Files[1]
	if empty.Status != output.StatusEmpty || empty.Records != 1 {
		t.Errorf("file 1 = %s, %d records", empty.Status, empty.Records)
	}
	if empty.Label != "Lane_xx_Pos_yy_na_MeasureResult_2_Not_seated" {
		t.Errorf("empty Label = %q", empty.Label)
	}
	if empty.Analysis.SkippedCount() != 3 {
		t.Errorf("empty SkippedCount() = %d, want 3", empty.Analysis.SkippedCount())
	}
	if _, err := os.Stat(empty.Export); err != nil {
		t.Errorf("placeholder export not written: %v", err)
	}

	missing := res.Files[2]
	if missing.Status != output.StatusFailed || missing.Error == "" || missing.Export != "" {
		t.Errorf("file 2 = %+v", missing)
	}

	if res.Failed() != 1 {
		t.Errorf("Failed() = %d, want 1", res.Failed())
	}

	report := res.Report("sprtrc.yaml", cfg.OutputDir)
	if report.Summary.FilesAnalyzed != 1 || report.Summary.FilesEmpty != 1 || report.Summary.FilesFailed != 1 {
		t.Errorf("Summary = %+v", report.Summary)
	}
	if report.Metadata.RunID != res.RunID || report.Metadata.ConfigFile != "sprtrc.yaml" {
		t.Errorf("Metadata = %+v", report.Metadata)
	}
}

func TestRunner_PreservesInputOrder(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 0; i < 12; i++ {
		files = append(files, writeLog(t, dir, fmt.Sprintf("MeasureResult_%02d.csv", i), pickJob()))
	}

	r, err := New(testConfig(t, nil), WithWorkers(4), WithoutExport())
	if err != nil {
		t.Fatal(err)
	}
	res, err := r.Run(context.Background(), files)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	for i, f := range res.Files {
		if f.Source != files[i] {
			t.Errorf("Files[%d].Source = %s, want %s", i, f.Source, files[i])
		}
		if f.Export != "" {
			t.Errorf("Files[%d] exported with export disabled", i)
		}
	}
}

func TestRunner_CompressedExport(t *testing.T) {
	path := writeLog(t, t.TempDir(), "MeasureResult_1.csv", pickJob())

	cfg := testConfig(t, func(c *config.Config) {
		c.Export.Compress = true
	})
	r, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}

	rep := r.ProcessFile(context.Background(), path)
	if rep.Status != output.StatusOK {
		t.Fatalf("Status = %s (%s)", rep.Status, rep.Error)
	}
	if !strings.HasSuffix(rep.Export, ".csv.zst") {
		t.Errorf("Export = %q, want .csv.zst", rep.Export)
	}
}

func TestRunner_MetricFilter(t *testing.T) {
	path := writeLog(t, t.TempDir(), "MeasureResult_1.csv", pickJob())

	r, err := New(testConfig(t, nil), WithoutExport(),
		WithAnalyzerOptions(analyzer.WithMetricFilter([]string{config.AnalyzerFirstValid})))
	if err != nil {
		t.Fatal(err)
	}

	rep := r.ProcessFile(context.Background(), path)
	if len(rep.Analysis.Results) != 1 || rep.Analysis.Results[0].Type != analyzer.MetricTypeFirstValid {
		t.Errorf("Results = %+v", rep.Analysis.Results)
	}
}

func TestRunner_Cancelled(t *testing.T) {
	path := writeLog(t, t.TempDir(), "MeasureResult_1.csv", pickJob())

	r, err := New(testConfig(t, nil), WithoutExport())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := r.Run(ctx, []string{path, path}); err == nil {
		t.Error("Run() expected error for cancelled context")
	}
}

func TestRunner_LogsFileAttribute(t *testing.T) {
	dir := t.TempDir()
	missing := filepath.Join(dir, "MeasureResult_gone.csv")

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	r, err := New(testConfig(t, nil), WithLogger(logger), WithoutExport())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.Run(context.Background(), []string{missing}); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	logs := buf.String()
	if !strings.Contains(logs, "parse failed") || !strings.Contains(logs, "file="+missing) {
		t.Errorf("logs missing file attribute:\n%s", logs)
	}
	if !strings.Contains(logs, "batch finished") {
		t.Errorf("logs missing batch summary:\n%s", logs)
	}
}
