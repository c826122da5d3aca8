package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runDiagnoseCmd(t *testing.T, args ...string) string {
	t.Helper()
	cmd := NewDiagnoseCommand()
	cmd.SetArgs(args)

	var buf bytes.Buffer
	cmd.SetOut(&buf)

	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("diagnose failed: %v", err)
	}
	return buf.String()
}

func mkdir(t *testing.T, dir string) string {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestNewDiagnoseCommand(t *testing.T) {
	cmd := NewDiagnoseCommand()

	if cmd.Use != "diagnose <config-file>" {
		t.Errorf("Use = %q, want 'diagnose <config-file>'", cmd.Use)
	}
	for _, name := range []string{"verbose", "sample"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("missing --%s flag", name)
		}
	}
}

func TestRunDiagnose_MissingConfig(t *testing.T) {
	output := runDiagnoseCmd(t, "/nonexistent/sprtrc.yaml")

	for _, exp := range []string{
		"[FAIL] Config File",
		"Config file not found",
		"Summary: 0 passed, 0 warnings, 1 errors",
		"Fix the errors above",
	} {
		if !strings.Contains(output, exp) {
			t.Errorf("Output missing %q\nGot:\n%s", exp, output)
		}
	}
}

func TestRunDiagnose_InvalidYAML(t *testing.T) {
	configPath := writeFile(t, t.TempDir(), "config.yaml", "log_sources: [unclosed\n")

	output := runDiagnoseCmd(t, configPath)

	if !strings.Contains(output, "[FAIL] Config Syntax") {
		t.Errorf("expected syntax failure\nGot:\n%s", output)
	}
	if !strings.Contains(output, "Hint: Check YAML syntax") {
		t.Errorf("expected YAML hint\nGot:\n%s", output)
	}
}

func TestRunDiagnose_LogChecks(t *testing.T) {
	tmpDir := t.TempDir()
	logDir := filepath.Join(tmpDir, "logs")
	writeFile(t, mkdir(t, logDir), "MeasureResult_1.csv", jobLog(3))
	writeFile(t, logDir, "MeasureResult_2.csv", logLine("15.01.2024 10:00:00;000", "TLMS started")+"\n")

	config := `log_sources:
  - ` + logDir + `
  - ` + filepath.Join(tmpDir, "elsewhere", "MeasureResult_9.csv") + `
`
	configPath := writeFile(t, tmpDir, "config.yaml", config)

	output := runDiagnoseCmd(t, "-v", configPath)

	expected := []string{
		"[PASS] Config File",
		"[PASS] Config Syntax",
		"[PASS] Log Source: " + logDir,
		"Matches 2 file(s)",
		"[WARN] Log Source: ",
		"No log files found",
		"[PASS] Log Content: MeasureResult_1.csv",
		"Lane_3_Pos_Middle_Pick_MeasureResult_1",
		"Settling target: 1870 mm",
		"[FAIL] Log Content: MeasureResult_2.csv",
		"Start marker never found",
		"Summary: 4 passed, 1 warnings, 1 errors",
	}
	for _, exp := range expected {
		if !strings.Contains(output, exp) {
			t.Errorf("Output missing %q\nGot:\n%s", exp, output)
		}
	}
}

func TestRunDiagnose_Sample(t *testing.T) {
	tmpDir := t.TempDir()
	for _, name := range []string{"MeasureResult_1.csv", "MeasureResult_2.csv", "MeasureResult_3.csv"} {
		writeFile(t, tmpDir, name, jobLog(1))
	}
	configPath := writeFile(t, tmpDir, "config.yaml", "log_sources:\n  - "+tmpDir+"\n")

	output := runDiagnoseCmd(t, "--sample", "1", configPath)

	if got := strings.Count(output, "Log Content:"); got != 1 {
		t.Errorf("parsed %d files, want 1\nGot:\n%s", got, output)
	}
	if !strings.Contains(output, "Configuration looks good!") {
		t.Errorf("expected clean summary\nGot:\n%s", output)
	}
}
