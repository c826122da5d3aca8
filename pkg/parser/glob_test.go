package parser

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("test"), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestExpandSources_SingleFile(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "MeasureResult_1.csv")
	file := filepath.Join(dir, "MeasureResult_1.csv")

	result, err := ExpandSources([]string{file}, DefaultFilePrefix)
	if err != nil {
		t.Fatalf("ExpandSources() error = %v", err)
	}
	if len(result) != 1 || result[0] != file {
		t.Errorf("ExpandSources() = %v, want [%s]", result, file)
	}
}

func TestExpandSources_GlobPattern(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "a.csv", "b.csv", "c.txt")

	result, err := ExpandSources([]string{filepath.Join(dir, "*.csv")}, DefaultFilePrefix)
	if err != nil {
		t.Fatalf("ExpandSources() error = %v", err)
	}
	if len(result) != 2 {
		t.Errorf("ExpandSources() returned %d files, want 2", len(result))
	}
}

func TestExpandSources_Directory(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir,
		"MeasureResult_1.csv",
		"nested/MeasureResult_2.CSV",
		"nested/deeper/MeasureResult_3.csv",
		"nested/Other_4.csv",
		"MeasureResult_5.txt",
	)

	result, err := ExpandSources([]string{dir}, DefaultFilePrefix)
	if err != nil {
		t.Fatalf("ExpandSources() error = %v", err)
	}

	want := []string{
		filepath.Join(dir, "MeasureResult_1.csv"),
		filepath.Join(dir, "nested/MeasureResult_2.CSV"),
		filepath.Join(dir, "nested/deeper/MeasureResult_3.csv"),
	}
	if len(result) != len(want) {
		t.Fatalf("ExpandSources() = %v, want %v", result, want)
	}
	for i := range want {
		if result[i] != want[i] {
			t.Errorf("ExpandSources()[%d] = %s, want %s", i, result[i], want[i])
		}
	}
}

func TestExpandSources_CustomPrefix(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "MeasureResult_1.csv", "Tracking_1.csv")

	result, err := ExpandSources([]string{dir}, "Tracking")
	if err != nil {
		t.Fatalf("ExpandSources() error = %v", err)
	}
	if len(result) != 1 || filepath.Base(result[0]) != "Tracking_1.csv" {
		t.Errorf("ExpandSources() = %v, want [Tracking_1.csv]", result)
	}
}

func TestExpandSources_NoMatch(t *testing.T) {
	dir := t.TempDir()
	pattern := filepath.Join(dir, "*.nonexistent")

	result, err := ExpandSources([]string{pattern}, DefaultFilePrefix)
	if err != nil {
		t.Fatalf("ExpandSources() error = %v", err)
	}
	// Unmatched patterns come back unchanged
	if len(result) != 1 || result[0] != pattern {
		t.Errorf("ExpandSources() = %v, want [%s]", result, pattern)
	}
}

func TestExpandSources_Deduplication(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "MeasureResult_1.csv")
	file := filepath.Join(dir, "MeasureResult_1.csv")

	result, err := ExpandSources([]string{file, dir, filepath.Join(dir, "*.csv")}, DefaultFilePrefix)
	if err != nil {
		t.Fatalf("ExpandSources() error = %v", err)
	}
	if len(result) != 1 {
		t.Errorf("ExpandSources() returned %d files, want 1 (deduplicated)", len(result))
	}
}

func TestExpandSources_InvalidPattern(t *testing.T) {
	_, err := ExpandSources([]string{"[invalid"}, DefaultFilePrefix)
	if err == nil {
		t.Error("ExpandSources() expected error for invalid pattern")
	}
}

func TestExpandSources_Sorted(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, "MeasureResult_c.csv", "MeasureResult_a.csv", "MeasureResult_b.csv")

	result, err := ExpandSources([]string{
		filepath.Join(dir, "MeasureResult_c.csv"),
		filepath.Join(dir, "MeasureResult_a.csv"),
		filepath.Join(dir, "MeasureResult_b.csv"),
	}, DefaultFilePrefix)
	if err != nil {
		t.Fatalf("ExpandSources() error = %v", err)
	}
	for i := 1; i < len(result); i++ {
		if result[i-1] > result[i] {
			t.Errorf("ExpandSources() not sorted: %v", result)
		}
	}
}
