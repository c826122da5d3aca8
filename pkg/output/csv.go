package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/tlms-tools/sprtrc/pkg/parser"
	"github.com/tlms-tools/sprtrc/pkg/series"
)

const (
	csvExt  = ".csv"
	zstdExt = ".zst"
)

// CSVWriter exports series as CSV files named after their label.
type CSVWriter struct {
	dir      string
	compress bool
}

// NewCSVWriter creates a writer for dir. With compress set, files are
// written zstd-compressed with a .csv.zst extension.
func NewCSVWriter(dir string, compress bool) *CSVWriter {
	return &CSVWriter{dir: dir, compress: compress}
}

// Path returns the file a label is exported to.
func (w *CSVWriter) Path(label string) string {
	name := label + csvExt
	if w.compress {
		name += zstdExt
	}
	return filepath.Join(w.dir, name)
}

// WriteFile exports s to the file for label, creating the output directory
// if needed, and returns the written path.
func (w *CSVWriter) WriteFile(label string, s *series.Series) (path string, err error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	path = w.Path(label)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("closing %s: %w", path, cerr)
		}
	}()

	if !w.compress {
		if err := WriteSeries(f, s); err != nil {
			return "", fmt.Errorf("writing %s: %w", path, err)
		}
		return path, nil
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		return "", err
	}
	if err := WriteSeries(enc, s); err != nil {
		enc.Close()
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("compressing %s: %w", path, err)
	}
	return path, nil
}

// WriteSeries writes s as CSV: a header of column names, then one row per
// record with unset cells left empty.
func WriteSeries(w io.Writer, s *series.Series) error {
	fields := parser.Fields()
	cw := csv.NewWriter(w)

	row := make([]string, len(fields))
	for i, f := range fields {
		row[i] = f.String()
	}
	if err := cw.Write(row); err != nil {
		return err
	}

	for i := 0; i < s.Len(); i++ {
		rec := s.At(i)
		for j, f := range fields {
			if v, ok := rec.Value(f); ok {
				row[j] = v.String()
			} else {
				row[j] = ""
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
