// Package series turns a parsed sequence into the dense, forward-filled table
// consumed by analyzers and the CSV export.
package series

import (
	"time"

	"github.com/tlms-tools/sprtrc/pkg/parser"
)

// Series is a forward-filled copy of a parsed sequence. It shares no memory
// with the sequence it was built from.
type Series struct {
	records     []parser.Record
	placeholder bool
}

// FromSequence builds a Series from seq. Every missing field takes the most
// recent value at or before its row; leading gaps stay empty.
func FromSequence(seq *parser.Sequence) *Series {
	return &Series{
		records:     Fill(seq.Records()),
		placeholder: seq.Placeholder(),
	}
}

// Unfilled builds a Series holding copies of the coalesced records of seq
// without forward fill.
func Unfilled(seq *parser.Sequence) *Series {
	return &Series{
		records:     seq.Records(),
		placeholder: seq.Placeholder(),
	}
}

// Fill returns a forward-filled deep copy of records. Filling an already
// filled slice returns an equal slice.
func Fill(records []parser.Record) []parser.Record {
	out := make([]parser.Record, len(records))
	for i := range records {
		out[i] = records[i].Clone()
		if i > 0 {
			out[i].Merge(&out[i-1], false)
		}
	}
	return out
}

// Len returns the number of rows.
func (s *Series) Len() int {
	return len(s.records)
}

// At returns a copy of row i.
func (s *Series) At(i int) parser.Record {
	return s.records[i].Clone()
}

// Records returns copies of all rows.
func (s *Series) Records() []parser.Record {
	out := make([]parser.Record, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].Clone()
	}
	return out
}

// Placeholder reports whether the source file produced no records.
func (s *Series) Placeholder() bool {
	return s.placeholder
}

// Column returns the cells of f. ok[i] is false where row i has no value.
func (s *Series) Column(f parser.Field) (vals []parser.Value, ok []bool) {
	vals = make([]parser.Value, len(s.records))
	ok = make([]bool, len(s.records))
	for i := range s.records {
		vals[i], ok[i] = s.records[i].Value(f)
	}
	return vals, ok
}

// HasColumn reports whether any row has a value for f.
func (s *Series) HasColumn(f parser.Field) bool {
	for i := range s.records {
		if s.records[i].Has(f) {
			return true
		}
	}
	return false
}

// Timestamps returns the row timestamps.
func (s *Series) Timestamps() []time.Time {
	out := make([]time.Time, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].Timestamp
	}
	return out
}

// Elapsed returns seconds since the first row for every row.
func (s *Series) Elapsed() []float64 {
	out := make([]float64, len(s.records))
	if len(s.records) == 0 {
		return out
	}
	start := s.records[0].Timestamp
	for i := range s.records {
		out[i] = s.records[i].Timestamp.Sub(start).Seconds()
	}
	return out
}

