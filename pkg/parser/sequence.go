package parser

import (
	"sort"
	"time"
)

// DefaultCoalesceWindow is the timestamp distance below which two lines are
// treated as parts of the same event.
const DefaultCoalesceWindow = 2 * time.Millisecond

// Coalescer accumulates matched fields into records. It is the only mutable
// state of a parse run and is owned by that run.
type Coalescer struct {
	window    time.Duration
	overwrite bool

	records []Record
	tail    *Record
	merges  int
}

// NewCoalescer creates an empty accumulator. With overwrite set, a later
// value for a field replaces the earlier one within a merged record;
// otherwise the first writer wins.
func NewCoalescer(window time.Duration, overwrite bool) *Coalescer {
	return &Coalescer{window: window, overwrite: overwrite}
}

// Add merges fields into the tail record when ts is within the window of the
// tail's timestamp and appends a new record otherwise. It reports whether a
// merge happened.
func (c *Coalescer) Add(ts time.Time, fields *Record) bool {
	if c.tail != nil && absDuration(ts.Sub(c.tail.Timestamp)) < c.window {
		c.tail.Merge(fields, c.overwrite)
		c.merges++
		return true
	}

	rec := Record{Timestamp: ts}
	rec.Merge(fields, false)
	c.records = append(c.records, rec)
	c.tail = &c.records[len(c.records)-1]
	return false
}

// Len returns the number of records opened so far.
func (c *Coalescer) Len() int {
	return len(c.records)
}

// Merges returns how many Add calls merged into an existing record.
func (c *Coalescer) Merges() int {
	return c.merges
}

// Finish hands the records over as an immutable Sequence. An accumulator
// without records yields a single empty placeholder record. The coalescer
// must not be used afterwards.
func (c *Coalescer) Finish() *Sequence {
	records := c.records
	c.records, c.tail = nil, nil

	if len(records) == 0 {
		return &Sequence{records: []Record{{}}, placeholder: true}
	}

	// Lines that went backwards in time by more than the window were
	// appended out of order.
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Timestamp.Before(records[j].Timestamp)
	})
	return &Sequence{records: records}
}

// Sequence is the ordered, immutable result of parsing one file. Timestamps
// are non-decreasing.
type Sequence struct {
	records     []Record
	placeholder bool
}

// Len returns the number of records. It is at least 1.
func (s *Sequence) Len() int {
	return len(s.records)
}

// At returns a copy of record i.
func (s *Sequence) At(i int) Record {
	return s.records[i].Clone()
}

// First returns a copy of the first record.
func (s *Sequence) First() Record {
	return s.At(0)
}

// Records returns deep copies of all records.
func (s *Sequence) Records() []Record {
	out := make([]Record, len(s.records))
	for i := range s.records {
		out[i] = s.records[i].Clone()
	}
	return out
}

// Placeholder reports whether the file produced no records and the
// sequence holds only the empty placeholder.
func (s *Sequence) Placeholder() bool {
	return s.placeholder
}

// Any reports whether some record satisfies pred. Records are passed by
// pointer and must not be modified.
func (s *Sequence) Any(pred func(*Record) bool) bool {
	for i := range s.records {
		if pred(&s.records[i]) {
			return true
		}
	}
	return false
}

// NewSequence wraps records that were coalesced elsewhere. Records are
// copied and sorted by timestamp.
func NewSequence(records []Record) *Sequence {
	c := &Coalescer{}
	for i := range records {
		c.records = append(c.records, records[i].Clone())
	}
	return c.Finish()
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
