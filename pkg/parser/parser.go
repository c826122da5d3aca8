package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
)

// Transition records a state change and the line that caused it.
type Transition struct {
	From    State
	To      State
	LineNum int
}

// Stats describes one parse run.
type Stats struct {
	// Source is the file path, empty when parsing in-memory lines.
	Source string

	LinesRead           int
	LinesMatched        int
	MalformedTimestamps int
	InvalidValues       int

	// Records is the number of records in the final sequence.
	Records int

	// Merges counts lines folded into an already open record.
	Merges int

	// Placeholder is set when the file yielded no records.
	Placeholder bool

	FinalState  State
	Transitions []Transition

	// MatcherHits counts matched lines per matcher name.
	MatcherHits map[string]int
}

// Result is the output of parsing one file.
type Result struct {
	Sequence *Sequence
	Stats    Stats
}

// Parser turns TLMS log lines into a Sequence. A Parser is stateless between
// calls and safe for concurrent use; every call owns its own accumulator.
type Parser struct {
	window    time.Duration
	overwrite bool
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithCoalesceWindow sets the merge window (default 2ms).
func WithCoalesceWindow(d time.Duration) Option {
	return func(p *Parser) {
		if d > 0 {
			p.window = d
		}
	}
}

// WithOverwriteOnMerge lets later lines replace fields already set on the
// record they merge into.
func WithOverwriteOnMerge(v bool) Option {
	return func(p *Parser) {
		p.overwrite = v
	}
}

// WithLogger sets the logger used for per-line debug output.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		window: DefaultCoalesceWindow,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ParseFile reads the whole file and parses it. Only a read failure is an
// error; it is returned as a *FileError.
func (p *Parser) ParseFile(path string) (*Result, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	res := p.Parse(lines)
	res.Stats.Source = path
	return res, nil
}

// Parse runs the state machine over lines in order. Lines that match no
// active pattern or carry a malformed timestamp are skipped. The returned
// sequence always holds at least one record.
func (p *Parser) Parse(lines []string) *Result {
	stats := Stats{MatcherHits: make(map[string]int)}
	acc := NewCoalescer(p.window, p.overwrite)

	state := p.advance(&stats, StateInit, StateAwaitStart, 0)
	for i, line := range lines {
		stats.LinesRead++
		state = p.step(&stats, acc, state, line, i+1)
	}

	seq := acc.Finish()
	stats.Records = seq.Len()
	stats.Merges = acc.Merges()
	stats.Placeholder = seq.Placeholder()
	stats.FinalState = state

	if stats.Placeholder {
		p.logger.Debug("no records parsed", "error", ErrEmptyResult, "lines", stats.LinesRead)
	}
	return &Result{Sequence: seq, Stats: stats}
}

// step processes one line and returns the state for the next one.
func (p *Parser) step(stats *Stats, acc *Coalescer, state State, line string, lineNum int) State {
	match, err := MatchLine(state, line)
	switch {
	case err == nil:
	case errors.Is(err, ErrMalformedTimestamp):
		stats.MalformedTimestamps++
		p.logger.Debug("skipping line", "line", lineNum, "error", err)
		return state
	case errors.Is(err, ErrNoMatch):
		return state
	case errors.Is(err, ErrInvalidValue):
		stats.InvalidValues++
		p.logger.Debug("skipping line", "line", lineNum, "error", err)
		return state
	default:
		p.logger.Warn("skipping line", "line", lineNum, "error", err)
		return state
	}

	stats.LinesMatched++
	stats.MatcherHits[match.Matcher]++

	if match.Marker {
		return p.advance(stats, state, match.Next, lineNum)
	}
	acc.Add(match.Timestamp, &match.Fields)
	return state
}

func (p *Parser) advance(stats *Stats, from, to State, lineNum int) State {
	if to <= from {
		return from
	}
	stats.Transitions = append(stats.Transitions, Transition{From: from, To: to, LineNum: lineNum})
	p.logger.Debug("state transition", "from", from, "to", to, "line", lineNum)
	return to
}

// ReadLines reads a whole log file into memory, one entry per line with the
// line terminator removed.
func ReadLines(path string) ([]string, error) {
	f, err := os.Open(path) // #nosec G304 -- user-provided paths are expected
	if err != nil {
		return nil, &FileError{Path: path, Err: err}
	}
	defer f.Close()

	lines, err := readLines(f)
	if err != nil {
		return nil, &FileError{Path: path, Err: fmt.Errorf("reading: %w", err)}
	}
	return lines, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024) // 1MB max line size
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
