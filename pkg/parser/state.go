package parser

import (
	"errors"
	"strconv"
)

// State is the phase of the log the parser is in. States only ever advance.
type State int

const (
	// StateInit is the state before the first line; it advances to
	// StateAwaitStart immediately.
	StateInit State = iota

	// StateAwaitStart skips everything until the ASCCS start marker.
	StateAwaitStart

	// StateCaptureJob collects job metadata and target geometry.
	StateCaptureJob

	// StateCaptureTracking collects spreader tracking values until EOF.
	StateCaptureTracking
)

var stateNames = map[State]string{
	StateInit:            "INIT",
	StateAwaitStart:      "AWAIT_START_MARKER",
	StateCaptureJob:      "CAPTURE_JOB_METADATA",
	StateCaptureTracking: "CAPTURE_TRACKING_VALUES",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateCaptureTracking
}

// dispatch maps each state to the matchers tried, in order, while in it.
var dispatch = func() map[State][]*Matcher {
	table := make(map[State][]*Matcher)
	for _, m := range registry {
		table[m.state] = append(table[m.state], m)
	}
	return table
}()

// ActiveMatchers returns the ordered matcher set for a state. StateInit has
// none.
func ActiveMatchers(s State) []*Matcher {
	active := dispatch[s]
	out := make([]*Matcher, len(active))
	copy(out, active)
	return out
}

// MatchLine runs the matchers active in state against line; the first
// pattern that applies decides the outcome.
func MatchLine(s State, line string) (*Match, error) {
	for _, m := range dispatch[s] {
		match, err := m.Match(line)
		if errors.Is(err, ErrNoMatch) {
			continue
		}
		return match, err
	}
	return nil, ErrNoMatch
}
