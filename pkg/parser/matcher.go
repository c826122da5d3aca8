package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// linePrefix is the fixed head of every TLMS line: timestamp, sequence
// number and the constant " ; ;S; " columns. The first capture group is the
// timestamp.
const linePrefix = `(` + timestampPattern + `);\d+; ; ;S; `

// Match is what a Matcher extracts from one line.
type Match struct {
	// Matcher is the name of the pattern that matched.
	Matcher string

	// Timestamp of the line. Zero for phase markers that carry no fields.
	Timestamp time.Time

	// Fields holds the extracted values. Its Timestamp is left zero.
	Fields Record

	// Marker is set for lines that only move the parser to Next.
	Marker bool
	Next   State
}

// Matcher recognizes one line pattern. Matchers hold no mutable state and
// may be shared between parsers.
type Matcher struct {
	name    string
	state   State
	pattern *regexp.Regexp

	// extract fills rec from the submatches (index 0 is the whole match,
	// index 1 the timestamp).
	extract func(groups []string, rec *Record) error

	marker bool
	next   State
}

// Name identifies the matcher in stats and logs.
func (m *Matcher) Name() string {
	return m.name
}

// State is the parsing state in which the matcher is active.
func (m *Matcher) State() State {
	return m.state
}

// Match applies the matcher to line. It returns ErrNoMatch when the pattern
// does not apply, ErrMalformedTimestamp when it does but the timestamp
// cannot be decoded and ErrInvalidValue when a captured value cannot be
// converted.
func (m *Matcher) Match(line string) (*Match, error) {
	groups := m.pattern.FindStringSubmatch(line)
	if groups == nil {
		return nil, ErrNoMatch
	}

	if m.marker {
		return &Match{Matcher: m.name, Marker: true, Next: m.next}, nil
	}

	ts, err := ParseTimestamp(groups[1])
	if err != nil {
		return nil, err
	}

	result := &Match{Matcher: m.name, Timestamp: ts.Time}
	if err := m.extract(groups, &result.Fields); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidValue, m.name, err)
	}
	return result, nil
}

// fieldMatcher builds a matcher for a line of the form "<prefix><body>". The
// body's capture groups start at index 2.
func fieldMatcher(name string, state State, body string, extract func([]string, *Record) error) *Matcher {
	return &Matcher{
		name:    name,
		state:   state,
		pattern: regexp.MustCompile(linePrefix + body),
		extract: extract,
	}
}

// markerMatcher builds a matcher that only triggers a state transition.
func markerMatcher(name string, state, next State, pattern string) *Matcher {
	return &Matcher{
		name:    name,
		state:   state,
		pattern: regexp.MustCompile(pattern),
		marker:  true,
		next:    next,
	}
}

// textField stores the trimmed group as the field selected by ref.
func textField(group int, ref func(*Record) **string) func([]string, *Record) error {
	return func(g []string, rec *Record) error {
		*ref(rec) = Ptr(strings.TrimSpace(g[group]))
		return nil
	}
}

// intField stores the group as an integer.
func intField(group int, ref func(*Record) **int) func([]string, *Record) error {
	return func(g []string, rec *Record) error {
		v, err := strconv.Atoi(strings.TrimSpace(g[group]))
		if err != nil {
			return err
		}
		*ref(rec) = Ptr(v)
		return nil
	}
}

// keyedIntField stores the value group into the field selected by the key
// group (e.g. "Width" in "Cont. Width: 2438").
func keyedIntField(keyGroup, valueGroup int, fields map[string]Field) func([]string, *Record) error {
	return func(g []string, rec *Record) error {
		f, ok := fields[g[keyGroup]]
		if !ok {
			return fmt.Errorf("unknown key %q", g[keyGroup])
		}
		return intField(valueGroup, fieldSpecs[f].ints)(g, rec)
	}
}

func ref(f Field) func(*Record) **int {
	return fieldSpecs[f].ints
}

func textRef(f Field) func(*Record) **string {
	return fieldSpecs[f].text
}

// registry lists every matcher in the order they are tried within a state.
var registry = []*Matcher{
	markerMatcher("start_measurement", StateAwaitStart, StateCaptureJob,
		linePrefix+`- ASCCS Start Measurement Message received`),

	// Job metadata
	fieldMatcher("measurement_id", StateCaptureJob, `- Measurement ID:\s*(.*?)$`,
		textField(2, textRef(FieldMeasurementID))),
	fieldMatcher("lane", StateCaptureJob, `- Lane:\s*(\d+)`,
		intField(2, ref(FieldLane))),
	fieldMatcher("task", StateCaptureJob, `- Task:\s*(\d+\s*-\s*[\w ]*)`,
		textField(2, textRef(FieldTask))),
	fieldMatcher("position", StateCaptureJob, `- Pos:\s*(\d+\s*-\s*[\w ]*)`,
		textField(2, textRef(FieldPosition))),
	fieldMatcher("chassis_length", StateCaptureJob, `- Len:\s*(.*?)$`,
		textField(2, textRef(FieldChassisLength))),
	fieldMatcher("chassis_type", StateCaptureJob, `- Type:\s*(\d+\s*-\s*[\w ]*)`,
		textField(2, textRef(FieldChassisType))),
	fieldMatcher("container_dimension", StateCaptureJob, `- Cont\.\s*(Length|Width|Height):\s*(\d+)`,
		keyedIntField(2, 3, map[string]Field{
			"Length": FieldContLength,
			"Width":  FieldContWidth,
			"Height": FieldContHeight,
		})),
	fieldMatcher("lane_status", StateCaptureJob, `- LaneStat\s*-\s*(\w+)`,
		textField(2, textRef(FieldLaneStatus))),
	fieldMatcher("measurement_status", StateCaptureJob, `-  \| MeasStat\s*-\s*(\w+)`,
		textField(2, textRef(FieldMeasurementStatus))),
	fieldMatcher("assumed_trailer", StateCaptureJob, `- Assuming\s*(\w+)`,
		textField(2, textRef(FieldAssumedTrailer))),

	// Target geometry
	fieldMatcher("point_center", StateCaptureJob, `- Point Center X/Y/Z:\s*(\d+) / (\d+) / (\d+)`,
		func(g []string, rec *Record) error {
			for i, f := range []Field{FieldPointCenterX, FieldPointCenterY, FieldPointCenterZ} {
				if err := intField(2+i, ref(f))(g, rec); err != nil {
					return err
				}
			}
			return nil
		}),
	fieldMatcher("skew", StateCaptureJob, `- Skew:\s*(-?\d+)`,
		intField(2, ref(FieldSkew))),
	fieldMatcher("tilt", StateCaptureJob, `- Tilt\s*(-?\d+)`,
		intField(2, ref(FieldTilt))),
	fieldMatcher("detected_twistlocks", StateCaptureJob, `-- Number of detected twist locks \(TL\):\s*(\d+)`,
		intField(2, ref(FieldDetectedTL))),

	// The trailing alternatives carry no prefix: the tracking header may
	// appear on a line of its own.
	markerMatcher("end_of_job", StateCaptureJob, StateCaptureTracking,
		linePrefix+`- Measurement finished| - Spreader Tracking Message received|Spreader tracking results:`),

	// Spreader tracking
	fieldMatcher("spreader_message", StateCaptureTracking, `- Spreader (length|position [XYZ]|position Angle):\s*(-?\d+)`,
		keyedIntField(2, 3, map[string]Field{
			"length":         FieldMsgLength,
			"position X":     FieldMsgX,
			"position Y":     FieldMsgY,
			"position Z":     FieldMsgZ,
			"position Angle": FieldMsgSkew,
		})),
	fieldMatcher("tlms_status", StateCaptureTracking, `- TLMS Status:\s*(\d+)`,
		intField(2, ref(FieldTLMSStatus))),
	fieldMatcher("spreader_calc", StateCaptureTracking, `- Spreader calc\. (position X|position Y|Skew):\s*(-?\d+)`,
		keyedIntField(2, 3, map[string]Field{
			"position X": FieldCalcX,
			"position Y": FieldCalcY,
			"Skew":       FieldCalcSkew,
		})),
	fieldMatcher("calc_reliability", StateCaptureTracking, `- Calc\. reliability:\s*(\d+)`,
		intField(2, ref(FieldReliability))),
	fieldMatcher("event_code", StateCaptureTracking, `- Error/Event code:\s*(\d+)`,
		intField(2, ref(FieldEventCode))),
	fieldMatcher("event_description", StateCaptureTracking, `- Error/Event description:\s*([a-zA-Z -]+)`,
		textField(2, textRef(FieldEventDesc))),
}

// Matchers returns every registered matcher in registry order.
func Matchers() []*Matcher {
	out := make([]*Matcher, len(registry))
	copy(out, registry)
	return out
}
