package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// timestampLayout covers everything up to the ';' that separates the
// fractional second.
const timestampLayout = "02.01.2006 15:04:05"

// timestampPattern is the textual timestamp as it appears in TLMS logs.
const timestampPattern = `\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}:\d{2};\d+`

var timestampRe = regexp.MustCompile(`^(\d{2}\.\d{2}\.\d{4} \d{2}:\d{2}:\d{2});(\d+)$`)

// maxFracDigits is nanosecond resolution.
const maxFracDigits = 9

// Timestamp is a decoded log timestamp. FracDigits remembers how many
// fraction digits the source text had so String reproduces it exactly.
type Timestamp struct {
	Time       time.Time
	FracDigits int
}

// ParseTimestamp decodes "DD.MM.YYYY HH:MM:SS;fraction". The fraction is a
// decimal fractional second: ";5" is 500ms and ";005" is 5ms. Times are UTC.
func ParseTimestamp(text string) (Timestamp, error) {
	m := timestampRe.FindStringSubmatch(text)
	if m == nil {
		return Timestamp{}, fmt.Errorf("%w: %q", ErrMalformedTimestamp, text)
	}

	base, err := time.ParseInLocation(timestampLayout, m[1], time.UTC)
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, text, err)
	}

	frac := m[2]
	if len(frac) > maxFracDigits {
		return Timestamp{}, fmt.Errorf("%w: %q: fraction longer than %d digits", ErrMalformedTimestamp, text, maxFracDigits)
	}
	ns, err := strconv.Atoi(frac + strings.Repeat("0", maxFracDigits-len(frac)))
	if err != nil {
		return Timestamp{}, fmt.Errorf("%w: %q: %v", ErrMalformedTimestamp, text, err)
	}

	return Timestamp{
		Time:       base.Add(time.Duration(ns)),
		FracDigits: len(frac),
	}, nil
}

// String re-encodes the timestamp in the log format.
func (t Timestamp) String() string {
	return FormatTimestamp(t.Time, t.FracDigits)
}

// FormatTimestamp encodes t in the log format with the given number of
// fraction digits (clamped to 1..9). Sub-digit precision is truncated.
func FormatTimestamp(t time.Time, digits int) string {
	if digits < 1 {
		digits = 1
	}
	if digits > maxFracDigits {
		digits = maxFracDigits
	}
	frac := fmt.Sprintf("%09d", t.Nanosecond())[:digits]
	return t.Format(timestampLayout) + ";" + frac
}

// minimalDigits picks millisecond precision unless t carries finer detail.
func minimalDigits(t time.Time) int {
	frac := strings.TrimRight(fmt.Sprintf("%09d", t.Nanosecond()), "0")
	if len(frac) < 3 {
		return 3
	}
	return len(frac)
}
