package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedTimestamp means a line's timestamp text does not follow
	// DD.MM.YYYY HH:MM:SS;fraction. The line is skipped.
	ErrMalformedTimestamp = errors.New("malformed timestamp")

	// ErrNoMatch means no active pattern matched the line. This is the normal
	// outcome for noise lines and is never surfaced to callers of Parse.
	ErrNoMatch = errors.New("no pattern matched")

	// ErrInvalidValue means a pattern matched but a captured value could not
	// be converted, e.g. an integer overflow. The line is skipped.
	ErrInvalidValue = errors.New("invalid value")

	// ErrEmptyResult marks a file that produced no records. Parse degrades it
	// to a single placeholder record and reports it through Stats.
	ErrEmptyResult = errors.New("no records parsed")
)

// FileError attaches the file identity to a read or open failure.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
