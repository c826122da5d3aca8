// Package config provides configuration loading and validation for sprtrc.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure loaded from YAML or TOML.
type Config struct {
	// LogSources are files, glob patterns or directories. Directories are
	// walked for FilePrefix*.csv.
	LogSources []string `yaml:"log_sources" toml:"log_sources"`
	FilePrefix string   `yaml:"file_prefix" toml:"file_prefix"`

	// OutputDir receives the exported series, one file per log.
	OutputDir string `yaml:"output_dir" toml:"output_dir"`

	// Workers bounds the number of files parsed at once (0 = one per CPU).
	Workers  int    `yaml:"workers" toml:"workers"`
	LogLevel string `yaml:"log_level" toml:"log_level"`

	Parser ParserConfig `yaml:"parser" toml:"parser"`
	Label  LabelConfig  `yaml:"label" toml:"label"`

	// Analyzers lists the enabled analyzers by name; empty enables all.
	Analyzers   []string          `yaml:"analyzers,omitempty" toml:"analyzers,omitempty"`
	Settling    SettlingConfig    `yaml:"settling" toml:"settling"`
	Oscillation OscillationConfig `yaml:"oscillation" toml:"oscillation"`
	FirstValid  FirstValidConfig  `yaml:"first_valid" toml:"first_valid"`

	Export ExportConfig `yaml:"export" toml:"export"`
}

// ParserConfig controls how log lines are coalesced into records.
type ParserConfig struct {
	// CoalesceWindow is the timestamp distance below which lines merge into
	// one record.
	CoalesceWindow Duration `yaml:"coalesce_window" toml:"coalesce_window"`

	// OverwriteOnMerge lets later lines replace fields already set on the
	// record they merge into.
	OverwriteOnMerge bool `yaml:"overwrite_on_merge" toml:"overwrite_on_merge"`
}

// LabelConfig controls the generated output name.
type LabelConfig struct {
	// SeatingThreshold is the spreader height below which a file counts as
	// seated.
	SeatingThreshold int `yaml:"seating_threshold" toml:"seating_threshold"`
}

// SettlingConfig defines the settling window around the target height.
type SettlingConfig struct {
	// DoneStatus is the Measurement_Status value marking the row that
	// carries the final target geometry.
	DoneStatus string `yaml:"done_status" toml:"done_status"`

	// Lower and Upper are added to target height plus offset. Both bounds
	// are inclusive.
	Lower int `yaml:"lower" toml:"lower"`
	Upper int `yaml:"upper" toml:"upper"`

	TaskOffsets []TaskOffset `yaml:"task_offsets,omitempty" toml:"task_offsets,omitempty"`

	Slope SlopeConfig `yaml:"slope" toml:"slope"`
}

// TaskOffset is the height offset applied for one task code.
type TaskOffset struct {
	TaskCode int `yaml:"task_code" toml:"task_code"`
	Offset   int `yaml:"offset" toml:"offset"`

	// AddContainerHeight adds the job's Cont_Height to the offset (place
	// jobs land the container on top of the target).
	AddContainerHeight bool `yaml:"add_container_height" toml:"add_container_height"`
}

// SlopeConfig narrows the settling run to rows where the smoothed height
// change stays below Tolerance.
type SlopeConfig struct {
	Enabled   bool    `yaml:"enabled" toml:"enabled"`
	Window    int     `yaml:"window" toml:"window"`
	Tolerance float64 `yaml:"tolerance" toml:"tolerance"`
}

// OscillationConfig selects the deflection columns to analyze.
type OscillationConfig struct {
	Columns []string `yaml:"columns,omitempty" toml:"columns,omitempty"`

	// Gate, when set, analyzes every row whose height lies in
	// [target+offset+Lower, target+offset+Upper] instead of the settling run.
	Gate *WindowConfig `yaml:"gate,omitempty" toml:"gate,omitempty"`
}

// WindowConfig is an inclusive height range relative to the target height.
type WindowConfig struct {
	Lower int `yaml:"lower" toml:"lower"`
	Upper int `yaml:"upper" toml:"upper"`
}

// FirstValidConfig selects the event code marking a valid tracking result.
type FirstValidConfig struct {
	EventCode int `yaml:"event_code" toml:"event_code"`
}

// ExportConfig controls the per-file series export.
type ExportConfig struct {
	Enabled  bool `yaml:"enabled" toml:"enabled"`
	Compress bool `yaml:"compress" toml:"compress"`
}

// Duration is a time.Duration written as a Go duration string ("2ms") in
// both YAML and TOML.
type Duration time.Duration

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

func (d Duration) String() string {
	return time.Duration(d).String()
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}
