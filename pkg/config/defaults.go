package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Default values for configuration.
const (
	DefaultFilePrefix       = "MeasureResult"
	DefaultOutputDir        = "Output"
	DefaultLogLevel         = "info"
	DefaultCoalesceWindow   = 2 * time.Millisecond
	DefaultSeatingThreshold = 5000
	DefaultDoneStatus       = "Done"
	DefaultSettlingLower    = -60
	DefaultSettlingUpper    = 50
	DefaultSlopeWindow      = 12
	DefaultSlopeTolerance   = 0.5
	DefaultEventCode        = 5
)

// Analyzer names accepted in Config.Analyzers.
const (
	AnalyzerSettling    = "settling"
	AnalyzerOscillation = "oscillation"
	AnalyzerFirstValid  = "first_valid"
)

// AllAnalyzers lists every analyzer in execution order.
var AllAnalyzers = []string{AnalyzerSettling, AnalyzerOscillation, AnalyzerFirstValid}

// Task codes used by the crane controller.
const (
	TaskPick  = 1
	TaskPlace = 2
)

// DefaultTaskOffsets returns the height offsets applied when a config does
// not list its own.
func DefaultTaskOffsets() []TaskOffset {
	return []TaskOffset{
		{TaskCode: TaskPick, Offset: 370},
		{TaskCode: TaskPlace, Offset: 360, AddContainerHeight: true},
	}
}

// DefaultOscillationColumns are the deflection signals analyzed for sway.
func DefaultOscillationColumns() []string {
	return []string{"SpTrRes_calc_Y", "SpTrRes_calc_Skew"}
}

// Environment variable names.
const (
	EnvLogSources = "SPRTRC_LOG_SOURCES"
	EnvOutputDir  = "SPRTRC_OUTPUT_DIR"
	EnvLogLevel   = "SPRTRC_LOG_LEVEL"
	EnvWorkers    = "SPRTRC_WORKERS"
)

// DefaultConfig returns a configuration with sensible defaults. Task
// offsets and oscillation columns are filled in by Validate when empty.
func DefaultConfig() *Config {
	return &Config{
		LogSources: []string{},
		FilePrefix: DefaultFilePrefix,
		OutputDir:  DefaultOutputDir,
		LogLevel:   DefaultLogLevel,
		Parser: ParserConfig{
			CoalesceWindow: Duration(DefaultCoalesceWindow),
		},
		Label: LabelConfig{
			SeatingThreshold: DefaultSeatingThreshold,
		},
		Settling: SettlingConfig{
			DoneStatus: DefaultDoneStatus,
			Lower:      DefaultSettlingLower,
			Upper:      DefaultSettlingUpper,
			Slope: SlopeConfig{
				Window:    DefaultSlopeWindow,
				Tolerance: DefaultSlopeTolerance,
			},
		},
		FirstValid: FirstValidConfig{
			EventCode: DefaultEventCode,
		},
		Export: ExportConfig{
			Enabled: true,
		},
	}
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() {
	if sources := os.Getenv(EnvLogSources); sources != "" {
		c.LogSources = nil
		for _, s := range strings.Split(sources, ",") {
			if s = strings.TrimSpace(s); s != "" {
				c.LogSources = append(c.LogSources, s)
			}
		}
	}

	if dir := os.Getenv(EnvOutputDir); dir != "" {
		c.OutputDir = dir
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		c.LogLevel = level
	}

	// Unparsable values are ignored.
	if workers := os.Getenv(EnvWorkers); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Workers = n
		}
	}
}
