package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/tlms-tools/sprtrc/pkg/parser"
)

// Load reads and validates a configuration file. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(_ context.Context, path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(path, data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyEnvironmentOverrides()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// FromEnvironment returns the default configuration with environment
// overrides applied and validated. It is used when no config file is given.
func FromEnvironment() (*Config, error) {
	cfg := DefaultConfig()
	cfg.applyEnvironmentOverrides()
	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func decode(path string, data []byte, cfg *Config) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return toml.Unmarshal(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// Validate checks a configuration for errors and fills defaults for
// optional settings left empty.
func Validate(cfg *Config) error {
	for i := range cfg.LogSources {
		cfg.LogSources[i] = expandEnvVar(cfg.LogSources[i])
	}
	cfg.OutputDir = expandEnvVar(cfg.OutputDir)

	if cfg.FilePrefix == "" {
		cfg.FilePrefix = DefaultFilePrefix
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = DefaultOutputDir
	}

	if cfg.Workers < 0 {
		return fmt.Errorf("workers: must be >= 0, got %d", cfg.Workers)
	}
	if cfg.Workers == 0 {
		cfg.Workers = runtime.NumCPU()
	}

	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if _, err := ParseLogLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if cfg.Parser.CoalesceWindow < 0 {
		return fmt.Errorf("parser.coalesce_window: must not be negative, got %s", cfg.Parser.CoalesceWindow)
	}
	if cfg.Parser.CoalesceWindow == 0 {
		cfg.Parser.CoalesceWindow = Duration(DefaultCoalesceWindow)
	}

	if cfg.Label.SeatingThreshold <= 0 {
		return fmt.Errorf("label.seating_threshold: must be > 0, got %d", cfg.Label.SeatingThreshold)
	}

	if err := validateAnalyzers(cfg.Analyzers); err != nil {
		return fmt.Errorf("analyzers: %w", err)
	}
	if len(cfg.Analyzers) == 0 {
		cfg.Analyzers = append([]string(nil), AllAnalyzers...)
	}

	if err := validateSettling(&cfg.Settling); err != nil {
		return fmt.Errorf("settling: %w", err)
	}

	if err := validateOscillation(&cfg.Oscillation); err != nil {
		return fmt.Errorf("oscillation: %w", err)
	}

	return nil
}

func validateAnalyzers(names []string) error {
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		switch name {
		case AnalyzerSettling, AnalyzerOscillation, AnalyzerFirstValid:
		default:
			return fmt.Errorf("unknown analyzer %q (must be settling, oscillation, or first_valid)", name)
		}
		if seen[name] {
			return fmt.Errorf("analyzer %q listed twice", name)
		}
		seen[name] = true
	}
	return nil
}

func validateSettling(s *SettlingConfig) error {
	if s.DoneStatus == "" {
		s.DoneStatus = DefaultDoneStatus
	}

	if s.Lower > s.Upper {
		return fmt.Errorf("lower (%d) must not exceed upper (%d)", s.Lower, s.Upper)
	}

	if len(s.TaskOffsets) == 0 {
		s.TaskOffsets = DefaultTaskOffsets()
	}
	seen := make(map[int]bool, len(s.TaskOffsets))
	for i, to := range s.TaskOffsets {
		if to.TaskCode < 0 {
			return fmt.Errorf("task_offsets[%d]: task_code must be >= 0", i)
		}
		if seen[to.TaskCode] {
			return fmt.Errorf("task_offsets[%d]: duplicate task_code %d", i, to.TaskCode)
		}
		seen[to.TaskCode] = true
	}

	if s.Slope.Window <= 0 {
		s.Slope.Window = DefaultSlopeWindow
	}
	if s.Slope.Tolerance <= 0 {
		s.Slope.Tolerance = DefaultSlopeTolerance
	}

	return nil
}

func validateOscillation(o *OscillationConfig) error {
	if len(o.Columns) == 0 {
		o.Columns = DefaultOscillationColumns()
	}

	for _, name := range o.Columns {
		f, ok := parser.FieldByName(name)
		if !ok {
			return fmt.Errorf("unknown column %q", name)
		}
		if f.Kind() != parser.KindInt {
			return fmt.Errorf("column %q is not numeric", name)
		}
	}

	if o.Gate != nil && o.Gate.Lower > o.Gate.Upper {
		return fmt.Errorf("gate.lower (%d) must not exceed gate.upper (%d)", o.Gate.Lower, o.Gate.Upper)
	}

	return nil
}

// TaskOffset returns the configured offset for a task code.
func (s *SettlingConfig) TaskOffset(code int) (TaskOffset, bool) {
	for _, to := range s.TaskOffsets {
		if to.TaskCode == code {
			return to, true
		}
	}
	return TaskOffset{}, false
}

// AnalyzerEnabled reports whether the named analyzer should run.
func (c *Config) AnalyzerEnabled(name string) bool {
	if len(c.Analyzers) == 0 {
		return true
	}
	for _, a := range c.Analyzers {
		if a == name {
			return true
		}
	}
	return false
}

// ParseLogLevel maps a level name to a slog level.
func ParseLogLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, errors.New("must be debug, info, warn, or error")
	}
	return level, nil
}

// SlogLevel returns the configured log level. Validate guarantees it parses.
func (c *Config) SlogLevel() slog.Level {
	level, err := ParseLogLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	// Handle ${VAR} format
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}

	// Handle $VAR format (no braces)
	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		varName := s[1:]
		return os.Getenv(varName)
	}

	return s
}
