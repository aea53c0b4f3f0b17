// Package config loads the JSON run configuration for the joint angle
// pipeline. Every field is optional; Get* accessors supply the defaults.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/banshee-data/swing.kinematics/internal/units"
)

// DefaultConfigPath is the path to the canonical run defaults file.
const DefaultConfigPath = "config/run.defaults.json"

// RunConfig is the root configuration of a batch run.
type RunConfig struct {
	// Inputs
	InputDir       *string `json:"input_dir,omitempty"`
	TrialExtension *string `json:"trial_extension,omitempty"`
	ExcludeSuffix  *string `json:"exclude_suffix,omitempty"`

	// Processing
	Workers            *int    `json:"workers,omitempty"`
	BatterHandOverride *string `json:"batter_hand_override,omitempty"` // "R", "L" or empty to use each trial's hand
	ExitVelocityUnits  *string `json:"exit_velocity_units,omitempty"`
	Verbose            *bool   `json:"verbose,omitempty"`

	// Outputs
	OutputCSV    *string `json:"output_csv,omitempty"`
	DatabasePath *string `json:"database_path,omitempty"`
	PlotsDir     *string `json:"plots_dir,omitempty"`
	ReportHTML   *string `json:"report_html,omitempty"`

	// Evaluation against reference angles
	ReferenceCSV      *string  `json:"reference_csv,omitempty"`
	MetricsCSV        *string  `json:"metrics_csv,omitempty"`
	SkipSessionSwings []string `json:"skip_session_swings,omitempty"`
	TimeRoundDecimals *int     `json:"time_round_decimals,omitempty"`
}

// Helper functions to create pointers
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyRunConfig returns a RunConfig with all fields set to nil.
func EmptyRunConfig() *RunConfig {
	return &RunConfig{}
}

// LoadRunConfig loads a RunConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file fall back to their defaults, so
// partial configs are safe.
func LoadRunConfig(path string) (*RunConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyRunConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents. Panics if the file cannot
// be loaded; intended for test setup.
func MustLoadDefaultConfig() *RunConfig {
	candidates := []string{
		DefaultConfigPath,
		"../../" + DefaultConfigPath, // from internal/config/
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadRunConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks that the configuration values are valid.
func (c *RunConfig) Validate() error {
	if c.Workers != nil {
		if *c.Workers < 1 || *c.Workers > 256 {
			return fmt.Errorf("workers must be between 1 and 256, got %d", *c.Workers)
		}
	}

	if c.BatterHandOverride != nil {
		switch *c.BatterHandOverride {
		case "", "R", "L":
		default:
			return fmt.Errorf("batter_hand_override must be R, L or empty, got %q", *c.BatterHandOverride)
		}
	}

	if c.ExitVelocityUnits != nil && !units.IsValid(*c.ExitVelocityUnits) {
		return fmt.Errorf("exit_velocity_units must be one of %s, got %q", units.GetValidUnitsString(), *c.ExitVelocityUnits)
	}

	if c.TrialExtension != nil && !strings.HasPrefix(*c.TrialExtension, ".") {
		return fmt.Errorf("trial_extension must start with '.', got %q", *c.TrialExtension)
	}

	if c.TimeRoundDecimals != nil {
		if *c.TimeRoundDecimals < 0 || *c.TimeRoundDecimals > 9 {
			return fmt.Errorf("time_round_decimals must be between 0 and 9, got %d", *c.TimeRoundDecimals)
		}
	}

	for _, s := range c.SkipSessionSwings {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("skip_session_swings must not contain empty entries")
		}
	}

	return nil
}

// GetInputDir returns the input_dir value or the default.
func (c *RunConfig) GetInputDir() string {
	if c.InputDir == nil {
		return "data/trials"
	}
	return *c.InputDir
}

// GetTrialExtension returns the trial_extension value or the default.
func (c *RunConfig) GetTrialExtension() string {
	if c.TrialExtension == nil {
		return ".csv"
	}
	return *c.TrialExtension
}

// GetExcludeSuffix returns the exclude_suffix value or the default. Trial
// files whose base name ends with it (before the extension) are skipped.
func (c *RunConfig) GetExcludeSuffix() string {
	if c.ExcludeSuffix == nil {
		return "model"
	}
	return *c.ExcludeSuffix
}

// GetWorkers returns the workers value or the number of CPUs.
func (c *RunConfig) GetWorkers() int {
	if c.Workers == nil {
		return runtime.NumCPU()
	}
	return *c.Workers
}

// GetBatterHandOverride returns the batter_hand_override value or empty.
func (c *RunConfig) GetBatterHandOverride() string {
	if c.BatterHandOverride == nil {
		return ""
	}
	return *c.BatterHandOverride
}

// GetExitVelocityUnits returns the exit_velocity_units value or the default.
func (c *RunConfig) GetExitVelocityUnits() string {
	if c.ExitVelocityUnits == nil {
		return units.MPH
	}
	return *c.ExitVelocityUnits
}

// GetVerbose returns the verbose value or the default.
func (c *RunConfig) GetVerbose() bool {
	if c.Verbose == nil {
		return false
	}
	return *c.Verbose
}

// GetOutputCSV returns the output_csv value or the default.
func (c *RunConfig) GetOutputCSV() string {
	if c.OutputCSV == nil {
		return "data/output.csv"
	}
	return *c.OutputCSV
}

// GetDatabasePath returns the database_path value; empty disables persistence.
func (c *RunConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return ""
	}
	return *c.DatabasePath
}

// GetPlotsDir returns the plots_dir value; empty disables PNG plots.
func (c *RunConfig) GetPlotsDir() string {
	if c.PlotsDir == nil {
		return ""
	}
	return *c.PlotsDir
}

// GetReportHTML returns the report_html value; empty disables the HTML report.
func (c *RunConfig) GetReportHTML() string {
	if c.ReportHTML == nil {
		return ""
	}
	return *c.ReportHTML
}

// GetReferenceCSV returns the reference_csv value; empty disables evaluation.
func (c *RunConfig) GetReferenceCSV() string {
	if c.ReferenceCSV == nil {
		return ""
	}
	return *c.ReferenceCSV
}

// GetMetricsCSV returns the metrics_csv value or the default.
func (c *RunConfig) GetMetricsCSV() string {
	if c.MetricsCSV == nil {
		return "data/results_agged.csv"
	}
	return *c.MetricsCSV
}

// GetTimeRoundDecimals returns the time_round_decimals value or the default.
func (c *RunConfig) GetTimeRoundDecimals() int {
	if c.TimeRoundDecimals == nil {
		return 4
	}
	return *c.TimeRoundDecimals
}

// SkipSet returns skip_session_swings as a set.
func (c *RunConfig) SkipSet() map[string]bool {
	set := make(map[string]bool, len(c.SkipSessionSwings))
	for _, s := range c.SkipSessionSwings {
		set[s] = true
	}
	return set
}
