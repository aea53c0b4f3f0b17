package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestEmptyRunConfig_Defaults(t *testing.T) {
	cfg := EmptyRunConfig()

	assert.Equal(t, "data/trials", cfg.GetInputDir())
	assert.Equal(t, ".csv", cfg.GetTrialExtension())
	assert.Equal(t, "model", cfg.GetExcludeSuffix())
	assert.Equal(t, runtime.NumCPU(), cfg.GetWorkers())
	assert.Equal(t, "", cfg.GetBatterHandOverride())
	assert.Equal(t, "mph", cfg.GetExitVelocityUnits())
	assert.False(t, cfg.GetVerbose())
	assert.Equal(t, "data/output.csv", cfg.GetOutputCSV())
	assert.Equal(t, "", cfg.GetDatabasePath())
	assert.Equal(t, "", cfg.GetPlotsDir())
	assert.Equal(t, "", cfg.GetReportHTML())
	assert.Equal(t, "", cfg.GetReferenceCSV())
	assert.Equal(t, "data/results_agged.csv", cfg.GetMetricsCSV())
	assert.Equal(t, 4, cfg.GetTimeRoundDecimals())
	assert.Empty(t, cfg.SkipSet())
	assert.NoError(t, cfg.Validate())
}

func TestLoadRunConfig_Partial(t *testing.T) {
	path := writeConfig(t, "run.json", `{
		"input_dir": "/captures",
		"workers": 2,
		"batter_hand_override": "L",
		"skip_session_swings": ["492_8", "125_4"]
	}`)

	cfg, err := LoadRunConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "/captures", cfg.GetInputDir())
	assert.Equal(t, 2, cfg.GetWorkers())
	assert.Equal(t, "L", cfg.GetBatterHandOverride())
	assert.Equal(t, map[string]bool{"492_8": true, "125_4": true}, cfg.SkipSet())

	// Omitted fields keep their defaults.
	assert.Equal(t, "data/output.csv", cfg.GetOutputCSV())
	assert.Equal(t, 4, cfg.GetTimeRoundDecimals())
}

func TestLoadRunConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		body    string
		wantErr string
	}{
		{"wrong extension", "run.yaml", `{}`, "must have .json extension"},
		{"bad json", "run.json", `{"workers": `, "failed to parse config JSON"},
		{"workers zero", "run.json", `{"workers": 0}`, "workers must be between 1 and 256"},
		{"workers too many", "run.json", `{"workers": 1000}`, "workers must be between 1 and 256"},
		{"bad hand", "run.json", `{"batter_hand_override": "X"}`, "batter_hand_override"},
		{"bad units", "run.json", `{"exit_velocity_units": "knots"}`, "exit_velocity_units"},
		{"bad extension", "run.json", `{"trial_extension": "csv"}`, "trial_extension"},
		{"decimals", "run.json", `{"time_round_decimals": 12}`, "time_round_decimals"},
		{"empty skip", "run.json", `{"skip_session_swings": ["492_8", " "]}`, "skip_session_swings"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, tt.file, tt.body)
			_, err := LoadRunConfig(path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRunConfig_MissingFile(t *testing.T) {
	_, err := LoadRunConfig(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to stat config file")
}

func TestLoadRunConfig_TooLarge(t *testing.T) {
	body := `{"input_dir": "` + strings.Repeat("a", 1024*1024) + `"}`
	path := writeConfig(t, "big.json", body)
	_, err := LoadRunConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file too large")
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 4, cfg.GetWorkers())
	assert.Equal(t, "mph", cfg.GetExitVelocityUnits())
	assert.True(t, cfg.SkipSet()["492_8"])
	assert.Len(t, cfg.SkipSet(), 13)
}
