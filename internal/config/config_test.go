package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "formula-one-scorer",
			Environment: "development",
			LogLevel:    "info",
		},
		Artifacts: ArtifactsConfig{Dir: "artifacts", ModelVersion: "latest"},
		Dataset: DatasetConfig{
			RaceResultsFile: "race_results.csv",
			QualiFile:       "QualiTimes.csv",
			WeatherFile:     "weather.csv",
			OutputFile:      "premodeldatav1.csv",
		},
		Training: TrainingConfig{
			Target:         "DeviationFromAvg_s",
			Folds:          5,
			Trees:          200,
			LearningRate:   0.1,
			MaxDepth:       4,
			MinSamplesLeaf: 5,
			Calibrate:      true,
		},
		Scoring: ScoringConfig{
			OutputDir:       "artifacts",
			DropRetirements: true,
			CacheTTLSeconds: 300,
			CacheMaxSize:    256,
		},
		Server: ServerConfig{
			Port:                8000,
			UploadDir:           os.TempDir(),
			ReadTimeoutSeconds:  15,
			WriteTimeoutSeconds: 60,
		},
		Metrics: MetricsConfig{Enabled: true, Path: "/metrics"},
		Presentation: PresentationConfig{
			OutputDir: "presentation",
			AssetsDir: "assets",
		},
	}
}

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_ARTIFACTS_DIR", "/data/artifacts")

	path := writeTempConfig(t, `
app:
  name: formula-one-scorer
  environment: development
  log_level: debug
artifacts:
  dir: ${TEST_ARTIFACTS_DIR}
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/artifacts", cfg.Artifacts.Dir)
	assert.Equal(t, "debug", cfg.App.LogLevel)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestLoadWithDefaultsNoFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "formula-one-scorer", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "DeviationFromAvg_s", cfg.Training.Target)
	assert.Equal(t, 5, cfg.Training.Folds)
	assert.Equal(t, 8000, cfg.Server.Port)
	assert.True(t, cfg.Metrics.Enabled)
}

func TestValidateValidConfig(t *testing.T) {
	require.NoError(t, Validate(validConfig()))
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad environment", func(c *Config) { c.App.Environment = "qa" }},
		{"bad log level", func(c *Config) { c.App.LogLevel = "verbose" }},
		{"zero folds", func(c *Config) { c.Training.Folds = 0 }},
		{"learning rate above one", func(c *Config) { c.Training.LearningRate = 1.5 }},
		{"missing output dir", func(c *Config) { c.Scoring.OutputDir = "" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			assert.Error(t, Validate(cfg))
		})
	}
}

func TestValidateCrossField(t *testing.T) {
	cfg := validConfig()
	cfg.Database.Enabled = true
	err := Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database.host")

	cfg = validConfig()
	cfg.LiveTiming.Enabled = true
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "live_timing.url")

	cfg = validConfig()
	cfg.Training.Folds = 10
	cfg.Training.Trees = 5
	assert.Error(t, Validate(cfg))
}
