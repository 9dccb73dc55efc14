// Package config provides configuration management for the Formula One scorer.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME})
func Load(configPath string) (*Config, error) {
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	// Read the configuration file
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the configuration (${VAR} syntax)
	expanded := os.ExpandEnv(string(data))

	v := viper.New()
	v.SetConfigType("yaml")

	if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Environment variables override file values (F1_SCORER_SCORING_OUTPUT_DIR etc.)
	v.SetEnvPrefix("F1_SCORER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration with default values for optional fields.
// The config file may be absent; defaults plus environment variables then apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	v := viper.New()

	if configPath == "" {
		configPath = "config/config.yaml"
	}

	v.SetConfigType("yaml")
	v.SetEnvPrefix("F1_SCORER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		expanded := os.ExpandEnv(string(data))
		if err := v.ReadConfig(bytes.NewBuffer([]byte(expanded))); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "formula-one-scorer")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")
	v.SetDefault("artifacts.dir", "artifacts")
	v.SetDefault("artifacts.model_version", "latest")
	v.SetDefault("dataset.race_results_file", "race_results_2023_2024_2025_with_pitstops.csv")
	v.SetDefault("dataset.quali_file", "QualiTimes.csv")
	v.SetDefault("dataset.weather_file", "f1_avg_weather_2023_2025.csv")
	v.SetDefault("dataset.output_file", "premodeldatav1.csv")
	v.SetDefault("dataset.requests_per_second", 4.0)
	v.SetDefault("training.target", "DeviationFromAvg_s")
	v.SetDefault("training.folds", 5)
	v.SetDefault("training.trees", 200)
	v.SetDefault("training.learning_rate", 0.1)
	v.SetDefault("training.max_depth", 4)
	v.SetDefault("training.min_samples_leaf", 5)
	v.SetDefault("training.calibrate", true)
	v.SetDefault("scoring.output_dir", "artifacts")
	v.SetDefault("scoring.drop_retirements", true)
	v.SetDefault("scoring.cache_ttl_seconds", 300)
	v.SetDefault("scoring.cache_max_size", 256)
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.upload_dir", os.TempDir())
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 60)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
	v.SetDefault("presentation.output_dir", "presentation")
	v.SetDefault("presentation.assets_dir", "assets")
	v.SetDefault("presentation.requests_per_second", 2.0)
}
