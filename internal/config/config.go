// Package config provides configuration management for the Formula One scorer.
package config

import (
	"fmt"
	"path/filepath"
)

// Config represents the complete application configuration
type Config struct {
	App          AppConfig          `mapstructure:"app" validate:"required"`
	Artifacts    ArtifactsConfig    `mapstructure:"artifacts" validate:"required"`
	Dataset      DatasetConfig      `mapstructure:"dataset" validate:"required"`
	Training     TrainingConfig     `mapstructure:"training" validate:"required"`
	Scoring      ScoringConfig      `mapstructure:"scoring" validate:"required"`
	Server       ServerConfig       `mapstructure:"server" validate:"required"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Metrics      MetricsConfig      `mapstructure:"metrics" validate:"required"`
	LiveTiming   LiveTimingConfig   `mapstructure:"live_timing"`
	Presentation PresentationConfig `mapstructure:"presentation" validate:"required"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ArtifactsConfig locates the model artifact directory
type ArtifactsConfig struct {
	Dir          string `mapstructure:"dir" validate:"required"`
	ModelVersion string `mapstructure:"model_version"`
}

// DatasetConfig represents premodel CSV assembly configuration
type DatasetConfig struct {
	RaceResultsFile   string  `mapstructure:"race_results_file" validate:"required"`
	QualiFile         string  `mapstructure:"quali_file" validate:"required"`
	WeatherFile       string  `mapstructure:"weather_file" validate:"required"`
	OutputFile        string  `mapstructure:"output_file" validate:"required"`
	TimingAPIURL      string  `mapstructure:"timing_api_url" validate:"omitempty,url"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"omitempty,gt=0"`
}

// TrainingConfig represents fold-model training configuration
type TrainingConfig struct {
	Target         string  `mapstructure:"target" validate:"required"`
	Folds          int     `mapstructure:"folds" validate:"required,gte=2,lte=20"`
	Trees          int     `mapstructure:"trees" validate:"required,gt=0"`
	LearningRate   float64 `mapstructure:"learning_rate" validate:"required,gt=0,lte=1"`
	MaxDepth       int     `mapstructure:"max_depth" validate:"required,gt=0,lte=32"`
	MinSamplesLeaf int     `mapstructure:"min_samples_leaf" validate:"required,gt=0"`
	Seed           int64   `mapstructure:"seed"`
	Calibrate      bool    `mapstructure:"calibrate"`
}

// ScoringConfig represents scoring pipeline configuration
type ScoringConfig struct {
	OutputDir       string `mapstructure:"output_dir" validate:"required"`
	DropRetirements bool   `mapstructure:"drop_retirements"`
	CacheTTLSeconds int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	CacheMaxSize    int    `mapstructure:"cache_max_size" validate:"required,gt=0"`
}

// ServerConfig represents HTTP serving configuration
type ServerConfig struct {
	Port                    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	UploadDir               string `mapstructure:"upload_dir" validate:"required"`
	ManifestRefreshSchedule string `mapstructure:"manifest_refresh_schedule"`
	ReadTimeoutSeconds      int    `mapstructure:"read_timeout_seconds" validate:"required,gt=0"`
	WriteTimeoutSeconds     int    `mapstructure:"write_timeout_seconds" validate:"required,gt=0"`
}

// DatabaseConfig represents optional scoring-run persistence configuration
type DatabaseConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"omitempty,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"required"`
}

// LiveTimingConfig represents the optional live timing stream
type LiveTimingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	URL     string `mapstructure:"url" validate:"omitempty"`
}

// PresentationConfig represents static report generation configuration
type PresentationConfig struct {
	OutputDir         string  `mapstructure:"output_dir" validate:"required"`
	AssetsDir         string  `mapstructure:"assets_dir" validate:"required"`
	LogoCSV           string  `mapstructure:"logo_csv"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"omitempty,gt=0"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// PipelinePath returns the path of the fitted preprocessing pipeline artifact
func (c *Config) PipelinePath() string {
	return filepath.Join(c.Artifacts.Dir, "preprocessing_pipeline.json")
}

// CalibrationPath returns the path of the linear calibration artifact
func (c *Config) CalibrationPath() string {
	return filepath.Join(c.Artifacts.Dir, "calibration.json")
}

// ManifestPath returns the path of the artifact manifest
func (c *Config) ManifestPath() string {
	return filepath.Join(c.Artifacts.Dir, "manifest.json")
}
