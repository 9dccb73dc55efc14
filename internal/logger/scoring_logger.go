package logger

import (
	"github.com/sirupsen/logrus"
)

// ScoringLogger provides dedicated logging for scoring pipeline operations.
type ScoringLogger struct {
	*logrus.Entry
}

// NewScoringLogger creates a new scoring logger.
func NewScoringLogger(baseLogger *logrus.Logger) *ScoringLogger {
	return &ScoringLogger{
		Entry: baseLogger.WithField("component", "scoring"),
	}
}

// LogScoringRun logs a completed scoring run.
func (sl *ScoringLogger) LogScoringRun(inputPath string, rowsScored, rowsDropped int, calibrated bool, latencyMs float64) {
	sl.WithFields(logrus.Fields{
		"input_path":   inputPath,
		"rows_scored":  rowsScored,
		"rows_dropped": rowsDropped,
		"calibrated":   calibrated,
		"latency_ms":   latencyMs,
	}).Info("Scoring run completed")
}

// LogFallback logs a missing-column fallback applied during scoring.
func (sl *ScoringLogger) LogFallback(column string, strategy string) {
	sl.WithFields(logrus.Fields{
		"column":   column,
		"strategy": strategy,
	}).Warn("Input column missing, fallback applied")
}

// LogModelTraining logs fold model training events.
func (sl *ScoringLogger) LogModelTraining(fold int, trees int, trainingSeconds float64, metrics map[string]float64) {
	sl.WithFields(logrus.Fields{
		"fold":             fold,
		"trees":            trees,
		"training_seconds": trainingSeconds,
		"metrics":          metrics,
	}).Info("Fold model training completed")
}

// LogArtifactRefresh logs a manifest/artifact reload.
func (sl *ScoringLogger) LogArtifactRefresh(items int, modelVersion string) {
	sl.WithFields(logrus.Fields{
		"items":         items,
		"model_version": modelVersion,
	}).Info("Artifacts refreshed")
}
