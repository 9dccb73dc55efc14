package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestLogger() (*logrus.Logger, *bytes.Buffer) {
	log := logrus.New()
	buf := &bytes.Buffer{}
	log.SetOutput(buf)
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetLevel(logrus.DebugLevel)
	return log, buf
}

func parseLogOutput(buf *bytes.Buffer) map[string]interface{} {
	var logEntry map[string]interface{}
	err := json.Unmarshal(buf.Bytes(), &logEntry)
	if err != nil {
		return nil
	}
	return logEntry
}

func TestNewLoggerInvalidLevelDefaultsToInfo(t *testing.T) {
	log := NewLogger("not-a-level", "development")
	assert.Equal(t, logrus.InfoLevel, log.GetLevel())
}

func TestNewLoggerParsesLevel(t *testing.T) {
	log := NewLogger("debug", "development")
	assert.Equal(t, logrus.DebugLevel, log.GetLevel())
}

func TestNewLoggerFormatterFollowsEnvironment(t *testing.T) {
	log := NewLogger("info", "production")
	assert.IsType(t, &logrus.JSONFormatter{}, log.Formatter)

	log = NewLogger("info", "development")
	assert.IsType(t, &logrus.TextFormatter{}, log.Formatter)
}

func TestScoringLoggerRun(t *testing.T) {
	log, buf := setupTestLogger()
	scoringLogger := NewScoringLogger(log)

	scoringLogger.LogScoringRun("premodeldatav1.csv", 40, 2, true, 12.5)

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "scoring", logEntry["component"])
	assert.Equal(t, "premodeldatav1.csv", logEntry["input_path"])
	assert.Equal(t, float64(40), logEntry["rows_scored"])
	assert.Equal(t, true, logEntry["calibrated"])
}

func TestScoringLoggerFallback(t *testing.T) {
	log, buf := setupTestLogger()
	scoringLogger := NewScoringLogger(log)

	scoringLogger.LogFallback("PointsProp", "train_median")

	logEntry := parseLogOutput(buf)
	require.NotNil(t, logEntry)
	assert.Equal(t, "PointsProp", logEntry["column"])
	assert.Equal(t, "train_median", logEntry["strategy"])
	assert.Equal(t, "warning", logEntry["level"])
}
