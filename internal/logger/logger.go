// Package logger provides the logrus setup shared by every binary, plus
// scoring-specific logging helpers.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the application logger for the given level and
// environment. Production emits JSON lines for log aggregation; any other
// environment gets colored text for local reading.
func NewLogger(level, environment string) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
		log.WithField("log_level", level).Warn("Unknown log level, using info")
	}
	log.SetLevel(parsed)

	if strings.EqualFold(environment, "production") {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			ForceColors:     true,
			TimestampFormat: "15:04:05.000",
		})
	}
	return log
}
