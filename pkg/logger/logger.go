package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var Logger *logrus.Logger

// InitLogger configures the process logger and stores it as Logger. An empty level
// falls back to LOG_LEVEL, then to debug in development and info elsewhere. Output
// goes to stderr, as JSON outside development or when LOG_FORMAT=json.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(formatterFor(isDevelopment))

	level, ok := resolveLevel(logLevel, isDevelopment)
	log.SetLevel(level)
	if !ok {
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	Logger = log
	return log
}

func resolveLevel(logLevel string, isDevelopment bool) (logrus.Level, bool) {
	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
	}
	if logLevel == "" {
		if isDevelopment {
			return logrus.DebugLevel, true
		}
		return logrus.InfoLevel, true
	}
	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		return logrus.InfoLevel, false
	}
	return level, true
}

func formatterFor(isDevelopment bool) logrus.Formatter {
	if !isDevelopment || strings.EqualFold(os.Getenv("LOG_FORMAT"), "json") {
		return &logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"}
	}
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		ForceColors:     true,
	}
}

// GetLogger returns the global logger instance
func GetLogger() *logrus.Logger {
	if Logger == nil {
		return InitLogger("info", false)
	}
	return Logger
}

// Discard returns a logger that drops everything, for tests and library callers
// that do not care about engine chatter.
func Discard() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// WithService creates a logger with service context
func WithService(serviceName string) *logrus.Entry {
	return GetLogger().WithField("service", serviceName)
}

// WithRunContext tags log with a simulation run ID. A nil log starts from the global logger.
func WithRunContext(log *logrus.Entry, runID string) *logrus.Entry {
	if log == nil {
		log = logrus.NewEntry(GetLogger())
	}
	return log.WithField("run_id", runID)
}

// WithTrialContext tags a run logger with one trial and the season it drafts from
func WithTrialContext(log *logrus.Entry, trialID, season int) *logrus.Entry {
	return log.WithFields(logrus.Fields{
		"trial":  trialID,
		"season": season,
	})
}
