package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// Fields is a set of structured log fields.
type Fields = logrus.Fields

var (
	logger   *logrus.Logger
	mu       sync.Mutex
	output   io.Writer = os.Stderr
	initOnce sync.Once
)

// InitLogger initializes the global logger for harness operations.
// Output goes to stderr so that it never mixes with captured build output.
func InitLogger(logLevel string, noColor bool) {
	mu.Lock()
	defer mu.Unlock()
	initLocked(logLevel, noColor)
}

func initLocked(logLevel string, noColor bool) {
	l := logrus.New()
	l.SetOutput(output)

	level, err := logrus.ParseLevel(strings.ToLower(logLevel))
	if err != nil {
		level = logrus.InfoLevel // fallback to info level
	}
	l.SetLevel(level)

	if noColor {
		l.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: false,
		})
	} else {
		l.SetFormatter(&logrus.TextFormatter{
			ForceColors:   true,
			FullTimestamp: false,
		})
	}
	logger = l
}

// SetOutput redirects log output, mainly so tests can capture it.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	output = w
	if logger != nil {
		logger.SetOutput(w)
	}
}

// GetLogger returns the configured logger instance
func GetLogger() *logrus.Logger {
	initOnce.Do(func() {
		mu.Lock()
		defer mu.Unlock()
		if logger == nil {
			initLocked("info", false)
		}
	})
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// Info logs an info message
func Info(msg string, fields ...Fields) {
	GetLogger().WithFields(mergeFields(fields...)).Info(msg)
}

// Debug logs a debug message (only shown when debug level is enabled)
func Debug(msg string, fields ...Fields) {
	GetLogger().WithFields(mergeFields(fields...)).Debug(msg)
}

// Error logs an error message
func Error(msg string, fields ...Fields) {
	GetLogger().WithFields(mergeFields(fields...)).Error(msg)
}

// Warn logs a warning message
func Warn(msg string, fields ...Fields) {
	GetLogger().WithFields(mergeFields(fields...)).Warn(msg)
}

// Success logs a success message as info with success indicator
func Success(msg string, fields ...Fields) {
	merged := mergeFields(fields...)
	merged["status"] = "success"
	GetLogger().WithFields(merged).Info(msg)
}

// mergeFields merges multiple Fields into one
func mergeFields(fields ...Fields) Fields {
	result := make(Fields)
	for _, field := range fields {
		for k, v := range field {
			result[k] = v
		}
	}
	return result
}
