package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// InitLogger builds the structured logger. An empty level falls back to
// LOG_LEVEL, then to debug in development and info elsewhere. Output is
// JSON outside development or when LOG_FORMAT=json.
func InitLogger(logLevel string, isDevelopment bool) *logrus.Logger {
	return newLogger(os.Stdout, logLevel, isDevelopment)
}

func newLogger(out io.Writer, logLevel string, isDevelopment bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(out)

	if logLevel == "" {
		logLevel = os.Getenv("LOG_LEVEL")
		if logLevel == "" {
			if isDevelopment {
				logLevel = "debug"
			} else {
				logLevel = "info"
			}
		}
	}

	if !isDevelopment || strings.ToLower(os.Getenv("LOG_FORMAT")) == "json" {
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		})
	} else {
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}

	if level, err := logrus.ParseLevel(strings.ToLower(logLevel)); err == nil {
		log.SetLevel(level)
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.WithField("invalid_level", logLevel).Warn("Invalid LOG_LEVEL, using INFO")
	}

	return log
}
