package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name          string
		logLevel      string
		envLevel      string
		logFormat     string
		development   bool
		expectedLevel logrus.Level
		expectJSON    bool
	}{
		{
			name:          "production defaults",
			expectedLevel: logrus.InfoLevel,
			expectJSON:    true,
		},
		{
			name:          "development defaults to debug text",
			development:   true,
			expectedLevel: logrus.DebugLevel,
		},
		{
			name:          "env level fallback",
			envLevel:      "warn",
			expectedLevel: logrus.WarnLevel,
			expectJSON:    true,
		},
		{
			name:          "explicit level wins over env",
			logLevel:      "ERROR",
			envLevel:      "debug",
			expectedLevel: logrus.ErrorLevel,
			expectJSON:    true,
		},
		{
			name:          "json forced in development",
			logFormat:     "JSON",
			development:   true,
			logLevel:      "info",
			expectedLevel: logrus.InfoLevel,
			expectJSON:    true,
		},
		{
			name:          "invalid level defaults to info",
			logLevel:      "chatty",
			expectedLevel: logrus.InfoLevel,
			expectJSON:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("LOG_LEVEL", tt.envLevel)
			t.Setenv("LOG_FORMAT", tt.logFormat)

			var buf bytes.Buffer
			log := newLogger(&buf, tt.logLevel, tt.development)
			assert.Equal(t, tt.expectedLevel, log.GetLevel())

			buf.Reset()
			log.WithField("seasons", 10).Error("simulation failed")

			var entry map[string]interface{}
			err := json.Unmarshal(buf.Bytes(), &entry)
			if tt.expectJSON {
				require.NoError(t, err)
				assert.Equal(t, "simulation failed", entry["msg"])
				assert.Equal(t, "error", entry["level"])
				assert.Equal(t, float64(10), entry["seasons"])
			} else {
				assert.Error(t, err)
				assert.Contains(t, buf.String(), "simulation failed")
			}
		})
	}
}

func TestNewLogger_WarnsOnInvalidLevel(t *testing.T) {
	t.Setenv("LOG_FORMAT", "")
	var buf bytes.Buffer
	newLogger(&buf, "chatty", false)
	assert.Contains(t, buf.String(), "Invalid LOG_LEVEL")
	assert.Contains(t, buf.String(), "chatty")
}
