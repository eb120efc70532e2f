package logging

import (
	"strings"
	"testing"

	"github.com/zulandar/incidentdesk/internal/config"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name  string
		cfg   config.LogConfig
		debug bool
	}{
		{"json info", config.LogConfig{Level: "info", Format: "json"}, false},
		{"console debug", config.LogConfig{Level: "debug", Format: "console"}, true},
		{"warn default format", config.LogConfig{Level: "warn"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New: %v", err)
			}
			if got := logger.Core().Enabled(zapcore.DebugLevel); got != tt.debug {
				t.Errorf("debug enabled = %v, want %v", got, tt.debug)
			}
		})
	}
}

func TestNew_Errors(t *testing.T) {
	if _, err := New(config.LogConfig{Level: "loud"}); err == nil || !strings.Contains(err.Error(), "logging: level") {
		t.Errorf("bad level err = %v", err)
	}
	if _, err := New(config.LogConfig{Level: "info", Format: "xml"}); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("bad format err = %v", err)
	}
}
