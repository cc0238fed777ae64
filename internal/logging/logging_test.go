package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewLevels(t *testing.T) {
	log := New(false, false)
	if log.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be disabled without verbose")
	}
	if !log.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be enabled")
	}

	verbose := New(true, true)
	if !verbose.Core().Enabled(zapcore.DebugLevel) {
		t.Error("debug should be enabled with verbose")
	}
}
