package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]zapcore.Level{
		"debug": zapcore.DebugLevel,
		"info":  zapcore.InfoLevel,
		"warn":  zapcore.WarnLevel,
		"error": zapcore.ErrorLevel,
		"":      zapcore.InfoLevel,
		"bogus": zapcore.InfoLevel,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLevel(in), in)
	}
}

func TestZapWrapper_FieldsAndErrors(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := NewZapAdapter(zap.New(core)).With(map[string]interface{}{"component": "planner"})

	log.Info("query processed", map[string]interface{}{
		"path":  "direct_search",
		"cause": errors.New("boom"),
	})
	log.WithError(errors.New("backend down")).Warn("fallback", nil)

	entries := logs.All()
	assert.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "planner", first["component"])
	assert.Equal(t, "direct_search", first["path"])
	assert.Equal(t, "boom", first["cause"])

	second := entries[1].ContextMap()
	assert.Equal(t, "backend down", second["error"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
}

func TestNew_Formats(t *testing.T) {
	assert.NotNil(t, New("info", "json"))
	assert.NotNil(t, New("debug", "console", "stderr"))
	NewNoOpLogger().Info("discarded", map[string]interface{}{"k": "v"})
	NewTestLogger(t).Debug("visible in -v", nil)
}
