package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNewLogger(t *testing.T) {
	for _, tc := range []struct {
		name  string
		json  bool
		debug bool
	}{
		{"console info", false, false},
		{"json debug", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := NewLogger(tc.json, tc.debug)
			require.NoError(t, err)
			assert.Equal(t, tc.debug, logger.Core().Enabled(zapcore.DebugLevel))
		})
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	logger := zap.New(core)

	WithFields(logger, CandidateFields("abc")...).Info("scored")

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "abc", entries[0].ContextMap()[FieldCandidateID])
}

func TestWithFields_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		WithFields(nil, zap.String("k", "v")).Info("ignored")
		OrNop(nil).Warn("ignored")
	})
}

func TestCandidateFields_Empty(t *testing.T) {
	assert.Empty(t, CandidateFields("  "))
}

func TestModelFields(t *testing.T) {
	fields := ModelFields(" gemini ", "")
	require.Len(t, fields, 1)
	assert.Equal(t, FieldProvider, fields[0].Key)
	assert.Equal(t, "gemini", fields[0].String)
}

func TestTruncateForLog(t *testing.T) {
	assert.Equal(t, "hello", TruncateForLog("  hello  ", 10))
	assert.Equal(t, "hel...", TruncateForLog("hello", 3))
	assert.Equal(t, "", TruncateForLog("hello", 0))
	assert.Equal(t, "héé...", TruncateForLog("héééé", 3))
}
