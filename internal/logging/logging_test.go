// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/pdiddy/learning-engine/pkg/types"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.LoggingConfig
		enabled zapcore.Level
		off     zapcore.Level
	}{
		{"default", types.LoggingConfig{}, zapcore.InfoLevel, zapcore.DebugLevel},
		{"debug", types.LoggingConfig{Level: "debug", Development: true}, zapcore.DebugLevel, zapcore.DebugLevel - 1},
		{"warn", types.LoggingConfig{Level: "WARN"}, zapcore.WarnLevel, zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.cfg)
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enabled))
			assert.False(t, logger.Core().Enabled(tt.off))
		})
	}
}

func TestNewInvalidLevel(t *testing.T) {
	_, err := New(types.LoggingConfig{Level: "loud"})
	assert.Error(t, err)
}
