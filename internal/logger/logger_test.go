package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error", ""} {
		log, err := New(level)
		require.NoError(t, err)
		assert.NotNil(t, log)
	}
}

func TestFromZap(t *testing.T) {
	log := FromZap(zap.NewNop())
	require.NotNil(t, log)
	assert.NotPanics(t, func() { log.Infow("hello", "k", "v") })
}

func TestFromZapNilDegradesToNop(t *testing.T) {
	log := FromZap(nil)
	require.NotNil(t, log)
	assert.NotPanics(t, func() {
		log.Debugw("a")
		log.Infow("b")
		log.Warnw("c")
		log.Errorw("d")
	})
}
