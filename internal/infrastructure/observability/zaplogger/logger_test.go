package zaplogger

import (
	"errors"
	"testing"

	"github.com/Zhima-Mochi/storefront/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerCarriesFixedAndScopedFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := New(zap.New(core), observability.F("service", "storefront"))

	log.With(observability.F("order_id", "o-1")).Info("use_case_done",
		observability.F("outcome", "success"),
		observability.F("error", errors.New("boom")),
	)

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "use_case_done", entries[0].Message)
	assert.Equal(t, "storefront", fields["service"])
	assert.Equal(t, "o-1", fields["order_id"])
	assert.Equal(t, "success", fields["outcome"])
	assert.Equal(t, "boom", fields["error"])
}

func TestNewWithNilBaseDoesNotPanic(t *testing.T) {
	log := New(nil)
	assert.NotPanics(t, func() { log.Warn("nothing") })
}
