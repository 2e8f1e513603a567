package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(t *testing.T) (*Logger, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zapcore.InfoLevel)
	return &Logger{Logger: zap.New(core)}, logs
}

func TestWithContext_AttachesRequestAndUserFields(t *testing.T) {
	log, logs := observedLogger(t)

	ctx := WithRequestID(context.Background(), "req-123")
	ctx = WithUserID(ctx, "user-456")

	log.WithContext(ctx).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)

	fields := entries[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "user-456", fields["user_id"])
}

func TestWithContext_PartialAndEmptyContext(t *testing.T) {
	log, logs := observedLogger(t)

	log.WithContext(WithRequestID(context.Background(), "req-only")).Info("a")
	log.WithContext(context.Background()).Info("b")
	log.WithContext(nil).Info("c")

	entries := logs.All()
	require.Len(t, entries, 3)

	fields := entries[0].ContextMap()
	assert.Equal(t, "req-only", fields["request_id"])
	assert.NotContains(t, fields, "user_id")

	assert.Empty(t, entries[1].Context)
	assert.Empty(t, entries[2].Context)
}

func TestNew_ValidatesConfig(t *testing.T) {
	log, err := New(&Config{Level: "info", Format: "json", Output: "console"})
	require.NoError(t, err)
	require.NotNil(t, log)

	_, err = New(&Config{Level: "loud", Format: "json", Output: "console"})
	assert.Error(t, err)

	_, err = New(&Config{Level: "info", Format: "xml", Output: "console"})
	assert.Error(t, err)
}
