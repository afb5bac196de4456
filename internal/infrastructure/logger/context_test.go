package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestWithContext(t *testing.T) {
	logger, err := New(ConfigForEnvironment("development"))
	require.NoError(t, err)

	ctx := WithContext(context.Background(), logger)

	retrieved := FromContext(ctx)
	assert.Equal(t, logger, retrieved)

	// The fallback variant prefers the attached logger too.
	assert.Equal(t, logger, FromContextOr(ctx, zap.NewNop()))
}

func TestFromContextOr_Fallback(t *testing.T) {
	fallback := zap.NewNop()
	assert.Equal(t, fallback, FromContextOr(context.Background(), fallback))
}

func TestFromContext_NotFound(t *testing.T) {
	logger := FromContext(context.Background())

	// Should return a no-op logger
	assert.NotNil(t, logger)
}

func TestWithActor(t *testing.T) {
	var buf bytes.Buffer
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(zapcore.EncoderConfig{
			MessageKey:  "msg",
			LevelKey:    "level",
			EncodeLevel: zapcore.LowercaseLevelEncoder,
		}),
		zapcore.AddSync(&buf),
		zapcore.InfoLevel,
	)
	logger := zap.New(core)

	ctx, enriched := WithActor(context.Background(), logger, "jsmith")

	assert.Equal(t, "jsmith", GetActor(ctx))
	assert.Equal(t, enriched, FromContext(ctx))

	enriched.Info("label removed")
	assert.True(t, strings.Contains(buf.String(), `"actor":"jsmith"`))
}

func TestGetActor_NotFound(t *testing.T) {
	assert.Equal(t, "", GetActor(context.Background()))
}
