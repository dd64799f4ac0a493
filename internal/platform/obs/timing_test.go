package obs

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestTime(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := zap.New(core)
	ctx := WithRequestID(context.Background(), "req-1")

	func() (err error) {
		defer Time(ctx, log, "ok.op")(&err)
		return nil
	}()
	func() (err error) {
		defer Time(ctx, log, "bad.op")(&err)
		return errors.New("boom")
	}()

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "ok.op", entries[0].ContextMap()["op"])
	assert.Equal(t, "req-1", entries[0].ContextMap()["req_id"])

	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "boom", entries[1].ContextMap()["error"])
}

func TestTimeNilLogger(t *testing.T) {
	var err error
	assert.NotPanics(t, func() { Time(context.Background(), nil, "op")(&err) })
}

func TestLoggerFromContext(t *testing.T) {
	assert.NotNil(t, Logger(context.Background()))

	l := zap.NewExample()
	assert.Same(t, l, Logger(WithLogger(context.Background(), l)))
	assert.Empty(t, RequestID(context.Background()))
}
