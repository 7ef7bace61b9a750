package logx_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/karua/hostcore/pkg/logx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newJSONLogger(buf *bytes.Buffer, level logx.Level) *logx.Logger {
	cfg := logx.DefaultConfig()
	cfg.Format = logx.FormatJSON
	cfg.Level = level
	cfg.Output = buf
	return logx.NewLogger(cfg)
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}

func TestJSONFormatterWritesFieldsAndError(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, logx.LevelInfo)

	logger.WithFields(logx.Fields{"user_id": "u-1"}).WithError(errors.New("boom")).Warn("login failed")

	line := decodeLine(t, &buf)
	assert.Equal(t, "WARN", line["level"])
	assert.Equal(t, "login failed", line["message"])
	assert.Equal(t, "u-1", line["user_id"])
	assert.Equal(t, "boom", line["error"])
}

func TestSensitiveFieldsAreRedacted(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, logx.LevelInfo)

	logger.WithFields(logx.Fields{
		"Password":    "hunter2",
		"secure_code": "123456",
		"email":       "ana@hotel.com",
	}).Info("audit")

	out := buf.String()
	assert.NotContains(t, out, "hunter2")
	assert.NotContains(t, out, "123456")
	assert.Contains(t, out, "ana@hotel.com")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := newJSONLogger(&buf, logx.LevelWarn)

	logger.WithField("k", "v").Info("dropped")
	assert.Zero(t, buf.Len())

	logger.SetLevel(logx.LevelDebug)
	logger.WithField("k", "v").Debug("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestContextFieldsAreMerged(t *testing.T) {
	var buf bytes.Buffer
	logx.SetDefaultLogger(newJSONLogger(&buf, logx.LevelInfo))
	t.Cleanup(func() { logx.SetDefaultLogger(logx.NewLogger(logx.DefaultConfig())) })

	ctx := logx.ContextWithFields(context.Background(), logx.Fields{"request_id": "req-1"})
	ctx = logx.ContextWithFields(ctx, logx.Fields{"tenant_id": "t-1"})
	logx.WithContext(ctx).Info("scoped")

	line := decodeLine(t, &buf)
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "t-1", line["tenant_id"])
}

func TestConsoleFormatterWithoutColors(t *testing.T) {
	var buf bytes.Buffer
	cfg := logx.DefaultConfig()
	cfg.EnableColors = false
	cfg.Output = &buf
	logger := logx.NewLogger(cfg)

	logger.WithFields(logx.Fields{"b": 2, "a": 1}).Info("hello")

	out := buf.String()
	assert.Contains(t, out, "[INFO ] hello a=1 b=2")
	assert.False(t, strings.Contains(out, "\033["))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logx.LevelWarn, logx.ParseLevel("warning"))
	assert.Equal(t, logx.LevelDebug, logx.ParseLevel("DEBUG"))
	assert.Equal(t, logx.LevelInfo, logx.ParseLevel("nonsense"))
}
