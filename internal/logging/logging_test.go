package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONInProduction(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "bizledger-api", "info", "production")

	l.Info("posted", "transaction_id", "abc")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "bizledger-api", line["service"])
	assert.Equal(t, "abc", line["transaction_id"])
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "svc", "warn", "development")

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithJob(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "svc", "debug", "production")
	ctx := WithLogger(context.Background(), base)

	ctx, l := WithJob(ctx, "reconcile", "run-1")
	l.Info("started")

	assert.Same(t, l, FromContext(ctx))
	assert.Contains(t, buf.String(), `"job":"reconcile"`)
	assert.Contains(t, buf.String(), `"run_id":"run-1"`)
}

func TestFromContext_FallsBackToDefault(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}
