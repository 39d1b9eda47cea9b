package logging

import (
	"context"
	"io"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetLogging(t *testing.T) {
	t.Helper()
	t.Cleanup(func() {
		require.NoError(t, Initialize("info"))
		mu.Lock()
		forceStderr = false
		mu.Unlock()
	})
}

func TestInitializeValidation(t *testing.T) {
	resetLogging(t)

	assert.NoError(t, Initialize("debug"))
	assert.NoError(t, Initialize("WARN"))
	assert.Error(t, Initialize("verbose"))
	assert.Error(t, Initialize(""))

	err := Initialize("info", map[string]string{"workflow": "nope"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workflow")
}

func TestGetLoggerLevels(t *testing.T) {
	resetLogging(t)

	require.NoError(t, Initialize("warn", map[string]string{
		"resolver": "debug",
		"triage.*": "error",
	}))

	assert.Equal(t, WARN, GetLogger("apiserver").level)
	assert.Equal(t, DEBUG, GetLogger("resolver").level)
	assert.Equal(t, ERROR, GetLogger("triage.workflow").level)
	assert.Equal(t, ERROR, GetLogger("triage.routing").level)
	// The wildcard does not match the bare prefix itself.
	assert.Equal(t, WARN, GetLogger("triage").level)
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	parent := GetLogger("test").WithField("a", 1)
	child := parent.WithField("b", 2)

	assert.Len(t, parent.fields, 1)
	assert.Len(t, child.fields, 2)
	assert.Equal(t, 1, child.fields["a"])
}

func TestWithFields(t *testing.T) {
	l := GetLogger("test").WithFields(Field("request_id", "req-1"), Field("step", 3))

	assert.Equal(t, "req-1", l.fields["request_id"])
	assert.Equal(t, 3, l.fields["step"])
}

func TestContextFields(t *testing.T) {
	ctx := context.WithValue(context.Background(), traceIDKey, "trace-1")
	ctx = context.WithValue(ctx, spanIDKey, "span-1")

	fields := contextFields(ctx)
	assert.Equal(t, "trace-1", fields["trace_id"])
	assert.Equal(t, "span-1", fields["span_id"])

	assert.Empty(t, contextFields(nil))
	assert.Empty(t, contextFields(context.Background()))
}

func TestFatalCallsExit(t *testing.T) {
	resetLogging(t)

	var code int
	exitFunc = func(c int) { code = c }
	t.Cleanup(func() { exitFunc = os.Exit })

	GetLogger("test").Fatal("unrecoverable")
	assert.Equal(t, 1, code)
}

func captureOutput(t *testing.T, fn func()) (stdout, stderr string) {
	t.Helper()

	origOut, origErr := os.Stdout, os.Stderr
	outR, outW, err := os.Pipe()
	require.NoError(t, err)
	errR, errW, err := os.Pipe()
	require.NoError(t, err)
	os.Stdout, os.Stderr = outW, errW

	fn()

	outW.Close()
	errW.Close()
	os.Stdout, os.Stderr = origOut, origErr

	outBytes, _ := io.ReadAll(outR)
	errBytes, _ := io.ReadAll(errR)
	return string(outBytes), string(errBytes)
}

func TestWriteRouting(t *testing.T) {
	resetLogging(t)
	require.NoError(t, Initialize("debug"))
	t.Setenv("LOG_TIMESTAMP", "2026-01-01T00:00:00Z")

	l := GetLogger("router")

	stdout, stderr := captureOutput(t, func() {
		l.Info("routing to %s", "kubernetes")
	})
	assert.Contains(t, stdout, "[2026-01-01T00:00:00Z] [INFO] router: routing to kubernetes")
	assert.Empty(t, stderr)

	stdout, stderr = captureOutput(t, func() {
		l.Error("agent failed")
	})
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "[ERROR] router: agent failed")
}

func TestRedirectToStderr(t *testing.T) {
	resetLogging(t)
	require.NoError(t, Initialize("debug"))

	RedirectToStderr()
	l := GetLogger("mcp")

	stdout, stderr := captureOutput(t, func() {
		l.Info("tool registered")
	})
	assert.Empty(t, stdout)
	assert.Contains(t, stderr, "tool registered")
}

func TestLevelFiltering(t *testing.T) {
	resetLogging(t)
	require.NoError(t, Initialize("warn"))

	l := GetLogger("quiet")
	stdout, stderr := captureOutput(t, func() {
		l.Debug("dropped")
		l.Info("dropped too")
		l.Warn("kept")
	})
	assert.NotContains(t, stdout, "dropped")
	assert.Contains(t, stdout, "kept")
	assert.Empty(t, stderr)
}

func TestInfoWithFieldsRendersFields(t *testing.T) {
	resetLogging(t)
	require.NoError(t, Initialize("debug"))

	l := GetLogger("workflow")
	stdout, _ := captureOutput(t, func() {
		l.InfoWithFields("node executed", Field("node", "github_agent"))
	})
	assert.Contains(t, stdout, "node executed |")
	assert.Contains(t, stdout, "node=github_agent")
}
