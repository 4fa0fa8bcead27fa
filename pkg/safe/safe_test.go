package safe

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunRecoversPanic(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	assert.NotPanics(t, func() {
		RunWithLog(func() { panic("boom") }, "chat.reconcile")
	})
	assert.Contains(t, buf.String(), "boom")
	assert.Contains(t, buf.String(), "component=chat.reconcile")

	ran := false
	Run(func() { ran = true })
	assert.True(t, ran)
}

func TestStackTraceIsBounded(t *testing.T) {
	trace := stackTrace(3)
	lines := strings.Split(trace, "\n")
	assert.Equal(t, "Stack trace:", lines[0])
	assert.LessOrEqual(t, len(lines), 5)
}
