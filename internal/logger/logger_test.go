package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewWritesAtOrAboveConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "warn")
	l.Infof("should not appear")
	l.Warnf("should appear: %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "should not appear")
	assert.Contains(t, out, "should appear: 42")
}

func TestNewDefaultsToInfoOnUnrecognizedLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "bogus")
	l.Infof("visible at info")
	l.Debugf("not visible at debug")

	out := buf.String()
	assert.Contains(t, out, "visible at info")
	assert.NotContains(t, out, "not visible at debug")
}

func TestNopDiscardsEverything(t *testing.T) {
	l := Nop()
	assert.NotPanics(t, func() {
		l.Debugf("x")
		l.Infof("x")
		l.Warnf("x")
		l.Errorf("x")
	})
}

func TestWithAttachesStructuredAttributesToEveryLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info").With("symbol", "BTCUSDT")
	l.Infof("tick")

	line := strings.TrimSpace(buf.String())
	assert.Contains(t, line, "symbol=BTCUSDT")
	assert.Contains(t, line, "tick")
}

func TestNewDefaultsToStdoutWhenWriterIsNil(t *testing.T) {
	l := New(nil, "error")
	assert.NotNil(t, l)
}
