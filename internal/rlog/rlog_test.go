package rlog

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelGatesOutput(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.Debugf("hidden %d", 1)
	l.Warnf("shown %d", 2)
	out := buf.String()
	assert.NotContains(t, out, "hidden", "expected debug output suppressed at LevelWarn")
	assert.Contains(t, out, "shown 2")
}

func TestWarnOnceEmitsOnlyFirstCall(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, LevelWarn)
	l.WarnOnce("foo.c", "source %s not found", "foo.c")
	l.WarnOnce("foo.c", "source %s not found", "foo.c")
	l.WarnOnce("bar.c", "source %s not found", "bar.c")

	n := strings.Count(buf.String(), "not found")
	assert.Equal(t, 2, n, "expected 2 warnings (one per distinct key)")
}
