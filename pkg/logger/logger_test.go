package logger

import (
	"bytes"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

// The console writer colorizes field names, so assertions run against
// color-stripped output (see REVIEW_FINDINGS.md F7).
var ansiEscapes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func newBufferLogger() (*Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewLogger(&Config{Level: DebugLevel, TimeFormat: "15:04:05", Output: &buf}), &buf
}

func TestInfoLogsKeyValuePairs(t *testing.T) {
	log, buf := newBufferLogger()

	log.Info("request", "method", "GET", "status", 200)

	out := ansiEscapes.ReplaceAllString(buf.String(), "")
	assert.Contains(t, out, "request")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "status=200")
}

func TestInfoLogsSingleMapArgument(t *testing.T) {
	log, buf := newBufferLogger()

	log.Info("request", map[string]interface{}{"path": "/api/v1/records"})

	assert.Contains(t, ansiEscapes.ReplaceAllString(buf.String(), ""), "path=/api/v1/records")
}

func TestErrorCarriesFields(t *testing.T) {
	log, buf := newBufferLogger()

	log.Error(assert.AnError, "send failed", "to", "a@b.c")

	out := ansiEscapes.ReplaceAllString(buf.String(), "")
	assert.Contains(t, out, "send failed")
	assert.Contains(t, out, "to=a@b.c")
	assert.Contains(t, out, assert.AnError.Error())
}
