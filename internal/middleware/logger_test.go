package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/jwalitptl/medrec-api/pkg/logger"
)

// The console writer colorizes field names, so assertions run against
// color-stripped output (see REVIEW_FINDINGS.md F7).
var ansiEscapes = regexp.MustCompile(`\x1b\[[0-9;]*m`)

func TestRequestLoggerEmitsRequestFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var buf bytes.Buffer
	log := logger.NewLogger(&logger.Config{Level: logger.InfoLevel, TimeFormat: "15:04:05", Output: &buf})

	r := gin.New()
	r.Use(RequestLogger(log))
	r.GET("/records", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/records", nil))

	out := ansiEscapes.ReplaceAllString(buf.String(), "")
	assert.Contains(t, out, "method=GET")
	assert.Contains(t, out, "path=/records")
	assert.Contains(t, out, "status=200")
	assert.Contains(t, out, "latency=")
}
