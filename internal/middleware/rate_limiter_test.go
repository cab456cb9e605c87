package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitIsPerClient(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 2})

	a := rl.limiterFor("10.0.0.1")
	b := rl.limiterFor("10.0.0.2")

	assert.True(t, a.Allow())
	assert.True(t, a.Allow())
	assert.False(t, a.Allow(), "burst exhausted for this client")
	assert.True(t, b.Allow(), "another client keeps its own bucket")
}

func TestRateLimitReusesClientBucket(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})

	assert.Same(t, rl.limiterFor("10.0.0.1"), rl.limiterFor("10.0.0.1"))
}

func TestRateLimitRejectsOverBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)

	rl := NewRateLimiter(RateLimiterConfig{Rate: 1, Burst: 1})
	r := gin.New()
	r.Use(rl.RateLimit())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, first.Code)

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
