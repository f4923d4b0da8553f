package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"taskflow/backend/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_RejectsAfterBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	limiter := NewRateLimiter(config.RateLimitConfig{RequestsPerMin: 1, BurstSize: 2})

	router := gin.New()
	router.Use(limiter.Middleware())
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, limiter.Clients())
}

func TestRateLimiter_CleanupDropsIdleClients(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{RequestsPerMin: 60, BurstSize: 1, CleanupInterval: time.Minute})
	start := time.Now()

	limiter.allow("a", start)
	limiter.allow("b", start.Add(2*time.Minute))

	limiter.cleanup(start.Add(2*time.Minute + time.Second))
	assert.Equal(t, 1, limiter.Clients())
}
