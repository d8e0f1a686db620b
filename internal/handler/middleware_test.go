package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/assert/v2"
)

func TestRequireSecret_EmptyConfiguredSecretRejectsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/dates", RequireSecret(""), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/dates", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequestLogger_AssignsRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestLogger())
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest("GET", "/ping", nil))
	assert.Equal(t, len(w.Header().Get(RequestIDHeader)), 36)

	w = httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/ping", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, w.Header().Get(RequestIDHeader), "abc-123")
}

func TestRateLimiter_PerClientIP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/ask", NewRateLimiter(2).Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(ip string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("POST", "/ask", nil)
		req.RemoteAddr = ip + ":1234"
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, send("10.0.0.1"), http.StatusOK)
	assert.Equal(t, send("10.0.0.1"), http.StatusOK)
	assert.Equal(t, send("10.0.0.1"), http.StatusTooManyRequests)
	assert.Equal(t, send("10.0.0.2"), http.StatusOK)
}
