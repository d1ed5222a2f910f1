package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func securedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/api/dealerships", func(c *gin.Context) { c.Status(http.StatusOK) })
	return r
}

func TestSecurityHeadersPlainHTTP(t *testing.T) {
	w := httptest.NewRecorder()
	securedRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	require.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	require.Equal(t, DefaultContentSecurityPolicy, w.Header().Get("Content-Security-Policy"))
	require.Equal(t, "same-origin", w.Header().Get("Cross-Origin-Resource-Policy"))
	require.Empty(t, w.Header().Get("Strict-Transport-Security"))
	require.Empty(t, w.Header().Get("Cache-Control"))
}

func TestSecurityHeadersBehindTLSProxy(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/dealerships", nil)
	req.Header.Set("X-Forwarded-Proto", "HTTPS")

	w := httptest.NewRecorder()
	securedRouter().ServeHTTP(w, req)

	require.Equal(t, hstsValue, w.Header().Get("Strict-Transport-Security"))
	require.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}
