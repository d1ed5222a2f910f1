package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name       string
		allowed    []string
		method     string
		origin     string
		wantStatus int
		wantOrigin string
		wantVary   string
	}{
		{name: "preflight open", method: http.MethodOptions, origin: "https://any.example", wantStatus: http.StatusNoContent, wantOrigin: "*"},
		{name: "wildcard entry", allowed: []string{"*"}, method: http.MethodGet, wantStatus: http.StatusOK, wantOrigin: "*"},
		{name: "listed origin", allowed: []string{"https://app.dealershipai.com/"}, method: http.MethodGet, origin: "https://APP.dealershipai.com", wantStatus: http.StatusOK, wantOrigin: "https://APP.dealershipai.com", wantVary: "Origin"},
		{name: "unlisted origin", allowed: []string{"https://app.dealershipai.com"}, method: http.MethodGet, origin: "https://evil.example", wantStatus: http.StatusOK},
		{name: "listed preflight", allowed: []string{"https://app.dealershipai.com"}, method: http.MethodOptions, origin: "https://app.dealershipai.com", wantStatus: http.StatusNoContent, wantOrigin: "https://app.dealershipai.com", wantVary: "Origin"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.Use(CORS(tc.allowed...))
			r.GET("/api/dashboard/overview", func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(tc.method, "/api/dashboard/overview", nil)
			if tc.origin != "" {
				req.Header.Set("Origin", tc.origin)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			require.Equal(t, tc.wantStatus, w.Code)
			require.Equal(t, tc.wantOrigin, w.Header().Get("Access-Control-Allow-Origin"))
			require.Equal(t, tc.wantVary, w.Header().Get("Vary"))
			require.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Authorization")
		})
	}
}
