package mcp

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func guarded(apiKey string) http.Handler {
	return bearerAuth(apiKey, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func callMCP(h http.Handler, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestBearerAuthRejectsMissingToken(t *testing.T) {
	w := callMCP(guarded("local-test-key"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, `Bearer realm="mcp"`, w.Header().Get("WWW-Authenticate"))
	assert.Contains(t, w.Body.String(), "missing bearer token")
}

func TestBearerAuthRejectsNonBearerScheme(t *testing.T) {
	w := callMCP(guarded("local-test-key"), "Basic dXNlcjpwYXNz")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestBearerAuthRejectsWrongToken(t *testing.T) {
	w := callMCP(guarded("local-test-key"), "Bearer wrong")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("WWW-Authenticate"), "invalid_token")
}

func TestBearerAuthPassesValidToken(t *testing.T) {
	w := callMCP(guarded("local-test-key"), "Bearer local-test-key")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestHealthz(t *testing.T) {
	w := httptest.NewRecorder()
	healthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","service":"mstrack-mcp"}`, w.Body.String())
}
