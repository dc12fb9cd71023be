package mcp

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
)

// ServeHTTP exposes the MCP tools over streamable HTTP on addr. With a
// non-empty apiKey the /mcp endpoint requires it as a Bearer token.
func ServeHTTP(addr, apiKey string, deps Deps) error {
	streamable := server.NewStreamableHTTPServer(newServer(deps), server.WithStateLess(true))

	var mcpHandler http.Handler = streamable
	if apiKey != "" {
		mcpHandler = bearerAuth(apiKey, streamable)
	} else {
		logrus.Warn("API_KEY not set; /mcp is unauthenticated")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", healthz)
	mux.Handle("/mcp", mcpHandler)

	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logrus.WithField("addr", addr).Info("MCP HTTP server listening")
	return srv.ListenAndServe()
}

func healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","service":"mstrack-mcp"}`))
}

// bearerAuth wraps next with a constant-time Bearer token check.
func bearerAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			deny(w, `Bearer realm="mcp"`, "missing bearer token")
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			deny(w, `Bearer realm="mcp", error="invalid_token"`, "invalid token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func deny(w http.ResponseWriter, challenge, message string) {
	w.Header().Set("WWW-Authenticate", challenge)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	fmt.Fprintf(w, `{"error":%q}`+"\n", message)
}
