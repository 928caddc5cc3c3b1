package mcp

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/ports/driven"
	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

// apiKeyHeader lets HTTP clients supply their own Data Commons API key per
// request instead of sharing the server's configured key.
const apiKeyHeader = "X-API-Key"

// withRequestContext tags each HTTP request with a request ID for log
// correlation and threads any per-request API key into the context, where
// the backend clients pick it up.
func withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.NewString()
		logger.Debug("Request %s: %s %s", requestID, r.Method, r.URL.Path)

		if apiKey := r.Header.Get(apiKeyHeader); apiKey != "" {
			logger.Debug("Request %s carries an API key override", requestID)
			r = r.WithContext(driven.WithAPIKeyOverride(r.Context(), apiKey))
		}

		next.ServeHTTP(w, r)
	})
}
