// Package mcp provides an MCP (Model Context Protocol) server adapter for
// the dcgraph statistical-data tools. It exposes observation fetching and
// indicator search to AI assistants over stdio or HTTP.
package mcp

import "errors"

// Required-port errors returned by Ports.Validate.
var (
	ErrMissingObservationService = errors.New("mcp: observation service is required")
	ErrMissingIndicatorService   = errors.New("mcp: indicator service is required")
	ErrMissingTopicStore         = errors.New("mcp: topic store is required")
)
