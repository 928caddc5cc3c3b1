package mcp

import (
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/ports/driving"
)

// Ports aggregates everything the MCP server needs injected: the two tool
// services plus the topic store backing the taxonomy resources.
type Ports struct {
	// Observations serves the get_observations tool.
	Observations driving.ObservationService

	// Indicators serves the search_indicators tool.
	Indicators driving.IndicatorService

	// Topics backs the dcgraph:// taxonomy resources.
	Topics *domain.TopicStore
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Observations == nil {
		return ErrMissingObservationService
	}
	if p.Indicators == nil {
		return ErrMissingIndicatorService
	}
	if p.Topics == nil {
		return ErrMissingTopicStore
	}
	return nil
}
