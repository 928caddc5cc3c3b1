package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// GetObservationsInput is the input schema for the get_observations tool.
type GetObservationsInput struct {
	VariableDCID   string `json:"variable_dcid" jsonschema:"DCID of the statistical variable to fetch"`
	PlaceName      string `json:"place_name,omitempty" jsonschema:"place name to resolve (mutually exclusive with place_dcid)"`
	PlaceDCID      string `json:"place_dcid,omitempty" jsonschema:"place DCID (mutually exclusive with place_name)"`
	ChildPlaceType string `json:"child_place_type,omitempty" jsonschema:"fetch all child places of this type under the place (e.g. State, County)"`
	SourceOverride string `json:"source_id_override,omitempty" jsonschema:"force this source ID as the primary source"`
	Date           string `json:"date,omitempty" jsonschema:"'latest' (default), 'all', or an exact date (YYYY, YYYY-MM, or YYYY-MM-DD)"`
	StartDate      string `json:"start_date,omitempty" jsonschema:"start of a date range; requires end_date"`
	EndDate        string `json:"end_date,omitempty" jsonschema:"end of a date range; requires start_date"`
}

// SearchIndicatorsInput is the input schema for the search_indicators tool.
type SearchIndicatorsInput struct {
	Query           string   `json:"query" jsonschema:"search query for topics and statistical variables"`
	Mode            string   `json:"mode,omitempty" jsonschema:"'browse' (topics and variables, default) or 'lookup' (variables only)"`
	Places          []string `json:"places,omitempty" jsonschema:"place names to filter results by data existence"`
	BilateralPlaces []string `json:"bilateral_places,omitempty" jsonschema:"exactly two place names for bilateral (place-pair) indicator search"`
	PerSearchLimit  int      `json:"per_search_limit,omitempty" jsonschema:"maximum results per search task, 1 to 100 (default 10)"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_observations",
		Description: "Fetch observations for a statistical variable at a place or its child places, with automatic primary-source selection",
	}, s.handleGetObservations)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_indicators",
		Description: "Search statistical topics and variables, optionally filtered by places with data or a bilateral place pair",
	}, s.handleSearchIndicators)
}

// handleGetObservations handles the get_observations tool invocation.
func (s *Server) handleGetObservations(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetObservationsInput,
) (*mcp.CallToolResult, *domain.ObservationToolResponse, error) {
	response, err := s.ports.Observations.GetObservations(ctx, domain.ObservationQuery{
		VariableDCID:   input.VariableDCID,
		PlaceName:      input.PlaceName,
		PlaceDCID:      input.PlaceDCID,
		ChildPlaceType: input.ChildPlaceType,
		SourceOverride: input.SourceOverride,
		Date:           input.Date,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, response, nil
}

// handleSearchIndicators handles the search_indicators tool invocation.
func (s *Server) handleSearchIndicators(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchIndicatorsInput,
) (*mcp.CallToolResult, *domain.SearchResponse, error) {
	response, err := s.ports.Indicators.SearchIndicators(ctx, domain.IndicatorQuery{
		Query:           input.Query,
		Mode:            input.Mode,
		Places:          input.Places,
		BilateralPlaces: input.BilateralPlaces,
		PerSearchLimit:  input.PerSearchLimit,
	})
	if err != nil {
		return nil, nil, err
	}
	return nil, response, nil
}
