package datacommons

import "github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"

// Wire types for the Data Commons REST API v2 and the NL search endpoint.
// Field names follow the upstream JSON exactly.

// observationRequest is the POST /v2/observation body.
type observationRequest struct {
	Variable dcidsSelector     `json:"variable"`
	Entity   entitySelector    `json:"entity"`
	Select   []string          `json:"select"`
	Date     string            `json:"date,omitempty"`
	Filter   *observationScope `json:"filter,omitempty"`
}

type dcidsSelector struct {
	DCIDs []string `json:"dcids,omitempty"`
}

// entitySelector names entities either directly or via a graph expression
// (used for "all children of type T under parent" queries).
type entitySelector struct {
	DCIDs      []string `json:"dcids,omitempty"`
	Expression string   `json:"expression,omitempty"`
}

type observationScope struct {
	FacetIDs []string `json:"facet_ids,omitempty"`
}

// observationResponse mirrors domain.ObservationAPIResponse; the domain
// types already carry the upstream JSON tags, so decoding is direct.
type observationResponse = domain.ObservationAPIResponse

// resolveRequest is the POST /v2/resolve body.
type resolveRequest struct {
	Nodes    []string `json:"nodes"`
	Property string   `json:"property"`
}

type resolveResponse struct {
	Entities []resolveEntity `json:"entities"`
}

type resolveEntity struct {
	Node       string             `json:"node"`
	Candidates []resolveCandidate `json:"candidates"`
}

type resolveCandidate struct {
	DCID string `json:"dcid"`
}

// nodeRequest is the POST /v2/node body. Property is an arc expression such
// as "->name" or "->[name, relevantVariable]".
type nodeRequest struct {
	Nodes    []string `json:"nodes"`
	Property string   `json:"property"`
}

type nodeResponse struct {
	Data map[string]nodeArcs `json:"data"`
}

type nodeArcs struct {
	Arcs map[string]nodeList `json:"arcs"`
}

type nodeList struct {
	Nodes []nodeRef `json:"nodes"`
}

// nodeRef is one linked node: terminal string properties carry Value,
// entity links carry DCID and possibly Name.
type nodeRef struct {
	DCID  string `json:"dcid,omitempty"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

// vectorSearchRequest is the POST /api/nl/search-vector body.
type vectorSearchRequest struct {
	Queries []string `json:"queries"`
}

type vectorSearchResponse struct {
	QueryResults map[string]vectorQueryResult `json:"queryResults"`
}

// vectorQueryResult is parallel arrays of DCIDs and scores, upstream order.
type vectorQueryResult struct {
	SV          []string  `json:"SV"`
	CosineScore []float64 `json:"CosineScore"`
}
