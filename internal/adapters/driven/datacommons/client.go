// Package datacommons provides driven adapters for Data Commons instances:
// a single-instance API client and a multi-instance client that fans out to
// a base and an optional custom instance and merges their answers.
package datacommons

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dcgraph-labs/dcgraph-cli/internal/cache"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/ports/driven"
	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

// Default configuration values.
const (
	DefaultAPIBaseURL      = "https://api.datacommons.org/v2"
	DefaultSVSearchBaseURL = "https://datacommons.org"
	DefaultBaseIndex       = "base_uae_mem"
	DefaultCustomIndex     = "user_all_minilm_mem"
	DefaultTimeout         = 30 * time.Second

	// customAPIPath is appended to a custom instance's base URL to reach
	// its REST API.
	customAPIPath = "/core/api/v2"

	// variableCacheSize bounds the per-place variable-existence cache.
	variableCacheSize = 128
)

// internalVariablePattern matches auto-generated variable IDs that carry no
// human-readable name. They are dropped from existence results unless the
// topic store knows them.
var internalVariablePattern = regexp.MustCompile(`^dc/[a-z0-9]{10,}$`)

// Config holds configuration for a single Data Commons instance.
// Exactly one of APIKey and BaseURL must be set: an API key addresses the
// public instance, a base URL addresses a self-hosted custom instance.
type Config struct {
	// Name labels this instance in logs.
	Name string

	// APIKey authenticates against the public API.
	APIKey string

	// BaseURL is the root URL of a custom instance.
	BaseURL string

	// SVSearchBaseURL is the base URL for the vector-search endpoint
	// (default: https://datacommons.org).
	SVSearchBaseURL string

	// Index is the vector-search index name.
	Index string

	// RateLimit bounds outgoing request rate. Zero values use defaults.
	RateLimit RateLimitConfig

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration
}

// Client is a single-instance Data Commons API client. All fetch methods
// are safe for concurrent use.
type Client struct {
	name            string
	apiKey          string
	apiBaseURL      string
	svSearchBaseURL string
	idx             string
	httpClient      *http.Client
	limiter         *RateLimiter
	variableCache   *cache.LRU[string, map[string]struct{}]
	topics          *domain.TopicStore
}

// NewClient creates a client for one Data Commons instance. The topic store
// may be empty but not nil; it backs name lookups and existence filtering.
func NewClient(cfg Config, topics *domain.TopicStore) (*Client, error) {
	if cfg.APIKey != "" && cfg.BaseURL != "" {
		return nil, fmt.Errorf("cannot specify both api_key and base_url")
	}
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("must specify either api_key or base_url")
	}
	if topics == nil {
		topics = domain.NewEmptyTopicStore()
	}

	apiBaseURL := DefaultAPIBaseURL
	if cfg.BaseURL != "" {
		apiBaseURL = strings.TrimSuffix(cfg.BaseURL, "/") + customAPIPath
	}
	svSearchBaseURL := cfg.SVSearchBaseURL
	if svSearchBaseURL == "" {
		svSearchBaseURL = DefaultSVSearchBaseURL
	}
	idx := cfg.Index
	if idx == "" {
		idx = DefaultBaseIndex
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		name:            cfg.Name,
		apiKey:          cfg.APIKey,
		apiBaseURL:      apiBaseURL,
		svSearchBaseURL: strings.TrimSuffix(svSearchBaseURL, "/"),
		idx:             idx,
		httpClient:      &http.Client{Timeout: timeout},
		limiter:         NewRateLimiter(cfg.RateLimit),
		variableCache:   cache.New[string, map[string]struct{}](variableCacheSize),
		topics:          topics,
	}, nil
}

// Name returns the instance label used in logs.
func (c *Client) Name() string { return c.name }

// Topics returns the client's topic store.
func (c *Client) Topics() *domain.TopicStore { return c.topics }

// postJSON sends a rate-limited JSON POST and decodes the JSON response.
func (c *Client) postJSON(ctx context.Context, url string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	apiKey := c.apiKey
	if override, ok := driven.APIKeyOverrideFromContext(ctx); ok {
		apiKey = override
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
		c.limiter.RecordRateLimitError(retryAfter)
		return fmt.Errorf("data commons rate limited (status 429)")
	}
	if resp.StatusCode != http.StatusOK {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("data commons error (status %d): failed to read response", resp.StatusCode)
		}
		return fmt.Errorf("data commons error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// FetchObservations fetches per-place, per-facet observation batches for one
// variable. A child place type expands the entity selector into a graph
// expression covering every child of that type under the place.
func (c *Client) FetchObservations(
	ctx context.Context, req domain.ObservationRequest,
) (*domain.ObservationAPIResponse, error) {
	body := observationRequest{
		Variable: dcidsSelector{DCIDs: []string{req.VariableDCID}},
		Select:   []string{"date", "entity", "variable", "value"},
		Date:     string(req.Period),
	}
	if req.ChildPlaceType != "" {
		body.Entity = entitySelector{
			Expression: req.PlaceDCID + "<-containedInPlace+{typeOf:" + req.ChildPlaceType + "}",
		}
	} else {
		body.Entity = entitySelector{DCIDs: []string{req.PlaceDCID}}
	}
	if len(req.SourceIDs) > 0 {
		body.Filter = &observationScope{FacetIDs: req.SourceIDs}
	}

	var response observationResponse
	if err := c.postJSON(ctx, c.apiBaseURL+"/observation", body, &response); err != nil {
		return nil, err
	}
	if response.ByVariable == nil {
		response.ByVariable = map[string]domain.VariableData{}
	}
	if response.Facets == nil {
		response.Facets = map[string]domain.FacetMetadata{}
	}
	return &response, nil
}

// ResolvePlaces maps human place names to DCIDs via description resolution,
// keeping the first candidate per name. Names with no candidates are
// omitted from the result.
func (c *Client) ResolvePlaces(ctx context.Context, names []string) (map[string]string, error) {
	if len(names) == 0 {
		return map[string]string{}, nil
	}

	body := resolveRequest{Nodes: names, Property: "<-description->dcid"}
	var response resolveResponse
	if err := c.postJSON(ctx, c.apiBaseURL+"/resolve", body, &response); err != nil {
		return nil, err
	}

	results := make(map[string]string, len(response.Entities))
	for _, entity := range response.Entities {
		if entity.Node != "" && len(entity.Candidates) > 0 {
			results[entity.Node] = entity.Candidates[0].DCID
		}
	}
	return results, nil
}

// FetchEntityNames maps DCIDs to display names. DCIDs without a name
// property are omitted.
func (c *Client) FetchEntityNames(ctx context.Context, dcids []string) (map[string]string, error) {
	if len(dcids) == 0 {
		return map[string]string{}, nil
	}

	body := nodeRequest{Nodes: dcids, Property: "->name"}
	var response nodeResponse
	if err := c.postJSON(ctx, c.apiBaseURL+"/node", body, &response); err != nil {
		return nil, err
	}

	names := make(map[string]string, len(response.Data))
	for dcid, arcs := range response.Data {
		for _, node := range arcs.Arcs["name"].Nodes {
			if node.Value != "" {
				names[dcid] = node.Value
				break
			}
		}
	}
	return names, nil
}

// FetchEntityTypes maps DCIDs to their typeOf labels.
func (c *Client) FetchEntityTypes(ctx context.Context, dcids []string) (map[string][]string, error) {
	if len(dcids) == 0 {
		return map[string][]string{}, nil
	}

	body := nodeRequest{Nodes: dcids, Property: "->typeOf"}
	var response nodeResponse
	if err := c.postJSON(ctx, c.apiBaseURL+"/node", body, &response); err != nil {
		return nil, err
	}

	types := make(map[string][]string, len(response.Data))
	for dcid, arcs := range response.Data {
		for _, node := range arcs.Arcs["typeOf"].Nodes {
			if node.DCID != "" {
				types[dcid] = append(types[dcid], node.DCID)
			}
		}
	}
	return types, nil
}

// FetchTopicNodes batch-fetches topic node payloads for the live
// topic-store builder: each node's display name plus its relevant member
// variables and sub-topics, with whatever member names came back alongside.
func (c *Client) FetchTopicNodes(ctx context.Context, dcids []string) (map[string]driven.TopicNodeData, error) {
	if len(dcids) == 0 {
		return map[string]driven.TopicNodeData{}, nil
	}

	body := nodeRequest{Nodes: dcids, Property: "->[name, relevantVariable]"}
	var response nodeResponse
	if err := c.postJSON(ctx, c.apiBaseURL+"/node", body, &response); err != nil {
		return nil, err
	}

	results := make(map[string]driven.TopicNodeData, len(response.Data))
	for dcid, arcs := range response.Data {
		data := driven.TopicNodeData{Names: map[string]string{}}
		for _, node := range arcs.Arcs["name"].Nodes {
			if node.Value != "" {
				data.Name = node.Value
				break
			}
		}
		for _, node := range arcs.Arcs["relevantVariable"].Nodes {
			if node.DCID == "" {
				continue
			}
			data.Members = append(data.Members, node.DCID)
			if node.Name != "" {
				data.Names[node.DCID] = node.Name
			}
		}
		results[dcid] = data
	}
	return results, nil
}

// placeVariables returns the set of variables with data for a place, from
// the LRU cache when warm. Auto-generated internal variable IDs are dropped
// unless the topic store knows them.
func (c *Client) placeVariables(ctx context.Context, placeDCID string) (map[string]struct{}, error) {
	if cached, ok := c.variableCache.Get(placeDCID); ok {
		return cached, nil
	}

	body := observationRequest{
		Variable: dcidsSelector{},
		Entity:   entitySelector{DCIDs: []string{placeDCID}},
		Select:   []string{"entity", "variable"},
	}
	var response observationResponse
	if err := c.postJSON(ctx, c.apiBaseURL+"/observation", body, &response); err != nil {
		return nil, err
	}

	variables := make(map[string]struct{}, len(response.ByVariable))
	for variableDCID, variableData := range response.ByVariable {
		if _, ok := variableData.ByEntity[placeDCID]; !ok {
			continue
		}
		if c.topics.HasVariable(variableDCID) || !internalVariablePattern.MatchString(variableDCID) {
			variables[variableDCID] = struct{}{}
		}
	}
	logger.Debug("Cached %d variables for place %q on %s", len(variables), placeDCID, c.name)

	c.variableCache.Put(placeDCID, variables)
	return variables, nil
}
