package datacommons

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/ports/driven"
	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

// Instance origin labels used in merged search results.
const (
	BaseClientID   = "base"
	CustomClientID = "custom"
)

// DefaultCustomSearchThreshold is the minimum vector-search score a custom
// instance's best hit needs to win over the base instance's. Below it the
// custom corpus is assumed to have no meaningful answer for the query.
const DefaultCustomSearchThreshold = 0.7

// SearchScope selects which instances serve taxonomy searches.
type SearchScope string

const (
	// ScopeBaseAndCustom prefers the custom instance when present.
	ScopeBaseAndCustom SearchScope = "base_and_custom"
	// ScopeBaseOnly always searches the base instance.
	ScopeBaseOnly SearchScope = "base_only"
	// ScopeCustomOnly always searches the custom instance.
	ScopeCustomOnly SearchScope = "custom_only"
)

// Ensure MultiClient implements the service-layer port.
var _ driven.StatClient = (*MultiClient)(nil)

// MultiClient fans requests out to a base Data Commons instance and an
// optional custom instance and merges their answers. With no custom
// instance it is a transparent wrapper around the base client.
type MultiClient struct {
	base   *Client
	custom *Client // may be nil

	scope           SearchScope
	searchThreshold float64
}

// NewMultiClient creates a multi-instance client. A zero searchThreshold
// falls back to DefaultCustomSearchThreshold; an empty scope prefers the
// custom instance when present.
func NewMultiClient(base *Client, custom *Client, scope SearchScope, searchThreshold float64) (*MultiClient, error) {
	if base == nil {
		return nil, fmt.Errorf("base client is required")
	}
	if scope == "" {
		scope = ScopeBaseAndCustom
	}
	if scope == ScopeCustomOnly && custom == nil {
		return nil, fmt.Errorf("search scope %q requires a custom instance", scope)
	}
	if searchThreshold == 0 {
		searchThreshold = DefaultCustomSearchThreshold
	}
	return &MultiClient{
		base:            base,
		custom:          custom,
		scope:           scope,
		searchThreshold: searchThreshold,
	}, nil
}

// FetchObservations queries both instances concurrently and merges the
// responses: facets unique to the custom instance come first, then every
// base facet. The base instance wins duplicated facet IDs.
func (m *MultiClient) FetchObservations(
	ctx context.Context, req domain.ObservationRequest,
) (*domain.ObservationAPIResponse, error) {
	if m.custom == nil {
		return m.base.FetchObservations(ctx, req)
	}

	var baseResponse, customResponse *domain.ObservationAPIResponse
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		var err error
		baseResponse, err = m.base.FetchObservations(groupCtx, req)
		return err
	})
	group.Go(func() error {
		var err error
		customResponse, err = m.custom.FetchObservations(groupCtx, req)
		return err
	})
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return mergeObservationResponses(baseResponse, customResponse), nil
}

// mergeObservationResponses folds a custom instance's response into the
// base response. Only facets absent from the base response are taken from
// the custom one, and they are ordered ahead of the base facets so that
// locally-curated data ranks first on ties upstream of the primary-source
// selection.
func mergeObservationResponses(base, custom *domain.ObservationAPIResponse) *domain.ObservationAPIResponse {
	merged := &domain.ObservationAPIResponse{
		ByVariable: map[string]domain.VariableData{},
		Facets:     map[string]domain.FacetMetadata{},
	}

	customUnique := map[string]struct{}{}
	for facetID, metadata := range custom.Facets {
		if _, ok := base.Facets[facetID]; !ok {
			customUnique[facetID] = struct{}{}
			merged.Facets[facetID] = metadata
		}
	}
	for facetID, metadata := range base.Facets {
		merged.Facets[facetID] = metadata
	}

	variableDCIDs := map[string]struct{}{}
	for variableDCID := range custom.ByVariable {
		variableDCIDs[variableDCID] = struct{}{}
	}
	for variableDCID := range base.ByVariable {
		variableDCIDs[variableDCID] = struct{}{}
	}

	for variableDCID := range variableDCIDs {
		mergedData := domain.VariableData{ByEntity: map[string]domain.PlaceFacets{}}

		for placeDCID, placeFacets := range custom.ByVariable[variableDCID].ByEntity {
			var facets []domain.FacetObservations
			for _, facet := range placeFacets.OrderedFacets {
				if _, ok := customUnique[facet.FacetID]; ok {
					facets = append(facets, facet)
				}
			}
			if len(facets) > 0 {
				mergedData.ByEntity[placeDCID] = domain.PlaceFacets{OrderedFacets: facets}
			}
		}

		for placeDCID, placeFacets := range base.ByVariable[variableDCID].ByEntity {
			existing := mergedData.ByEntity[placeDCID]
			existing.OrderedFacets = append(existing.OrderedFacets, placeFacets.OrderedFacets...)
			mergedData.ByEntity[placeDCID] = existing
		}

		if len(mergedData.ByEntity) > 0 {
			merged.ByVariable[variableDCID] = mergedData
		}
	}

	return merged
}

// SearchSVS runs the queries against both instances and selects one match
// per query: the custom instance's best hit when it clears the score
// threshold, otherwise the base instance's best hit. Queries with no hit
// anywhere map to nil.
func (m *MultiClient) SearchSVS(
	ctx context.Context, queries []string,
) (map[string]*domain.SelectedMatch, error) {
	baseResults, err := m.base.SearchSVS(ctx, queries, true)
	if err != nil {
		return nil, err
	}

	var customResults map[string][]domain.VectorMatch
	if m.custom != nil {
		customResults, err = m.custom.SearchSVS(ctx, queries, true)
		if err != nil {
			return nil, err
		}
	}

	selected := make(map[string]*domain.SelectedMatch, len(queries))
	for _, query := range queries {
		var best *domain.SelectedMatch

		if matches := customResults[query]; len(matches) > 0 && matches[0].Score > m.searchThreshold {
			best = &domain.SelectedMatch{
				DCID:   matches[0].DCID,
				Score:  matches[0].Score,
				Origin: CustomClientID,
			}
		}
		if best == nil {
			if matches := baseResults[query]; len(matches) > 0 {
				best = &domain.SelectedMatch{
					DCID:   matches[0].DCID,
					Score:  matches[0].Score,
					Origin: BaseClientID,
				}
			}
		}
		selected[query] = best
	}
	return selected, nil
}

// FetchIndicators routes one search task to an instance. The base_only and
// custom_only scopes route unconditionally; base_and_custom probes both
// instances and serves the query from the custom one only when its best hit
// clears the score threshold, so a weak custom corpus never shadows the
// base taxonomy. A failed probe falls back to the preferred instance.
func (m *MultiClient) FetchIndicators(
	ctx context.Context, query string, mode domain.SearchMode, placeDCIDs []string, maxResults int,
) (*domain.IndicatorResult, error) {
	client := m.searchClient()
	if m.scope == ScopeBaseAndCustom && m.custom != nil {
		selected, err := m.SearchSVS(ctx, []string{query})
		switch {
		case err != nil:
			logger.Warn("Search probe failed, using %s: %v", client.Name(), err)
		case selected[query] != nil && selected[query].Origin == BaseClientID:
			client = m.base
		}
	}
	logger.Debug("Routing indicator search %q to %s", query, client.Name())
	return client.FetchIndicators(ctx, query, mode, placeDCIDs, maxResults)
}

// ResolvePlaces resolves against the custom instance when present so that
// locally-defined places win, falling back to the base instance otherwise.
func (m *MultiClient) ResolvePlaces(ctx context.Context, names []string) (map[string]string, error) {
	return m.preferredClient().ResolvePlaces(ctx, names)
}

// FetchEntityNames fetches names from the preferred instance.
func (m *MultiClient) FetchEntityNames(ctx context.Context, dcids []string) (map[string]string, error) {
	return m.preferredClient().FetchEntityNames(ctx, dcids)
}

// FetchEntityTypes fetches types from the preferred instance.
func (m *MultiClient) FetchEntityTypes(ctx context.Context, dcids []string) (map[string][]string, error) {
	return m.preferredClient().FetchEntityTypes(ctx, dcids)
}

// SearchTopics returns the topic store of the instance serving taxonomy
// searches.
func (m *MultiClient) SearchTopics() *domain.TopicStore {
	return m.searchClient().Topics()
}

func (m *MultiClient) preferredClient() *Client {
	if m.custom != nil {
		return m.custom
	}
	return m.base
}

func (m *MultiClient) searchClient() *Client {
	switch m.scope {
	case ScopeBaseOnly:
		return m.base
	case ScopeCustomOnly:
		return m.custom
	default:
		return m.preferredClient()
	}
}
