package services

import (
	"context"
	"sync"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// mockStatClient implements driven.StatClient for testing.
type mockStatClient struct {
	observations    *domain.ObservationAPIResponse
	observationsErr error
	lastRequest     domain.ObservationRequest

	resolved   map[string]string
	resolveErr error

	names    map[string]string
	namesErr error

	types    map[string][]string
	typesErr error

	indicatorResults map[string]*domain.IndicatorResult
	indicatorErrs    map[string]error

	mu          sync.Mutex
	searchCalls []searchCall
}

// searchCall records one FetchIndicators invocation.
type searchCall struct {
	query      string
	mode       domain.SearchMode
	placeDCIDs []string
	maxResults int
}

func (m *mockStatClient) FetchObservations(
	_ context.Context, req domain.ObservationRequest,
) (*domain.ObservationAPIResponse, error) {
	m.lastRequest = req
	if m.observationsErr != nil {
		return nil, m.observationsErr
	}
	if m.observations != nil {
		return m.observations, nil
	}
	return &domain.ObservationAPIResponse{
		ByVariable: map[string]domain.VariableData{},
		Facets:     map[string]domain.FacetMetadata{},
	}, nil
}

func (m *mockStatClient) ResolvePlaces(_ context.Context, names []string) (map[string]string, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	result := map[string]string{}
	for _, name := range names {
		if dcid, ok := m.resolved[name]; ok {
			result[name] = dcid
		}
	}
	return result, nil
}

func (m *mockStatClient) FetchEntityNames(_ context.Context, dcids []string) (map[string]string, error) {
	if m.namesErr != nil {
		return nil, m.namesErr
	}
	result := map[string]string{}
	for _, dcid := range dcids {
		if name, ok := m.names[dcid]; ok {
			result[dcid] = name
		}
	}
	return result, nil
}

func (m *mockStatClient) FetchEntityTypes(_ context.Context, dcids []string) (map[string][]string, error) {
	if m.typesErr != nil {
		return nil, m.typesErr
	}
	result := map[string][]string{}
	for _, dcid := range dcids {
		if types, ok := m.types[dcid]; ok {
			result[dcid] = types
		}
	}
	return result, nil
}

func (m *mockStatClient) FetchIndicators(
	_ context.Context, query string, mode domain.SearchMode, placeDCIDs []string, maxResults int,
) (*domain.IndicatorResult, error) {
	m.mu.Lock()
	m.searchCalls = append(m.searchCalls, searchCall{
		query:      query,
		mode:       mode,
		placeDCIDs: placeDCIDs,
		maxResults: maxResults,
	})
	m.mu.Unlock()
	if err, ok := m.indicatorErrs[query]; ok {
		return nil, err
	}
	if result, ok := m.indicatorResults[query]; ok {
		return result, nil
	}
	return &domain.IndicatorResult{}, nil
}
