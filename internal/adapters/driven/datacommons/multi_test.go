package datacommons

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

func TestNewMultiClient_Validation(t *testing.T) {
	base := newTestClient(t, http.NotFoundHandler())

	_, err := NewMultiClient(nil, nil, "", 0)
	require.Error(t, err)

	_, err = NewMultiClient(base, nil, ScopeCustomOnly, 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "custom instance")

	multi, err := NewMultiClient(base, nil, "", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultCustomSearchThreshold, multi.searchThreshold)
}

func TestMergeObservationResponses(t *testing.T) {
	base := &domain.ObservationAPIResponse{
		ByVariable: map[string]domain.VariableData{
			"Count_Person": {ByEntity: map[string]domain.PlaceFacets{
				"geoId/06": {OrderedFacets: []domain.FacetObservations{
					{FacetID: "shared", Observations: []domain.Observation{{Date: "2023", Value: 1}}},
					{FacetID: "baseOnly", Observations: []domain.Observation{{Date: "2023", Value: 2}}},
				}},
			}},
		},
		Facets: map[string]domain.FacetMetadata{
			"shared":   {ImportName: "BaseImport"},
			"baseOnly": {ImportName: "BaseOnly"},
		},
	}
	custom := &domain.ObservationAPIResponse{
		ByVariable: map[string]domain.VariableData{
			"Count_Person": {ByEntity: map[string]domain.PlaceFacets{
				"geoId/06": {OrderedFacets: []domain.FacetObservations{
					{FacetID: "customOnly", Observations: []domain.Observation{{Date: "2024", Value: 3}}},
					{FacetID: "shared", Observations: []domain.Observation{{Date: "2024", Value: 4}}},
				}},
			}},
		},
		Facets: map[string]domain.FacetMetadata{
			"customOnly": {ImportName: "CustomImport"},
			"shared":     {ImportName: "CustomShadow"},
		},
	}

	merged := mergeObservationResponses(base, custom)

	// Base wins the duplicated facet's metadata.
	assert.Equal(t, "BaseImport", merged.Facets["shared"].ImportName)
	assert.Equal(t, "CustomImport", merged.Facets["customOnly"].ImportName)

	facets := merged.ByVariable["Count_Person"].ByEntity["geoId/06"].OrderedFacets
	require.Len(t, facets, 3)
	// Custom-unique facets come first, then all base facets; the custom
	// copy of the shared facet is dropped.
	assert.Equal(t, "customOnly", facets[0].FacetID)
	assert.Equal(t, "shared", facets[1].FacetID)
	assert.Equal(t, float64(1), facets[1].Observations[0].Value)
	assert.Equal(t, "baseOnly", facets[2].FacetID)
}

func TestMultiClient_SearchSVS_ThresholdSelection(t *testing.T) {
	base := newSearchStub(t, map[string]vectorQueryResult{
		"strong":   {SV: []string{"BaseStrong"}, CosineScore: []float64{0.95}},
		"weak":     {SV: []string{"BaseWeak"}, CosineScore: []float64{0.6}},
		"boundary": {SV: []string{"BaseBoundary"}, CosineScore: []float64{0.5}},
		"missing":  {},
	})
	custom := newSearchStub(t, map[string]vectorQueryResult{
		"strong":   {SV: []string{"CustomStrong"}, CosineScore: []float64{0.8}},
		"weak":     {SV: []string{"CustomWeak"}, CosineScore: []float64{0.65}},
		"boundary": {SV: []string{"CustomBoundary"}, CosineScore: []float64{0.7}},
		"missing":  {},
	})
	multi, err := NewMultiClient(base, custom, "", 0)
	require.NoError(t, err)

	selected, err := multi.SearchSVS(context.Background(),
		[]string{"strong", "weak", "boundary", "missing"})
	require.NoError(t, err)

	// Custom wins when its score clears the threshold, even when base
	// scores higher.
	require.NotNil(t, selected["strong"])
	assert.Equal(t, "CustomStrong", selected["strong"].DCID)
	assert.Equal(t, CustomClientID, selected["strong"].Origin)

	// Below the threshold the base instance wins.
	require.NotNil(t, selected["weak"])
	assert.Equal(t, "BaseWeak", selected["weak"].DCID)
	assert.Equal(t, BaseClientID, selected["weak"].Origin)

	// Exactly at the threshold is not enough; the comparison is strict.
	require.NotNil(t, selected["boundary"])
	assert.Equal(t, "BaseBoundary", selected["boundary"].DCID)

	assert.Nil(t, selected["missing"])
}

func TestMultiClient_FetchObservations_NoCustomPassthrough(t *testing.T) {
	base := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(domain.ObservationAPIResponse{
			Facets: map[string]domain.FacetMetadata{"source1": {}},
		})
	}))
	multi, err := NewMultiClient(base, nil, "", 0)
	require.NoError(t, err)

	response, err := multi.FetchObservations(context.Background(), domain.ObservationRequest{
		VariableDCID: "Count_Person",
		PlaceDCID:    "geoId/06",
	})

	require.NoError(t, err)
	assert.Contains(t, response.Facets, "source1")
}

func TestMultiClient_ScopeRouting(t *testing.T) {
	base := newTestClient(t, http.NotFoundHandler())
	custom := newTestClient(t, http.NotFoundHandler())

	multi, err := NewMultiClient(base, custom, ScopeBaseOnly, 0)
	require.NoError(t, err)
	assert.Same(t, base, multi.searchClient())

	multi, err = NewMultiClient(base, custom, ScopeCustomOnly, 0)
	require.NoError(t, err)
	assert.Same(t, custom, multi.searchClient())

	multi, err = NewMultiClient(base, custom, ScopeBaseAndCustom, 0)
	require.NoError(t, err)
	assert.Same(t, custom, multi.searchClient())

	multi, err = NewMultiClient(base, nil, ScopeBaseAndCustom, 0)
	require.NoError(t, err)
	assert.Same(t, base, multi.searchClient())
}

func TestMultiClient_FetchIndicators_ProbeRouting(t *testing.T) {
	base := newSearchStub(t, map[string]vectorQueryResult{
		"jobs":  {SV: []string{"BaseJobs"}, CosineScore: []float64{0.9}},
		"crops": {SV: []string{"BaseCrops"}, CosineScore: []float64{0.9}},
	})
	custom := newSearchStub(t, map[string]vectorQueryResult{
		"jobs":  {SV: []string{"CustomJobs"}, CosineScore: []float64{0.5}},
		"crops": {SV: []string{"CustomCrops"}, CosineScore: []float64{0.95}},
	})
	multi, err := NewMultiClient(base, custom, ScopeBaseAndCustom, 0)
	require.NoError(t, err)

	// The custom hit for "jobs" is below the threshold, so the base
	// instance serves the query.
	result, err := multi.FetchIndicators(
		context.Background(), "jobs", domain.SearchModeBrowse, nil, 10)
	require.NoError(t, err)
	require.Len(t, result.Variables, 1)
	assert.Equal(t, "BaseJobs", result.Variables[0].DCID)

	// A confident custom hit keeps the query on the custom instance.
	result, err = multi.FetchIndicators(
		context.Background(), "crops", domain.SearchModeBrowse, nil, 10)
	require.NoError(t, err)
	require.Len(t, result.Variables, 1)
	assert.Equal(t, "CustomCrops", result.Variables[0].DCID)
}

// newSearchStub builds a client whose vector-search endpoint answers from a
// fixed table.
func newSearchStub(t *testing.T, answers map[string]vectorQueryResult) *Client {
	t.Helper()
	return newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.URL.Path, "/api/nl/search-vector") {
			http.NotFound(w, r)
			return
		}
		var body vectorSearchRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		results := map[string]vectorQueryResult{}
		for _, query := range body.Queries {
			if answer, ok := answers[query]; ok {
				results[query] = answer
			}
		}
		json.NewEncoder(w).Encode(vectorSearchResponse{QueryResults: results})
	}))
}
