package datacommons

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// taxonomyStore builds a small store: Health contains Mortality, plus two
// leaf variables of its own.
func taxonomyStore() *domain.TopicStore {
	return &domain.TopicStore{
		TopicsByDCID: map[string]*domain.TopicVariables{
			"dc/topic/Root": {
				TopicDCID:    "dc/topic/Root",
				TopicName:    "Root",
				MemberTopics: []string{"dc/topic/Health"},
				Variables:    []string{"Count_Person"},
			},
			"dc/topic/Health": {
				TopicDCID:    "dc/topic/Health",
				TopicName:    "Health",
				MemberTopics: []string{"dc/topic/Mortality"},
				Variables:    []string{"Count_Person", "Percent_Obesity"},
			},
			"dc/topic/Mortality": {
				TopicDCID: "dc/topic/Mortality",
				TopicName: "Mortality",
				Variables: []string{"Count_Death"},
			},
		},
		AllVariables: map[string]struct{}{
			"Count_Person":    {},
			"Percent_Obesity": {},
			"Count_Death":     {},
		},
		DCIDToName: map[string]string{
			"dc/topic/Root":      "Root",
			"dc/topic/Health":    "Health",
			"dc/topic/Mortality": "Mortality",
			"Count_Person":       "Population",
			"Percent_Obesity":    "Obesity Rate",
		},
	}
}

// newIndicatorTestClient serves vector search from the answers table and the
// observation endpoint from per-place variable lists.
func newIndicatorTestClient(
	t *testing.T,
	answers map[string]vectorQueryResult,
	variablesByPlace map[string][]string,
	vectorCalls *int,
) *Client {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasPrefix(r.URL.Path, "/api/nl/search-vector"):
			if vectorCalls != nil {
				*vectorCalls++
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

		case strings.HasSuffix(r.URL.Path, "/observation"):
			var body observationRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			require.Len(t, body.Entity.DCIDs, 1)
			placeDCID := body.Entity.DCIDs[0]

			response := domain.ObservationAPIResponse{ByVariable: map[string]domain.VariableData{}}
			for _, variableDCID := range variablesByPlace[placeDCID] {
				response.ByVariable[variableDCID] = domain.VariableData{
					ByEntity: map[string]domain.PlaceFacets{placeDCID: {}},
				}
			}
			json.NewEncoder(w).Encode(response)

		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Name:            "test",
		BaseURL:         server.URL,
		SVSearchBaseURL: server.URL,
	}, taxonomyStore())
	require.NoError(t, err)
	return client
}

func TestFetchIndicators_StatisticsQueryResolvesToRootTopic(t *testing.T) {
	var vectorCalls int
	client := newIndicatorTestClient(t, nil, nil, &vectorCalls)

	result, err := client.FetchIndicators(
		context.Background(), " Statistics ", domain.SearchModeBrowse, nil, 10)

	require.NoError(t, err)
	assert.Zero(t, vectorCalls)
	require.Len(t, result.Topics, 1)
	assert.Equal(t, "dc/topic/Root", result.Topics[0].DCID)
	assert.Equal(t, []string{"dc/topic/Health"}, result.Topics[0].MemberTopics)
	assert.Equal(t, []string{"Count_Person"}, result.Topics[0].MemberVariables)
	assert.Equal(t, "Root", result.Lookups["dc/topic/Root"])
	assert.Equal(t, "Population", result.Lookups["Count_Person"])
}

func TestFetchIndicators_SplitsTopicsAndVariables(t *testing.T) {
	client := newIndicatorTestClient(t, map[string]vectorQueryResult{
		"health": {
			SV:          []string{"dc/topic/Health", "Count_Person", "Percent_Obesity"},
			CosineScore: []float64{0.9, 0.8, 0.7},
		},
	}, nil, nil)

	result, err := client.FetchIndicators(
		context.Background(), "health", domain.SearchModeBrowse, nil, 10)

	require.NoError(t, err)
	require.Len(t, result.Topics, 1)
	assert.Equal(t, "dc/topic/Health", result.Topics[0].DCID)
	assert.Equal(t, []string{"dc/topic/Mortality"}, result.Topics[0].MemberTopics)
	assert.Equal(t, []string{"Count_Person", "Percent_Obesity"}, result.Topics[0].MemberVariables)

	require.Len(t, result.Variables, 2)
	assert.Equal(t, "Count_Person", result.Variables[0].DCID)
	assert.Equal(t, "Percent_Obesity", result.Variables[1].DCID)

	assert.Equal(t, "Health", result.Lookups["dc/topic/Health"])
	assert.Equal(t, "Mortality", result.Lookups["dc/topic/Mortality"])
	// Variables without a known display name stay out of the lookups.
	assert.NotContains(t, result.Lookups, "Count_Death")
}

func TestFetchIndicators_TruncatesToMaxResults(t *testing.T) {
	client := newIndicatorTestClient(t, map[string]vectorQueryResult{
		"population": {
			SV:          []string{"Count_Person", "Percent_Obesity", "Count_Death"},
			CosineScore: []float64{0.9, 0.8, 0.7},
		},
	}, nil, nil)

	result, err := client.FetchIndicators(
		context.Background(), "population", domain.SearchModeBrowse, nil, 2)

	require.NoError(t, err)
	require.Len(t, result.Variables, 2)
	assert.Equal(t, "Count_Person", result.Variables[0].DCID)
	assert.Equal(t, "Percent_Obesity", result.Variables[1].DCID)
}

func TestFetchIndicators_ExistenceFiltering(t *testing.T) {
	client := newIndicatorTestClient(t, map[string]vectorQueryResult{
		"health": {
			SV: []string{
				"dc/topic/Health",
				"dc/topic/Unknown",
				"Count_Person",
				"Count_Robots",
			},
			CosineScore: []float64{0.9, 0.85, 0.8, 0.7},
		},
	}, map[string][]string{
		"geoId/06": {"Count_Person", "Count_Death"},
		"geoId/48": {"Percent_Obesity"},
	}, nil)

	result, err := client.FetchIndicators(
		context.Background(), "health", domain.SearchModeBrowse,
		[]string{"geoId/48", "geoId/06"}, 10)

	require.NoError(t, err)

	// The unknown topic has no descendant variables and drops out.
	require.Len(t, result.Topics, 1)
	topic := result.Topics[0]
	assert.Equal(t, "dc/topic/Health", topic.DCID)
	// Covered places keep the caller's order.
	assert.Equal(t, []string{"geoId/48", "geoId/06"}, topic.PlacesWithData)
	// Mortality survives through Count_Death in geoId/06.
	assert.Equal(t, []string{"dc/topic/Mortality"}, topic.MemberTopics)
	assert.Equal(t, []string{"Count_Person", "Percent_Obesity"}, topic.MemberVariables)

	// Count_Robots has no data anywhere and drops out.
	require.Len(t, result.Variables, 1)
	assert.Equal(t, "Count_Person", result.Variables[0].DCID)
	assert.Equal(t, []string{"geoId/06"}, result.Variables[0].PlacesWithData)
}

func TestFetchIndicators_LookupModeSkipsTopics(t *testing.T) {
	skipTopicsSeen := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("skip_topics") == "true" {
			skipTopicsSeen = true
		}
		json.NewEncoder(w).Encode(vectorSearchResponse{
			QueryResults: map[string]vectorQueryResult{
				"statistics": {SV: []string{"Count_Person"}, CosineScore: []float64{0.9}},
			},
		})
	}))
	t.Cleanup(server.Close)

	client, err := NewClient(Config{
		Name:            "test",
		BaseURL:         server.URL,
		SVSearchBaseURL: server.URL,
	}, taxonomyStore())
	require.NoError(t, err)

	// In lookup mode even the "statistics" query goes to vector search.
	result, err := client.FetchIndicators(
		context.Background(), "statistics", domain.SearchModeLookup, nil, 10)

	require.NoError(t, err)
	assert.True(t, skipTopicsSeen)
	assert.Empty(t, result.Topics)
	require.Len(t, result.Variables, 1)
	assert.Equal(t, "Count_Person", result.Variables[0].DCID)
}
