package mcp

import (
	"context"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// mockObservationService is a mock implementation of
// driving.ObservationService.
type mockObservationService struct {
	response  *domain.ObservationToolResponse
	err       error
	lastQuery domain.ObservationQuery
}

func (m *mockObservationService) GetObservations(
	_ context.Context,
	query domain.ObservationQuery,
) (*domain.ObservationToolResponse, error) {
	m.lastQuery = query
	return m.response, m.err
}

// mockIndicatorService is a mock implementation of driving.IndicatorService.
type mockIndicatorService struct {
	response  *domain.SearchResponse
	err       error
	lastQuery domain.IndicatorQuery
}

func (m *mockIndicatorService) SearchIndicators(
	_ context.Context,
	query domain.IndicatorQuery,
) (*domain.SearchResponse, error) {
	m.lastQuery = query
	return m.response, m.err
}

// testTopicStore builds a small store backing the resource tests.
func testTopicStore() *domain.TopicStore {
	store := domain.NewEmptyTopicStore()
	store.TopicsByDCID["dc/topic/Health"] = &domain.TopicVariables{
		TopicDCID:    "dc/topic/Health",
		TopicName:    "Health",
		Variables:    []string{"Count_Death", "LifeExpectancy"},
		MemberTopics: []string{"dc/topic/Mortality"},
	}
	store.TopicsByDCID["dc/topic/Economy"] = &domain.TopicVariables{
		TopicDCID: "dc/topic/Economy",
		TopicName: "Economy",
		Variables: []string{"Amount_GDP"},
	}
	store.DCIDToName["dc/topic/Health"] = "Health"
	store.DCIDToName["dc/topic/Economy"] = "Economy"
	return store
}

func testPorts() *Ports {
	return &Ports{
		Observations: &mockObservationService{},
		Indicators:   &mockIndicatorService{},
		Topics:       testTopicStore(),
	}
}
