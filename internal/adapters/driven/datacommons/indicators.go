package datacommons

import (
	"context"
	"strings"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// rootTopicDCID anchors the taxonomy. Queries for the default "statistics"
// category resolve straight to it: vector search ranks an unrelated topic
// first for that term.
const rootTopicDCID = "dc/topic/Root"

// FetchIndicators runs one place-scoped search task against the
// topic/variable taxonomy. Lookup mode skips topics entirely; browse mode
// returns matching topics with their member breakdown. When places are
// given, results are filtered to those with data in at least one place and
// annotated with the covered places.
func (c *Client) FetchIndicators(
	ctx context.Context, query string, mode domain.SearchMode, placeDCIDs []string, maxResults int,
) (*domain.IndicatorResult, error) {
	topicDCIDs, variableDCIDs, err := c.searchEntities(ctx, query, mode == domain.SearchModeLookup)
	if err != nil {
		return nil, err
	}

	var topics []domain.SearchTopic
	var variables []domain.SearchVariable
	if len(placeDCIDs) > 0 {
		for _, placeDCID := range placeDCIDs {
			if _, err := c.placeVariables(ctx, placeDCID); err != nil {
				return nil, err
			}
		}
		topics = c.filterTopicsByExistence(topicDCIDs, placeDCIDs)
		variables = c.filterVariablesByExistence(variableDCIDs, placeDCIDs)
	} else {
		for _, dcid := range topicDCIDs {
			topics = append(topics, domain.SearchTopic{DCID: dcid})
		}
		for _, dcid := range variableDCIDs {
			variables = append(variables, domain.SearchVariable{DCID: dcid})
		}
	}

	if len(topics) > maxResults {
		topics = topics[:maxResults]
	}
	if len(variables) > maxResults {
		variables = variables[:maxResults]
	}

	for i := range topics {
		topics[i].MemberTopics, topics[i].MemberVariables = c.topicMembers(topics[i].DCID, placeDCIDs)
	}

	lookups := map[string]string{}
	for _, topic := range topics {
		c.addLookup(lookups, topic.DCID)
		for _, member := range topic.MemberTopics {
			c.addLookup(lookups, member)
		}
		for _, member := range topic.MemberVariables {
			c.addLookup(lookups, member)
		}
	}
	for _, variable := range variables {
		c.addLookup(lookups, variable.DCID)
	}

	return &domain.IndicatorResult{Topics: topics, Variables: variables, Lookups: lookups}, nil
}

// searchEntities vector-searches the query and splits the hits into topics
// and variables.
func (c *Client) searchEntities(
	ctx context.Context, query string, skipTopics bool,
) (topicDCIDs, variableDCIDs []string, err error) {
	if !skipTopics && strings.EqualFold(strings.TrimSpace(query), "statistics") {
		if _, ok := c.topics.TopicsByDCID[rootTopicDCID]; ok {
			return []string{rootTopicDCID}, nil, nil
		}
	}

	results, err := c.SearchSVS(ctx, []string{query}, skipTopics)
	if err != nil {
		return nil, nil, err
	}

	for _, match := range results[query] {
		if match.DCID == "" {
			continue
		}
		if domain.IsTopicDCID(match.DCID) {
			topicDCIDs = append(topicDCIDs, match.DCID)
		} else {
			variableDCIDs = append(variableDCIDs, match.DCID)
		}
	}
	return topicDCIDs, variableDCIDs, nil
}

// filterVariablesByExistence keeps variables with data in at least one of
// the places (OR logic), annotating each with the covered places in the
// caller's place order.
func (c *Client) filterVariablesByExistence(
	variableDCIDs, placeDCIDs []string,
) []domain.SearchVariable {
	var kept []domain.SearchVariable
	for _, variableDCID := range variableDCIDs {
		var placesWithData []string
		for _, placeDCID := range placeDCIDs {
			if cached, ok := c.variableCache.Get(placeDCID); ok {
				if _, exists := cached[variableDCID]; exists {
					placesWithData = append(placesWithData, placeDCID)
				}
			}
		}
		if len(placesWithData) > 0 {
			kept = append(kept, domain.SearchVariable{
				DCID:           variableDCID,
				PlacesWithData: placesWithData,
			})
		}
	}
	return kept
}

// filterTopicsByExistence keeps topics whose descendant variables have data
// in at least one of the places.
func (c *Client) filterTopicsByExistence(topicDCIDs, placeDCIDs []string) []domain.SearchTopic {
	var kept []domain.SearchTopic
	for _, topicDCID := range topicDCIDs {
		placesWithData := c.topicPlacesWithData(topicDCID, placeDCIDs)
		if len(placesWithData) > 0 {
			kept = append(kept, domain.SearchTopic{
				DCID:           topicDCID,
				PlacesWithData: placesWithData,
			})
		}
	}
	return kept
}

// topicPlacesWithData returns the places where any variable in the topic's
// transitive hierarchy has data, in the caller's place order.
func (c *Client) topicPlacesWithData(topicDCID string, placeDCIDs []string) []string {
	descendants := domain.DescendantVariables(topicDCID, c.topics.TopicsByDCID)
	if len(descendants) == 0 {
		return nil
	}

	var placesWithData []string
	for _, placeDCID := range placeDCIDs {
		cached, ok := c.variableCache.Get(placeDCID)
		if !ok {
			continue
		}
		for _, variableDCID := range descendants {
			if _, exists := cached[variableDCID]; exists {
				placesWithData = append(placesWithData, placeDCID)
				break
			}
		}
	}
	return placesWithData
}

// topicMembers returns a topic's direct member topics and variables,
// keeping only members with data when places are given.
func (c *Client) topicMembers(topicDCID string, placeDCIDs []string) (memberTopics, memberVariables []string) {
	topicData, ok := c.topics.TopicsByDCID[topicDCID]
	if !ok {
		return nil, nil
	}

	if len(placeDCIDs) == 0 {
		return topicData.MemberTopics, topicData.Variables
	}

	for _, member := range topicData.MemberTopics {
		if len(c.topicPlacesWithData(member, placeDCIDs)) > 0 {
			memberTopics = append(memberTopics, member)
		}
	}
	for _, kept := range c.filterVariablesByExistence(topicData.Variables, placeDCIDs) {
		memberVariables = append(memberVariables, kept.DCID)
	}
	return memberTopics, memberVariables
}

// addLookup records the topic store's display name for a DCID.
func (c *Client) addLookup(lookups map[string]string, dcid string) {
	if _, ok := lookups[dcid]; ok {
		return
	}
	if name := c.topics.GetName(dcid); name != dcid {
		lookups[dcid] = name
	}
}
