package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/ports/driven"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/ports/driving"
	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

const (
	defaultPerSearchLimit = 10
	maxPerSearchLimit     = 100
)

var _ driving.IndicatorService = (*IndicatorService)(nil)

// IndicatorService validates search inputs, expands bilateral place pairs
// into multiple search tasks, fans the tasks out, and merges the results
// into a single deduplicated response.
type IndicatorService struct {
	client driven.StatClient
}

// NewIndicatorService creates a new indicator search service.
func NewIndicatorService(client driven.StatClient) *IndicatorService {
	return &IndicatorService{client: client}
}

// SearchIndicators is the main entry point for the search_indicators tool.
func (s *IndicatorService) SearchIndicators(
	ctx context.Context, query domain.IndicatorQuery,
) (*domain.SearchResponse, error) {
	logger.Section("Indicator Search")
	logger.Debug("Query: %q, mode: %q, places: %v, bilateral: %v",
		query.Query, query.Mode, query.Places, query.BilateralPlaces)

	mode, limit, err := validateSearchQuery(query)
	if err != nil {
		return nil, err
	}

	placeNames := query.Places
	if len(query.BilateralPlaces) > 0 {
		placeNames = query.BilateralPlaces
	}
	placeDCIDs, nameByDCID, err := s.resolvePlaces(ctx, placeNames)
	if err != nil {
		return nil, err
	}

	tasks := buildSearchTasks(query.Query, placeNames, placeDCIDs, len(query.BilateralPlaces) == 2)
	logger.Debug("Running %d search task(s)", len(tasks))

	results := make([]*domain.IndicatorResult, len(tasks))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		group.Go(func() error {
			result, err := s.client.FetchIndicators(groupCtx, task.Query, mode, task.PlaceDCIDs, limit)
			if err != nil {
				// One failed task never sinks the others.
				logger.Warn("Search task %q failed: %v", task.Query, err)
				result = &domain.IndicatorResult{}
			}
			results[i] = result
			return nil
		})
	}
	_ = group.Wait() // goroutines never return errors; failed tasks degrade to empty

	merged := mergeIndicatorResults(results)
	mappings := s.buildNameMappings(ctx, merged, placeDCIDs, nameByDCID)

	return &domain.SearchResponse{
		Topics:           merged.Topics,
		Variables:        merged.Variables,
		DCIDNameMappings: mappings,
		Status:           "SUCCESS",
	}, nil
}

func validateSearchQuery(query domain.IndicatorQuery) (domain.SearchMode, int, error) {
	if query.Query == "" {
		return "", 0, fmt.Errorf("%w: 'query' must be specified", domain.ErrInvalidInput)
	}

	mode := domain.SearchModeBrowse
	switch query.Mode {
	case "", string(domain.SearchModeBrowse):
	case string(domain.SearchModeLookup):
		mode = domain.SearchModeLookup
	default:
		return "", 0, fmt.Errorf(
			"%w: mode must be either 'browse' or 'lookup'", domain.ErrInvalidInput)
	}

	limit := query.PerSearchLimit
	if limit == 0 {
		limit = defaultPerSearchLimit
	}
	if limit < 1 || limit > maxPerSearchLimit {
		return "", 0, fmt.Errorf(
			"%w: per_search_limit must be between 1 and %d", domain.ErrInvalidInput, maxPerSearchLimit)
	}

	if len(query.Places) > 0 && len(query.BilateralPlaces) > 0 {
		return "", 0, fmt.Errorf(
			"%w: cannot specify both 'places' and 'bilateral_places'", domain.ErrInvalidInput)
	}
	if len(query.BilateralPlaces) > 0 && len(query.BilateralPlaces) != 2 {
		return "", 0, fmt.Errorf(
			"%w: bilateral_places must contain exactly 2 place names", domain.ErrInvalidInput)
	}

	return mode, limit, nil
}

// resolvePlaces maps place names to DCIDs, preserving input order. Names
// that resolve to nothing are an error: searching with a silently dropped
// place constraint would return misleading results.
func (s *IndicatorService) resolvePlaces(
	ctx context.Context, names []string,
) ([]string, map[string]string, error) {
	if len(names) == 0 {
		return nil, nil, nil
	}

	resolved, err := s.client.ResolvePlaces(ctx, names)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving places: %w", err)
	}

	dcids := make([]string, 0, len(names))
	nameByDCID := make(map[string]string, len(names))
	for _, name := range names {
		dcid := resolved[name]
		if dcid == "" {
			return nil, nil, fmt.Errorf("%w: no place found matching %q", domain.ErrDataLookup, name)
		}
		dcids = append(dcids, dcid)
		nameByDCID[dcid] = name
	}
	return dcids, nameByDCID, nil
}

// buildSearchTasks expands one user query into the concrete search tasks.
// Plain place lists produce a single task scoped to the union of places.
// A bilateral pair additionally rewrites the query against each place name
// while constraining existence to the other place, so that directional
// indicators (e.g. "exports from X to Y") surface from both phrasings.
func buildSearchTasks(
	query string, placeNames, placeDCIDs []string, bilateral bool,
) []domain.SearchTask {
	tasks := []domain.SearchTask{{Query: query, PlaceDCIDs: placeDCIDs}}
	if bilateral && len(placeNames) == 2 && len(placeDCIDs) == 2 {
		tasks = append(tasks,
			domain.SearchTask{
				Query:      query + " " + placeNames[0],
				PlaceDCIDs: []string{placeDCIDs[1]},
			},
			domain.SearchTask{
				Query:      query + " " + placeNames[1],
				PlaceDCIDs: []string{placeDCIDs[0]},
			},
		)
	}
	return tasks
}

// mergeIndicatorResults combines per-task results in task order. The first
// occurrence of a DCID wins its descriptor; later occurrences only
// contribute additional places-with-data.
func mergeIndicatorResults(results []*domain.IndicatorResult) *domain.IndicatorResult {
	merged := &domain.IndicatorResult{
		Topics:    []domain.SearchTopic{},
		Variables: []domain.SearchVariable{},
		Lookups:   map[string]string{},
	}
	topicIndex := map[string]int{}
	variableIndex := map[string]int{}

	for _, result := range results {
		for _, topic := range result.Topics {
			if i, seen := topicIndex[topic.DCID]; seen {
				merged.Topics[i].PlacesWithData = unionStrings(
					merged.Topics[i].PlacesWithData, topic.PlacesWithData)
				continue
			}
			topicIndex[topic.DCID] = len(merged.Topics)
			merged.Topics = append(merged.Topics, topic)
		}
		for _, variable := range result.Variables {
			if i, seen := variableIndex[variable.DCID]; seen {
				merged.Variables[i].PlacesWithData = unionStrings(
					merged.Variables[i].PlacesWithData, variable.PlacesWithData)
				continue
			}
			variableIndex[variable.DCID] = len(merged.Variables)
			merged.Variables = append(merged.Variables, variable)
		}
		for dcid, name := range result.Lookups {
			if _, seen := merged.Lookups[dcid]; !seen {
				merged.Lookups[dcid] = name
			}
		}
	}
	return merged
}

// unionStrings appends the elements of extra not already present in base,
// preserving first-seen order.
func unionStrings(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	for _, v := range extra {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			base = append(base, v)
		}
	}
	return base
}

// buildNameMappings returns a display name for every DCID in the response.
// Fetched names win, then names the backends already knew, then the place
// names the caller supplied; anything still unknown falls back to its DCID.
func (s *IndicatorService) buildNameMappings(
	ctx context.Context,
	merged *domain.IndicatorResult,
	placeDCIDs []string,
	placeNames map[string]string,
) map[string]string {
	dcidSet := map[string]struct{}{}
	for _, topic := range merged.Topics {
		dcidSet[topic.DCID] = struct{}{}
		for _, member := range topic.MemberTopics {
			dcidSet[member] = struct{}{}
		}
		for _, member := range topic.MemberVariables {
			dcidSet[member] = struct{}{}
		}
	}
	for _, variable := range merged.Variables {
		dcidSet[variable.DCID] = struct{}{}
	}
	for _, dcid := range placeDCIDs {
		dcidSet[dcid] = struct{}{}
	}

	dcids := make([]string, 0, len(dcidSet))
	for dcid := range dcidSet {
		dcids = append(dcids, dcid)
	}
	sort.Strings(dcids)

	fetched := map[string]string{}
	if len(dcids) > 0 {
		names, err := s.client.FetchEntityNames(ctx, dcids)
		if err != nil {
			logger.Warn("Name lookup failed, falling back to DCIDs: %v", err)
		} else {
			fetched = names
		}
	}

	mappings := make(map[string]string, len(dcids))
	for _, dcid := range dcids {
		switch {
		case fetched[dcid] != "":
			mappings[dcid] = fetched[dcid]
		case merged.Lookups[dcid] != "":
			mappings[dcid] = merged.Lookups[dcid]
		case placeNames[dcid] != "":
			mappings[dcid] = placeNames[dcid]
		default:
			mappings[dcid] = dcid
		}
	}
	return mappings
}
