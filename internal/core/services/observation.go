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

// Ensure ObservationService implements the interface.
var _ driving.ObservationService = (*ObservationService)(nil)

// ObservationService validates tool inputs, resolves names to DCIDs,
// fetches raw facet data, and reshapes it into the place-keyed tool
// response with a single deterministic primary source.
type ObservationService struct {
	client driven.StatClient
}

// NewObservationService creates a new observation service.
func NewObservationService(client driven.StatClient) *ObservationService {
	return &ObservationService{client: client}
}

// GetObservations is the main entry point for the get_observations tool.
func (s *ObservationService) GetObservations(
	ctx context.Context, query domain.ObservationQuery,
) (*domain.ObservationToolResponse, error) {
	logger.Section("Observation Request")
	logger.Debug("Variable: %q, place: %q/%q, child type: %q",
		query.VariableDCID, query.PlaceDCID, query.PlaceName, query.ChildPlaceType)

	request, err := s.buildRequest(ctx, query)
	if err != nil {
		return nil, err
	}

	apiResponse, err := s.client.FetchObservations(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("fetching observations: %w", err)
	}

	metadata := s.fetchEntityMetadata(ctx, request, apiResponse)

	response := &domain.ObservationToolResponse{
		VariableDCID:        request.VariableDCID,
		VariableName:        metadata.name(request.VariableDCID),
		ChildPlaceType:      request.ChildPlaceType,
		ObservationsByPlace: []domain.PlaceObservation{},
	}
	if request.ChildPlaceType != "" {
		response.ResolvedParentPlace = &domain.ResolvedPlace{
			DCID:      request.PlaceDCID,
			Name:      metadata.name(request.PlaceDCID),
			PlaceType: metadata.firstType(request.PlaceDCID),
		}
	}

	variableData, ok := apiResponse.ByVariable[request.VariableDCID]
	if !ok {
		logger.Debug("No data returned for variable %q", request.VariableDCID)
		return response, nil
	}

	ranking, err := selectPrimarySource(variableData, request)
	if err != nil {
		return nil, err
	}
	logger.Debug("Primary source: %q across %d candidate sources",
		ranking.primaryID, len(ranking.stats))

	s.assemblePlaceData(response, apiResponse, variableData, request, metadata, ranking)
	return response, nil
}

// buildRequest validates the query and resolves the place name to a DCID.
func (s *ObservationService) buildRequest(
	ctx context.Context, query domain.ObservationQuery,
) (domain.ObservationRequest, error) {
	var zero domain.ObservationRequest

	if query.VariableDCID == "" {
		return zero, fmt.Errorf("%w: 'variable_dcid' must be specified", domain.ErrInvalidInput)
	}
	if query.PlaceDCID == "" && query.PlaceName == "" {
		return zero, fmt.Errorf("%w: specify either 'place_name' or 'place_dcid'", domain.ErrInvalidInput)
	}
	if query.Date == "" && (query.StartDate == "") != (query.EndDate == "") {
		return zero, fmt.Errorf(
			"%w: both 'start_date' and 'end_date' are required for a date range", domain.ErrInvalidInput)
	}

	placeDCID := query.PlaceDCID
	if placeDCID == "" {
		results, err := s.client.ResolvePlaces(ctx, []string{query.PlaceName})
		if err != nil {
			return zero, fmt.Errorf("resolving place %q: %w", query.PlaceName, err)
		}
		placeDCID = results[query.PlaceName]
		if placeDCID == "" {
			return zero, fmt.Errorf("%w: no place found matching %q", domain.ErrDataLookup, query.PlaceName)
		}
		logger.Debug("Resolved place %q to %q", query.PlaceName, placeDCID)
	}

	period := domain.ObservationPeriodLatest
	var dateFilter *domain.DateRange
	switch {
	case query.Date == "" || query.Date == "latest":
		if query.StartDate != "" && query.EndDate != "" {
			filter, err := domain.NewDateRange(query.StartDate, query.EndDate)
			if err != nil {
				return zero, err
			}
			dateFilter = &filter
			period = domain.ObservationPeriodAll
		}
	case query.Date == "all":
		period = domain.ObservationPeriodAll
	default:
		// An exact partial date; validate the format up front.
		if _, _, err := domain.ParseInterval(query.Date); err != nil {
			return zero, err
		}
		period = domain.ObservationPeriod(query.Date)
	}

	var sourceIDs []string
	if query.SourceOverride != "" {
		sourceIDs = []string{query.SourceOverride}
	}

	return domain.ObservationRequest{
		VariableDCID:   query.VariableDCID,
		PlaceDCID:      placeDCID,
		ChildPlaceType: query.ChildPlaceType,
		SourceIDs:      sourceIDs,
		Period:         period,
		DateFilter:     dateFilter,
	}, nil
}

// entityMetadata holds display names and type labels for every entity in a
// response.
type entityMetadata struct {
	names map[string]string
	types map[string][]string
}

func (m entityMetadata) name(dcid string) string { return m.names[dcid] }

func (m entityMetadata) firstType(dcid string) string {
	if types := m.types[dcid]; len(types) > 0 {
		return types[0]
	}
	return ""
}

// fetchEntityMetadata fetches names and types for all places in the
// response (plus the parent place and the variable itself) concurrently.
// Lookup failures degrade to DCIDs instead of failing the request.
func (s *ObservationService) fetchEntityMetadata(
	ctx context.Context,
	request domain.ObservationRequest,
	apiResponse *domain.ObservationAPIResponse,
) entityMetadata {
	dcidSet := map[string]struct{}{request.VariableDCID: {}}
	if variableData, ok := apiResponse.ByVariable[request.VariableDCID]; ok {
		for placeDCID := range variableData.ByEntity {
			dcidSet[placeDCID] = struct{}{}
		}
	}
	if request.ChildPlaceType != "" {
		dcidSet[request.PlaceDCID] = struct{}{}
	}

	dcids := make([]string, 0, len(dcidSet))
	for dcid := range dcidSet {
		dcids = append(dcids, dcid)
	}
	sort.Strings(dcids)

	metadata := entityMetadata{names: map[string]string{}, types: map[string][]string{}}
	if len(dcids) == 0 {
		return metadata
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		names, err := s.client.FetchEntityNames(groupCtx, dcids)
		if err != nil {
			logger.Warn("Name lookup failed, falling back to DCIDs: %v", err)
			return nil
		}
		metadata.names = names
		return nil
	})
	group.Go(func() error {
		types, err := s.client.FetchEntityTypes(groupCtx, dcids)
		if err != nil {
			logger.Warn("Type lookup failed: %v", err)
			return nil
		}
		metadata.types = types
		return nil
	})
	_ = group.Wait() // goroutines never return errors; failures degrade

	return metadata
}

// sourceStats accumulates one source's ranking keys across all places.
type sourceStats struct {
	sourceID   string
	placeCount int
	dateCount  int
	latestDate string // normalized interval end, so mixed granularities compare correctly
}

// betterThan is the primary-source ranking rule: broadest place coverage,
// then most total data points, then most recent data, then
// lexicographically-largest source ID as the final deterministic tie-break.
func (a sourceStats) betterThan(b sourceStats) bool {
	if a.placeCount != b.placeCount {
		return a.placeCount > b.placeCount
	}
	if a.dateCount != b.dateCount {
		return a.dateCount > b.dateCount
	}
	if a.latestDate != b.latestDate {
		return a.latestDate > b.latestDate
	}
	return a.sourceID > b.sourceID
}

// placeSeries is one source's filtered observations for one place.
type placeSeries map[string][]domain.Observation // source ID -> observations

// sourceRanking is the outcome of the primary-source selection pass.
type sourceRanking struct {
	primaryID     string
	stats         map[string]*sourceStats
	seriesByPlace map[string]placeSeries
}

// selectPrimarySource applies the date filter across every (place, facet)
// pair, accumulates per-source coverage, and picks the single primary
// source for the whole result set. Facets with zero filtered observations
// never rank and never become primary; when nothing anywhere has data the
// returned primary ID is empty and the caller emits empty per-place series.
func selectPrimarySource(
	variableData domain.VariableData, request domain.ObservationRequest,
) (sourceRanking, error) {
	stats := make(map[string]*sourceStats)
	filteredByPlace := make(map[string]placeSeries, len(variableData.ByEntity))

	for placeDCID, placeFacets := range variableData.ByEntity {
		series := placeSeries{}
		for _, facet := range placeFacets.OrderedFacets {
			filtered, err := domain.FilterByDate(facet.Observations, request.DateFilter)
			if err != nil {
				return sourceRanking{}, fmt.Errorf(
					"filtering facet %q observations: %w", facet.FacetID, err)
			}
			if len(filtered) == 0 {
				continue
			}
			if _, seen := series[facet.FacetID]; seen {
				continue // duplicate facet IDs for a place never double-count
			}
			series[facet.FacetID] = filtered

			st, ok := stats[facet.FacetID]
			if !ok {
				st = &sourceStats{sourceID: facet.FacetID}
				stats[facet.FacetID] = st
			}
			st.placeCount++
			st.dateCount += len(filtered)
			for _, obs := range filtered {
				_, end, err := domain.ParseInterval(obs.Date)
				if err != nil {
					return sourceRanking{}, err
				}
				if end > st.latestDate {
					st.latestDate = end
				}
			}
		}
		filteredByPlace[placeDCID] = series
	}

	primaryID := ""
	if override := request.SourceOverride(); override != "" {
		if _, ok := stats[override]; ok {
			primaryID = override
		}
	}
	if primaryID == "" {
		// The tie-break chain is total, so iteration order cannot change
		// the winner.
		for _, st := range stats {
			if primaryID == "" || st.betterThan(*stats[primaryID]) {
				primaryID = st.sourceID
			}
		}
	}

	return sourceRanking{
		primaryID:     primaryID,
		stats:         stats,
		seriesByPlace: filteredByPlace,
	}, nil
}

// assemblePlaceData builds the per-place records and the source summaries.
// Every place in the original result set appears in the output, with an
// empty series when the primary source has no filtered data for it.
func (s *ObservationService) assemblePlaceData(
	response *domain.ObservationToolResponse,
	apiResponse *domain.ObservationAPIResponse,
	variableData domain.VariableData,
	request domain.ObservationRequest,
	metadata entityMetadata,
	ranking sourceRanking,
) {
	placeDCIDs := make([]string, 0, len(variableData.ByEntity))
	for placeDCID := range variableData.ByEntity {
		placeDCIDs = append(placeDCIDs, placeDCID)
	}
	sort.Strings(placeDCIDs)

	for _, placeDCID := range placeDCIDs {
		place := domain.ResolvedPlace{
			DCID: placeDCID,
			Name: metadata.name(placeDCID),
		}
		if request.ChildPlaceType == "" {
			place.PlaceType = metadata.firstType(placeDCID)
		}

		record := domain.PlaceObservation{Place: place, Observations: []domain.Observation{}}
		if ranking.primaryID != "" {
			if series := ranking.seriesByPlace[placeDCID][ranking.primaryID]; len(series) > 0 {
				record.SourceID = ranking.primaryID
				record.Observations = series
			}
		}
		response.ObservationsByPlace = append(response.ObservationsByPlace, record)
	}

	if ranking.primaryID == "" {
		return
	}

	primary := newSource(ranking.primaryID, apiResponse.Facets[ranking.primaryID])
	response.PrimarySource = &primary

	singlePlace := len(variableData.ByEntity) == 1
	alternatives := make([]sourceStats, 0, len(ranking.stats))
	for sourceID, st := range ranking.stats {
		if sourceID != ranking.primaryID {
			alternatives = append(alternatives, *st)
		}
	}
	sort.Slice(alternatives, func(i, j int) bool {
		return alternatives[i].betterThan(alternatives[j])
	})

	for _, st := range alternatives {
		alt := domain.AlternativeSource{Source: newSource(st.sourceID, apiResponse.Facets[st.sourceID])}
		if !singlePlace {
			count := st.placeCount
			alt.NumAvailablePlaces = &count
		}
		response.AlternativeSources = append(response.AlternativeSources, alt)
	}
}

// newSource converts facet metadata into the tool-facing source descriptor.
func newSource(sourceID string, metadata domain.FacetMetadata) domain.Source {
	return domain.Source{
		SourceID:          sourceID,
		ImportName:        metadata.ImportName,
		MeasurementMethod: metadata.MeasurementMethod,
		ObservationPeriod: metadata.ObservationPeriod,
		ProvenanceURL:     metadata.ProvenanceURL,
		Unit:              metadata.Unit,
	}
}
