package domain

// ObservationPeriod selects which observations the upstream API returns.
// The zero value requests the full series.
type ObservationPeriod string

const (
	// ObservationPeriodAll requests every available observation.
	ObservationPeriodAll ObservationPeriod = ""

	// ObservationPeriodLatest requests only the most recent observation
	// per facet.
	ObservationPeriodLatest ObservationPeriod = "LATEST"
)

// Observation is a single (date, value) data point. The date is a partial
// ISO string (YYYY, YYYY-MM, or YYYY-MM-DD) and logically denotes the whole
// interval it covers, not a point.
type Observation struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}

// FacetMetadata is the static provenance metadata of one data source.
type FacetMetadata struct {
	ImportName        string `json:"importName,omitempty"`
	MeasurementMethod string `json:"measurementMethod,omitempty"`
	ObservationPeriod string `json:"observationPeriod,omitempty"`
	ProvenanceURL     string `json:"provenanceUrl,omitempty"`
	Unit              string `json:"unit,omitempty"`
}

// FacetObservations is one facet's series for one place, in the order the
// upstream API prefers. ObsCount and the date bounds may be absent upstream;
// consumers recompute them from Observations when zero.
type FacetObservations struct {
	FacetID      string        `json:"facetId"`
	Observations []Observation `json:"observations"`
	ObsCount     int           `json:"obsCount,omitempty"`
	EarliestDate string        `json:"earliestDate,omitempty"`
	LatestDate   string        `json:"latestDate,omitempty"`
}

// PlaceFacets holds all candidate facets for one place, pre-sorted by
// upstream preference.
type PlaceFacets struct {
	OrderedFacets []FacetObservations `json:"orderedFacets"`
}

// VariableData is one variable's full cross-place facet data.
type VariableData struct {
	ByEntity map[string]PlaceFacets `json:"byEntity"`
}

// ObservationAPIResponse is the validated, typed form of an upstream
// observation payload: per-variable, per-place facet series plus the global
// facet metadata keyed by facet ID.
type ObservationAPIResponse struct {
	ByVariable map[string]VariableData  `json:"byVariable"`
	Facets     map[string]FacetMetadata `json:"facets"`
}

// ObservationRequest is the immutable, typed request consumed by the client
// fan-out and the ranking pass. Constructed once per tool call.
type ObservationRequest struct {
	VariableDCID   string
	PlaceDCID      string
	ChildPlaceType string

	// SourceIDs restricts the upstream fetch to specific facets. It also
	// acts as the source override during primary-source selection: when a
	// single ID is given and it appears in the candidate set, it wins
	// unconditionally.
	SourceIDs []string

	// Period is the upstream date selector. When DateFilter is set the
	// period is forced to ObservationPeriodAll and filtering happens
	// client-side.
	Period     ObservationPeriod
	DateFilter *DateRange
}

// SourceOverride returns the forced source ID, if any.
func (r ObservationRequest) SourceOverride() string {
	if len(r.SourceIDs) == 1 {
		return r.SourceIDs[0]
	}
	return ""
}

// ResolvedPlace is a place DCID with its display metadata.
type ResolvedPlace struct {
	DCID      string `json:"dcid"`
	Name      string `json:"name"`
	PlaceType string `json:"place_type,omitempty"`
}

// PlaceObservation is one place's series in the tool response. SourceID is
// the primary source when it has data for this place; places the primary
// does not cover keep an empty series rather than being dropped.
type PlaceObservation struct {
	Place        ResolvedPlace `json:"place"`
	SourceID     string        `json:"source_id,omitempty"`
	Observations []Observation `json:"observations"`
}

// Source is one data source's provenance metadata in the tool response.
type Source struct {
	SourceID          string `json:"source_id"`
	ImportName        string `json:"import_name,omitempty"`
	MeasurementMethod string `json:"measurement_method,omitempty"`
	ObservationPeriod string `json:"observation_period,omitempty"`
	ProvenanceURL     string `json:"provenance_url,omitempty"`
	Unit              string `json:"unit,omitempty"`
}

// AlternativeSource is a non-primary source that had qualifying data,
// annotated with the number of places it covered. The count is nil when the
// response covers exactly one place, where it would always be 1.
type AlternativeSource struct {
	Source
	NumAvailablePlaces *int `json:"num_available_places,omitempty"`
}

// ObservationToolResponse is the normalized, place-keyed tool response:
// one series per place from the single primary source, plus metadata for
// every alternative source. Finalized by the assembler and never mutated
// by callers afterwards.
type ObservationToolResponse struct {
	VariableDCID string `json:"variable_dcid"`
	VariableName string `json:"variable_name,omitempty"`

	// ResolvedParentPlace is set for hierarchy (child-place) queries.
	ResolvedParentPlace *ResolvedPlace `json:"resolved_parent_place,omitempty"`
	ChildPlaceType      string         `json:"child_place_type,omitempty"`

	ObservationsByPlace []PlaceObservation  `json:"observations_by_place"`
	PrimarySource       *Source             `json:"primary_source,omitempty"`
	AlternativeSources  []AlternativeSource `json:"alternative_sources,omitempty"`
}

// ObservationQuery is the raw tool input before validation and place
// resolution.
type ObservationQuery struct {
	VariableDCID   string
	PlaceDCID      string
	PlaceName      string
	ChildPlaceType string
	SourceOverride string

	// Date is "latest" (default), "all", or an exact partial date string.
	Date      string
	StartDate string
	EndDate   string
}
