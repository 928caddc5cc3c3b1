package domain

// SearchMode selects what an indicator search returns.
type SearchMode string

const (
	// SearchModeBrowse returns matching topics and variables.
	SearchModeBrowse SearchMode = "browse"

	// SearchModeLookup returns matching variables only.
	SearchModeLookup SearchMode = "lookup"
)

// SearchTask is a single search invocation: one query string plus the place
// DCIDs whose data-existence filters the results.
type SearchTask struct {
	Query      string
	PlaceDCIDs []string
}

// VectorMatch is one ranked hit from the vector-search endpoint.
type VectorMatch struct {
	DCID  string
	Score float64
}

// SelectedMatch is the winner of the cross-backend search merge for one
// query: the best hit plus which backend ("base" or "custom") supplied it.
type SelectedMatch struct {
	DCID   string
	Score  float64
	Origin string
}

// SearchTopic is one topic descriptor in an indicator-search response.
type SearchTopic struct {
	DCID            string   `json:"dcid"`
	MemberTopics    []string `json:"member_topics"`
	MemberVariables []string `json:"member_variables"`
	PlacesWithData  []string `json:"places_with_data,omitempty"`
}

// SearchVariable is one variable descriptor in an indicator-search response.
type SearchVariable struct {
	DCID           string   `json:"dcid"`
	PlacesWithData []string `json:"places_with_data,omitempty"`
}

// IndicatorResult is one backend's answer to a single search task.
// Lookups carries whatever display names the backend's topic store already
// knows; the service layer enriches the rest.
type IndicatorResult struct {
	Topics    []SearchTopic
	Variables []SearchVariable
	Lookups   map[string]string
}

// SearchResponse is the indicator-search tool response. DCIDNameMappings
// covers every DCID appearing anywhere in the response so that callers never
// need a second round-trip just to render names.
type SearchResponse struct {
	Topics           []SearchTopic     `json:"topics"`
	Variables        []SearchVariable  `json:"variables"`
	DCIDNameMappings map[string]string `json:"dcid_name_mappings"`
	Status           string            `json:"status"`
}

// IndicatorQuery is the raw search tool input before validation.
type IndicatorQuery struct {
	Query string

	// Mode is "browse" (default) or "lookup".
	Mode string

	// Places scopes results to places given as an undifferentiated list.
	// BilateralPlaces must name exactly two places and triggers bilateral
	// query rewriting. The two are mutually exclusive.
	Places          []string
	BilateralPlaces []string

	// PerSearchLimit bounds each individual search task's results.
	// Valid range [1, 100]; zero means the default of 10.
	PerSearchLimit int
}
