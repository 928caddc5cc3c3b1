package driving

import (
	"context"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// ObservationService resolves an observation query into a normalized,
// place-keyed response with one primary source and alternative-source
// metadata.
type ObservationService interface {
	GetObservations(ctx context.Context, query domain.ObservationQuery) (*domain.ObservationToolResponse, error)
}

// IndicatorService searches the topic/variable taxonomy, optionally scoped
// by places or a bilateral place pair.
type IndicatorService interface {
	SearchIndicators(ctx context.Context, query domain.IndicatorQuery) (*domain.SearchResponse, error)
}
