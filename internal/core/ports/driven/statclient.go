package driven

import (
	"context"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// StatClient is the statistics-backend capability consumed by the service
// layer. Implementations fetch from one upstream instance or fan out to and
// merge several.
type StatClient interface {
	// FetchObservations fetches per-place, per-facet observation batches
	// with facet metadata for one variable. When the request carries a
	// child place type, the fetch covers every child of that type under
	// the request's place.
	FetchObservations(ctx context.Context, req domain.ObservationRequest) (*domain.ObservationAPIResponse, error)

	// ResolvePlaces maps human place names to DCIDs, keeping the best
	// candidate per name and silently omitting names that resolve to
	// nothing.
	ResolvePlaces(ctx context.Context, names []string) (map[string]string, error)

	// FetchEntityNames maps DCIDs to display names.
	FetchEntityNames(ctx context.Context, dcids []string) (map[string]string, error)

	// FetchEntityTypes maps DCIDs to their typeOf labels.
	FetchEntityTypes(ctx context.Context, dcids []string) (map[string][]string, error)

	// FetchIndicators runs one place-scoped search task against the
	// topic/variable taxonomy.
	FetchIndicators(ctx context.Context, query string, mode domain.SearchMode, placeDCIDs []string, maxResults int) (*domain.IndicatorResult, error)
}

// TopicNodeData is one topic node's payload from a batch node fetch:
// its display name, its relevant members (sub-topics and variables mixed,
// in upstream order), and whatever member names came back alongside.
type TopicNodeData struct {
	Name    string
	Members []string
	Names   map[string]string
}

// TopicNodeFetcher batch-fetches topic node payloads. Used by the live
// topic-store builder while walking the hierarchy breadth-first.
type TopicNodeFetcher interface {
	FetchTopicNodes(ctx context.Context, dcids []string) (map[string]TopicNodeData, error)
}

// apiKeyOverrideKey is the context key carrying a per-request API key.
type apiKeyOverrideKey struct{}

// WithAPIKeyOverride returns a context carrying an API key that overrides
// the configured one for requests issued within this call tree. Set by the
// HTTP transport middleware from the X-API-Key header.
func WithAPIKeyOverride(ctx context.Context, apiKey string) context.Context {
	return context.WithValue(ctx, apiKeyOverrideKey{}, apiKey)
}

// APIKeyOverrideFromContext returns the per-request API key, if any.
func APIKeyOverrideFromContext(ctx context.Context) (string, bool) {
	key, ok := ctx.Value(apiKeyOverrideKey{}).(string)
	return key, ok && key != ""
}
