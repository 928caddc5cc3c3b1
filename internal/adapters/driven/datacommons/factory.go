package datacommons

import (
	"context"
	"fmt"
	"strings"

	"github.com/dcgraph-labs/dcgraph-cli/internal/adapters/driven/config/file"
	"github.com/dcgraph-labs/dcgraph-cli/internal/adapters/driven/topicstore"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

// MediumBaseIndex is the base-instance search index used alongside a custom
// instance, where the full index's broader recall mostly surfaces variables
// the custom corpus overrides anyway.
const MediumBaseIndex = "medium_ft"

// BuildClients wires the configured Data Commons instances into a
// MultiClient: the base public instance, and for custom deployments a
// second client whose topic store is built live from the configured root
// topics (or loaded from its snapshot).
func BuildClients(ctx context.Context, cfg *file.Config) (*MultiClient, error) {
	custom := cfg.DCType == file.DCTypeCustom

	baseIndex := cfg.BaseIndex
	if baseIndex == "" {
		baseIndex = DefaultBaseIndex
		if custom {
			baseIndex = MediumBaseIndex
		}
	}

	baseStore := domain.NewEmptyTopicStore()
	if !custom && cfg.TopicCachePath != "" {
		store, err := topicstore.ReadNodeCache(cfg.TopicCachePath)
		if err != nil {
			return nil, fmt.Errorf("loading topic cache: %w", err)
		}
		baseStore = store
	}

	baseClient, err := NewClient(Config{
		Name:            "Data Commons",
		APIKey:          cfg.APIKey,
		SVSearchBaseURL: cfg.SVSearchBaseURL,
		Index:           baseIndex,
	}, baseStore)
	if err != nil {
		return nil, fmt.Errorf("creating base client: %w", err)
	}

	var customClient *Client
	if custom {
		customIndex := cfg.CustomIndex
		if customIndex == "" {
			customIndex = DefaultCustomIndex
		}

		// The topic store is built through a throwaway client: the real
		// client is immutable once constructed.
		fetchClient, err := NewClient(Config{
			Name:    "Custom Data Commons",
			BaseURL: cfg.BaseURL,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("creating custom fetch client: %w", err)
		}

		customStore := domain.NewEmptyTopicStore()
		if len(cfg.RootTopicDCIDs) > 0 {
			customStore, err = topicstore.Build(ctx, fetchClient, cfg.RootTopicDCIDs, cfg.TopicCachePath)
			if err != nil {
				return nil, fmt.Errorf("building custom topic store: %w", err)
			}
		}

		customClient, err = NewClient(Config{
			Name:            "Custom Data Commons",
			BaseURL:         cfg.BaseURL,
			SVSearchBaseURL: cfg.BaseURL,
			Index:           customIndex,
		}, customStore)
		if err != nil {
			return nil, fmt.Errorf("creating custom client: %w", err)
		}
		logger.Info("Custom instance configured at %s", cfg.BaseURL)
	}

	return NewMultiClient(baseClient, customClient, SearchScope(cfg.SearchScope), cfg.CustomSearchThreshold)
}

// ValidateAPIKey checks the configured key's shape and then issues one cheap
// lookup against the base instance to fail fast on a bad key instead of at
// the first tool call. Keys are issued at https://apikeys.datacommons.org.
func ValidateAPIKey(ctx context.Context, clients *MultiClient) error {
	key := clients.base.apiKey
	if key == "" {
		return fmt.Errorf("API key is empty")
	}
	if strings.ContainsAny(key, " \t\n") {
		return fmt.Errorf("API key contains whitespace")
	}
	if _, err := clients.base.FetchEntityNames(ctx, []string{"country/USA"}); err != nil {
		return fmt.Errorf("API key validation failed: %w", err)
	}
	return nil
}
