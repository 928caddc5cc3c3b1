package topicstore

import (
	"context"
	"os"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/ports/driven"
	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

// Build walks a topic hierarchy breadth-first from the given roots and
// returns an immutable TopicStore. When snapshotPath is non-empty a prior
// snapshot is loaded instead, and a fresh build is saved back to it.
// Snapshot failures fall back to the live build; a failed save only warns.
func Build(
	ctx context.Context,
	fetcher driven.TopicNodeFetcher,
	rootDCIDs []string,
	snapshotPath string,
) (*domain.TopicStore, error) {
	if snapshotPath != "" {
		if _, err := os.Stat(snapshotPath); err == nil {
			store, err := LoadSnapshot(snapshotPath)
			if err == nil {
				logger.Info("Loaded topic store snapshot from %s", snapshotPath)
				return store, nil
			}
			logger.Warn("Failed to load topic snapshot %s: %v", snapshotPath, err)
		}
	}

	store, err := build(ctx, fetcher, rootDCIDs)
	if err != nil {
		return nil, err
	}

	if snapshotPath != "" {
		if err := SaveSnapshot(store, snapshotPath); err != nil {
			logger.Warn("Failed to save topic snapshot %s: %v", snapshotPath, err)
		}
	}
	return store, nil
}

func build(ctx context.Context, fetcher driven.TopicNodeFetcher, rootDCIDs []string) (*domain.TopicStore, error) {
	store := domain.NewEmptyTopicStore()
	visited := map[string]struct{}{}
	queue := append([]string(nil), rootDCIDs...)

	for len(queue) > 0 {
		batch := queue
		queue = nil

		nodes, err := fetcher.FetchTopicNodes(ctx, batch)
		if err != nil {
			return nil, err
		}

		for _, topicDCID := range batch {
			if _, seen := visited[topicDCID]; seen {
				continue
			}
			visited[topicDCID] = struct{}{}

			node, ok := nodes[topicDCID]
			if !ok {
				continue
			}

			if node.Name != "" {
				store.DCIDToName[topicDCID] = node.Name
			}
			for memberDCID, memberName := range node.Names {
				store.DCIDToName[memberDCID] = memberName
			}

			var variables, memberTopics []string
			for _, member := range node.Members {
				if domain.IsTopicDCID(member) {
					memberTopics = append(memberTopics, member)
					if _, seen := visited[member]; !seen {
						queue = append(queue, member)
					}
				} else {
					variables = append(variables, member)
				}
			}

			store.TopicsByDCID[topicDCID] = &domain.TopicVariables{
				TopicDCID:    topicDCID,
				TopicName:    node.Name,
				Variables:    variables,
				MemberTopics: memberTopics,
			}
		}
	}

	// Expand every topic's variable list to the full transitive union so
	// that existence checks never need to re-walk the hierarchy. All
	// expansions are computed against the direct lists before any topic is
	// rewritten, keeping the result independent of map iteration order.
	expanded := make(map[string][]string, len(store.TopicsByDCID))
	for topicDCID := range store.TopicsByDCID {
		expanded[topicDCID] = domain.DescendantVariables(topicDCID, store.TopicsByDCID)
	}
	for topicDCID, variables := range expanded {
		store.TopicsByDCID[topicDCID].Variables = variables
		for _, v := range variables {
			store.AllVariables[v] = struct{}{}
		}
	}

	logger.Info("Built topic store: %d topics, %d variables",
		len(store.TopicsByDCID), len(store.AllVariables))
	return store, nil
}
