package topicstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// snapshot is the on-disk form of a built TopicStore.
type snapshot struct {
	TopicsByDCID map[string]*domain.TopicVariables `json:"topics_by_dcid"`
	AllVariables []string                          `json:"all_variables"`
	DCIDToName   map[string]string                 `json:"dcid_to_name"`
}

// SaveSnapshot writes a TopicStore to a JSON snapshot file, creating parent
// directories as needed. Variables are sorted so snapshots diff cleanly.
func SaveSnapshot(store *domain.TopicStore, path string) error {
	variables := make([]string, 0, len(store.AllVariables))
	for v := range store.AllVariables {
		variables = append(variables, v)
	}
	sort.Strings(variables)

	data, err := json.MarshalIndent(snapshot{
		TopicsByDCID: store.TopicsByDCID,
		AllVariables: variables,
		DCIDToName:   store.DCIDToName,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a TopicStore from a JSON snapshot file.
func LoadSnapshot(path string) (*domain.TopicStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot: %w", err)
	}

	store := domain.NewEmptyTopicStore()
	if snap.TopicsByDCID != nil {
		store.TopicsByDCID = snap.TopicsByDCID
	}
	if snap.DCIDToName != nil {
		store.DCIDToName = snap.DCIDToName
	}
	for _, v := range snap.AllVariables {
		store.AllVariables[v] = struct{}{}
	}
	return store, nil
}
