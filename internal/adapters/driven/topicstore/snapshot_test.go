package topicstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

func TestSnapshotRoundTrip(t *testing.T) {
	store := domain.NewEmptyTopicStore()
	store.TopicsByDCID["dc/topic/Health"] = &domain.TopicVariables{
		TopicDCID:    "dc/topic/Health",
		TopicName:    "Health",
		Variables:    []string{"Count_Death", "LifeExpectancy"},
		MemberTopics: []string{"dc/topic/Mortality"},
	}
	store.AllVariables["LifeExpectancy"] = struct{}{}
	store.AllVariables["Count_Death"] = struct{}{}
	store.DCIDToName["dc/topic/Health"] = "Health"

	// The parent directory does not exist yet; SaveSnapshot creates it.
	path := filepath.Join(t.TempDir(), "cache", "topics.json")
	require.NoError(t, SaveSnapshot(store, path))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, store.TopicsByDCID, loaded.TopicsByDCID)
	assert.Equal(t, store.AllVariables, loaded.AllVariables)
	assert.Equal(t, store.DCIDToName, loaded.DCIDToName)
}

func TestSaveSnapshot_SortsVariables(t *testing.T) {
	store := domain.NewEmptyTopicStore()
	store.AllVariables["Zebra"] = struct{}{}
	store.AllVariables["Alpha"] = struct{}{}
	store.AllVariables["Middle"] = struct{}{}

	path := filepath.Join(t.TempDir(), "topics.json")
	require.NoError(t, SaveSnapshot(store, path))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap snapshot
	require.NoError(t, json.Unmarshal(raw, &snap))
	assert.Equal(t, []string{"Alpha", "Middle", "Zebra"}, snap.AllVariables)
}

func TestLoadSnapshot_MissingFile(t *testing.T) {
	_, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
}
