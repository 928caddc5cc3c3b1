package topicstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
	"github.com/dcgraph-labs/dcgraph-cli/internal/core/ports/driven"
)

type stubFetcher struct {
	nodes   map[string]driven.TopicNodeData
	err     error
	batches [][]string
}

func (f *stubFetcher) FetchTopicNodes(_ context.Context, dcids []string) (map[string]driven.TopicNodeData, error) {
	f.batches = append(f.batches, append([]string(nil), dcids...))
	if f.err != nil {
		return nil, f.err
	}
	result := map[string]driven.TopicNodeData{}
	for _, dcid := range dcids {
		if node, ok := f.nodes[dcid]; ok {
			result[dcid] = node
		}
	}
	return result, nil
}

func TestBuild_WalksHierarchy(t *testing.T) {
	fetcher := &stubFetcher{nodes: map[string]driven.TopicNodeData{
		"dc/topic/Root": {
			Name:    "Root",
			Members: []string{"dc/topic/Health", "Count_Person"},
			Names: map[string]string{
				"dc/topic/Health": "Health",
				"Count_Person":    "Population",
			},
		},
		"dc/topic/Health": {
			Name:    "Health",
			Members: []string{"Count_Death"},
		},
	}}

	store, err := Build(context.Background(), fetcher, []string{"dc/topic/Root"}, "")
	require.NoError(t, err)

	// One batch per hierarchy level.
	require.Len(t, fetcher.batches, 2)
	assert.Equal(t, []string{"dc/topic/Root"}, fetcher.batches[0])
	assert.Equal(t, []string{"dc/topic/Health"}, fetcher.batches[1])

	root, ok := store.TopicsByDCID["dc/topic/Root"]
	require.True(t, ok)
	// Variables hold the full transitive union, own variables first.
	assert.Equal(t, []string{"Count_Person", "Count_Death"}, root.Variables)
	assert.Equal(t, []string{"dc/topic/Health"}, root.MemberTopics)

	health, ok := store.TopicsByDCID["dc/topic/Health"]
	require.True(t, ok)
	assert.Equal(t, []string{"Count_Death"}, health.Variables)

	assert.True(t, store.HasVariable("Count_Person"))
	assert.True(t, store.HasVariable("Count_Death"))
	assert.Equal(t, "Population", store.GetName("Count_Person"))
	assert.Equal(t, "Health", store.GetName("dc/topic/Health"))
}

func TestBuild_CycleSafe(t *testing.T) {
	fetcher := &stubFetcher{nodes: map[string]driven.TopicNodeData{
		"dc/topic/A": {Name: "A", Members: []string{"dc/topic/B", "VarA"}},
		"dc/topic/B": {Name: "B", Members: []string{"dc/topic/A", "VarB"}},
	}}

	store, err := Build(context.Background(), fetcher, []string{"dc/topic/A"}, "")
	require.NoError(t, err)

	assert.Equal(t, []string{"VarA", "VarB"}, store.TopicsByDCID["dc/topic/A"].Variables)
	assert.Equal(t, []string{"VarB", "VarA"}, store.TopicsByDCID["dc/topic/B"].Variables)
}

func TestBuild_LoadsExistingSnapshot(t *testing.T) {
	saved := domain.NewEmptyTopicStore()
	saved.TopicsByDCID["dc/topic/Health"] = &domain.TopicVariables{
		TopicDCID: "dc/topic/Health",
		TopicName: "Health",
		Variables: []string{"Count_Death"},
	}
	saved.AllVariables["Count_Death"] = struct{}{}
	path := filepath.Join(t.TempDir(), "topics.json")
	require.NoError(t, SaveSnapshot(saved, path))

	fetcher := &stubFetcher{err: errors.New("should not be reached")}
	store, err := Build(context.Background(), fetcher, []string{"dc/topic/Root"}, path)

	require.NoError(t, err)
	assert.Empty(t, fetcher.batches)
	assert.Equal(t, saved.TopicsByDCID, store.TopicsByDCID)
}

func TestBuild_SavesSnapshot(t *testing.T) {
	fetcher := &stubFetcher{nodes: map[string]driven.TopicNodeData{
		"dc/topic/Root": {Name: "Root", Members: []string{"Count_Person"}},
	}}
	path := filepath.Join(t.TempDir(), "topics.json")

	built, err := Build(context.Background(), fetcher, []string{"dc/topic/Root"}, path)
	require.NoError(t, err)

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, built.TopicsByDCID, loaded.TopicsByDCID)
	assert.Equal(t, built.AllVariables, loaded.AllVariables)
}

func TestBuild_FetchErrorPropagates(t *testing.T) {
	fetcher := &stubFetcher{err: errors.New("upstream down")}
	_, err := Build(context.Background(), fetcher, []string{"dc/topic/Root"}, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream down")
}
