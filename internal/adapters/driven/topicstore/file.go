package topicstore

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
)

// cachedNode is one entry of the bundled node-cache file. Every scalar is
// wrapped in a single-element array in that format.
type cachedNode struct {
	DCID                 []string `json:"dcid"`
	Name                 []string `json:"name"`
	TypeOf               []string `json:"typeOf"`
	MemberList           []string `json:"memberList"`
	RelevantVariableList []string `json:"relevantVariableList"`
}

type nodeCacheFile struct {
	Nodes []cachedNode `json:"nodes"`
}

// ReadNodeCache parses a bundled node-cache JSON file into a TopicStore,
// flattening each topic's hierarchy of groups and variables.
func ReadNodeCache(path string) (*domain.TopicStore, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read node cache: %w", err)
	}

	var file nodeCacheFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse node cache: %w", err)
	}

	nodes := make([]domain.Node, 0, len(file.Nodes))
	for _, cached := range file.Nodes {
		node := domain.Node{
			DCID:   first(cached.DCID),
			Name:   first(cached.Name),
			TypeOf: first(cached.TypeOf),
		}
		node.Children = append(node.Children, cached.MemberList...)
		node.Children = append(node.Children, cached.RelevantVariableList...)
		nodes = append(nodes, node)
	}

	return domain.NewTopicStoreFromNodes(nodes), nil
}

func first(values []string) string {
	if len(values) > 0 {
		return values[0]
	}
	return ""
}
