package domain

import "strings"

const (
	// TypeTopic is the typeOf label of topic nodes in the hierarchy.
	TypeTopic = "Topic"

	topicRefFragment = "topic/"
	svpgRefFragment  = "svpg/"
)

// IsTopicDCID reports whether a DCID names a topic rather than a variable.
func IsTopicDCID(dcid string) bool {
	return strings.Contains(dcid, "/topic/")
}

// isGroupingRef reports whether a DCID looks like a topic or variable-group
// reference. Such references with no backing node are broken links and are
// dropped during flattening rather than treated as variables.
func isGroupingRef(dcid string) bool {
	return strings.Contains(dcid, topicRefFragment) || strings.Contains(dcid, svpgRefFragment)
}

// Node is a generic node in the raw topic hierarchy. Children may reference
// sub-topics, variable groups, or terminal variables.
type Node struct {
	DCID     string
	Name     string
	TypeOf   string
	Children []string
}

// TopicVariables is a topic together with its transitively-flattened member
// variables (first-seen traversal order, deduplicated) and its direct member
// topics.
type TopicVariables struct {
	TopicDCID    string   `json:"topic_dcid"`
	TopicName    string   `json:"topic_name"`
	Variables    []string `json:"variables"`
	MemberTopics []string `json:"member_topics"`
}

// TopicStore is an immutable snapshot of the topic/variable taxonomy, built
// once at startup and read concurrently by many requests afterwards.
type TopicStore struct {
	TopicsByDCID map[string]*TopicVariables
	AllVariables map[string]struct{}
	DCIDToName   map[string]string
}

// HasVariable reports whether the DCID is a known terminal variable.
func (s *TopicStore) HasVariable(dcid string) bool {
	_, ok := s.AllVariables[dcid]
	return ok
}

// GetTopicVariables returns the flattened variable list for a topic, or an
// empty list when the topic is unknown.
func (s *TopicStore) GetTopicVariables(topicDCID string) []string {
	if topic, ok := s.TopicsByDCID[topicDCID]; ok {
		return topic.Variables
	}
	return nil
}

// GetMemberTopics returns only the direct member topics of a topic.
func (s *TopicStore) GetMemberTopics(topicDCID string) []string {
	if topic, ok := s.TopicsByDCID[topicDCID]; ok {
		return topic.MemberTopics
	}
	return nil
}

// GetTopicMembers returns both member topics and variables for a topic.
func (s *TopicStore) GetTopicMembers(topicDCID string) []string {
	topic, ok := s.TopicsByDCID[topicDCID]
	if !ok {
		return nil
	}
	members := make([]string, 0, len(topic.MemberTopics)+len(topic.Variables))
	members = append(members, topic.MemberTopics...)
	members = append(members, topic.Variables...)
	return members
}

// GetName returns the display name for a DCID, falling back to the DCID
// itself: a DCID is always a valid name.
func (s *TopicStore) GetName(dcid string) string {
	if name, ok := s.DCIDToName[dcid]; ok && name != "" {
		return name
	}
	return dcid
}

// NewEmptyTopicStore returns a store that knows no topics or variables.
func NewEmptyTopicStore() *TopicStore {
	return &TopicStore{
		TopicsByDCID: map[string]*TopicVariables{},
		AllVariables: map[string]struct{}{},
		DCIDToName:   map[string]string{},
	}
}

// NewTopicStoreFromNodes builds a TopicStore from a flat node list, running
// the cycle-safe depth-first flatten for every node typed as a topic.
func NewTopicStoreFromNodes(nodes []Node) *TopicStore {
	nodesByDCID := make(map[string]*Node, len(nodes))
	for i := range nodes {
		if nodes[i].DCID != "" {
			nodesByDCID[nodes[i].DCID] = &nodes[i]
		}
	}

	store := NewEmptyTopicStore()
	for i := range nodes {
		node := &nodes[i]
		if node.TypeOf != TypeTopic || node.DCID == "" {
			continue
		}

		var ordered []string
		seen := make(map[string]struct{})
		visited := make(map[string]struct{})
		flattenVariables(node, nodesByDCID, &ordered, seen, visited)

		memberTopics := make([]string, 0)
		for _, child := range node.Children {
			if childNode, ok := nodesByDCID[child]; ok && childNode.TypeOf == TypeTopic {
				memberTopics = append(memberTopics, child)
			}
		}

		store.TopicsByDCID[node.DCID] = &TopicVariables{
			TopicDCID:    node.DCID,
			TopicName:    node.Name,
			Variables:    ordered,
			MemberTopics: memberTopics,
		}
		if node.Name != "" {
			store.DCIDToName[node.DCID] = node.Name
		}
		for _, v := range ordered {
			store.AllVariables[v] = struct{}{}
		}
	}
	return store
}

// flattenVariables depth-first collects the unique terminal variables under
// a node in first-discovery order. The visited set guards against cycles in
// the hierarchy; broken topic/group references are dropped silently.
func flattenVariables(
	node *Node,
	nodesByDCID map[string]*Node,
	ordered *[]string,
	seen map[string]struct{},
	visited map[string]struct{},
) {
	if _, ok := visited[node.DCID]; ok {
		return
	}
	visited[node.DCID] = struct{}{}

	for _, childDCID := range node.Children {
		if childNode, ok := nodesByDCID[childDCID]; ok {
			flattenVariables(childNode, nodesByDCID, ordered, seen, visited)
			continue
		}
		if isGroupingRef(childDCID) {
			continue
		}
		if _, ok := seen[childDCID]; !ok {
			seen[childDCID] = struct{}{}
			*ordered = append(*ordered, childDCID)
		}
	}
}

// DescendantVariables collects the full transitive union of a topic's own
// variables and every descendant topic's variables, in first-seen traversal
// order. A fresh visited set per top-level call guards against cycles.
func DescendantVariables(topicDCID string, topicsByDCID map[string]*TopicVariables) []string {
	var ordered []string
	seen := make(map[string]struct{})
	visited := make(map[string]struct{})
	collectDescendants(topicDCID, topicsByDCID, &ordered, seen, visited)
	return ordered
}

func collectDescendants(
	topicDCID string,
	topicsByDCID map[string]*TopicVariables,
	ordered *[]string,
	seen map[string]struct{},
	visited map[string]struct{},
) {
	if _, ok := visited[topicDCID]; ok {
		return
	}
	visited[topicDCID] = struct{}{}

	topic, ok := topicsByDCID[topicDCID]
	if !ok {
		return
	}

	for _, v := range topic.Variables {
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			*ordered = append(*ordered, v)
		}
	}
	for _, member := range topic.MemberTopics {
		collectDescendants(member, topicsByDCID, ordered, seen, visited)
	}
}
