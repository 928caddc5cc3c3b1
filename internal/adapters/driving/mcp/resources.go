package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// uriScheme is the custom URI scheme for dcgraph resources.
const uriScheme = "dcgraph://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	// Static resource listing the known topics.
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "topics",
		Name:        "topics",
		Description: "All topics in the statistical taxonomy",
		MIMEType:    "application/json",
	}, s.handleTopicsResource)

	// Template for a single topic's members.
	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "topics/{+topicDcid}",
		Name:        "topic-members",
		Description: "Member topics and variables of a specific topic",
		MIMEType:    "application/json",
	}, s.handleTopicResource)
}

// handleTopicsResource returns a summary of every known topic.
func (s *Server) handleTopicsResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	type topicInfo struct {
		DCID          string `json:"dcid"`
		Name          string `json:"name"`
		VariableCount int    `json:"variable_count"`
		MemberTopics  int    `json:"member_topics"`
	}

	infos := make([]topicInfo, 0, len(s.ports.Topics.TopicsByDCID))
	for dcid, topic := range s.ports.Topics.TopicsByDCID {
		infos = append(infos, topicInfo{
			DCID:          dcid,
			Name:          topic.TopicName,
			VariableCount: len(topic.Variables),
			MemberTopics:  len(topic.MemberTopics),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].DCID < infos[j].DCID })

	data, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling topics: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// handleTopicResource returns one topic's full member breakdown.
func (s *Server) handleTopicResource(
	_ context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	topicDCID := extractTopicDCID(req.Params.URI)
	if topicDCID == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	topic, ok := s.ports.Topics.TopicsByDCID[topicDCID]
	if !ok {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	data, err := json.MarshalIndent(topic, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling topic %s: %w", topicDCID, err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// extractTopicDCID extracts the topic DCID from a URI like
// dcgraph://topics/{topicDcid}. Topic DCIDs contain slashes, so everything
// after the prefix belongs to the DCID.
func extractTopicDCID(uri string) string {
	const prefix = uriScheme + "topics/"
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	return strings.TrimPrefix(uri, prefix)
}
