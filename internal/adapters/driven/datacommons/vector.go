package datacommons

import (
	"context"
	"sort"

	"github.com/dcgraph-labs/dcgraph-cli/internal/core/domain"
	"github.com/dcgraph-labs/dcgraph-cli/internal/logger"
)

// topVectorMatches bounds how many hits each query keeps after ranking.
const topVectorMatches = 5

// SearchSVS runs each query against the vector-search endpoint and returns
// the top matches per query, sorted by descending score with the DCID as a
// deterministic tie-break. A failed query degrades to an empty result so
// one bad query never sinks a batch.
func (c *Client) SearchSVS(
	ctx context.Context, queries []string, skipTopics bool,
) (map[string][]domain.VectorMatch, error) {
	endpoint := c.svSearchBaseURL + "/api/nl/search-vector?idx=" + c.idx
	if skipTopics {
		endpoint += "&skip_topics=true"
	}

	results := make(map[string][]domain.VectorMatch, len(queries))
	for _, query := range queries {
		var response vectorSearchResponse
		if err := c.postJSON(ctx, endpoint, vectorSearchRequest{Queries: []string{query}}, &response); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("Vector search for %q failed on %s: %v", query, c.name, err)
			results[query] = []domain.VectorMatch{}
			continue
		}
		results[query] = rankVectorMatches(response.QueryResults[query])
	}
	return results, nil
}

// rankVectorMatches zips the parallel result arrays, sorts by descending
// score then DCID, and keeps the top matches.
func rankVectorMatches(result vectorQueryResult) []domain.VectorMatch {
	n := len(result.SV)
	if len(result.CosineScore) < n {
		n = len(result.CosineScore)
	}

	matches := make([]domain.VectorMatch, 0, n)
	for i := 0; i < n; i++ {
		matches = append(matches, domain.VectorMatch{DCID: result.SV[i], Score: result.CosineScore[i]})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].DCID < matches[j].DCID
	})

	if len(matches) > topVectorMatches {
		matches = matches[:topVectorMatches]
	}
	return matches
}
