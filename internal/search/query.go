package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

// Params configures a search query.
type Params struct {
	Query      string   // User's search query
	Types      []string // Category types to include (empty = all)
	PathPrefix string   // Restrict hits to one subtree (encoded child path)

	Limit  int
	Offset int
}

// DefaultParams returns sensible defaults.
func DefaultParams() Params {
	return Params{Limit: 20}
}

// Result represents the search results.
type Result struct {
	Query  string `json:"query"`
	Total  uint64 `json:"total"`
	TookMs int64  `json:"took_ms"`
	Hits   []Hit  `json:"hits"`
}

// Hit represents a single matched category.
type Hit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Name       string            `json:"name"`
	Code       string            `json:"code"`
	Type       string            `json:"type"`
	Path       string            `json:"path"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// Search executes a search query against the category index.
func (s *Index) Search(ctx context.Context, params Params) (*Result, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildQuery(params), params.Limit, params.Offset, false)
	searchRequest.Fields = []string{"id", "name", "code", "type", "path"}
	searchRequest.Highlight = bleve.NewHighlight()
	searchRequest.Highlight.AddField("name")

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &Result{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]Hit, 0, len(searchResult.Hits)),
	}
	for _, hit := range searchResult.Hits {
		h := Hit{ID: hit.ID, Score: hit.Score}
		if name, ok := hit.Fields["name"].(string); ok {
			h.Name = name
		}
		if code, ok := hit.Fields["code"].(string); ok {
			h.Code = code
		}
		if typ, ok := hit.Fields["type"].(string); ok {
			h.Type = typ
		}
		if path, ok := hit.Fields["path"].(string); ok {
			h.Path = path
		}
		if len(hit.Fragments) > 0 {
			h.Highlights = make(map[string]string, len(hit.Fragments))
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					h.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, h)
	}

	return result, nil
}

// buildQuery combines a relevance query over name/code with structural
// filters.
func buildQuery(params Params) query.Query {
	term := strings.TrimSpace(params.Query)

	var relevance query.Query
	if term == "" {
		relevance = bleve.NewMatchAllQuery()
	} else {
		// Stemmed match on the name, with light fuzziness for typos.
		nameMatch := bleve.NewMatchQuery(term)
		nameMatch.SetField("name")
		nameMatch.SetBoost(2.0)

		nameFuzzy := bleve.NewMatchQuery(term)
		nameFuzzy.SetField("name")
		nameFuzzy.SetFuzziness(1)

		// Codes are indexed lowercased keywords; prefix covers partial
		// codes like "math-alg".
		codePrefix := bleve.NewPrefixQuery(strings.ToLower(term))
		codePrefix.SetField("code")
		codePrefix.SetBoost(1.5)

		relevance = bleve.NewDisjunctionQuery(nameMatch, nameFuzzy, codePrefix)
	}

	var filters []query.Query
	if len(params.Types) > 0 {
		typeQueries := make([]query.Query, 0, len(params.Types))
		for _, t := range params.Types {
			tq := bleve.NewTermQuery(t)
			tq.SetField("type")
			typeQueries = append(typeQueries, tq)
		}
		filters = append(filters, bleve.NewDisjunctionQuery(typeQueries...))
	}
	if params.PathPrefix != "" {
		pq := bleve.NewPrefixQuery(params.PathPrefix)
		pq.SetField("path")
		filters = append(filters, pq)
	}

	if len(filters) == 0 {
		return relevance
	}
	return bleve.NewConjunctionQuery(append([]query.Query{relevance}, filters...)...)
}
