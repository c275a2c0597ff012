package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
	"github.com/localcircle/localcircle-server/internal/geo"
)

// SearchParams configures a search query.
type SearchParams struct {
	Query    string // User's search query
	Category string // Exact category filter (empty = all)

	// Near bounds results to RadiusMeters around a point when set.
	Near         *geo.Point
	RadiusMeters float64

	Limit  int
	Offset int

	// SortBy is "relevance" (default) or "recent".
	SortBy string

	IncludeFacets bool // Include category counts
	Highlight     bool // Include match highlighting
}

// DefaultSearchParams returns sensible defaults.
func DefaultSearchParams() SearchParams {
	return SearchParams{
		Limit:         20,
		SortBy:        "relevance",
		IncludeFacets: true,
		Highlight:     true,
	}
}

// SearchResult represents the search results.
type SearchResult struct {
	Query  string       `json:"query"`
	Total  uint64       `json:"total"`
	TookMs int64        `json:"took_ms"`
	Hits   []SearchHit  `json:"hits"`
	Facets []FacetCount `json:"categories,omitempty"`
}

// SearchHit represents a single search result.
type SearchHit struct {
	ID         string            `json:"id"`
	Score      float64           `json:"score"`
	Title      string            `json:"title"`
	AuthorName string            `json:"author_name,omitempty"`
	Category   string            `json:"category,omitempty"`
	Highlights map[string]string `json:"highlights,omitempty"`
}

// FacetCount represents a facet value and its count.
type FacetCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// IDs returns the hit IDs in rank order.
func (r *SearchResult) IDs() []string {
	ids := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		ids[i] = h.ID
	}
	return ids
}

// Search executes a search query.
func (s *SearchIndex) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if params.Limit <= 0 {
		params.Limit = DefaultSearchParams().Limit
	}

	searchRequest := bleve.NewSearchRequestOptions(buildSearchQuery(params), params.Limit, params.Offset, false)

	if params.SortBy == "recent" {
		searchRequest.SortBy([]string{"-created_at", "_id"})
	} else {
		searchRequest.SortBy([]string{"-_score", "-created_at"})
	}

	if params.IncludeFacets {
		searchRequest.AddFacet("category", bleve.NewFacetRequest("category", 10))
	}

	if params.Highlight {
		searchRequest.Highlight = bleve.NewHighlight()
		searchRequest.Highlight.AddField("title")
		searchRequest.Highlight.AddField("body")
	}

	searchRequest.Fields = []string{"title", "author_name", "category"}

	searchResult, err := s.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return nil, fmt.Errorf("execute search: %w", err)
	}

	result := &SearchResult{
		Query:  params.Query,
		Total:  searchResult.Total,
		TookMs: searchResult.Took.Milliseconds(),
		Hits:   make([]SearchHit, 0, len(searchResult.Hits)),
	}

	for _, hit := range searchResult.Hits {
		searchHit := SearchHit{ID: hit.ID, Score: hit.Score}
		if v, ok := hit.Fields["title"].(string); ok {
			searchHit.Title = v
		}
		if v, ok := hit.Fields["author_name"].(string); ok {
			searchHit.AuthorName = v
		}
		if v, ok := hit.Fields["category"].(string); ok {
			searchHit.Category = v
		}
		if len(hit.Fragments) > 0 {
			searchHit.Highlights = make(map[string]string)
			for field, fragments := range hit.Fragments {
				if len(fragments) > 0 {
					searchHit.Highlights[field] = fragments[0]
				}
			}
		}
		result.Hits = append(result.Hits, searchHit)
	}

	if facet, ok := searchResult.Facets["category"]; ok && facet.Terms != nil {
		for _, term := range facet.Terms.Terms() {
			result.Facets = append(result.Facets, FacetCount{Value: term.Term, Count: term.Count})
		}
	}

	return result, nil
}

// buildSearchQuery constructs the Bleve query from params.
func buildSearchQuery(params SearchParams) query.Query {
	var queries []query.Query

	if q := strings.TrimSpace(params.Query); q != "" {
		titleMatch := bleve.NewMatchQuery(q)
		titleMatch.SetField("title")
		titleMatch.SetBoost(3.0)

		bodyMatch := bleve.NewMatchQuery(q)
		bodyMatch.SetField("body")

		authorMatch := bleve.NewMatchQuery(q)
		authorMatch.SetField("author_name")
		authorMatch.SetBoost(0.5)

		// Typo tolerance on titles
		fuzzyQuery := bleve.NewFuzzyQuery(strings.ToLower(q))
		fuzzyQuery.SetFuzziness(1)
		fuzzyQuery.SetField("title")
		fuzzyQuery.SetBoost(0.8)

		textQueries := []query.Query{titleMatch, bodyMatch, authorMatch, fuzzyQuery}

		// Prefix query for type-ahead (minimum 2 chars)
		if len(q) >= 2 && !strings.ContainsRune(q, ' ') {
			prefixQuery := bleve.NewPrefixQuery(strings.ToLower(q))
			prefixQuery.SetField("title")
			prefixQuery.SetBoost(0.5)
			textQueries = append(textQueries, prefixQuery)
		}

		queries = append(queries, bleve.NewDisjunctionQuery(textQueries...))
	}

	if params.Category != "" {
		cq := bleve.NewTermQuery(params.Category)
		cq.SetField("category")
		queries = append(queries, cq)
	}

	if params.Near != nil && params.RadiusMeters > 0 {
		gq := bleve.NewGeoDistanceQuery(params.Near.Lng, params.Near.Lat, fmt.Sprintf("%.0fm", params.RadiusMeters))
		gq.SetField("location")
		queries = append(queries, gq)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}
