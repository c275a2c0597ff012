// Package search provides full-text search over posts using Bleve.
package search

import (
	"github.com/localcircle/localcircle-server/internal/domain"
)

// PostDocument is the indexed form of a post. Counters are left out: they
// change on every like and the search result is rehydrated from the store.
type PostDocument struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	AuthorName string  `json:"author_name"`
	Category   string  `json:"category"`
	Locality   string  `json:"locality,omitempty"`
	Lat        float64 `json:"-"`
	Lng        float64 `json:"-"`
	HasGeo     bool    `json:"-"`
	CreatedAt  int64   `json:"created_at"` // Unix millis
}

// NewPostDocument builds the document for p.
func NewPostDocument(p *domain.Post) *PostDocument {
	doc := &PostDocument{
		ID:         p.ID,
		Title:      p.Title,
		Body:       p.Body,
		AuthorName: p.AuthorName,
		Category:   string(p.Category),
		Locality:   p.Locality,
		CreatedAt:  p.CreatedAt.UnixMilli(),
	}
	if p.Location != nil {
		doc.Lat, doc.Lng, doc.HasGeo = p.Location.Lat, p.Location.Lng, true
	}
	return doc
}

// ToMap converts the document to a map whose keys match the index mapping.
func (d *PostDocument) ToMap() map[string]any {
	m := map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"body":        d.Body,
		"author_name": d.AuthorName,
		"category":    d.Category,
		"created_at":  d.CreatedAt,
	}
	if d.Locality != "" {
		m["locality"] = d.Locality
	}
	if d.HasGeo {
		// Bleve geo points take lon/lat keys.
		m["location"] = map[string]any{"lon": d.Lng, "lat": d.Lat}
	}
	return m
}
