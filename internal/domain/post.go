package domain

import (
	"time"

	"github.com/localcircle/localcircle-server/internal/geo"
)

// Category tags a post with a neighborhood topic.
type Category string

const (
	CategoryCoffee   Category = "Coffee"
	CategoryFood     Category = "Food"
	CategoryServices Category = "Services"
	CategoryParks    Category = "Parks"
	CategorySafety   Category = "Safety"
)

// Categories lists every accepted category in display order.
var Categories = []Category{CategoryCoffee, CategoryFood, CategoryServices, CategoryParks, CategorySafety}

// Valid checks if the category is one of Categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryCoffee, CategoryFood, CategoryServices, CategoryParks, CategorySafety:
		return true
	default:
		return false
	}
}

// MaxPostBodyRunes bounds the post body.
const MaxPostBodyRunes = 280

// Post is a user-authored neighborhood update.
//
// Likes and Comments are denormalized counters kept in step with the Like and
// Comment records by the ledger's batches. Geohash is always derived from
// Location via SetLocation and is never accepted from a client.
type Post struct {
	CreatedAt  time.Time  `json:"created_at"`
	ID         string     `json:"id"`
	AuthorID   string     `json:"author_id"`
	AuthorName string     `json:"author_name"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	Category   Category   `json:"category"`
	Locality   string     `json:"locality,omitempty"`
	Location   *geo.Point `json:"location,omitempty"`
	Geohash    string     `json:"geohash,omitempty"`
	Likes      int        `json:"likes"`
	Comments   int        `json:"comments"`
}

// SetLocation stores p and its geohash together.
func (p *Post) SetLocation(pt geo.Point) {
	p.Location = &pt
	p.Geohash = geo.Encode(pt)
}

// HasLocation reports whether the post can take part in proximity search.
func (p *Post) HasLocation() bool {
	return p.Location != nil && p.Geohash != ""
}

// IsAuthor reports whether userID wrote the post.
func (p *Post) IsAuthor(userID string) bool {
	return userID != "" && p.AuthorID == userID
}

// Clone returns a copy that shares no mutable state with p.
func (p *Post) Clone() *Post {
	c := *p
	if p.Location != nil {
		loc := *p.Location
		c.Location = &loc
	}
	return &c
}
