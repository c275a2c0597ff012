// Package feed builds the neighborhood feed: a proximity search over geohash
// ranges, and the reconciliation of its result against live data.
package feed

import (
	"cmp"
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/localcircle/localcircle-server/internal/domain"
	"github.com/localcircle/localcircle-server/internal/errors"
	"github.com/localcircle/localcircle-server/internal/geo"
	"golang.org/x/sync/errgroup"
)

// PostRanger runs an ordered geohash range query. The store implements it;
// tests substitute an in-memory fake.
type PostRanger interface {
	PostsInGeohashRange(ctx context.Context, start, end string) ([]*domain.Post, error)
}

// Searcher finds posts near a point.
type Searcher struct {
	posts           PostRanger
	maxRadiusMeters float64
}

// NewSearcher creates a Searcher. A maxRadiusMeters <= 0 disables the cap.
func NewSearcher(posts PostRanger, maxRadiusMeters float64) *Searcher {
	return &Searcher{posts: posts, maxRadiusMeters: maxRadiusMeters}
}

// FindNearby returns every stored post within radiusMeters of center, newest
// first. Geohash ranges are only a prefilter; each candidate is kept only if
// its great-circle distance is within the radius. Range queries run
// concurrently and the search fails as a whole if any of them fails.
func (s *Searcher) FindNearby(ctx context.Context, center geo.Point, radiusMeters float64) ([]*domain.Post, error) {
	if !center.Valid() {
		return nil, errors.Validationf("invalid center %s", center)
	}
	if !(radiusMeters > 0) || math.IsInf(radiusMeters, 1) {
		return nil, errors.Validationf("radius must be a positive number of meters, got %g", radiusMeters)
	}
	if s.maxRadiusMeters > 0 && radiusMeters > s.maxRadiusMeters {
		return nil, errors.Validationf("radius %.0fm exceeds maximum %.0fm", radiusMeters, s.maxRadiusMeters)
	}

	ranges := geo.QueryBounds(center, radiusMeters)

	var (
		mu         sync.Mutex
		candidates = make(map[string]*domain.Post)
	)
	g, gctx := errgroup.WithContext(ctx)
	for _, r := range ranges {
		g.Go(func() error {
			posts, err := s.posts.PostsInGeohashRange(gctx, r.Start, r.End)
			if err != nil {
				return fmt.Errorf("range %s..%s: %w", r.Start, r.End, err)
			}
			mu.Lock()
			defer mu.Unlock()
			for _, p := range posts {
				candidates[p.ID] = p
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	nearby := make([]*domain.Post, 0, len(candidates))
	for _, p := range candidates {
		if p.Location == nil {
			continue
		}
		if geo.DistanceMeters(center, *p.Location) > radiusMeters {
			continue
		}
		nearby = append(nearby, p)
	}
	SortNewestFirst(nearby)
	return nearby, nil
}

// SortNewestFirst orders posts by creation time descending, breaking ties by
// ID so the order is stable across calls.
func SortNewestFirst(posts []*domain.Post) {
	slices.SortFunc(posts, func(a, b *domain.Post) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
