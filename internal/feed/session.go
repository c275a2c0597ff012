package feed

import (
	"context"

	"github.com/localcircle/localcircle-server/internal/domain"
)

// Streams are the live inputs of a Session. Any of them may be nil, which
// reads as a stream that never emits.
type Streams struct {
	// Live is the global recent feed.
	Live <-chan []*domain.Post
	// Liked and Saved are the viewer's liked and saved post IDs.
	Liked <-chan domain.IDSet
	Saved <-chan domain.IDSet
	// Query replaces the text filter.
	Query <-chan string
}

// Session keeps one viewer's feed current. The nearby set is fixed when the
// session starts; only the live streams change it.
type Session struct {
	nearby []*domain.Post

	live  []*domain.Post
	liked domain.IDSet
	saved domain.IDSet
	query string
}

// NewSession creates a session over a nearby result with an initial filter.
func NewSession(nearby []*domain.Post, query string) *Session {
	return &Session{nearby: nearby, query: query}
}

// Render reconciles the latest snapshot of every stream.
func (s *Session) Render() []domain.FeedPost {
	return Filter(Reconcile(s.live, s.nearby, s.liked, s.saved), s.query)
}

// Run re-renders after every emission on any stream and sends the result to
// out. It returns nil once every stream has closed, or ctx.Err() when ctx is
// cancelled. Run does not close out.
func (s *Session) Run(ctx context.Context, in Streams, out chan<- []domain.FeedPost) error {
	live, liked, saved, query := in.Live, in.Liked, in.Saved, in.Query

	for live != nil || liked != nil || saved != nil || query != nil {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case v, ok := <-live:
			if !ok {
				live = nil
				continue
			}
			s.live = v
		case v, ok := <-liked:
			if !ok {
				liked = nil
				continue
			}
			s.liked = v
		case v, ok := <-saved:
			if !ok {
				saved = nil
				continue
			}
			s.saved = v
		case v, ok := <-query:
			if !ok {
				query = nil
				continue
			}
			s.query = v
		}

		select {
		case out <- s.Render():
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
