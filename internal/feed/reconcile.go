package feed

import (
	"strings"

	"github.com/localcircle/localcircle-server/internal/domain"
	"golang.org/x/text/cases"
)

// Reconcile renders the nearby set for one viewer. Each nearby post is
// replaced by its copy from live when one exists, since the live feed carries
// fresher counters, then annotated with the viewer's like and save state.
// Output order follows nearby. Inputs are not modified.
func Reconcile(live, nearby []*domain.Post, liked, saved domain.IDSet) []domain.FeedPost {
	fresh := make(map[string]*domain.Post, len(live))
	for _, p := range live {
		fresh[p.ID] = p
	}

	out := make([]domain.FeedPost, 0, len(nearby))
	for _, p := range nearby {
		if lp, ok := fresh[p.ID]; ok {
			p = lp
		}
		out = append(out, domain.FeedPost{
			Post:    p.Clone(),
			IsLiked: liked.Has(p.ID),
			IsSaved: saved.Has(p.ID),
		})
	}
	return out
}

// Filter keeps posts whose title or body contains query, compared with
// Unicode case folding. A blank query keeps everything.
func Filter(posts []domain.FeedPost, query string) []domain.FeedPost {
	query = strings.TrimSpace(query)
	if query == "" {
		return posts
	}
	// A Caser is stateful; one per call.
	folder := cases.Fold()
	needle := folder.String(query)

	out := make([]domain.FeedPost, 0, len(posts))
	for _, p := range posts {
		if strings.Contains(folder.String(p.Title), needle) || strings.Contains(folder.String(p.Body), needle) {
			out = append(out, p)
		}
	}
	return out
}
