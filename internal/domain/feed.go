package domain

// FeedPost is a post as rendered for one viewer. IsLiked and IsSaved are view
// state and are never written back to the stored post.
type FeedPost struct {
	*Post
	IsLiked bool `json:"is_liked"`
	IsSaved bool `json:"is_saved"`
}

// IDSet is a set of record IDs, typically a user's liked or saved post IDs.
type IDSet map[string]struct{}

// NewIDSet builds a set from ids.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports whether id is in the set. A nil set is empty.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Slice returns the members in no particular order.
func (s IDSet) Slice() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}
