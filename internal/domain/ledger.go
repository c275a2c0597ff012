package domain

import "time"

// Like is the join record for a user liking a post. Its ID is
// id.Compose(PostID, UserID): the record's existence is the like.
type Like struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
}

// CommentLike is the join record for a user liking a comment, keyed like Like.
type CommentLike struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	CommentID string    `json:"comment_id"`
	PostID    string    `json:"post_id"`
	UserID    string    `json:"user_id"`
}

// LikeMilestones are the like counts that earn the author a milestone alert.
var LikeMilestones = []int{10, 50, 100, 500}

// CrossedLikeMilestone returns the milestone passed when a post's like count
// moves from prev to next, if any. Decrements never cross.
func CrossedLikeMilestone(prev, next int) (crossed bool, milestone int) {
	for _, m := range LikeMilestones {
		if prev < m && next >= m {
			return true, m
		}
	}
	return false, 0
}
