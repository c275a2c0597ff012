package domain

import "time"

// Comment is a remark on a post. Threads are two levels deep: ParentID is
// empty for a root and names a root comment for a reply.
type Comment struct {
	CreatedAt  time.Time `json:"created_at"`
	ID         string    `json:"id"`
	PostID     string    `json:"post_id"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Text       string    `json:"text"`
	ParentID   string    `json:"parent_id,omitempty"`
	LikesCount int       `json:"likes_count"`
}

// IsRoot reports whether c starts a thread.
func (c *Comment) IsRoot() bool {
	return c.ParentID == ""
}

// MaxCommentRunes bounds comment text.
const MaxCommentRunes = 500

// Thread is a root comment with its replies, oldest first.
type Thread struct {
	Root    *Comment   `json:"root"`
	Replies []*Comment `json:"replies"`
}

// BuildThreads groups comments (ordered oldest first) into threads. Replies
// whose root is missing are dropped.
func BuildThreads(comments []*Comment) []Thread {
	threads := make([]Thread, 0)
	index := make(map[string]int)
	for _, c := range comments {
		if c.IsRoot() {
			index[c.ID] = len(threads)
			threads = append(threads, Thread{Root: c, Replies: []*Comment{}})
		}
	}
	for _, c := range comments {
		if c.IsRoot() {
			continue
		}
		if i, ok := index[c.ParentID]; ok {
			threads[i].Replies = append(threads[i].Replies, c)
		}
	}
	return threads
}
