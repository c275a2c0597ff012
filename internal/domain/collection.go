package domain

import "time"

// AllItemsFolderID names the virtual folder that aggregates every saved
// record a user holds. It is never stored as a Folder.
const AllItemsFolderID = "all"

// Folder is a named, user-owned collection of saved posts.
type Folder struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Name      string    `json:"name"`
}

// IsOwnedBy reports whether userID owns the folder.
func (f *Folder) IsOwnedBy(userID string) bool {
	return f.OwnerID == userID
}

// SavedItem places a post in one of a user's folders. A post saved into
// several folders has one record per folder.
type SavedItem struct {
	SavedAt  time.Time `json:"saved_at"`
	ID       string    `json:"id"`
	PostID   string    `json:"post_id"`
	UserID   string    `json:"user_id"`
	FolderID string    `json:"folder_id"`
}
