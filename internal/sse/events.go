// Package sse implements Server-Sent Events for live feed and activity updates.
package sse

import (
	"time"

	"github.com/localcircle/localcircle-server/internal/domain"
)

// EventType represents the type of SSE Event.
type EventType string

const (
	// EventPostCreated is broadcast when a post is published.
	EventPostCreated EventType = "post.created"
	// EventPostDeleted is broadcast when an author deletes a post.
	EventPostDeleted EventType = "post.deleted"
	// EventPostCounters is broadcast when a post's like or comment count changes.
	EventPostCounters EventType = "post.counters"

	// EventCommentCreated is broadcast when a comment is added to a post.
	EventCommentCreated EventType = "comment.created"

	// EventAlertCreated is sent to the alert's recipient only.
	EventAlertCreated EventType = "alert.created"
	// EventAlertsRead is sent to a user after mark-all-read.
	EventAlertsRead EventType = "alert.read_all"

	// Per-user collection events
	EventSavesChanged  EventType = "saved.changed"
	EventFolderCreated EventType = "folder.created"
	EventFolderDeleted EventType = "folder.deleted"

	// EventFeedUpdated carries a freshly rendered feed on a feed stream.
	EventFeedUpdated EventType = "feed.updated"

	// EventHeartbeat represents a connection keepalive event.
	EventHeartbeat EventType = "heartbeat"
)

// Event represents an SSE event to be sent to clients.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Type      EventType `json:"type"`

	// UserID restricts delivery to one user's clients. Empty means broadcast.
	UserID string `json:"-"`
}

// PostEventData is the payload for post.created.
type PostEventData struct {
	Post *domain.Post `json:"post"`
}

// PostDeletedEventData is the payload for post.deleted.
type PostDeletedEventData struct {
	DeletedAt time.Time `json:"deleted_at"`
	PostID    string    `json:"post_id"`
}

// PostCountersEventData is the payload for post.counters.
type PostCountersEventData struct {
	PostID   string `json:"post_id"`
	Likes    int    `json:"likes"`
	Comments int    `json:"comments"`
}

// CommentEventData is the payload for comment.created.
type CommentEventData struct {
	Comment *domain.Comment `json:"comment"`
}

// AlertEventData is the payload for alert.created.
type AlertEventData struct {
	Alert *domain.Alert `json:"alert"`
}

// AlertsReadEventData is the payload for alert.read_all.
type AlertsReadEventData struct {
	Marked int `json:"marked"`
}

// SavesChangedEventData is the payload for saved.changed.
type SavesChangedEventData struct {
	PostID  string `json:"post_id"`
	IsSaved bool   `json:"is_saved"`
}

// FolderEventData is the payload for folder events.
type FolderEventData struct {
	Folder       *domain.Folder `json:"folder"`
	RemovedSaves int            `json:"removed_saves,omitempty"`
}

// HeartbeatEventData is the data payload for heartbeat events.
type HeartbeatEventData struct {
	ServerTime time.Time `json:"server_time"`
}

// NewPostCreatedEvent creates a post.created event.
func NewPostCreatedEvent(p *domain.Post) Event {
	return Event{Type: EventPostCreated, Data: PostEventData{Post: p}, Timestamp: time.Now()}
}

// NewPostDeletedEvent creates a post.deleted event.
func NewPostDeletedEvent(postID string) Event {
	now := time.Now()
	return Event{
		Type:      EventPostDeleted,
		Data:      PostDeletedEventData{PostID: postID, DeletedAt: now},
		Timestamp: now,
	}
}

// NewPostCountersEvent creates a post.counters event from the post's
// current counters.
func NewPostCountersEvent(p *domain.Post) Event {
	return Event{
		Type:      EventPostCounters,
		Data:      PostCountersEventData{PostID: p.ID, Likes: p.Likes, Comments: p.Comments},
		Timestamp: time.Now(),
	}
}

// NewCommentCreatedEvent creates a comment.created event.
func NewCommentCreatedEvent(c *domain.Comment) Event {
	return Event{Type: EventCommentCreated, Data: CommentEventData{Comment: c}, Timestamp: time.Now()}
}

// NewAlertCreatedEvent creates an alert.created event addressed to the
// alert's recipient.
func NewAlertCreatedEvent(a *domain.Alert) Event {
	return Event{
		Type:      EventAlertCreated,
		Data:      AlertEventData{Alert: a},
		Timestamp: time.Now(),
		UserID:    a.RecipientID,
	}
}

// NewAlertsReadEvent creates an alert.read_all event for userID.
func NewAlertsReadEvent(userID string, marked int) Event {
	return Event{
		Type:      EventAlertsRead,
		Data:      AlertsReadEventData{Marked: marked},
		Timestamp: time.Now(),
		UserID:    userID,
	}
}

// NewSavesChangedEvent creates a saved.changed event for userID.
func NewSavesChangedEvent(userID, postID string, isSaved bool) Event {
	return Event{
		Type:      EventSavesChanged,
		Data:      SavesChangedEventData{PostID: postID, IsSaved: isSaved},
		Timestamp: time.Now(),
		UserID:    userID,
	}
}

// NewFolderCreatedEvent creates a folder.created event for the folder owner.
func NewFolderCreatedEvent(f *domain.Folder) Event {
	return Event{
		Type:      EventFolderCreated,
		Data:      FolderEventData{Folder: f},
		Timestamp: time.Now(),
		UserID:    f.OwnerID,
	}
}

// NewFolderDeletedEvent creates a folder.deleted event for the folder owner.
func NewFolderDeletedEvent(f *domain.Folder, removedSaves int) Event {
	return Event{
		Type:      EventFolderDeleted,
		Data:      FolderEventData{Folder: f, RemovedSaves: removedSaves},
		Timestamp: time.Now(),
		UserID:    f.OwnerID,
	}
}

// NewFeedUpdatedEvent wraps a rendered feed for a feed stream.
func NewFeedUpdatedEvent(posts []domain.FeedPost) Event {
	if posts == nil {
		posts = []domain.FeedPost{}
	}
	return Event{Type: EventFeedUpdated, Data: posts, Timestamp: time.Now()}
}

// NewHeartbeatEvent creates a heartbeat event.
func NewHeartbeatEvent() Event {
	now := time.Now()
	return Event{Type: EventHeartbeat, Data: HeartbeatEventData{ServerTime: now}, Timestamp: now}
}
