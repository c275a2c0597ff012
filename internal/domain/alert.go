package domain

import "time"

// AlertType identifies what triggered an alert.
type AlertType string

const (
	// AlertLike is sent to a post's author when someone likes it.
	AlertLike AlertType = "like"

	// AlertComment is sent to a post's author for a new root comment.
	AlertComment AlertType = "comment"

	// AlertReply is sent to a root comment's author when someone replies.
	AlertReply AlertType = "reply"

	// AlertMilestone is sent to a post's author when its likes cross one of
	// LikeMilestones.
	AlertMilestone AlertType = "milestone"
)

// Alert is a notification record for one recipient. Alerts are never created
// when the actor is the recipient.
type Alert struct {
	CreatedAt       time.Time `json:"created_at"`
	ID              string    `json:"id"`
	RecipientID     string    `json:"recipient_id"`
	TriggeredByID   string    `json:"triggered_by_id"`
	TriggeredByName string    `json:"triggered_by_name,omitempty"`
	Type            AlertType `json:"type"`
	PostID          string    `json:"post_id,omitempty"`
	PostTitle       string    `json:"post_title,omitempty"`
	CommentID       string    `json:"comment_id,omitempty"`
	MilestoneValue  int       `json:"milestone_value,omitempty"`
	IsRead          bool      `json:"is_read"`
}

// AlertInbox is a recipient's alerts newest first with the unread tally.
type AlertInbox struct {
	Alerts      []*Alert `json:"alerts"`
	UnreadCount int      `json:"unread_count"`
}

// NewAlertInbox counts the unread alerts in alerts.
func NewAlertInbox(alerts []*Alert) AlertInbox {
	inbox := AlertInbox{Alerts: alerts}
	if inbox.Alerts == nil {
		inbox.Alerts = []*Alert{}
	}
	for _, a := range alerts {
		if !a.IsRead {
			inbox.UnreadCount++
		}
	}
	return inbox
}
