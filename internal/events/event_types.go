package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/citizencircle/civic-api/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventIssueCreated       EventType = "issue_created"
	EventIssueStatusChanged EventType = "issue_status_changed"
	EventCommentAdded       EventType = "comment_added"
	EventVoteCast           EventType = "vote_cast"
)

// Actor identifies who triggered an event.
type Actor struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	IssueID   string      `json:"issue_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id and the current time.
func NewEvent(eventType EventType, issueID string, actor Actor, payload interface{}) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		IssueID:   issueID,
		Actor:     actor,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// IssueCreatedPayload payload.
type IssueCreatedPayload struct {
	Title    string               `json:"title"`
	Category string               `json:"category"`
	Priority domain.IssuePriority `json:"priority"`
}

// IssueStatusChangedPayload payload.
type IssueStatusChangedPayload struct {
	ReporterID string             `json:"reporter_id"`
	Title      string             `json:"title"`
	OldStatus  domain.IssueStatus `json:"old_status"`
	NewStatus  domain.IssueStatus `json:"new_status"`
	Response   string             `json:"response,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	ReporterID  string `json:"reporter_id"`
	IsOfficial  bool   `json:"is_official"`
	TextPreview string `json:"text_preview"`
}

// VoteCastPayload payload.
type VoteCastPayload struct {
	Type      domain.VoteType `json:"type"`
	Upvotes   int             `json:"upvotes"`
	Downvotes int             `json:"downvotes"`
	Changed   bool            `json:"changed"`
}
