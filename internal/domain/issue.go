package domain

import "time"

// IssueStatus enumerates lifecycle states for issues.
type IssueStatus string

const (
	IssueStatusReported    IssueStatus = "reported"
	IssueStatusUnderReview IssueStatus = "under_review"
	IssueStatusInProgress  IssueStatus = "in_progress"
	IssueStatusResolved    IssueStatus = "resolved"
	IssueStatusClosed      IssueStatus = "closed"
)

// Valid reports whether s is one of the five lifecycle states.
func (s IssueStatus) Valid() bool {
	switch s {
	case IssueStatusReported, IssueStatusUnderReview, IssueStatusInProgress, IssueStatusResolved, IssueStatusClosed:
		return true
	}
	return false
}

// IssuePriority enumerates urgency levels.
type IssuePriority string

const (
	IssuePriorityLow    IssuePriority = "low"
	IssuePriorityMedium IssuePriority = "medium"
	IssuePriorityHigh   IssuePriority = "high"
	IssuePriorityUrgent IssuePriority = "urgent"
)

// Valid reports whether p is a known priority.
func (p IssuePriority) Valid() bool {
	switch p {
	case IssuePriorityLow, IssuePriorityMedium, IssuePriorityHigh, IssuePriorityUrgent:
		return true
	}
	return false
}

// Coordinates is a WGS84 point.
type Coordinates struct {
	Longitude float64
	Latitude  float64
}

// Location is where an issue was observed.
type Location struct {
	Address     string
	Coordinates *Coordinates
}

// IssueImage references a photo held by the image host.
type IssueImage struct {
	ID        string
	IssueID   string
	URL       string
	PublicID  string
	CreatedAt time.Time
}

// OfficialResponse is attached by an admin or official during triage.
type OfficialResponse struct {
	Text        string
	ResponderID string
	RespondedAt time.Time
}

// Issue is a reported civic problem. Upvotes and Downvotes mirror the vote records.
type Issue struct {
	ID          string
	ReporterID  string
	Title       string
	Description string
	Category    string
	Location    Location
	Status      IssueStatus
	Priority    IssuePriority
	Images      []IssueImage
	Upvotes     int
	Downvotes   int
	Response    *OfficialResponse
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserSummary is the public slice of a user shown next to content.
type UserSummary struct {
	ID     string
	Name   string
	Avatar string
	Role   Role
}

// IssueView is an issue joined with the people referenced by it.
type IssueView struct {
	Issue
	Reporter   UserSummary
	Responder  *UserSummary
	DistanceKm *float64
}
