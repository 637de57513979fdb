package dto

import (
	"time"

	"github.com/citizencircle/civic-api/internal/domain"
)

// VoteRequest payload for POST /issues/:id/votes.
type VoteRequest struct {
	VoteType domain.VoteType `json:"type" validate:"required"`
}

// VoteResponse is a single vote record.
type VoteResponse struct {
	ID        string          `json:"id"`
	IssueID   string          `json:"issueId"`
	UserID    string          `json:"userId"`
	VoteType  domain.VoteType `json:"type"`
	VoterName string          `json:"voterName,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CastVoteResponse returns the caller's vote and the issue with refreshed counters.
type CastVoteResponse struct {
	Vote  VoteResponse  `json:"vote"`
	Issue IssueResponse `json:"issue"`
}

// IssueSummaryResponse is the short issue card in a vote history.
type IssueSummaryResponse struct {
	ID       string             `json:"id"`
	Title    string             `json:"title"`
	Status   domain.IssueStatus `json:"status"`
	Category string             `json:"category"`
}

// MyVoteResponse is one entry of GET /votes/me.
type MyVoteResponse struct {
	VoteResponse
	Issue IssueSummaryResponse `json:"issue"`
}

// TallyResponse reports stored counters against a recount.
type TallyResponse struct {
	IssueID         string `json:"issueId"`
	StoredUpvotes   int    `json:"storedUpvotes"`
	StoredDownvotes int    `json:"storedDownvotes"`
	CountedUpvotes  int    `json:"countedUpvotes"`
	CountedDownvotes int   `json:"countedDownvotes"`
	Consistent      bool   `json:"consistent"`
}

// CommentRequest payload for creating or editing a comment.
type CommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

// CommentResponse is a comment with its author.
type CommentResponse struct {
	ID         string      `json:"id"`
	IssueID    string      `json:"issueId"`
	Text       string      `json:"text"`
	IsOfficial bool        `json:"isOfficial"`
	User       UserSummary `json:"user"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// GroupCountResponse is one bucket of a dashboard breakdown.
type GroupCountResponse struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// RecentIssueResponse is a dashboard row.
type RecentIssueResponse struct {
	ID           string               `json:"id"`
	Title        string               `json:"title"`
	Category     string               `json:"category"`
	Status       domain.IssueStatus   `json:"status"`
	Priority     domain.IssuePriority `json:"priority"`
	ReporterName string               `json:"reporterName"`
	CreatedAt    time.Time            `json:"createdAt"`
}

// DashboardResponse is the admin summary.
type DashboardResponse struct {
	Counts struct {
		Users    int64 `json:"users"`
		Issues   int64 `json:"issues"`
		Comments int64 `json:"comments"`
	} `json:"counts"`
	IssuesByStatus   []GroupCountResponse  `json:"issuesByStatus"`
	IssuesByCategory []GroupCountResponse  `json:"issuesByCategory"`
	RecentIssues     []RecentIssueResponse `json:"recentIssues"`
}
