package domain

import "time"

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteTypeUpvote   VoteType = "upvote"
	VoteTypeDownvote VoteType = "downvote"
)

// Valid reports whether t is upvote or downvote.
func (t VoteType) Valid() bool {
	switch t {
	case VoteTypeUpvote, VoteTypeDownvote:
		return true
	}
	return false
}

// Deltas returns the upvote and downvote counter changes for adding one vote of t.
func (t VoteType) Deltas() (up, down int) {
	switch t {
	case VoteTypeUpvote:
		return 1, 0
	case VoteTypeDownvote:
		return 0, 1
	}
	return 0, 0
}

// Vote is one user's preference on one issue. At most one exists per (UserID, IssueID).
type Vote struct {
	ID        string
	UserID    string
	IssueID   string
	Type      VoteType
	CreatedAt time.Time
	UpdatedAt time.Time
}

// VoteWithVoter annotates a vote with the voter's display name.
type VoteWithVoter struct {
	Vote
	VoterName string
}

// IssueSummary is the short issue card shown in a user's vote history.
type IssueSummary struct {
	ID       string
	Title    string
	Status   IssueStatus
	Category string
}

// VoteWithIssue annotates a vote with the issue it was cast on.
type VoteWithIssue struct {
	Vote
	Issue IssueSummary
}

// TallyAudit compares stored counters with a recount of vote records.
type TallyAudit struct {
	IssueID         string
	StoredUpvotes   int
	StoredDownvotes int
	CountedUp       int
	CountedDown     int
}

// Consistent reports whether the stored counters match the recount.
func (a TallyAudit) Consistent() bool {
	return a.StoredUpvotes == a.CountedUp && a.StoredDownvotes == a.CountedDown
}
