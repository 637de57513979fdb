package domain

import "time"

// Comment is a remark on an issue. IsOfficial is fixed from the author's role when posted.
type Comment struct {
	ID         string
	UserID     string
	IssueID    string
	Text       string
	IsOfficial bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CommentView annotates a comment with its author.
type CommentView struct {
	Comment
	Author UserSummary
}
