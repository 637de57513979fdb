package domain

import "time"

// Counts holds independent collection totals.
type Counts struct {
	Users    int64
	Issues   int64
	Comments int64
}

// GroupCount is one bucket of a group-by.
type GroupCount struct {
	Key   string
	Count int64
}

// RecentIssue is a dashboard row; only the reporter's name is exposed.
type RecentIssue struct {
	ID           string
	Title        string
	Category     string
	Status       IssueStatus
	Priority     IssuePriority
	ReporterName string
	CreatedAt    time.Time
}

// Dashboard is the administrative summary.
type Dashboard struct {
	Counts           Counts
	IssuesByStatus   []GroupCount
	IssuesByCategory []GroupCount
	RecentIssues     []RecentIssue
}
