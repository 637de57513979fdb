package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/repository"
)

// Votes implements repository.VoteRepository.
type Votes struct{ *Store }

func (r Votes) FindByUserAndIssue(_ context.Context, userID, issueID string) (*domain.Vote, error) {
	if r.beforeVoteLookup != nil {
		r.beforeVoteLookup()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.votes {
		if v.UserID == userID && v.IssueID == issueID {
			c := *v
			return &c, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r Votes) CreateWithTally(_ context.Context, vote *domain.Vote) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	issue, ok := r.issues[vote.IssueID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	for _, v := range r.votes {
		if v.UserID == vote.UserID && v.IssueID == vote.IssueID {
			return nil, repository.ErrDuplicateVote
		}
	}
	now := r.now()
	vote.ID = uuid.NewString()
	vote.CreatedAt, vote.UpdatedAt = now, now
	c := *vote
	r.votes[vote.ID] = &c

	up, down := vote.Type.Deltas()
	issue.Upvotes += up
	issue.Downvotes += down
	out := cloneIssue(issue)
	return &out, nil
}

func (r Votes) FlipWithTally(_ context.Context, vote *domain.Vote, to domain.VoteType) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.votes[vote.ID]
	if !ok || stored.Type != vote.Type {
		return nil, repository.ErrVoteChanged
	}
	issue, ok := r.issues[vote.IssueID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	oldUp, oldDown := vote.Type.Deltas()
	newUp, newDown := to.Deltas()
	issue.Upvotes += newUp - oldUp
	issue.Downvotes += newDown - oldDown

	stored.Type = to
	stored.UpdatedAt = r.now()
	vote.Type = to
	vote.UpdatedAt = stored.UpdatedAt
	out := cloneIssue(issue)
	return &out, nil
}

func (r Votes) ListByIssue(_ context.Context, issueID string) ([]domain.VoteWithVoter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.VoteWithVoter
	for _, v := range r.votes {
		if v.IssueID == issueID {
			out = append(out, domain.VoteWithVoter{Vote: *v, VoterName: r.summary(v.UserID).Name})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r Votes) ListByUser(_ context.Context, userID string) ([]domain.VoteWithIssue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.VoteWithIssue
	for _, v := range r.votes {
		if v.UserID != userID {
			continue
		}
		i, ok := r.issues[v.IssueID]
		if !ok {
			continue
		}
		out = append(out, domain.VoteWithIssue{Vote: *v, Issue: domain.IssueSummary{
			ID: i.ID, Title: i.Title, Status: i.Status, Category: i.Category,
		}})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r Votes) Tally(_ context.Context, issueID string) (int, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	up, down := 0, 0
	for _, v := range r.votes {
		if v.IssueID != issueID {
			continue
		}
		u, d := v.Type.Deltas()
		up += u
		down += d
	}
	return up, down, nil
}
