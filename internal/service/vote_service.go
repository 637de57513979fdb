package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/events"
	"github.com/citizencircle/civic-api/internal/repository"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

// VoteResult is the caller's vote and the issue counters after casting it.
type VoteResult struct {
	Vote  *domain.Vote
	Issue *domain.Issue
}

// VoteService maintains the vote ledger. Issue counters only change in the same
// transaction as the vote record that justifies them.
type VoteService struct {
	votes      repository.VoteRepository
	issues     repository.IssueRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewVoteService constructs the service.
func NewVoteService(votes repository.VoteRepository, issues repository.IssueRepository, dispatcher events.Dispatcher, logger *zap.Logger) *VoteService {
	return &VoteService{votes: votes, issues: issues, dispatcher: dispatcher, logger: logger}
}

// CastVote records or changes the caller's vote on an issue.
//
// Repeating the current vote is a no-op. Switching direction moves one count from one
// counter to the other. When two first votes from the same user race, the loser gets
// a DuplicateVote error and the counters reflect exactly one vote.
func (s *VoteService) CastVote(ctx context.Context, caller *auth.Principal, issueID string, voteType domain.VoteType) (*VoteResult, error) {
	if caller == nil || caller.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !voteType.Valid() {
		return nil, apperrors.NewValidationError("invalid vote type", map[string]any{"type": voteType})
	}
	if !validID(issueID) {
		return nil, apperrors.NewNotFound("issue", nil)
	}

	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, lookupErr(err, "issue")
	}

	existing, err := s.votes.FindByUserAndIssue(ctx, caller.ID(), issueID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		vote := &domain.Vote{UserID: caller.ID(), IssueID: issueID, Type: voteType}
		updated, err := s.votes.CreateWithTally(ctx, vote)
		if err != nil {
			return nil, s.voteErr(err, issueID)
		}
		updated.Images = issue.Images
		s.emit(ctx, caller, vote, updated, false)
		return &VoteResult{Vote: vote, Issue: updated}, nil
	case err != nil:
		return nil, err
	}

	if existing.Type == voteType {
		return &VoteResult{Vote: existing, Issue: issue}, nil
	}

	updated, err := s.votes.FlipWithTally(ctx, existing, voteType)
	if err != nil {
		return nil, s.voteErr(err, issueID)
	}
	updated.Images = issue.Images
	s.emit(ctx, caller, existing, updated, true)
	return &VoteResult{Vote: existing, Issue: updated}, nil
}

// ListIssueVotes returns the votes on an issue with voter names.
func (s *VoteService) ListIssueVotes(ctx context.Context, issueID string) ([]domain.VoteWithVoter, error) {
	if !validID(issueID) {
		return nil, apperrors.NewNotFound("issue", nil)
	}
	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, lookupErr(err, "issue")
	}
	return s.votes.ListByIssue(ctx, issueID)
}

// ListMyVotes returns the caller's votes with a summary of each issue.
func (s *VoteService) ListMyVotes(ctx context.Context, caller *auth.Principal) ([]domain.VoteWithIssue, error) {
	if caller == nil || caller.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return s.votes.ListByUser(ctx, caller.ID())
}

// AuditTally recounts an issue's votes and compares them with the stored counters.
// Nothing is modified.
func (s *VoteService) AuditTally(ctx context.Context, caller *auth.Principal, issueID string) (*domain.TallyAudit, error) {
	if err := auth.RequireElevated(caller); err != nil {
		return nil, err
	}
	if !validID(issueID) {
		return nil, apperrors.NewNotFound("issue", nil)
	}
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, lookupErr(err, "issue")
	}
	up, down, err := s.votes.Tally(ctx, issueID)
	if err != nil {
		return nil, err
	}
	audit := &domain.TallyAudit{
		IssueID:         issueID,
		StoredUpvotes:   issue.Upvotes,
		StoredDownvotes: issue.Downvotes,
		CountedUp:       up,
		CountedDown:     down,
	}
	if !audit.Consistent() && s.logger != nil {
		s.logger.Warn("vote tally drift",
			zap.String("issue_id", issueID),
			zap.Int("stored_up", audit.StoredUpvotes),
			zap.Int("counted_up", audit.CountedUp),
			zap.Int("stored_down", audit.StoredDownvotes),
			zap.Int("counted_down", audit.CountedDown))
	}
	return audit, nil
}

func (s *VoteService) voteErr(err error, issueID string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateVote):
		return apperrors.NewDuplicateVote(issueID)
	case errors.Is(err, repository.ErrVoteChanged):
		return apperrors.NewConflict("vote changed concurrently, retry", map[string]any{"issue_id": issueID})
	}
	return lookupErr(err, "issue")
}

func (s *VoteService) emit(ctx context.Context, caller *auth.Principal, vote *domain.Vote, issue *domain.Issue, changed bool) {
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventVoteCast, vote.IssueID, actorOf(caller), events.VoteCastPayload{
		Type:      vote.Type,
		Upvotes:   issue.Upvotes,
		Downvotes: issue.Downvotes,
		Changed:   changed,
	}))
}
