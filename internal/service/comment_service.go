package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/events"
	"github.com/citizencircle/civic-api/internal/repository"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

// CommentService manages discussion on issues.
type CommentService struct {
	comments   repository.CommentRepository
	issues     repository.IssueRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewCommentService constructs the service.
func NewCommentService(comments repository.CommentRepository, issues repository.IssueRepository, dispatcher events.Dispatcher, logger *zap.Logger) *CommentService {
	return &CommentService{comments: comments, issues: issues, dispatcher: dispatcher, logger: logger}
}

// ListComments returns an issue's comments oldest first.
func (s *CommentService) ListComments(ctx context.Context, issueID string) ([]domain.CommentView, error) {
	if !validID(issueID) {
		return nil, apperrors.NewNotFound("issue", nil)
	}
	if _, err := s.issues.GetByID(ctx, issueID); err != nil {
		return nil, lookupErr(err, "issue")
	}
	return s.comments.ListByIssue(ctx, issueID)
}

// AddComment posts a comment. It is marked official when the author is an admin or
// official at the time of posting; later role changes do not alter it.
func (s *CommentService) AddComment(ctx context.Context, caller *auth.Principal, issueID, text string) (*domain.CommentView, error) {
	if caller == nil || caller.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("text is required", nil)
	}
	if !validID(issueID) {
		return nil, apperrors.NewNotFound("issue", nil)
	}
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, lookupErr(err, "issue")
	}

	comment := &domain.Comment{
		UserID:     caller.ID(),
		IssueID:    issueID,
		Text:       text,
		IsOfficial: caller.Role().IsElevated(),
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, lookupErr(err, "issue")
	}

	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventCommentAdded, issueID, actorOf(caller), events.CommentAddedPayload{
		CommentID:   comment.ID,
		ReporterID:  issue.ReporterID,
		IsOfficial:  comment.IsOfficial,
		TextPreview: stringPreview(comment.Text, 120),
	}))
	return &domain.CommentView{Comment: *comment, Author: summaryOf(caller.User)}, nil
}

// UpdateComment changes the text of a comment. Only its author may do this.
func (s *CommentService) UpdateComment(ctx context.Context, caller *auth.Principal, commentID, text string) (*domain.CommentView, error) {
	if caller == nil || caller.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apperrors.NewValidationError("text is required", nil)
	}
	comment, err := s.load(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != caller.ID() {
		return nil, apperrors.NewForbidden("only the author may edit a comment")
	}

	updated, err := s.comments.UpdateText(ctx, commentID, text)
	if err != nil {
		return nil, lookupErr(err, "comment")
	}
	return &domain.CommentView{Comment: *updated, Author: summaryOf(caller.User)}, nil
}

// DeleteComment removes a comment. The author or an elevated user may do this.
func (s *CommentService) DeleteComment(ctx context.Context, caller *auth.Principal, commentID string) error {
	if caller == nil || caller.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	comment, err := s.load(ctx, commentID)
	if err != nil {
		return err
	}
	if err := auth.RequireOwnerOrElevated(caller, comment.UserID); err != nil {
		return err
	}
	return lookupErr(s.comments.Delete(ctx, commentID), "comment")
}

func (s *CommentService) load(ctx context.Context, commentID string) (*domain.Comment, error) {
	if !validID(commentID) {
		return nil, apperrors.NewNotFound("comment", nil)
	}
	comment, err := s.comments.GetByID(ctx, commentID)
	if err != nil {
		return nil, lookupErr(err, "comment")
	}
	return comment, nil
}

func summaryOf(u *domain.User) domain.UserSummary {
	return domain.UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: u.Role}
}
