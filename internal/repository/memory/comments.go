package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/citizencircle/civic-api/internal/domain"
)

// Comments implements repository.CommentRepository.
type Comments struct{ *Store }

func (r Comments) Create(_ context.Context, comment *domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[comment.IssueID]; !ok {
		return pgx.ErrNoRows
	}
	now := r.now()
	comment.ID = uuid.NewString()
	comment.CreatedAt, comment.UpdatedAt = now, now
	c := *comment
	r.comments[comment.ID] = &c
	return nil
}

func (r Comments) UpdateText(_ context.Context, id, text string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c.Text = text
	c.UpdatedAt = r.now()
	out := *c
	return &out, nil
}

func (r Comments) GetByID(_ context.Context, id string) (*domain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.comments[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := *c
	return &out, nil
}

func (r Comments) ListByIssue(_ context.Context, issueID string) ([]domain.CommentView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.CommentView
	for _, c := range r.comments {
		if c.IssueID == issueID {
			out = append(out, domain.CommentView{Comment: *c, Author: r.summary(c.UserID)})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r Comments) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.comments[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.comments, id)
	return nil
}
