package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citizencircle/civic-api/internal/domain"
)

// CommentRepository stores remarks on issues.
type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	UpdateText(ctx context.Context, id, text string) (*domain.Comment, error)
	GetByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByIssue(ctx context.Context, issueID string) ([]domain.CommentView, error)
	Delete(ctx context.Context, id string) error
}

type commentRepository struct {
	pool *pgxpool.Pool
}

// NewCommentRepository creates repository.
func NewCommentRepository(pool *pgxpool.Pool) CommentRepository {
	return &commentRepository{pool: pool}
}

func (r *commentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	const query = `
        INSERT INTO comments (user_id, issue_id, text, is_official)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		comment.UserID,
		comment.IssueID,
		comment.Text,
		comment.IsOfficial,
	).Scan(&comment.ID, &comment.CreatedAt, &comment.UpdatedAt)
}

func (r *commentRepository) UpdateText(ctx context.Context, id, text string) (*domain.Comment, error) {
	const query = `
        UPDATE comments SET text=$1, updated_at=NOW() WHERE id=$2
        RETURNING id, user_id, issue_id, text, is_official, created_at, updated_at`
	return scanComment(r.pool.QueryRow(ctx, query, text, id))
}

func (r *commentRepository) GetByID(ctx context.Context, id string) (*domain.Comment, error) {
	const query = `
        SELECT id, user_id, issue_id, text, is_official, created_at, updated_at
        FROM comments WHERE id=$1`
	return scanComment(r.pool.QueryRow(ctx, query, id))
}

// ListByIssue returns comments oldest first with their authors.
func (r *commentRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.CommentView, error) {
	const query = `
        SELECT c.id, c.user_id, c.issue_id, c.text, c.is_official, c.created_at, c.updated_at,
               u.name, u.avatar, u.role
        FROM comments c JOIN users u ON u.id = c.user_id
        WHERE c.issue_id=$1
        ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.CommentView
	for rows.Next() {
		var c domain.CommentView
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.IssueID, &c.Text, &c.IsOfficial, &c.CreatedAt, &c.UpdatedAt,
			&c.Author.Name, &c.Author.Avatar, &c.Author.Role,
		); err != nil {
			return nil, err
		}
		c.Author.ID = c.UserID
		result = append(result, c)
	}
	return result, rows.Err()
}

func (r *commentRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func scanComment(row pgx.Row) (*domain.Comment, error) {
	var c domain.Comment
	if err := row.Scan(&c.ID, &c.UserID, &c.IssueID, &c.Text, &c.IsOfficial, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
