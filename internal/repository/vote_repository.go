package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citizencircle/civic-api/internal/domain"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

var (
	// ErrDuplicateVote is returned when the (user, issue) uniqueness constraint rejects an insert.
	ErrDuplicateVote = errors.New("vote already exists for user and issue")
	// ErrVoteChanged is returned when a flip finds the vote no longer holds the expected type.
	ErrVoteChanged = errors.New("vote changed concurrently")
)

// VoteRepository persists votes together with the issue counters they drive.
type VoteRepository interface {
	FindByUserAndIssue(ctx context.Context, userID, issueID string) (*domain.Vote, error)
	CreateWithTally(ctx context.Context, vote *domain.Vote) (*domain.Issue, error)
	FlipWithTally(ctx context.Context, vote *domain.Vote, to domain.VoteType) (*domain.Issue, error)
	ListByIssue(ctx context.Context, issueID string) ([]domain.VoteWithVoter, error)
	ListByUser(ctx context.Context, userID string) ([]domain.VoteWithIssue, error)
	Tally(ctx context.Context, issueID string) (up, down int, err error)
}

type voteRepository struct {
	pool *pgxpool.Pool
}

// NewVoteRepository instantiates repository.
func NewVoteRepository(pool *pgxpool.Pool) VoteRepository {
	return &voteRepository{pool: pool}
}

func (r *voteRepository) FindByUserAndIssue(ctx context.Context, userID, issueID string) (*domain.Vote, error) {
	const query = `
        SELECT id, user_id, issue_id, type, created_at, updated_at
        FROM votes WHERE user_id=$1 AND issue_id=$2`
	var vote domain.Vote
	if err := r.pool.QueryRow(ctx, query, userID, issueID).Scan(
		&vote.ID,
		&vote.UserID,
		&vote.IssueID,
		&vote.Type,
		&vote.CreatedAt,
		&vote.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &vote, nil
}

// CreateWithTally inserts the vote and bumps the matching counter in one transaction.
func (r *voteRepository) CreateWithTally(ctx context.Context, vote *domain.Vote) (*domain.Issue, error) {
	var issue *domain.Issue
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		const insert = `
            INSERT INTO votes (user_id, issue_id, type)
            VALUES ($1,$2,$3)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, insert, vote.UserID, vote.IssueID, vote.Type).
			Scan(&vote.ID, &vote.CreatedAt, &vote.UpdatedAt); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return ErrDuplicateVote
			}
			return err
		}

		up, down := vote.Type.Deltas()
		var err error
		issue, err = applyTally(ctx, tx, vote.IssueID, up, down)
		return err
	})
	if err != nil {
		return nil, err
	}
	return issue, nil
}

// FlipWithTally switches vote to the opposite type, moving one count between the counters.
// The update is conditional on the stored type still being vote.Type.
func (r *voteRepository) FlipWithTally(ctx context.Context, vote *domain.Vote, to domain.VoteType) (*domain.Issue, error) {
	var issue *domain.Issue
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		const flip = `
            UPDATE votes SET type=$1, updated_at=NOW()
            WHERE id=$2 AND type=$3
            RETURNING updated_at`
		if err := tx.QueryRow(ctx, flip, to, vote.ID, vote.Type).Scan(&vote.UpdatedAt); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrVoteChanged
			}
			return err
		}

		oldUp, oldDown := vote.Type.Deltas()
		newUp, newDown := to.Deltas()
		var err error
		issue, err = applyTally(ctx, tx, vote.IssueID, newUp-oldUp, newDown-oldDown)
		return err
	})
	if err != nil {
		return nil, err
	}
	vote.Type = to
	return issue, nil
}

func (r *voteRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.VoteWithVoter, error) {
	const query = `
        SELECT v.id, v.user_id, v.issue_id, v.type, v.created_at, v.updated_at, u.name
        FROM votes v JOIN users u ON u.id = v.user_id
        WHERE v.issue_id=$1
        ORDER BY v.created_at DESC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.VoteWithVoter
	for rows.Next() {
		var v domain.VoteWithVoter
		if err := rows.Scan(&v.ID, &v.UserID, &v.IssueID, &v.Type, &v.CreatedAt, &v.UpdatedAt, &v.VoterName); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

func (r *voteRepository) ListByUser(ctx context.Context, userID string) ([]domain.VoteWithIssue, error) {
	const query = `
        SELECT v.id, v.user_id, v.issue_id, v.type, v.created_at, v.updated_at,
               i.id, i.title, i.status, i.category
        FROM votes v JOIN issues i ON i.id = v.issue_id
        WHERE v.user_id=$1
        ORDER BY v.created_at DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.VoteWithIssue
	for rows.Next() {
		var v domain.VoteWithIssue
		if err := rows.Scan(
			&v.ID, &v.UserID, &v.IssueID, &v.Type, &v.CreatedAt, &v.UpdatedAt,
			&v.Issue.ID, &v.Issue.Title, &v.Issue.Status, &v.Issue.Category,
		); err != nil {
			return nil, err
		}
		result = append(result, v)
	}
	return result, rows.Err()
}

// Tally recounts vote records for an issue.
func (r *voteRepository) Tally(ctx context.Context, issueID string) (up, down int, err error) {
	const query = `
        SELECT COUNT(*) FILTER (WHERE type='upvote'), COUNT(*) FILTER (WHERE type='downvote')
        FROM votes WHERE issue_id=$1`
	err = r.pool.QueryRow(ctx, query, issueID).Scan(&up, &down)
	return up, down, err
}

func (r *voteRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func applyTally(ctx context.Context, tx pgx.Tx, issueID string, up, down int) (*domain.Issue, error) {
	query := `
        UPDATE issues i SET upvotes = i.upvotes + $1, downvotes = i.downvotes + $2
        WHERE i.id=$3
        RETURNING ` + issueColumns
	return scanIssue(tx.QueryRow(ctx, query, up, down, issueID))
}
