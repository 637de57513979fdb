package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/geo"
)

// IssueFilter captures public search parameters.
type IssueFilter struct {
	ReporterID *string
	Category   *string
	Status     *domain.IssueStatus
	SearchTerm *string
	Limit      int
	Offset     int
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	UpdateContent(ctx context.Context, issue *domain.Issue) error
	UpdateStatus(ctx context.Context, id string, status domain.IssueStatus, response *domain.OfficialResponse) (*domain.Issue, error)
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	GetView(ctx context.Context, id string) (*domain.IssueView, error)
	List(ctx context.Context, filter IssueFilter) ([]domain.IssueView, int64, error)
	ListWithinBox(ctx context.Context, box geo.BoundingBox) ([]domain.IssueView, error)
	AddImage(ctx context.Context, image *domain.IssueImage) error
	ListImages(ctx context.Context, issueID string) ([]domain.IssueImage, error)
	Delete(ctx context.Context, id string) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `i.id, i.user_id, i.title, i.description, i.category, i.address, i.longitude, i.latitude,
    i.status, i.priority, i.upvotes, i.downvotes, i.official_response, i.official_response_by,
    i.official_response_at, i.created_at, i.updated_at`

const issueViewSelect = `SELECT ` + issueColumns + `,
    u.name, u.avatar, u.role, r.name, r.role
    FROM issues i
    JOIN users u ON u.id = i.user_id
    LEFT JOIN users r ON r.id = i.official_response_by`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (user_id, title, description, category, address, longitude, latitude, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, upvotes, downvotes, created_at, updated_at`
	lng, lat := coordinateArgs(issue.Location.Coordinates)
	return r.pool.QueryRow(ctx, query,
		issue.ReporterID,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location.Address,
		lng,
		lat,
		issue.Status,
		issue.Priority,
	).Scan(&issue.ID, &issue.Upvotes, &issue.Downvotes, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) UpdateContent(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET title=$1, description=$2, category=$3, priority=$4, address=$5,
            longitude=$6, latitude=$7, updated_at=NOW()
        WHERE id=$8
        RETURNING updated_at`
	lng, lat := coordinateArgs(issue.Location.Coordinates)
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Priority,
		issue.Location.Address,
		lng,
		lat,
		issue.ID,
	).Scan(&issue.UpdatedAt)
}

// UpdateStatus writes the status and, when present, the official response in one statement.
func (r *issueRepository) UpdateStatus(ctx context.Context, id string, status domain.IssueStatus, response *domain.OfficialResponse) (*domain.Issue, error) {
	var (
		text        *string
		responderID *string
		respondedAt *time.Time
	)
	if response != nil {
		text = &response.Text
		responderID = &response.ResponderID
		respondedAt = &response.RespondedAt
	}

	const query = `
        UPDATE issues i SET status=$1,
            official_response=COALESCE($2, i.official_response),
            official_response_by=COALESCE($3::uuid, i.official_response_by),
            official_response_at=COALESCE($4, i.official_response_at),
            updated_at=NOW()
        WHERE i.id=$5
        RETURNING ` + issueColumns
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, status, text, responderID, respondedAt, id))
	if err != nil {
		return nil, err
	}
	images, err := r.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	issue.Images = images
	return issue, nil
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues i WHERE i.id=$1`
	issue, err := scanIssue(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	images, err := r.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	issue.Images = images
	return issue, nil
}

func (r *issueRepository) GetView(ctx context.Context, id string) (*domain.IssueView, error) {
	view, err := scanIssueView(r.pool.QueryRow(ctx, issueViewSelect+` WHERE i.id=$1`, id))
	if err != nil {
		return nil, err
	}
	images, err := r.ListImages(ctx, id)
	if err != nil {
		return nil, err
	}
	view.Images = images
	return view, nil
}

func (r *issueRepository) List(ctx context.Context, filter IssueFilter) ([]domain.IssueView, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterID != nil {
		args = append(args, *filter.ReporterID)
		clauses = append(clauses, fmt.Sprintf("i.user_id=$%d", len(args)))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("i.category=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("i.status=$%d", len(args)))
	}
	if filter.SearchTerm != nil && strings.TrimSpace(*filter.SearchTerm) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.SearchTerm)) + "%"
		args = append(args, search)
		clauses = append(clauses, fmt.Sprintf("(LOWER(i.title) LIKE $%d OR LOWER(i.description) LIKE $%d)", len(args), len(args)))
	}
	where := " WHERE " + strings.Join(clauses, " AND ")

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM issues i`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := issueViewSelect + where + " ORDER BY i.created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	views, err := r.queryViews(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

// ListWithinBox returns located issues inside box, newest first. Callers refine by exact distance.
func (r *issueRepository) ListWithinBox(ctx context.Context, box geo.BoundingBox) ([]domain.IssueView, error) {
	query := issueViewSelect + `
        WHERE i.latitude BETWEEN $1 AND $2
          AND (i.longitude BETWEEN $3 AND $4 OR i.longitude BETWEEN $5 AND $6)
        ORDER BY i.created_at DESC`
	first, second := box.LngRanges()
	return r.queryViews(ctx, query, box.MinLat, box.MaxLat, first[0], first[1], second[0], second[1])
}

func (r *issueRepository) AddImage(ctx context.Context, image *domain.IssueImage) error {
	const query = `
        INSERT INTO issue_images (issue_id, url, public_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query, image.IssueID, image.URL, image.PublicID).Scan(&image.ID, &image.CreatedAt)
}

func (r *issueRepository) ListImages(ctx context.Context, issueID string) ([]domain.IssueImage, error) {
	const query = `
        SELECT id, issue_id, url, public_id, created_at
        FROM issue_images WHERE issue_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IssueImage
	for rows.Next() {
		var img domain.IssueImage
		if err := rows.Scan(&img.ID, &img.IssueID, &img.URL, &img.PublicID, &img.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, img)
	}
	return result, rows.Err()
}

// Delete removes the issue; images, votes and comments cascade.
func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) queryViews(ctx context.Context, query string, args ...any) ([]domain.IssueView, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.IssueView
	for rows.Next() {
		view, err := scanIssueView(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *view)
	}
	return result, rows.Err()
}

func coordinateArgs(c *domain.Coordinates) (lng, lat *float64) {
	if c == nil {
		return nil, nil
	}
	return &c.Longitude, &c.Latitude
}

type issueRow struct {
	issue    domain.Issue
	lng, lat *float64
	respText *string
	respBy   *string
	respAt   *time.Time
}

func (row *issueRow) targets() []any {
	i := &row.issue
	return []any{
		&i.ID,
		&i.ReporterID,
		&i.Title,
		&i.Description,
		&i.Category,
		&i.Location.Address,
		&row.lng,
		&row.lat,
		&i.Status,
		&i.Priority,
		&i.Upvotes,
		&i.Downvotes,
		&row.respText,
		&row.respBy,
		&row.respAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	}
}

func (row *issueRow) finish() *domain.Issue {
	issue := row.issue
	if row.lng != nil && row.lat != nil {
		issue.Location.Coordinates = &domain.Coordinates{Longitude: *row.lng, Latitude: *row.lat}
	}
	if row.respText != nil {
		resp := &domain.OfficialResponse{Text: *row.respText}
		if row.respBy != nil {
			resp.ResponderID = *row.respBy
		}
		if row.respAt != nil {
			resp.RespondedAt = *row.respAt
		}
		issue.Response = resp
	}
	return &issue
}

func scanIssue(row pgx.Row) (*domain.Issue, error) {
	var r issueRow
	if err := row.Scan(r.targets()...); err != nil {
		return nil, err
	}
	return r.finish(), nil
}

func scanIssueView(row pgx.Row) (*domain.IssueView, error) {
	var (
		r             issueRow
		reporter      domain.UserSummary
		responderName *string
		responderRole *domain.Role
	)
	targets := append(r.targets(), &reporter.Name, &reporter.Avatar, &reporter.Role, &responderName, &responderRole)
	if err := row.Scan(targets...); err != nil {
		return nil, err
	}

	view := &domain.IssueView{Issue: *r.finish()}
	reporter.ID = view.ReporterID
	view.Reporter = reporter
	if view.Response != nil && view.Response.ResponderID != "" && responderName != nil {
		responder := &domain.UserSummary{ID: view.Response.ResponderID, Name: *responderName}
		if responderRole != nil {
			responder.Role = *responderRole
		}
		view.Responder = responder
	}
	return view, nil
}
