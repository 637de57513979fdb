package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/citizencircle/civic-api/internal/domain"
)

// IssueGrouping names an issue column the dashboard may group by.
type IssueGrouping string

const (
	GroupByStatus   IssueGrouping = "status"
	GroupByCategory IssueGrouping = "category"
)

// DashboardRepository runs the read-only aggregate queries behind the admin dashboard.
type DashboardRepository interface {
	Counts(ctx context.Context) (domain.Counts, error)
	GroupIssues(ctx context.Context, by IssueGrouping) ([]domain.GroupCount, error)
	RecentIssues(ctx context.Context, limit int) ([]domain.RecentIssue, error)
}

type dashboardRepository struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository instantiates repository.
func NewDashboardRepository(pool *pgxpool.Pool) DashboardRepository {
	return &dashboardRepository{pool: pool}
}

func (r *dashboardRepository) Counts(ctx context.Context) (domain.Counts, error) {
	const query = `
        SELECT (SELECT COUNT(*) FROM users),
               (SELECT COUNT(*) FROM issues),
               (SELECT COUNT(*) FROM comments)`
	var c domain.Counts
	err := r.pool.QueryRow(ctx, query).Scan(&c.Users, &c.Issues, &c.Comments)
	return c, err
}

func (r *dashboardRepository) GroupIssues(ctx context.Context, by IssueGrouping) ([]domain.GroupCount, error) {
	switch by {
	case GroupByStatus, GroupByCategory:
	default:
		return nil, fmt.Errorf("unsupported issue grouping %q", by)
	}

	query := fmt.Sprintf(`SELECT %[1]s, COUNT(*) FROM issues GROUP BY %[1]s ORDER BY %[1]s`, by)
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.GroupCount
	for rows.Next() {
		var g domain.GroupCount
		if err := rows.Scan(&g.Key, &g.Count); err != nil {
			return nil, err
		}
		result = append(result, g)
	}
	return result, rows.Err()
}

// RecentIssues returns the newest issues with only the reporter's name attached.
func (r *dashboardRepository) RecentIssues(ctx context.Context, limit int) ([]domain.RecentIssue, error) {
	const query = `
        SELECT i.id, i.title, i.category, i.status, i.priority, u.name, i.created_at
        FROM issues i JOIN users u ON u.id = i.user_id
        ORDER BY i.created_at DESC
        LIMIT $1`
	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.RecentIssue
	for rows.Next() {
		var ri domain.RecentIssue
		if err := rows.Scan(&ri.ID, &ri.Title, &ri.Category, &ri.Status, &ri.Priority, &ri.ReporterName, &ri.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, ri)
	}
	return result, rows.Err()
}
