package service

import (
	"context"

	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/repository"
)

const recentIssueCount = 10

// DashboardService builds the administrative summary.
type DashboardService struct {
	repo repository.DashboardRepository
}

// NewDashboardService constructs the service.
func NewDashboardService(repo repository.DashboardRepository) *DashboardService {
	return &DashboardService{repo: repo}
}

// Build returns totals, issue breakdowns by status and category, and the newest issues.
// Each part is read independently; the snapshot is not transactional.
func (s *DashboardService) Build(ctx context.Context, caller *auth.Principal) (*domain.Dashboard, error) {
	if err := auth.RequireElevated(caller); err != nil {
		return nil, err
	}

	counts, err := s.repo.Counts(ctx)
	if err != nil {
		return nil, err
	}
	byStatus, err := s.repo.GroupIssues(ctx, repository.GroupByStatus)
	if err != nil {
		return nil, err
	}
	byCategory, err := s.repo.GroupIssues(ctx, repository.GroupByCategory)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.RecentIssues(ctx, recentIssueCount)
	if err != nil {
		return nil, err
	}

	return &domain.Dashboard{
		Counts:           counts,
		IssuesByStatus:   nonNilGroups(byStatus),
		IssuesByCategory: nonNilGroups(byCategory),
		RecentIssues:     nonNilRecent(recent),
	}, nil
}

func nonNilGroups(g []domain.GroupCount) []domain.GroupCount {
	if g == nil {
		return []domain.GroupCount{}
	}
	return g
}

func nonNilRecent(r []domain.RecentIssue) []domain.RecentIssue {
	if r == nil {
		return []domain.RecentIssue{}
	}
	return r
}
