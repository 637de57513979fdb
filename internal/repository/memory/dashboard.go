package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/repository"
)

// Dashboard implements repository.DashboardRepository.
type Dashboard struct{ *Store }

func (r Dashboard) Counts(context.Context) (domain.Counts, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return domain.Counts{
		Users:    int64(len(r.users)),
		Issues:   int64(len(r.issues)),
		Comments: int64(len(r.comments)),
	}, nil
}

func (r Dashboard) GroupIssues(_ context.Context, by repository.IssueGrouping) ([]domain.GroupCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	counts := map[string]int64{}
	for _, i := range r.issues {
		switch by {
		case repository.GroupByStatus:
			counts[string(i.Status)]++
		case repository.GroupByCategory:
			counts[i.Category]++
		default:
			return nil, fmt.Errorf("unsupported issue grouping %q", by)
		}
	}
	out := make([]domain.GroupCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, domain.GroupCount{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (r Dashboard) RecentIssues(_ context.Context, limit int) ([]domain.RecentIssue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := Issues{r.Store}.newest(func(*domain.Issue) bool { return true })
	if len(views) > limit {
		views = views[:limit]
	}
	out := make([]domain.RecentIssue, 0, len(views))
	for _, v := range views {
		out = append(out, domain.RecentIssue{
			ID: v.ID, Title: v.Title, Category: v.Category, Status: v.Status,
			Priority: v.Priority, ReporterName: v.Reporter.Name, CreatedAt: v.CreatedAt,
		})
	}
	return out, nil
}
