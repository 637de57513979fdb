package memory

import (
	"context"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/geo"
	"github.com/citizencircle/civic-api/internal/repository"
)

// Issues implements repository.IssueRepository.
type Issues struct{ *Store }

func (r Issues) Create(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[issue.ReporterID]; !ok {
		return pgx.ErrNoRows
	}
	now := r.now()
	issue.ID = uuid.NewString()
	issue.Upvotes, issue.Downvotes = 0, 0
	issue.CreatedAt, issue.UpdatedAt = now, now
	c := cloneIssue(issue)
	r.issues[issue.ID] = &c
	return nil
}

func (r Issues) UpdateContent(_ context.Context, issue *domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[issue.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	stored.Title, stored.Description = issue.Title, issue.Description
	stored.Category, stored.Priority = issue.Category, issue.Priority
	stored.Location = cloneIssue(issue).Location
	stored.UpdatedAt = r.now()
	issue.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r Issues) UpdateStatus(_ context.Context, id string, status domain.IssueStatus, response *domain.OfficialResponse) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	stored.Status = status
	if response != nil {
		resp := *response
		stored.Response = &resp
	}
	stored.UpdatedAt = r.now()
	c := cloneIssue(stored)
	return &c, nil
}

func (r Issues) GetByID(_ context.Context, id string) (*domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c := cloneIssue(stored)
	return &c, nil
}

func (r Issues) GetView(_ context.Context, id string) (*domain.IssueView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	v := r.view(stored)
	return &v, nil
}

// newest returns matching issues as views, newest first. Callers hold the lock.
func (r Issues) newest(keep func(*domain.Issue) bool) []domain.IssueView {
	var all []*domain.Issue
	for _, i := range r.issues {
		if keep(i) {
			all = append(all, i)
		}
	}
	sort.Slice(all, func(a, b int) bool { return all[a].CreatedAt.After(all[b].CreatedAt) })
	out := make([]domain.IssueView, 0, len(all))
	for _, i := range all {
		out = append(out, r.view(i))
	}
	return out
}

func (r Issues) List(_ context.Context, filter repository.IssueFilter) ([]domain.IssueView, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	views := r.newest(func(i *domain.Issue) bool {
		if filter.ReporterID != nil && i.ReporterID != *filter.ReporterID {
			return false
		}
		if filter.Category != nil && i.Category != *filter.Category {
			return false
		}
		if filter.Status != nil && i.Status != *filter.Status {
			return false
		}
		if filter.SearchTerm != nil {
			term := strings.ToLower(strings.TrimSpace(*filter.SearchTerm))
			if !strings.Contains(strings.ToLower(i.Title), term) && !strings.Contains(strings.ToLower(i.Description), term) {
				return false
			}
		}
		return true
	})
	total := int64(len(views))
	if filter.Offset > 0 {
		if filter.Offset >= len(views) {
			views = nil
		} else {
			views = views[filter.Offset:]
		}
	}
	if filter.Limit > 0 && len(views) > filter.Limit {
		views = views[:filter.Limit]
	}
	return views, total, nil
}

func (r Issues) ListWithinBox(_ context.Context, box geo.BoundingBox) ([]domain.IssueView, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newest(func(i *domain.Issue) bool {
		c := i.Location.Coordinates
		return c != nil && box.Contains(c.Longitude, c.Latitude)
	}), nil
}

func (r Issues) AddImage(_ context.Context, image *domain.IssueImage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[image.IssueID]
	if !ok {
		return pgx.ErrNoRows
	}
	image.ID = uuid.NewString()
	image.CreatedAt = r.now()
	stored.Images = append(stored.Images, *image)
	return nil
}

func (r Issues) ListImages(_ context.Context, issueID string) ([]domain.IssueImage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.issues[issueID]
	if !ok {
		return nil, nil
	}
	return append([]domain.IssueImage(nil), stored.Images...), nil
}

// Delete removes the issue with its votes and comments.
func (r Issues) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.issues[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.issues, id)
	for vid, v := range r.votes {
		if v.IssueID == id {
			delete(r.votes, vid)
		}
	}
	for cid, c := range r.comments {
		if c.IssueID == id {
			delete(r.comments, cid)
		}
	}
	return nil
}

