// Package memory implements the repository interfaces on process memory. It backs the
// API when no Postgres DSN is configured and doubles as a fixture for tests.
package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/citizencircle/civic-api/internal/domain"
)

// Store holds every collection behind one mutex, which gives the vote and status
// writes the same all-or-nothing behaviour as a Postgres transaction.
type Store struct {
	mu       sync.Mutex
	last     time.Time
	users    map[string]*domain.User
	issues   map[string]*domain.Issue
	votes    map[string]*domain.Vote
	comments map[string]*domain.Comment

	beforeVoteLookup func()
}

// Option configures a Store.
type Option func(*Store)

// WithVoteLookupHook runs fn outside the lock before every vote lookup.
// Test-only: it lets a test hold concurrent first votes at the same point.
// cmd/api never sets it.
func WithVoteLookupHook(fn func()) Option {
	return func(s *Store) { s.beforeVoteLookup = fn }
}

// NewStore returns an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		users:    map[string]*domain.User{},
		issues:   map[string]*domain.Issue{},
		votes:    map[string]*domain.Vote{},
		comments: map[string]*domain.Comment{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Users returns the user repository view of s.
func (s *Store) Users() Users { return Users{s} }

// Issues returns the issue repository view of s.
func (s *Store) Issues() Issues { return Issues{s} }

// Votes returns the vote repository view of s.
func (s *Store) Votes() Votes { return Votes{s} }

// Comments returns the comment repository view of s.
func (s *Store) Comments() Comments { return Comments{s} }

// Dashboard returns the dashboard repository view of s.
func (s *Store) Dashboard() Dashboard { return Dashboard{s} }

// now hands out strictly increasing timestamps so newest-first ordering is total.
func (s *Store) now() time.Time {
	t := time.Now().UTC()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}

// SeedUser inserts an account directly, bypassing registration.
func (s *Store) SeedUser(name string, role domain.Role) *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	u := &domain.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     strings.ToLower(name) + "@example.org",
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.users[u.ID] = u
	c := *u
	return &c
}

// SeedIssue inserts an issue directly.
func (s *Store) SeedIssue(reporter *domain.User, title, category string, status domain.IssueStatus, coords *domain.Coordinates) *domain.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	i := &domain.Issue{
		ID:          uuid.NewString(),
		ReporterID:  reporter.ID,
		Title:       title,
		Description: title + " description",
		Category:    category,
		Location:    domain.Location{Address: "1 Main St", Coordinates: coords},
		Status:      status,
		Priority:    domain.IssuePriorityMedium,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.issues[i.ID] = i
	c := cloneIssue(i)
	return &c
}

// Issue returns a copy of the stored issue, or the zero value.
func (s *Store) Issue(id string) domain.Issue {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.issues[id]
	if !ok {
		return domain.Issue{}
	}
	return cloneIssue(i)
}

// SetCounters overwrites an issue's stored counters without touching votes.
func (s *Store) SetCounters(id string, up, down int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, ok := s.issues[id]; ok {
		i.Upvotes, i.Downvotes = up, down
	}
}

func cloneIssue(i *domain.Issue) domain.Issue {
	c := *i
	c.Images = append([]domain.IssueImage(nil), i.Images...)
	if i.Response != nil {
		r := *i.Response
		c.Response = &r
	}
	if i.Location.Coordinates != nil {
		coords := *i.Location.Coordinates
		c.Location.Coordinates = &coords
	}
	return c
}

func (s *Store) summary(userID string) domain.UserSummary {
	u := s.users[userID]
	if u == nil {
		return domain.UserSummary{ID: userID}
	}
	return domain.UserSummary{ID: u.ID, Name: u.Name, Avatar: u.Avatar, Role: u.Role}
}

func (s *Store) view(i *domain.Issue) domain.IssueView {
	v := domain.IssueView{Issue: cloneIssue(i), Reporter: s.summary(i.ReporterID)}
	if i.Response != nil && i.Response.ResponderID != "" {
		r := s.summary(i.Response.ResponderID)
		v.Responder = &r
	}
	return v
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint, Message: "duplicate key value violates unique constraint"}
}
