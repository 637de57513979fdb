package service

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/events"
	"github.com/citizencircle/civic-api/internal/repository/memory"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

func principal(u *domain.User) *auth.Principal {
	c := *u
	return &auth.Principal{User: &c}
}

func requireDomainError(t *testing.T, err error, code string, status int) {
	t.Helper()
	var de *apperrors.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %v", err)
	assert.Equal(t, code, de.Code)
	assert.Equal(t, status, de.HTTPStatus)
}

func newVoteFixture() (*memory.Store, *VoteService, *recordingDispatcher) {
	store := memory.NewStore()
	dispatcher := &recordingDispatcher{}
	svc := NewVoteService(store.Votes(), store.Issues(), dispatcher, nil)
	return store, svc, dispatcher
}

func assertCountersMatchVotes(t *testing.T, store *memory.Store, issueID string) {
	t.Helper()
	up, down, err := store.Votes().Tally(context.Background(), issueID)
	require.NoError(t, err)
	issue := store.Issue(issueID)
	assert.Equal(t, up, issue.Upvotes, "upvotes")
	assert.Equal(t, down, issue.Downvotes, "downvotes")
}

func TestCastVoteFirstVoteIncrementsCounter(t *testing.T) {
	store, svc, dispatcher := newVoteFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	voter := store.SeedUser("Vic", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)

	res, err := svc.CastVote(context.Background(), principal(voter), issue.ID, domain.VoteTypeUpvote)
	require.NoError(t, err)
	assert.Equal(t, domain.VoteTypeUpvote, res.Vote.Type)
	assert.Equal(t, 1, res.Issue.Upvotes)
	assert.Equal(t, 0, res.Issue.Downvotes)
	assertCountersMatchVotes(t, store, issue.ID)
	assert.Len(t, dispatcher.ofType(events.EventVoteCast), 1)
}

func TestCastVoteRepeatIsIdempotent(t *testing.T) {
	store, svc, dispatcher := newVoteFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	voter := store.SeedUser("Vic", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	ctx := context.Background()

	first, err := svc.CastVote(ctx, principal(voter), issue.ID, domain.VoteTypeDownvote)
	require.NoError(t, err)
	second, err := svc.CastVote(ctx, principal(voter), issue.ID, domain.VoteTypeDownvote)
	require.NoError(t, err)

	assert.Equal(t, first.Vote.ID, second.Vote.ID)
	assert.Equal(t, 0, second.Issue.Upvotes)
	assert.Equal(t, 1, second.Issue.Downvotes)
	assertCountersMatchVotes(t, store, issue.ID)
	assert.Len(t, dispatcher.ofType(events.EventVoteCast), 1)
}

func TestCastVoteAlternationMovesOneCount(t *testing.T) {
	store, svc, _ := newVoteFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	voter := store.SeedUser("Vic", domain.RoleUser)
	other := store.SeedUser("Oli", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Broken light", "lighting", domain.IssueStatusReported, nil)
	ctx := context.Background()

	_, err := svc.CastVote(ctx, principal(other), issue.ID, domain.VoteTypeUpvote)
	require.NoError(t, err)

	sequence := []domain.VoteType{
		domain.VoteTypeUpvote, domain.VoteTypeDownvote, domain.VoteTypeUpvote, domain.VoteTypeDownvote,
	}
	for _, vt := range sequence {
		res, err := svc.CastVote(ctx, principal(voter), issue.ID, vt)
		require.NoError(t, err)
		assert.Equal(t, vt, res.Vote.Type)
		assertCountersMatchVotes(t, store, issue.ID)
	}

	final := store.Issue(issue.ID)
	assert.Equal(t, 1, final.Upvotes)
	assert.Equal(t, 1, final.Downvotes)
}

func TestCastVoteConcurrentFirstVotesYieldOneRecord(t *testing.T) {
	// both requests observe "no vote yet" before either inserts
	var arrived sync.WaitGroup
	arrived.Add(2)
	store := memory.NewStore(memory.WithVoteLookupHook(func() {
		arrived.Done()
		arrived.Wait()
	}))
	svc := NewVoteService(store.Votes(), store.Issues(), &recordingDispatcher{}, nil)
	reporter := store.SeedUser("Rae", domain.RoleUser)
	voter := store.SeedUser("Vic", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Flooded underpass", "drainage", domain.IssueStatusReported, nil)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.CastVote(context.Background(), principal(voter), issue.ID, domain.VoteTypeUpvote)
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			failures++
			requireDomainError(t, err, "DUPLICATE_VOTE", http.StatusBadRequest)
		}
	}
	assert.Equal(t, 1, failures)
	assert.Equal(t, 1, store.Issue(issue.ID).Upvotes)
	assertCountersMatchVotes(t, store, issue.ID)
}

func TestCastVoteRejectsBadInput(t *testing.T) {
	store, svc, _ := newVoteFixture()
	voter := store.SeedUser("Vic", domain.RoleUser)
	ctx := context.Background()

	_, err := svc.CastVote(ctx, principal(voter), uuid.NewString(), domain.VoteType("sideways"))
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)

	_, err = svc.CastVote(ctx, principal(voter), "not-an-id", domain.VoteTypeUpvote)
	requireDomainError(t, err, "NOT_FOUND", http.StatusNotFound)

	_, err = svc.CastVote(ctx, principal(voter), uuid.NewString(), domain.VoteTypeUpvote)
	requireDomainError(t, err, "NOT_FOUND", http.StatusNotFound)

	_, err = svc.CastVote(ctx, nil, uuid.NewString(), domain.VoteTypeUpvote)
	requireDomainError(t, err, "UNAUTHORIZED", http.StatusUnauthorized)
}

func TestListVotes(t *testing.T) {
	store, svc, _ := newVoteFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	voter := store.SeedUser("Vic", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Graffiti", "vandalism", domain.IssueStatusReported, nil)
	ctx := context.Background()

	_, err := svc.CastVote(ctx, principal(voter), issue.ID, domain.VoteTypeUpvote)
	require.NoError(t, err)

	byIssue, err := svc.ListIssueVotes(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, byIssue, 1)
	assert.Equal(t, "Vic", byIssue[0].VoterName)

	mine, err := svc.ListMyVotes(ctx, principal(voter))
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Graffiti", mine[0].Issue.Title)
	assert.Equal(t, domain.IssueStatusReported, mine[0].Issue.Status)
}

func TestAuditTallyReportsDrift(t *testing.T) {
	store, svc, _ := newVoteFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	admin := store.SeedUser("Ada", domain.RoleAdmin)
	issue := store.SeedIssue(reporter, "Graffiti", "vandalism", domain.IssueStatusReported, nil)
	ctx := context.Background()

	_, err := svc.CastVote(ctx, principal(reporter), issue.ID, domain.VoteTypeUpvote)
	require.NoError(t, err)

	audit, err := svc.AuditTally(ctx, principal(admin), issue.ID)
	require.NoError(t, err)
	assert.True(t, audit.Consistent())

	store.SetCounters(issue.ID, 5, 0)

	audit, err = svc.AuditTally(ctx, principal(admin), issue.ID)
	require.NoError(t, err)
	assert.False(t, audit.Consistent())
	assert.Equal(t, 5, audit.StoredUpvotes)
	assert.Equal(t, 1, audit.CountedUp)
	assert.Equal(t, 5, store.Issue(issue.ID).Upvotes, "audit must not repair")

	_, err = svc.AuditTally(ctx, principal(reporter), issue.ID)
	requireDomainError(t, err, "FORBIDDEN", http.StatusForbidden)
}
