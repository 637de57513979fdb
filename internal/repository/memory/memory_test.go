package memory

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/repository"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

var (
	_ repository.UserRepository      = Users{}
	_ repository.IssueRepository     = Issues{}
	_ repository.VoteRepository      = Votes{}
	_ repository.CommentRepository   = Comments{}
	_ repository.DashboardRepository = Dashboard{}
)

func TestUsersRejectDuplicateEmailLikePostgres(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	require.NoError(t, store.Users().Create(ctx, &domain.User{Name: "Rae", Email: "rae@example.org", Role: domain.RoleUser}))
	err := store.Users().Create(ctx, &domain.User{Name: "Rae 2", Email: "RAE@example.org", Role: domain.RoleUser})
	assert.True(t, apperrors.IsUniqueViolation(err))
}

func TestVoteWritesKeepCountersInStep(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	voter := store.SeedUser("Vic", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)

	vote := &domain.Vote{UserID: voter.ID, IssueID: issue.ID, Type: domain.VoteTypeUpvote}
	updated, err := store.Votes().CreateWithTally(ctx, vote)
	require.NoError(t, err)
	assert.Equal(t, 1, updated.Upvotes)

	_, err = store.Votes().CreateWithTally(ctx, &domain.Vote{UserID: voter.ID, IssueID: issue.ID, Type: domain.VoteTypeDownvote})
	assert.ErrorIs(t, err, repository.ErrDuplicateVote)

	stale := *vote
	updated, err = store.Votes().FlipWithTally(ctx, vote, domain.VoteTypeDownvote)
	require.NoError(t, err)
	assert.Equal(t, 0, updated.Upvotes)
	assert.Equal(t, 1, updated.Downvotes)

	_, err = store.Votes().FlipWithTally(ctx, &stale, domain.VoteTypeDownvote)
	assert.ErrorIs(t, err, repository.ErrVoteChanged)

	up, down, err := store.Votes().Tally(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, up)
	assert.Equal(t, 1, down)
}

func TestIssueDeleteCascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	_, err := store.Votes().CreateWithTally(ctx, &domain.Vote{UserID: reporter.ID, IssueID: issue.ID, Type: domain.VoteTypeUpvote})
	require.NoError(t, err)
	require.NoError(t, store.Comments().Create(ctx, &domain.Comment{UserID: reporter.ID, IssueID: issue.ID, Text: "same here"}))

	require.NoError(t, store.Issues().Delete(ctx, issue.ID))
	assert.ErrorIs(t, store.Issues().Delete(ctx, issue.ID), pgx.ErrNoRows)

	counts, err := store.Dashboard().Counts(ctx)
	require.NoError(t, err)
	assert.Zero(t, counts.Issues)
	assert.Zero(t, counts.Comments)
	votes, err := store.Votes().ListByUser(ctx, reporter.ID)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestListPagesNewestFirst(t *testing.T) {
	store := NewStore()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	first := store.SeedIssue(reporter, "First", "roads", domain.IssueStatusReported, nil)
	second := store.SeedIssue(reporter, "Second", "roads", domain.IssueStatusReported, nil)
	store.SeedIssue(reporter, "Third", "parks", domain.IssueStatusReported, nil)

	category := "roads"
	views, total, err := store.Issues().List(context.Background(), repository.IssueFilter{Category: &category, Limit: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, views, 1)
	assert.Equal(t, second.ID, views[0].ID)

	views, _, err = store.Issues().List(context.Background(), repository.IssueFilter{Category: &category, Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, "Rae", views[0].Reporter.Name)
}

func TestVoteLookupHookIsOptIn(t *testing.T) {
	ctx := context.Background()
	plain := NewStore()
	assert.Nil(t, plain.beforeVoteLookup)
	_, err := plain.Votes().FindByUserAndIssue(ctx, "u", "i")
	assert.ErrorIs(t, err, pgx.ErrNoRows)

	calls := 0
	hooked := NewStore(WithVoteLookupHook(func() { calls++ }))
	_, err = hooked.Votes().FindByUserAndIssue(ctx, "u", "i")
	assert.ErrorIs(t, err, pgx.ErrNoRows)
	assert.Equal(t, 1, calls)
}
