package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/events"
	"github.com/citizencircle/civic-api/internal/repository/memory"
)

func newCommentFixture() (*memory.Store, *CommentService, *recordingDispatcher) {
	store := memory.NewStore()
	dispatcher := &recordingDispatcher{}
	return store, NewCommentService(store.Comments(), store.Issues(), dispatcher, nil), dispatcher
}

func TestAddCommentMarksOfficialFromRole(t *testing.T) {
	store, svc, dispatcher := newCommentFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	official := store.SeedUser("Ola", domain.RoleOfficial)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	ctx := context.Background()

	citizen, err := svc.AddComment(ctx, principal(reporter), issue.ID, "Still there")
	require.NoError(t, err)
	assert.False(t, citizen.IsOfficial)
	assert.Equal(t, "Rae", citizen.Author.Name)

	reply, err := svc.AddComment(ctx, principal(official), issue.ID, "Scheduled for Monday")
	require.NoError(t, err)
	assert.True(t, reply.IsOfficial)

	// demotion later does not rewrite history
	_, err = store.Users().UpdateRole(ctx, official.ID, domain.RoleUser)
	require.NoError(t, err)

	list, err := svc.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Still there", list[0].Text)
	assert.True(t, list[1].IsOfficial)

	added := dispatcher.ofType(events.EventCommentAdded)
	require.Len(t, added, 2)
	assert.Equal(t, reporter.ID, added[1].Payload.(events.CommentAddedPayload).ReporterID)
}

func TestAddCommentValidation(t *testing.T) {
	store, svc, _ := newCommentFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)

	_, err := svc.AddComment(context.Background(), principal(reporter), issue.ID, "   ")
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)

	_, err = svc.AddComment(context.Background(), principal(reporter), "nope", "hi")
	requireDomainError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestUpdateCommentAuthorOnly(t *testing.T) {
	store, svc, _ := newCommentFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	admin := store.SeedUser("Ada", domain.RoleAdmin)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	ctx := context.Background()

	c, err := svc.AddComment(ctx, principal(reporter), issue.ID, "first")
	require.NoError(t, err)

	_, err = svc.UpdateComment(ctx, principal(admin), c.ID, "edited by admin")
	requireDomainError(t, err, "FORBIDDEN", http.StatusForbidden)

	updated, err := svc.UpdateComment(ctx, principal(reporter), c.ID, "edited")
	require.NoError(t, err)
	assert.Equal(t, "edited", updated.Text)
}

func TestDeleteCommentAuthorOrElevated(t *testing.T) {
	store, svc, _ := newCommentFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	stranger := store.SeedUser("Sam", domain.RoleUser)
	admin := store.SeedUser("Ada", domain.RoleAdmin)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	ctx := context.Background()

	first, err := svc.AddComment(ctx, principal(reporter), issue.ID, "one")
	require.NoError(t, err)
	second, err := svc.AddComment(ctx, principal(reporter), issue.ID, "two")
	require.NoError(t, err)

	err = svc.DeleteComment(ctx, principal(stranger), first.ID)
	requireDomainError(t, err, "FORBIDDEN", http.StatusForbidden)

	require.NoError(t, svc.DeleteComment(ctx, principal(reporter), first.ID))
	require.NoError(t, svc.DeleteComment(ctx, principal(admin), second.ID))

	err = svc.DeleteComment(ctx, principal(admin), second.ID)
	requireDomainError(t, err, "NOT_FOUND", http.StatusNotFound)
}
