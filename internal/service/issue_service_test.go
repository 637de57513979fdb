package service

import (
	"bytes"
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/events"
	"github.com/citizencircle/civic-api/internal/repository/memory"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func newIssueFixture() (*memory.Store, *IssueService, *fakeHost, *recordingDispatcher) {
	store := memory.NewStore()
	host := newFakeHost()
	dispatcher := &recordingDispatcher{}
	svc := NewIssueService(IssueDependencies{
		IssueRepo:      store.Issues(),
		MediaHost:      host,
		Dispatcher:     dispatcher,
		MediaKeyPrefix: "citizencircle",
		MaxUploadBytes: 1 << 20,
	})
	return store, svc, host, dispatcher
}

func TestCreateIssueDefaults(t *testing.T) {
	store, svc, _, dispatcher := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)

	issue, err := svc.CreateIssue(context.Background(), principal(reporter), IssueCreateInput{
		Title:       "  Pothole on Elm ",
		Description: "Deep one",
		Category:    "roads",
		Address:     "12 Elm St",
		Coordinates: &domain.Coordinates{Longitude: -0.1276, Latitude: 51.5072},
	})
	require.NoError(t, err)
	assert.Equal(t, "Pothole on Elm", issue.Title)
	assert.Equal(t, domain.IssueStatusReported, issue.Status)
	assert.Equal(t, domain.IssuePriorityMedium, issue.Priority)
	assert.Equal(t, reporter.ID, issue.ReporterID)
	assert.Zero(t, issue.Upvotes)
	assert.Len(t, dispatcher.ofType(events.EventIssueCreated), 1)
}

func TestCreateIssueValidation(t *testing.T) {
	store, svc, _, _ := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	ctx := context.Background()

	_, err := svc.CreateIssue(ctx, principal(reporter), IssueCreateInput{Title: "x"})
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)

	_, err = svc.CreateIssue(ctx, principal(reporter), IssueCreateInput{
		Title: "x", Description: "y", Category: "z", Address: "a",
		Coordinates: &domain.Coordinates{Longitude: 200, Latitude: 0},
	})
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)

	_, err = svc.CreateIssue(ctx, principal(reporter), IssueCreateInput{
		Title: "x", Description: "y", Category: "z", Address: "a", Priority: "critical",
	})
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)
}

func TestListIssuesPaginatesNewestFirst(t *testing.T) {
	store, svc, _, _ := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	for i := 0; i < 12; i++ {
		store.SeedIssue(reporter, "Issue", "roads", domain.IssueStatusReported, nil)
	}
	store.SeedIssue(reporter, "Streetlight out", "lighting", domain.IssueStatusResolved, nil)
	ctx := context.Background()

	page, err := svc.ListIssues(ctx, IssueListQuery{})
	require.NoError(t, err)
	assert.Len(t, page.Items, 10)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.TotalPages)
	assert.EqualValues(t, 13, page.TotalItems)
	assert.Equal(t, "Streetlight out", page.Items[0].Title)
	assert.Equal(t, "Rae", page.Items[0].Reporter.Name)

	page, err = svc.ListIssues(ctx, IssueListQuery{Page: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 3)

	page, err = svc.ListIssues(ctx, IssueListQuery{Search: "STREETLIGHT"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.TotalItems)

	page, err = svc.ListIssues(ctx, IssueListQuery{Category: "roads", Status: domain.IssueStatusReported, Limit: 500})
	require.NoError(t, err)
	assert.Len(t, page.Items, 12)
	assert.Equal(t, 1, page.TotalPages)

	_, err = svc.ListIssues(ctx, IssueListQuery{Status: "open"})
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)
}

func TestGetIssueNotFound(t *testing.T) {
	_, svc, _, _ := newIssueFixture()
	_, err := svc.GetIssue(context.Background(), "garbage")
	requireDomainError(t, err, "NOT_FOUND", http.StatusNotFound)
	_, err = svc.GetIssue(context.Background(), uuid.NewString())
	requireDomainError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestNearbyIssuesFiltersByGreatCircleDistance(t *testing.T) {
	store, svc, _, _ := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	centre := domain.Coordinates{Longitude: 2.3522, Latitude: 48.8566}

	near := store.SeedIssue(reporter, "near", "roads", domain.IssueStatusReported,
		&domain.Coordinates{Longitude: 2.3600, Latitude: 48.8600})
	// inside the bounding box corner but beyond the radius
	store.SeedIssue(reporter, "corner", "roads", domain.IssueStatusReported,
		&domain.Coordinates{Longitude: 2.4100, Latitude: 48.8990})
	store.SeedIssue(reporter, "far", "roads", domain.IssueStatusReported,
		&domain.Coordinates{Longitude: 4.8357, Latitude: 45.7640})
	store.SeedIssue(reporter, "unlocated", "roads", domain.IssueStatusReported, nil)

	got, err := svc.NearbyIssues(context.Background(), centre.Longitude, centre.Latitude, 5000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, near.ID, got[0].ID)
	require.NotNil(t, got[0].DistanceKm)
	assert.InDelta(t, 0.7, *got[0].DistanceKm, 0.2)

	_, err = svc.NearbyIssues(context.Background(), 0, 95, 1000)
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)
}

func TestNearbyIssuesAcrossAntimeridian(t *testing.T) {
	store, svc, _, _ := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)

	across := store.SeedIssue(reporter, "Fiji reef marker", "parks", domain.IssueStatusReported,
		&domain.Coordinates{Longitude: 179.99, Latitude: -17.0})
	store.SeedIssue(reporter, "too far west", "parks", domain.IssueStatusReported,
		&domain.Coordinates{Longitude: 179.80, Latitude: -17.0})

	got, err := svc.NearbyIssues(context.Background(), -179.99, -17.0, 5000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, across.ID, got[0].ID)
	require.NotNil(t, got[0].DistanceKm)
	assert.InDelta(t, 2.1, *got[0].DistanceKm, 0.1)
}

func TestUpdateIssueOwnershipAndPatch(t *testing.T) {
	store, svc, _, _ := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	stranger := store.SeedUser("Sam", domain.RoleUser)
	official := store.SeedUser("Ola", domain.RoleOfficial)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	ctx := context.Background()

	_, err := svc.UpdateIssue(ctx, principal(stranger), issue.ID, IssueUpdateInput{Title: "mine now"})
	requireDomainError(t, err, "FORBIDDEN", http.StatusForbidden)

	updated, err := svc.UpdateIssue(ctx, principal(reporter), issue.ID, IssueUpdateInput{Priority: domain.IssuePriorityHigh})
	require.NoError(t, err)
	assert.Equal(t, "Pothole", updated.Title)
	assert.Equal(t, domain.IssuePriorityHigh, updated.Priority)

	updated, err = svc.UpdateIssue(ctx, principal(official), issue.ID, IssueUpdateInput{Category: "potholes"})
	require.NoError(t, err)
	assert.Equal(t, "potholes", store.Issue(issue.ID).Category)
}

func TestUpdateStatusRequiresElevatedRoleAndLeavesIssueUntouched(t *testing.T) {
	store, svc, _, dispatcher := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	before := store.Issue(issue.ID)

	_, err := svc.UpdateStatus(context.Background(), principal(reporter), issue.ID, domain.IssueStatusResolved, "done")
	requireDomainError(t, err, "FORBIDDEN", http.StatusForbidden)

	after := store.Issue(issue.ID)
	assert.Equal(t, before, after)
	assert.Empty(t, dispatcher.ofType(events.EventIssueStatusChanged))
}

func TestUpdateStatusIsPermissiveAndAttachesResponse(t *testing.T) {
	store, svc, _, dispatcher := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	official := store.SeedUser("Ola", domain.RoleOfficial)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusClosed, nil)
	ctx := context.Background()

	updated, err := svc.UpdateStatus(ctx, principal(official), issue.ID, domain.IssueStatusReported, "")
	require.NoError(t, err)
	assert.Equal(t, domain.IssueStatusReported, updated.Status)
	assert.Nil(t, updated.Response)

	updated, err = svc.UpdateStatus(ctx, principal(official), issue.ID, domain.IssueStatusInProgress, "Crew dispatched")
	require.NoError(t, err)
	require.NotNil(t, updated.Response)
	assert.Equal(t, "Crew dispatched", updated.Response.Text)
	assert.Equal(t, official.ID, updated.Response.ResponderID)
	assert.False(t, updated.Response.RespondedAt.IsZero())

	view, err := svc.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	require.NotNil(t, view.Responder)
	assert.Equal(t, "Ola", view.Responder.Name)
	assert.Equal(t, domain.RoleOfficial, view.Responder.Role)

	changes := dispatcher.ofType(events.EventIssueStatusChanged)
	require.Len(t, changes, 2)
	payload := changes[1].Payload.(events.IssueStatusChangedPayload)
	assert.Equal(t, domain.IssueStatusReported, payload.OldStatus)
	assert.Equal(t, domain.IssueStatusInProgress, payload.NewStatus)
	assert.Equal(t, reporter.ID, payload.ReporterID)

	_, err = svc.UpdateStatus(ctx, principal(official), issue.ID, "open", "")
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)
	_, err = svc.UpdateStatus(ctx, principal(official), uuid.NewString(), domain.IssueStatusClosed, "")
	requireDomainError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestAddImageUploadsAndDeleteRemovesHostedCopies(t *testing.T) {
	store, svc, host, _ := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	ctx := context.Background()

	body := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1024)...)
	updated, err := svc.AddImage(ctx, principal(reporter), issue.ID, ImageUpload{
		Filename: "hole.png",
		Size:     int64(len(body)),
		Body:     bytes.NewReader(body),
	})
	require.NoError(t, err)
	require.Len(t, updated.Images, 1)
	img := updated.Images[0]
	assert.True(t, strings.HasPrefix(img.PublicID, "citizencircle/"+issue.ID+"/"))
	assert.True(t, strings.HasSuffix(img.PublicID, ".png"))
	assert.Equal(t, body, host.uploaded[img.PublicID], "upload body must include sniffed bytes")

	_, err = svc.AddImage(ctx, principal(reporter), issue.ID, ImageUpload{
		Filename: "notes.txt", Size: 5, Body: strings.NewReader("hello"),
	})
	requireDomainError(t, err, "VALIDATION_FAILED", http.StatusBadRequest)

	require.NoError(t, svc.DeleteIssue(ctx, principal(reporter), issue.ID))
	assert.Equal(t, []string{img.PublicID}, host.deleted)
	_, err = svc.GetIssue(ctx, issue.ID)
	requireDomainError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestAddImageWithoutHost(t *testing.T) {
	store := memory.NewStore()
	svc := NewIssueService(IssueDependencies{IssueRepo: store.Issues()})
	reporter := store.SeedUser("Rae", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)

	_, err := svc.AddImage(context.Background(), principal(reporter), issue.ID, ImageUpload{
		Filename: "hole.png", Size: int64(len(pngHeader)), Body: bytes.NewReader(pngHeader),
	})
	requireDomainError(t, err, "MEDIA_UNAVAILABLE", http.StatusServiceUnavailable)
}

func TestDeleteIssueCascadesVotesAndComments(t *testing.T) {
	store, svc, _, _ := newIssueFixture()
	reporter := store.SeedUser("Rae", domain.RoleUser)
	stranger := store.SeedUser("Sam", domain.RoleUser)
	issue := store.SeedIssue(reporter, "Pothole", "roads", domain.IssueStatusReported, nil)
	ctx := context.Background()

	votes := NewVoteService(store.Votes(), store.Issues(), nil, nil)
	_, err := votes.CastVote(ctx, principal(stranger), issue.ID, domain.VoteTypeUpvote)
	require.NoError(t, err)

	err = svc.DeleteIssue(ctx, principal(stranger), issue.ID)
	requireDomainError(t, err, "FORBIDDEN", http.StatusForbidden)

	require.NoError(t, svc.DeleteIssue(ctx, principal(reporter), issue.ID))
	mine, err := votes.ListMyVotes(ctx, principal(stranger))
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestListIssuesByUser(t *testing.T) {
	store, svc, _, _ := newIssueFixture()
	rae := store.SeedUser("Rae", domain.RoleUser)
	sam := store.SeedUser("Sam", domain.RoleUser)
	store.SeedIssue(rae, "first", "roads", domain.IssueStatusReported, nil)
	store.SeedIssue(sam, "other", "roads", domain.IssueStatusReported, nil)
	store.SeedIssue(rae, "second", "roads", domain.IssueStatusReported, nil)

	got, err := svc.ListIssuesByUser(context.Background(), rae.ID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "second", got[0].Title)
	assert.Equal(t, "first", got[1].Title)
}
