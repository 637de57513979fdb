package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/events"
	"github.com/citizencircle/civic-api/internal/geo"
	"github.com/citizencircle/civic-api/internal/media"
	"github.com/citizencircle/civic-api/internal/repository"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
	sniffLen        = 512
)

// IssueService coordinates the issue lifecycle.
type IssueService struct {
	issues         repository.IssueRepository
	host           media.Host
	dispatcher     events.Dispatcher
	logger         *zap.Logger
	keyPrefix      string
	maxUploadBytes int64
	defaultRadiusM float64
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo           repository.IssueRepository
	MediaHost           media.Host
	Dispatcher          events.Dispatcher
	Logger              *zap.Logger
	MediaKeyPrefix      string
	MaxUploadBytes      int64
	DefaultRadiusMeters float64
}

// IssueCreateInput describes a new report.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    string
	Address     string
	Coordinates *domain.Coordinates
	Priority    domain.IssuePriority
}

// IssueUpdateInput holds optional edits. Empty values keep the stored value.
type IssueUpdateInput struct {
	Title       string
	Description string
	Category    string
	Priority    domain.IssuePriority
}

// IssueListQuery describes public listing filters.
type IssueListQuery struct {
	Category string
	Status   domain.IssueStatus
	Search   string
	Page     int
	Limit    int
}

// IssuePage is one page of listed issues.
type IssuePage struct {
	Items       []domain.IssueView
	CurrentPage int
	TotalPages  int
	TotalItems  int64
}

// ImageUpload is a photo submitted for an issue.
type ImageUpload struct {
	Filename string
	Size     int64
	Body     io.Reader
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	radius := deps.DefaultRadiusMeters
	if radius <= 0 {
		radius = 5000
	}
	return &IssueService{
		issues:         deps.IssueRepo,
		host:           deps.MediaHost,
		dispatcher:     deps.Dispatcher,
		logger:         logger,
		keyPrefix:      deps.MediaKeyPrefix,
		maxUploadBytes: deps.MaxUploadBytes,
		defaultRadiusM: radius,
	}
}

// CreateIssue files a new report in status reported.
func (s *IssueService) CreateIssue(ctx context.Context, caller *auth.Principal, input IssueCreateInput) (*domain.Issue, error) {
	if caller == nil || caller.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}

	issue := &domain.Issue{
		ReporterID:  caller.ID(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Category:    strings.TrimSpace(input.Category),
		Location:    domain.Location{Address: strings.TrimSpace(input.Address)},
		Status:      domain.IssueStatusReported,
		Priority:    input.Priority,
	}
	if issue.Priority == "" {
		issue.Priority = domain.IssuePriorityMedium
	}

	missing := []string{}
	for field, value := range map[string]string{
		"title":       issue.Title,
		"description": issue.Description,
		"category":    issue.Category,
		"address":     issue.Location.Address,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if !issue.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": issue.Priority})
	}
	if c := input.Coordinates; c != nil {
		if !geo.ValidPoint(c.Longitude, c.Latitude) {
			return nil, apperrors.NewValidationError("coordinates out of range", map[string]any{
				"longitude": c.Longitude,
				"latitude":  c.Latitude,
			})
		}
		issue.Location.Coordinates = &domain.Coordinates{Longitude: c.Longitude, Latitude: c.Latitude}
	}

	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, err
	}
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventIssueCreated, issue.ID, actorOf(caller), events.IssueCreatedPayload{
		Title:    issue.Title,
		Category: issue.Category,
		Priority: issue.Priority,
	}))
	return issue, nil
}

// ListIssues returns a page of issues, newest first.
func (s *IssueService) ListIssues(ctx context.Context, query IssueListQuery) (*IssuePage, error) {
	page := query.Page
	if page < 1 {
		page = 1
	}
	limit := query.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	filter := repository.IssueFilter{Limit: limit, Offset: (page - 1) * limit}
	if c := strings.TrimSpace(query.Category); c != "" {
		filter.Category = &c
	}
	if query.Status != "" {
		if !query.Status.Valid() {
			return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": query.Status})
		}
		status := query.Status
		filter.Status = &status
	}
	if term := strings.TrimSpace(query.Search); term != "" {
		filter.SearchTerm = &term
	}

	items, total, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &IssuePage{
		Items:       items,
		CurrentPage: page,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		TotalItems:  total,
	}, nil
}

// GetIssue returns an issue with its images, reporter and responder.
func (s *IssueService) GetIssue(ctx context.Context, issueID string) (*domain.IssueView, error) {
	if !validID(issueID) {
		return nil, apperrors.NewNotFound("issue", nil)
	}
	view, err := s.issues.GetView(ctx, issueID)
	if err != nil {
		return nil, lookupErr(err, "issue")
	}
	return view, nil
}

// ListIssuesByUser returns everything a user has reported, newest first.
func (s *IssueService) ListIssuesByUser(ctx context.Context, userID string) ([]domain.IssueView, error) {
	if !validID(userID) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	items, _, err := s.issues.List(ctx, repository.IssueFilter{ReporterID: &userID})
	return items, err
}

// NearbyIssues returns located issues within radiusMeters of the point, newest first,
// each annotated with its distance. A non-positive radius uses the configured default.
func (s *IssueService) NearbyIssues(ctx context.Context, lng, lat, radiusMeters float64) ([]domain.IssueView, error) {
	if !geo.ValidPoint(lng, lat) {
		return nil, apperrors.NewValidationError("longitude and latitude are required", map[string]any{
			"lng": lng,
			"lat": lat,
		})
	}
	if radiusMeters <= 0 {
		radiusMeters = s.defaultRadiusM
	}
	radiusKm := radiusMeters / 1000

	candidates, err := s.issues.ListWithinBox(ctx, geo.BoxAround(lng, lat, radiusKm))
	if err != nil {
		return nil, err
	}

	result := make([]domain.IssueView, 0, len(candidates))
	for _, view := range candidates {
		c := view.Location.Coordinates
		if c == nil {
			continue
		}
		d := geo.DistanceKm(lng, lat, c.Longitude, c.Latitude)
		if d > radiusKm {
			continue
		}
		view.DistanceKm = &d
		result = append(result, view)
	}
	return result, nil
}

// UpdateIssue edits the descriptive fields of an issue. Reporter or elevated only.
func (s *IssueService) UpdateIssue(ctx context.Context, caller *auth.Principal, issueID string, input IssueUpdateInput) (*domain.Issue, error) {
	issue, err := s.loadForOwner(ctx, caller, issueID)
	if err != nil {
		return nil, err
	}

	if input.Priority != "" && !input.Priority.Valid() {
		return nil, apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	if v := strings.TrimSpace(input.Title); v != "" {
		issue.Title = v
	}
	if v := strings.TrimSpace(input.Description); v != "" {
		issue.Description = v
	}
	if v := strings.TrimSpace(input.Category); v != "" {
		issue.Category = v
	}
	if input.Priority != "" {
		issue.Priority = input.Priority
	}

	if err := s.issues.UpdateContent(ctx, issue); err != nil {
		return nil, lookupErr(err, "issue")
	}
	return issue, nil
}

// UpdateStatus moves an issue to any of the lifecycle states and optionally attaches an
// official response. Only admins and officials may do this; the role is checked before
// anything else so a rejected caller leaves the issue untouched.
func (s *IssueService) UpdateStatus(ctx context.Context, caller *auth.Principal, issueID string, status domain.IssueStatus, officialResponse string) (*domain.Issue, error) {
	if err := auth.RequireElevated(caller); err != nil {
		return nil, err
	}
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status value", map[string]any{"status": status})
	}
	if !validID(issueID) {
		return nil, apperrors.NewNotFound("issue", nil)
	}

	current, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, lookupErr(err, "issue")
	}

	var response *domain.OfficialResponse
	if text := strings.TrimSpace(officialResponse); text != "" {
		response = &domain.OfficialResponse{
			Text:        text,
			ResponderID: caller.ID(),
			RespondedAt: time.Now().UTC(),
		}
	}

	updated, err := s.issues.UpdateStatus(ctx, issueID, status, response)
	if err != nil {
		return nil, lookupErr(err, "issue")
	}

	payload := events.IssueStatusChangedPayload{
		ReporterID: updated.ReporterID,
		Title:      updated.Title,
		OldStatus:  current.Status,
		NewStatus:  updated.Status,
	}
	if response != nil {
		payload.Response = stringPreview(response.Text, 120)
	}
	publish(ctx, s.dispatcher, s.logger, events.NewEvent(events.EventIssueStatusChanged, issueID, actorOf(caller), payload))
	return updated, nil
}

// AddImage uploads a photo to the image host and attaches it to the issue.
func (s *IssueService) AddImage(ctx context.Context, caller *auth.Principal, issueID string, upload ImageUpload) (*domain.Issue, error) {
	issue, err := s.loadForOwner(ctx, caller, issueID)
	if err != nil {
		return nil, err
	}
	if s.host == nil {
		return nil, apperrors.NewServiceUnavailable("image uploads are not configured")
	}
	if upload.Body == nil || upload.Size == 0 {
		return nil, apperrors.NewValidationError("no image provided", nil)
	}
	if s.maxUploadBytes > 0 && upload.Size > s.maxUploadBytes {
		return nil, apperrors.NewValidationError("image too large", map[string]any{"max_bytes": s.maxUploadBytes})
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(upload.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, err
	}
	head = head[:n]
	contentType, ext, err := media.SniffImage(upload.Filename, head)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error(), map[string]any{"filename": upload.Filename})
	}

	uploaded, err := s.host.Upload(ctx, media.Object{
		Key:         media.ObjectKey(s.keyPrefix, issue.ID, uuid.NewString(), ext),
		ContentType: contentType,
		Size:        upload.Size,
		Body:        io.MultiReader(bytes.NewReader(head), upload.Body),
	})
	if err != nil {
		return nil, err
	}

	image := &domain.IssueImage{IssueID: issue.ID, URL: uploaded.URL, PublicID: uploaded.PublicID}
	if err := s.issues.AddImage(ctx, image); err != nil {
		if delErr := s.host.Delete(ctx, uploaded.PublicID); delErr != nil {
			s.logger.Warn("orphaned image after failed insert", zap.String("public_id", uploaded.PublicID), zap.Error(delErr))
		}
		return nil, lookupErr(err, "issue")
	}
	issue.Images = append(issue.Images, *image)
	return issue, nil
}

// DeleteIssue removes hosted images and then the issue with its votes and comments.
func (s *IssueService) DeleteIssue(ctx context.Context, caller *auth.Principal, issueID string) error {
	issue, err := s.loadForOwner(ctx, caller, issueID)
	if err != nil {
		return err
	}

	for _, img := range issue.Images {
		if img.PublicID == "" {
			continue
		}
		if s.host == nil {
			s.logger.Warn("media host not configured, image left in bucket", zap.String("public_id", img.PublicID))
			continue
		}
		if err := s.host.Delete(ctx, img.PublicID); err != nil {
			return err
		}
	}

	return lookupErr(s.issues.Delete(ctx, issueID), "issue")
}

func (s *IssueService) loadForOwner(ctx context.Context, caller *auth.Principal, issueID string) (*domain.Issue, error) {
	if caller == nil || caller.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if !validID(issueID) {
		return nil, apperrors.NewNotFound("issue", nil)
	}
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		return nil, lookupErr(err, "issue")
	}
	if err := auth.RequireOwnerOrElevated(caller, issue.ReporterID); err != nil {
		return nil, err
	}
	return issue, nil
}
