package handlers

import (
	"bytes"
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/citizencircle/civic-api/internal/api/dto"
	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/service"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

// IssuesHandler manages issue endpoints.
type IssuesHandler struct {
	service *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{service: issueService}
}

// ListIssues GET /issues.
func (h *IssuesHandler) ListIssues(c *fiber.Ctx) error {
	page, err := h.service.ListIssues(c.UserContext(), service.IssueListQuery{
		Category: c.Query("category"),
		Status:   domain.IssueStatus(c.Query("status")),
		Search:   c.Query("search"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 10),
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueListResponse{
		Issues: issueViewList(page.Items),
		Pagination: dto.Pagination{
			CurrentPage: page.CurrentPage,
			TotalPages:  page.TotalPages,
			TotalItems:  page.TotalItems,
		},
	}})
}

// CreateIssue POST /issues.
func (h *IssuesHandler) CreateIssue(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	input := service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Address:     req.Location.Address,
		Priority:    req.Priority,
	}
	if len(req.Location.Coordinates) == 2 {
		input.Coordinates = &domain.Coordinates{
			Longitude: req.Location.Coordinates[0],
			Latitude:  req.Location.Coordinates[1],
		}
	}

	issue, err := h.service.CreateIssue(c.UserContext(), principal, input)
	if err != nil {
		return err
	}
	resp := issueResponse(issue)
	resp.User = userSummary(domain.UserSummary{ID: principal.ID(), Name: principal.User.Name, Avatar: principal.User.Avatar})
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": resp})
}

// NearbyIssues GET /issues/nearby?lng&lat&radius.
func (h *IssuesHandler) NearbyIssues(c *fiber.Ctx) error {
	lng, lngErr := strconv.ParseFloat(c.Query("lng"), 64)
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	if lngErr != nil || latErr != nil {
		return apperrors.NewValidationError("longitude and latitude are required", nil)
	}
	radius := 0.0
	if raw := c.Query("radius"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("radius must be a positive number of meters", nil)
		}
		radius = parsed
	}

	views, err := h.service.NearbyIssues(c.UserContext(), lng, lat, radius)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueViewList(views)})
}

// ListByUser GET /issues/user/:userId.
func (h *IssuesHandler) ListByUser(c *fiber.Ctx) error {
	views, err := h.service.ListIssuesByUser(c.UserContext(), c.Params("userId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueViewList(views)})
}

// GetIssue GET /issues/:id.
func (h *IssuesHandler) GetIssue(c *fiber.Ctx) error {
	view, err := h.service.GetIssue(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueViewResponse(view)})
}

// UpdateIssue PUT /issues/:id.
func (h *IssuesHandler) UpdateIssue(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIssueRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	issue, err := h.service.UpdateIssue(c.UserContext(), principal, c.Params("id"), service.IssueUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// UpdateStatus PUT /issues/:id/status.
func (h *IssuesHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	issue, err := h.service.UpdateStatus(c.UserContext(), principal, c.Params("id"), req.Status, req.OfficialResponse)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// UploadImage POST /issues/:id/images. Accepts a multipart "image" file or a JSON
// body whose "image" field is a base64 data URI.
func (h *IssuesHandler) UploadImage(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}

	upload, closeFn, err := readImageUpload(c)
	if err != nil {
		return err
	}
	defer closeFn()

	issue, err := h.service.AddImage(c.UserContext(), principal, c.Params("id"), upload)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueResponse(issue)})
}

// DeleteIssue DELETE /issues/:id.
func (h *IssuesHandler) DeleteIssue(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteIssue(c.UserContext(), principal, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "issue removed"}})
}

var dataURIExt = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

func readImageUpload(c *fiber.Ctx) (service.ImageUpload, func(), error) {
	noop := func() {}
	if fh, err := c.FormFile("image"); err == nil {
		f, err := fh.Open()
		if err != nil {
			return service.ImageUpload{}, noop, apperrors.NewValidationError("unreadable upload", nil)
		}
		return service.ImageUpload{Filename: fh.Filename, Size: fh.Size, Body: f}, func() { _ = f.Close() }, nil
	}

	var body struct {
		Image string `json:"image"`
	}
	if err := c.BodyParser(&body); err != nil || body.Image == "" {
		return service.ImageUpload{}, noop, apperrors.NewValidationError("no image provided", nil)
	}
	header, payload, ok := strings.Cut(body.Image, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return service.ImageUpload{}, noop, apperrors.NewValidationError("image must be a base64 data URI", nil)
	}
	mime := strings.TrimSuffix(strings.TrimPrefix(header, "data:"), ";base64")
	ext, ok := dataURIExt[mime]
	if !ok {
		return service.ImageUpload{}, noop, apperrors.NewValidationError("unsupported image type", map[string]any{"type": mime})
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return service.ImageUpload{}, noop, apperrors.NewValidationError("image must be a base64 data URI", nil)
	}
	return service.ImageUpload{Filename: "upload" + ext, Size: int64(len(raw)), Body: bytes.NewReader(raw)}, noop, nil
}
