package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citizencircle/civic-api/internal/api/dto"
	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/domain"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

func currentPrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("user required")
	}
	return principal, nil
}

func parseBody(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return dto.Validate(out)
}

func userResponse(u *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Role:      u.Role,
		Avatar:    u.Avatar,
		Location:  u.Location,
		Bio:       u.Bio,
		CreatedAt: u.CreatedAt,
	}
}

func userSummary(s domain.UserSummary) dto.UserSummary {
	return dto.UserSummary{ID: s.ID, Name: s.Name, Avatar: s.Avatar, Role: s.Role}
}

func issueResponse(i *domain.Issue) dto.IssueResponse {
	resp := dto.IssueResponse{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		Category:    i.Category,
		Location:    dto.LocationResponse{Address: i.Location.Address},
		Status:      i.Status,
		Priority:    i.Priority,
		Images:      make([]dto.ImageResponse, 0, len(i.Images)),
		Upvotes:     i.Upvotes,
		Downvotes:   i.Downvotes,
		User:        dto.UserSummary{ID: i.ReporterID},
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if c := i.Location.Coordinates; c != nil {
		resp.Location.Coordinates = []float64{c.Longitude, c.Latitude}
	}
	for _, img := range i.Images {
		resp.Images = append(resp.Images, dto.ImageResponse{ID: img.ID, URL: img.URL, PublicID: img.PublicID})
	}
	if r := i.Response; r != nil {
		resp.OfficialResponse = r.Text
		respondedAt := r.RespondedAt
		resp.OfficialResponseDate = &respondedAt
		if r.ResponderID != "" {
			resp.OfficialResponseBy = &dto.UserSummary{ID: r.ResponderID}
		}
	}
	return resp
}

func issueViewResponse(v *domain.IssueView) dto.IssueResponse {
	resp := issueResponse(&v.Issue)
	resp.User = userSummary(v.Reporter)
	if v.Responder != nil {
		responder := userSummary(*v.Responder)
		responder.Avatar = ""
		resp.OfficialResponseBy = &responder
	}
	resp.DistanceKm = v.DistanceKm
	return resp
}

func issueViewList(views []domain.IssueView) []dto.IssueResponse {
	items := make([]dto.IssueResponse, 0, len(views))
	for i := range views {
		items = append(items, issueViewResponse(&views[i]))
	}
	return items
}

func voteResponse(v domain.Vote) dto.VoteResponse {
	return dto.VoteResponse{
		ID:        v.ID,
		IssueID:   v.IssueID,
		UserID:    v.UserID,
		VoteType:  v.Type,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}
}

func commentResponse(c *domain.CommentView) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         c.ID,
		IssueID:    c.IssueID,
		Text:       c.Text,
		IsOfficial: c.IsOfficial,
		User:       userSummary(c.Author),
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
