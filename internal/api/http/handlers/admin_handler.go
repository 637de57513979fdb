package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citizencircle/civic-api/internal/api/dto"
	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/observability"
	"github.com/citizencircle/civic-api/internal/service"
)

// AdminHandler serves the elevated-only endpoints.
type AdminHandler struct {
	dashboard *service.DashboardService
	auth      *service.AuthService
	votes     *service.VoteService
	metrics   *observability.Metrics
}

// NewAdminHandler constructs handler.
func NewAdminHandler(dashboard *service.DashboardService, authService *service.AuthService, votes *service.VoteService, metrics *observability.Metrics) *AdminHandler {
	return &AdminHandler{dashboard: dashboard, auth: authService, votes: votes, metrics: metrics}
}

// Dashboard GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	board, err := h.dashboard.Build(c.UserContext(), principal)
	if err != nil {
		return err
	}

	var resp dto.DashboardResponse
	resp.Counts.Users = board.Counts.Users
	resp.Counts.Issues = board.Counts.Issues
	resp.Counts.Comments = board.Counts.Comments
	resp.IssuesByStatus = groupResponses(board.IssuesByStatus)
	resp.IssuesByCategory = groupResponses(board.IssuesByCategory)
	resp.RecentIssues = make([]dto.RecentIssueResponse, 0, len(board.RecentIssues))
	for _, ri := range board.RecentIssues {
		resp.RecentIssues = append(resp.RecentIssues, dto.RecentIssueResponse{
			ID:           ri.ID,
			Title:        ri.Title,
			Category:     ri.Category,
			Status:       ri.Status,
			Priority:     ri.Priority,
			ReporterName: ri.ReporterName,
			CreatedAt:    ri.CreatedAt,
		})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	users, err := h.auth.ListUsers(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// UpdateUserRole PUT /admin/users/:id/role.
func (h *AdminHandler) UpdateUserRole(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RoleRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.auth.UpdateUserRole(c.UserContext(), principal, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// AuditTally GET /admin/issues/:id/tally.
func (h *AdminHandler) AuditTally(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	audit, err := h.votes.AuditTally(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TallyResponse{
		IssueID:         audit.IssueID,
		StoredUpvotes:   audit.StoredUpvotes,
		StoredDownvotes: audit.StoredDownvotes,
		CountedUpvotes:  audit.CountedUp,
		CountedDownvotes: audit.CountedDown,
		Consistent:      audit.Consistent(),
	}})
}

// Metrics GET /admin/metrics.
func (h *AdminHandler) Metrics(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": h.metrics.Snapshot()})
}

func groupResponses(groups []domain.GroupCount) []dto.GroupCountResponse {
	out := make([]dto.GroupCountResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, dto.GroupCountResponse{Key: g.Key, Count: g.Count})
	}
	return out
}
