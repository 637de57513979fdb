package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citizencircle/civic-api/internal/api/dto"
	"github.com/citizencircle/civic-api/internal/service"
)

// VotesHandler exposes voting endpoints.
type VotesHandler struct {
	votes *service.VoteService
}

// NewVotesHandler constructs handler.
func NewVotesHandler(voteService *service.VoteService) *VotesHandler {
	return &VotesHandler{votes: voteService}
}

// CastVote POST /issues/:id/votes.
func (h *VotesHandler) CastVote(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.VoteRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	result, err := h.votes.CastVote(c.UserContext(), principal, c.Params("id"), req.VoteType)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CastVoteResponse{
		Vote:  voteResponse(*result.Vote),
		Issue: issueResponse(result.Issue),
	}})
}

// ListIssueVotes GET /issues/:id/votes.
func (h *VotesHandler) ListIssueVotes(c *fiber.Ctx) error {
	votes, err := h.votes.ListIssueVotes(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.VoteResponse, 0, len(votes))
	for _, v := range votes {
		resp := voteResponse(v.Vote)
		resp.VoterName = v.VoterName
		items = append(items, resp)
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListMyVotes GET /votes/me.
func (h *VotesHandler) ListMyVotes(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	votes, err := h.votes.ListMyVotes(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.MyVoteResponse, 0, len(votes))
	for _, v := range votes {
		items = append(items, dto.MyVoteResponse{
			VoteResponse: voteResponse(v.Vote),
			Issue: dto.IssueSummaryResponse{
				ID:       v.Issue.ID,
				Title:    v.Issue.Title,
				Status:   v.Issue.Status,
				Category: v.Issue.Category,
			},
		})
	}
	return c.JSON(fiber.Map{"data": items})
}
