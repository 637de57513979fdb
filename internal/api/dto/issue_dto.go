package dto

import (
	"time"

	"github.com/citizencircle/civic-api/internal/domain"
)

// LocationPayload carries an address and optional [longitude, latitude] pair.
type LocationPayload struct {
	Address     string    `json:"address" validate:"required"`
	Coordinates []float64 `json:"coordinates,omitempty" validate:"omitempty,len=2"`
}

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string               `json:"title" validate:"required,max=200"`
	Description string               `json:"description" validate:"required"`
	Category    string               `json:"category" validate:"required"`
	Location    LocationPayload      `json:"location"`
	Priority    domain.IssuePriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// UpdateIssueRequest payload. Empty fields keep their stored value.
type UpdateIssueRequest struct {
	Title       string               `json:"title" validate:"max=200"`
	Description string               `json:"description"`
	Category    string               `json:"category"`
	Priority    domain.IssuePriority `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
}

// UpdateStatusRequest payload for PUT /issues/:id/status.
type UpdateStatusRequest struct {
	Status           domain.IssueStatus `json:"status" validate:"required"`
	OfficialResponse string             `json:"officialResponse"`
}

// LocationResponse mirrors LocationPayload.
type LocationResponse struct {
	Address     string    `json:"address"`
	Coordinates []float64 `json:"coordinates,omitempty"`
}

// ImageResponse references a hosted photo.
type ImageResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// IssueResponse is the full issue representation.
type IssueResponse struct {
	ID                   string               `json:"id"`
	Title                string               `json:"title"`
	Description          string               `json:"description"`
	Category             string               `json:"category"`
	Location             LocationResponse     `json:"location"`
	Status               domain.IssueStatus   `json:"status"`
	Priority             domain.IssuePriority `json:"priority"`
	Images               []ImageResponse      `json:"images"`
	Upvotes              int                  `json:"upvotes"`
	Downvotes            int                  `json:"downvotes"`
	User                 UserSummary          `json:"user"`
	OfficialResponse     string               `json:"officialResponse,omitempty"`
	OfficialResponseBy   *UserSummary         `json:"officialResponseBy,omitempty"`
	OfficialResponseDate *time.Time           `json:"officialResponseDate,omitempty"`
	DistanceKm           *float64             `json:"distanceKm,omitempty"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

// Pagination describes a page of results.
type Pagination struct {
	CurrentPage int   `json:"currentPage"`
	TotalPages  int   `json:"totalPages"`
	TotalItems  int64 `json:"totalItems"`
}

// IssueListResponse is one page of issues.
type IssueListResponse struct {
	Issues     []IssueResponse `json:"issues"`
	Pagination Pagination      `json:"pagination"`
}
