package dto

import (
	"time"

	"github.com/citizencircle/civic-api/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Location string `json:"location"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileRequest payload for PUT /auth/profile.
type ProfileRequest struct {
	Name     string `json:"name" validate:"required"`
	Location string `json:"location"`
	Bio      string `json:"bio" validate:"max=500"`
	Avatar   string `json:"avatar" validate:"omitempty,url"`
}

// PasswordRequest payload for PUT /auth/password.
type PasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6"`
}

// RoleRequest payload for PUT /admin/users/:id/role.
type RoleRequest struct {
	Role string `json:"role" validate:"required"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	ID        string      `json:"id"`
	Role      domain.Role `json:"role"`
}

// UserResponse is an account without its password hash.
type UserResponse struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	Avatar    string      `json:"avatar"`
	Location  string      `json:"location"`
	Bio       string      `json:"bio"`
	CreatedAt time.Time   `json:"createdAt"`
}

// UserSummary is the public card shown beside issues and comments.
type UserSummary struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Avatar string      `json:"avatar,omitempty"`
	Role   domain.Role `json:"role,omitempty"`
}
