package domain

import (
	"fmt"
	"time"
)

// Role is the closed set of account roles.
type Role string

const (
	RoleUser     Role = "user"
	RoleAdmin    Role = "admin"
	RoleOfficial Role = "official"
)

// ParseRole converts raw input into a Role.
func ParseRole(raw string) (Role, error) {
	switch Role(raw) {
	case RoleUser:
		return RoleUser, nil
	case RoleAdmin:
		return RoleAdmin, nil
	case RoleOfficial:
		return RoleOfficial, nil
	}
	return "", fmt.Errorf("unknown role %q", raw)
}

// IsElevated reports whether the role may triage issues and read the dashboard.
// Officials carry the same authorization as admins.
func (r Role) IsElevated() bool {
	switch r {
	case RoleAdmin, RoleOfficial:
		return true
	case RoleUser:
		return false
	}
	return false
}

// User is a registered citizen, official or administrator.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	Avatar       string
	Location     string
	Bio          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
