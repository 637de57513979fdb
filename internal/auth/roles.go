package auth

import (
	"github.com/gofiber/fiber/v2"

	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

// RequireElevated fails with Forbidden unless the caller is an admin or official.
func RequireElevated(p *Principal) error {
	if p == nil || p.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !p.Role().IsElevated() {
		return apperrors.NewForbidden("admin or official role required")
	}
	return nil
}

// RequireOwnerOrElevated fails with Forbidden unless the caller owns the resource or is elevated.
func RequireOwnerOrElevated(p *Principal, ownerID string) error {
	if p == nil || p.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if p.User.ID == ownerID || p.Role().IsElevated() {
		return nil
	}
	return apperrors.NewForbidden("not allowed to modify this resource")
}

// RequireAuth ensures a principal was loaded by AuthMiddleware.
func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, ok := PrincipalFromContext(c); !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		return c.Next()
	}
}

// RequireElevatedRole gates a route group to admins and officials.
func RequireElevatedRole() fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		if err := RequireElevated(principal); err != nil {
			return err
		}
		return c.Next()
	}
}
