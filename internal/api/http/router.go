package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/citizencircle/civic-api/internal/api/http/handlers"
	"github.com/citizencircle/civic-api/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Issues         *handlers.IssuesHandler
	Votes          *handlers.VotesHandler
	Comments       *handlers.CommentsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
	// IssueLimiter guards issue creation; nil disables it.
	IssueLimiter fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	requireAuth := []fiber.Handler{cfg.AuthMiddleware.Handle, auth.RequireAuth()}
	protect := func(h ...fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, requireAuth...), h...)
	}

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)
	authGroup.Get("/me", protect(cfg.Auth.Me)...)
	authGroup.Put("/profile", protect(cfg.Auth.UpdateProfile)...)
	authGroup.Put("/password", protect(cfg.Auth.ChangePassword)...)

	issues := app.Group("/issues")
	issues.Get("/", cfg.Issues.ListIssues)
	createChain := protect()
	if cfg.IssueLimiter != nil {
		createChain = append(createChain, cfg.IssueLimiter)
	}
	issues.Post("/", append(createChain, cfg.Issues.CreateIssue)...)
	// static segments before /:id
	issues.Get("/nearby", cfg.Issues.NearbyIssues)
	issues.Get("/user/:userId", cfg.Issues.ListByUser)
	issues.Get("/:id", cfg.Issues.GetIssue)
	issues.Put("/:id", protect(cfg.Issues.UpdateIssue)...)
	issues.Delete("/:id", protect(cfg.Issues.DeleteIssue)...)
	issues.Post("/:id/images", protect(cfg.Issues.UploadImage)...)
	issues.Put("/:id/status", protect(cfg.Issues.UpdateStatus)...)
	issues.Post("/:id/votes", protect(cfg.Votes.CastVote)...)
	issues.Get("/:id/votes", cfg.Votes.ListIssueVotes)
	issues.Get("/:id/comments", cfg.Comments.ListComments)
	issues.Post("/:id/comments", protect(cfg.Comments.AddComment)...)

	comments := app.Group("/comments", requireAuth...)
	comments.Put("/:commentId", cfg.Comments.UpdateComment)
	comments.Delete("/:commentId", cfg.Comments.DeleteComment)

	app.Get("/votes/me", protect(cfg.Votes.ListMyVotes)...)

	admin := app.Group("/admin", protect(auth.RequireElevatedRole())...)
	admin.Get("/dashboard", cfg.Admin.Dashboard)
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Put("/users/:id/role", cfg.Admin.UpdateUserRole)
	admin.Get("/issues/:id/tally", cfg.Admin.AuditTally)
	admin.Get("/metrics", cfg.Admin.Metrics)
}
