package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/citizencircle/civic-api/internal/auth"
	"github.com/citizencircle/civic-api/internal/config"
	"github.com/citizencircle/civic-api/internal/domain"
	"github.com/citizencircle/civic-api/internal/repository"
	apperrors "github.com/citizencircle/civic-api/pkg/util/errorutil"
)

const minPasswordLength = 6

// RegisterInput describes a new account.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Location string
}

// ProfileInput holds profile edits. Name is required; the rest replace stored values.
type ProfileInput struct {
	Name     string
	Location string
	Bio      string
	Avatar   string
}

// AuthService coordinates registration, login and account management.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		bcryptCost: cfg.Auth.BcryptCost,
	}
}

// Register creates a citizen account and signs a token for it.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.Session, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if name == "" || email == "" {
		return nil, apperrors.NewValidationError("name and email are required", nil)
	}
	if len(input.Password) < minPasswordLength {
		return nil, apperrors.NewValidationError("password must be at least 6 characters", nil)
	}

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("user already exists", map[string]any{"email": email})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	hash, err := s.hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Location:     strings.TrimSpace(input.Location),
	}
	if err := s.users.Create(ctx, user); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("user already exists", map[string]any{"email": email})
		}
		return nil, err
	}
	return s.session(user)
}

// Login authenticates by email and password.
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewValidationError("invalid credentials", nil)
		}
		return nil, err
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, apperrors.NewValidationError("invalid credentials", nil)
	}
	// best effort: move the stored hash to the configured cost
	if auth.NeedsRehash(user.PasswordHash, s.bcryptCost) {
		if hash, err := auth.HashPassword(password, s.bcryptCost); err == nil {
			user.PasswordHash = hash
			_ = s.users.Update(ctx, user)
		}
	}
	return s.session(user)
}

// Me returns the stored account for userID.
func (s *AuthService) Me(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}

// UpdateProfile replaces the caller's profile fields.
func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileInput) (*domain.User, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.NewValidationError("name is required", nil)
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	user.Name = name
	user.Location = strings.TrimSpace(input.Location)
	user.Bio = strings.TrimSpace(input.Bio)
	if avatar := strings.TrimSpace(input.Avatar); avatar != "" {
		user.Avatar = avatar
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}

// ChangePassword verifies current password before updating to new hash.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.NewValidationError("current password is required", nil)
	}
	if len(newPassword) < minPasswordLength {
		return apperrors.NewValidationError("new password must be at least 6 characters", nil)
	}
	user, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewValidationError("current password is incorrect", nil)
	}
	hash, err := s.hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	return lookupErr(s.users.Update(ctx, user), "user")
}

func (s *AuthService) hash(password string) (string, error) {
	hash, err := auth.HashPassword(password, s.bcryptCost)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		return "", apperrors.NewValidationError("password must be at most 72 bytes", nil)
	}
	return hash, err
}

// ListUsers returns every account, newest first. Elevated callers only.
func (s *AuthService) ListUsers(ctx context.Context, caller *auth.Principal) ([]domain.User, error) {
	if err := auth.RequireElevated(caller); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// UpdateUserRole assigns a role from the closed set. Elevated callers only.
func (s *AuthService) UpdateUserRole(ctx context.Context, caller *auth.Principal, userID, rawRole string) (*domain.User, error) {
	if err := auth.RequireElevated(caller); err != nil {
		return nil, err
	}
	role, err := domain.ParseRole(strings.TrimSpace(rawRole))
	if err != nil {
		return nil, apperrors.NewValidationError("invalid role specified", map[string]any{"role": rawRole})
	}
	if !validID(userID) {
		return nil, apperrors.NewNotFound("user", nil)
	}
	user, err := s.users.UpdateRole(ctx, userID, role)
	if err != nil {
		return nil, lookupErr(err, "user")
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func (s *AuthService) session(user *domain.User) (*domain.Session, error) {
	token, exp, err := s.tokenMgr.GenerateToken(user.ID, user.Role)
	if err != nil {
		return nil, err
	}
	return &domain.Session{Token: token, ExpiresAt: exp, User: user}, nil
}
