package services

import (
	"context"
	"time"

	"github.com/changex/eduspace/internal/app/models"
	"github.com/changex/eduspace/internal/pkg/apperrors"
	"github.com/changex/eduspace/internal/pkg/auth"
	"github.com/changex/eduspace/internal/pkg/logger"
)

// UserStore provides the user lookups the auth service needs.
type UserStore interface {
	GetUserByID(ctx context.Context, userID int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	Capabilities(ctx context.Context, userID, institutionID int64) ([]string, error)
	RecordAudit(ctx context.Context, userID int64, action string) error
}

// AuthService handles authentication operations.
type AuthService struct {
	users      UserStore
	jwtService *auth.JWTService
}

// NewAuthService creates a new auth service.
func NewAuthService(users UserStore, jwtService *auth.JWTService) *AuthService {
	return &AuthService{
		users:      users,
		jwtService: jwtService,
	}
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	Token     string
	ExpiresIn int
	User      *models.User
}

// Login verifies credentials and issues an access token. The login is
// stamped on the user row and recorded in the audit log.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil || user == nil {
		// Hide whether the account exists.
		return nil, apperrors.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, apperrors.ErrPermissionDenied
	}

	if !auth.CheckPassword(password, user.PasswordHash) {
		return nil, apperrors.ErrInvalidCredentials
	}

	token, expiresIn, err := s.jwtService.GenerateToken(user)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := s.users.UpdateLastLogin(ctx, user.ID, now); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to stamp last login")
	}
	if err := s.users.RecordAudit(ctx, user.ID, "login"); err != nil {
		logger.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to record login audit entry")
	}

	return &LoginResult{Token: token, ExpiresIn: expiresIn, User: user}, nil
}

// ValidateToken validates an access token and resolves its user.
func (s *AuthService) ValidateToken(ctx context.Context, tokenString string) (*models.User, error) {
	claims, err := s.jwtService.ValidateToken(tokenString)
	if err != nil {
		if err == auth.ErrExpiredToken {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil || user == nil {
		return nil, apperrors.ErrTokenInvalid
	}
	if !user.IsActive {
		return nil, apperrors.ErrPermissionDenied
	}

	return user, nil
}

// Capabilities returns the union of the user's role capabilities at an institution.
func (s *AuthService) Capabilities(ctx context.Context, userID, institutionID int64) ([]string, error) {
	return s.users.Capabilities(ctx, userID, institutionID)
}
