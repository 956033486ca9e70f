package middleware

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	appauth "github.com/changex/eduspace/internal/app/auth"
	"github.com/changex/eduspace/internal/app/models/dto"
	"github.com/changex/eduspace/internal/app/services"
	"github.com/changex/eduspace/internal/pkg/apperrors"
	"github.com/changex/eduspace/internal/pkg/auth"
)

// Context keys set by JWTAuth.
const (
	ContextUserID = "userID"
	ContextEmail  = "email"
)

// AuthMiddleware for authentication and authorization
type AuthMiddleware struct {
	authService *services.AuthService
	authz       *appauth.AuthorizationService
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(authService *services.AuthService, authz *appauth.AuthorizationService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
		authz:       authz,
	}
}

// JWTAuth validates the bearer token and resolves its user, so tokens for
// deleted or deactivated accounts stop working at the next request.
func (m *AuthMiddleware) JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Authorization header missing")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		tokenString, err := auth.ExtractBearerToken(authHeader)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required").
				WithDetails("Invalid token format")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		user, err := m.authService.ValidateToken(c.Request.Context(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, apperrors.ErrTokenExpired):
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeExpiredToken, "Authentication failed").
					WithDetails("Token has expired")
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			case errors.Is(err, apperrors.ErrPermissionDenied):
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Account is disabled")
				c.AbortWithStatusJSON(http.StatusForbidden, dto.NewErrorResponse(errorDetail))
			default:
				errorDetail := dto.NewErrorDetail(dto.ErrorCodeInvalidToken, "Authentication failed").
					WithDetails("Invalid token")
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			}
			return
		}

		c.Set(ContextUserID, user.ID)
		c.Set(ContextEmail, user.Email)

		c.Next()
	}
}

// CapabilityRequired ensures the authenticated user holds a capability at
// the institution named by the institutionId path parameter.
func (m *AuthMiddleware) CapabilityRequired(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		institutionID, err := strconv.ParseInt(c.Param("institutionId"), 10, 64)
		if err != nil {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid institution ID").
				WithField("institutionId")
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := m.authz.RequireCapability(c.Request.Context(), userID, institutionID, capability); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// OfferingCapabilityRequired ensures the authenticated user holds a
// capability at the institution owning the offering in the id path parameter.
func (m *AuthMiddleware) OfferingCapabilityRequired(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		offeringID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || offeringID < 1 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid offering ID").
				WithField("id")
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := m.authz.RequireOfferingCapability(c.Request.Context(), userID, offeringID, capability); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// EnrollmentCapabilityRequired ensures the authenticated user holds a
// capability at the institution owning the enrollment in the id path parameter.
func (m *AuthMiddleware) EnrollmentCapabilityRequired(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		enrollmentID, err := strconv.ParseInt(c.Param("id"), 10, 64)
		if err != nil || enrollmentID < 1 {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Invalid enrollment ID").
				WithField("id")
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := m.authz.RequireEnrollmentCapability(c.Request.Context(), userID, enrollmentID, capability); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// CapabilityAnywhereRequired ensures the user holds a capability in at least
// one institution. Used for routes without an institution in the path.
func (m *AuthMiddleware) CapabilityAnywhereRequired(capability string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		if !ok {
			errorDetail := dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "Authentication required")
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(errorDetail))
			return
		}

		if err := m.authz.RequireCapabilityAnywhere(c.Request.Context(), userID, capability); err != nil {
			HandleAPIError(c, err)
			c.Abort()
			return
		}

		c.Next()
	}
}

// UserIDFromContext returns the authenticated user ID set by JWTAuth.
func UserIDFromContext(c *gin.Context) (int64, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return 0, false
	}
	userID, ok := value.(int64)
	return userID, ok
}
