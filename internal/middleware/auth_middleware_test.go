package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changex/eduspace/internal/app/models"
	"github.com/changex/eduspace/internal/app/models/dto"
	"github.com/changex/eduspace/internal/app/services"
	"github.com/changex/eduspace/internal/pkg/auth"
)

type stubUserStore struct {
	user *models.User
}

func (s *stubUserStore) GetUserByID(_ context.Context, userID int64) (*models.User, error) {
	if s.user != nil && s.user.ID == userID {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubUserStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	if s.user != nil && s.user.Email == email {
		return s.user, nil
	}
	return nil, nil
}

func (s *stubUserStore) UpdateLastLogin(context.Context, int64, time.Time) error { return nil }

func (s *stubUserStore) Capabilities(context.Context, int64, int64) ([]string, error) {
	return nil, nil
}

func (s *stubUserStore) RecordAudit(context.Context, int64, string) error { return nil }

func newAuthTestRouter(t *testing.T, store *stubUserStore, tokenExp time.Duration) (*gin.Engine, *auth.JWTService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	jwtService := auth.NewJWTService(auth.JWTConfig{
		SecretKey:      "middleware-test-secret",
		AccessTokenExp: tokenExp,
		TokenIssuer:    "eduspace-test",
	})
	authService := services.NewAuthService(store, jwtService)
	m := NewAuthMiddleware(authService, nil)

	router := gin.New()
	router.GET("/whoami", m.JWTAuth(), func(c *gin.Context) {
		userID, ok := UserIDFromContext(c)
		require.True(t, ok)
		c.JSON(http.StatusOK, gin.H{"userId": userID})
	})
	return router, jwtService
}

func authErrorCode(t *testing.T, body []byte) dto.ErrorCode {
	t.Helper()
	var resp dto.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &resp))
	require.NotNil(t, resp.Error)
	return resp.Error.Code
}

func TestJWTAuthValidToken(t *testing.T) {
	user := &models.User{ID: 7, Email: "student@example.edu", IsActive: true}
	router, jwtService := newAuthTestRouter(t, &stubUserStore{user: user}, time.Hour)

	token, _, err := jwtService.GenerateToken(user)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":7}`, rec.Body.String())
}

func TestJWTAuthMissingHeader(t *testing.T) {
	router, _ := newAuthTestRouter(t, &stubUserStore{}, time.Hour)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/whoami", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrorCodeUnauthorized, authErrorCode(t, rec.Body.Bytes()))
}

func TestJWTAuthGarbageToken(t *testing.T) {
	router, _ := newAuthTestRouter(t, &stubUserStore{}, time.Hour)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrorCodeInvalidToken, authErrorCode(t, rec.Body.Bytes()))
}

func TestJWTAuthExpiredToken(t *testing.T) {
	user := &models.User{ID: 7, Email: "student@example.edu", IsActive: true}
	router, jwtService := newAuthTestRouter(t, &stubUserStore{user: user}, -time.Minute)

	token, _, err := jwtService.GenerateToken(user)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrorCodeExpiredToken, authErrorCode(t, rec.Body.Bytes()))
}

// A valid token for a user that no longer exists must be rejected, not
// crash the request.
func TestJWTAuthDeletedUser(t *testing.T) {
	user := &models.User{ID: 7, Email: "student@example.edu", IsActive: true}
	store := &stubUserStore{user: user}
	router, jwtService := newAuthTestRouter(t, store, time.Hour)

	token, _, err := jwtService.GenerateToken(user)
	require.NoError(t, err)
	store.user = nil

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, dto.ErrorCodeInvalidToken, authErrorCode(t, rec.Body.Bytes()))
}

func TestJWTAuthDeactivatedUser(t *testing.T) {
	user := &models.User{ID: 7, Email: "student@example.edu", IsActive: true}
	store := &stubUserStore{user: user}
	router, jwtService := newAuthTestRouter(t, store, time.Hour)

	token, _, err := jwtService.GenerateToken(user)
	require.NoError(t, err)
	user.IsActive = false

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
