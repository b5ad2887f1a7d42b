package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotdapp/dotd-api/internal/api"
	"github.com/dotdapp/dotd-api/internal/domain"
	"github.com/dotdapp/dotd-api/internal/service"
	"github.com/dotdapp/dotd-api/internal/service/auth"
	"github.com/dotdapp/dotd-api/internal/store"
)

// stubUserService implements service.UserService over a fixed user set.
type stubUserService struct {
	users map[string]*domain.User // keyed by email
}

var _ service.UserService = (*stubUserService)(nil)

func newStubUserService() *stubUserService {
	return &stubUserService{users: make(map[string]*domain.User)}
}

func (s *stubUserService) add(email, password string) *domain.User {
	user := &domain.User{
		ID:             uuid.New(),
		Email:          email,
		Name:           "Test User",
		Role:           domain.RoleMember,
		HashedPassword: password,
		CreatedAt:      time.Now().UTC(),
	}
	s.users[email] = user
	return user
}

func (s *stubUserService) Register(ctx context.Context, email, name, password string) (*domain.User, error) {
	if _, exists := s.users[email]; exists {
		return nil, store.ErrEmailExists
	}
	user := s.add(email, password)
	user.Name = name
	return user, nil
}

func (s *stubUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, ok := s.users[email]
	if !ok || user.HashedPassword != password {
		return nil, service.ErrInvalidCredentials
	}
	return user, nil
}

func (s *stubUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	for _, user := range s.users {
		if user.ID == userID {
			return user, nil
		}
	}
	return nil, store.ErrUserNotFound
}

type authFixture struct {
	users   *stubUserService
	jwt     auth.JWTService
	handler *api.AuthHandler
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	users := newStubUserService()
	jwtService := auth.NewTestJWTService(
		"handler-test-secret-that-is-long-enough",
		30*time.Minute,
		24*time.Hour,
		time.Now,
	)

	return &authFixture{
		users:   users,
		jwt:     jwtService,
		handler: api.NewAuthHandler(users, jwtService),
	}
}

func postJSON(t *testing.T, handlerFn http.HandlerFunc, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerFn(rec, req)
	return rec
}

func TestRegisterEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("returns a token pair for a new account", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		rec := postJSON(t, f.handler.Register, "/api/auth/register", api.RegisterRequest{
			Email:    "new@example.com",
			Name:     "New User",
			Password: "longenoughpassword",
		})

		require.Equal(t, http.StatusCreated, rec.Code)

		var resp api.AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEqual(t, uuid.Nil, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)

		claims, err := f.jwt.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, resp.UserID, claims.UserID)
		assert.Equal(t, domain.RoleMember, claims.Role)
	})

	t.Run("duplicate email is a conflict", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.users.add("taken@example.com", "whatever")

		rec := postJSON(t, f.handler.Register, "/api/auth/register", api.RegisterRequest{
			Email:    "taken@example.com",
			Name:     "Someone",
			Password: "longenoughpassword",
		})

		assert.Equal(t, http.StatusConflict, rec.Code)
	})

	t.Run("short password fails validation", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		rec := postJSON(t, f.handler.Register, "/api/auth/register", api.RegisterRequest{
			Email:    "new@example.com",
			Name:     "New User",
			Password: "short",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLoginEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("valid credentials return a token pair", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		user := f.users.add("ada@example.com", "s3cretpass")

		rec := postJSON(t, f.handler.Login, "/api/auth/login", api.LoginRequest{
			Email:    "ada@example.com",
			Password: "s3cretpass",
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.AuthResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, user.ID, resp.UserID)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		f.users.add("ada@example.com", "s3cretpass")

		rec := postJSON(t, f.handler.Login, "/api/auth/login", api.LoginRequest{
			Email:    "ada@example.com",
			Password: "wrong",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestRefreshTokenEndpoint(t *testing.T) {
	t.Parallel()

	t.Run("valid refresh token yields a fresh pair", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)
		userID := uuid.New()

		refreshToken, err := f.jwt.GenerateRefreshToken(context.Background(), userID, domain.RoleAdmin)
		require.NoError(t, err)

		rec := postJSON(t, f.handler.RefreshToken, "/api/auth/refresh", api.RefreshTokenRequest{
			RefreshToken: refreshToken,
		})

		require.Equal(t, http.StatusOK, rec.Code)

		var resp api.RefreshTokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

		claims, err := f.jwt.ValidateToken(context.Background(), resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, domain.RoleAdmin, claims.Role)
	})

	t.Run("access token is rejected as refresh token", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		accessToken, err := f.jwt.GenerateToken(context.Background(), uuid.New(), domain.RoleMember)
		require.NoError(t, err)

		rec := postJSON(t, f.handler.RefreshToken, "/api/auth/refresh", api.RefreshTokenRequest{
			RefreshToken: accessToken,
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("garbage token is unauthorized", func(t *testing.T) {
		t.Parallel()
		f := newAuthFixture(t)

		rec := postJSON(t, f.handler.RefreshToken, "/api/auth/refresh", api.RefreshTokenRequest{
			RefreshToken: "not.a.jwt",
		})

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
