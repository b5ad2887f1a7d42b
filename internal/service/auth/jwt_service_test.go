package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotdapp/dotd-api/internal/config"
	"github.com/dotdapp/dotd-api/internal/domain"
)

const testSecret = "test-secret-that-is-long-enough-for-testing"

func TestGenerateAndValidateToken(t *testing.T) {
	t.Parallel()

	fixedTime := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()

	svc := NewTestJWTService(testSecret, 30*time.Minute, 24*time.Hour,
		func() time.Time { return fixedTime })

	t.Run("access token round trip", func(t *testing.T) {
		t.Parallel()
		token, err := svc.GenerateToken(context.Background(), userID, domain.RoleMember)
		require.NoError(t, err)
		require.NotEmpty(t, token)

		claims, err := svc.ValidateToken(context.Background(), token)
		require.NoError(t, err)

		assert.Equal(t, userID, claims.UserID)
		assert.Equal(t, domain.RoleMember, claims.Role)
		assert.Equal(t, "access", claims.TokenType)
		assert.Equal(t, userID.String(), claims.Subject)
		assert.Equal(t, fixedTime.Unix(), claims.IssuedAt.Unix())
		assert.Equal(t, fixedTime.Add(30*time.Minute).Unix(), claims.ExpiresAt.Unix())
		assert.NotEmpty(t, claims.ID)
	})

	t.Run("refresh token round trip keeps role", func(t *testing.T) {
		t.Parallel()
		token, err := svc.GenerateRefreshToken(context.Background(), userID, domain.RoleAdmin)
		require.NoError(t, err)

		claims, err := svc.ValidateRefreshToken(context.Background(), token)
		require.NoError(t, err)

		assert.Equal(t, domain.RoleAdmin, claims.Role)
		assert.Equal(t, "refresh", claims.TokenType)
		assert.Equal(t, fixedTime.Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
	})

	t.Run("refresh token rejected as access token", func(t *testing.T) {
		t.Parallel()
		token, err := svc.GenerateRefreshToken(context.Background(), userID, domain.RoleMember)
		require.NoError(t, err)

		_, err = svc.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})

	t.Run("access token rejected as refresh token", func(t *testing.T) {
		t.Parallel()
		token, err := svc.GenerateToken(context.Background(), userID, domain.RoleMember)
		require.NoError(t, err)

		_, err = svc.ValidateRefreshToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrWrongTokenType)
	})
}

func TestValidateTokenFailures(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	issuedAt := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("expired token", func(t *testing.T) {
		t.Parallel()
		issuer := NewTestJWTService(testSecret, time.Minute, time.Hour,
			func() time.Time { return issuedAt })
		token, err := issuer.GenerateToken(context.Background(), userID, domain.RoleMember)
		require.NoError(t, err)

		validator := NewTestJWTService(testSecret, time.Minute, time.Hour,
			func() time.Time { return issuedAt.Add(2 * time.Minute) })

		_, err = validator.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrExpiredToken)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		t.Parallel()
		issuer := NewTestJWTService(testSecret, time.Minute, time.Hour,
			func() time.Time { return issuedAt })
		token, err := issuer.GenerateRefreshToken(context.Background(), userID, domain.RoleMember)
		require.NoError(t, err)

		validator := NewTestJWTService(testSecret, time.Minute, time.Hour,
			func() time.Time { return issuedAt.Add(2 * time.Hour) })

		_, err = validator.ValidateRefreshToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrExpiredRefreshToken)
	})

	t.Run("wrong signing key", func(t *testing.T) {
		t.Parallel()
		issuer := NewTestJWTService(testSecret, time.Minute, time.Hour, time.Now)
		token, err := issuer.GenerateToken(context.Background(), userID, domain.RoleMember)
		require.NoError(t, err)

		validator := NewTestJWTService("another-secret-that-is-long-enough!", time.Minute, time.Hour, time.Now)

		_, err = validator.ValidateToken(context.Background(), token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage token", func(t *testing.T) {
		t.Parallel()
		svc := NewTestJWTService(testSecret, time.Minute, time.Hour, time.Now)

		_, err := svc.ValidateToken(context.Background(), "not.a.jwt")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestNewJWTService(t *testing.T) {
	t.Parallel()

	t.Run("rejects short secrets", func(t *testing.T) {
		t.Parallel()
		_, err := NewJWTService(config.AuthConfig{
			JWTSecret:                   "too-short",
			TokenLifetimeMinutes:        30,
			RefreshTokenLifetimeMinutes: 10080,
		})
		assert.Error(t, err)
	})

	t.Run("accepts a proper configuration", func(t *testing.T) {
		t.Parallel()
		svc, err := NewJWTService(config.AuthConfig{
			JWTSecret:                   testSecret,
			TokenLifetimeMinutes:        30,
			RefreshTokenLifetimeMinutes: 10080,
		})
		require.NoError(t, err)
		assert.NotNil(t, svc)
	})
}

func TestBcryptHasher(t *testing.T) {
	t.Parallel()

	hasher := NewBcryptHasher()

	hashed, err := hasher.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.NotEmpty(t, hashed)

	assert.NoError(t, hasher.Compare(hashed, "correct horse battery staple"))
	assert.Error(t, hasher.Compare(hashed, "wrong password"))
}
