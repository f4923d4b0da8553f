package services_test

import (
	"context"
	"crypto/sha512"
	"testing"
	"time"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenUser() *models.User {
	return &models.User{
		ID:       uuid.Must(uuid.NewV4()),
		Username: "alice",
		Email:    "alice@example.com",
		Roles:    models.NewRoleSet(models.RoleUser, models.RoleManager),
		Enabled:  true,
	}
}

func newTokenService(clock *testClock) (*services.JWTTokenService, *cache.MemoryStore) {
	store := cache.NewMemoryStoreWithClock(clock.Now)
	return services.NewTokenServiceWithClock(testAuthConfig, store, clock.Now), store
}

func TestTokenService_AccessTokenClaims(t *testing.T) {
	clock := newTestClock()
	tokens, _ := newTokenService(clock)
	user := tokenUser()

	token, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)

	claims, err := tokens.ParseClaims(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Subject)
	assert.Equal(t, user.ID.String(), claims.UserID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Equal(t, []string{"MANAGER", "USER"}, claims.Roles)
	assert.Equal(t, 1, claims.Version)
	assert.NotEmpty(t, claims.ID)
	assert.False(t, claims.IsRefresh())
	assert.Equal(t, clock.Now().Add(time.Hour).Unix(), claims.ExpiresAt.Unix())

	username, err := tokens.ExtractUsername(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", username)
	assert.True(t, tokens.Validate(context.Background(), token))
}

func TestTokenService_RefreshTokenCarriesNoRoles(t *testing.T) {
	clock := newTestClock()
	tokens, _ := newTokenService(clock)

	token, err := tokens.IssueRefreshToken(tokenUser())
	require.NoError(t, err)

	claims, err := tokens.ParseClaims(token)
	require.NoError(t, err)
	assert.True(t, claims.IsRefresh())
	assert.Empty(t, claims.Roles)
	assert.Empty(t, claims.Email)
	assert.Equal(t, clock.Now().Add(24*time.Hour).Unix(), claims.ExpiresAt.Unix())
}

func TestTokenService_TokensAreUnique(t *testing.T) {
	tokens, _ := newTokenService(newTestClock())
	user := tokenUser()

	first, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)
	second, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestTokenService_TypeSeparation(t *testing.T) {
	ctx := context.Background()
	tokens, _ := newTokenService(newTestClock())
	user := tokenUser()

	access, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)
	refresh, err := tokens.IssueRefreshToken(user)
	require.NoError(t, err)

	_, err = tokens.ParseAccessToken(ctx, refresh)
	assert.ErrorIs(t, err, apperrors.ErrToken)
	_, err = tokens.ParseRefreshToken(ctx, access)
	assert.ErrorIs(t, err, apperrors.ErrToken)

	_, err = tokens.ParseAccessToken(ctx, access)
	assert.NoError(t, err)
	_, err = tokens.ParseRefreshToken(ctx, refresh)
	assert.NoError(t, err)
}

func TestTokenService_InvalidateBlacklistsUntilExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	tokens, store := newTokenService(clock)

	token, err := tokens.IssueAccessToken(tokenUser())
	require.NoError(t, err)
	clock.Advance(15 * time.Minute)

	require.NoError(t, tokens.Invalidate(ctx, token))
	assert.False(t, tokens.Validate(ctx, token))
	assert.False(t, tokens.IsExpired(token))

	blacklisted, err := tokens.IsBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.True(t, blacklisted)

	ttl, err := store.TTL(ctx, "blacklisted_token:"+token)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Minute, ttl)

	_, err = tokens.ParseAccessToken(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrToken)

	clock.Advance(46 * time.Minute)
	blacklisted, err = tokens.IsBlacklisted(ctx, token)
	require.NoError(t, err)
	assert.False(t, blacklisted)
}

func TestTokenService_InvalidateExpiredTokenIsNoop(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	tokens, store := newTokenService(clock)

	token, err := tokens.IssueAccessToken(tokenUser())
	require.NoError(t, err)
	clock.Advance(2 * time.Hour)

	require.NoError(t, tokens.Invalidate(ctx, token))
	assert.Equal(t, 0, store.Len())
	assert.True(t, tokens.IsExpired(token))
	assert.False(t, tokens.Validate(ctx, token))
}

func TestTokenService_InvalidateRejectsGarbage(t *testing.T) {
	tokens, _ := newTokenService(newTestClock())

	err := tokens.Invalidate(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, apperrors.ErrToken)
}

func TestTokenService_ValidateRejections(t *testing.T) {
	ctx := context.Background()
	clock := newTestClock()
	tokens, _ := newTokenService(clock)
	user := tokenUser()

	valid, err := tokens.IssueAccessToken(user)
	require.NoError(t, err)

	key := sha512.Sum512([]byte(testAuthConfig.JWTSecret))
	hs256, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}).SignedString(key[:])
	require.NoError(t, err)

	otherKey := sha512.Sum512([]byte("another-secret"))
	foreign, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   "alice",
		ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Hour)),
	}).SignedString(otherKey[:])
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject: "alice",
	}).SignedString(key[:])
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{"empty", ""},
		{"malformed", "abc.def"},
		{"unsupported algorithm", hs256},
		{"bad signature", foreign},
		{"missing expiry", noExpiry},
		{"tampered", valid[:len(valid)-4] + "AAAA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.False(t, tokens.Validate(ctx, tt.token))
			assert.True(t, tokens.IsExpired(tt.token))
			_, err := tokens.ExtractUsername(tt.token)
			assert.ErrorIs(t, err, apperrors.ErrToken)
		})
	}

	clock.Advance(61 * time.Minute)
	assert.False(t, tokens.Validate(ctx, valid))
	assert.True(t, tokens.IsExpired(valid))
}

func TestTokenService_BlacklistInRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(&cache.CacheConfig{Addr: mr.Addr()})
	defer store.Close()

	tokens := services.NewTokenService(testAuthConfig, store)
	token, err := tokens.IssueAccessToken(tokenUser())
	require.NoError(t, err)

	require.True(t, tokens.Validate(ctx, token))
	require.NoError(t, tokens.Invalidate(ctx, token))
	assert.False(t, tokens.Validate(ctx, token))

	key := "blacklisted_token:" + token
	assert.True(t, mr.Exists(key))
	assert.InDelta(t, time.Hour.Seconds(), mr.TTL(key).Seconds(), 5)

	mr.FastForward(time.Hour + time.Second)
	assert.False(t, mr.Exists(key))
}

func TestTokenService_ValidateFailsClosedWhenStoreIsDown(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(&cache.CacheConfig{Addr: mr.Addr(), MaxRetries: -1})
	defer store.Close()

	tokens := services.NewTokenService(testAuthConfig, store)
	token, err := tokens.IssueAccessToken(tokenUser())
	require.NoError(t, err)

	mr.Close()
	assert.False(t, tokens.Validate(ctx, token))
}
