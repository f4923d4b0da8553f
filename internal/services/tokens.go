package services

import (
	"context"
	"crypto/sha512"
	"errors"
	"fmt"
	"log"
	"time"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/cache"
	"taskflow/backend/internal/config"
	"taskflow/backend/internal/models"

	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeBearer = "Bearer"

	claimsVersion    = 1
	refreshTokenType = "refresh"
	blacklistPrefix  = "blacklisted_token:"
)

var (
	errUnsupportedAlgorithm = errors.New("unsupported signing algorithm")
	errWrongTokenType       = errors.New("wrong token type")
	errRevokedToken         = errors.New("token has been revoked")
)

// TokenClaims is version 1 of the claim schema. Roles are copied into the
// token at issue time and stay in force until it expires.
type TokenClaims struct {
	UserID  string   `json:"userId,omitempty"`
	Email   string   `json:"email,omitempty"`
	Roles   []string `json:"roles,omitempty"`
	Type    string   `json:"type,omitempty"`
	Version int      `json:"ver"`
	jwt.RegisteredClaims
}

func (c *TokenClaims) IsRefresh() bool {
	return c.Type == refreshTokenType
}

type TokenService interface {
	IssueAccessToken(user *models.User) (string, error)
	IssueRefreshToken(user *models.User) (string, error)
	Validate(ctx context.Context, token string) bool
	ParseClaims(token string) (*TokenClaims, error)
	ParseAccessToken(ctx context.Context, token string) (*TokenClaims, error)
	ParseRefreshToken(ctx context.Context, token string) (*TokenClaims, error)
	ExtractUsername(token string) (string, error)
	IsExpired(token string) bool
	Invalidate(ctx context.Context, token string) error
	IsBlacklisted(ctx context.Context, token string) (bool, error)
	AccessTokenTTL() time.Duration
}

type JWTTokenService struct {
	key        []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      cache.Store
	now        func() time.Time
}

func NewTokenService(cfg config.AuthConfig, store cache.Store) *JWTTokenService {
	return NewTokenServiceWithClock(cfg, store, time.Now)
}

func NewTokenServiceWithClock(cfg config.AuthConfig, store cache.Store, now func() time.Time) *JWTTokenService {
	key := sha512.Sum512([]byte(cfg.JWTSecret))
	return &JWTTokenService{
		key:        key[:],
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTokenTTL,
		refreshTTL: cfg.RefreshTokenTTL,
		store:      store,
		now:        now,
	}
}

func (s *JWTTokenService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

func (s *JWTTokenService) registered(subject string, ttl time.Duration) (jwt.RegisteredClaims, error) {
	jti, err := uuid.NewV4()
	if err != nil {
		return jwt.RegisteredClaims{}, fmt.Errorf("generate token id: %w", err)
	}
	now := s.now()
	return jwt.RegisteredClaims{
		ID:        jti.String(),
		Issuer:    s.issuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}, nil
}

func (s *JWTTokenService) sign(claims *TokenClaims) (string, error) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(s.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *JWTTokenService) IssueAccessToken(user *models.User) (string, error) {
	registered, err := s.registered(user.Username, s.accessTTL)
	if err != nil {
		return "", err
	}
	return s.sign(&TokenClaims{
		UserID:           user.ID.String(),
		Email:            user.Email,
		Roles:            user.Roles.Strings(),
		Version:          claimsVersion,
		RegisteredClaims: registered,
	})
}

func (s *JWTTokenService) IssueRefreshToken(user *models.User) (string, error) {
	registered, err := s.registered(user.Username, s.refreshTTL)
	if err != nil {
		return "", err
	}
	return s.sign(&TokenClaims{
		Type:             refreshTokenType,
		Version:          claimsVersion,
		RegisteredClaims: registered,
	})
}

func (s *JWTTokenService) keyFunc(token *jwt.Token) (interface{}, error) {
	if token.Method != jwt.SigningMethodHS512 {
		return nil, fmt.Errorf("%w: %v", errUnsupportedAlgorithm, token.Header["alg"])
	}
	return s.key, nil
}

func (s *JWTTokenService) parse(token string, opts ...jwt.ParserOption) (*TokenClaims, error) {
	if token == "" {
		return nil, jwt.ErrTokenMalformed
	}
	opts = append(opts, jwt.WithTimeFunc(s.now))
	claims := &TokenClaims{}
	if _, err := jwt.NewParser(opts...).ParseWithClaims(token, claims, s.keyFunc); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseClaims verifies signature and expiry and returns the claim set.
func (s *JWTTokenService) ParseClaims(token string) (*TokenClaims, error) {
	claims, err := s.parse(token, jwt.WithExpirationRequired())
	if err != nil {
		return nil, apperrors.Token("Invalid JWT token", err)
	}
	return claims, nil
}

func (s *JWTTokenService) parseTyped(ctx context.Context, token string, refresh bool) (*TokenClaims, error) {
	claims, err := s.ParseClaims(token)
	if err != nil {
		return nil, err
	}
	if claims.IsRefresh() != refresh {
		return nil, apperrors.Token("Invalid JWT token", errWrongTokenType)
	}
	blacklisted, err := s.IsBlacklisted(ctx, token)
	if err != nil {
		return nil, err
	}
	if blacklisted {
		return nil, apperrors.Token("Invalid JWT token", errRevokedToken)
	}
	return claims, nil
}

// ParseAccessToken accepts only unrevoked access tokens.
func (s *JWTTokenService) ParseAccessToken(ctx context.Context, token string) (*TokenClaims, error) {
	return s.parseTyped(ctx, token, false)
}

// ParseRefreshToken accepts only unrevoked refresh tokens.
func (s *JWTTokenService) ParseRefreshToken(ctx context.Context, token string) (*TokenClaims, error) {
	return s.parseTyped(ctx, token, true)
}

// Validate never returns an error. Every rejection is logged with its cause.
func (s *JWTTokenService) Validate(ctx context.Context, token string) bool {
	if token == "" {
		log.Printf("JWT claims string is empty")
		return false
	}

	blacklisted, err := s.IsBlacklisted(ctx, token)
	if err != nil {
		log.Printf("Could not check token blacklist: %v", err)
		return false
	}
	if blacklisted {
		log.Printf("JWT token is blacklisted")
		return false
	}

	_, err = s.parse(token, jwt.WithExpirationRequired())
	switch {
	case err == nil:
		return true
	case errors.Is(err, errUnsupportedAlgorithm):
		log.Printf("JWT token is unsupported: %v", err)
	case errors.Is(err, jwt.ErrTokenMalformed):
		log.Printf("Invalid JWT token: %v", err)
	case errors.Is(err, jwt.ErrTokenExpired):
		log.Printf("JWT token is expired: %v", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		log.Printf("Invalid JWT signature: %v", err)
	default:
		log.Printf("JWT token rejected: %v", err)
	}
	return false
}

func (s *JWTTokenService) ExtractUsername(token string) (string, error) {
	claims, err := s.ParseClaims(token)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// IsExpired reports true for expired tokens and for anything that cannot be
// parsed.
func (s *JWTTokenService) IsExpired(token string) bool {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil || claims.ExpiresAt == nil {
		return true
	}
	return claims.ExpiresAt.Time.Before(s.now())
}

// Invalidate blacklists the token until its natural expiry. Tokens that are
// already expired need no entry.
func (s *JWTTokenService) Invalidate(ctx context.Context, token string) error {
	claims, err := s.parse(token, jwt.WithoutClaimsValidation())
	if err != nil {
		return apperrors.Token("Invalid JWT token", err)
	}
	if claims.ExpiresAt == nil {
		return apperrors.Token("Invalid JWT token", jwt.ErrTokenRequiredClaimMissing)
	}

	remaining := claims.ExpiresAt.Time.Sub(s.now())
	if remaining <= 0 {
		return nil
	}
	if err := s.store.Set(ctx, blacklistPrefix+token, "1", remaining); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

func (s *JWTTokenService) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	found, err := s.store.Exists(ctx, blacklistPrefix+token)
	if err != nil {
		return false, fmt.Errorf("check token blacklist: %w", err)
	}
	return found, nil
}
