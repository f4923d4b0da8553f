package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/notify"
	"taskflow/backend/internal/repositories"

	"github.com/gofrs/uuid"
)

const (
	temporaryPasswordLength = 12

	msgAccountLocked   = "Account is temporarily locked due to multiple failed attempts"
	msgAccountDisabled = "Account is disabled"
	msgBadCredentials  = "Invalid username or password"
	msgInvalidRefresh  = "Invalid refresh token"
	msgWrongPassword   = "Current password is incorrect"
)

type AuthService interface {
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error)
	Logout(ctx context.Context, token string) error
	ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error
	ResetPassword(ctx context.Context, email string) error
	EnableAccount(ctx context.Context, username string) error
	DisableAccount(ctx context.Context, username string) error
	IsAccountEnabled(ctx context.Context, username string) (bool, error)
	LockAccount(ctx context.Context, username string) error
	UnlockAccount(ctx context.Context, username string) error
	IsAccountLocked(ctx context.Context, username string) (bool, error)
	GetFailedAttempts(ctx context.Context, username string) (int64, error)
	ResetFailedAttempts(ctx context.Context, username string) error
	VerifyPassword(ctx context.Context, username, password string) (bool, error)
}

type AuthServiceImpl struct {
	users    repositories.UserRepository
	hasher   PasswordHasher
	tokens   TokenService
	throttle *LoginThrottle
	mailer   notify.Mailer
}

func NewAuthService(users repositories.UserRepository, hasher PasswordHasher, tokens TokenService, throttle *LoginThrottle, mailer notify.Mailer) *AuthServiceImpl {
	return &AuthServiceImpl{
		users:    users,
		hasher:   hasher,
		tokens:   tokens,
		throttle: throttle,
		mailer:   mailer,
	}
}

func (s *AuthServiceImpl) issue(user *models.User) (*AuthResponse, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.IssueRefreshToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    s.tokens.AccessTokenTTL().Milliseconds(),
		User:         *toUserSummary(user),
	}, nil
}

// Login checks the lock before credentials, counts every credential failure
// and clears the counter on success. Disabled accounts are rejected without
// counting a failure.
func (s *AuthServiceImpl) Login(ctx context.Context, req LoginRequest) (*AuthResponse, error) {
	locked, err := s.throttle.IsLocked(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	if locked {
		return nil, apperrors.Authentication(msgAccountLocked)
	}

	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil && !errors.Is(err, repositories.ErrNotFound) {
		return nil, err
	}
	if user != nil && !user.Enabled {
		return nil, apperrors.Authentication(msgAccountDisabled)
	}

	if user == nil || !s.hasher.Verify(req.Password, user.Password) {
		attempts, nowLocked, err := s.throttle.RecordFailure(ctx, req.Username)
		if err != nil {
			return nil, err
		}
		if nowLocked {
			log.Printf("Account %s locked after %d failed login attempts", req.Username, attempts)
		}
		return nil, apperrors.Authentication(msgBadCredentials)
	}

	if err := s.throttle.ResetFailedAttempts(ctx, req.Username); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthServiceImpl) Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error) {
	user, err := createUser(ctx, s.users, s.hasher, CreateUserRequest{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		return nil, err
	}
	log.Printf("Registered user %s", user.Username)
	return s.issue(user)
}

// Refresh rotates the pair: the presented refresh token is revoked before the
// new tokens are returned.
func (s *AuthServiceImpl) Refresh(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := s.tokens.ParseRefreshToken(ctx, refreshToken)
	if err != nil {
		if apperrors.KindOf(err) == apperrors.KindToken {
			return nil, apperrors.Token(msgInvalidRefresh, err)
		}
		return nil, err
	}
	if claims.Subject == "" {
		return nil, apperrors.Token("Failed to extract username from token", nil)
	}

	user, err := s.users.FindByUsername(ctx, claims.Subject)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperrors.Token(msgInvalidRefresh, err)
	}
	if err != nil {
		return nil, err
	}
	if !user.Enabled {
		return nil, apperrors.Authentication(msgAccountDisabled)
	}

	if err := s.tokens.Invalidate(ctx, refreshToken); err != nil {
		return nil, err
	}
	return s.issue(user)
}

func (s *AuthServiceImpl) Logout(ctx context.Context, token string) error {
	return s.tokens.Invalidate(ctx, token)
}

func (s *AuthServiceImpl) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return notFoundAs(err, "User", "ID", userID)
	}
	if !s.hasher.Verify(req.CurrentPassword, user.Password) {
		return apperrors.Authentication(msgWrongPassword)
	}

	hashed, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.users.Update(ctx, user)
}

// ResetPassword replaces the password with a generated one, mails it and
// lifts any lock on the account.
func (s *AuthServiceImpl) ResetPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return notFoundAs(err, "User", "email", email)
	}

	temporary, err := GenerateTemporaryPassword(temporaryPasswordLength)
	if err != nil {
		return err
	}
	hashed, err := s.hasher.Hash(temporary)
	if err != nil {
		return err
	}
	user.Password = hashed
	if err := s.users.Update(ctx, user); err != nil {
		return err
	}
	if err := s.throttle.Unlock(ctx, user.Username); err != nil {
		return err
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, temporary); err != nil {
		return fmt.Errorf("deliver temporary password: %w", err)
	}
	log.Printf("Password reset for user %s", user.Username)
	return nil
}

func (s *AuthServiceImpl) setEnabled(ctx context.Context, username string, enabled bool) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return notFoundAs(err, "User", "username", username)
	}
	if user.Enabled == enabled {
		return nil
	}
	user.Enabled = enabled
	return s.users.Update(ctx, user)
}

func (s *AuthServiceImpl) EnableAccount(ctx context.Context, username string) error {
	return s.setEnabled(ctx, username, true)
}

func (s *AuthServiceImpl) DisableAccount(ctx context.Context, username string) error {
	return s.setEnabled(ctx, username, false)
}

func (s *AuthServiceImpl) IsAccountEnabled(ctx context.Context, username string) (bool, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return false, notFoundAs(err, "User", "username", username)
	}
	return user.Enabled, nil
}

func (s *AuthServiceImpl) LockAccount(ctx context.Context, username string) error {
	return s.throttle.Lock(ctx, username)
}

func (s *AuthServiceImpl) UnlockAccount(ctx context.Context, username string) error {
	return s.throttle.Unlock(ctx, username)
}

func (s *AuthServiceImpl) IsAccountLocked(ctx context.Context, username string) (bool, error) {
	return s.throttle.IsLocked(ctx, username)
}

func (s *AuthServiceImpl) GetFailedAttempts(ctx context.Context, username string) (int64, error) {
	return s.throttle.GetFailedAttempts(ctx, username)
}

func (s *AuthServiceImpl) ResetFailedAttempts(ctx context.Context, username string) error {
	return s.throttle.ResetFailedAttempts(ctx, username)
}

func (s *AuthServiceImpl) VerifyPassword(ctx context.Context, username, password string) (bool, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return s.hasher.Verify(password, user.Password), nil
}
