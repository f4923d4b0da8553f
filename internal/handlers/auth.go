package handlers

import (
	"net/http"

	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/services"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	authService services.AuthService
}

func NewAuthHandler(authService services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *AuthHandler) Refresh(c *gin.Context) {
	var req services.RefreshRequest
	if !bindJSON(c, &req) {
		return
	}

	resp, err := h.authService.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Logout revokes the caller's access token and, when given, the refresh
// token from the body.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req services.LogoutRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	ctx := c.Request.Context()
	if err := h.authService.Logout(ctx, middleware.BearerToken(c)); err != nil {
		respondError(c, err)
		return
	}
	if req.RefreshToken != "" {
		if err := h.authService.Logout(ctx, req.RefreshToken); err != nil {
			respondError(c, err)
			return
		}
	}
	message(c, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	var req services.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ChangePassword(c.Request.Context(), userID, req); err != nil {
		respondError(c, err)
		return
	}
	message(c, http.StatusOK, "Password changed successfully")
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authService.ResetPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err)
		return
	}
	message(c, http.StatusOK, "A temporary password has been sent")
}

type accountStatus struct {
	Username       string `json:"username"`
	Enabled        bool   `json:"enabled"`
	Locked         bool   `json:"locked"`
	FailedAttempts int64  `json:"failedAttempts"`
}

// AccountStatus reports the lockout and enablement state of an account.
func (h *AuthHandler) AccountStatus(c *gin.Context) {
	ctx := c.Request.Context()
	username := c.Param("username")

	enabled, err := h.authService.IsAccountEnabled(ctx, username)
	if err != nil {
		respondError(c, err)
		return
	}
	locked, err := h.authService.IsAccountLocked(ctx, username)
	if err != nil {
		respondError(c, err)
		return
	}
	attempts, err := h.authService.GetFailedAttempts(ctx, username)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, accountStatus{
		Username:       username,
		Enabled:        enabled,
		Locked:         locked,
		FailedAttempts: attempts,
	})
}

func (h *AuthHandler) accountAction(action func(*gin.Context, string) error, done string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := action(c, c.Param("username")); err != nil {
			respondError(c, err)
			return
		}
		message(c, http.StatusOK, done)
	}
}

func (h *AuthHandler) LockAccount() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, username string) error {
		return h.authService.LockAccount(c.Request.Context(), username)
	}, "Account locked")
}

func (h *AuthHandler) UnlockAccount() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, username string) error {
		return h.authService.UnlockAccount(c.Request.Context(), username)
	}, "Account unlocked")
}

func (h *AuthHandler) EnableAccount() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, username string) error {
		return h.authService.EnableAccount(c.Request.Context(), username)
	}, "Account enabled")
}

func (h *AuthHandler) DisableAccount() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, username string) error {
		return h.authService.DisableAccount(c.Request.Context(), username)
	}, "Account disabled")
}

func (h *AuthHandler) ResetFailedAttempts() gin.HandlerFunc {
	return h.accountAction(func(c *gin.Context, username string) error {
		return h.authService.ResetFailedAttempts(c.Request.Context(), username)
	}, "Failed attempts reset")
}
