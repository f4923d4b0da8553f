package middleware

import (
	"strings"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
)

const (
	ContextUserID   = "user_id"
	ContextUsername = "username"
	ContextRoles    = "roles"
	ContextToken    = "token"

	bearerPrefix = "Bearer "
)

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), apperrors.NewResponse(err))
}

// BearerToken returns the token from the Authorization header, or "".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, bearerPrefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
}

// Authenticate accepts only unrevoked access tokens and stores the caller's
// identity on the context.
func Authenticate(tokens services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			abortWithError(c, apperrors.Authentication("Authorization header is required"))
			return
		}

		token := BearerToken(c)
		if token == "" {
			abortWithError(c, apperrors.Authentication("Authorization header must use Bearer token"))
			return
		}

		claims, err := tokens.ParseAccessToken(c.Request.Context(), token)
		if err != nil {
			abortWithError(c, err)
			return
		}

		userID, err := uuid.FromString(claims.UserID)
		if err != nil {
			abortWithError(c, apperrors.Token("Invalid JWT token", err))
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextUsername, claims.Subject)
		c.Set(ContextRoles, claims.Roles)
		c.Set(ContextToken, token)
		c.Next()
	}
}

// RequireRoles lets the request through when the caller holds any of roles.
// It must run after Authenticate.
func RequireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, held := range CurrentRoles(c) {
			for _, role := range roles {
				if held == string(role) {
					c.Next()
					return
				}
			}
		}
		abortWithError(c, apperrors.AccessDenied(c.Request.Method, c.FullPath()))
	}
}

func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, ok := c.Get(ContextUserID)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

func CurrentUsername(c *gin.Context) string {
	return c.GetString(ContextUsername)
}

func CurrentRoles(c *gin.Context) []string {
	return c.GetStringSlice(ContextRoles)
}
