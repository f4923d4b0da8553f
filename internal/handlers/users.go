package handlers

import (
	"net/http"

	"taskflow/backend/internal/apperrors"
	"taskflow/backend/internal/middleware"
	"taskflow/backend/internal/models"
	"taskflow/backend/internal/repositories"
	"taskflow/backend/internal/services"
	"taskflow/backend/internal/utils"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService services.UserService
}

func NewUserHandler(userService services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

func isAdmin(c *gin.Context) bool {
	for _, role := range middleware.CurrentRoles(c) {
		if role == string(models.RoleAdmin) {
			return true
		}
	}
	return false
}

func userFilter(c *gin.Context) (repositories.UserFilter, error) {
	filter := repositories.UserFilter{Search: c.Query("search")}
	var err error
	if filter.Role, err = queryEnum(c, "role", models.ParseRole); err != nil {
		return filter, err
	}
	if filter.Enabled, err = queryBool(c, "enabled"); err != nil {
		return filter, err
	}
	if filter.ProjectID, err = queryID(c, "projectId"); err != nil {
		return filter, err
	}
	return filter, nil
}

func (h *UserHandler) List(c *gin.Context) {
	filter, err := userFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	page, err := h.userService.List(c.Request.Context(), filter, utils.GetPageRequest(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *UserHandler) Count(c *gin.Context) {
	filter, err := userFilter(c)
	if err != nil {
		respondError(c, err)
		return
	}

	count, err := h.userService.Count(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": count})
}

func (h *UserHandler) Me(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Lookup finds a user by the username or email query parameter.
func (h *UserHandler) Lookup(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		user *services.UserResponse
		err  error
	)
	switch {
	case c.Query("username") != "":
		user, err = h.userService.GetByUsername(ctx, c.Query("username"))
	case c.Query("email") != "":
		user, err = h.userService.GetByEmail(ctx, c.Query("email"))
	default:
		err = apperrors.Validation("username", "username or email is required")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Exists(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		exists bool
		err    error
	)
	switch {
	case c.Query("username") != "":
		exists, err = h.userService.ExistsByUsername(ctx, c.Query("username"))
	case c.Query("email") != "":
		exists, err = h.userService.ExistsByEmail(ctx, c.Query("email"))
	default:
		err = apperrors.Validation("username", "username or email is required")
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

func (h *UserHandler) Create(c *gin.Context) {
	var req services.CreateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// Update lets users edit their own profile. Only admins may edit others,
// toggle the enabled flag or set a password here; users change their own
// password through /auth/change-password.
func (h *UserHandler) Update(c *gin.Context) {
	actorID, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	admin := isAdmin(c)
	if id != actorID && !admin {
		respondError(c, apperrors.AccessDenied("update", "user - users can only update their own profile"))
		return
	}

	var req services.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}
	if !admin {
		req.Enabled = nil
		req.Password = nil
	}

	user, err := h.userService.Update(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.userService.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) AddRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req services.RoleRequest
	if !bindJSON(c, &req) {
		return
	}
	role, err := parseEnum("role", req.Role, models.ParseRole)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.AddRole(c.Request.Context(), id, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) RemoveRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	role, err := parseEnum("role", c.Param("role"), models.ParseRole)
	if err != nil {
		respondError(c, err)
		return
	}

	user, err := h.userService.RemoveRole(c.Request.Context(), id, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
